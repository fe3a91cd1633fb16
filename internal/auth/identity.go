package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/MontyPithon/bancroff/internal/repository"
	"github.com/MontyPithon/bancroff/internal/workflow"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// gin 上下文中的身份键
const (
	ContextActorKey  = "actor"
	ContextClaimsKey = "claims"
)

// IdentityMiddleware 身份解析中间件
// 验证 Bearer token,按小写邮箱解析数据库用户,并构造显式的
// 授权上下文 workflow.Actor 存入 gin 上下文。引擎只消费 Actor,
// 不读取任何会话级全局状态。
func IdentityMiddleware(validator *KeycloakTokenValidator, userRepo repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		if validator == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"code":    503,
				"message": "identity provider not configured",
			})
			c.Abort()
			return
		}

		token := c.GetHeader("Authorization")
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"code":    401,
				"message": "missing authorization header",
			})
			c.Abort()
			return
		}

		// 移除 "Bearer " 前缀
		if len(token) > 7 && token[:7] == "Bearer " {
			token = token[7:]
		}

		claims, err := validator.ValidateToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"code":    401,
				"message": "invalid token",
				"detail":  err.Error(),
			})
			c.Abort()
			return
		}

		// 身份提供方的 preferred_username 是邮箱,统一转小写比较
		email := strings.ToLower(claims.PreferredUsername)
		if email == "" {
			email = strings.ToLower(claims.Email)
		}

		user, err := userRepo.FindByEmail(email)
		if err != nil {
			status := http.StatusInternalServerError
			message := "failed to resolve user"
			if errors.Is(err, gorm.ErrRecordNotFound) {
				status = http.StatusUnauthorized
				message = "user not found, please log in again"
			}
			c.JSON(status, gin.H{"code": status, "message": message})
			c.Abort()
			return
		}

		// 停用账号直接拒绝
		if !user.IsActive() {
			c.JSON(http.StatusForbidden, gin.H{
				"code":    403,
				"message": "your account is deactivated, please contact the administrator",
			})
			c.Abort()
			return
		}

		c.Set(ContextClaimsKey, claims)
		c.Set(ContextActorKey, workflow.ActorFromUser(user))
		c.Next()
	}
}

// AdminRequired 管理员校验中间件,必须在 IdentityMiddleware 之后
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFromContext(c)
		if !ok || !actor.IsAdmin() {
			c.JSON(http.StatusForbidden, gin.H{
				"code":    403,
				"message": "you do not have permission to access this resource",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// ActorFromContext 从 gin 上下文取出授权上下文
func ActorFromContext(c *gin.Context) (workflow.Actor, bool) {
	value, exists := c.Get(ContextActorKey)
	if !exists {
		return workflow.Actor{}, false
	}
	actor, ok := value.(workflow.Actor)
	return actor, ok
}
