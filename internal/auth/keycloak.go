package auth

import (
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// KeycloakClaims 身份提供方签发的 JWT 声明
// 审批服务只消费邮箱与用户名,角色以本地用户表为准
type KeycloakClaims struct {
	Email             string `json:"email"`
	PreferredUsername string `json:"preferred_username"`
	Name              string `json:"name"`
	jwt.RegisteredClaims
}

// KeycloakTokenValidator 校验 Keycloak 签发的访问令牌
// 公钥按 kid 缓存,遇到未知 kid 时重新拉取 JWKS 以支持密钥轮换
type KeycloakTokenValidator struct {
	issuer     string
	jwksURL    string
	parser     *jwt.Parser
	httpClient *http.Client

	mu   sync.RWMutex
	keys map[string]*rsa.PublicKey
}

// NewKeycloakTokenValidator 创建令牌校验器
func NewKeycloakTokenValidator(issuer string) *KeycloakTokenValidator {
	return &KeycloakTokenValidator{
		issuer:  issuer,
		jwksURL: fmt.Sprintf("%s/protocol/openid-connect/certs", issuer),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{"RS256"}),
			jwt.WithIssuer(issuer),
			jwt.WithExpirationRequired(),
		),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		keys:       make(map[string]*rsa.PublicKey),
	}
}

// Issuer 返回签发方地址
func (v *KeycloakTokenValidator) Issuer() string {
	return v.issuer
}

// ValidateToken 校验令牌签名与标准声明,返回解析出的声明
func (v *KeycloakTokenValidator) ValidateToken(tokenString string) (*KeycloakClaims, error) {
	token, err := v.parser.ParseWithClaims(tokenString, &KeycloakClaims{}, v.keyFor)
	if err != nil {
		return nil, fmt.Errorf("token validation failed: %w", err)
	}

	claims, ok := token.Claims.(*KeycloakClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// keyFor 根据令牌头中的 kid 解析验签公钥
func (v *KeycloakTokenValidator) keyFor(token *jwt.Token) (interface{}, error) {
	kid, ok := token.Header["kid"].(string)
	if !ok || kid == "" {
		return nil, errors.New("missing kid in token header")
	}

	v.mu.RLock()
	key, ok := v.keys[kid]
	v.mu.RUnlock()
	if ok {
		return key, nil
	}

	if err := v.refreshKeys(); err != nil {
		return nil, err
	}

	v.mu.RLock()
	key, ok = v.keys[kid]
	v.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("key not found in JWKS: %s", kid)
	}
	return key, nil
}

// refreshKeys 拉取 JWKS 并替换本地公钥缓存
func (v *KeycloakTokenValidator) refreshKeys() error {
	resp, err := v.httpClient.Get(v.jwksURL)
	if err != nil {
		return fmt.Errorf("failed to fetch JWKS: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("JWKS endpoint returned status %d", resp.StatusCode)
	}

	var jwks struct {
		Keys []struct {
			Kid string `json:"kid"`
			Kty string `json:"kty"`
			Use string `json:"use"`
			N   string `json:"n"`
			E   string `json:"e"`
		} `json:"keys"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&jwks); err != nil {
		return fmt.Errorf("failed to decode JWKS: %w", err)
	}

	fresh := make(map[string]*rsa.PublicKey, len(jwks.Keys))
	for _, key := range jwks.Keys {
		if key.Kty != "RSA" || key.Use == "enc" {
			continue
		}
		publicKey, err := parseRSAPublicKey(key.N, key.E)
		if err != nil {
			return fmt.Errorf("failed to parse JWKS key %s: %w", key.Kid, err)
		}
		fresh[key.Kid] = publicKey
	}

	v.mu.Lock()
	v.keys = fresh
	v.mu.Unlock()
	return nil
}

// parseRSAPublicKey 从 JWKS 的 n/e 分量构造 RSA 公钥
func parseRSAPublicKey(nStr, eStr string) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(nStr)
	if err != nil {
		return nil, fmt.Errorf("failed to decode modulus: %w", err)
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(eStr)
	if err != nil {
		return nil, fmt.Errorf("failed to decode exponent: %w", err)
	}
	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nBytes),
		E: int(new(big.Int).SetBytes(eBytes).Int64()),
	}, nil
}
