package workflow

import "github.com/MontyPithon/bancroff/internal/model"

// AdminRoleName admin 角色可以审批任何步骤
const AdminRoleName = "admin"

// Actor 显式的授权上下文
// 由身份层在每次请求时构造并传入引擎,引擎不读取任何全局状态
type Actor struct {
	UserID   uint
	Email    string
	FullName string
	RoleID   uint
	RoleName string
}

// ActorFromUser 从用户模型构造授权上下文
func ActorFromUser(user *model.UserModel) Actor {
	actor := Actor{
		UserID:   user.ID,
		Email:    user.Email,
		FullName: user.FullName,
		RoleID:   user.RoleID,
	}
	if user.Role != nil {
		actor.RoleName = user.Role.Name
	}
	return actor
}

// IsAdmin 判断是否为管理员
func (a Actor) IsAdmin() bool {
	return a.RoleName == AdminRoleName
}

// CanAct 判断 actor 是否有权决策某个步骤
// 三条规则的唯一实现:admin 兜底、角色名相等、角色 ID 数值相等。
// 角色 ID 比较是针对历史种子数据角色 ID 错位的兼容路径,
// 去掉它会让既有数据上的部分步骤无人可批。
func CanAct(actor Actor, step *model.ApprovalStepModel) bool {
	if step == nil {
		return false
	}
	if actor.IsAdmin() {
		return true
	}
	if step.ApproverRole != nil && actor.RoleName == step.ApproverRole.Name {
		return true
	}
	return actor.RoleID == step.ApproverRoleID
}
