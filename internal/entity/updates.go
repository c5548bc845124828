package entity

import "time"

// UserUpdates 用户更新字段
type UserUpdates struct {
	Email        *string
	Username     *string
	DisplayName  *string
	Role         *string
	PasswordHash *string
	IsActive     *bool
	LastLoginAt  *time.Time
}

// ToMap 转换为 GORM 更新 map（内部使用）
func (u UserUpdates) ToMap() map[string]interface{} {
	updates := make(map[string]interface{})
	if u.Email != nil {
		updates["email"] = *u.Email
	}
	if u.Username != nil {
		updates["username"] = *u.Username
	}
	if u.DisplayName != nil {
		updates["display_name"] = *u.DisplayName
	}
	if u.Role != nil {
		updates["role"] = *u.Role
	}
	if u.PasswordHash != nil {
		updates["password_hash"] = *u.PasswordHash
	}
	if u.IsActive != nil {
		updates["is_active"] = *u.IsActive
	}
	if u.LastLoginAt != nil {
		updates["last_login_at"] = *u.LastLoginAt
	}
	return updates
}

// IsEmpty 检查是否没有任何更新字段
func (u UserUpdates) IsEmpty() bool {
	return len(u.ToMap()) == 0
}
