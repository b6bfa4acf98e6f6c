package model

import "shortlink/pkg/core/model/common"

// User 注册用户，短链的所有者
type User struct {
	common.Model
	Username     string `gorm:"uniqueIndex;size:50;not null" json:"username" comment:"用户名"`
	Email        string `gorm:"size:255" json:"email,omitempty" comment:"邮箱"`
	PasswordHash string `gorm:"size:255;not null" json:"-" comment:"密码散列"`
	Status       int8   `gorm:"default:1;not null" json:"status" comment:"状态：1=启用，0=禁用"`
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}

// UserStatus 用户状态枚举
const (
	UserStatusDisabled = 0
	UserStatusEnabled  = 1
)
