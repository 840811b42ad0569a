// Package user 存放用户 Model 相关逻辑
package user

import (
	"petstore/app/models"
)

// User 用户模型
type User struct {
	ID       uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	Username string `gorm:"unique;type:varchar(50)" json:"username"`
	Email    string `gorm:"type:varchar(255);index" json:"email"`
	Phone    string `gorm:"type:varchar(20);index" json:"phone"`
	Role     string `gorm:"type:varchar(20);default:member;index" json:"role"` // member/staff/admin
	Points   int    `gorm:"default:0" json:"points"`                           // 累计积分

	models.CommonTimestampsField
}

// TableName 表名
func (User) TableName() string {
	return "users"
}

// IsAdmin 是否管理员
func (u *User) IsAdmin() bool {
	return u.Role == "admin"
}

// IsStaff 是否员工（管理员视为员工）
func (u *User) IsStaff() bool {
	return u.Role == "staff" || u.Role == "admin"
}
