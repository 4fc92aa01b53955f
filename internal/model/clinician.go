// Package model 定义了与数据库表和缓存记录对应的 Go 结构体。
package model

import "time"

// 临床用户角色
const (
	RoleClinician = "CLINICIAN"
	RoleAdmin     = "ADMIN"
)

// Clinician 定义了 clinicians 表的 ORM 模型，只有登录的临床人员可以调用评分接口。
type Clinician struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Username  string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"username"`
	Password  string    `gorm:"type:varchar(255);not null" json:"-"`
	FullName  string    `gorm:"type:varchar(255)" json:"fullName"`
	Role      string    `gorm:"type:varchar(32);not null;default:CLINICIAN" json:"role"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Clinician) TableName() string {
	return "clinicians"
}
