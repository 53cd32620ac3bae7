package user

import "time"

type User struct {
	Username  string    `gorm:"primaryKey;column:username" json:"username"`
	Email     string    `gorm:"index;column:email" json:"email"`
	IsAdmin   bool      `gorm:"column:is_admin;not null;default:false" json:"is_admin"`
	TenantID  *string   `gorm:"column:tenant_id" json:"tenant_id"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (User) TableName() string { return "user" }
