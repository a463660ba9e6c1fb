package model

import "time"

// User roles.
const (
	RoleRead  = "READ"
	RoleWrite = "WRITE"
	RoleAdmin = "ADMIN"
)

// User represents an account. Email is the login identifier.
type User struct {
	ID           int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Email        string     `gorm:"uniqueIndex;size:128;not null" json:"email"`
	Name         string     `gorm:"size:255" json:"name"`
	Role         string     `gorm:"size:5;default:READ" json:"role"`
	PasswordHash string     `gorm:"size:64;not null" json:"-"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	LastLoginIP  string     `gorm:"size:45" json:"-"`
}
