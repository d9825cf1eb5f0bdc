package models

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is an authenticated citizen. PasswordHash is empty for accounts
// created through Google sign-in.
type User struct {
	ID           uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	DisplayName  string    `gorm:"type:varchar(128);not null" json:"display_name"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"type:varchar(128)" json:"-"`
	GoogleID     *string   `gorm:"type:varchar(64);uniqueIndex" json:"-"`
	Photo        string    `gorm:"type:varchar(512)" json:"photo,omitempty"`
	Role         string    `gorm:"type:varchar(16);not null;default:user" json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (User) TableName() string { return "users" }

func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }
