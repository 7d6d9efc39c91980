package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CREATE TABLE public.users (
//     id                 UUID PRIMARY KEY,
//     name               TEXT NOT NULL,
//     email              TEXT NOT NULL UNIQUE,
//     password           TEXT NOT NULL,
//     role               TEXT NOT NULL DEFAULT 'PROVIDER',
//     refresh_token      TEXT,
//     reset_token        TEXT,
//     reset_token_expiry TIMESTAMPTZ,
//     created_at         TIMESTAMPTZ DEFAULT NOW(),
//     updated_at         TIMESTAMPTZ DEFAULT NOW()
// );

type User struct {
	ID               string     `gorm:"type:uuid;primaryKey" json:"id"`
	Name             string     `gorm:"column:name;not null" json:"name"`
	Email            string     `gorm:"column:email;uniqueIndex;not null" json:"email"`
	Password         string     `gorm:"column:password;not null" json:"-"`
	Role             Role       `gorm:"column:role;type:text;not null;default:PROVIDER;index" json:"role"`
	RefreshToken     *string    `gorm:"column:refresh_token" json:"-"`
	ResetToken       *string    `gorm:"column:reset_token" json:"-"`
	ResetTokenExpiry *time.Time `gorm:"column:reset_token_expiry" json:"-"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// UserSummary is the public projection embedded in other resources.
type UserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role,omitempty"`
}

type UserFilter struct {
	Search    string
	Role      Role
	Page      PageRequest
	SortBy    string
	SortOrder SortOrder
}

type UserStats struct {
	Total       int64  `json:"total"`
	Admins      int64  `json:"admins"`
	Providers   int64  `json:"providers"`
	RecentUsers []User `json:"recent_users"`
}

// UserInput carries create and update fields. Empty fields are left unchanged on update.
type UserInput struct {
	Name     string
	Email    string
	Password string
	Role     string
}
