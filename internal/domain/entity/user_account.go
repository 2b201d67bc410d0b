package entity

import (
	"time"
)

// Role codes stored in user_account.role
const (
	RolePublisher = "publisher"
	RoleParent    = "parent"
	RoleChild     = "child"
	RoleAdmin     = "admin"
	RoleEducator  = "educator"
)

// UserAccount represents one application user regardless of role
type UserAccount struct {
	ID        uint      `gorm:"column:uaid;primaryKey" json:"uaid"`
	AuthUID   string    `gorm:"column:user_id;size:64;not null;uniqueIndex" json:"user_id"` // identity in the hosted auth provider
	Role      string    `gorm:"column:role;size:20;not null" json:"role"`
	Username  string    `gorm:"column:username;size:50;not null;uniqueIndex" json:"username"`
	FullName  string    `gorm:"column:fullname;size:100;not null;default:''" json:"fullname"`
	Email     string    `gorm:"column:email;size:100;not null;default:''" json:"email"` // used for parent notifications
	Age       int       `gorm:"column:age;not null;default:0" json:"age"`
	Suspended bool      `gorm:"column:suspended;not null;default:false" json:"suspended"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName defines the table name for GORM
func (UserAccount) TableName() string {
	return "user_account"
}

// IsChild reports whether the account is subject to parental controls
func (u *UserAccount) IsChild() bool {
	return u.Role == RoleChild
}

// HasRole reports whether the account has any of the given roles
func (u *UserAccount) HasRole(roles ...string) bool {
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}

// ValidRole checks a role code against the known set
func ValidRole(role string) bool {
	switch role {
	case RolePublisher, RoleParent, RoleChild, RoleAdmin, RoleEducator:
		return true
	}
	return false
}
