package models

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string
type Role = UserRole // Alias for compatibility

const (
	RoleAdmin     UserRole = "admin"
	RoleModerator UserRole = "moderator"
	RoleUser      UserRole = "user"
)

type User struct {
	ID       uint     `json:"id" gorm:"primaryKey"`
	Username string   `json:"username" gorm:"uniqueIndex;not null;size:100"`
	Email    *string  `json:"email" gorm:"uniqueIndex;size:255"`
	Role     UserRole `json:"role" gorm:"default:user;size:20"`

	// Profile info
	AvatarURL *string `json:"avatar_url" gorm:"size:500"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	OwnedCompanies     []Company      `json:"owned_companies,omitempty" gorm:"foreignKey:OwnerID"`
	InvitedCompanies   []*Company     `json:"invited_companies,omitempty" gorm:"many2many:user_invited_companies"`
	RequestedCompanies []*Company     `json:"requested_companies,omitempty" gorm:"many2many:user_requested_companies"`
	QuizResults        []QuizResult   `json:"quiz_results,omitempty" gorm:"foreignKey:UserID"`
	Notifications      []Notification `json:"notifications,omitempty" gorm:"foreignKey:UserID"`
}

func (User) TableName() string {
	return "users"
}
