package models

import (
	"time"

	"gorm.io/gorm"
)

type Company struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	Name        string `json:"name" gorm:"not null;size:200"`
	Description string `json:"description" gorm:"type:text"`

	// Hidden companies are excluded from default lookups and listings
	IsVisible bool `json:"is_visible" gorm:"default:true;index"`

	OwnerID uint `json:"owner_id" gorm:"not null;index"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Owner       User         `json:"owner" gorm:"foreignKey:OwnerID"`
	Members     []*User      `json:"members,omitempty" gorm:"many2many:company_members"`
	Admins      []*User      `json:"admins,omitempty" gorm:"many2many:company_admins"`
	Invitations []Invitation `json:"invitations,omitempty" gorm:"foreignKey:CompanyID"`
	Quizzes     []Quiz       `json:"quizzes,omitempty" gorm:"foreignKey:CompanyID"`
}

func (Company) TableName() string {
	return "companies"
}
