package models

import (
	"time"

	"gorm.io/gorm"
)

type NotificationStatus string

const (
	NotificationPending NotificationStatus = "pending"
	NotificationRead    NotificationStatus = "read"
)

type Notification struct {
	ID     uint               `json:"id" gorm:"primaryKey"`
	UserID uint               `json:"user_id" gorm:"not null;index"`
	Text   string             `json:"text" gorm:"not null;type:text"`
	Status NotificationStatus `json:"status" gorm:"default:pending;index;size:20"`
	Time   time.Time          `json:"time" gorm:"not null;index"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	User User `json:"user" gorm:"foreignKey:UserID"`
}

func (Notification) TableName() string {
	return "notifications"
}
