package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Quiz struct {
	ID          uint    `json:"id" gorm:"primaryKey"`
	Title       string  `json:"title" gorm:"not null;size:200"`
	Description string  `json:"description" gorm:"type:text"`

	// Optional custom reminder text; the scheduler falls back to the
	// default reminder format when nil.
	NotificationsText *string `json:"notifications_text" gorm:"type:text"`

	// Reminder cadence in calendar days
	FrequencyInDays int `json:"frequency_in_days" gorm:"default:1;not null"`

	CompanyID uint `json:"company_id" gorm:"not null;index"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Company     Company      `json:"company" gorm:"foreignKey:CompanyID"`
	Questions   []Question   `json:"questions,omitempty" gorm:"foreignKey:QuizID;constraint:OnDelete:CASCADE"`
	QuizResults []QuizResult `json:"quiz_results,omitempty" gorm:"foreignKey:QuizID"`
}

func (Quiz) TableName() string {
	return "quizzes"
}

type Question struct {
	ID     uint   `json:"id" gorm:"primaryKey"`
	QuizID uint   `json:"quiz_id" gorm:"not null;index"`
	Text   string `json:"text" gorm:"not null;type:text"`

	// Position keeps the authored question order; scoring pairs the
	// submitted answer at index i with the question at position i.
	Position int `json:"position" gorm:"not null;default:0"`

	AnswerOptions  datatypes.JSONSlice[string] `json:"answer_options" gorm:"type:jsonb"`
	CorrectAnswers datatypes.JSONSlice[string] `json:"correct_answers" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Question) TableName() string {
	return "questions"
}
