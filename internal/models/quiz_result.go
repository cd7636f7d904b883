package models

import (
	"time"

	"gorm.io/datatypes"
)

// QuizResult is an immutable audit record of a single submission.
type QuizResult struct {
	ID     uint `json:"id" gorm:"primaryKey"`
	UserID uint `json:"user_id" gorm:"not null;index"`
	QuizID uint `json:"quiz_id" gorm:"not null;index"`

	UserAnswers            datatypes.JSONSlice[string] `json:"user_answers" gorm:"type:jsonb"`
	TotalQuestionsAnswered int                         `json:"total_questions_answered" gorm:"not null"`
	TotalCorrectAnswers    int                         `json:"total_correct_answers" gorm:"not null"`
	CompletionTime         time.Time                   `json:"completion_time" gorm:"not null;index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	User User `json:"user" gorm:"foreignKey:UserID"`
	Quiz Quiz `json:"quiz" gorm:"foreignKey:QuizID"`
}

func (QuizResult) TableName() string {
	return "quiz_results"
}
