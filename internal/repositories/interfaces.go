package repositories

import (
	"time"

	"github.com/quiz-platform/quiz-service/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type CompanyFilters struct {
	OwnerID   *uint      `json:"owner_id"`
	IsVisible *bool      `json:"is_visible"`
	DateFrom  *time.Time `json:"date_from"`
	DateTo    *time.Time `json:"date_to"`
	Limit     int        `json:"limit"`
	Offset    int        `json:"offset"`
	SortBy    string     `json:"sort_by"`    // "created_at", "name"
	SortOrder string     `json:"sort_order"` // "asc", "desc"
}

type InvitationFilters struct {
	Status    *models.InvitationStatus `json:"status"`
	IsRequest *bool                    `json:"is_request"`
	SenderID  *uint                    `json:"sender_id"`
	CompanyID *uint                    `json:"company_id"`
	Limit     int                      `json:"limit"`
	Offset    int                      `json:"offset"`
	SortBy    string                   `json:"sort_by"`
	SortOrder string                   `json:"sort_order"`
}

type QuizFilters struct {
	CompanyID *uint  `json:"company_id"`
	Limit     int    `json:"limit"`
	Offset    int    `json:"offset"`
	SortBy    string `json:"sort_by"`
	SortOrder string `json:"sort_order"`
}

type QuizResultFilters struct {
	UserID    *uint      `json:"user_id"`
	QuizID    *uint      `json:"quiz_id"`
	CompanyID *uint      `json:"company_id"`
	DateFrom  *time.Time `json:"date_from"`
	DateTo    *time.Time `json:"date_to"`
	Limit     int        `json:"limit"`
	Offset    int        `json:"offset"`
}

type NotificationFilters struct {
	Status *models.NotificationStatus `json:"status"`
	Limit  int                        `json:"limit"`
	Offset int                        `json:"offset"`
}

// ===== SHARED STATISTICS STRUCTS =====

// ResultTotals aggregates raw answer counts across a result set.
type ResultTotals struct {
	TotalAnswered int64 `json:"total_answered"`
	TotalCorrect  int64 `json:"total_correct"`
}

// MemberLastCompletion pairs a company member with the timestamp of their
// most recent quiz submission, if any.
type MemberLastCompletion struct {
	UserID       uint       `json:"user_id"`
	Username     string     `json:"username"`
	LastQuizTime *time.Time `json:"last_quiz_time"`
}
