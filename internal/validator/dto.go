package validator

import "time"

// CompanyCreateRequest represents the request structure for creating companies
type CompanyCreateRequest struct {
	Name        string  `json:"name" validate:"required,company_name"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
	IsVisible   *bool   `json:"is_visible"`
}

// CompanyUpdateRequest represents the request structure for updating companies
type CompanyUpdateRequest struct {
	Name        *string `json:"name" validate:"omitempty,company_name"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
	IsVisible   *bool   `json:"is_visible"`
}

// InvitationSendRequest represents an owner inviting a user to a company
type InvitationSendRequest struct {
	CompanyID  uint `json:"company_id" validate:"required"`
	ReceiverID uint `json:"receiver_id" validate:"required"`
}

// InvitationRequestRequest represents a user asking to join a company
type InvitationRequestRequest struct {
	CompanyID uint `json:"company_id" validate:"required"`
}

// QuestionRequest represents one question inside a quiz payload
type QuestionRequest struct {
	Text           string   `json:"text" validate:"required,min=1,max=2000"`
	AnswerOptions  []string `json:"answer_options" validate:"required,min=2,dive,max=500"`
	CorrectAnswers []string `json:"correct_answers" validate:"required,min=1,dive,max=500"`
}

// QuizCreateRequest represents the request structure for creating quizzes
type QuizCreateRequest struct {
	CompanyID         uint              `json:"company_id" validate:"required"`
	Title             string            `json:"title" validate:"required,quiz_title"`
	Description       *string           `json:"description" validate:"omitempty,max=2000"`
	NotificationsText *string           `json:"notifications_text" validate:"omitempty,max=500"`
	FrequencyInDays   int               `json:"frequency_in_days" validate:"required,frequency_days"`
	Questions         []QuestionRequest `json:"questions" validate:"omitempty,dive"`
}

// QuizUpdateRequest represents the request structure for updating quizzes
type QuizUpdateRequest struct {
	Title             *string           `json:"title" validate:"omitempty,quiz_title"`
	Description       *string           `json:"description" validate:"omitempty,max=2000"`
	NotificationsText *string           `json:"notifications_text" validate:"omitempty,max=500"`
	FrequencyInDays   *int              `json:"frequency_in_days" validate:"omitempty,frequency_days"`
	Questions         []QuestionRequest `json:"questions" validate:"omitempty,dive"`
}

// QuizResultSubmitRequest represents a user's submitted answers
type QuizResultSubmitRequest struct {
	UserAnswers []string `json:"user_answers" validate:"required"`
}

// NotificationCreateRequest represents an explicit notification to a user
type NotificationCreateRequest struct {
	UserID uint       `json:"user_id" validate:"required"`
	Text   string     `json:"text" validate:"required,max=1000"`
	Time   *time.Time `json:"time"`
}

// NotificationBroadcastRequest represents a notification sent to every
// member of a company
type NotificationBroadcastRequest struct {
	Text string     `json:"text" validate:"required,max=1000"`
	Time *time.Time `json:"time"`
}

// UserCreateRequest represents an admin-created profile
type UserCreateRequest struct {
	Username  string  `json:"username" validate:"required,min=3,max=50"`
	Email     *string `json:"email" validate:"omitempty,email"`
	Role      *string `json:"role" validate:"omitempty,oneof=admin moderator user"`
	AvatarURL *string `json:"avatar_url" validate:"omitempty,max=500"`
}

// UserUpdateRequest represents the request structure for updating a profile
type UserUpdateRequest struct {
	Username  *string `json:"username" validate:"omitempty,min=3,max=50"`
	Email     *string `json:"email" validate:"omitempty,email"`
	AvatarURL *string `json:"avatar_url" validate:"omitempty,max=500"`
}
