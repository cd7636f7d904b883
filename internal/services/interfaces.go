package services

import (
	"context"
	"time"

	"github.com/quiz-platform/quiz-service/internal/models"
	"github.com/quiz-platform/quiz-service/internal/repositories"
	"github.com/quiz-platform/quiz-service/internal/validator"
)

// ===== REQUEST TYPES (aliases into validator DTOs) =====

type CreateCompanyRequest = validator.CompanyCreateRequest
type UpdateCompanyRequest = validator.CompanyUpdateRequest
type SendInvitationRequest = validator.InvitationSendRequest
type RequestToJoinRequest = validator.InvitationRequestRequest
type CreateQuizRequest = validator.QuizCreateRequest
type UpdateQuizRequest = validator.QuizUpdateRequest
type QuestionRequest = validator.QuestionRequest
type SubmitQuizResultRequest = validator.QuizResultSubmitRequest
type CreateNotificationRequest = validator.NotificationCreateRequest
type BroadcastNotificationRequest = validator.NotificationBroadcastRequest
type CreateUserRequest = validator.UserCreateRequest
type UpdateUserRequest = validator.UserUpdateRequest

// ===== RESPONSE TYPES =====

type UserResponse struct {
	ID        uint            `json:"id"`
	Username  string          `json:"username"`
	Email     *string         `json:"email,omitempty"`
	Role      models.UserRole `json:"role"`
	AvatarURL *string         `json:"avatar_url,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

type UserListResponse struct {
	Users  []*UserResponse `json:"users"`
	Total  int64           `json:"total"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

type CompanyResponse struct {
	ID          uint          `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	IsVisible   bool          `json:"is_visible"`
	OwnerID     uint          `json:"owner_id"`
	Owner       *UserResponse `json:"owner,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
}

type CompanyListResponse struct {
	Companies []*CompanyResponse `json:"companies"`
	Total     int64              `json:"total"`
	Limit     int                `json:"limit"`
	Offset    int                `json:"offset"`
}

type InvitationResponse struct {
	ID         uint                    `json:"id"`
	SenderID   uint                    `json:"sender_id"`
	ReceiverID uint                    `json:"receiver_id"`
	CompanyID  uint                    `json:"company_id"`
	IsRequest  bool                    `json:"is_request"`
	Status     models.InvitationStatus `json:"status"`
	Company    *CompanyResponse        `json:"company,omitempty"`
	Sender     *UserResponse           `json:"sender,omitempty"`
	Receiver   *UserResponse           `json:"receiver,omitempty"`
	CreatedAt  time.Time               `json:"created_at"`
}

type InvitationListResponse struct {
	Invitations []*InvitationResponse `json:"invitations"`
	Total       int64                 `json:"total"`
	Limit       int                   `json:"limit"`
	Offset      int                   `json:"offset"`
}

type QuestionResponse struct {
	ID            uint     `json:"id"`
	Text          string   `json:"text"`
	Position      int      `json:"position"`
	AnswerOptions []string `json:"answer_options"`

	// CorrectAnswers is only populated for company owners and admins
	CorrectAnswers []string `json:"correct_answers,omitempty"`
}

type QuizResponse struct {
	ID                uint                `json:"id"`
	CompanyID         uint                `json:"company_id"`
	Title             string              `json:"title"`
	Description       string              `json:"description,omitempty"`
	NotificationsText *string             `json:"notifications_text,omitempty"`
	FrequencyInDays   int                 `json:"frequency_in_days"`
	Questions         []*QuestionResponse `json:"questions,omitempty"`
	CreatedAt         time.Time           `json:"created_at"`
}

type QuizListResponse struct {
	Quizzes []*QuizResponse `json:"quizzes"`
	Total   int64           `json:"total"`
	Limit   int             `json:"limit"`
	Offset  int             `json:"offset"`
}

type QuizResultResponse struct {
	ID                     uint      `json:"id"`
	UserID                 uint      `json:"user_id"`
	QuizID                 uint      `json:"quiz_id"`
	TotalQuestionsAnswered int       `json:"total_questions_answered"`
	TotalCorrectAnswers    int       `json:"total_correct_answers"`
	CompletionTime         time.Time `json:"completion_time"`

	// CurrentRating is the user's overall rating after this submission,
	// on a 0-10 scale.
	CurrentRating float64 `json:"current_rating"`
}

type UserRatingResponse struct {
	UserID        uint    `json:"user_id"`
	CompanyID     *uint   `json:"company_id,omitempty"`
	Rating        float64 `json:"rating"`
	TotalAnswered int64   `json:"total_answered"`
	TotalCorrect  int64   `json:"total_correct"`
}

// UserAverageRatingResponse carries the unscaled correctness ratio
// (0-1), distinct from the 0-10 rating.
type UserAverageRatingResponse struct {
	UserID        uint    `json:"user_id"`
	CompanyID     *uint   `json:"company_id,omitempty"`
	AverageRating float64 `json:"average_rating"`
	TotalAnswered int64   `json:"total_answered"`
	TotalCorrect  int64   `json:"total_correct"`
}

type CompanyAnalyticsResponse struct {
	CompanyID     uint    `json:"company_id"`
	AverageRating float64 `json:"average_rating"` // 0-1 scale
	TotalAnswered int64   `json:"total_answered"`
	TotalCorrect  int64   `json:"total_correct"`
}

type MemberActivityResponse struct {
	UserID       uint       `json:"user_id"`
	Username     string     `json:"username"`
	LastQuizTime *time.Time `json:"last_quiz_time"`

	// AverageRating is the member's correctness ratio within this
	// company, 0-1 scale.
	AverageRating float64 `json:"average_rating"`
}

type NotificationResponse struct {
	ID     uint                      `json:"id"`
	UserID uint                      `json:"user_id"`
	Text   string                    `json:"text"`
	Status models.NotificationStatus `json:"status"`
	Time   time.Time                 `json:"time"`
}

type NotificationListResponse struct {
	Notifications []*NotificationResponse `json:"notifications"`
	Total         int64                   `json:"total"`
	Limit         int                     `json:"limit"`
	Offset        int                     `json:"offset"`
}

// ===== EXPORT TYPES =====

type ExportFormat string

const (
	ExportJSON ExportFormat = "json"
	ExportCSV  ExportFormat = "csv"
	ExportXLSX ExportFormat = "xlsx"
)

// ExportFilters narrows which cached results are exported
type ExportFilters struct {
	CompanyID uint
	QuizID    *uint
	UserID    *uint
}

// ExportFile is a rendered export ready to be served as a download
type ExportFile struct {
	FileName    string
	ContentType string
	Data        []byte
}

// ===== SCHEDULER TYPES =====

// SweepReport summarizes one reminder sweep run
type SweepReport struct {
	StartedAt        time.Time `json:"started_at"`
	UsersScanned     int       `json:"users_scanned"`
	ResultsEvaluated int       `json:"results_evaluated"`
	RemindersSent    int       `json:"reminders_sent"`
	Skipped          int       `json:"skipped"`
	Failures         int       `json:"failures"`
}

// ===== SERVICE INTERFACES =====

type UserService interface {
	// Create registers a profile directly; restricted to platform admins.
	// Regular users are provisioned through GetOrCreateByAccount.
	Create(ctx context.Context, req *CreateUserRequest, actorID uint) (*UserResponse, error)

	GetByID(ctx context.Context, id uint) (*UserResponse, error)
	Update(ctx context.Context, id uint, req *UpdateUserRequest, actorID uint) (*UserResponse, error)
	Delete(ctx context.Context, id uint, actorID uint) error
	List(ctx context.Context, filters repositories.UserFilters) (*UserListResponse, error)

	// GetOrCreateByAccount resolves an identity-provider account to a local
	// user, creating one on first sight. Used by the auth middleware.
	GetOrCreateByAccount(ctx context.Context, username, email string, role models.UserRole, avatarURL string) (*models.User, error)
}

type CompanyService interface {
	Create(ctx context.Context, req *CreateCompanyRequest, ownerID uint) (*CompanyResponse, error)
	GetByID(ctx context.Context, id uint, userID uint) (*CompanyResponse, error)
	Update(ctx context.Context, id uint, req *UpdateCompanyRequest, actorID uint) (*CompanyResponse, error)
	Delete(ctx context.Context, id uint, actorID uint) error
	List(ctx context.Context, filters repositories.CompanyFilters, userID uint) (*CompanyListResponse, error)

	// Membership
	GetMembers(ctx context.Context, companyID uint, filters repositories.UserFilters, actorID uint) (*UserListResponse, error)
	RemoveMember(ctx context.Context, companyID, memberID, actorID uint) error
	Leave(ctx context.Context, companyID, userID uint) error

	// Admin set
	AppointAdmin(ctx context.Context, companyID, userID, actorID uint) error
	RemoveAdmin(ctx context.Context, companyID, userID, actorID uint) error
	GetAdmins(ctx context.Context, companyID uint, actorID uint) ([]*UserResponse, error)

	// IsAdminOrOwner reports whether the user administers the company
	IsAdminOrOwner(ctx context.Context, companyID, userID uint) (bool, error)
}

type InvitationService interface {
	// Send creates an owner-to-user invitation (IsRequest=false)
	Send(ctx context.Context, req *SendInvitationRequest, senderID uint) (*InvitationResponse, error)

	// Request creates a user-to-owner join request (IsRequest=true)
	Request(ctx context.Context, req *RequestToJoinRequest, senderID uint) (*InvitationResponse, error)

	Accept(ctx context.Context, invitationID, actorID uint) (*InvitationResponse, error)
	Reject(ctx context.Context, invitationID, actorID uint) (*InvitationResponse, error)
	Revoke(ctx context.Context, invitationID, actorID uint) error
	GetByID(ctx context.Context, invitationID, actorID uint) (*InvitationResponse, error)

	// Companies the user has a pending incoming invitation from
	ListInvitedCompanies(ctx context.Context, userID uint, filters repositories.CompanyFilters) (*CompanyListResponse, error)

	// Companies the user has asked to join
	ListRequestedCompanies(ctx context.Context, userID uint, filters repositories.CompanyFilters) (*CompanyListResponse, error)

	ListForCompany(ctx context.Context, companyID uint, filters repositories.InvitationFilters, actorID uint) (*InvitationListResponse, error)
}

type QuizService interface {
	Create(ctx context.Context, req *CreateQuizRequest, actorID uint) (*QuizResponse, error)
	GetByID(ctx context.Context, id uint, actorID uint) (*QuizResponse, error)
	Update(ctx context.Context, id uint, req *UpdateQuizRequest, actorID uint) (*QuizResponse, error)
	Delete(ctx context.Context, id uint, actorID uint) error
	ListByCompany(ctx context.Context, companyID uint, filters repositories.QuizFilters, actorID uint) (*QuizListResponse, error)

	// SubmitResult records a user's answers, computes the correct count by
	// question position, persists the immutable result and caches it.
	SubmitResult(ctx context.Context, quizID uint, req *SubmitQuizResultRequest, userID uint) (*QuizResultResponse, error)
}

type AnalyticsService interface {
	// GetUserRating returns the user's rating on a 0-10 scale; companyID
	// narrows the aggregation to one company's quizzes.
	GetUserRating(ctx context.Context, userID uint, companyID *uint) (*UserRatingResponse, error)

	// GetUserAverageRating returns the user's raw correctness ratio on a
	// 0-1 scale, optionally narrowed to one company's quizzes.
	GetUserAverageRating(ctx context.Context, userID uint, companyID *uint) (*UserAverageRatingResponse, error)

	// GetCompanyAverageRating returns the company-wide correctness ratio
	// on a 0-1 scale.
	GetCompanyAverageRating(ctx context.Context, companyID uint, actorID uint) (*CompanyAnalyticsResponse, error)

	// GetMemberActivity lists members with their latest completion times
	GetMemberActivity(ctx context.Context, companyID uint, actorID uint) ([]*MemberActivityResponse, error)

	// GetUserResults lists a user's quiz results, most recent first
	GetUserResults(ctx context.Context, userID uint, filters repositories.QuizResultFilters, actorID uint) ([]*QuizResultResponse, error)
}

type NotificationService interface {
	Create(ctx context.Context, req *CreateNotificationRequest) (*NotificationResponse, error)
	CreateBulk(ctx context.Context, userIDs []uint, text string, at time.Time) error

	// CreateForCompany notifies every member of the company; only the
	// owner or an admin may broadcast. Returns the number of
	// notifications created.
	CreateForCompany(ctx context.Context, companyID uint, req *BroadcastNotificationRequest, actorID uint) (int, error)
	ListForUser(ctx context.Context, userID uint, filters repositories.NotificationFilters) (*NotificationListResponse, error)
	MarkRead(ctx context.Context, notificationID, userID uint) (*NotificationResponse, error)
}

type SchedulerService interface {
	// Start launches the periodic sweep loop; it returns immediately
	Start(ctx context.Context) error
	Stop()

	// RunDailySweep evaluates every quiz's reminder schedule as of now.
	// Concurrent invocations are coalesced: if a sweep is already running
	// the call returns without doing work.
	RunDailySweep(ctx context.Context, now time.Time) (*SweepReport, error)
}

type ExportService interface {
	ExportResults(ctx context.Context, filters ExportFilters, format ExportFormat, actorID uint) (*ExportFile, error)
}

// ServiceManager provides access to all services
type ServiceManager interface {
	User() UserService
	Company() CompanyService
	Invitation() InvitationService
	Quiz() QuizService
	Analytics() AnalyticsService
	Notification() NotificationService
	Scheduler() SchedulerService
	Export() ExportService

	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
