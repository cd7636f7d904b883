package services

import (
	"context"
	"io"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/quiz-platform/quiz-service/internal/models"
	"github.com/quiz-platform/quiz-service/internal/repositories"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fixedClock pins scheduler sweeps to a known instant
type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

// mockRepository is a function-field test double for repositories.Repository.
// Unset fields return zero values so each test only wires what it exercises.
type mockRepository struct {
	user         mockUserRepository
	company      mockCompanyRepository
	invitation   mockInvitationRepository
	quiz         mockQuizRepository
	quizResult   mockQuizResultRepository
	notification mockNotificationRepository
}

func (m *mockRepository) User() repositories.UserRepository                 { return &m.user }
func (m *mockRepository) Company() repositories.CompanyRepository           { return &m.company }
func (m *mockRepository) Invitation() repositories.InvitationRepository     { return &m.invitation }
func (m *mockRepository) Quiz() repositories.QuizRepository                 { return &m.quiz }
func (m *mockRepository) QuizResult() repositories.QuizResultRepository     { return &m.quizResult }
func (m *mockRepository) Notification() repositories.NotificationRepository { return &m.notification }

func (m *mockRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(m)
}
func (m *mockRepository) Ping(ctx context.Context) error { return nil }
func (m *mockRepository) Close() error                   { return nil }

// ===== USER =====

type mockUserRepository struct {
	CreateFn                 func(user *models.User) error
	GetByIDFn                func(id uint) (*models.User, error)
	GetByUsernameFn          func(username string) (*models.User, error)
	GetByEmailFn             func(email string) (*models.User, error)
	UpdateFn                 func(user *models.User) error
	DeleteFn                 func(id uint) error
	ListFn                   func(filters repositories.UserFilters) ([]*models.User, int64, error)
	ExistsByIDFn             func(id uint) (bool, error)
	ExistsByUsernameFn       func(username string) (bool, error)
	AddInvitedCompanyFn      func(userID, companyID uint) error
	RemoveInvitedCompanyFn   func(userID, companyID uint) error
	HasInvitedCompanyFn      func(userID, companyID uint) (bool, error)
	AddRequestedCompanyFn    func(userID, companyID uint) error
	RemoveRequestedCompanyFn func(userID, companyID uint) error
	HasRequestedCompanyFn    func(userID, companyID uint) (bool, error)
	GetInvitedCompaniesFn    func(userID uint) ([]*models.Company, int64, error)
	GetRequestedCompaniesFn  func(userID uint) ([]*models.Company, int64, error)
}

func (m *mockUserRepository) Create(ctx context.Context, tx *gorm.DB, user *models.User) error {
	if m.CreateFn != nil {
		return m.CreateFn(user)
	}
	return nil
}

func (m *mockUserRepository) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.User, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(id)
	}
	return &models.User{ID: id, Username: "user"}, nil
}

func (m *mockUserRepository) GetByUsername(ctx context.Context, tx *gorm.DB, username string) (*models.User, error) {
	if m.GetByUsernameFn != nil {
		return m.GetByUsernameFn(username)
	}
	return nil, repositories.ErrNotFound
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*models.User, error) {
	if m.GetByEmailFn != nil {
		return m.GetByEmailFn(email)
	}
	return nil, repositories.ErrNotFound
}

func (m *mockUserRepository) Update(ctx context.Context, tx *gorm.DB, user *models.User) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(user)
	}
	return nil
}

func (m *mockUserRepository) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(id)
	}
	return nil
}

func (m *mockUserRepository) List(ctx context.Context, tx *gorm.DB, filters repositories.UserFilters) ([]*models.User, int64, error) {
	if m.ListFn != nil {
		return m.ListFn(filters)
	}
	return nil, 0, nil
}

func (m *mockUserRepository) ExistsByID(ctx context.Context, tx *gorm.DB, id uint) (bool, error) {
	if m.ExistsByIDFn != nil {
		return m.ExistsByIDFn(id)
	}
	return true, nil
}

func (m *mockUserRepository) ExistsByUsername(ctx context.Context, tx *gorm.DB, username string) (bool, error) {
	if m.ExistsByUsernameFn != nil {
		return m.ExistsByUsernameFn(username)
	}
	return false, nil
}

func (m *mockUserRepository) AddInvitedCompany(ctx context.Context, tx *gorm.DB, userID, companyID uint) error {
	if m.AddInvitedCompanyFn != nil {
		return m.AddInvitedCompanyFn(userID, companyID)
	}
	return nil
}

func (m *mockUserRepository) RemoveInvitedCompany(ctx context.Context, tx *gorm.DB, userID, companyID uint) error {
	if m.RemoveInvitedCompanyFn != nil {
		return m.RemoveInvitedCompanyFn(userID, companyID)
	}
	return nil
}

func (m *mockUserRepository) HasInvitedCompany(ctx context.Context, tx *gorm.DB, userID, companyID uint) (bool, error) {
	if m.HasInvitedCompanyFn != nil {
		return m.HasInvitedCompanyFn(userID, companyID)
	}
	return false, nil
}

func (m *mockUserRepository) AddRequestedCompany(ctx context.Context, tx *gorm.DB, userID, companyID uint) error {
	if m.AddRequestedCompanyFn != nil {
		return m.AddRequestedCompanyFn(userID, companyID)
	}
	return nil
}

func (m *mockUserRepository) RemoveRequestedCompany(ctx context.Context, tx *gorm.DB, userID, companyID uint) error {
	if m.RemoveRequestedCompanyFn != nil {
		return m.RemoveRequestedCompanyFn(userID, companyID)
	}
	return nil
}

func (m *mockUserRepository) HasRequestedCompany(ctx context.Context, tx *gorm.DB, userID, companyID uint) (bool, error) {
	if m.HasRequestedCompanyFn != nil {
		return m.HasRequestedCompanyFn(userID, companyID)
	}
	return false, nil
}

func (m *mockUserRepository) GetInvitedCompanies(ctx context.Context, tx *gorm.DB, userID uint, filters repositories.CompanyFilters) ([]*models.Company, int64, error) {
	if m.GetInvitedCompaniesFn != nil {
		return m.GetInvitedCompaniesFn(userID)
	}
	return nil, 0, nil
}

func (m *mockUserRepository) GetRequestedCompanies(ctx context.Context, tx *gorm.DB, userID uint, filters repositories.CompanyFilters) ([]*models.Company, int64, error) {
	if m.GetRequestedCompaniesFn != nil {
		return m.GetRequestedCompaniesFn(userID)
	}
	return nil, 0, nil
}

// ===== COMPANY =====

type mockCompanyRepository struct {
	CreateFn             func(company *models.Company) error
	GetByIDFn            func(id uint) (*models.Company, error)
	GetByIDWithDetailsFn func(id uint) (*models.Company, error)
	UpdateFn             func(company *models.Company) error
	DeleteFn             func(id uint) error
	ListFn               func(filters repositories.CompanyFilters) ([]*models.Company, int64, error)
	AddMemberFn          func(companyID, userID uint) error
	RemoveMemberFn       func(companyID, userID uint) error
	IsMemberFn           func(companyID, userID uint) (bool, error)
	GetMembersFn         func(companyID uint) ([]*models.User, int64, error)
	GetMemberIDsFn       func(companyID uint) ([]uint, error)
	AddAdminFn           func(companyID, userID uint) error
	RemoveAdminFn        func(companyID, userID uint) error
	IsAdminFn            func(companyID, userID uint) (bool, error)
	GetAdminsFn          func(companyID uint) ([]*models.User, error)
}

func (m *mockCompanyRepository) Create(ctx context.Context, tx *gorm.DB, company *models.Company) error {
	if m.CreateFn != nil {
		return m.CreateFn(company)
	}
	return nil
}

func (m *mockCompanyRepository) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Company, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(id)
	}
	return &models.Company{ID: id, Name: "company"}, nil
}

func (m *mockCompanyRepository) GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id uint) (*models.Company, error) {
	if m.GetByIDWithDetailsFn != nil {
		return m.GetByIDWithDetailsFn(id)
	}
	return &models.Company{ID: id, Name: "company"}, nil
}

func (m *mockCompanyRepository) Update(ctx context.Context, tx *gorm.DB, company *models.Company) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(company)
	}
	return nil
}

func (m *mockCompanyRepository) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(id)
	}
	return nil
}

func (m *mockCompanyRepository) List(ctx context.Context, tx *gorm.DB, filters repositories.CompanyFilters) ([]*models.Company, int64, error) {
	if m.ListFn != nil {
		return m.ListFn(filters)
	}
	return nil, 0, nil
}

func (m *mockCompanyRepository) AddMember(ctx context.Context, tx *gorm.DB, companyID, userID uint) error {
	if m.AddMemberFn != nil {
		return m.AddMemberFn(companyID, userID)
	}
	return nil
}

func (m *mockCompanyRepository) RemoveMember(ctx context.Context, tx *gorm.DB, companyID, userID uint) error {
	if m.RemoveMemberFn != nil {
		return m.RemoveMemberFn(companyID, userID)
	}
	return nil
}

func (m *mockCompanyRepository) IsMember(ctx context.Context, tx *gorm.DB, companyID, userID uint) (bool, error) {
	if m.IsMemberFn != nil {
		return m.IsMemberFn(companyID, userID)
	}
	return false, nil
}

func (m *mockCompanyRepository) GetMembers(ctx context.Context, tx *gorm.DB, companyID uint, filters repositories.UserFilters) ([]*models.User, int64, error) {
	if m.GetMembersFn != nil {
		return m.GetMembersFn(companyID)
	}
	return nil, 0, nil
}

func (m *mockCompanyRepository) GetMemberIDs(ctx context.Context, tx *gorm.DB, companyID uint) ([]uint, error) {
	if m.GetMemberIDsFn != nil {
		return m.GetMemberIDsFn(companyID)
	}
	return nil, nil
}

func (m *mockCompanyRepository) AddAdmin(ctx context.Context, tx *gorm.DB, companyID, userID uint) error {
	if m.AddAdminFn != nil {
		return m.AddAdminFn(companyID, userID)
	}
	return nil
}

func (m *mockCompanyRepository) RemoveAdmin(ctx context.Context, tx *gorm.DB, companyID, userID uint) error {
	if m.RemoveAdminFn != nil {
		return m.RemoveAdminFn(companyID, userID)
	}
	return nil
}

func (m *mockCompanyRepository) IsAdmin(ctx context.Context, tx *gorm.DB, companyID, userID uint) (bool, error) {
	if m.IsAdminFn != nil {
		return m.IsAdminFn(companyID, userID)
	}
	return false, nil
}

func (m *mockCompanyRepository) GetAdmins(ctx context.Context, tx *gorm.DB, companyID uint) ([]*models.User, error) {
	if m.GetAdminsFn != nil {
		return m.GetAdminsFn(companyID)
	}
	return nil, nil
}

// ===== INVITATION =====

type mockInvitationRepository struct {
	CreateFn             func(invitation *models.Invitation) error
	GetByIDFn            func(id uint) (*models.Invitation, error)
	GetByIDWithDetailsFn func(id uint) (*models.Invitation, error)
	UpdateFn             func(invitation *models.Invitation) error
	DeleteFn             func(id uint) error
	ListFn               func(filters repositories.InvitationFilters) ([]*models.Invitation, int64, error)
	GetByCompanyFn       func(companyID uint, filters repositories.InvitationFilters) ([]*models.Invitation, int64, error)
}

func (m *mockInvitationRepository) Create(ctx context.Context, tx *gorm.DB, invitation *models.Invitation) error {
	if m.CreateFn != nil {
		return m.CreateFn(invitation)
	}
	invitation.ID = 1
	return nil
}

func (m *mockInvitationRepository) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Invitation, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(id)
	}
	return nil, repositories.ErrNotFound
}

func (m *mockInvitationRepository) GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id uint) (*models.Invitation, error) {
	if m.GetByIDWithDetailsFn != nil {
		return m.GetByIDWithDetailsFn(id)
	}
	return &models.Invitation{ID: id, Status: models.InvitationSent}, nil
}

func (m *mockInvitationRepository) Update(ctx context.Context, tx *gorm.DB, invitation *models.Invitation) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(invitation)
	}
	return nil
}

func (m *mockInvitationRepository) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(id)
	}
	return nil
}

func (m *mockInvitationRepository) List(ctx context.Context, tx *gorm.DB, filters repositories.InvitationFilters) ([]*models.Invitation, int64, error) {
	if m.ListFn != nil {
		return m.ListFn(filters)
	}
	return nil, 0, nil
}

func (m *mockInvitationRepository) GetByCompany(ctx context.Context, tx *gorm.DB, companyID uint, filters repositories.InvitationFilters) ([]*models.Invitation, int64, error) {
	if m.GetByCompanyFn != nil {
		return m.GetByCompanyFn(companyID, filters)
	}
	return nil, 0, nil
}

// ===== QUIZ =====

type mockQuizRepository struct {
	CreateFn             func(quiz *models.Quiz) error
	GetByIDFn            func(id uint) (*models.Quiz, error)
	GetByIDWithDetailsFn func(id uint) (*models.Quiz, error)
	UpdateFn             func(quiz *models.Quiz) error
	DeleteFn             func(id uint) error
	GetByCompanyFn       func(companyID uint, filters repositories.QuizFilters) ([]*models.Quiz, int64, error)
	ReplaceQuestionsFn   func(quizID uint, questions []models.Question) error
}

func (m *mockQuizRepository) Create(ctx context.Context, tx *gorm.DB, quiz *models.Quiz) error {
	if m.CreateFn != nil {
		return m.CreateFn(quiz)
	}
	quiz.ID = 1
	return nil
}

func (m *mockQuizRepository) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Quiz, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(id)
	}
	return nil, repositories.ErrNotFound
}

func (m *mockQuizRepository) GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id uint) (*models.Quiz, error) {
	if m.GetByIDWithDetailsFn != nil {
		return m.GetByIDWithDetailsFn(id)
	}
	return nil, repositories.ErrNotFound
}

func (m *mockQuizRepository) Update(ctx context.Context, tx *gorm.DB, quiz *models.Quiz) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(quiz)
	}
	return nil
}

func (m *mockQuizRepository) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(id)
	}
	return nil
}

func (m *mockQuizRepository) GetByCompany(ctx context.Context, tx *gorm.DB, companyID uint, filters repositories.QuizFilters) ([]*models.Quiz, int64, error) {
	if m.GetByCompanyFn != nil {
		return m.GetByCompanyFn(companyID, filters)
	}
	return nil, 0, nil
}

func (m *mockQuizRepository) ReplaceQuestions(ctx context.Context, tx *gorm.DB, quizID uint, questions []models.Question) error {
	if m.ReplaceQuestionsFn != nil {
		return m.ReplaceQuestionsFn(quizID, questions)
	}
	return nil
}

// ===== QUIZ RESULT =====

type mockQuizResultRepository struct {
	CreateFn                   func(result *models.QuizResult) error
	GetByIDFn                  func(id uint) (*models.QuizResult, error)
	GetByUserFn                func(userID uint, filters repositories.QuizResultFilters) ([]*models.QuizResult, error)
	ListFn                     func(filters repositories.QuizResultFilters) ([]*models.QuizResult, int64, error)
	GetTotalsByUserFn          func(userID uint, companyID *uint) (*repositories.ResultTotals, error)
	GetTotalsByCompanyFn       func(companyID uint) (*repositories.ResultTotals, error)
	GetMemberLastCompletionsFn func(companyID uint) ([]*repositories.MemberLastCompletion, error)
}

func (m *mockQuizResultRepository) Create(ctx context.Context, tx *gorm.DB, result *models.QuizResult) error {
	if m.CreateFn != nil {
		return m.CreateFn(result)
	}
	result.ID = 1
	return nil
}

func (m *mockQuizResultRepository) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.QuizResult, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(id)
	}
	return nil, repositories.ErrNotFound
}

func (m *mockQuizResultRepository) GetByUser(ctx context.Context, tx *gorm.DB, userID uint, filters repositories.QuizResultFilters) ([]*models.QuizResult, error) {
	if m.GetByUserFn != nil {
		return m.GetByUserFn(userID, filters)
	}
	return nil, nil
}

func (m *mockQuizResultRepository) List(ctx context.Context, tx *gorm.DB, filters repositories.QuizResultFilters) ([]*models.QuizResult, int64, error) {
	if m.ListFn != nil {
		return m.ListFn(filters)
	}
	return nil, 0, nil
}

func (m *mockQuizResultRepository) GetTotalsByUser(ctx context.Context, tx *gorm.DB, userID uint, companyID *uint) (*repositories.ResultTotals, error) {
	if m.GetTotalsByUserFn != nil {
		return m.GetTotalsByUserFn(userID, companyID)
	}
	return &repositories.ResultTotals{}, nil
}

func (m *mockQuizResultRepository) GetTotalsByCompany(ctx context.Context, tx *gorm.DB, companyID uint) (*repositories.ResultTotals, error) {
	if m.GetTotalsByCompanyFn != nil {
		return m.GetTotalsByCompanyFn(companyID)
	}
	return &repositories.ResultTotals{}, nil
}

func (m *mockQuizResultRepository) GetMemberLastCompletions(ctx context.Context, tx *gorm.DB, companyID uint) ([]*repositories.MemberLastCompletion, error) {
	if m.GetMemberLastCompletionsFn != nil {
		return m.GetMemberLastCompletionsFn(companyID)
	}
	return nil, nil
}

// ===== NOTIFICATION =====

type mockNotificationRepository struct {
	CreateFn             func(notification *models.Notification) error
	CreateBatchFn        func(notifications []*models.Notification) error
	GetByIDFn            func(id uint) (*models.Notification, error)
	UpdateFn             func(notification *models.Notification) error
	GetByUserFn          func(userID uint, filters repositories.NotificationFilters) ([]*models.Notification, int64, error)
	HasPendingWithTextFn func(userID uint, text string) (bool, error)
}

func (m *mockNotificationRepository) Create(ctx context.Context, tx *gorm.DB, notification *models.Notification) error {
	if m.CreateFn != nil {
		return m.CreateFn(notification)
	}
	notification.ID = 1
	return nil
}

func (m *mockNotificationRepository) CreateBatch(ctx context.Context, tx *gorm.DB, notifications []*models.Notification) error {
	if m.CreateBatchFn != nil {
		return m.CreateBatchFn(notifications)
	}
	return nil
}

func (m *mockNotificationRepository) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Notification, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(id)
	}
	return nil, repositories.ErrNotFound
}

func (m *mockNotificationRepository) Update(ctx context.Context, tx *gorm.DB, notification *models.Notification) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(notification)
	}
	return nil
}

func (m *mockNotificationRepository) GetByUser(ctx context.Context, tx *gorm.DB, userID uint, filters repositories.NotificationFilters) ([]*models.Notification, int64, error) {
	if m.GetByUserFn != nil {
		return m.GetByUserFn(userID, filters)
	}
	return nil, 0, nil
}

func (m *mockNotificationRepository) HasPendingWithText(ctx context.Context, tx *gorm.DB, userID uint, text string) (bool, error) {
	if m.HasPendingWithTextFn != nil {
		return m.HasPendingWithTextFn(userID, text)
	}
	return false, nil
}
