package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/quiz-platform/quiz-service/internal/models"
)

type QuizRepository interface {
	Create(ctx context.Context, tx *gorm.DB, quiz *models.Quiz) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Quiz, error)
	// GetByIDWithDetails loads the quiz with its ordered questions and
	// owning company.
	GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id uint) (*models.Quiz, error)
	Update(ctx context.Context, tx *gorm.DB, quiz *models.Quiz) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error

	GetByCompany(ctx context.Context, tx *gorm.DB, companyID uint, filters QuizFilters) ([]*models.Quiz, int64, error)

	// Question management
	ReplaceQuestions(ctx context.Context, tx *gorm.DB, quizID uint, questions []models.Question) error
}

type QuizResultRepository interface {
	Create(ctx context.Context, tx *gorm.DB, result *models.QuizResult) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.QuizResult, error)

	// GetByUser loads a user's results with the quiz relation hydrated;
	// CompanyID in filters narrows to quizzes of that company.
	GetByUser(ctx context.Context, tx *gorm.DB, userID uint, filters QuizResultFilters) ([]*models.QuizResult, error)
	List(ctx context.Context, tx *gorm.DB, filters QuizResultFilters) ([]*models.QuizResult, int64, error)

	// Aggregations used by analytics
	GetTotalsByUser(ctx context.Context, tx *gorm.DB, userID uint, companyID *uint) (*ResultTotals, error)
	GetTotalsByCompany(ctx context.Context, tx *gorm.DB, companyID uint) (*ResultTotals, error)
	GetMemberLastCompletions(ctx context.Context, tx *gorm.DB, companyID uint) ([]*MemberLastCompletion, error)
}
