package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/quiz-platform/quiz-service/internal/models"
)

// UserFilters defines filters for user queries
type UserFilters struct {
	Query  string // Search query for username or email
	Limit  int    // Page size
	Offset int    // Offset for pagination
}

type UserRepository interface {
	Create(ctx context.Context, tx *gorm.DB, user *models.User) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, tx *gorm.DB, username string) (*models.User, error)
	GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*models.User, error)
	Update(ctx context.Context, tx *gorm.DB, user *models.User) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error

	// List and search operations
	List(ctx context.Context, tx *gorm.DB, filters UserFilters) ([]*models.User, int64, error)

	// Validation and checks
	ExistsByID(ctx context.Context, tx *gorm.DB, id uint) (bool, error)
	ExistsByUsername(ctx context.Context, tx *gorm.DB, username string) (bool, error)

	// Invitation bookkeeping sets. An entry marks an outstanding offer of
	// membership in (invited) or a pending join request for (requested) the
	// company.
	AddInvitedCompany(ctx context.Context, tx *gorm.DB, userID, companyID uint) error
	RemoveInvitedCompany(ctx context.Context, tx *gorm.DB, userID, companyID uint) error
	HasInvitedCompany(ctx context.Context, tx *gorm.DB, userID, companyID uint) (bool, error)
	AddRequestedCompany(ctx context.Context, tx *gorm.DB, userID, companyID uint) error
	RemoveRequestedCompany(ctx context.Context, tx *gorm.DB, userID, companyID uint) error
	HasRequestedCompany(ctx context.Context, tx *gorm.DB, userID, companyID uint) (bool, error)

	// Paginated company listings backed by the bookkeeping sets, ordered by
	// company creation time descending.
	GetInvitedCompanies(ctx context.Context, tx *gorm.DB, userID uint, filters CompanyFilters) ([]*models.Company, int64, error)
	GetRequestedCompanies(ctx context.Context, tx *gorm.DB, userID uint, filters CompanyFilters) ([]*models.Company, int64, error)
}
