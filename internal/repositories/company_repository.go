package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/quiz-platform/quiz-service/internal/models"
)

type CompanyRepository interface {
	Create(ctx context.Context, tx *gorm.DB, company *models.Company) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Company, error)
	GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id uint) (*models.Company, error)
	Update(ctx context.Context, tx *gorm.DB, company *models.Company) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error

	// List operations (visibility-scoped by filters)
	List(ctx context.Context, tx *gorm.DB, filters CompanyFilters) ([]*models.Company, int64, error)

	// Membership set. AddMember must not duplicate an existing membership.
	AddMember(ctx context.Context, tx *gorm.DB, companyID, userID uint) error
	RemoveMember(ctx context.Context, tx *gorm.DB, companyID, userID uint) error
	IsMember(ctx context.Context, tx *gorm.DB, companyID, userID uint) (bool, error)
	GetMembers(ctx context.Context, tx *gorm.DB, companyID uint, filters UserFilters) ([]*models.User, int64, error)
	GetMemberIDs(ctx context.Context, tx *gorm.DB, companyID uint) ([]uint, error)

	// Admin set
	AddAdmin(ctx context.Context, tx *gorm.DB, companyID, userID uint) error
	RemoveAdmin(ctx context.Context, tx *gorm.DB, companyID, userID uint) error
	IsAdmin(ctx context.Context, tx *gorm.DB, companyID, userID uint) (bool, error)
	GetAdmins(ctx context.Context, tx *gorm.DB, companyID uint) ([]*models.User, error)
}
