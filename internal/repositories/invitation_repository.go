package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/quiz-platform/quiz-service/internal/models"
)

type InvitationRepository interface {
	Create(ctx context.Context, tx *gorm.DB, invitation *models.Invitation) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Invitation, error)
	GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id uint) (*models.Invitation, error)
	Update(ctx context.Context, tx *gorm.DB, invitation *models.Invitation) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error

	List(ctx context.Context, tx *gorm.DB, filters InvitationFilters) ([]*models.Invitation, int64, error)
	GetByCompany(ctx context.Context, tx *gorm.DB, companyID uint, filters InvitationFilters) ([]*models.Invitation, int64, error)
}
