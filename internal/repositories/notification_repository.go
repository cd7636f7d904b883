package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/quiz-platform/quiz-service/internal/models"
)

type NotificationRepository interface {
	Create(ctx context.Context, tx *gorm.DB, notification *models.Notification) error
	CreateBatch(ctx context.Context, tx *gorm.DB, notifications []*models.Notification) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Notification, error)
	Update(ctx context.Context, tx *gorm.DB, notification *models.Notification) error

	// GetByUser returns a user's notifications ordered by time descending.
	GetByUser(ctx context.Context, tx *gorm.DB, userID uint, filters NotificationFilters) ([]*models.Notification, int64, error)

	// HasPendingWithText reports whether the user already has a PENDING
	// notification with exactly the given text. The scheduler's
	// de-duplication gate.
	HasPendingWithText(ctx context.Context, tx *gorm.DB, userID uint, text string) (bool, error)
}
