package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/quiz-platform/quiz-service/internal/models"
	"github.com/quiz-platform/quiz-service/internal/repositories"
)

type InvitationPostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewInvitationPostgreSQL(db *gorm.DB) repositories.InvitationRepository {
	return &InvitationPostgreSQL{
		db:      db,
		helpers: NewSharedHelpers(db),
	}
}

func (i *InvitationPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return i.db
}

func (i *InvitationPostgreSQL) Create(ctx context.Context, tx *gorm.DB, invitation *models.Invitation) error {
	db := i.getDB(tx)
	return db.WithContext(ctx).Create(invitation).Error
}

func (i *InvitationPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Invitation, error) {
	db := i.getDB(tx)
	var invitation models.Invitation
	if err := db.WithContext(ctx).First(&invitation, id).Error; err != nil {
		return nil, err
	}
	return &invitation, nil
}

func (i *InvitationPostgreSQL) GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id uint) (*models.Invitation, error) {
	db := i.getDB(tx)
	var invitation models.Invitation
	if err := db.WithContext(ctx).
		Preload("Sender").
		Preload("Receiver").
		Preload("Company").
		First(&invitation, id).Error; err != nil {
		return nil, err
	}
	return &invitation, nil
}

func (i *InvitationPostgreSQL) Update(ctx context.Context, tx *gorm.DB, invitation *models.Invitation) error {
	db := i.getDB(tx)
	return db.WithContext(ctx).Save(invitation).Error
}

func (i *InvitationPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	db := i.getDB(tx)
	return db.WithContext(ctx).Delete(&models.Invitation{}, id).Error
}

func (i *InvitationPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.InvitationFilters) ([]*models.Invitation, int64, error) {
	db := i.getDB(tx)
	var invitations []*models.Invitation
	var total int64

	query := db.WithContext(ctx).Model(&models.Invitation{})
	query = i.helpers.ApplyInvitationFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = i.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)

	if err := query.
		Preload("Sender").
		Preload("Receiver").
		Preload("Company").
		Find(&invitations).Error; err != nil {
		return nil, 0, err
	}

	return invitations, total, nil
}

func (i *InvitationPostgreSQL) GetByCompany(ctx context.Context, tx *gorm.DB, companyID uint, filters repositories.InvitationFilters) ([]*models.Invitation, int64, error) {
	filters.CompanyID = &companyID
	return i.List(ctx, tx, filters)
}
