package postgres

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/quiz-platform/quiz-service/internal/cache"
	"github.com/quiz-platform/quiz-service/internal/models"
	"github.com/quiz-platform/quiz-service/internal/repositories"
)

type CompanyPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewCompanyPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.CompanyRepository {
	return &CompanyPostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (c *CompanyPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return c.db
}

func (c *CompanyPostgreSQL) Create(ctx context.Context, tx *gorm.DB, company *models.Company) error {
	db := c.getDB(tx)
	return db.WithContext(ctx).Create(company).Error
}

func (c *CompanyPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Company, error) {
	db := c.getDB(tx)
	var company models.Company
	if err := db.WithContext(ctx).First(&company, id).Error; err != nil {
		return nil, err
	}
	return &company, nil
}

func (c *CompanyPostgreSQL) GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id uint) (*models.Company, error) {
	db := c.getDB(tx)
	var company models.Company
	if err := db.WithContext(ctx).
		Preload("Owner").
		Preload("Members").
		Preload("Admins").
		First(&company, id).Error; err != nil {
		return nil, err
	}
	return &company, nil
}

func (c *CompanyPostgreSQL) Update(ctx context.Context, tx *gorm.DB, company *models.Company) error {
	db := c.getDB(tx)
	if err := db.WithContext(ctx).Save(company).Error; err != nil {
		return err
	}
	cache.InvalidateCompanyCache(ctx, c.cacheManager, company.ID)
	return nil
}

func (c *CompanyPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	db := c.getDB(tx)
	if err := db.WithContext(ctx).Delete(&models.Company{}, id).Error; err != nil {
		return err
	}
	cache.InvalidateCompanyCache(ctx, c.cacheManager, id)
	return nil
}

func (c *CompanyPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.CompanyFilters) ([]*models.Company, int64, error) {
	db := c.getDB(tx)
	var companies []*models.Company
	var total int64

	// apply filter first
	query := db.WithContext(ctx).Model(&models.Company{})
	query = c.helpers.ApplyCompanyFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// then apply pagination and sorting
	query = c.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)

	if err := query.Preload("Owner").Find(&companies).Error; err != nil {
		return nil, 0, err
	}

	return companies, total, nil
}

// ===== MEMBERSHIP SET =====

func (c *CompanyPostgreSQL) AddMember(ctx context.Context, tx *gorm.DB, companyID, userID uint) error {
	db := c.getDB(tx)

	// Association append is idempotent on the join table primary key, so a
	// repeated add does not duplicate the membership row.
	company := models.Company{ID: companyID}
	user := models.User{ID: userID}
	if err := db.WithContext(ctx).Model(&company).Association("Members").Append(&user); err != nil {
		return fmt.Errorf("failed to add member: %w", err)
	}

	cache.InvalidateCompanyCache(ctx, c.cacheManager, companyID)
	return nil
}

func (c *CompanyPostgreSQL) RemoveMember(ctx context.Context, tx *gorm.DB, companyID, userID uint) error {
	db := c.getDB(tx)
	company := models.Company{ID: companyID}
	user := models.User{ID: userID}
	if err := db.WithContext(ctx).Model(&company).Association("Members").Delete(&user); err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}

	cache.InvalidateCompanyCache(ctx, c.cacheManager, companyID)
	return nil
}

func (c *CompanyPostgreSQL) IsMember(ctx context.Context, tx *gorm.DB, companyID, userID uint) (bool, error) {
	db := c.getDB(tx)
	var count int64
	err := db.WithContext(ctx).
		Table("company_members").
		Where("company_id = ? AND user_id = ?", companyID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (c *CompanyPostgreSQL) GetMembers(ctx context.Context, tx *gorm.DB, companyID uint, filters repositories.UserFilters) ([]*models.User, int64, error) {
	db := c.getDB(tx)
	var users []*models.User
	var total int64

	query := db.WithContext(ctx).Model(&models.User{}).
		Joins("JOIN company_members cm ON cm.user_id = users.id").
		Where("cm.company_id = ?", companyID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("users.created_at ASC")
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	if err := query.Find(&users).Error; err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

func (c *CompanyPostgreSQL) GetMemberIDs(ctx context.Context, tx *gorm.DB, companyID uint) ([]uint, error) {
	db := c.getDB(tx)
	var ids []uint
	err := db.WithContext(ctx).
		Table("company_members").
		Where("company_id = ?", companyID).
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get member ids: %w", err)
	}
	return ids, nil
}

// ===== ADMIN SET =====

func (c *CompanyPostgreSQL) AddAdmin(ctx context.Context, tx *gorm.DB, companyID, userID uint) error {
	db := c.getDB(tx)
	company := models.Company{ID: companyID}
	user := models.User{ID: userID}
	if err := db.WithContext(ctx).Model(&company).Association("Admins").Append(&user); err != nil {
		return fmt.Errorf("failed to add admin: %w", err)
	}
	return nil
}

func (c *CompanyPostgreSQL) RemoveAdmin(ctx context.Context, tx *gorm.DB, companyID, userID uint) error {
	db := c.getDB(tx)
	company := models.Company{ID: companyID}
	user := models.User{ID: userID}
	if err := db.WithContext(ctx).Model(&company).Association("Admins").Delete(&user); err != nil {
		return fmt.Errorf("failed to remove admin: %w", err)
	}
	return nil
}

func (c *CompanyPostgreSQL) IsAdmin(ctx context.Context, tx *gorm.DB, companyID, userID uint) (bool, error) {
	db := c.getDB(tx)
	var count int64
	err := db.WithContext(ctx).
		Table("company_admins").
		Where("company_id = ? AND user_id = ?", companyID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (c *CompanyPostgreSQL) GetAdmins(ctx context.Context, tx *gorm.DB, companyID uint) ([]*models.User, error) {
	db := c.getDB(tx)
	var users []*models.User
	err := db.WithContext(ctx).Model(&models.User{}).
		Joins("JOIN company_admins ca ON ca.user_id = users.id").
		Where("ca.company_id = ?", companyID).
		Order("users.created_at ASC").
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get admins: %w", err)
	}
	return users, nil
}
