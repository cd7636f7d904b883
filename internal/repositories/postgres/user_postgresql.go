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

type UserPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewUserPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.UserRepository {
	return &UserPostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (u *UserPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return u.db
}

func (u *UserPostgreSQL) Create(ctx context.Context, tx *gorm.DB, user *models.User) error {
	db := u.getDB(tx)
	return db.WithContext(ctx).Create(user).Error
}

func (u *UserPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.User, error) {
	db := u.getDB(tx)
	var user models.User
	if err := db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (u *UserPostgreSQL) GetByUsername(ctx context.Context, tx *gorm.DB, username string) (*models.User, error) {
	db := u.getDB(tx)
	var user models.User
	if err := db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (u *UserPostgreSQL) GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*models.User, error) {
	db := u.getDB(tx)
	var user models.User
	if err := db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (u *UserPostgreSQL) Update(ctx context.Context, tx *gorm.DB, user *models.User) error {
	db := u.getDB(tx)
	return db.WithContext(ctx).Save(user).Error
}

func (u *UserPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	db := u.getDB(tx)
	return db.WithContext(ctx).Delete(&models.User{}, id).Error
}

func (u *UserPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.UserFilters) ([]*models.User, int64, error) {
	db := u.getDB(tx)
	var users []*models.User
	var total int64

	query := db.WithContext(ctx).Model(&models.User{})
	if filters.Query != "" {
		like := "%" + filters.Query + "%"
		query = query.Where("username ILIKE ? OR email ILIKE ?", like, like)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = u.helpers.ApplyPaginationAndSort(query, "created_at", "asc", filters.Limit, filters.Offset)

	if err := query.Find(&users).Error; err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

func (u *UserPostgreSQL) ExistsByID(ctx context.Context, tx *gorm.DB, id uint) (bool, error) {
	db := u.getDB(tx)
	var count int64
	if err := db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (u *UserPostgreSQL) ExistsByUsername(ctx context.Context, tx *gorm.DB, username string) (bool, error) {
	db := u.getDB(tx)
	var count int64
	if err := db.WithContext(ctx).Model(&models.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ===== INVITATION BOOKKEEPING SETS =====

func (u *UserPostgreSQL) AddInvitedCompany(ctx context.Context, tx *gorm.DB, userID, companyID uint) error {
	db := u.getDB(tx)
	user := models.User{ID: userID}
	company := models.Company{ID: companyID}
	if err := db.WithContext(ctx).Model(&user).Association("InvitedCompanies").Append(&company); err != nil {
		return fmt.Errorf("failed to add invited company: %w", err)
	}
	return nil
}

func (u *UserPostgreSQL) RemoveInvitedCompany(ctx context.Context, tx *gorm.DB, userID, companyID uint) error {
	db := u.getDB(tx)
	user := models.User{ID: userID}
	company := models.Company{ID: companyID}
	if err := db.WithContext(ctx).Model(&user).Association("InvitedCompanies").Delete(&company); err != nil {
		return fmt.Errorf("failed to remove invited company: %w", err)
	}
	return nil
}

func (u *UserPostgreSQL) HasInvitedCompany(ctx context.Context, tx *gorm.DB, userID, companyID uint) (bool, error) {
	db := u.getDB(tx)
	var count int64
	err := db.WithContext(ctx).
		Table("user_invited_companies").
		Where("user_id = ? AND company_id = ?", userID, companyID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (u *UserPostgreSQL) AddRequestedCompany(ctx context.Context, tx *gorm.DB, userID, companyID uint) error {
	db := u.getDB(tx)
	user := models.User{ID: userID}
	company := models.Company{ID: companyID}
	if err := db.WithContext(ctx).Model(&user).Association("RequestedCompanies").Append(&company); err != nil {
		return fmt.Errorf("failed to add requested company: %w", err)
	}
	return nil
}

func (u *UserPostgreSQL) RemoveRequestedCompany(ctx context.Context, tx *gorm.DB, userID, companyID uint) error {
	db := u.getDB(tx)
	user := models.User{ID: userID}
	company := models.Company{ID: companyID}
	if err := db.WithContext(ctx).Model(&user).Association("RequestedCompanies").Delete(&company); err != nil {
		return fmt.Errorf("failed to remove requested company: %w", err)
	}
	return nil
}

func (u *UserPostgreSQL) HasRequestedCompany(ctx context.Context, tx *gorm.DB, userID, companyID uint) (bool, error) {
	db := u.getDB(tx)
	var count int64
	err := db.WithContext(ctx).
		Table("user_requested_companies").
		Where("user_id = ? AND company_id = ?", userID, companyID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (u *UserPostgreSQL) GetInvitedCompanies(ctx context.Context, tx *gorm.DB, userID uint, filters repositories.CompanyFilters) ([]*models.Company, int64, error) {
	return u.getCompaniesFromSet(ctx, tx, "user_invited_companies", userID, filters)
}

func (u *UserPostgreSQL) GetRequestedCompanies(ctx context.Context, tx *gorm.DB, userID uint, filters repositories.CompanyFilters) ([]*models.Company, int64, error) {
	return u.getCompaniesFromSet(ctx, tx, "user_requested_companies", userID, filters)
}

// getCompaniesFromSet pages over the companies referenced by one of the
// bookkeeping join tables, newest companies first.
func (u *UserPostgreSQL) getCompaniesFromSet(ctx context.Context, tx *gorm.DB, joinTable string, userID uint, filters repositories.CompanyFilters) ([]*models.Company, int64, error) {
	db := u.getDB(tx)
	var companies []*models.Company
	var total int64

	query := db.WithContext(ctx).Model(&models.Company{}).
		Joins(fmt.Sprintf("JOIN %s jt ON jt.company_id = companies.id", joinTable)).
		Where("jt.user_id = ?", userID)
	query = u.helpers.ApplyCompanyFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("companies.created_at DESC")
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	if err := query.Find(&companies).Error; err != nil {
		return nil, 0, err
	}

	return companies, total, nil
}
