package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/quiz-platform/quiz-service/internal/models"
	"github.com/quiz-platform/quiz-service/internal/repositories"
)

// SharedHelpers contains common database operations
type SharedHelpers struct {
	db *gorm.DB
}

func NewSharedHelpers(db *gorm.DB) *SharedHelpers {
	return &SharedHelpers{db: db}
}

// ApplyCompanyFilters applies common filters to company queries
func (h *SharedHelpers) ApplyCompanyFilters(query *gorm.DB, filters repositories.CompanyFilters) *gorm.DB {
	if filters.OwnerID != nil {
		query = query.Where("owner_id = ?", *filters.OwnerID)
	}
	if filters.IsVisible != nil {
		query = query.Where("is_visible = ?", *filters.IsVisible)
	}
	if filters.DateFrom != nil {
		query = query.Where("created_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("created_at <= ?", *filters.DateTo)
	}
	return query
}

// ApplyInvitationFilters applies common filters to invitation queries
func (h *SharedHelpers) ApplyInvitationFilters(query *gorm.DB, filters repositories.InvitationFilters) *gorm.DB {
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.IsRequest != nil {
		query = query.Where("is_request = ?", *filters.IsRequest)
	}
	if filters.SenderID != nil {
		query = query.Where("sender_id = ?", *filters.SenderID)
	}
	if filters.CompanyID != nil {
		query = query.Where("company_id = ?", *filters.CompanyID)
	}
	return query
}

// ApplyPaginationAndSort applies pagination and sorting with SQL injection protection
func (h *SharedHelpers) ApplyPaginationAndSort(query *gorm.DB, sortBy, sortOrder string, limit, offset int) *gorm.DB {
	// Whitelist allowed sort columns
	allowedSortColumns := map[string]bool{
		"created_at": true,
		"updated_at": true,
		"id":         true,
		"name":       true,
		"title":      true,
		"status":     true,
		"time":       true,
	}

	// Validate and set sort column
	if sortBy == "" || !allowedSortColumns[sortBy] {
		sortBy = "created_at"
	}

	// Validate and set sort order
	if sortOrder != "asc" && sortOrder != "ASC" {
		sortOrder = "DESC"
	} else {
		sortOrder = "ASC"
	}

	query = query.Order(sortBy + " " + sortOrder)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	return query
}

// CountPendingInvitations counts outstanding invitations for a company
func (h *SharedHelpers) CountPendingInvitations(ctx context.Context, companyID uint) (int64, error) {
	var count int64
	err := h.db.WithContext(ctx).
		Model(&models.Invitation{}).
		Where("company_id = ? AND status = ?", companyID, models.InvitationSent).
		Count(&count).Error
	return count, err
}

// CountMembers counts members of a company
func (h *SharedHelpers) CountMembers(ctx context.Context, companyID uint) (int64, error) {
	var count int64
	err := h.db.WithContext(ctx).
		Table("company_members").
		Where("company_id = ?", companyID).
		Count(&count).Error
	return count, err
}
