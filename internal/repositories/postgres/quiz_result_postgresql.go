package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/quiz-platform/quiz-service/internal/models"
	"github.com/quiz-platform/quiz-service/internal/repositories"
)

type QuizResultPostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewQuizResultPostgreSQL(db *gorm.DB) repositories.QuizResultRepository {
	return &QuizResultPostgreSQL{
		db:      db,
		helpers: NewSharedHelpers(db),
	}
}

func (r *QuizResultPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *QuizResultPostgreSQL) Create(ctx context.Context, tx *gorm.DB, result *models.QuizResult) error {
	db := r.getDB(tx)
	return db.WithContext(ctx).Create(result).Error
}

func (r *QuizResultPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.QuizResult, error) {
	db := r.getDB(tx)
	var result models.QuizResult
	if err := db.WithContext(ctx).Preload("Quiz").First(&result, id).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *QuizResultPostgreSQL) GetByUser(ctx context.Context, tx *gorm.DB, userID uint, filters repositories.QuizResultFilters) ([]*models.QuizResult, error) {
	db := r.getDB(tx)
	var results []*models.QuizResult

	query := db.WithContext(ctx).Model(&models.QuizResult{}).Where("quiz_results.user_id = ?", userID)
	query = r.applyResultScope(query, filters)

	query = query.Order("quiz_results.completion_time DESC")
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	if err := query.Preload("Quiz").Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to get quiz results: %w", err)
	}
	return results, nil
}

func (r *QuizResultPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.QuizResultFilters) ([]*models.QuizResult, int64, error) {
	db := r.getDB(tx)
	var results []*models.QuizResult
	var total int64

	query := db.WithContext(ctx).Model(&models.QuizResult{})
	if filters.UserID != nil {
		query = query.Where("quiz_results.user_id = ?", *filters.UserID)
	}
	query = r.applyResultScope(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("quiz_results.completion_time DESC")
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	if err := query.Preload("Quiz").Find(&results).Error; err != nil {
		return nil, 0, err
	}
	return results, total, nil
}

// applyResultScope narrows by quiz, company and completion window. The
// company scope joins through quizzes because results carry no company
// column of their own.
func (r *QuizResultPostgreSQL) applyResultScope(query *gorm.DB, filters repositories.QuizResultFilters) *gorm.DB {
	if filters.QuizID != nil {
		query = query.Where("quiz_results.quiz_id = ?", *filters.QuizID)
	}
	if filters.CompanyID != nil {
		query = query.
			Joins("JOIN quizzes ON quizzes.id = quiz_results.quiz_id").
			Where("quizzes.company_id = ?", *filters.CompanyID)
	}
	if filters.DateFrom != nil {
		query = query.Where("quiz_results.completion_time >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("quiz_results.completion_time <= ?", *filters.DateTo)
	}
	return query
}

func (r *QuizResultPostgreSQL) GetTotalsByUser(ctx context.Context, tx *gorm.DB, userID uint, companyID *uint) (*repositories.ResultTotals, error) {
	db := r.getDB(tx)
	var totals repositories.ResultTotals

	query := db.WithContext(ctx).Model(&models.QuizResult{}).
		Select("COALESCE(SUM(total_questions_answered), 0) as total_answered, COALESCE(SUM(total_correct_answers), 0) as total_correct").
		Where("quiz_results.user_id = ?", userID)
	if companyID != nil {
		query = query.
			Joins("JOIN quizzes ON quizzes.id = quiz_results.quiz_id").
			Where("quizzes.company_id = ?", *companyID)
	}

	if err := query.Scan(&totals).Error; err != nil {
		return nil, fmt.Errorf("failed to aggregate result totals: %w", err)
	}
	return &totals, nil
}

func (r *QuizResultPostgreSQL) GetTotalsByCompany(ctx context.Context, tx *gorm.DB, companyID uint) (*repositories.ResultTotals, error) {
	db := r.getDB(tx)
	var totals repositories.ResultTotals

	err := db.WithContext(ctx).Model(&models.QuizResult{}).
		Select("COALESCE(SUM(total_questions_answered), 0) as total_answered, COALESCE(SUM(total_correct_answers), 0) as total_correct").
		Joins("JOIN quizzes ON quizzes.id = quiz_results.quiz_id").
		Where("quizzes.company_id = ?", companyID).
		Scan(&totals).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate company totals: %w", err)
	}
	return &totals, nil
}

// GetMemberLastCompletions lists every member of the company with the time
// of their most recent submission to any of the company's quizzes. Members
// that never answered appear with a nil timestamp.
func (r *QuizResultPostgreSQL) GetMemberLastCompletions(ctx context.Context, tx *gorm.DB, companyID uint) ([]*repositories.MemberLastCompletion, error) {
	db := r.getDB(tx)
	var rows []*repositories.MemberLastCompletion

	err := db.WithContext(ctx).
		Table("users").
		Select("users.id as user_id, users.username, MAX(quiz_results.completion_time) as last_quiz_time").
		Joins("JOIN company_members cm ON cm.user_id = users.id AND cm.company_id = ?", companyID).
		Joins("LEFT JOIN quizzes ON quizzes.company_id = cm.company_id AND quizzes.deleted_at IS NULL").
		Joins("LEFT JOIN quiz_results ON quiz_results.quiz_id = quizzes.id AND quiz_results.user_id = users.id").
		Where("users.deleted_at IS NULL").
		Group("users.id, users.username").
		Order("users.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get member last completions: %w", err)
	}
	return rows, nil
}
