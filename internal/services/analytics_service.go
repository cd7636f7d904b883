package services

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/quiz-platform/quiz-service/internal/repositories"
)

type analyticsService struct {
	repo   repositories.Repository
	db     *gorm.DB
	logger *slog.Logger
}

func NewAnalyticsService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger) AnalyticsService {
	return &analyticsService{
		repo:   repo,
		db:     db,
		logger: logger,
	}
}

func (s *analyticsService) GetUserRating(ctx context.Context, userID uint, companyID *uint) (*UserRatingResponse, error) {
	if _, err := s.repo.User().GetByID(ctx, nil, userID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	totals, err := s.repo.QuizResult().GetTotalsByUser(ctx, nil, userID, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate user totals: %w", err)
	}

	return &UserRatingResponse{
		UserID:        userID,
		CompanyID:     companyID,
		Rating:        RatingFromTotals(totals.TotalCorrect, totals.TotalAnswered),
		TotalAnswered: totals.TotalAnswered,
		TotalCorrect:  totals.TotalCorrect,
	}, nil
}

func (s *analyticsService) GetUserAverageRating(ctx context.Context, userID uint, companyID *uint) (*UserAverageRatingResponse, error) {
	if _, err := s.repo.User().GetByID(ctx, nil, userID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	totals, err := s.repo.QuizResult().GetTotalsByUser(ctx, nil, userID, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate user totals: %w", err)
	}

	return &UserAverageRatingResponse{
		UserID:        userID,
		CompanyID:     companyID,
		AverageRating: AverageRatingFromTotals(totals.TotalCorrect, totals.TotalAnswered),
		TotalAnswered: totals.TotalAnswered,
		TotalCorrect:  totals.TotalCorrect,
	}, nil
}

func (s *analyticsService) GetCompanyAverageRating(ctx context.Context, companyID uint, actorID uint) (*CompanyAnalyticsResponse, error) {
	if err := s.requireAdmin(ctx, companyID, actorID, "read_analytics"); err != nil {
		return nil, err
	}

	totals, err := s.repo.QuizResult().GetTotalsByCompany(ctx, nil, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate company totals: %w", err)
	}

	return &CompanyAnalyticsResponse{
		CompanyID:     companyID,
		AverageRating: AverageRatingFromTotals(totals.TotalCorrect, totals.TotalAnswered),
		TotalAnswered: totals.TotalAnswered,
		TotalCorrect:  totals.TotalCorrect,
	}, nil
}

func (s *analyticsService) GetMemberActivity(ctx context.Context, companyID uint, actorID uint) ([]*MemberActivityResponse, error) {
	if err := s.requireAdmin(ctx, companyID, actorID, "read_analytics"); err != nil {
		return nil, err
	}

	rows, err := s.repo.QuizResult().GetMemberLastCompletions(ctx, nil, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to get member activity: %w", err)
	}

	out := make([]*MemberActivityResponse, 0, len(rows))
	for _, row := range rows {
		totals, err := s.repo.QuizResult().GetTotalsByUser(ctx, nil, row.UserID, &companyID)
		if err != nil {
			return nil, fmt.Errorf("failed to aggregate member totals: %w", err)
		}
		out = append(out, &MemberActivityResponse{
			UserID:        row.UserID,
			Username:      row.Username,
			LastQuizTime:  row.LastQuizTime,
			AverageRating: AverageRatingFromTotals(totals.TotalCorrect, totals.TotalAnswered),
		})
	}
	return out, nil
}

func (s *analyticsService) GetUserResults(ctx context.Context, userID uint, filters repositories.QuizResultFilters, actorID uint) ([]*QuizResultResponse, error) {
	// Users read their own history; company admins read their members'
	// history scoped to their company.
	if actorID != userID {
		if filters.CompanyID == nil {
			return nil, NewPermissionError(actorID, userID, "quiz_result", "read", "company scope required for other users")
		}
		if err := s.requireAdmin(ctx, *filters.CompanyID, actorID, "read_results"); err != nil {
			return nil, err
		}
	}

	if filters.Limit <= 0 {
		filters.Limit = 50
	}

	results, err := s.repo.QuizResult().GetByUser(ctx, nil, userID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to get quiz results: %w", err)
	}

	// Running rating is recomputed per result from the user's own totals
	totals, err := s.repo.QuizResult().GetTotalsByUser(ctx, nil, userID, filters.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate user totals: %w", err)
	}
	rating := RatingFromTotals(totals.TotalCorrect, totals.TotalAnswered)

	out := make([]*QuizResultResponse, 0, len(results))
	for _, r := range results {
		out = append(out, toQuizResultResponse(r, rating))
	}
	return out, nil
}

func (s *analyticsService) requireAdmin(ctx context.Context, companyID, actorID uint, action string) error {
	company, err := s.repo.Company().GetByID(ctx, nil, companyID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrCompanyNotFound
		}
		return fmt.Errorf("failed to get company: %w", err)
	}

	if company.OwnerID == actorID {
		return nil
	}

	isAdmin, err := s.repo.Company().IsAdmin(ctx, nil, companyID, actorID)
	if err != nil {
		return fmt.Errorf("failed to check admin: %w", err)
	}
	if !isAdmin {
		return NewPermissionError(actorID, companyID, "company", action, "not company owner or admin")
	}
	return nil
}
