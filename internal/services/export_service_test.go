package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/quiz-platform/quiz-service/internal/cache"
	"github.com/quiz-platform/quiz-service/internal/models"
	"github.com/quiz-platform/quiz-service/internal/repositories"
)

func newExportFixture(t *testing.T) (ExportService, *cache.CacheManager) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	cacheManager := cache.NewCacheManager(client)

	repo := &mockRepository{
		company: mockCompanyRepository{
			GetByIDFn: func(id uint) (*models.Company, error) {
				return &models.Company{ID: id, Name: "Acme", OwnerID: 1}, nil
			},
		},
	}
	return NewExportService(repo, nil, testLogger(), cacheManager), cacheManager
}

func seedResult(t *testing.T, cacheManager *cache.CacheManager, companyID uint, result *models.QuizResult) {
	t.Helper()
	key := cache.ResultKey(companyID, result.QuizID, result.UserID, result.ID)
	if err := cacheManager.Result.SetWithConfig(context.Background(), key, result, cache.ResultCacheConfig); err != nil {
		t.Fatalf("failed to seed cached result: %v", err)
	}
}

func TestExportResultsCSV(t *testing.T) {
	svc, cacheManager := newExportFixture(t)

	completed := time.Date(2026, 5, 10, 14, 30, 0, 0, time.UTC)
	seedResult(t, cacheManager, 3, &models.QuizResult{
		ID: 1, UserID: 5, QuizID: 2,
		TotalQuestionsAnswered: 10, TotalCorrectAnswers: 8,
		CompletionTime: completed,
	})
	seedResult(t, cacheManager, 3, &models.QuizResult{
		ID: 2, UserID: 4, QuizID: 2,
		TotalQuestionsAnswered: 5, TotalCorrectAnswers: 4,
		CompletionTime: completed.Add(time.Hour),
	})

	file, err := svc.ExportResults(context.Background(), ExportFilters{CompanyID: 3}, ExportCSV, 1)
	if err != nil {
		t.Fatalf("ExportResults() error = %v", err)
	}

	if file.ContentType != "text/csv" {
		t.Errorf("content type = %q, want text/csv", file.ContentType)
	}

	rows, err := csv.NewReader(bytes.NewReader(file.Data)).ReadAll()
	if err != nil {
		t.Fatalf("failed to parse csv: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("csv has %d rows, want header plus 2 records", len(rows))
	}

	header := rows[0]
	if header[0] != "result_id" || header[6] != "rating" || header[7] != "completion_time" {
		t.Errorf("unexpected header: %v", header)
	}

	// Sorted by user then completion time: user 4 first
	if rows[1][1] != "4" || rows[2][1] != "5" {
		t.Errorf("rows not sorted by user: %v / %v", rows[1], rows[2])
	}
	if rows[1][6] != "8.0" {
		t.Errorf("rating for 4 of 5 = %q, want 8.0", rows[1][6])
	}
	if rows[2][7] != completed.Format(time.RFC3339) {
		t.Errorf("completion time = %q, want %q", rows[2][7], completed.Format(time.RFC3339))
	}
}

func TestExportResultsJSON(t *testing.T) {
	svc, cacheManager := newExportFixture(t)

	seedResult(t, cacheManager, 3, &models.QuizResult{
		ID: 1, UserID: 5, QuizID: 2,
		TotalQuestionsAnswered: 10, TotalCorrectAnswers: 8,
		CompletionTime: time.Date(2026, 5, 10, 14, 30, 0, 0, time.UTC),
	})

	file, err := svc.ExportResults(context.Background(), ExportFilters{CompanyID: 3}, ExportJSON, 1)
	if err != nil {
		t.Fatalf("ExportResults() error = %v", err)
	}
	if file.ContentType != "application/json" {
		t.Errorf("content type = %q, want application/json", file.ContentType)
	}

	var records []map[string]interface{}
	if err := json.Unmarshal(file.Data, &records); err != nil {
		t.Fatalf("failed to parse json export: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("exported %d records, want 1", len(records))
	}
	if records[0]["rating"] != 8.0 {
		t.Errorf("rating = %v, want 8", records[0]["rating"])
	}
	if records[0]["company_id"] != float64(3) {
		t.Errorf("company_id = %v, want 3", records[0]["company_id"])
	}
}

func TestExportResultsXLSX(t *testing.T) {
	svc, cacheManager := newExportFixture(t)

	seedResult(t, cacheManager, 3, &models.QuizResult{
		ID: 1, UserID: 5, QuizID: 2,
		TotalQuestionsAnswered: 10, TotalCorrectAnswers: 8,
		CompletionTime: time.Now().UTC(),
	})

	file, err := svc.ExportResults(context.Background(), ExportFilters{CompanyID: 3}, ExportXLSX, 1)
	if err != nil {
		t.Fatalf("ExportResults() error = %v", err)
	}
	if file.ContentType != "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet" {
		t.Errorf("unexpected content type %q", file.ContentType)
	}
	if len(file.Data) == 0 {
		t.Error("xlsx export is empty")
	}
}

func TestExportResultsFilters(t *testing.T) {
	svc, cacheManager := newExportFixture(t)

	completed := time.Now().UTC()
	seedResult(t, cacheManager, 3, &models.QuizResult{
		ID: 1, UserID: 5, QuizID: 2,
		TotalQuestionsAnswered: 10, TotalCorrectAnswers: 8, CompletionTime: completed,
	})
	seedResult(t, cacheManager, 3, &models.QuizResult{
		ID: 2, UserID: 5, QuizID: 7,
		TotalQuestionsAnswered: 4, TotalCorrectAnswers: 2, CompletionTime: completed,
	})
	seedResult(t, cacheManager, 3, &models.QuizResult{
		ID: 3, UserID: 6, QuizID: 2,
		TotalQuestionsAnswered: 6, TotalCorrectAnswers: 6, CompletionTime: completed,
	})

	quizID := uint(2)
	userID := uint(5)

	tests := []struct {
		name    string
		filters ExportFilters
		want    int
	}{
		{name: "whole company", filters: ExportFilters{CompanyID: 3}, want: 3},
		{name: "one quiz", filters: ExportFilters{CompanyID: 3, QuizID: &quizID}, want: 2},
		{name: "one user", filters: ExportFilters{CompanyID: 3, UserID: &userID}, want: 2},
		{name: "quiz and user", filters: ExportFilters{CompanyID: 3, QuizID: &quizID, UserID: &userID}, want: 1},
		{name: "other company", filters: ExportFilters{CompanyID: 99}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file, err := svc.ExportResults(context.Background(), tt.filters, ExportJSON, 1)
			if err != nil {
				t.Fatalf("ExportResults() error = %v", err)
			}
			var records []exportRecord
			if err := json.Unmarshal(file.Data, &records); err != nil {
				t.Fatalf("failed to parse json export: %v", err)
			}
			if len(records) != tt.want {
				t.Errorf("exported %d records, want %d", len(records), tt.want)
			}
		})
	}
}

func TestExportResultsPermissions(t *testing.T) {
	t.Run("admin may export", func(t *testing.T) {
		mr := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { client.Close() })

		repo := &mockRepository{
			company: mockCompanyRepository{
				GetByIDFn: func(id uint) (*models.Company, error) {
					return &models.Company{ID: id, OwnerID: 1}, nil
				},
				IsAdminFn: func(companyID, userID uint) (bool, error) {
					return userID == 7, nil
				},
			},
		}
		svc := NewExportService(repo, nil, testLogger(), cache.NewCacheManager(client))

		if _, err := svc.ExportResults(context.Background(), ExportFilters{CompanyID: 3}, ExportJSON, 7); err != nil {
			t.Errorf("ExportResults() as admin error = %v", err)
		}
	})

	t.Run("member may not export", func(t *testing.T) {
		svc, _ := newExportFixture(t)

		_, err := svc.ExportResults(context.Background(), ExportFilters{CompanyID: 3}, ExportJSON, 9)
		if !IsPermissionError(err) {
			t.Errorf("ExportResults() error = %v, want a permission error", err)
		}
	})

	t.Run("company id required", func(t *testing.T) {
		svc, _ := newExportFixture(t)

		_, err := svc.ExportResults(context.Background(), ExportFilters{}, ExportJSON, 1)
		if !IsValidationError(err) {
			t.Errorf("ExportResults() error = %v, want a validation error", err)
		}
	})
}

func TestExportResultsUnsupportedFormat(t *testing.T) {
	svc, _ := newExportFixture(t)

	_, err := svc.ExportResults(context.Background(), ExportFilters{CompanyID: 3}, ExportFormat("xml"), 1)
	if !IsValidationError(err) {
		t.Errorf("ExportResults() error = %v, want a validation error", err)
	}
}

func TestExportResultsDatabaseFallback(t *testing.T) {
	var listed bool
	repo := &mockRepository{
		company: mockCompanyRepository{
			GetByIDFn: func(id uint) (*models.Company, error) {
				return &models.Company{ID: id, OwnerID: 1}, nil
			},
		},
		quizResult: mockQuizResultRepository{
			ListFn: func(filters repositories.QuizResultFilters) ([]*models.QuizResult, int64, error) {
				listed = true
				if filters.CompanyID == nil || *filters.CompanyID != 3 {
					t.Errorf("fallback query filters = %+v, want company 3", filters)
				}
				return []*models.QuizResult{
					{ID: 1, UserID: 5, QuizID: 2, TotalQuestionsAnswered: 10, TotalCorrectAnswers: 8},
				}, 1, nil
			},
		},
	}

	// No cache manager wired: the export must come from the database
	svc := NewExportService(repo, nil, testLogger(), nil)

	file, err := svc.ExportResults(context.Background(), ExportFilters{CompanyID: 3}, ExportJSON, 1)
	if err != nil {
		t.Fatalf("ExportResults() error = %v", err)
	}
	if !listed {
		t.Error("expected the database fallback to be queried")
	}

	var records []exportRecord
	if err := json.Unmarshal(file.Data, &records); err != nil {
		t.Fatalf("failed to parse json export: %v", err)
	}
	if len(records) != 1 || records[0].Rating != 8.0 {
		t.Errorf("fallback export = %+v, want one record rated 8.0", records)
	}
}

func BenchmarkExportResultsCSV(b *testing.B) {
	mr := miniredis.RunT(b)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	cacheManager := cache.NewCacheManager(client)
	repo := &mockRepository{
		company: mockCompanyRepository{
			GetByIDFn: func(id uint) (*models.Company, error) {
				return &models.Company{ID: id, OwnerID: 1}, nil
			},
		},
	}
	svc := NewExportService(repo, nil, testLogger(), cacheManager)

	ctx := context.Background()
	for i := 1; i <= 100; i++ {
		result := &models.QuizResult{
			ID: uint(i), UserID: uint(i%10 + 1), QuizID: 2,
			TotalQuestionsAnswered: 10, TotalCorrectAnswers: i % 11,
			CompletionTime: time.Now().UTC(),
		}
		key := cache.ResultKey(3, result.QuizID, result.UserID, result.ID)
		if err := cacheManager.Result.SetWithConfig(ctx, key, result, cache.ResultCacheConfig); err != nil {
			b.Fatalf("failed to seed: %v", err)
		}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := svc.ExportResults(ctx, ExportFilters{CompanyID: 3}, ExportCSV, 1); err != nil {
			b.Fatal(err)
		}
	}
}
