package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/quiz-platform/quiz-service/internal/cache"
	"github.com/quiz-platform/quiz-service/internal/events"
	"github.com/quiz-platform/quiz-service/internal/models"
	"github.com/quiz-platform/quiz-service/internal/repositories"
	"github.com/quiz-platform/quiz-service/internal/validator"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func quizWithQuestions() *models.Quiz {
	return &models.Quiz{
		ID:              2,
		Title:           "Fire Safety",
		FrequencyInDays: 7,
		CompanyID:       3,
		Questions: []models.Question{
			{ID: 1, QuizID: 2, Position: 0, Text: "Q1", CorrectAnswers: []string{"A"}},
			{ID: 2, QuizID: 2, Position: 1, Text: "Q2", CorrectAnswers: []string{"C"}},
		},
	}
}

func memberAccessRepo() *mockRepository {
	return &mockRepository{
		company: mockCompanyRepository{
			GetByIDFn: func(id uint) (*models.Company, error) {
				return &models.Company{ID: id, OwnerID: 1}, nil
			},
			IsMemberFn: func(companyID, userID uint) (bool, error) {
				return userID == 5, nil
			},
		},
		quiz: mockQuizRepository{
			GetByIDWithDetailsFn: func(id uint) (*models.Quiz, error) {
				return quizWithQuestions(), nil
			},
		},
	}
}

func newQuizServiceForTest(repo *mockRepository) (QuizService, *events.MockEventPublisher) {
	publisher := events.NewMockEventPublisher(testLogger())
	svc := NewQuizService(repo, nil, testLogger(), validator.New(), nil, publisher)
	return svc, publisher
}

func TestQuizGetByIDHidesCorrectAnswers(t *testing.T) {
	repo := memberAccessRepo()
	svc, _ := newQuizServiceForTest(repo)

	t.Run("member does not see answers", func(t *testing.T) {
		resp, err := svc.GetByID(context.Background(), 2, 5)
		if err != nil {
			t.Fatalf("GetByID() error = %v", err)
		}
		for _, q := range resp.Questions {
			if len(q.CorrectAnswers) != 0 {
				t.Errorf("question %d exposes correct answers to a member", q.ID)
			}
		}
	})

	t.Run("owner sees answers", func(t *testing.T) {
		resp, err := svc.GetByID(context.Background(), 2, 1)
		if err != nil {
			t.Fatalf("GetByID() error = %v", err)
		}
		if len(resp.Questions) == 0 || len(resp.Questions[0].CorrectAnswers) == 0 {
			t.Error("owner should see correct answers")
		}
	})

	t.Run("outsider is rejected", func(t *testing.T) {
		_, err := svc.GetByID(context.Background(), 2, 99)
		if !IsPermissionError(err) {
			t.Errorf("GetByID() error = %v, want a permission error", err)
		}
	})
}

func TestSubmitResult(t *testing.T) {
	t.Run("member submits and is scored", func(t *testing.T) {
		var saved *models.QuizResult
		repo := memberAccessRepo()
		repo.quizResult.CreateFn = func(result *models.QuizResult) error {
			result.ID = 17
			saved = result
			return nil
		}
		repo.quizResult.GetTotalsByUserFn = func(userID uint, companyID *uint) (*repositories.ResultTotals, error) {
			return &repositories.ResultTotals{TotalAnswered: 10, TotalCorrect: 8}, nil
		}
		svc, publisher := newQuizServiceForTest(repo)

		resp, err := svc.SubmitResult(context.Background(), 2,
			&SubmitQuizResultRequest{UserAnswers: []string{"A", "B"}}, 5)
		if err != nil {
			t.Fatalf("SubmitResult() error = %v", err)
		}

		if saved == nil {
			t.Fatal("expected the result to be persisted")
		}
		if saved.TotalQuestionsAnswered != 2 || saved.TotalCorrectAnswers != 1 {
			t.Errorf("scored (%d, %d), want (2, 1)",
				saved.TotalQuestionsAnswered, saved.TotalCorrectAnswers)
		}
		if saved.CompletionTime.IsZero() {
			t.Error("completion time should be stamped")
		}
		if resp.CurrentRating != 8.0 {
			t.Errorf("current rating = %v, want 8.0", resp.CurrentRating)
		}

		published := publisher.GetPublishedEvents()
		if len(published) != 1 {
			t.Fatalf("published %d events, want 1", len(published))
		}
		if published[0].Type != events.EventQuizResultRecorded {
			t.Errorf("event type = %q, want %q", published[0].Type, events.EventQuizResultRecorded)
		}
	})

	t.Run("extra answers beyond the question count are ignored", func(t *testing.T) {
		var saved *models.QuizResult
		repo := memberAccessRepo()
		repo.quizResult.CreateFn = func(result *models.QuizResult) error {
			saved = result
			return nil
		}
		svc, _ := newQuizServiceForTest(repo)

		_, err := svc.SubmitResult(context.Background(), 2,
			&SubmitQuizResultRequest{UserAnswers: []string{"A", "C", "X", "Y"}}, 5)
		if err != nil {
			t.Fatalf("SubmitResult() error = %v", err)
		}
		if saved.TotalQuestionsAnswered != 2 || saved.TotalCorrectAnswers != 2 {
			t.Errorf("scored (%d, %d), want (2, 2)",
				saved.TotalQuestionsAnswered, saved.TotalCorrectAnswers)
		}
	})

	t.Run("non-member may not submit", func(t *testing.T) {
		svc, _ := newQuizServiceForTest(memberAccessRepo())

		_, err := svc.SubmitResult(context.Background(), 2,
			&SubmitQuizResultRequest{UserAnswers: []string{"A"}}, 99)
		if !IsPermissionError(err) {
			t.Errorf("SubmitResult() error = %v, want a permission error", err)
		}
	})

	t.Run("missing quiz", func(t *testing.T) {
		svc, _ := newQuizServiceForTest(&mockRepository{})

		_, err := svc.SubmitResult(context.Background(), 404,
			&SubmitQuizResultRequest{UserAnswers: []string{"A"}}, 5)
		if !errors.Is(err, ErrQuizNotFound) {
			t.Errorf("SubmitResult() error = %v, want %v", err, ErrQuizNotFound)
		}
	})

	t.Run("blank answer is rejected", func(t *testing.T) {
		svc, _ := newQuizServiceForTest(memberAccessRepo())

		_, err := svc.SubmitResult(context.Background(), 2,
			&SubmitQuizResultRequest{UserAnswers: []string{"A", "  "}}, 5)
		if !IsValidationError(err) {
			t.Errorf("SubmitResult() error = %v, want a validation error", err)
		}
	})
}

func TestSubmitResultCachesForExport(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	cacheManager := cache.NewCacheManager(client)

	repo := memberAccessRepo()
	repo.quizResult.CreateFn = func(result *models.QuizResult) error {
		result.ID = 17
		return nil
	}
	svc := NewQuizService(repo, nil, testLogger(), validator.New(), cacheManager, nil)

	if _, err := svc.SubmitResult(context.Background(), 2,
		&SubmitQuizResultRequest{UserAnswers: []string{"A", "C"}}, 5); err != nil {
		t.Fatalf("SubmitResult() error = %v", err)
	}

	key := cache.ResultKey(3, 2, 5, 17)
	raw, err := cacheManager.Result.GetString(context.Background(), key)
	if err != nil {
		t.Fatalf("cached result missing under %q: %v", key, err)
	}

	var cached models.QuizResult
	if err := json.Unmarshal([]byte(raw), &cached); err != nil {
		t.Fatalf("failed to decode cached result: %v", err)
	}
	if cached.ID != 17 || cached.TotalCorrectAnswers != 2 {
		t.Errorf("cached result = {ID: %d, correct: %d}, want {17, 2}", cached.ID, cached.TotalCorrectAnswers)
	}

	// Export keys never expire so the export surface sees every submission
	if mr.TTL("quizresult:"+key) != 0 {
		t.Errorf("cached result should have no TTL, got %v", mr.TTL("quizresult:"+key))
	}
}

func TestQuizDelete(t *testing.T) {
	t.Run("owner deletes", func(t *testing.T) {
		var deletedID uint
		repo := memberAccessRepo()
		repo.quiz.GetByIDFn = func(id uint) (*models.Quiz, error) {
			return &models.Quiz{ID: id, CompanyID: 3}, nil
		}
		repo.quiz.DeleteFn = func(id uint) error {
			deletedID = id
			return nil
		}
		svc, _ := newQuizServiceForTest(repo)

		if err := svc.Delete(context.Background(), 2, 1); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if deletedID != 2 {
			t.Errorf("deleted quiz %d, want 2", deletedID)
		}
	})

	t.Run("member may not delete", func(t *testing.T) {
		repo := memberAccessRepo()
		repo.quiz.GetByIDFn = func(id uint) (*models.Quiz, error) {
			return &models.Quiz{ID: id, CompanyID: 3}, nil
		}
		svc, _ := newQuizServiceForTest(repo)

		err := svc.Delete(context.Background(), 2, 5)
		if !IsPermissionError(err) {
			t.Errorf("Delete() error = %v, want a permission error", err)
		}
	})
}

func TestQuizListByCompanyDefaults(t *testing.T) {
	var gotLimit int
	repo := memberAccessRepo()
	repo.quiz.GetByCompanyFn = func(companyID uint, filters repositories.QuizFilters) ([]*models.Quiz, int64, error) {
		gotLimit = filters.Limit
		return []*models.Quiz{{ID: 2, CompanyID: companyID, Title: "Fire Safety"}}, 1, nil
	}
	svc, _ := newQuizServiceForTest(repo)

	resp, err := svc.ListByCompany(context.Background(), 3, repositories.QuizFilters{}, 5)
	if err != nil {
		t.Fatalf("ListByCompany() error = %v", err)
	}
	if gotLimit != 20 {
		t.Errorf("default limit = %d, want 20", gotLimit)
	}
	if len(resp.Quizzes) != 1 || resp.Total != 1 {
		t.Errorf("response = {len: %d, Total: %d}, want one quiz", len(resp.Quizzes), resp.Total)
	}
}

func BenchmarkSubmitResult(b *testing.B) {
	repo := memberAccessRepo()
	svc, _ := newQuizServiceForTest(repo)

	req := &SubmitQuizResultRequest{UserAnswers: []string{"A", "C"}}
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := svc.SubmitResult(ctx, 2, req, 5); err != nil {
			b.Fatal(err)
		}
	}
}
