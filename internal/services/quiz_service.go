package services

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/quiz-platform/quiz-service/internal/cache"
	"github.com/quiz-platform/quiz-service/internal/events"
	"github.com/quiz-platform/quiz-service/internal/models"
	"github.com/quiz-platform/quiz-service/internal/repositories"
	"github.com/quiz-platform/quiz-service/internal/validator"
)

type quizService struct {
	repo           repositories.Repository
	db             *gorm.DB
	logger         *slog.Logger
	validator      *validator.Validator
	cacheManager   *cache.CacheManager
	eventPublisher events.EventPublisher
	clock          Clock
}

func NewQuizService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, cacheManager *cache.CacheManager, eventPublisher events.EventPublisher) QuizService {
	return &quizService{
		repo:           repo,
		db:             db,
		logger:         logger,
		validator:      validator,
		cacheManager:   cacheManager,
		eventPublisher: eventPublisher,
		clock:          SystemClock(),
	}
}

// ===== CORE CRUD OPERATIONS =====

func (s *quizService) Create(ctx context.Context, req *CreateQuizRequest, actorID uint) (*QuizResponse, error) {
	s.logger.Info("Creating quiz", "actor_id", actorID, "company_id", req.CompanyID, "title", req.Title)

	if errs := s.validator.GetBusinessValidator().ValidateQuizCreate(req); len(errs) > 0 {
		return nil, errs
	}

	canManage, err := s.administersCompany(ctx, req.CompanyID, actorID)
	if err != nil {
		return nil, err
	}
	if !canManage {
		return nil, NewPermissionError(actorID, req.CompanyID, "quiz", "create", "not company owner or admin")
	}

	var quiz *models.Quiz
	err = s.withTx(ctx, func(tx *gorm.DB) error {
		quiz = &models.Quiz{
			Title:             req.Title,
			NotificationsText: req.NotificationsText,
			FrequencyInDays:   req.FrequencyInDays,
			CompanyID:         req.CompanyID,
		}
		if req.Description != nil {
			quiz.Description = *req.Description
		}

		if err := s.repo.Quiz().Create(ctx, tx, quiz); err != nil {
			return fmt.Errorf("failed to create quiz: %w", err)
		}

		if len(req.Questions) > 0 {
			questions := buildQuestions(quiz.ID, req.Questions)
			if err := s.repo.Quiz().ReplaceQuestions(ctx, tx, quiz.ID, questions); err != nil {
				return fmt.Errorf("failed to create questions: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Quiz created successfully", "quiz_id", quiz.ID)
	return s.GetByID(ctx, quiz.ID, actorID)
}

func (s *quizService) GetByID(ctx context.Context, id uint, actorID uint) (*QuizResponse, error) {
	quiz, err := s.repo.Quiz().GetByIDWithDetails(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}

	canAccess, isAdmin, err := s.accessLevel(ctx, quiz.CompanyID, actorID)
	if err != nil {
		return nil, err
	}
	if !canAccess {
		return nil, NewPermissionError(actorID, id, "quiz", "read", "not associated with quiz company")
	}

	// Correct answers are only exposed to company administrators
	return toQuizResponse(quiz, isAdmin), nil
}

func (s *quizService) Update(ctx context.Context, id uint, req *UpdateQuizRequest, actorID uint) (*QuizResponse, error) {
	if errs := s.validator.GetBusinessValidator().ValidateQuizUpdate(req); len(errs) > 0 {
		return nil, errs
	}

	quiz, err := s.repo.Quiz().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}

	canManage, err := s.administersCompany(ctx, quiz.CompanyID, actorID)
	if err != nil {
		return nil, err
	}
	if !canManage {
		return nil, NewPermissionError(actorID, id, "quiz", "update", "not company owner or admin")
	}

	err = s.withTx(ctx, func(tx *gorm.DB) error {
		if req.Title != nil {
			quiz.Title = *req.Title
		}
		if req.Description != nil {
			quiz.Description = *req.Description
		}
		if req.NotificationsText != nil {
			quiz.NotificationsText = req.NotificationsText
		}
		if req.FrequencyInDays != nil {
			quiz.FrequencyInDays = *req.FrequencyInDays
		}

		if err := s.repo.Quiz().Update(ctx, tx, quiz); err != nil {
			return fmt.Errorf("failed to update quiz: %w", err)
		}

		// A question payload replaces the whole set
		if req.Questions != nil {
			questions := buildQuestions(quiz.ID, req.Questions)
			if err := s.repo.Quiz().ReplaceQuestions(ctx, tx, quiz.ID, questions); err != nil {
				return fmt.Errorf("failed to replace questions: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Quiz updated", "quiz_id", id, "actor_id", actorID)
	return s.GetByID(ctx, id, actorID)
}

func (s *quizService) Delete(ctx context.Context, id uint, actorID uint) error {
	quiz, err := s.repo.Quiz().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrQuizNotFound
		}
		return fmt.Errorf("failed to get quiz: %w", err)
	}

	canManage, err := s.administersCompany(ctx, quiz.CompanyID, actorID)
	if err != nil {
		return err
	}
	if !canManage {
		return NewPermissionError(actorID, id, "quiz", "delete", "not company owner or admin")
	}

	if err := s.repo.Quiz().Delete(ctx, nil, id); err != nil {
		return fmt.Errorf("failed to delete quiz: %w", err)
	}

	s.logger.Info("Quiz deleted", "quiz_id", id, "actor_id", actorID)
	return nil
}

func (s *quizService) ListByCompany(ctx context.Context, companyID uint, filters repositories.QuizFilters, actorID uint) (*QuizListResponse, error) {
	canAccess, _, err := s.accessLevel(ctx, companyID, actorID)
	if err != nil {
		return nil, err
	}
	if !canAccess {
		return nil, NewPermissionError(actorID, companyID, "quiz", "list", "not associated with company")
	}

	if filters.Limit <= 0 {
		filters.Limit = 20
	}

	quizzes, total, err := s.repo.Quiz().GetByCompany(ctx, nil, companyID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list quizzes: %w", err)
	}

	out := make([]*QuizResponse, 0, len(quizzes))
	for _, q := range quizzes {
		out = append(out, toQuizResponse(q, false))
	}

	return &QuizListResponse{
		Quizzes: out,
		Total:   total,
		Limit:   filters.Limit,
		Offset:  filters.Offset,
	}, nil
}

// ===== RESULT SUBMISSION =====

// SubmitResult scores the submitted answers against the quiz's questions in
// position order, persists the immutable result, caches it for export and
// returns the user's updated overall rating.
func (s *quizService) SubmitResult(ctx context.Context, quizID uint, req *SubmitQuizResultRequest, userID uint) (*QuizResultResponse, error) {
	s.logger.Info("Submitting quiz result", "quiz_id", quizID, "user_id", userID)

	quiz, err := s.repo.Quiz().GetByIDWithDetails(ctx, nil, quizID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}

	// Members and administrators of the company may take its quizzes
	canAccess, _, err := s.accessLevel(ctx, quiz.CompanyID, userID)
	if err != nil {
		return nil, err
	}
	if !canAccess {
		return nil, NewPermissionError(userID, quizID, "quiz", "submit", "not associated with quiz company")
	}

	if errs := s.validator.GetBusinessValidator().ValidateResultSubmission(req, len(quiz.Questions)); len(errs) > 0 {
		return nil, errs
	}

	answered, correct := ScoreAnswers(quiz.Questions, req.UserAnswers)

	result := &models.QuizResult{
		UserID:                 userID,
		QuizID:                 quizID,
		UserAnswers:            req.UserAnswers,
		TotalQuestionsAnswered: answered,
		TotalCorrectAnswers:    correct,
		CompletionTime:         s.clock.Now().UTC(),
	}

	if err := s.repo.QuizResult().Create(ctx, nil, result); err != nil {
		return nil, fmt.Errorf("failed to save quiz result: %w", err)
	}

	// Updated overall rating across all of the user's answers
	totals, err := s.repo.QuizResult().GetTotalsByUser(ctx, nil, userID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate user totals: %w", err)
	}
	rating := RatingFromTotals(totals.TotalCorrect, totals.TotalAnswered)

	s.cacheResult(ctx, quiz.CompanyID, result)
	s.publishResultEvent(ctx, quiz.CompanyID, result, rating)

	s.logger.Info("Quiz result recorded",
		"result_id", result.ID,
		"quiz_id", quizID,
		"user_id", userID,
		"answered", answered,
		"correct", correct)

	return toQuizResultResponse(result, rating), nil
}

// ScoreAnswers pairs the answer at index i with the question at position i.
// When the counts differ, only the overlapping prefix is scored.
func ScoreAnswers(questions []models.Question, answers []string) (answered, correct int) {
	n := len(answers)
	if len(questions) < n {
		n = len(questions)
	}

	for i := 0; i < n; i++ {
		if answerIsCorrect(questions[i].CorrectAnswers, answers[i]) {
			correct++
		}
	}
	return n, correct
}

// answerIsCorrect accepts an answer matching any of the question's correct
// answers.
func answerIsCorrect(correctAnswers []string, answer string) bool {
	for _, ca := range correctAnswers {
		if ca == answer {
			return true
		}
	}
	return false
}

func buildQuestions(quizID uint, reqs []QuestionRequest) []models.Question {
	questions := make([]models.Question, 0, len(reqs))
	for i, q := range reqs {
		questions = append(questions, models.Question{
			QuizID:         quizID,
			Text:           q.Text,
			Position:       i,
			AnswerOptions:  q.AnswerOptions,
			CorrectAnswers: q.CorrectAnswers,
		})
	}
	return questions
}

// cacheResult stores the result under its composite export key. Cache
// failures are logged, never surfaced.
func (s *quizService) cacheResult(ctx context.Context, companyID uint, result *models.QuizResult) {
	if s.cacheManager == nil {
		return
	}
	key := cache.ResultKey(companyID, result.QuizID, result.UserID, result.ID)
	if err := s.cacheManager.Result.SetWithConfig(ctx, key, result, cache.ResultCacheConfig); err != nil {
		s.logger.Warn("Failed to cache quiz result", "key", key, "error", err)
	}
}

func (s *quizService) publishResultEvent(ctx context.Context, companyID uint, result *models.QuizResult, rating float64) {
	if s.eventPublisher == nil {
		return
	}
	event := events.NewEvent(events.EventQuizResultRecorded, events.QuizResultRecordedEvent{
		ResultID:      result.ID,
		UserID:        result.UserID,
		QuizID:        result.QuizID,
		CompanyID:     companyID,
		CurrentRating: rating,
	})
	if err := s.eventPublisher.Publish(ctx, events.UserNotificationTopic(result.UserID), event); err != nil {
		s.logger.Warn("Failed to publish result event", "result_id", result.ID, "error", err)
	}
}

// ===== HELPERS =====

func (s *quizService) withTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return s.db.WithContext(ctx).Transaction(fn)
}

func (s *quizService) administersCompany(ctx context.Context, companyID, userID uint) (bool, error) {
	company, err := s.repo.Company().GetByID(ctx, nil, companyID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return false, ErrCompanyNotFound
		}
		return false, fmt.Errorf("failed to get company: %w", err)
	}
	if company.OwnerID == userID {
		return true, nil
	}
	return s.repo.Company().IsAdmin(ctx, nil, companyID, userID)
}

// accessLevel reports whether the user can see the company's quizzes and
// whether they administer the company.
func (s *quizService) accessLevel(ctx context.Context, companyID, userID uint) (canAccess, isAdmin bool, err error) {
	isAdmin, err = s.administersCompany(ctx, companyID, userID)
	if err != nil {
		return false, false, err
	}
	if isAdmin {
		return true, true, nil
	}

	isMember, err := s.repo.Company().IsMember(ctx, nil, companyID, userID)
	if err != nil {
		return false, false, fmt.Errorf("failed to check membership: %w", err)
	}
	return isMember, false, nil
}
