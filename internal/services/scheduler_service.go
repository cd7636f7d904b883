package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/quiz-platform/quiz-service/internal/models"
	"github.com/quiz-platform/quiz-service/internal/repositories"
)

// ErrSweepAlreadyRunning is returned when a sweep is requested while a
// previous one is still in flight.
var ErrSweepAlreadyRunning = errors.New("reminder sweep already running")

const userSweepPageSize = 200

type schedulerService struct {
	repo          repositories.Repository
	db            *gorm.DB
	logger        *slog.Logger
	notifications NotificationService
	clock         Clock

	interval time.Duration

	// sweepMu serializes sweeps; ticker ticks and manual runs that overlap
	// an in-flight sweep are skipped, not queued.
	sweepMu sync.Mutex

	startMu  sync.Mutex
	started  bool
	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

func NewSchedulerService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, notifications NotificationService, clock Clock, interval time.Duration) SchedulerService {
	if clock == nil {
		clock = SystemClock()
	}
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &schedulerService{
		repo:          repo,
		db:            db,
		logger:        logger,
		notifications: notifications,
		clock:         clock,
		interval:      interval,
		stopCh:        make(chan struct{}),
		doneCh:        make(chan struct{}),
	}
}

func (s *schedulerService) Start(ctx context.Context) error {
	s.startMu.Lock()
	defer s.startMu.Unlock()

	if s.started {
		return errors.New("scheduler already started")
	}
	s.started = true

	go s.run(ctx)
	s.logger.Info("Reminder scheduler started", "interval", s.interval.String())
	return nil
}

func (s *schedulerService) Stop() {
	s.startMu.Lock()
	started := s.started
	s.startMu.Unlock()

	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
	if started {
		<-s.doneCh
	}
	s.logger.Info("Reminder scheduler stopped")
}

func (s *schedulerService) run(ctx context.Context) {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := s.RunDailySweep(ctx, s.clock.Now()); err != nil && !errors.Is(err, ErrSweepAlreadyRunning) {
				s.logger.Error("Reminder sweep failed", "error", err)
			}
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// RunDailySweep walks every user's quiz results and sends a retake reminder
// for each result whose next due date has passed. Each user is evaluated
// independently: one user's failure never aborts the sweep for the rest.
func (s *schedulerService) RunDailySweep(ctx context.Context, now time.Time) (*SweepReport, error) {
	if !s.sweepMu.TryLock() {
		return nil, ErrSweepAlreadyRunning
	}
	defer s.sweepMu.Unlock()

	report := &SweepReport{StartedAt: now.UTC()}
	s.logger.Info("Reminder sweep started", "at", report.StartedAt)

	offset := 0
	for {
		users, _, err := s.repo.User().List(ctx, nil, repositories.UserFilters{
			Limit:  userSweepPageSize,
			Offset: offset,
		})
		if err != nil {
			return report, fmt.Errorf("failed to list users: %w", err)
		}
		if len(users) == 0 {
			break
		}

		for _, user := range users {
			report.UsersScanned++
			if err := s.sweepUser(ctx, user, now, report); err != nil {
				report.Failures++
				s.logger.Warn("Reminder sweep failed for user",
					"user_id", user.ID,
					"error", err)
			}
		}

		if len(users) < userSweepPageSize {
			break
		}
		offset += userSweepPageSize
	}

	s.logger.Info("Reminder sweep finished",
		"users_scanned", report.UsersScanned,
		"results_evaluated", report.ResultsEvaluated,
		"reminders_sent", report.RemindersSent,
		"skipped", report.Skipped,
		"failures", report.Failures)
	return report, nil
}

func (s *schedulerService) sweepUser(ctx context.Context, user *models.User, now time.Time, report *SweepReport) error {
	results, err := s.repo.QuizResult().GetByUser(ctx, nil, user.ID, repositories.QuizResultFilters{})
	if err != nil {
		return fmt.Errorf("failed to load quiz results: %w", err)
	}

	for _, result := range results {
		report.ResultsEvaluated++

		if result.Quiz.ID == 0 || result.Quiz.FrequencyInDays <= 0 {
			report.Skipped++
			continue
		}

		nextDue := result.CompletionTime.AddDate(0, 0, result.Quiz.FrequencyInDays)
		if !now.After(nextDue) {
			report.Skipped++
			continue
		}

		text := ReminderText(&result.Quiz)

		pending, err := s.repo.Notification().HasPendingWithText(ctx, nil, user.ID, text)
		if err != nil {
			report.Failures++
			s.logger.Warn("Reminder dedup check failed",
				"user_id", user.ID,
				"quiz_id", result.Quiz.ID,
				"error", err)
			continue
		}
		if pending {
			report.Skipped++
			continue
		}

		if _, err := s.notifications.Create(ctx, &CreateNotificationRequest{
			UserID: user.ID,
			Text:   text,
		}); err != nil {
			report.Failures++
			s.logger.Warn("Failed to create reminder",
				"user_id", user.ID,
				"quiz_id", result.Quiz.ID,
				"error", err)
			continue
		}

		report.RemindersSent++
	}

	return nil
}

// ReminderText renders the retake reminder for a quiz. A quiz may carry its
// own notification text; otherwise the default format keyed on the quiz
// title is used. Dedup matches on this exact string, so the format must stay
// stable for a given quiz.
func ReminderText(quiz *models.Quiz) string {
	if quiz.NotificationsText != nil && *quiz.NotificationsText != "" {
		return *quiz.NotificationsText
	}
	return fmt.Sprintf("It is time to retake the quiz %q", quiz.Title)
}
