package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/quiz-platform/quiz-service/internal/events"
	"github.com/quiz-platform/quiz-service/internal/models"
	"github.com/quiz-platform/quiz-service/internal/repositories"
	"github.com/quiz-platform/quiz-service/internal/validator"
)

type notificationService struct {
	repo           repositories.Repository
	db             *gorm.DB
	logger         *slog.Logger
	validator      *validator.Validator
	eventPublisher events.EventPublisher
}

func NewNotificationService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, eventPublisher events.EventPublisher) NotificationService {
	return &notificationService{
		repo:           repo,
		db:             db,
		logger:         logger,
		validator:      validator,
		eventPublisher: eventPublisher,
	}
}

func (s *notificationService) Create(ctx context.Context, req *CreateNotificationRequest) (*NotificationResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	notification := &models.Notification{
		UserID: req.UserID,
		Text:   req.Text,
		Status: models.NotificationPending,
		Time:   time.Now().UTC(),
	}
	if req.Time != nil {
		notification.Time = req.Time.UTC()
	}

	if err := s.repo.Notification().Create(ctx, nil, notification); err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	s.publish(ctx, notification)

	return toNotificationResponse(notification), nil
}

// CreateBulk creates one pending notification per user and publishes each to
// that user's topic. A failure for one user does not block the others.
func (s *notificationService) CreateBulk(ctx context.Context, userIDs []uint, text string, at time.Time) error {
	if len(userIDs) == 0 {
		return nil
	}

	notifications := make([]*models.Notification, 0, len(userIDs))
	for _, userID := range userIDs {
		notifications = append(notifications, &models.Notification{
			UserID: userID,
			Text:   text,
			Status: models.NotificationPending,
			Time:   at.UTC(),
		})
	}

	if err := s.repo.Notification().CreateBatch(ctx, nil, notifications); err != nil {
		return fmt.Errorf("failed to create notifications: %w", err)
	}

	for _, n := range notifications {
		s.publish(ctx, n)
	}

	s.logger.Info("Bulk notifications created", "count", len(notifications))
	return nil
}

func (s *notificationService) CreateForCompany(ctx context.Context, companyID uint, req *BroadcastNotificationRequest, actorID uint) (int, error) {
	if err := s.validator.Validate(req); err != nil {
		return 0, err
	}

	company, err := s.repo.Company().GetByID(ctx, nil, companyID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return 0, ErrCompanyNotFound
		}
		return 0, fmt.Errorf("failed to get company: %w", err)
	}

	if company.OwnerID != actorID {
		isAdmin, err := s.repo.Company().IsAdmin(ctx, nil, companyID, actorID)
		if err != nil {
			return 0, fmt.Errorf("failed to check admin: %w", err)
		}
		if !isAdmin {
			return 0, NewPermissionError(actorID, companyID, "notification", "broadcast", "not company owner or admin")
		}
	}

	memberIDs, err := s.repo.Company().GetMemberIDs(ctx, nil, companyID)
	if err != nil {
		return 0, fmt.Errorf("failed to get member ids: %w", err)
	}
	if len(memberIDs) == 0 {
		return 0, NewValidationError("company_id", "company has no members", companyID)
	}

	at := time.Now().UTC()
	if req.Time != nil {
		at = req.Time.UTC()
	}

	if err := s.CreateBulk(ctx, memberIDs, req.Text, at); err != nil {
		return 0, err
	}

	return len(memberIDs), nil
}

func (s *notificationService) ListForUser(ctx context.Context, userID uint, filters repositories.NotificationFilters) (*NotificationListResponse, error) {
	if filters.Limit <= 0 {
		filters.Limit = 20
	}
	if filters.Limit > 100 {
		filters.Limit = 100
	}

	notifications, total, err := s.repo.Notification().GetByUser(ctx, nil, userID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	out := make([]*NotificationResponse, 0, len(notifications))
	for _, n := range notifications {
		out = append(out, toNotificationResponse(n))
	}

	return &NotificationListResponse{
		Notifications: out,
		Total:         total,
		Limit:         filters.Limit,
		Offset:        filters.Offset,
	}, nil
}

func (s *notificationService) MarkRead(ctx context.Context, notificationID, userID uint) (*NotificationResponse, error) {
	notification, err := s.repo.Notification().GetByID(ctx, nil, notificationID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrNotificationNotFound
		}
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}

	if notification.UserID != userID {
		return nil, NewPermissionError(userID, notificationID, "notification", "mark_read", "not notification owner")
	}

	if notification.Status != models.NotificationRead {
		notification.Status = models.NotificationRead
		if err := s.repo.Notification().Update(ctx, nil, notification); err != nil {
			return nil, fmt.Errorf("failed to mark notification read: %w", err)
		}
	}

	return toNotificationResponse(notification), nil
}

// publish delivers the notification event to the user's topic. Publish
// failures are logged, never surfaced: the notification row is the source
// of truth.
func (s *notificationService) publish(ctx context.Context, notification *models.Notification) {
	if s.eventPublisher == nil {
		return
	}

	event := events.NewEvent(events.EventNotificationCreated, events.NotificationCreatedEvent{
		NotificationID: notification.ID,
		UserID:         notification.UserID,
		Text:           notification.Text,
		Status:         string(notification.Status),
		Time:           notification.Time,
	})

	topic := events.UserNotificationTopic(notification.UserID)
	if err := s.eventPublisher.Publish(ctx, topic, event); err != nil {
		s.logger.Warn("Failed to publish notification event",
			"notification_id", notification.ID,
			"user_id", notification.UserID,
			"error", err)
	}
}
