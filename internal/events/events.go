package events

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event types published by this service
const (
	EventNotificationCreated = "notification.created"
	EventQuizResultRecorded  = "quiz.result_recorded"
	EventInvitationResolved  = "invitation.resolved"
)

// Event is the envelope for all messages published by the service
type Event struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Source    string      `json:"source"`
	Version   string      `json:"version"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// NewEvent creates an event envelope with generated ID and timestamp
func NewEvent(eventType string, data interface{}) Event {
	return Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Source:    "quiz-service",
		Version:   "1.0",
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// NotificationCreatedEvent is the payload for notification.created
type NotificationCreatedEvent struct {
	NotificationID uint      `json:"notification_id"`
	UserID         uint      `json:"user_id"`
	Text           string    `json:"text"`
	Status         string    `json:"status"`
	Time           time.Time `json:"time"`
}

// QuizResultRecordedEvent is the payload for quiz.result_recorded
type QuizResultRecordedEvent struct {
	ResultID      uint    `json:"result_id"`
	UserID        uint    `json:"user_id"`
	QuizID        uint    `json:"quiz_id"`
	CompanyID     uint    `json:"company_id"`
	CurrentRating float64 `json:"current_rating"`
}

// InvitationResolvedEvent is the payload for invitation.resolved
type InvitationResolvedEvent struct {
	InvitationID uint   `json:"invitation_id"`
	CompanyID    uint   `json:"company_id"`
	UserID       uint   `json:"user_id"`
	Status       string `json:"status"`
}

// UserNotificationTopic returns the per-user delivery topic. Each user gets
// their own topic so consumers can subscribe selectively.
func UserNotificationTopic(userID uint) string {
	return fmt.Sprintf("notifications.user.%d", userID)
}

// EventPublisher publishes events to a topic
type EventPublisher interface {
	Publish(ctx context.Context, topic string, event Event) error
	Close() error
}
