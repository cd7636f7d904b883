package services

import (
	"errors"
	"fmt"

	"github.com/quiz-platform/quiz-service/internal/repositories"
	"github.com/quiz-platform/quiz-service/internal/validator"
)

// Sentinel errors for missing resources
var (
	ErrUserNotFound         = errors.New("user not found")
	ErrCompanyNotFound      = errors.New("company not found")
	ErrInvitationNotFound   = errors.New("invitation not found")
	ErrQuizNotFound         = errors.New("quiz not found")
	ErrResultNotFound       = errors.New("quiz result not found")
	ErrNotificationNotFound = errors.New("notification not found")
)

// Sentinel errors for state conflicts
var (
	ErrInvitationNotPending = errors.New("invitation is not pending")
	ErrAlreadyMember        = errors.New("user is already a member of this company")
	ErrAlreadyInvited       = errors.New("user has already been invited to this company")
	ErrAlreadyRequested     = errors.New("user has already requested to join this company")
	ErrOwnerCannotJoin      = errors.New("company owner cannot join as a member")
	ErrSelfInvitation       = errors.New("cannot send an invitation to yourself")
)

// PermissionError indicates the acting user may not perform the operation
type PermissionError struct {
	UserID     uint
	ResourceID uint
	Resource   string
	Action     string
	Reason     string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("user %d cannot %s %s %d: %s", e.UserID, e.Action, e.Resource, e.ResourceID, e.Reason)
}

// NewPermissionError creates a permission error
func NewPermissionError(userID, resourceID uint, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:     userID,
		ResourceID: resourceID,
		Resource:   resource,
		Action:     action,
		Reason:     reason,
	}
}

// NewValidationError creates a single validation error
func NewValidationError(field, message string, value interface{}) *validator.ValidationError {
	return &validator.ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
		Rule:    "business_logic",
	}
}

// IsNotFoundError reports whether the error indicates a missing resource
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrCompanyNotFound) ||
		errors.Is(err, ErrInvitationNotFound) ||
		errors.Is(err, ErrQuizNotFound) ||
		errors.Is(err, ErrResultNotFound) ||
		errors.Is(err, ErrNotificationNotFound) ||
		repositories.IsNotFoundError(err)
}

// IsPermissionError reports whether the error is a permission failure
func IsPermissionError(err error) bool {
	var pe *PermissionError
	return errors.As(err, &pe)
}

// IsConflictError reports whether the error is a state conflict
func IsConflictError(err error) bool {
	return errors.Is(err, ErrInvitationNotPending) ||
		errors.Is(err, ErrAlreadyMember) ||
		errors.Is(err, ErrAlreadyInvited) ||
		errors.Is(err, ErrAlreadyRequested) ||
		errors.Is(err, ErrOwnerCannotJoin) ||
		errors.Is(err, ErrSelfInvitation)
}

// IsValidationError reports whether the error carries validation failures
func IsValidationError(err error) bool {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return true
	}
	var verr *validator.ValidationError
	return errors.As(err, &verr)
}
