package validator

import (
	"fmt"
	"strings"

	"github.com/quiz-platform/quiz-service/internal/models"
)

// BusinessValidator handles business rule validation on top of struct tags
type BusinessValidator struct {
	validator *Validator
}

// NewBusinessValidator creates a new business validator
func NewBusinessValidator() *BusinessValidator {
	return &BusinessValidator{validator: New()}
}

// Validate validates struct tags for any struct
func (bv *BusinessValidator) Validate(s interface{}) ValidationErrors {
	if err := bv.validator.Validate(s); err != nil {
		if verrs, ok := err.(ValidationErrors); ok {
			return verrs
		}
		return ValidationErrors{{Field: "", Message: err.Error(), Rule: "unknown"}}
	}
	return nil
}

// ValidateQuizCreate validates quiz creation business rules
func (bv *BusinessValidator) ValidateQuizCreate(req *QuizCreateRequest) ValidationErrors {
	var errors ValidationErrors

	// Basic struct validation
	errors = append(errors, bv.Validate(req)...)

	// Question-level business validations
	errors = append(errors, bv.validateQuestions(req.Questions)...)

	return errors
}

// ValidateQuizUpdate validates quiz update business rules
func (bv *BusinessValidator) ValidateQuizUpdate(req *QuizUpdateRequest) ValidationErrors {
	var errors ValidationErrors

	errors = append(errors, bv.Validate(req)...)
	errors = append(errors, bv.validateQuestions(req.Questions)...)

	return errors
}

// validateQuestions checks each question's option and answer consistency
func (bv *BusinessValidator) validateQuestions(questions []QuestionRequest) ValidationErrors {
	var errors ValidationErrors

	for i, q := range questions {
		options := make(map[string]bool, len(q.AnswerOptions))
		for _, opt := range q.AnswerOptions {
			if options[opt] {
				errors = append(errors, ValidationError{
					Field:   fmt.Sprintf("questions[%d].answer_options", i),
					Message: fmt.Sprintf("duplicate answer option %q", opt),
					Value:   opt,
					Rule:    "business_logic",
				})
			}
			options[opt] = true
		}

		// Every correct answer must be one of the options
		for _, answer := range q.CorrectAnswers {
			if !options[answer] {
				errors = append(errors, ValidationError{
					Field:   fmt.Sprintf("questions[%d].correct_answers", i),
					Message: fmt.Sprintf("correct answer %q is not an answer option", answer),
					Value:   answer,
					Rule:    "business_logic",
				})
			}
		}
	}

	return errors
}

// ValidateInvitationTransition validates invitation status transitions.
// Only a pending invitation can be resolved, and only to a terminal state.
func (bv *BusinessValidator) ValidateInvitationTransition(currentStatus, newStatus models.InvitationStatus) ValidationErrors {
	var errors ValidationErrors

	allowedTransitions := map[models.InvitationStatus][]models.InvitationStatus{
		models.InvitationSent:     {models.InvitationAccepted, models.InvitationRejected},
		models.InvitationAccepted: {},
		models.InvitationRejected: {},
	}

	allowed := false
	for _, allowedStatus := range allowedTransitions[currentStatus] {
		if newStatus == allowedStatus {
			allowed = true
			break
		}
	}

	if !allowed {
		errors = append(errors, ValidationError{
			Field:   "status",
			Message: fmt.Sprintf("cannot transition from %s to %s", currentStatus, newStatus),
			Value:   newStatus,
			Rule:    "status_transition",
		})
	}

	return errors
}

// ValidateResultSubmission validates a quiz result submission against the
// quiz it answers.
func (bv *BusinessValidator) ValidateResultSubmission(req *QuizResultSubmitRequest, questionCount int) ValidationErrors {
	var errors ValidationErrors

	errors = append(errors, bv.Validate(req)...)

	if questionCount == 0 {
		errors = append(errors, ValidationError{
			Field:   "quiz",
			Message: "quiz has no questions to answer",
			Value:   questionCount,
			Rule:    "business_logic",
		})
	}

	for i, answer := range req.UserAnswers {
		if strings.TrimSpace(answer) == "" {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("user_answers[%d]", i),
				Message: "answer must not be blank",
				Value:   answer,
				Rule:    "business_logic",
			})
		}
	}

	return errors
}

// ValidateCompanyCreate validates company creation business rules
func (bv *BusinessValidator) ValidateCompanyCreate(req *CompanyCreateRequest) ValidationErrors {
	return bv.Validate(req)
}
