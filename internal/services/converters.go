package services

import (
	"github.com/quiz-platform/quiz-service/internal/models"
)

func toUserResponse(user *models.User) *UserResponse {
	if user == nil {
		return nil
	}
	return &UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Role:      user.Role,
		AvatarURL: user.AvatarURL,
		CreatedAt: user.CreatedAt,
	}
}

func toUserResponses(users []*models.User) []*UserResponse {
	out := make([]*UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	return out
}

func toCompanyResponse(company *models.Company) *CompanyResponse {
	if company == nil {
		return nil
	}
	resp := &CompanyResponse{
		ID:          company.ID,
		Name:        company.Name,
		Description: company.Description,
		IsVisible:   company.IsVisible,
		OwnerID:     company.OwnerID,
		CreatedAt:   company.CreatedAt,
	}
	if company.Owner.ID != 0 {
		resp.Owner = toUserResponse(&company.Owner)
	}
	return resp
}

func toCompanyResponses(companies []*models.Company) []*CompanyResponse {
	out := make([]*CompanyResponse, 0, len(companies))
	for _, c := range companies {
		out = append(out, toCompanyResponse(c))
	}
	return out
}

func toInvitationResponse(invitation *models.Invitation) *InvitationResponse {
	if invitation == nil {
		return nil
	}
	resp := &InvitationResponse{
		ID:         invitation.ID,
		SenderID:   invitation.SenderID,
		ReceiverID: invitation.ReceiverID,
		CompanyID:  invitation.CompanyID,
		IsRequest:  invitation.IsRequest,
		Status:     invitation.Status,
		CreatedAt:  invitation.CreatedAt,
	}
	if invitation.Company.ID != 0 {
		resp.Company = toCompanyResponse(&invitation.Company)
	}
	if invitation.Sender.ID != 0 {
		resp.Sender = toUserResponse(&invitation.Sender)
	}
	if invitation.Receiver.ID != 0 {
		resp.Receiver = toUserResponse(&invitation.Receiver)
	}
	return resp
}

// toQuizResponse maps a quiz; correct answers are stripped unless the
// caller administers the owning company.
func toQuizResponse(quiz *models.Quiz, includeAnswers bool) *QuizResponse {
	if quiz == nil {
		return nil
	}
	resp := &QuizResponse{
		ID:                quiz.ID,
		CompanyID:         quiz.CompanyID,
		Title:             quiz.Title,
		Description:       quiz.Description,
		NotificationsText: quiz.NotificationsText,
		FrequencyInDays:   quiz.FrequencyInDays,
		CreatedAt:         quiz.CreatedAt,
	}
	for i := range quiz.Questions {
		q := &quiz.Questions[i]
		qr := &QuestionResponse{
			ID:            q.ID,
			Text:          q.Text,
			Position:      q.Position,
			AnswerOptions: q.AnswerOptions,
		}
		if includeAnswers {
			qr.CorrectAnswers = q.CorrectAnswers
		}
		resp.Questions = append(resp.Questions, qr)
	}
	return resp
}

func toQuizResultResponse(result *models.QuizResult, rating float64) *QuizResultResponse {
	if result == nil {
		return nil
	}
	return &QuizResultResponse{
		ID:                     result.ID,
		UserID:                 result.UserID,
		QuizID:                 result.QuizID,
		TotalQuestionsAnswered: result.TotalQuestionsAnswered,
		TotalCorrectAnswers:    result.TotalCorrectAnswers,
		CompletionTime:         result.CompletionTime,
		CurrentRating:          rating,
	}
}

func toNotificationResponse(notification *models.Notification) *NotificationResponse {
	if notification == nil {
		return nil
	}
	return &NotificationResponse{
		ID:     notification.ID,
		UserID: notification.UserID,
		Text:   notification.Text,
		Status: notification.Status,
		Time:   notification.Time,
	}
}
