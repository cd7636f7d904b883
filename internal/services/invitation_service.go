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

type invitationService struct {
	repo           repositories.Repository
	db             *gorm.DB
	logger         *slog.Logger
	validator      *validator.Validator
	notifications  NotificationService
	eventPublisher events.EventPublisher
}

func NewInvitationService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, notifications NotificationService, eventPublisher events.EventPublisher) InvitationService {
	return &invitationService{
		repo:           repo,
		db:             db,
		logger:         logger,
		validator:      validator,
		notifications:  notifications,
		eventPublisher: eventPublisher,
	}
}

// ===== CREATION =====

// Send creates an owner-to-user invitation. The receiver is the prospective
// member.
func (s *invitationService) Send(ctx context.Context, req *SendInvitationRequest, senderID uint) (*InvitationResponse, error) {
	s.logger.Info("Sending invitation", "sender_id", senderID, "receiver_id", req.ReceiverID, "company_id", req.CompanyID)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	if senderID == req.ReceiverID {
		return nil, ErrSelfInvitation
	}

	company, err := s.getCompany(ctx, req.CompanyID)
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.User().GetByID(ctx, nil, req.ReceiverID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get receiver: %w", err)
	}

	// Only the owner may invite on behalf of the company
	if company.OwnerID != senderID {
		return nil, NewPermissionError(senderID, req.CompanyID, "invitation", "send", "not company owner")
	}

	if err := s.checkJoinable(ctx, company, req.ReceiverID); err != nil {
		return nil, err
	}

	var invitation *models.Invitation
	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		invitation = &models.Invitation{
			SenderID:   senderID,
			ReceiverID: req.ReceiverID,
			CompanyID:  req.CompanyID,
			IsRequest:  false,
			Status:     models.InvitationSent,
		}
		if err := txRepo.Invitation().Create(ctx, nil, invitation); err != nil {
			return fmt.Errorf("failed to create invitation: %w", err)
		}

		// Track the pending invitation on the receiver's invited set
		if err := txRepo.User().AddInvitedCompany(ctx, nil, req.ReceiverID, req.CompanyID); err != nil {
			return fmt.Errorf("failed to record invited company: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifyQuietly(ctx, req.ReceiverID, fmt.Sprintf("You have been invited to join company %q", company.Name))

	s.logger.Info("Invitation sent", "invitation_id", invitation.ID)
	return s.getResponse(ctx, invitation.ID)
}

// Request creates a user-to-company join request. The sender is the
// prospective member; the receiver is the company owner.
func (s *invitationService) Request(ctx context.Context, req *RequestToJoinRequest, senderID uint) (*InvitationResponse, error) {
	s.logger.Info("Requesting to join", "sender_id", senderID, "company_id", req.CompanyID)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	company, err := s.getCompany(ctx, req.CompanyID)
	if err != nil {
		return nil, err
	}

	if company.OwnerID == senderID {
		return nil, ErrOwnerCannotJoin
	}

	if err := s.checkJoinable(ctx, company, senderID); err != nil {
		return nil, err
	}

	var invitation *models.Invitation
	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		invitation = &models.Invitation{
			SenderID:   senderID,
			ReceiverID: company.OwnerID,
			CompanyID:  req.CompanyID,
			IsRequest:  true,
			Status:     models.InvitationSent,
		}
		if err := txRepo.Invitation().Create(ctx, nil, invitation); err != nil {
			return fmt.Errorf("failed to create join request: %w", err)
		}

		// Track the pending request on the sender's requested set
		if err := txRepo.User().AddRequestedCompany(ctx, nil, senderID, req.CompanyID); err != nil {
			return fmt.Errorf("failed to record requested company: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifyQuietly(ctx, company.OwnerID, fmt.Sprintf("A user has requested to join your company %q", company.Name))

	s.logger.Info("Join request created", "invitation_id", invitation.ID)
	return s.getResponse(ctx, invitation.ID)
}

// ===== RESOLUTION =====

// Accept resolves a pending invitation. The joining user becomes a company
// member; membership is persisted before the invitation status flips so a
// failed save never leaves an accepted invitation without a membership.
func (s *invitationService) Accept(ctx context.Context, invitationID, actorID uint) (*InvitationResponse, error) {
	invitation, err := s.getInvitation(ctx, invitationID)
	if err != nil {
		return nil, err
	}

	if invitation.ReceiverID != actorID {
		return nil, NewPermissionError(actorID, invitationID, "invitation", "accept", "not the invitation receiver")
	}

	if errs := s.validator.GetBusinessValidator().ValidateInvitationTransition(invitation.Status, models.InvitationAccepted); len(errs) > 0 {
		return nil, ErrInvitationNotPending
	}

	joiningUserID := invitation.JoiningUserID()

	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		// The joining user may have been deleted since the invitation was sent
		if _, err := txRepo.User().GetByID(ctx, nil, joiningUserID); err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrUserNotFound
			}
			return fmt.Errorf("failed to get joining user: %w", err)
		}

		// Membership first
		if err := txRepo.Company().AddMember(ctx, nil, invitation.CompanyID, joiningUserID); err != nil {
			return fmt.Errorf("failed to add member: %w", err)
		}

		if err := s.clearPendingSet(ctx, txRepo, invitation); err != nil {
			return err
		}

		invitation.Status = models.InvitationAccepted
		if err := txRepo.Invitation().Update(ctx, nil, invitation); err != nil {
			return fmt.Errorf("failed to update invitation: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Tell the other party
	counterparty := invitation.SenderID
	if counterparty == actorID {
		counterparty = invitation.ReceiverID
	}
	s.notifyQuietly(ctx, counterparty, "Your invitation has been accepted")
	s.publishResolved(ctx, invitation, counterparty)

	s.logger.Info("Invitation accepted", "invitation_id", invitationID, "joining_user_id", joiningUserID)
	return s.getResponse(ctx, invitationID)
}

// Reject resolves a pending invitation without membership changes.
func (s *invitationService) Reject(ctx context.Context, invitationID, actorID uint) (*InvitationResponse, error) {
	invitation, err := s.getInvitation(ctx, invitationID)
	if err != nil {
		return nil, err
	}

	if invitation.ReceiverID != actorID {
		return nil, NewPermissionError(actorID, invitationID, "invitation", "reject", "not the invitation receiver")
	}

	if errs := s.validator.GetBusinessValidator().ValidateInvitationTransition(invitation.Status, models.InvitationRejected); len(errs) > 0 {
		return nil, ErrInvitationNotPending
	}

	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		if err := s.clearPendingSet(ctx, txRepo, invitation); err != nil {
			return err
		}

		invitation.Status = models.InvitationRejected
		if err := txRepo.Invitation().Update(ctx, nil, invitation); err != nil {
			return fmt.Errorf("failed to update invitation: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	counterparty := invitation.SenderID
	if counterparty == actorID {
		counterparty = invitation.ReceiverID
	}
	s.notifyQuietly(ctx, counterparty, "Your invitation has been declined")
	s.publishResolved(ctx, invitation, counterparty)

	s.logger.Info("Invitation rejected", "invitation_id", invitationID)
	return s.getResponse(ctx, invitationID)
}

// Revoke withdraws a pending invitation. Either party may revoke.
func (s *invitationService) Revoke(ctx context.Context, invitationID, actorID uint) error {
	invitation, err := s.getInvitation(ctx, invitationID)
	if err != nil {
		return err
	}

	if invitation.SenderID != actorID && invitation.ReceiverID != actorID {
		return NewPermissionError(actorID, invitationID, "invitation", "revoke", "not a party to the invitation")
	}

	if !invitation.IsPending() {
		return ErrInvitationNotPending
	}

	return s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		if err := s.clearPendingSet(ctx, txRepo, invitation); err != nil {
			return err
		}
		if err := txRepo.Invitation().Delete(ctx, nil, invitationID); err != nil {
			return fmt.Errorf("failed to delete invitation: %w", err)
		}
		s.logger.Info("Invitation revoked", "invitation_id", invitationID, "actor_id", actorID)
		return nil
	})
}

// ===== QUERIES =====

func (s *invitationService) GetByID(ctx context.Context, invitationID, actorID uint) (*InvitationResponse, error) {
	invitation, err := s.repo.Invitation().GetByIDWithDetails(ctx, nil, invitationID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrInvitationNotFound
		}
		return nil, fmt.Errorf("failed to get invitation: %w", err)
	}

	if invitation.SenderID != actorID && invitation.ReceiverID != actorID {
		return nil, NewPermissionError(actorID, invitationID, "invitation", "read", "not a party to the invitation")
	}

	return toInvitationResponse(invitation), nil
}

func (s *invitationService) ListInvitedCompanies(ctx context.Context, userID uint, filters repositories.CompanyFilters) (*CompanyListResponse, error) {
	if filters.Limit <= 0 {
		filters.Limit = 20
	}

	exists, err := s.repo.User().ExistsByID(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check user: %w", err)
	}
	if !exists {
		return nil, ErrUserNotFound
	}

	companies, total, err := s.repo.User().GetInvitedCompanies(ctx, nil, userID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to get invited companies: %w", err)
	}

	return &CompanyListResponse{
		Companies: toCompanyResponses(companies),
		Total:     total,
		Limit:     filters.Limit,
		Offset:    filters.Offset,
	}, nil
}

func (s *invitationService) ListRequestedCompanies(ctx context.Context, userID uint, filters repositories.CompanyFilters) (*CompanyListResponse, error) {
	if filters.Limit <= 0 {
		filters.Limit = 20
	}

	exists, err := s.repo.User().ExistsByID(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check user: %w", err)
	}
	if !exists {
		return nil, ErrUserNotFound
	}

	companies, total, err := s.repo.User().GetRequestedCompanies(ctx, nil, userID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to get requested companies: %w", err)
	}

	return &CompanyListResponse{
		Companies: toCompanyResponses(companies),
		Total:     total,
		Limit:     filters.Limit,
		Offset:    filters.Offset,
	}, nil
}

func (s *invitationService) ListForCompany(ctx context.Context, companyID uint, filters repositories.InvitationFilters, actorID uint) (*InvitationListResponse, error) {
	company, err := s.getCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}

	canList, err := s.administers(ctx, company, actorID)
	if err != nil {
		return nil, err
	}
	if !canList {
		return nil, NewPermissionError(actorID, companyID, "invitation", "list", "not company owner or admin")
	}

	if filters.Limit <= 0 {
		filters.Limit = 20
	}

	invitations, total, err := s.repo.Invitation().GetByCompany(ctx, nil, companyID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}

	out := make([]*InvitationResponse, 0, len(invitations))
	for _, inv := range invitations {
		out = append(out, toInvitationResponse(inv))
	}

	return &InvitationListResponse{
		Invitations: out,
		Total:       total,
		Limit:       filters.Limit,
		Offset:      filters.Offset,
	}, nil
}

// ===== HELPERS =====

func (s *invitationService) getCompany(ctx context.Context, companyID uint) (*models.Company, error) {
	company, err := s.repo.Company().GetByID(ctx, nil, companyID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCompanyNotFound
		}
		return nil, fmt.Errorf("failed to get company: %w", err)
	}
	return company, nil
}

func (s *invitationService) getInvitation(ctx context.Context, invitationID uint) (*models.Invitation, error) {
	invitation, err := s.repo.Invitation().GetByID(ctx, nil, invitationID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrInvitationNotFound
		}
		return nil, fmt.Errorf("failed to get invitation: %w", err)
	}
	return invitation, nil
}

func (s *invitationService) administers(ctx context.Context, company *models.Company, userID uint) (bool, error) {
	if company.OwnerID == userID {
		return true, nil
	}
	isAdmin, err := s.repo.Company().IsAdmin(ctx, nil, company.ID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to check admin: %w", err)
	}
	return isAdmin, nil
}

// checkJoinable enforces the duplicate guards: an existing membership, a
// pending invitation or a pending join request each block a new invitation.
func (s *invitationService) checkJoinable(ctx context.Context, company *models.Company, userID uint) error {
	if company.OwnerID == userID {
		return ErrOwnerCannotJoin
	}

	isMember, err := s.repo.Company().IsMember(ctx, nil, company.ID, userID)
	if err != nil {
		return fmt.Errorf("failed to check membership: %w", err)
	}
	if isMember {
		return ErrAlreadyMember
	}

	invited, err := s.repo.User().HasInvitedCompany(ctx, nil, userID, company.ID)
	if err != nil {
		return fmt.Errorf("failed to check invited set: %w", err)
	}
	if invited {
		return ErrAlreadyInvited
	}

	requested, err := s.repo.User().HasRequestedCompany(ctx, nil, userID, company.ID)
	if err != nil {
		return fmt.Errorf("failed to check requested set: %w", err)
	}
	if requested {
		return ErrAlreadyRequested
	}

	return nil
}

// clearPendingSet removes the invited/requested marker for a resolved
// invitation.
func (s *invitationService) clearPendingSet(ctx context.Context, txRepo repositories.Repository, invitation *models.Invitation) error {
	joiningUserID := invitation.JoiningUserID()
	if invitation.IsRequest {
		if err := txRepo.User().RemoveRequestedCompany(ctx, nil, joiningUserID, invitation.CompanyID); err != nil {
			return fmt.Errorf("failed to clear requested company: %w", err)
		}
		return nil
	}
	if err := txRepo.User().RemoveInvitedCompany(ctx, nil, joiningUserID, invitation.CompanyID); err != nil {
		return fmt.Errorf("failed to clear invited company: %w", err)
	}
	return nil
}

// notifyQuietly creates a notification without failing the main flow.
func (s *invitationService) notifyQuietly(ctx context.Context, userID uint, text string) {
	if s.notifications == nil {
		return
	}
	now := time.Now()
	_, err := s.notifications.Create(ctx, &CreateNotificationRequest{
		UserID: userID,
		Text:   text,
		Time:   &now,
	})
	if err != nil {
		s.logger.Warn("Failed to create invitation notification", "user_id", userID, "error", err)
	}
}

// publishResolved emits an invitation resolution event to the counterparty's
// topic. Publish failures are logged, never surfaced.
func (s *invitationService) publishResolved(ctx context.Context, invitation *models.Invitation, counterparty uint) {
	if s.eventPublisher == nil {
		return
	}
	event := events.NewEvent(events.EventInvitationResolved, events.InvitationResolvedEvent{
		InvitationID: invitation.ID,
		CompanyID:    invitation.CompanyID,
		UserID:       invitation.JoiningUserID(),
		Status:       string(invitation.Status),
	})
	if err := s.eventPublisher.Publish(ctx, events.UserNotificationTopic(counterparty), event); err != nil {
		s.logger.Warn("Failed to publish invitation event", "invitation_id", invitation.ID, "error", err)
	}
}

func (s *invitationService) getResponse(ctx context.Context, invitationID uint) (*InvitationResponse, error) {
	invitation, err := s.repo.Invitation().GetByIDWithDetails(ctx, nil, invitationID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload invitation: %w", err)
	}
	return toInvitationResponse(invitation), nil
}
