package services

import (
	"context"
	"errors"
	"testing"

	"github.com/quiz-platform/quiz-service/internal/events"
	"github.com/quiz-platform/quiz-service/internal/models"
	"github.com/quiz-platform/quiz-service/internal/repositories"
	"github.com/quiz-platform/quiz-service/internal/validator"
)

func newInvitationServiceForTest(repo *mockRepository) (InvitationService, *events.MockEventPublisher) {
	notifications, _ := newNotificationServiceForTest(repo)
	publisher := events.NewMockEventPublisher(testLogger())
	return NewInvitationService(repo, nil, testLogger(), validator.New(), notifications, publisher), publisher
}

func TestInvitationSend(t *testing.T) {
	t.Run("owner invites a user", func(t *testing.T) {
		var createdInvitation *models.Invitation
		var invitedUserID, invitedCompanyID uint
		var notificationUserID uint

		repo := &mockRepository{
			company: mockCompanyRepository{
				GetByIDFn: func(id uint) (*models.Company, error) {
					return &models.Company{ID: id, Name: "Acme", OwnerID: 1}, nil
				},
			},
			user: mockUserRepository{
				GetByIDFn: func(id uint) (*models.User, error) {
					return &models.User{ID: id, Username: "newhire"}, nil
				},
				AddInvitedCompanyFn: func(userID, companyID uint) error {
					invitedUserID, invitedCompanyID = userID, companyID
					return nil
				},
			},
			invitation: mockInvitationRepository{
				CreateFn: func(inv *models.Invitation) error {
					inv.ID = 11
					createdInvitation = inv
					return nil
				},
				GetByIDWithDetailsFn: func(id uint) (*models.Invitation, error) {
					return createdInvitation, nil
				},
			},
			notification: mockNotificationRepository{
				CreateFn: func(n *models.Notification) error {
					notificationUserID = n.UserID
					return nil
				},
			},
		}
		svc, _ := newInvitationServiceForTest(repo)

		resp, err := svc.Send(context.Background(), &SendInvitationRequest{CompanyID: 3, ReceiverID: 2}, 1)
		if err != nil {
			t.Fatalf("Send() error = %v", err)
		}

		if resp.Status != models.InvitationSent {
			t.Errorf("status = %q, want %q", resp.Status, models.InvitationSent)
		}
		if resp.IsRequest {
			t.Error("an owner-sent invitation must not be a join request")
		}
		if createdInvitation.SenderID != 1 || createdInvitation.ReceiverID != 2 {
			t.Errorf("invitation parties = (%d, %d), want (1, 2)",
				createdInvitation.SenderID, createdInvitation.ReceiverID)
		}
		if invitedUserID != 2 || invitedCompanyID != 3 {
			t.Errorf("invited set updated for (%d, %d), want (2, 3)", invitedUserID, invitedCompanyID)
		}
		if notificationUserID != 2 {
			t.Errorf("notification sent to user %d, want the receiver 2", notificationUserID)
		}
	})

	t.Run("self invitation", func(t *testing.T) {
		svc, _ := newInvitationServiceForTest(&mockRepository{})

		_, err := svc.Send(context.Background(), &SendInvitationRequest{CompanyID: 3, ReceiverID: 1}, 1)
		if !errors.Is(err, ErrSelfInvitation) {
			t.Errorf("Send() error = %v, want %v", err, ErrSelfInvitation)
		}
	})

	t.Run("sender is not the owner", func(t *testing.T) {
		repo := &mockRepository{
			company: mockCompanyRepository{
				GetByIDFn: func(id uint) (*models.Company, error) {
					return &models.Company{ID: id, OwnerID: 1}, nil
				},
			},
		}
		svc, _ := newInvitationServiceForTest(repo)

		_, err := svc.Send(context.Background(), &SendInvitationRequest{CompanyID: 3, ReceiverID: 2}, 9)
		if !IsPermissionError(err) {
			t.Errorf("Send() error = %v, want a permission error", err)
		}
	})

	t.Run("company admin may not invite", func(t *testing.T) {
		var created bool
		repo := &mockRepository{
			company: mockCompanyRepository{
				GetByIDFn: func(id uint) (*models.Company, error) {
					return &models.Company{ID: id, OwnerID: 1}, nil
				},
				IsAdminFn: func(companyID, userID uint) (bool, error) { return userID == 7, nil },
			},
			invitation: mockInvitationRepository{
				CreateFn: func(inv *models.Invitation) error {
					created = true
					return nil
				},
			},
		}
		svc, _ := newInvitationServiceForTest(repo)

		_, err := svc.Send(context.Background(), &SendInvitationRequest{CompanyID: 3, ReceiverID: 2}, 7)
		if !IsPermissionError(err) {
			t.Errorf("Send() error = %v, want a permission error", err)
		}
		if created {
			t.Error("an admin-sent invitation must not be created")
		}
	})

	t.Run("missing receiver reported before the permission check", func(t *testing.T) {
		repo := &mockRepository{
			company: mockCompanyRepository{
				GetByIDFn: func(id uint) (*models.Company, error) {
					return &models.Company{ID: id, OwnerID: 1}, nil
				},
			},
			user: mockUserRepository{
				GetByIDFn: func(id uint) (*models.User, error) { return nil, repositories.ErrNotFound },
			},
		}
		svc, _ := newInvitationServiceForTest(repo)

		_, err := svc.Send(context.Background(), &SendInvitationRequest{CompanyID: 3, ReceiverID: 404}, 9)
		if !errors.Is(err, ErrUserNotFound) {
			t.Errorf("Send() error = %v, want %v", err, ErrUserNotFound)
		}
	})

	t.Run("receiver already a member", func(t *testing.T) {
		repo := &mockRepository{
			company: mockCompanyRepository{
				GetByIDFn: func(id uint) (*models.Company, error) {
					return &models.Company{ID: id, OwnerID: 1}, nil
				},
				IsMemberFn: func(companyID, userID uint) (bool, error) { return true, nil },
			},
		}
		svc, _ := newInvitationServiceForTest(repo)

		_, err := svc.Send(context.Background(), &SendInvitationRequest{CompanyID: 3, ReceiverID: 2}, 1)
		if !errors.Is(err, ErrAlreadyMember) {
			t.Errorf("Send() error = %v, want %v", err, ErrAlreadyMember)
		}
	})

	t.Run("receiver already invited", func(t *testing.T) {
		repo := &mockRepository{
			company: mockCompanyRepository{
				GetByIDFn: func(id uint) (*models.Company, error) {
					return &models.Company{ID: id, OwnerID: 1}, nil
				},
			},
			user: mockUserRepository{
				HasInvitedCompanyFn: func(userID, companyID uint) (bool, error) { return true, nil },
			},
		}
		svc, _ := newInvitationServiceForTest(repo)

		_, err := svc.Send(context.Background(), &SendInvitationRequest{CompanyID: 3, ReceiverID: 2}, 1)
		if !errors.Is(err, ErrAlreadyInvited) {
			t.Errorf("Send() error = %v, want %v", err, ErrAlreadyInvited)
		}
	})

	t.Run("receiver already requested to join", func(t *testing.T) {
		repo := &mockRepository{
			company: mockCompanyRepository{
				GetByIDFn: func(id uint) (*models.Company, error) {
					return &models.Company{ID: id, OwnerID: 1}, nil
				},
			},
			user: mockUserRepository{
				HasRequestedCompanyFn: func(userID, companyID uint) (bool, error) { return true, nil },
			},
		}
		svc, _ := newInvitationServiceForTest(repo)

		_, err := svc.Send(context.Background(), &SendInvitationRequest{CompanyID: 3, ReceiverID: 2}, 1)
		if !errors.Is(err, ErrAlreadyRequested) {
			t.Errorf("Send() error = %v, want %v", err, ErrAlreadyRequested)
		}
	})
}

func TestInvitationRequest(t *testing.T) {
	t.Run("user requests to join", func(t *testing.T) {
		var createdInvitation *models.Invitation
		var requestedUserID uint
		var notificationUserID uint

		repo := &mockRepository{
			company: mockCompanyRepository{
				GetByIDFn: func(id uint) (*models.Company, error) {
					return &models.Company{ID: id, Name: "Acme", OwnerID: 1}, nil
				},
			},
			user: mockUserRepository{
				AddRequestedCompanyFn: func(userID, companyID uint) error {
					requestedUserID = userID
					return nil
				},
			},
			invitation: mockInvitationRepository{
				CreateFn: func(inv *models.Invitation) error {
					inv.ID = 12
					createdInvitation = inv
					return nil
				},
				GetByIDWithDetailsFn: func(id uint) (*models.Invitation, error) {
					return createdInvitation, nil
				},
			},
			notification: mockNotificationRepository{
				CreateFn: func(n *models.Notification) error {
					notificationUserID = n.UserID
					return nil
				},
			},
		}
		svc, _ := newInvitationServiceForTest(repo)

		resp, err := svc.Request(context.Background(), &RequestToJoinRequest{CompanyID: 3}, 8)
		if err != nil {
			t.Fatalf("Request() error = %v", err)
		}

		if !resp.IsRequest {
			t.Error("a join request must carry IsRequest")
		}
		if createdInvitation.SenderID != 8 || createdInvitation.ReceiverID != 1 {
			t.Errorf("request parties = (%d, %d), want sender 8 and owner 1",
				createdInvitation.SenderID, createdInvitation.ReceiverID)
		}
		if requestedUserID != 8 {
			t.Errorf("requested set updated for user %d, want 8", requestedUserID)
		}
		if notificationUserID != 1 {
			t.Errorf("notification sent to user %d, want the owner 1", notificationUserID)
		}
	})

	t.Run("owner cannot request own company", func(t *testing.T) {
		repo := &mockRepository{
			company: mockCompanyRepository{
				GetByIDFn: func(id uint) (*models.Company, error) {
					return &models.Company{ID: id, OwnerID: 1}, nil
				},
			},
		}
		svc, _ := newInvitationServiceForTest(repo)

		_, err := svc.Request(context.Background(), &RequestToJoinRequest{CompanyID: 3}, 1)
		if !errors.Is(err, ErrOwnerCannotJoin) {
			t.Errorf("Request() error = %v, want %v", err, ErrOwnerCannotJoin)
		}
	})
}

func TestInvitationAccept(t *testing.T) {
	pendingInvitation := func() *models.Invitation {
		return &models.Invitation{
			ID:         11,
			SenderID:   1,
			ReceiverID: 2,
			CompanyID:  3,
			IsRequest:  false,
			Status:     models.InvitationSent,
		}
	}

	t.Run("receiver accepts", func(t *testing.T) {
		invitation := pendingInvitation()
		var calls []string

		repo := &mockRepository{
			invitation: mockInvitationRepository{
				GetByIDFn: func(id uint) (*models.Invitation, error) { return invitation, nil },
				UpdateFn: func(inv *models.Invitation) error {
					calls = append(calls, "update_invitation")
					return nil
				},
				GetByIDWithDetailsFn: func(id uint) (*models.Invitation, error) { return invitation, nil },
			},
			company: mockCompanyRepository{
				AddMemberFn: func(companyID, userID uint) error {
					calls = append(calls, "add_member")
					if companyID != 3 || userID != 2 {
						t.Errorf("AddMember(%d, %d), want (3, 2)", companyID, userID)
					}
					return nil
				},
			},
			user: mockUserRepository{
				RemoveInvitedCompanyFn: func(userID, companyID uint) error {
					calls = append(calls, "clear_invited")
					return nil
				},
			},
		}
		svc, publisher := newInvitationServiceForTest(repo)

		resp, err := svc.Accept(context.Background(), 11, 2)
		if err != nil {
			t.Fatalf("Accept() error = %v", err)
		}
		if resp.Status != models.InvitationAccepted {
			t.Errorf("status = %q, want %q", resp.Status, models.InvitationAccepted)
		}

		want := []string{"add_member", "clear_invited", "update_invitation"}
		if len(calls) != len(want) {
			t.Fatalf("calls = %v, want %v", calls, want)
		}
		for i := range want {
			if calls[i] != want[i] {
				t.Fatalf("calls = %v, want %v (membership must land before the status flips)", calls, want)
			}
		}

		published := publisher.GetPublishedEvents()
		if len(published) != 1 {
			t.Fatalf("published %d events, want 1", len(published))
		}
		if published[0].Type != events.EventInvitationResolved {
			t.Errorf("event type = %q, want %q", published[0].Type, events.EventInvitationResolved)
		}
		topics := publisher.GetPublishedTopics()
		if topics[0] != events.UserNotificationTopic(1) {
			t.Errorf("event topic = %q, want the sender's topic %q", topics[0], events.UserNotificationTopic(1))
		}
	})

	t.Run("joining user no longer exists", func(t *testing.T) {
		invitation := pendingInvitation()
		var memberAdded bool

		repo := &mockRepository{
			invitation: mockInvitationRepository{
				GetByIDFn: func(id uint) (*models.Invitation, error) { return invitation, nil },
			},
			company: mockCompanyRepository{
				AddMemberFn: func(companyID, userID uint) error {
					memberAdded = true
					return nil
				},
			},
			user: mockUserRepository{
				GetByIDFn: func(id uint) (*models.User, error) { return nil, repositories.ErrNotFound },
			},
		}
		svc, _ := newInvitationServiceForTest(repo)

		_, err := svc.Accept(context.Background(), 11, 2)
		if !errors.Is(err, ErrUserNotFound) {
			t.Errorf("Accept() error = %v, want %v", err, ErrUserNotFound)
		}
		if memberAdded {
			t.Error("a deleted user must not become a member")
		}
	})

	t.Run("join request accepted adds the requester", func(t *testing.T) {
		invitation := &models.Invitation{
			ID:         12,
			SenderID:   8,
			ReceiverID: 1,
			CompanyID:  3,
			IsRequest:  true,
			Status:     models.InvitationSent,
		}
		var addedUserID uint
		var clearedRequested bool

		repo := &mockRepository{
			invitation: mockInvitationRepository{
				GetByIDFn:            func(id uint) (*models.Invitation, error) { return invitation, nil },
				GetByIDWithDetailsFn: func(id uint) (*models.Invitation, error) { return invitation, nil },
			},
			company: mockCompanyRepository{
				AddMemberFn: func(companyID, userID uint) error {
					addedUserID = userID
					return nil
				},
			},
			user: mockUserRepository{
				RemoveRequestedCompanyFn: func(userID, companyID uint) error {
					clearedRequested = true
					return nil
				},
			},
		}
		svc, _ := newInvitationServiceForTest(repo)

		if _, err := svc.Accept(context.Background(), 12, 1); err != nil {
			t.Fatalf("Accept() error = %v", err)
		}
		if addedUserID != 8 {
			t.Errorf("added user %d as member, want the requester 8", addedUserID)
		}
		if !clearedRequested {
			t.Error("the requested set entry should be cleared on acceptance")
		}
	})

	t.Run("only the receiver may accept", func(t *testing.T) {
		invitation := pendingInvitation()
		repo := &mockRepository{
			invitation: mockInvitationRepository{
				GetByIDFn: func(id uint) (*models.Invitation, error) { return invitation, nil },
			},
		}
		svc, _ := newInvitationServiceForTest(repo)

		_, err := svc.Accept(context.Background(), 11, 1)
		if !IsPermissionError(err) {
			t.Errorf("Accept() error = %v, want a permission error", err)
		}
	})

	t.Run("already resolved", func(t *testing.T) {
		invitation := pendingInvitation()
		invitation.Status = models.InvitationAccepted
		repo := &mockRepository{
			invitation: mockInvitationRepository{
				GetByIDFn: func(id uint) (*models.Invitation, error) { return invitation, nil },
			},
		}
		svc, _ := newInvitationServiceForTest(repo)

		_, err := svc.Accept(context.Background(), 11, 2)
		if !errors.Is(err, ErrInvitationNotPending) {
			t.Errorf("Accept() error = %v, want %v", err, ErrInvitationNotPending)
		}
	})

	t.Run("missing invitation", func(t *testing.T) {
		svc, _ := newInvitationServiceForTest(&mockRepository{})

		_, err := svc.Accept(context.Background(), 404, 2)
		if !errors.Is(err, ErrInvitationNotFound) {
			t.Errorf("Accept() error = %v, want %v", err, ErrInvitationNotFound)
		}
	})
}

func TestInvitationReject(t *testing.T) {
	invitation := &models.Invitation{
		ID:         11,
		SenderID:   1,
		ReceiverID: 2,
		CompanyID:  3,
		Status:     models.InvitationSent,
	}
	memberAdded := false
	var cleared bool

	repo := &mockRepository{
		invitation: mockInvitationRepository{
			GetByIDFn:            func(id uint) (*models.Invitation, error) { return invitation, nil },
			GetByIDWithDetailsFn: func(id uint) (*models.Invitation, error) { return invitation, nil },
		},
		company: mockCompanyRepository{
			AddMemberFn: func(companyID, userID uint) error {
				memberAdded = true
				return nil
			},
		},
		user: mockUserRepository{
			RemoveInvitedCompanyFn: func(userID, companyID uint) error {
				cleared = true
				return nil
			},
		},
	}
	svc, publisher := newInvitationServiceForTest(repo)

	resp, err := svc.Reject(context.Background(), 11, 2)
	if err != nil {
		t.Fatalf("Reject() error = %v", err)
	}
	if resp.Status != models.InvitationRejected {
		t.Errorf("status = %q, want %q", resp.Status, models.InvitationRejected)
	}
	if memberAdded {
		t.Error("rejecting must not add a member")
	}
	if !cleared {
		t.Error("the invited set entry should be cleared on rejection")
	}

	published := publisher.GetPublishedEvents()
	if len(published) != 1 {
		t.Fatalf("published %d events, want 1", len(published))
	}
	if published[0].Type != events.EventInvitationResolved {
		t.Errorf("event type = %q, want %q", published[0].Type, events.EventInvitationResolved)
	}
}

func TestInvitationRevoke(t *testing.T) {
	pending := func() *models.Invitation {
		return &models.Invitation{
			ID:         11,
			SenderID:   1,
			ReceiverID: 2,
			CompanyID:  3,
			Status:     models.InvitationSent,
		}
	}

	t.Run("sender revokes", func(t *testing.T) {
		var deletedID uint
		repo := &mockRepository{
			invitation: mockInvitationRepository{
				GetByIDFn: func(id uint) (*models.Invitation, error) { return pending(), nil },
				DeleteFn: func(id uint) error {
					deletedID = id
					return nil
				},
			},
		}
		svc, _ := newInvitationServiceForTest(repo)

		if err := svc.Revoke(context.Background(), 11, 1); err != nil {
			t.Fatalf("Revoke() error = %v", err)
		}
		if deletedID != 11 {
			t.Errorf("deleted invitation %d, want 11", deletedID)
		}
	})

	t.Run("receiver revokes", func(t *testing.T) {
		repo := &mockRepository{
			invitation: mockInvitationRepository{
				GetByIDFn: func(id uint) (*models.Invitation, error) { return pending(), nil },
			},
		}
		svc, _ := newInvitationServiceForTest(repo)

		if err := svc.Revoke(context.Background(), 11, 2); err != nil {
			t.Fatalf("Revoke() error = %v", err)
		}
	})

	t.Run("third party may not revoke", func(t *testing.T) {
		repo := &mockRepository{
			invitation: mockInvitationRepository{
				GetByIDFn: func(id uint) (*models.Invitation, error) { return pending(), nil },
			},
		}
		svc, _ := newInvitationServiceForTest(repo)

		err := svc.Revoke(context.Background(), 11, 99)
		if !IsPermissionError(err) {
			t.Errorf("Revoke() error = %v, want a permission error", err)
		}
	})

	t.Run("resolved invitation cannot be revoked", func(t *testing.T) {
		invitation := pending()
		invitation.Status = models.InvitationAccepted
		repo := &mockRepository{
			invitation: mockInvitationRepository{
				GetByIDFn: func(id uint) (*models.Invitation, error) { return invitation, nil },
			},
		}
		svc, _ := newInvitationServiceForTest(repo)

		err := svc.Revoke(context.Background(), 11, 1)
		if !errors.Is(err, ErrInvitationNotPending) {
			t.Errorf("Revoke() error = %v, want %v", err, ErrInvitationNotPending)
		}
	})
}

func TestInvitationGetByID(t *testing.T) {
	invitation := &models.Invitation{ID: 11, SenderID: 1, ReceiverID: 2, CompanyID: 3, Status: models.InvitationSent}
	repo := &mockRepository{
		invitation: mockInvitationRepository{
			GetByIDWithDetailsFn: func(id uint) (*models.Invitation, error) { return invitation, nil },
		},
	}
	svc, _ := newInvitationServiceForTest(repo)

	if _, err := svc.GetByID(context.Background(), 11, 2); err != nil {
		t.Fatalf("GetByID() as receiver error = %v", err)
	}
	if _, err := svc.GetByID(context.Background(), 11, 1); err != nil {
		t.Fatalf("GetByID() as sender error = %v", err)
	}
	if _, err := svc.GetByID(context.Background(), 11, 99); !IsPermissionError(err) {
		t.Errorf("GetByID() as outsider error = %v, want a permission error", err)
	}
}
