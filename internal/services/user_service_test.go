package services

import (
	"context"
	"errors"
	"testing"

	"github.com/quiz-platform/quiz-service/internal/models"
	"github.com/quiz-platform/quiz-service/internal/repositories"
	"github.com/quiz-platform/quiz-service/internal/validator"
)

func newUserServiceForTest(repo *mockRepository) UserService {
	return NewUserService(repo, nil, testLogger(), validator.New())
}

func TestUserCreate(t *testing.T) {
	adminActor := func(id uint) (*models.User, error) {
		return &models.User{ID: id, Username: "root", Role: models.RoleAdmin}, nil
	}

	t.Run("admin creates a user", func(t *testing.T) {
		var created *models.User
		repo := &mockRepository{
			user: mockUserRepository{
				GetByIDFn: adminActor,
				CreateFn: func(u *models.User) error {
					u.ID = 9
					created = u
					return nil
				},
			},
		}
		svc := newUserServiceForTest(repo)

		resp, err := svc.Create(context.Background(), &CreateUserRequest{Username: "newcomer"}, 1)
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if resp.ID != 9 || resp.Username != "newcomer" {
			t.Errorf("unexpected response: %+v", resp)
		}
		if created.Role != models.RoleUser {
			t.Errorf("role = %q, want the default %q", created.Role, models.RoleUser)
		}
	})

	t.Run("duplicate username", func(t *testing.T) {
		repo := &mockRepository{
			user: mockUserRepository{
				GetByIDFn:          adminActor,
				ExistsByUsernameFn: func(username string) (bool, error) { return true, nil },
			},
		}
		svc := newUserServiceForTest(repo)

		_, err := svc.Create(context.Background(), &CreateUserRequest{Username: "newcomer"}, 1)
		if !IsValidationError(err) {
			t.Errorf("Create() error = %v, want a validation error for a taken username", err)
		}
	})

	t.Run("non-admin actor", func(t *testing.T) {
		repo := &mockRepository{}
		svc := newUserServiceForTest(repo)

		_, err := svc.Create(context.Background(), &CreateUserRequest{Username: "newcomer"}, 5)
		if !IsPermissionError(err) {
			t.Errorf("Create() error = %v, creating users is admin-only", err)
		}
	})
}

func TestUserGetByID(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		email := "taker@example.com"
		repo := &mockRepository{
			user: mockUserRepository{
				GetByIDFn: func(id uint) (*models.User, error) {
					return &models.User{ID: id, Username: "taker", Email: &email}, nil
				},
			},
		}
		svc := newUserServiceForTest(repo)

		resp, err := svc.GetByID(context.Background(), 5)
		if err != nil {
			t.Fatalf("GetByID() error = %v", err)
		}
		if resp.Username != "taker" || resp.Email == nil || *resp.Email != email {
			t.Errorf("unexpected response: %+v", resp)
		}
	})

	t.Run("missing", func(t *testing.T) {
		repo := &mockRepository{
			user: mockUserRepository{
				GetByIDFn: func(id uint) (*models.User, error) {
					return nil, repositories.ErrNotFound
				},
			},
		}
		svc := newUserServiceForTest(repo)

		_, err := svc.GetByID(context.Background(), 404)
		if !errors.Is(err, ErrUserNotFound) {
			t.Errorf("GetByID() error = %v, want %v", err, ErrUserNotFound)
		}
	})
}

func TestUserUpdate(t *testing.T) {
	t.Run("own profile", func(t *testing.T) {
		newName := "renamed"
		var updated *models.User
		repo := &mockRepository{
			user: mockUserRepository{
				GetByIDFn: func(id uint) (*models.User, error) {
					return &models.User{ID: id, Username: "taker"}, nil
				},
				UpdateFn: func(u *models.User) error {
					updated = u
					return nil
				},
			},
		}
		svc := newUserServiceForTest(repo)

		resp, err := svc.Update(context.Background(), 5, &UpdateUserRequest{Username: &newName}, 5)
		if err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		if resp.Username != newName || updated.Username != newName {
			t.Errorf("username = %q / %q, want %q", resp.Username, updated.Username, newName)
		}
	})

	t.Run("taken username", func(t *testing.T) {
		newName := "taken"
		repo := &mockRepository{
			user: mockUserRepository{
				GetByIDFn: func(id uint) (*models.User, error) {
					return &models.User{ID: id, Username: "taker"}, nil
				},
				ExistsByUsernameFn: func(username string) (bool, error) { return true, nil },
			},
		}
		svc := newUserServiceForTest(repo)

		_, err := svc.Update(context.Background(), 5, &UpdateUserRequest{Username: &newName}, 5)
		if !IsValidationError(err) {
			t.Errorf("Update() error = %v, want a validation error", err)
		}
	})

	t.Run("another user's profile", func(t *testing.T) {
		repo := &mockRepository{
			user: mockUserRepository{
				GetByIDFn: func(id uint) (*models.User, error) {
					return &models.User{ID: id, Role: models.RoleUser}, nil
				},
			},
		}
		svc := newUserServiceForTest(repo)

		newName := "hijack"
		_, err := svc.Update(context.Background(), 5, &UpdateUserRequest{Username: &newName}, 9)
		if !IsPermissionError(err) {
			t.Errorf("Update() error = %v, want a permission error", err)
		}
	})

	t.Run("platform admin may edit others", func(t *testing.T) {
		newName := "cleaned"
		repo := &mockRepository{
			user: mockUserRepository{
				GetByIDFn: func(id uint) (*models.User, error) {
					role := models.RoleUser
					if id == 9 {
						role = models.RoleAdmin
					}
					return &models.User{ID: id, Username: "taker", Role: role}, nil
				},
			},
		}
		svc := newUserServiceForTest(repo)

		if _, err := svc.Update(context.Background(), 5, &UpdateUserRequest{Username: &newName}, 9); err != nil {
			t.Errorf("Update() as platform admin error = %v", err)
		}
	})
}

func TestUserListCapsLimit(t *testing.T) {
	var gotLimit int
	repo := &mockRepository{
		user: mockUserRepository{
			ListFn: func(filters repositories.UserFilters) ([]*models.User, int64, error) {
				gotLimit = filters.Limit
				return nil, 0, nil
			},
		},
	}
	svc := newUserServiceForTest(repo)

	if _, err := svc.List(context.Background(), repositories.UserFilters{Limit: 500}); err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if gotLimit != 100 {
		t.Errorf("limit = %d, want capped at 100", gotLimit)
	}
}

func TestGetOrCreateByAccount(t *testing.T) {
	t.Run("existing user by email", func(t *testing.T) {
		email := "taker@example.com"
		created := false
		repo := &mockRepository{
			user: mockUserRepository{
				GetByEmailFn: func(e string) (*models.User, error) {
					return &models.User{ID: 5, Username: "taker", Email: &email}, nil
				},
				CreateFn: func(*models.User) error {
					created = true
					return nil
				},
			},
		}
		svc := newUserServiceForTest(repo)

		user, err := svc.GetOrCreateByAccount(context.Background(), "taker", email, models.RoleUser, "")
		if err != nil {
			t.Fatalf("GetOrCreateByAccount() error = %v", err)
		}
		if user.ID != 5 {
			t.Errorf("resolved user %d, want 5", user.ID)
		}
		if created {
			t.Error("an existing user must not be re-created")
		}
	})

	t.Run("existing user by username", func(t *testing.T) {
		repo := &mockRepository{
			user: mockUserRepository{
				GetByUsernameFn: func(username string) (*models.User, error) {
					return &models.User{ID: 6, Username: username}, nil
				},
			},
		}
		svc := newUserServiceForTest(repo)

		user, err := svc.GetOrCreateByAccount(context.Background(), "taker", "", "", "")
		if err != nil {
			t.Fatalf("GetOrCreateByAccount() error = %v", err)
		}
		if user.ID != 6 {
			t.Errorf("resolved user %d, want 6", user.ID)
		}
	})

	t.Run("first login provisions", func(t *testing.T) {
		var created *models.User
		repo := &mockRepository{
			user: mockUserRepository{
				CreateFn: func(u *models.User) error {
					u.ID = 7
					created = u
					return nil
				},
			},
		}
		svc := newUserServiceForTest(repo)

		user, err := svc.GetOrCreateByAccount(context.Background(), "newhire", "new@example.com", "", "https://cdn/avatar.png")
		if err != nil {
			t.Fatalf("GetOrCreateByAccount() error = %v", err)
		}
		if created == nil {
			t.Fatal("expected a user to be provisioned")
		}
		if user.Role != models.RoleUser {
			t.Errorf("default role = %q, want %q", user.Role, models.RoleUser)
		}
		if user.Email == nil || *user.Email != "new@example.com" {
			t.Error("provisioned user should carry the account email")
		}
		if user.AvatarURL == nil || *user.AvatarURL != "https://cdn/avatar.png" {
			t.Error("provisioned user should carry the avatar URL")
		}
	})
}
