package services

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/quiz-platform/quiz-service/internal/models"
	"github.com/quiz-platform/quiz-service/internal/repositories"
	"github.com/quiz-platform/quiz-service/internal/validator"
)

type userService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
}

func NewUserService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator) UserService {
	return &userService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
	}
}

func (s *userService) Create(ctx context.Context, req *CreateUserRequest, actorID uint) (*UserResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	actor, err := s.repo.User().GetByID(ctx, nil, actorID)
	if err != nil || actor.Role != models.RoleAdmin {
		return nil, NewPermissionError(actorID, 0, "user", "create", "platform admin only")
	}

	taken, err := s.repo.User().ExistsByUsername(ctx, nil, req.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if taken {
		return nil, NewValidationError("username", "already taken", req.Username)
	}

	if req.Email != nil {
		if _, err := s.repo.User().GetByEmail(ctx, nil, *req.Email); err == nil {
			return nil, NewValidationError("email", "already registered", *req.Email)
		} else if !repositories.IsNotFoundError(err) {
			return nil, fmt.Errorf("failed to check email: %w", err)
		}
	}

	user := &models.User{
		Username:  req.Username,
		Role:      models.RoleUser,
		Email:     req.Email,
		AvatarURL: req.AvatarURL,
	}
	if req.Role != nil {
		user.Role = models.UserRole(*req.Role)
	}

	if err := s.repo.User().Create(ctx, nil, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("User created", "user_id", user.ID, "username", user.Username, "actor_id", actorID)
	return toUserResponse(user), nil
}

func (s *userService) GetByID(ctx context.Context, id uint) (*UserResponse, error) {
	user, err := s.repo.User().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return toUserResponse(user), nil
}

func (s *userService) Update(ctx context.Context, id uint, req *UpdateUserRequest, actorID uint) (*UserResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	// Users may only edit their own profile
	if actorID != id {
		actor, err := s.repo.User().GetByID(ctx, nil, actorID)
		if err != nil || actor.Role != models.RoleAdmin {
			return nil, NewPermissionError(actorID, id, "user", "update", "not profile owner")
		}
	}

	user, err := s.repo.User().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if req.Username != nil && *req.Username != user.Username {
		taken, err := s.repo.User().ExistsByUsername(ctx, nil, *req.Username)
		if err != nil {
			return nil, fmt.Errorf("failed to check username: %w", err)
		}
		if taken {
			return nil, NewValidationError("username", "already taken", *req.Username)
		}
		user.Username = *req.Username
	}
	if req.Email != nil {
		user.Email = req.Email
	}
	if req.AvatarURL != nil {
		user.AvatarURL = req.AvatarURL
	}

	if err := s.repo.User().Update(ctx, nil, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	s.logger.Info("User updated", "user_id", id)
	return toUserResponse(user), nil
}

func (s *userService) Delete(ctx context.Context, id uint, actorID uint) error {
	if actorID != id {
		actor, err := s.repo.User().GetByID(ctx, nil, actorID)
		if err != nil || actor.Role != models.RoleAdmin {
			return NewPermissionError(actorID, id, "user", "delete", "not profile owner")
		}
	}

	if _, err := s.repo.User().GetByID(ctx, nil, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	if err := s.repo.User().Delete(ctx, nil, id); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	s.logger.Info("User deleted", "user_id", id)
	return nil
}

func (s *userService) List(ctx context.Context, filters repositories.UserFilters) (*UserListResponse, error) {
	if filters.Limit <= 0 {
		filters.Limit = 20
	}
	if filters.Limit > 100 {
		filters.Limit = 100
	}

	users, total, err := s.repo.User().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	return &UserListResponse{
		Users:  toUserResponses(users),
		Total:  total,
		Limit:  filters.Limit,
		Offset: filters.Offset,
	}, nil
}

// GetOrCreateByAccount resolves an external account to a local user row,
// provisioning one on first login.
func (s *userService) GetOrCreateByAccount(ctx context.Context, username, email string, role models.UserRole, avatarURL string) (*models.User, error) {
	if email != "" {
		user, err := s.repo.User().GetByEmail(ctx, nil, email)
		if err == nil {
			return user, nil
		}
		if !repositories.IsNotFoundError(err) {
			return nil, fmt.Errorf("failed to look up user by email: %w", err)
		}
	}

	user, err := s.repo.User().GetByUsername(ctx, nil, username)
	if err == nil {
		return user, nil
	}
	if !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to look up user by username: %w", err)
	}

	if role == "" {
		role = models.RoleUser
	}

	user = &models.User{
		Username: username,
		Role:     role,
	}
	if email != "" {
		user.Email = &email
	}
	if avatarURL != "" {
		user.AvatarURL = &avatarURL
	}

	if err := s.repo.User().Create(ctx, nil, user); err != nil {
		return nil, fmt.Errorf("failed to provision user: %w", err)
	}

	s.logger.Info("User provisioned from account", "user_id", user.ID, "username", username)
	return user, nil
}
