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

type companyService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
}

func NewCompanyService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator) CompanyService {
	return &companyService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
	}
}

// ===== CORE CRUD OPERATIONS =====

func (s *companyService) Create(ctx context.Context, req *CreateCompanyRequest, ownerID uint) (*CompanyResponse, error) {
	s.logger.Info("Creating company", "owner_id", ownerID, "name", req.Name)

	if errs := s.validator.GetBusinessValidator().ValidateCompanyCreate(req); len(errs) > 0 {
		return nil, errs
	}

	if _, err := s.repo.User().GetByID(ctx, nil, ownerID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get owner: %w", err)
	}

	company := &models.Company{
		Name:      req.Name,
		IsVisible: true,
		OwnerID:   ownerID,
	}
	if req.Description != nil {
		company.Description = *req.Description
	}
	if req.IsVisible != nil {
		company.IsVisible = *req.IsVisible
	}

	if err := s.repo.Company().Create(ctx, nil, company); err != nil {
		return nil, fmt.Errorf("failed to create company: %w", err)
	}

	s.logger.Info("Company created successfully", "company_id", company.ID)
	return s.GetByID(ctx, company.ID, ownerID)
}

func (s *companyService) GetByID(ctx context.Context, id uint, userID uint) (*CompanyResponse, error) {
	company, err := s.repo.Company().GetByIDWithDetails(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCompanyNotFound
		}
		return nil, fmt.Errorf("failed to get company: %w", err)
	}

	// Hidden companies are only visible to people already associated with
	// them.
	if !company.IsVisible {
		canSee, err := s.isAssociated(ctx, company, userID)
		if err != nil {
			return nil, err
		}
		if !canSee {
			return nil, ErrCompanyNotFound
		}
	}

	return toCompanyResponse(company), nil
}

func (s *companyService) Update(ctx context.Context, id uint, req *UpdateCompanyRequest, actorID uint) (*CompanyResponse, error) {
	if errs := s.validator.GetBusinessValidator().Validate(req); len(errs) > 0 {
		return nil, errs
	}

	company, err := s.repo.Company().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCompanyNotFound
		}
		return nil, fmt.Errorf("failed to get company: %w", err)
	}

	isAdmin, err := s.IsAdminOrOwner(ctx, id, actorID)
	if err != nil {
		return nil, err
	}
	if !isAdmin {
		return nil, NewPermissionError(actorID, id, "company", "update", "not owner or admin")
	}

	if req.Name != nil {
		company.Name = *req.Name
	}
	if req.Description != nil {
		company.Description = *req.Description
	}
	if req.IsVisible != nil {
		company.IsVisible = *req.IsVisible
	}

	if err := s.repo.Company().Update(ctx, nil, company); err != nil {
		return nil, fmt.Errorf("failed to update company: %w", err)
	}

	s.logger.Info("Company updated", "company_id", id, "actor_id", actorID)
	return s.GetByID(ctx, id, actorID)
}

func (s *companyService) Delete(ctx context.Context, id uint, actorID uint) error {
	company, err := s.repo.Company().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrCompanyNotFound
		}
		return fmt.Errorf("failed to get company: %w", err)
	}

	// Only the owner may delete the company
	if company.OwnerID != actorID {
		return NewPermissionError(actorID, id, "company", "delete", "not company owner")
	}

	if err := s.repo.Company().Delete(ctx, nil, id); err != nil {
		return fmt.Errorf("failed to delete company: %w", err)
	}

	s.logger.Info("Company deleted", "company_id", id, "actor_id", actorID)
	return nil
}

func (s *companyService) List(ctx context.Context, filters repositories.CompanyFilters, userID uint) (*CompanyListResponse, error) {
	if filters.Limit <= 0 {
		filters.Limit = 20
	}
	if filters.Limit > 100 {
		filters.Limit = 100
	}

	// Hidden companies only appear in a listing of the user's own
	// companies.
	if filters.OwnerID == nil || *filters.OwnerID != userID {
		visible := true
		filters.IsVisible = &visible
	}

	companies, total, err := s.repo.Company().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}

	return &CompanyListResponse{
		Companies: toCompanyResponses(companies),
		Total:     total,
		Limit:     filters.Limit,
		Offset:    filters.Offset,
	}, nil
}

// ===== MEMBERSHIP =====

func (s *companyService) GetMembers(ctx context.Context, companyID uint, filters repositories.UserFilters, actorID uint) (*UserListResponse, error) {
	company, err := s.repo.Company().GetByID(ctx, nil, companyID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCompanyNotFound
		}
		return nil, fmt.Errorf("failed to get company: %w", err)
	}

	if !company.IsVisible {
		canSee, err := s.isAssociated(ctx, company, actorID)
		if err != nil {
			return nil, err
		}
		if !canSee {
			return nil, ErrCompanyNotFound
		}
	}

	if filters.Limit <= 0 {
		filters.Limit = 20
	}

	members, total, err := s.repo.Company().GetMembers(ctx, nil, companyID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to get members: %w", err)
	}

	return &UserListResponse{
		Users:  toUserResponses(members),
		Total:  total,
		Limit:  filters.Limit,
		Offset: filters.Offset,
	}, nil
}

func (s *companyService) RemoveMember(ctx context.Context, companyID, memberID, actorID uint) error {
	isAdmin, err := s.IsAdminOrOwner(ctx, companyID, actorID)
	if err != nil {
		return err
	}
	if !isAdmin {
		return NewPermissionError(actorID, companyID, "company", "remove_member", "not owner or admin")
	}

	isMember, err := s.repo.Company().IsMember(ctx, nil, companyID, memberID)
	if err != nil {
		return fmt.Errorf("failed to check membership: %w", err)
	}
	if !isMember {
		return ErrUserNotFound
	}

	return s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		if err := txRepo.Company().RemoveMember(ctx, nil, companyID, memberID); err != nil {
			return fmt.Errorf("failed to remove member: %w", err)
		}
		// Admin status does not survive losing membership
		if err := txRepo.Company().RemoveAdmin(ctx, nil, companyID, memberID); err != nil {
			return fmt.Errorf("failed to remove admin status: %w", err)
		}
		s.logger.Info("Member removed", "company_id", companyID, "member_id", memberID, "actor_id", actorID)
		return nil
	})
}

func (s *companyService) Leave(ctx context.Context, companyID, userID uint) error {
	company, err := s.repo.Company().GetByID(ctx, nil, companyID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrCompanyNotFound
		}
		return fmt.Errorf("failed to get company: %w", err)
	}

	if company.OwnerID == userID {
		return NewPermissionError(userID, companyID, "company", "leave", "owner cannot leave own company")
	}

	isMember, err := s.repo.Company().IsMember(ctx, nil, companyID, userID)
	if err != nil {
		return fmt.Errorf("failed to check membership: %w", err)
	}
	if !isMember {
		return NewPermissionError(userID, companyID, "company", "leave", "not a member")
	}

	return s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		if err := txRepo.Company().RemoveMember(ctx, nil, companyID, userID); err != nil {
			return fmt.Errorf("failed to leave company: %w", err)
		}
		if err := txRepo.Company().RemoveAdmin(ctx, nil, companyID, userID); err != nil {
			return fmt.Errorf("failed to remove admin status: %w", err)
		}
		s.logger.Info("Member left company", "company_id", companyID, "user_id", userID)
		return nil
	})
}

// ===== ADMIN SET =====

func (s *companyService) AppointAdmin(ctx context.Context, companyID, userID, actorID uint) error {
	company, err := s.repo.Company().GetByID(ctx, nil, companyID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrCompanyNotFound
		}
		return fmt.Errorf("failed to get company: %w", err)
	}

	// Only the owner may manage the admin set
	if company.OwnerID != actorID {
		return NewPermissionError(actorID, companyID, "company", "appoint_admin", "not company owner")
	}

	isMember, err := s.repo.Company().IsMember(ctx, nil, companyID, userID)
	if err != nil {
		return fmt.Errorf("failed to check membership: %w", err)
	}
	if !isMember {
		return NewValidationError("user_id", "user is not a member of this company", userID)
	}

	if err := s.repo.Company().AddAdmin(ctx, nil, companyID, userID); err != nil {
		return fmt.Errorf("failed to appoint admin: %w", err)
	}

	s.logger.Info("Admin appointed", "company_id", companyID, "user_id", userID, "actor_id", actorID)
	return nil
}

func (s *companyService) RemoveAdmin(ctx context.Context, companyID, userID, actorID uint) error {
	company, err := s.repo.Company().GetByID(ctx, nil, companyID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrCompanyNotFound
		}
		return fmt.Errorf("failed to get company: %w", err)
	}

	if company.OwnerID != actorID {
		return NewPermissionError(actorID, companyID, "company", "remove_admin", "not company owner")
	}

	if err := s.repo.Company().RemoveAdmin(ctx, nil, companyID, userID); err != nil {
		return fmt.Errorf("failed to remove admin: %w", err)
	}

	s.logger.Info("Admin removed", "company_id", companyID, "user_id", userID, "actor_id", actorID)
	return nil
}

func (s *companyService) GetAdmins(ctx context.Context, companyID uint, actorID uint) ([]*UserResponse, error) {
	isAdmin, err := s.IsAdminOrOwner(ctx, companyID, actorID)
	if err != nil {
		return nil, err
	}
	if !isAdmin {
		return nil, NewPermissionError(actorID, companyID, "company", "list_admins", "not owner or admin")
	}

	admins, err := s.repo.Company().GetAdmins(ctx, nil, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to get admins: %w", err)
	}
	return toUserResponses(admins), nil
}

// IsAdminOrOwner reports whether the user owns or administers the company
func (s *companyService) IsAdminOrOwner(ctx context.Context, companyID, userID uint) (bool, error) {
	company, err := s.repo.Company().GetByID(ctx, nil, companyID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return false, ErrCompanyNotFound
		}
		return false, fmt.Errorf("failed to get company: %w", err)
	}

	if company.OwnerID == userID {
		return true, nil
	}

	return s.repo.Company().IsAdmin(ctx, nil, companyID, userID)
}

// isAssociated reports whether the user is the owner, an admin or a member
func (s *companyService) isAssociated(ctx context.Context, company *models.Company, userID uint) (bool, error) {
	if company.OwnerID == userID {
		return true, nil
	}
	isAdmin, err := s.repo.Company().IsAdmin(ctx, nil, company.ID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to check admin: %w", err)
	}
	if isAdmin {
		return true, nil
	}
	return s.repo.Company().IsMember(ctx, nil, company.ID, userID)
}
