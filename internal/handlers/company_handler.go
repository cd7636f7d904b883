package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/quiz-platform/quiz-service/internal/repositories"
	"github.com/quiz-platform/quiz-service/internal/services"
	"github.com/quiz-platform/quiz-service/internal/utils"
	"github.com/quiz-platform/quiz-service/internal/validator"
)

type CompanyHandler struct {
	BaseHandler
	companyService    services.CompanyService
	invitationService services.InvitationService
	validator         *validator.Validator
}

func NewCompanyHandler(
	companyService services.CompanyService,
	invitationService services.InvitationService,
	validator *validator.Validator,
	logger utils.Logger,
) *CompanyHandler {
	return &CompanyHandler{
		BaseHandler:       NewBaseHandler(logger),
		companyService:    companyService,
		invitationService: invitationService,
		validator:         validator,
	}
}

// CreateCompany creates a new company owned by the caller
// @Summary Create company
// @Tags companies
// @Accept json
// @Produce json
// @Param company body services.CreateCompanyRequest true "Company data"
// @Success 201 {object} services.CompanyResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /companies [post]
func (h *CompanyHandler) CreateCompany(c *gin.Context) {
	var req services.CreateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	userID := h.currentUserID(c)
	if userID == 0 {
		return
	}

	company, err := h.companyService.Create(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, company)
}

// GetCompany retrieves a company by ID
// @Summary Get company
// @Tags companies
// @Produce json
// @Param id path uint true "Company ID"
// @Success 200 {object} services.CompanyResponse
// @Failure 404 {object} ErrorResponse
// @Router /companies/{id} [get]
func (h *CompanyHandler) GetCompany(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID := h.currentUserID(c)
	if userID == 0 {
		return
	}

	company, err := h.companyService.GetByID(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, company)
}

// UpdateCompany updates a company's profile
// @Summary Update company
// @Tags companies
// @Accept json
// @Produce json
// @Param id path uint true "Company ID"
// @Param company body services.UpdateCompanyRequest true "Company data"
// @Success 200 {object} services.CompanyResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /companies/{id} [put]
func (h *CompanyHandler) UpdateCompany(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.UpdateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	userID := h.currentUserID(c)
	if userID == 0 {
		return
	}

	company, err := h.companyService.Update(c.Request.Context(), id, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, company)
}

// DeleteCompany removes a company; owner only
// @Summary Delete company
// @Tags companies
// @Produce json
// @Param id path uint true "Company ID"
// @Success 200 {object} SuccessResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /companies/{id} [delete]
func (h *CompanyHandler) DeleteCompany(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID := h.currentUserID(c)
	if userID == 0 {
		return
	}

	h.LogRequest(c, "Deleting company", "company_id", id, "user_id", userID)

	if err := h.companyService.Delete(c.Request.Context(), id, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Company deleted"})
}

// ListCompanies lists visible companies
// @Summary List companies
// @Tags companies
// @Produce json
// @Success 200 {object} services.CompanyListResponse
// @Failure 401 {object} ErrorResponse
// @Router /companies [get]
func (h *CompanyHandler) ListCompanies(c *gin.Context) {
	userID := h.currentUserID(c)
	if userID == 0 {
		return
	}

	limit, offset := h.parsePagination(c)
	filters := repositories.CompanyFilters{
		Limit:     limit,
		Offset:    offset,
		SortBy:    c.DefaultQuery("sort_by", "created_at"),
		SortOrder: c.DefaultQuery("sort_order", "desc"),
	}

	if ownerID, err := strconv.ParseUint(c.Query("owner_id"), 10, 32); err == nil && ownerID > 0 {
		id := uint(ownerID)
		filters.OwnerID = &id
	}

	companies, err := h.companyService.List(c.Request.Context(), filters, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, companies)
}

// GetMembers lists a company's members
// @Summary Get company members
// @Tags companies
// @Produce json
// @Param id path uint true "Company ID"
// @Success 200 {object} services.UserListResponse
// @Failure 404 {object} ErrorResponse
// @Router /companies/{id}/members [get]
func (h *CompanyHandler) GetMembers(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID := h.currentUserID(c)
	if userID == 0 {
		return
	}

	limit, offset := h.parsePagination(c)
	filters := repositories.UserFilters{Limit: limit, Offset: offset}

	members, err := h.companyService.GetMembers(c.Request.Context(), id, filters, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, members)
}

// RemoveMember expels a member; admins and the owner only
// @Summary Remove company member
// @Tags companies
// @Produce json
// @Param id path uint true "Company ID"
// @Param user_id path uint true "Member user ID"
// @Success 200 {object} SuccessResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /companies/{id}/members/{user_id} [delete]
func (h *CompanyHandler) RemoveMember(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	memberID := h.parseIDParam(c, "user_id")
	if memberID == 0 {
		return
	}

	userID := h.currentUserID(c)
	if userID == 0 {
		return
	}

	h.LogRequest(c, "Removing company member", "company_id", id, "member_id", memberID, "actor_id", userID)

	if err := h.companyService.RemoveMember(c.Request.Context(), id, memberID, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Member removed"})
}

// LeaveCompany removes the caller from a company
// @Summary Leave company
// @Tags companies
// @Produce json
// @Param id path uint true "Company ID"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /companies/{id}/leave [post]
func (h *CompanyHandler) LeaveCompany(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID := h.currentUserID(c)
	if userID == 0 {
		return
	}

	if err := h.companyService.Leave(c.Request.Context(), id, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Left company"})
}

// AppointAdmin grants a member admin rights; owner only
// @Summary Appoint company admin
// @Tags companies
// @Produce json
// @Param id path uint true "Company ID"
// @Param user_id path uint true "Member user ID"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /companies/{id}/admins/{user_id} [post]
func (h *CompanyHandler) AppointAdmin(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	targetID := h.parseIDParam(c, "user_id")
	if targetID == 0 {
		return
	}

	userID := h.currentUserID(c)
	if userID == 0 {
		return
	}

	if err := h.companyService.AppointAdmin(c.Request.Context(), id, targetID, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Admin appointed"})
}

// RemoveAdmin strips a member's admin rights; owner only
// @Summary Remove company admin
// @Tags companies
// @Produce json
// @Param id path uint true "Company ID"
// @Param user_id path uint true "Admin user ID"
// @Success 200 {object} SuccessResponse
// @Failure 403 {object} ErrorResponse
// @Router /companies/{id}/admins/{user_id} [delete]
func (h *CompanyHandler) RemoveAdmin(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	targetID := h.parseIDParam(c, "user_id")
	if targetID == 0 {
		return
	}

	userID := h.currentUserID(c)
	if userID == 0 {
		return
	}

	if err := h.companyService.RemoveAdmin(c.Request.Context(), id, targetID, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Admin removed"})
}

// GetAdmins lists a company's admins; admins and the owner only
// @Summary Get company admins
// @Tags companies
// @Produce json
// @Param id path uint true "Company ID"
// @Success 200 {array} services.UserResponse
// @Failure 403 {object} ErrorResponse
// @Router /companies/{id}/admins [get]
func (h *CompanyHandler) GetAdmins(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID := h.currentUserID(c)
	if userID == 0 {
		return
	}

	admins, err := h.companyService.GetAdmins(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, admins)
}

// GetInvitations lists a company's invitations and join requests; admins only
// @Summary Get company invitations
// @Tags companies
// @Produce json
// @Param id path uint true "Company ID"
// @Success 200 {object} services.InvitationListResponse
// @Failure 403 {object} ErrorResponse
// @Router /companies/{id}/invitations [get]
func (h *CompanyHandler) GetInvitations(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID := h.currentUserID(c)
	if userID == 0 {
		return
	}

	limit, offset := h.parsePagination(c)
	filters := repositories.InvitationFilters{Limit: limit, Offset: offset}

	invitations, err := h.invitationService.ListForCompany(c.Request.Context(), id, filters, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, invitations)
}
