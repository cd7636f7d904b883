package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quiz-platform/quiz-service/internal/repositories"
	"github.com/quiz-platform/quiz-service/internal/services"
	"github.com/quiz-platform/quiz-service/internal/utils"
	"github.com/quiz-platform/quiz-service/internal/validator"
)

type InvitationHandler struct {
	BaseHandler
	invitationService services.InvitationService
	validator         *validator.Validator
}

func NewInvitationHandler(
	invitationService services.InvitationService,
	validator *validator.Validator,
	logger utils.Logger,
) *InvitationHandler {
	return &InvitationHandler{
		BaseHandler:       NewBaseHandler(logger),
		invitationService: invitationService,
		validator:         validator,
	}
}

// SendInvitation creates an invitation from a company admin to a user
// @Summary Send invitation
// @Description Invites a user to join the caller's company
// @Tags invitations
// @Accept json
// @Produce json
// @Param invitation body services.SendInvitationRequest true "Invitation data"
// @Success 201 {object} services.InvitationResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /invitations/send [post]
func (h *InvitationHandler) SendInvitation(c *gin.Context) {
	var req services.SendInvitationRequest
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

	invitation, err := h.invitationService.Send(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, invitation)
}

// SendRequest creates a join request from the caller to a company
// @Summary Request to join
// @Description Asks a company's owner to admit the caller
// @Tags invitations
// @Accept json
// @Produce json
// @Param request body services.RequestToJoinRequest true "Join request data"
// @Success 201 {object} services.InvitationResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /invitations/request [post]
func (h *InvitationHandler) SendRequest(c *gin.Context) {
	var req services.RequestToJoinRequest
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

	invitation, err := h.invitationService.Request(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, invitation)
}

// GetInvitation retrieves an invitation by ID
// @Summary Get invitation
// @Tags invitations
// @Produce json
// @Param id path uint true "Invitation ID"
// @Success 200 {object} services.InvitationResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /invitations/{id} [get]
func (h *InvitationHandler) GetInvitation(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID := h.currentUserID(c)
	if userID == 0 {
		return
	}

	invitation, err := h.invitationService.GetByID(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, invitation)
}

// AcceptInvitation accepts a pending invitation or join request
// @Summary Accept invitation
// @Tags invitations
// @Produce json
// @Param id path uint true "Invitation ID"
// @Success 200 {object} services.InvitationResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /invitations/{id}/accept [post]
func (h *InvitationHandler) AcceptInvitation(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID := h.currentUserID(c)
	if userID == 0 {
		return
	}

	h.LogRequest(c, "Accepting invitation", "invitation_id", id, "user_id", userID)

	invitation, err := h.invitationService.Accept(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, invitation)
}

// RejectInvitation rejects a pending invitation or join request
// @Summary Reject invitation
// @Tags invitations
// @Produce json
// @Param id path uint true "Invitation ID"
// @Success 200 {object} services.InvitationResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /invitations/{id}/reject [post]
func (h *InvitationHandler) RejectInvitation(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID := h.currentUserID(c)
	if userID == 0 {
		return
	}

	h.LogRequest(c, "Rejecting invitation", "invitation_id", id, "user_id", userID)

	invitation, err := h.invitationService.Reject(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, invitation)
}

// RevokeInvitation withdraws a pending invitation or join request
// @Summary Revoke invitation
// @Tags invitations
// @Produce json
// @Param id path uint true "Invitation ID"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /invitations/{id} [delete]
func (h *InvitationHandler) RevokeInvitation(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID := h.currentUserID(c)
	if userID == 0 {
		return
	}

	if err := h.invitationService.Revoke(c.Request.Context(), id, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Invitation revoked"})
}

// ListInvitedCompanies lists companies with a pending invitation for the caller
// @Summary List invited companies
// @Tags invitations
// @Produce json
// @Success 200 {object} services.CompanyListResponse
// @Failure 401 {object} ErrorResponse
// @Router /invitations/invited [get]
func (h *InvitationHandler) ListInvitedCompanies(c *gin.Context) {
	userID := h.currentUserID(c)
	if userID == 0 {
		return
	}

	limit, offset := h.parsePagination(c)
	filters := repositories.CompanyFilters{Limit: limit, Offset: offset}

	companies, err := h.invitationService.ListInvitedCompanies(c.Request.Context(), userID, filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, companies)
}

// ListRequestedCompanies lists companies the caller has asked to join
// @Summary List requested companies
// @Tags invitations
// @Produce json
// @Success 200 {object} services.CompanyListResponse
// @Failure 401 {object} ErrorResponse
// @Router /invitations/requested [get]
func (h *InvitationHandler) ListRequestedCompanies(c *gin.Context) {
	userID := h.currentUserID(c)
	if userID == 0 {
		return
	}

	limit, offset := h.parsePagination(c)
	filters := repositories.CompanyFilters{Limit: limit, Offset: offset}

	companies, err := h.invitationService.ListRequestedCompanies(c.Request.Context(), userID, filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, companies)
}
