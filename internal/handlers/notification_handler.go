package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quiz-platform/quiz-service/internal/models"
	"github.com/quiz-platform/quiz-service/internal/repositories"
	"github.com/quiz-platform/quiz-service/internal/services"
	"github.com/quiz-platform/quiz-service/internal/utils"
)

type NotificationHandler struct {
	BaseHandler
	notificationService services.NotificationService
}

func NewNotificationHandler(notificationService services.NotificationService, logger utils.Logger) *NotificationHandler {
	return &NotificationHandler{
		BaseHandler:         NewBaseHandler(logger),
		notificationService: notificationService,
	}
}

// ListNotifications lists the caller's notifications, newest first
// @Summary List notifications
// @Tags notifications
// @Produce json
// @Param status query string false "Filter by status (PENDING or READ)"
// @Success 200 {object} services.NotificationListResponse
// @Failure 401 {object} ErrorResponse
// @Router /notifications [get]
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	userID := h.currentUserID(c)
	if userID == 0 {
		return
	}

	limit, offset := h.parsePagination(c)
	filters := repositories.NotificationFilters{Limit: limit, Offset: offset}

	switch c.Query("status") {
	case string(models.NotificationPending):
		status := models.NotificationPending
		filters.Status = &status
	case string(models.NotificationRead):
		status := models.NotificationRead
		filters.Status = &status
	}

	notifications, err := h.notificationService.ListForUser(c.Request.Context(), userID, filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, notifications)
}

// CreateCompanyNotification sends a notification to every member of a
// company; restricted to the company owner and admins
// @Summary Broadcast a notification to company members
// @Tags notifications
// @Accept json
// @Produce json
// @Param id path uint true "Company ID"
// @Param notification body services.BroadcastNotificationRequest true "Notification data"
// @Success 201 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /companies/{id}/notifications [post]
func (h *NotificationHandler) CreateCompanyNotification(c *gin.Context) {
	companyID := h.parseIDParam(c, "id")
	if companyID == 0 {
		return
	}

	actorID := h.currentUserID(c)
	if actorID == 0 {
		return
	}

	var req services.BroadcastNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	count, err := h.notificationService.CreateForCompany(c.Request.Context(), companyID, &req, actorID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, SuccessResponse{
		Message: "Notifications created",
		Data:    gin.H{"count": count},
	})
}

// MarkNotificationRead marks one of the caller's notifications as read
// @Summary Mark notification read
// @Tags notifications
// @Produce json
// @Param id path uint true "Notification ID"
// @Success 200 {object} services.NotificationResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /notifications/{id}/read [post]
func (h *NotificationHandler) MarkNotificationRead(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID := h.currentUserID(c)
	if userID == 0 {
		return
	}

	notification, err := h.notificationService.MarkRead(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, notification)
}
