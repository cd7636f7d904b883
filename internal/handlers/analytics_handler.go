package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/quiz-platform/quiz-service/internal/repositories"
	"github.com/quiz-platform/quiz-service/internal/services"
	"github.com/quiz-platform/quiz-service/internal/utils"
)

type AnalyticsHandler struct {
	BaseHandler
	analyticsService services.AnalyticsService
}

func NewAnalyticsHandler(analyticsService services.AnalyticsService, logger utils.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		BaseHandler:      NewBaseHandler(logger),
		analyticsService: analyticsService,
	}
}

// GetUserRating returns a user's rating across all quizzes (0-10 scale)
// @Summary Get user rating
// @Tags analytics
// @Produce json
// @Param id path uint true "User ID"
// @Success 200 {object} services.UserRatingResponse
// @Failure 404 {object} ErrorResponse
// @Router /users/{id}/rating [get]
func (h *AnalyticsHandler) GetUserRating(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	rating, err := h.analyticsService.GetUserRating(c.Request.Context(), id, nil)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, rating)
}

// GetUserCompanyRating returns a user's rating within one company
// @Summary Get user rating in a company
// @Tags analytics
// @Produce json
// @Param id path uint true "User ID"
// @Param company_id path uint true "Company ID"
// @Success 200 {object} services.UserRatingResponse
// @Failure 404 {object} ErrorResponse
// @Router /users/{id}/companies/{company_id}/rating [get]
func (h *AnalyticsHandler) GetUserCompanyRating(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	companyID := h.parseIDParam(c, "company_id")
	if companyID == 0 {
		return
	}

	rating, err := h.analyticsService.GetUserRating(c.Request.Context(), id, &companyID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, rating)
}

// GetUserAverageScore returns a user's raw correctness ratio (0-1 scale)
// @Summary Get user average score
// @Tags analytics
// @Produce json
// @Param id path uint true "User ID"
// @Success 200 {object} services.UserAverageRatingResponse
// @Failure 404 {object} ErrorResponse
// @Router /users/{id}/average-score [get]
func (h *AnalyticsHandler) GetUserAverageScore(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	average, err := h.analyticsService.GetUserAverageRating(c.Request.Context(), id, nil)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, average)
}

// GetUserCompanyAverageScore returns a user's correctness ratio within one
// company (0-1 scale)
// @Summary Get user average score in a company
// @Tags analytics
// @Produce json
// @Param id path uint true "User ID"
// @Param company_id path uint true "Company ID"
// @Success 200 {object} services.UserAverageRatingResponse
// @Failure 404 {object} ErrorResponse
// @Router /users/{id}/companies/{company_id}/average-score [get]
func (h *AnalyticsHandler) GetUserCompanyAverageScore(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	companyID := h.parseIDParam(c, "company_id")
	if companyID == 0 {
		return
	}

	average, err := h.analyticsService.GetUserAverageRating(c.Request.Context(), id, &companyID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, average)
}

// GetCompanyAverageRating returns a company's correctness ratio (0-1 scale)
// @Summary Get company average rating
// @Tags analytics
// @Produce json
// @Param id path uint true "Company ID"
// @Success 200 {object} services.CompanyAnalyticsResponse
// @Failure 403 {object} ErrorResponse
// @Router /companies/{id}/analytics/average-rating [get]
func (h *AnalyticsHandler) GetCompanyAverageRating(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID := h.currentUserID(c)
	if userID == 0 {
		return
	}

	analytics, err := h.analyticsService.GetCompanyAverageRating(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, analytics)
}

// GetMemberActivity lists members with their latest quiz completion times
// @Summary Get member activity
// @Tags analytics
// @Produce json
// @Param id path uint true "Company ID"
// @Success 200 {array} services.MemberActivityResponse
// @Failure 403 {object} ErrorResponse
// @Router /companies/{id}/analytics/member-activity [get]
func (h *AnalyticsHandler) GetMemberActivity(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID := h.currentUserID(c)
	if userID == 0 {
		return
	}

	activity, err := h.analyticsService.GetMemberActivity(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, activity)
}

// GetUserResults lists a user's quiz results, most recent first
// @Summary Get user quiz results
// @Tags analytics
// @Produce json
// @Param id path uint true "User ID"
// @Success 200 {array} services.QuizResultResponse
// @Failure 403 {object} ErrorResponse
// @Router /users/{id}/results [get]
func (h *AnalyticsHandler) GetUserResults(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID := h.currentUserID(c)
	if userID == 0 {
		return
	}

	limit, offset := h.parsePagination(c)
	filters := repositories.QuizResultFilters{Limit: limit, Offset: offset}

	if companyID, err := strconv.ParseUint(c.Query("company_id"), 10, 32); err == nil && companyID > 0 {
		cid := uint(companyID)
		filters.CompanyID = &cid
	}

	results, err := h.analyticsService.GetUserResults(c.Request.Context(), id, filters, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, results)
}
