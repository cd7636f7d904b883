package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/quiz-platform/quiz-service/internal/services"
	"github.com/quiz-platform/quiz-service/internal/utils"
)

type ExportHandler struct {
	BaseHandler
	exportService services.ExportService
}

func NewExportHandler(exportService services.ExportService, logger utils.Logger) *ExportHandler {
	return &ExportHandler{
		BaseHandler:   NewBaseHandler(logger),
		exportService: exportService,
	}
}

// ExportCompanyResults downloads a company's quiz results as a file
// @Summary Export company quiz results
// @Tags exports
// @Produce json
// @Param id path uint true "Company ID"
// @Param format query string false "Export format: json, csv or xlsx" default(json)
// @Param quiz_id query uint false "Restrict to one quiz"
// @Param user_id query uint false "Restrict to one user"
// @Success 200 {file} binary
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /companies/{id}/exports/results [get]
func (h *ExportHandler) ExportCompanyResults(c *gin.Context) {
	companyID := h.parseIDParam(c, "id")
	if companyID == 0 {
		return
	}

	userID := h.currentUserID(c)
	if userID == 0 {
		return
	}

	filters := services.ExportFilters{CompanyID: companyID}
	if quizID, err := strconv.ParseUint(c.Query("quiz_id"), 10, 32); err == nil && quizID > 0 {
		id := uint(quizID)
		filters.QuizID = &id
	}
	if targetID, err := strconv.ParseUint(c.Query("user_id"), 10, 32); err == nil && targetID > 0 {
		id := uint(targetID)
		filters.UserID = &id
	}

	format := services.ExportFormat(c.DefaultQuery("format", string(services.ExportJSON)))

	h.LogRequest(c, "Exporting quiz results",
		"company_id", companyID,
		"format", string(format),
		"actor_id", userID)

	file, err := h.exportService.ExportResults(c.Request.Context(), filters, format, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+file.FileName+`"`)
	c.Data(http.StatusOK, file.ContentType, file.Data)
}
