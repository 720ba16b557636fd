package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lingodesk/quiz-service/internal/services"
	"github.com/lingodesk/quiz-service/internal/utils"
)

type ReportHandler struct {
	BaseHandler
	reportService services.ReportService
	exportService services.ExportService
}

func NewReportHandler(
	reportService services.ReportService,
	exportService services.ExportService,
	logger utils.Logger,
) *ReportHandler {
	return &ReportHandler{
		BaseHandler:   NewBaseHandler(logger),
		reportService: reportService,
		exportService: exportService,
	}
}

// QuizReport returns aggregated statistics for a quiz
// @Summary Quiz report
// @Description Aggregates graded results into summary statistics, a score histogram and a ranking
// @Tags reports
// @Produce json
// @Param quiz_id path uint true "Quiz ID"
// @Param batch query []string false "Filter by student batch"
// @Param from query string false "Graded-after filter (RFC3339)"
// @Param to query string false "Graded-before filter (RFC3339)"
// @Param pass_threshold query number false "Override the quiz pass mark"
// @Success 200 {object} services.QuizReport
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /reports/quizzes/{quiz_id} [get]
func (h *ReportHandler) QuizReport(c *gin.Context) {
	quizID := h.parseIDParam(c, "quiz_id")
	if quizID == 0 {
		return
	}
	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	opts, err := parseReportOptions(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid report filters",
			Details: err.Error(),
		})
		return
	}

	report, err := h.reportService.QuizReport(c.Request.Context(), quizID, opts, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// ExportResults streams the graded results of a quiz as an xlsx workbook
// @Summary Export results
// @Tags reports
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param quiz_id path uint true "Quiz ID"
// @Success 200 {file} binary
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /reports/quizzes/{quiz_id}/export [get]
func (h *ReportHandler) ExportResults(c *gin.Context) {
	quizID := h.parseIDParam(c, "quiz_id")
	if quizID == 0 {
		return
	}
	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Exporting quiz results", "quiz_id", quizID)

	file, err := h.exportService.ExportQuizResults(c.Request.Context(), quizID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	buf, err := file.WriteToBuffer()
	if err != nil {
		h.LogError(c, err, "Failed to serialize export file")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Failed to generate export file",
		})
		return
	}

	filename := fmt.Sprintf("quiz_%d_results.xlsx", quizID)
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		buf.Bytes())
}

// StudentResults returns all graded results of one student
// @Summary Student results
// @Tags reports
// @Produce json
// @Param student_id path string true "Student ID"
// @Success 200 {array} models.AttemptResult
// @Failure 404 {object} ErrorResponse
// @Router /reports/students/{student_id} [get]
func (h *ReportHandler) StudentResults(c *gin.Context) {
	studentID := h.parseStringIDParam(c, "student_id")
	if studentID == "" {
		return
	}

	results, err := h.reportService.StudentResults(c.Request.Context(), studentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, results)
}

func parseReportOptions(c *gin.Context) (services.ReportOptions, error) {
	opts := services.ReportOptions{
		Batches: c.QueryArray("batch"),
	}
	if raw := c.Query("pass_threshold"); raw != "" {
		threshold, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return opts, fmt.Errorf("pass_threshold: %w", err)
		}
		opts.PassThreshold = &threshold
	}
	if raw := c.Query("from"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return opts, fmt.Errorf("from: %w", err)
		}
		opts.From = &from
	}
	if raw := c.Query("to"); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return opts, fmt.Errorf("to: %w", err)
		}
		opts.To = &to
	}
	return opts, nil
}
