package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lingodesk/quiz-service/internal/services"
	"github.com/lingodesk/quiz-service/internal/utils"
)

type GradingHandler struct {
	BaseHandler
	gradingService services.GradingService
}

func NewGradingHandler(gradingService services.GradingService, logger utils.Logger) *GradingHandler {
	return &GradingHandler{
		BaseHandler:    NewBaseHandler(logger),
		gradingService: gradingService,
	}
}

// GradeAttempt grades a submitted attempt
// @Summary Grade attempt
// @Description Scores a submitted attempt against the quiz version it was taken on. Safe to call more than once.
// @Tags grading
// @Produce json
// @Param attempt_id path uint true "Attempt ID"
// @Success 200 {object} models.AttemptResult
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /grading/attempts/{attempt_id} [post]
func (h *GradingHandler) GradeAttempt(c *gin.Context) {
	attemptID := h.parseIDParam(c, "attempt_id")
	if attemptID == 0 {
		return
	}

	h.LogRequest(c, "Grading attempt", "attempt_id", attemptID)

	result, err := h.gradingService.GradeAttempt(c.Request.Context(), attemptID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// RegradeQuiz re-grades every submitted attempt of a quiz
// @Summary Re-grade quiz
// @Description Re-scores all submitted attempts, each against the quiz version it was taken on
// @Tags grading
// @Produce json
// @Param quiz_id path uint true "Quiz ID"
// @Success 200 {object} SuccessResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /grading/quizzes/{quiz_id}/regrade [post]
func (h *GradingHandler) RegradeQuiz(c *gin.Context) {
	quizID := h.parseIDParam(c, "quiz_id")
	if quizID == 0 {
		return
	}
	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Re-grading quiz", "quiz_id", quizID)

	count, err := h.gradingService.RegradeQuiz(c.Request.Context(), quizID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Quiz re-graded",
		Data:    map[string]int{"regraded_attempts": count},
	})
}

// GetResult returns the graded result for an attempt
// @Summary Get result
// @Description Returns the graded result. Students only see their own results, and only when the quiz settings allow it.
// @Tags grading
// @Produce json
// @Param id path uint true "Attempt ID"
// @Success 200 {object} models.AttemptResult
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /attempts/{id}/result [get]
func (h *GradingHandler) GetResult(c *gin.Context) {
	attemptID := h.parseIDParam(c, "id")
	if attemptID == 0 {
		return
	}
	userID, ok := h.getUserID(c)
	if !ok {
		return
	}
	role := h.getUserRole(c)

	result, err := h.gradingService.GetResult(c.Request.Context(), attemptID, userID, role)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
