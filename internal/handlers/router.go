package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/lingodesk/quiz-service/internal/middleware"
	"github.com/lingodesk/quiz-service/internal/models"
	"github.com/lingodesk/quiz-service/internal/services"
	"github.com/lingodesk/quiz-service/internal/utils"
	"github.com/lingodesk/quiz-service/internal/validator"
)

type HandlerManager struct {
	quizHandler    *QuizHandler
	attemptHandler *AttemptHandler
	gradingHandler *GradingHandler
	reportHandler  *ReportHandler
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	validator *validator.Validator,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		quizHandler:    NewQuizHandler(serviceManager.Quiz(), logger),
		attemptHandler: NewAttemptHandler(serviceManager.Attempt(), validator, logger),
		gradingHandler: NewGradingHandler(serviceManager.Grading(), logger),
		reportHandler:  NewReportHandler(serviceManager.Report(), serviceManager.Export(), logger),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine, auth gin.HandlerFunc) {
	staff := middleware.RequireRole(models.RoleTeacher, models.RoleAdmin)

	// API v1 routes
	v1 := router.Group("/api/v1")
	v1.Use(auth)
	{
		// Quiz routes
		quizzes := v1.Group("/quizzes")
		{
			quizzes.GET("", hm.quizHandler.ListQuizzes)
			quizzes.GET("/:id", hm.quizHandler.GetQuiz)

			quizzes.POST("", staff, hm.quizHandler.CreateQuiz)
			quizzes.GET("/:id/details", staff, hm.quizHandler.GetQuizWithDetails)
			quizzes.PUT("/:id", staff, hm.quizHandler.UpdateQuiz)
			quizzes.DELETE("/:id", staff, hm.quizHandler.DeleteQuiz)
			quizzes.POST("/:id/publish", staff, hm.quizHandler.PublishQuiz)
			quizzes.POST("/:id/archive", staff, hm.quizHandler.ArchiveQuiz)

			quizzes.POST("/:id/attempts", hm.attemptHandler.StartAttempt)
		}

		// Attempt routes
		attempts := v1.Group("/attempts")
		{
			attempts.GET("/:id", hm.attemptHandler.GetAttempt)
			attempts.POST("/:id/resume", hm.attemptHandler.ResumeAttempt)
			attempts.PUT("/:id/answers", hm.attemptHandler.SaveAnswer)
			attempts.POST("/:id/submit", hm.attemptHandler.SubmitAttempt)
			attempts.GET("/:id/result", hm.gradingHandler.GetResult)

			attempts.POST("/:id/timeout", staff, hm.attemptHandler.HandleTimeout)
		}

		// Grading routes
		grading := v1.Group("/grading", staff)
		{
			grading.POST("/attempts/:attempt_id", hm.gradingHandler.GradeAttempt)
			grading.POST("/quizzes/:quiz_id/regrade", hm.gradingHandler.RegradeQuiz)
		}

		// Report routes
		reports := v1.Group("/reports", staff)
		{
			reports.GET("/quizzes/:quiz_id", hm.reportHandler.QuizReport)
			reports.GET("/quizzes/:quiz_id/export", hm.reportHandler.ExportResults)
			reports.GET("/students/:student_id", hm.reportHandler.StudentResults)
		}
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "quiz-service",
		})
	})
}
