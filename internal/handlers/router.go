package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/quiz-platform/quiz-service/internal/repositories/casdoor"
	"github.com/quiz-platform/quiz-service/internal/services"
	"github.com/quiz-platform/quiz-service/internal/utils"
	"github.com/quiz-platform/quiz-service/internal/validator"
)

type HandlerManager struct {
	userHandler         *UserHandler
	companyHandler      *CompanyHandler
	invitationHandler   *InvitationHandler
	quizHandler         *QuizHandler
	analyticsHandler    *AnalyticsHandler
	notificationHandler *NotificationHandler
	exportHandler       *ExportHandler
	authMiddleware      *CasdoorAuthMiddleware
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	validator *validator.Validator,
	logger utils.Logger,
	accountDirectory *casdoor.AccountDirectory,
) *HandlerManager {
	authMiddleware := NewCasdoorAuthMiddleware(accountDirectory, serviceManager.User())

	return &HandlerManager{
		userHandler:         NewUserHandler(serviceManager.User(), logger),
		companyHandler:      NewCompanyHandler(serviceManager.Company(), serviceManager.Invitation(), validator, logger),
		invitationHandler:   NewInvitationHandler(serviceManager.Invitation(), validator, logger),
		quizHandler:         NewQuizHandler(serviceManager.Quiz(), validator, logger),
		analyticsHandler:    NewAnalyticsHandler(serviceManager.Analytics(), logger),
		notificationHandler: NewNotificationHandler(serviceManager.Notification(), logger),
		exportHandler:       NewExportHandler(serviceManager.Export(), logger),
		authMiddleware:      authMiddleware,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	// API v1 routes with authentication
	v1 := router.Group("/api/v1")
	v1.Use(hm.authMiddleware.AuthMiddleware()) // Apply authentication to all API routes
	{
		// User routes
		users := v1.Group("/users")
		{
			users.POST("", hm.userHandler.CreateUser)
			users.GET("", hm.userHandler.ListUsers)
			users.GET("/me", hm.userHandler.GetCurrentUser)
			users.GET("/:id", hm.userHandler.GetUser)
			users.PUT("/:id", hm.userHandler.UpdateUser)
			users.DELETE("/:id", hm.userHandler.DeleteUser)

			// Per-user analytics
			users.GET("/:id/rating", hm.analyticsHandler.GetUserRating)
			users.GET("/:id/average-score", hm.analyticsHandler.GetUserAverageScore)
			users.GET("/:id/companies/:company_id/rating", hm.analyticsHandler.GetUserCompanyRating)
			users.GET("/:id/companies/:company_id/average-score", hm.analyticsHandler.GetUserCompanyAverageScore)
			users.GET("/:id/results", hm.analyticsHandler.GetUserResults)
		}

		// Company routes
		companies := v1.Group("/companies")
		{
			companies.POST("", hm.companyHandler.CreateCompany)
			companies.GET("", hm.companyHandler.ListCompanies)
			companies.GET("/:id", hm.companyHandler.GetCompany)
			companies.PUT("/:id", hm.companyHandler.UpdateCompany)
			companies.DELETE("/:id", hm.companyHandler.DeleteCompany)

			// Membership management
			companies.GET("/:id/members", hm.companyHandler.GetMembers)
			companies.DELETE("/:id/members/:user_id", hm.companyHandler.RemoveMember)
			companies.POST("/:id/leave", hm.companyHandler.LeaveCompany)

			// Admin set management - owner only, enforced in the service
			companies.GET("/:id/admins", hm.companyHandler.GetAdmins)
			companies.POST("/:id/admins/:user_id", hm.companyHandler.AppointAdmin)
			companies.DELETE("/:id/admins/:user_id", hm.companyHandler.RemoveAdmin)

			// Pending invitations and join requests
			companies.GET("/:id/invitations", hm.companyHandler.GetInvitations)

			// Quizzes scoped to the company
			companies.GET("/:id/quizzes", hm.quizHandler.ListCompanyQuizzes)

			// Company analytics
			companies.GET("/:id/analytics/average-rating", hm.analyticsHandler.GetCompanyAverageRating)
			companies.GET("/:id/analytics/member-activity", hm.analyticsHandler.GetMemberActivity)

			// Member-wide notification broadcast
			companies.POST("/:id/notifications", hm.notificationHandler.CreateCompanyNotification)

			// Result exports
			companies.GET("/:id/exports/results", hm.exportHandler.ExportCompanyResults)
		}

		// Invitation routes
		invitations := v1.Group("/invitations")
		{
			invitations.POST("/send", hm.invitationHandler.SendInvitation)
			invitations.POST("/request", hm.invitationHandler.SendRequest)
			invitations.GET("/invited", hm.invitationHandler.ListInvitedCompanies)
			invitations.GET("/requested", hm.invitationHandler.ListRequestedCompanies)
			invitations.GET("/:id", hm.invitationHandler.GetInvitation)
			invitations.POST("/:id/accept", hm.invitationHandler.AcceptInvitation)
			invitations.POST("/:id/reject", hm.invitationHandler.RejectInvitation)
			invitations.DELETE("/:id", hm.invitationHandler.RevokeInvitation)
		}

		// Quiz routes
		quizzes := v1.Group("/quizzes")
		{
			quizzes.POST("", hm.quizHandler.CreateQuiz)
			quizzes.GET("/:id", hm.quizHandler.GetQuiz)
			quizzes.PUT("/:id", hm.quizHandler.UpdateQuiz)
			quizzes.DELETE("/:id", hm.quizHandler.DeleteQuiz)
			quizzes.POST("/:id/results", hm.quizHandler.SubmitResult)
		}

		// Notification routes
		notifications := v1.Group("/notifications")
		{
			notifications.GET("", hm.notificationHandler.ListNotifications)
			notifications.POST("/:id/read", hm.notificationHandler.MarkNotificationRead)
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
