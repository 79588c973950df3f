package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/UMS-P-2025/coursework-service/internal/models"
	"github.com/UMS-P-2025/coursework-service/internal/services"
	"github.com/UMS-P-2025/coursework-service/internal/storage"
	"github.com/UMS-P-2025/coursework-service/internal/utils"
)

type HandlerManager struct {
	authHandler       *AuthHandler
	adminHandler      *AdminHandler
	subjectHandler    *SubjectHandler
	submissionHandler *SubmissionHandler
	authMiddleware    *AuthMiddleware

	serviceManager services.ServiceManager
}

func NewHandlerManager(serviceManager services.ServiceManager, fileStore storage.FileStore, logger utils.Logger) *HandlerManager {
	return &HandlerManager{
		authHandler:       NewAuthHandler(serviceManager.Auth(), logger),
		adminHandler:      NewAdminHandler(serviceManager.Approval(), logger),
		subjectHandler:    NewSubjectHandler(serviceManager.Subject(), serviceManager.Export(), logger),
		submissionHandler: NewSubmissionHandler(serviceManager.Submission(), fileStore, logger),
		authMiddleware:    NewAuthMiddleware(serviceManager.Auth()),
		serviceManager:    serviceManager,
	}
}

// SetupRoutes sets up all API routes.
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", hm.HealthCheck)

	v1 := router.Group("/api/v1")

	auth := v1.Group("/auth")
	{
		auth.POST("/register/student", hm.authHandler.RegisterStudent)
		auth.POST("/register/faculty", hm.authHandler.RegisterFaculty)
		auth.POST("/login", hm.authHandler.Login)
		auth.GET("/me", hm.authMiddleware.Authenticate(), hm.authHandler.Me)
	}

	admin := v1.Group("/admin")
	admin.Use(hm.authMiddleware.Authenticate(), hm.authMiddleware.RequireRole(models.RoleAdmin))
	{
		admin.GET("/pending-faculty", hm.adminHandler.ListPendingFaculty)
		admin.PUT("/approve-faculty/:id", hm.adminHandler.ApproveFaculty)
		admin.PUT("/reject-faculty/:id", hm.adminHandler.RejectFaculty)
	}

	subjects := v1.Group("/subjects")
	{
		// The catalog is public; everything else requires a login.
		subjects.GET("", hm.subjectHandler.ListSubjects)

		subjects.POST("", hm.authMiddleware.Authenticate(), hm.authMiddleware.RequireRole(models.RoleFaculty), hm.subjectHandler.CreateSubject)
		subjects.POST("/:id/enroll", hm.authMiddleware.Authenticate(), hm.authMiddleware.RequireRole(models.RoleStudent), hm.subjectHandler.Enroll)
		subjects.PUT("/:id/deactivate", hm.authMiddleware.Authenticate(), hm.authMiddleware.RequireRole(models.RoleFaculty, models.RoleAdmin), hm.subjectHandler.Deactivate)
		subjects.GET("/faculty/my-subjects", hm.authMiddleware.Authenticate(), hm.authMiddleware.RequireRole(models.RoleFaculty), hm.subjectHandler.MyFacultySubjects)
		subjects.GET("/student/my-subjects", hm.authMiddleware.Authenticate(), hm.authMiddleware.RequireRole(models.RoleStudent), hm.subjectHandler.MyStudentSubjects)
		subjects.GET("/:id/grades/export", hm.authMiddleware.Authenticate(), hm.authMiddleware.RequireRole(models.RoleFaculty, models.RoleAdmin), hm.subjectHandler.ExportGrades)
	}

	projects := v1.Group("/projects")
	projects.Use(hm.authMiddleware.Authenticate())
	{
		projects.POST("/upload", hm.authMiddleware.RequireRole(models.RoleStudent), hm.submissionHandler.Upload)
		projects.PUT("/evaluate/:id", hm.authMiddleware.RequireRole(models.RoleFaculty, models.RoleAdmin), hm.submissionHandler.Evaluate)
		projects.PUT("/:id/review", hm.authMiddleware.RequireRole(models.RoleFaculty, models.RoleAdmin), hm.submissionHandler.MarkUnderReview)
		projects.GET("/faculty", hm.authMiddleware.RequireRole(models.RoleFaculty), hm.submissionHandler.ListForFaculty)
		projects.GET("/student", hm.authMiddleware.RequireRole(models.RoleStudent), hm.submissionHandler.ListForStudent)
		projects.GET("/subject/:subjectId", hm.authMiddleware.RequireRole(models.RoleFaculty, models.RoleAdmin), hm.submissionHandler.ListBySubject)
	}
}

// HealthCheck reports database reachability.
func (hm *HandlerManager) HealthCheck(c *gin.Context) {
	if err := hm.serviceManager.HealthCheck(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
