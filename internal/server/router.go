package server

import (
	"net/http"

	"fieldops/internal/config"
	"fieldops/internal/handlers"
	"fieldops/internal/middleware"
	"fieldops/internal/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

func NewRouter(cfg *config.Config) *gin.Engine {
	r := gin.Default()

	store := cookie.NewStore([]byte(cfg.SessionSecret))
	r.Use(sessions.Sessions("fieldops_session", store))

	// AUTH
	r.POST("/login", handlers.Login)
	r.GET("/logout", handlers.Logout)
	r.POST("/auth/pin", handlers.RequestLoginPin)
	r.GET("/auth/pin/:code", handlers.LoginPinStatus)

	// файлы из объектного хранилища (фото-подтверждения, вложения)
	r.GET("/files/*name", handlers.ServeFile)

	auth := r.Group("/")
	auth.Use(middleware.RequireAuth())
	auth.Use(middleware.InjectUser())

	// ЗАДАЧИ
	auth.GET("/tasks", handlers.ListTasks)
	auth.GET("/tasks/:id", handlers.GetTask)
	auth.POST("/tasks",
		middleware.RequireRole(models.RoleAdmin),
		handlers.CreateTask,
	)
	auth.PUT("/tasks/:id",
		middleware.RequireRole(models.RoleAdmin),
		handlers.UpdateTask,
	)
	auth.DELETE("/tasks/:id",
		middleware.RequireRole(models.RoleAdmin),
		handlers.DeleteTask,
	)

	// жизненный цикл — только исполнители, проверка внутри
	auth.POST("/tasks/:id/transition", handlers.TransitionTask)
	auth.PATCH("/tasks/:id/progress", handlers.UpdateProgress)
	auth.POST("/tasks/:id/attachments", handlers.UploadAttachments)
	auth.POST("/tasks/:id/proof", handlers.SubmitProof)

	auth.POST("/tasks/:id/reassign",
		middleware.RequireRole(models.RoleAdmin),
		handlers.RequestReassignment,
	)
	auth.POST("/tasks/forward-overdue",
		middleware.RequireRole(models.RoleAdmin),
		handlers.ForwardOverdueTasks,
	)

	// ПОДТВЕРЖДЕНИЯ
	auth.POST("/proofs/:id/review",
		middleware.RequireRole(models.RoleAdmin),
		handlers.ReviewProof,
	)

	// ЗАКАЗЫ
	auth.GET("/jobs", handlers.ListJobs)
	auth.GET("/jobs/:id", handlers.GetJob)
	auth.POST("/jobs",
		middleware.RequireRole(models.RoleAdmin),
		handlers.CreateJob,
	)
	auth.PUT("/jobs/:id",
		middleware.RequireRole(models.RoleAdmin),
		handlers.UpdateJob,
	)
	auth.POST("/jobs/:id/materials",
		middleware.RequireRole(models.RoleAdmin),
		handlers.AddJobMaterial,
	)

	// ПОЛЬЗОВАТЕЛИ
	auth.GET("/users",
		middleware.RequireRole(models.RoleAdmin),
		handlers.ListUsers,
	)
	auth.POST("/users",
		middleware.RequireRole(models.RoleAdmin),
		handlers.CreateUser,
	)
	auth.PUT("/users/:id", handlers.UpdateUser)
	auth.DELETE("/users/:id",
		middleware.RequireRole(models.RoleAdmin),
		handlers.DeleteUser,
	)

	// PIN-входы — решение админа
	auth.POST("/auth/pin/:code/review",
		middleware.RequireRole(models.RoleAdmin),
		handlers.ReviewLoginPin,
	)

	// ВСТРЕЧИ
	auth.POST("/meetings", handlers.CreateMeeting)
	auth.POST("/meetings/accept", handlers.AcceptMeeting)
	auth.POST("/meetings/cancel", handlers.CancelMeeting)

	// АУДИТ
	auth.GET("/audit",
		middleware.RequireRole(models.RoleAdmin),
		handlers.ListAuditLogs,
	)

	// HEALTHCHECK
	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	return r
}
