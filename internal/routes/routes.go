package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"office-management-backend/internal/config"
	handler "office-management-backend/internal/handlers"
	"office-management-backend/internal/middleware"
	"office-management-backend/internal/repository"
	"office-management-backend/internal/services/accounts"
	"office-management-backend/internal/services/clients"
	"office-management-backend/internal/services/dashboard"
	"office-management-backend/internal/services/importer"
	"office-management-backend/internal/storage"
)

func RegisterRoutes(r *gin.Engine, db *gorm.DB, log *logrus.Logger, settings config.Settings) error {
	files, err := newFileStore(settings)
	if err != nil {
		return err
	}

	uow := repository.NewUnitOfWork(db, log)
	jobRepo := repository.NewImportJobRepository(db)

	importService := importer.NewService(uow, jobRepo, files, log, settings.MarkFailedOnError)
	clientService := clients.NewService(db, log)
	accountService := accounts.NewService(db)
	dashboardService := dashboard.NewService(db)

	importHandler := handler.NewImportHandler(importService, settings.MaxUploadBytes)
	clientHandler := handler.NewClientHandler(clientService)
	authHandler := handler.NewAuthHandler(accountService)
	dashboardHandler := handler.NewDashboardHandler(dashboardService)

	api := r.Group("/api")

	// Health check
	api.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	auth := api.Group("/auth")
	auth.POST("/register-office", authHandler.RegisterOffice)
	auth.POST("/login", authHandler.Login)

	imports := api.Group("/imports")
	imports.Use(middleware.RequireAuth())
	imports.POST("/upload", importHandler.Upload)
	imports.POST("/confirm", importHandler.Confirm)
	imports.GET("/:id", importHandler.GetJob)

	clientRoutes := api.Group("/clients")
	clientRoutes.Use(middleware.RequireAuth())
	clientRoutes.POST("", clientHandler.Create)
	clientRoutes.GET("", clientHandler.List)
	clientRoutes.PATCH("/bulk-assign", clientHandler.BulkAssign)
	clientRoutes.GET("/:id", clientHandler.Get)
	clientRoutes.PATCH("/:id", clientHandler.Update)
	clientRoutes.DELETE("/:id", clientHandler.Delete)

	dash := api.Group("/dashboard")
	dash.Use(middleware.RequireAuth())
	dash.GET("/ceo", middleware.RequireRole("CEO"), dashboardHandler.CEO)
	dash.GET("/ao", middleware.RequireRole("AO", "CEO"), dashboardHandler.AO)

	return nil
}

func newFileStore(settings config.Settings) (storage.FileStore, error) {
	if settings.StorageBackend == "gcs" {
		return storage.NewGCSStore()
	}
	return storage.NewLocalStore(settings.LocalStorageDir), nil
}
