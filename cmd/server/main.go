package main

import (
	"log"
	"os"
	"time"

	"office-management-backend/internal/config"
	"office-management-backend/internal/models"
	"office-management-backend/internal/routes"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on system env")
	}

	db := config.InitDB()

	db.AutoMigrate(
		&models.Office{},
		&models.User{},
		&models.Range{},
		&models.District{},
		&models.Client{},
		&models.ImportJob{},
		&models.ActivityLog{},
	)

	r := gin.Default()
	// CORS config
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	logger := config.GetLogger()
	settings := config.LoadSettings()

	if err := routes.RegisterRoutes(r, db, logger, settings); err != nil {
		log.Fatalf("failed to register routes: %v", err)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	r.Run(":" + port)
}
