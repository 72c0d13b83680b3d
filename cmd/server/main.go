package main

import (
	"log"
	"os"

	"warrantly/internal/auth"
	"warrantly/internal/database"
	"warrantly/internal/handlers"
	"warrantly/internal/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables from .env in development
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Initialize database
	if err := database.InitDB(); err != nil {
		log.Fatal("Failed to initialize database:", err)
	}

	// Google sign-in is optional; password login works without it
	if err := auth.InitOAuth(); err != nil {
		log.Printf("Google sign-in disabled: %v", err)
	}

	// Initialize Gin router
	router := gin.Default()

	// Configure trusted proxies
	router.SetTrustedProxies([]string{"127.0.0.1"})

	// CORS for the frontend
	frontendURL := os.Getenv("FRONTEND_URL")
	if frontendURL == "" {
		frontendURL = "http://localhost:5173"
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{frontendURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		AllowCredentials: true,
	}))

	// Basic routes
	router.GET("/", handlers.HomeHandler)
	router.GET("/health", handlers.HealthHandler)

	// Auth routes (no auth required)
	router.POST("/auth/login", handlers.Login)
	router.POST("/auth/refresh", handlers.RefreshTokenHandler)
	router.GET("/auth/google/login", handlers.GoogleLoginHandler)
	router.GET("/auth/google/callback", handlers.GoogleCallbackHandler)

	// Account routes (no auth required)
	router.POST("/accounts", handlers.CreateAccount)

	// Protected routes (auth required)
	protected := router.Group("")
	protected.Use(auth.AuthMiddleware())
	{
		// Auth routes that require authentication
		protected.POST("/auth/logout", handlers.Logout) // Logout requires auth to invalidate tokens
		protected.GET("/auth/me", handlers.GetCurrentUser)
		protected.GET("/accounts/:username", handlers.GetAccount)

		api := protected.Group("/api")
		{
			api.POST("/products", handlers.CreateProduct)
			api.GET("/products", handlers.GetProducts)
			api.GET("/products/warranty-alerts", handlers.GetWarrantyAlerts)
			api.POST("/products/analyze", handlers.AnalyzeProduct)
			api.GET("/products/:id", handlers.GetProduct)
			api.PUT("/products/:id", handlers.UpdateProduct)
			api.DELETE("/products/:id", handlers.DeleteProduct)
			api.POST("/products/:id/documents", handlers.UploadProductDocument)

			api.GET("/reminders", handlers.GetReminders)
			api.PUT("/reminders/:id/read", handlers.MarkReminderRead)

			api.GET("/settings/notifications", handlers.GetNotificationSettings)
			api.PUT("/settings/notifications", handlers.UpdateNotificationSettings)

			api.GET("/stores/search", handlers.SearchStores)
			api.GET("/stores/validate", handlers.ValidateStore)
		}
	}

	// Start the warranty reminder worker
	worker := services.NewReminderWorker()
	worker.Start()

	// Start the server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("Server starting on port %s...", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal(err)
	}
}
