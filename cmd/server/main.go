package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/farmtofork/farmtofork/backend/market-service/internal/api"
	"github.com/farmtofork/farmtofork/backend/market-service/internal/db"
	"github.com/farmtofork/farmtofork/backend/market-service/internal/logging"
	"github.com/farmtofork/farmtofork/backend/market-service/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables from .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	log.SetOutput(os.Stdout)

	log.Printf("Market Service starting (GIT_SHA=%s BUILD_TIME=%s)", os.Getenv("GIT_SHA"), os.Getenv("BUILD_TIME"))

	// Initialize database connection (non-fatal to allow liveness health checks)
	database, err := db.NewDatabase()
	if err != nil {
		log.Printf("[WARN] Database initialization failed at startup: %v", err)
	}
	if database != nil {
		defer database.Close()
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background())
	if err != nil {
		log.Printf("[WARN] AWS config load failed, decision emails disabled: %v", err)
	}
	emailService := services.NewEmailService(awsCfg)
	identityService := services.NewIdentityService()

	handler := api.NewHandler(database, emailService, identityService)

	router := setupRouter(handler)

	port := os.Getenv("MARKET_PORT")
	if port == "" {
		port = "8083"
	}

	// Set up graceful shutdown
	go func() {
		log.Printf("Starting market service on port %s", port)
		if err := router.Run(":" + port); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down market service...")
}

func setupRouter(handler *api.Handler) *gin.Engine {
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(logging.JSONLogger())
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	// Health and readiness endpoints
	router.GET("/live", func(c *gin.Context) { c.Status(200) })
	router.GET("/ready", handler.Health)
	router.GET("/health", func(c *gin.Context) { c.Status(200) })

	// Public discovery endpoints
	router.GET("/api/listings", handler.GetListings)
	router.GET("/api/listings/nearby", handler.GetNearbyListings)
	router.GET("/api/listings/:listing_id", handler.GetListing)
	router.GET("/api/listings/:listing_id/products", handler.GetListingProducts)

	// Authenticated consumer endpoints
	apiGroup := router.Group("/api")
	apiGroup.Use(api.AuthMiddleware())
	{
		apiGroup.GET("/profile", handler.GetProfile)

		apiGroup.POST("/onboarding/submit-request", handler.SubmitFarmerRequest)
		apiGroup.POST("/onboarding/create-listing", handler.FinalizeListing)

		apiGroup.POST("/orders/create", handler.CreateOrder)
		apiGroup.GET("/orders", handler.GetOrders)
		apiGroup.GET("/orders/:order_id", handler.GetOrder)
	}

	// Farmer endpoints (ownership enforced per-listing inside the handlers)
	farmerGroup := router.Group("/api/farmer")
	farmerGroup.Use(api.AuthMiddleware())
	{
		farmerGroup.PUT("/listing", handler.UpdateListing)
		farmerGroup.POST("/products", handler.CreateProduct)
		farmerGroup.PUT("/products/:product_id", handler.UpdateProduct)
		farmerGroup.GET("/orders", handler.GetFarmerOrders)
		farmerGroup.PUT("/orders/:order_id/status", handler.UpdateFarmerOrderStatus)
	}

	// Admin endpoints
	adminGroup := router.Group("/api/admin")
	adminGroup.Use(api.AuthMiddleware())
	adminGroup.Use(api.AdminMiddleware())
	{
		adminGroup.POST("/validate-farmer-request", handler.DecideFarmerRequest)
		adminGroup.GET("/farmer-requests", handler.GetFarmerRequests)
		adminGroup.GET("/farmer-requests/:request_id", handler.GetFarmerRequest)
	}

	// Root endpoint for basic info
	router.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"service": "market-service",
			"version": "1.0.0",
			"status":  "running",
		})
	})

	return router
}

// corsMiddleware adds CORS headers to allow cross-origin requests
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
