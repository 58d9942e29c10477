package main

import (
	"context"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"condopix_app/internal/handlers"
	appMiddleware "condopix_app/internal/middleware"
	"condopix_app/internal/repository"
	"condopix_app/internal/services"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	// Initialize Database
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	db, err := services.InitDB(databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := services.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run database migrations: %v", err)
	}

	// Conversation sessions live in Redis when available so restarts do
	// not drop in-progress registrations
	var sessions services.SessionStore
	redisURL := os.Getenv("REDIS_URL")
	if redisURL != "" {
		cache, err := services.NewRedisCache(redisURL)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer cache.Close()
		sessions = services.NewRedisSessionStore(cache)
	} else {
		log.Println("Warning: REDIS_URL not set, conversation sessions are in-memory only")
		sessions = services.NewMemorySessionStore()
	}

	whatsapp := services.NewWhatsAppService()
	mercadopago := services.NewMercadoPagoService()

	// Spreadsheet mirror is optional; payments flow without it
	var mirror services.AuditMirror
	if os.Getenv("GOOGLE_SHEETS_SPREADSHEET_ID") != "" {
		sheets, err := services.NewSheetsService(context.Background())
		if err != nil {
			log.Printf("Warning: Google Sheets initialization failed: %v", err)
		} else {
			mirror = sheets
		}
	}

	clients := repository.NewClientRepository(db)
	payments := repository.NewPaymentRepository(db)
	markers := repository.NewNotificationMarkerRepository(db)

	expiryHours := 6
	if raw := os.Getenv("PIX_EXPIRATION_HOURS"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			log.Printf("Warning: invalid PIX_EXPIRATION_HOURS %q, using default", raw)
		} else {
			expiryHours = parsed
		}
	}

	baseURL := strings.TrimRight(os.Getenv("BASE_URL"), "/")

	conversation := services.NewConversationService(sessions, whatsapp)
	pix := services.NewPIXService(clients, payments, mercadopago, whatsapp, mirror, baseURL, expiryHours)
	processor := services.NewWebhookProcessor(payments, markers, mercadopago, whatsapp, mirror)

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = appMiddleware.CustomErrorHandler

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())

	allowedOrigins := []string{"*"}
	if raw := os.Getenv("ALLOWED_ORIGINS"); raw != "" {
		allowedOrigins = strings.Split(raw, ",")
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: allowedOrigins,
	}))

	// Initialize handlers
	whatsappHandler := handlers.NewWhatsAppHandler(conversation, pix, os.Getenv("WHATSAPP_VERIFY_TOKEN"))
	mercadopagoHandler := handlers.NewMercadoPagoHandler(db, processor)
	pixHandler := handlers.NewPIXHandler(pix, payments)
	systemHandler := handlers.NewSystemHandler()

	// Webhook routes
	e.GET("/webhooks/whatsapp", whatsappHandler.VerifyWebhook)
	e.POST("/webhooks/whatsapp", whatsappHandler.ReceiveWebhook)
	e.POST("/webhooks/mercadopago", mercadopagoHandler.ReceiveWebhook)

	// Operator API
	pixGroup := e.Group("/pix")
	pixGroup.Use(appMiddleware.RequireAPIKey(os.Getenv("API_KEY")))
	pixGroup.POST("/create", pixHandler.CreatePIX)
	pixGroup.GET("/status/:request_id", pixHandler.PaymentStatus)

	// System routes
	e.GET("/health", systemHandler.Health)
	e.GET("/", systemHandler.Root)

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s", port)
	e.Logger.Fatal(e.Start(":" + port))
}
