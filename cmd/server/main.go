package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"lumiere/internal/audio"
	"lumiere/internal/config"
	"lumiere/internal/content"
	"lumiere/internal/database"
	"lumiere/internal/gateway"
	"lumiere/internal/handlers"
	"lumiere/internal/models"
	"lumiere/internal/repository"
	"lumiere/internal/security"
	"lumiere/internal/service"
	"lumiere/internal/session"
	"lumiere/internal/validation"
	"lumiere/migrations"
)

func main() {
	// Load configuration
	cfg := config.Load()
	startup := handlers.DefaultStartupStatus()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database with config (supports sqlite, postgres, mysql)
	startup.SetCurrentStep(handlers.StepDatabase)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	log.Printf("Database connection established (type: %s)", db.Dialect.Name())
	startup.AddCheck("database", db.Healthy)
	startup.CompleteStep(handlers.StepDatabase)

	// Run migrations
	startup.SetCurrentStep(handlers.StepMigrations)
	if err := db.RunMigrations(migrations.FS); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Migrations completed successfully")
	startup.CompleteStep(handlers.StepMigrations)

	// Initialize services
	startup.SetCurrentStep(handlers.StepServices)
	gw, err := gateway.New(ctx, gateway.Options{
		APIKey:         cfg.GeminiAPIKey,
		BaseURL:        cfg.GeminiBaseURL,
		VertexProject:  cfg.VertexProject,
		VertexLocation: cfg.VertexLocation,
		LessonModel:    cfg.LessonModel,
		ChatModel:      cfg.ChatModel,
		SpeechModel:    cfg.SpeechModel,
		SpeechVoice:    cfg.SpeechVoice,
		Timeout:        cfg.GatewayTimeout,
		MaxRetries:     cfg.GatewayMaxRetries,
	})
	if err != nil {
		log.Fatalf("Failed to initialize gateway: %v", err)
	}
	if cfg.UsesVertex() {
		log.Printf("Gateway using Vertex AI: project=%s, location=%s", cfg.VertexProject, cfg.VertexLocation)
	}

	kvRepo := repository.NewKVRepository(db)
	statsService := service.NewStatsService(kvRepo, cfg.Location())
	chatService := service.NewChatService(kvRepo, gw)

	if stats, err := statsService.Load(); err != nil {
		log.Printf("Warning: Failed to load stats: %v", err)
	} else if cfg.Debug {
		log.Printf("[DEBUG] Stats on startup: %+v", stats)
	}
	if _, err := chatService.Load(); err != nil {
		log.Printf("Warning: Failed to load chat history: %v", err)
	}

	featured := func() models.Topic {
		return content.Select(statsService.Now()).Topic
	}
	fetchTimeout := cfg.GatewayTimeout * time.Duration(cfg.GatewayMaxRetries+1)
	learnerSession := session.New(gw, statsService, featured, fetchTimeout)

	var reminderSender service.ReminderSender
	emailService, err := service.NewEmailService(ctx, cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName, cfg.AppBaseURL, cfg.Debug)
	if err != nil {
		log.Printf("Warning: Failed to initialize email service: %v", err)
	} else {
		reminderSender = emailService
	}
	reminderTo, reminderHour := cfg.ReminderEmail, cfg.ReminderHour
	if reminderTo != "" {
		if err := validation.ValidateEmail(reminderTo); err != nil {
			log.Printf("Warning: REMINDER_EMAIL ignored: %v", err)
			reminderTo = ""
		}
	}
	if err := validation.ValidateHour("REMINDER_HOUR", reminderHour); err != nil {
		log.Printf("Warning: %v, using 19", err)
		reminderHour = 19
	}
	reminderService := service.NewReminderService(statsService, reminderSender, reminderTo, reminderHour, cfg.ReminderCheckInterval)

	var tokens *security.TokenIssuer
	if cfg.AuthSecret != "" {
		tokens = security.NewTokenIssuer(cfg.AuthSecret)
		log.Println("API access tokens required")
	}
	limiter := security.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow)
	defer limiter.Stop()
	startup.CompleteStep(handlers.StepServices)

	// Audio output
	startup.SetCurrentStep(handlers.StepAudio)
	output := audio.Shared(cfg.AudioPath)
	speechService := service.NewSpeechService(gw, output, "/audio")
	startup.CompleteStep(handlers.StepAudio)

	// Initialize handlers
	middleware := handlers.NewMiddleware(limiter, tokens)
	homeHandler := handlers.NewHomeHandler(statsService, learnerSession)
	lessonHandler := handlers.NewLessonHandler(learnerSession)
	chatHandler := handlers.NewChatHandler(chatService)
	speechHandler := handlers.NewSpeechHandler(speechService, output)

	// Setup routes
	mux := http.NewServeMux()
	api := middleware.RequireToken

	// Static files
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.StaticFilesPath))))
	mux.HandleFunc("GET /audio/{clip}", speechHandler.Clip)
	mux.HandleFunc("GET /healthz", startup.Health)

	// Home and navigation
	mux.HandleFunc("GET /api/home", api(homeHandler.Home))
	mux.HandleFunc("GET /api/profile", api(homeHandler.Profile))
	mux.HandleFunc("GET /api/state", api(homeHandler.State))
	mux.HandleFunc("POST /api/navigate/{view}", api(homeHandler.Navigate))

	// Lesson routes
	mux.HandleFunc("POST /api/lessons/{topicId}", api(middleware.RateLimit(lessonHandler.SelectTopic)))
	mux.HandleFunc("GET /api/lesson", api(lessonHandler.Lesson))
	mux.HandleFunc("POST /api/lesson/next", api(lessonHandler.Next))
	mux.HandleFunc("POST /api/lesson/steps/{step}", api(lessonHandler.GoTo))
	mux.HandleFunc("POST /api/lesson/answers", api(lessonHandler.Answer))
	mux.HandleFunc("POST /api/lesson/finish", api(lessonHandler.Finish))
	mux.HandleFunc("POST /api/lesson/back", api(lessonHandler.Back))

	// Chat routes
	mux.HandleFunc("GET /api/chat/messages", api(chatHandler.Messages))
	mux.HandleFunc("POST /api/chat/messages", api(middleware.RateLimit(chatHandler.Send)))
	mux.HandleFunc("DELETE /api/chat/messages", api(chatHandler.Clear))

	// Speech
	mux.HandleFunc("POST /api/speech", api(middleware.RateLimit(speechHandler.Speak)))

	// Wrap with logging middleware
	handler := handlers.Logging(mux)

	// Start server
	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: fetchTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start background streak reminders
	go reminderService.Run(ctx)

	go func() {
		log.Printf("Server starting on http://localhost%s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()
	startup.MarkReady()

	// Wait for interrupt signal
	<-ctx.Done()
	stop()

	log.Println("Server shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown failed: %v", err)
	}
}
