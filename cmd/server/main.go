// Package main runs the registration admin HTTP server with WebSocket and graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/retreat-admin/backend/config"
	"github.com/retreat-admin/backend/internal/auth"
	"github.com/retreat-admin/backend/internal/emaillogs"
	"github.com/retreat-admin/backend/internal/idcard"
	"github.com/retreat-admin/backend/internal/invitations"
	"github.com/retreat-admin/backend/internal/middleware"
	"github.com/retreat-admin/backend/internal/models"
	"github.com/retreat-admin/backend/internal/notify"
	"github.com/retreat-admin/backend/internal/payments"
	"github.com/retreat-admin/backend/internal/realtime"
	"github.com/retreat-admin/backend/internal/roster"
	"github.com/retreat-admin/backend/internal/staff"
	"github.com/retreat-admin/backend/internal/volunteers"
	"github.com/retreat-admin/backend/pkg/database"
	"github.com/retreat-admin/backend/pkg/queue"
	"github.com/retreat-admin/backend/pkg/redis"
	"github.com/retreat-admin/backend/pkg/response"
	"github.com/retreat-admin/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), cfg.Database.MaxConns, logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool, logger); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, redis.Options{
		Addr:         cfg.Redis.Addr,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		ConnectTries: 5,
	}, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	var s3Client *storage.S3
	if cfg.AWS.Region != "" {
		s3Client, err = storage.NewS3(ctx, storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			ExportsBucket:        cfg.AWS.ExportsBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
			s3Client = nil
		}
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	redisPubSub := realtime.NewRedisPubSub(rdb.Client, logger)
	hub := realtime.NewHub(logger, redisPubSub, redisPubSub)

	// Auth
	accountRepo := auth.NewRepository(pool)
	if _, err := auth.SeedAdmin(ctx, accountRepo, cfg.Bootstrap.Identifier, cfg.Bootstrap.Password, cfg.Bootstrap.DisplayName, logger); err != nil {
		logger.Fatal("seed bootstrap admin", zap.Error(err))
	}
	var verifier auth.IdentityVerifier
	if cfg.Google.Enabled() {
		verifier = auth.NewGoogleVerifier(cfg.Google.ClientID, cfg.Google.ClientSecret, cfg.Google.RedirectURL)
	}
	issuer := invitations.NewIssuer(cfg.Invitation.Secret, time.Duration(cfg.Invitation.TTLHours)*time.Hour, cfg.Invitation.BaseURL)
	invitationRepo := invitations.NewRepository(pool)
	gate := auth.NewGate(accountRepo, jwtService, verifier, issuer, invitationRepo, cfg.Google.SignInTimeout(), logger)
	authHandler := auth.NewHandler(gate, logger)

	// Settings
	staffHandler := staff.NewHandler(accountRepo, issuer, hub, staff.AccessPolicy{
		AllowedEmails:  cfg.Google.AllowedEmails,
		AllowedDomains: cfg.Google.AllowedDomains,
	}, logger)

	// Roster
	participantRepo := roster.NewRepository(pool)
	rosterHandler := roster.NewHandler(participantRepo, logger)
	volunteerRepo := volunteers.NewRepository(pool)
	volunteerHandler := volunteers.NewHandler(volunteerRepo, logger)

	// Payments and receipts
	dispatcher, err := notify.NewDispatcher(ctx, cfg.Google, cfg.Email, logger)
	if err != nil {
		logger.Warn("receipt transport disabled", zap.Error(err))
		dispatcher = notify.NopDispatcher{Logger: logger}
	}
	emailLogRepo := emaillogs.NewRepository(pool)
	paymentRepo := payments.NewRepository(pool)
	ledger := payments.NewLedger(paymentRepo, dispatcher, emailLogRepo, logger)
	paymentHandler := payments.NewHandler(ledger, participantRepo, paymentRepo, cfg.Payment.DefaultAmount, cfg.Event.Location(), logger)
	jobQueue := queue.NewQueue(rdb.Client, logger)
	emailLogHandler := emaillogs.NewHandler(emailLogRepo, participantRepo, jobQueue, logger)

	// ID cards
	renderer, err := idcard.NewRenderer()
	if err != nil {
		logger.Fatal("card renderer", zap.Error(err))
	}
	var exports idcard.ObjectStore
	if s3Client != nil {
		exports = s3Client
	}
	cardService := idcard.NewService(renderer, idcard.Header{
		Title:       cfg.Event.Title,
		Subtitle:    cfg.Event.Subtitle,
		DateLine:    cfg.Event.DateLine,
		AddressLine: cfg.Event.AddressLine,
	}, participantRepo, volunteerRepo, exports, logger)
	cardHandler := idcard.NewHandler(cardService, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	origins := middleware.ParseOrigins(cfg.Server.CORSAllowedOrigins)
	router.Use(middleware.CORS(origins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Auth (public)
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/google", authHandler.Google)
		authGroup.POST("/invitations/accept", authHandler.AcceptInvitation)
	}

	// Protected API (session required)
	api := router.Group("")
	api.Use(middleware.RequireSession(jwtService))
	{
		api.GET("/auth/me", authHandler.Me)
		api.POST("/auth/logout", authHandler.Logout)

		// Participants
		users := middleware.RequirePermission(models.ModuleUsers)
		api.GET("/participants", users, rosterHandler.List)
		api.GET("/participants/search", middleware.RequirePermission(models.ModuleUsers, models.ModulePayment), rosterHandler.Search)
		api.POST("/participants/scan", middleware.RequirePermission(models.ModuleUsers, models.ModulePayment, models.ModuleAttendance), rosterHandler.Scan)
		api.POST("/participants/bulk-delete", users, rosterHandler.BulkDelete)
		api.POST("/participants/cards/pdf", users, cardHandler.BulkPDF)
		api.POST("/participants/cards/print", users, cardHandler.BulkPrint)
		api.POST("/participants/cards/export", users, cardHandler.Export)
		api.GET("/participants/:id", users, rosterHandler.Get)
		api.PATCH("/participants/:id/code", users, rosterHandler.UpdateCode)
		api.DELETE("/participants/:id", users, rosterHandler.Delete)
		api.GET("/participants/:id/card.png", users, cardHandler.ParticipantCard)
		api.GET("/participants/:id/emails", middleware.RequirePermission(models.ModulePayment, models.ModuleUsers), emailLogHandler.ListByParticipant)
		api.POST("/participants/:id/emails/resend", middleware.RequirePermission(models.ModulePayment), emailLogHandler.Resend)

		// Payments
		payment := middleware.RequirePermission(models.ModulePayment)
		api.POST("/payments", payment, paymentHandler.Record)
		api.GET("/payments/events", payment, paymentHandler.Events)
		api.GET("/payments/history", middleware.RequirePermission(models.ModulePayment, models.ModuleHistory), paymentHandler.History)

		// Volunteers
		vols := middleware.RequirePermission(models.ModuleVolunteers)
		api.GET("/volunteers", vols, volunteerHandler.List)
		api.POST("/volunteers/bulk-delete", vols, volunteerHandler.BulkDelete)
		api.GET("/volunteers/:id", vols, volunteerHandler.Get)
		api.DELETE("/volunteers/:id", vols, volunteerHandler.Delete)
		api.GET("/volunteers/:id/card.png", vols, cardHandler.VolunteerCard)

		// Settings
		settings := middleware.RequirePermission(models.ModuleSettings)
		api.GET("/staff", settings, staffHandler.List)
		api.POST("/staff", settings, staffHandler.Create)
		api.POST("/staff/google", settings, staffHandler.CreateGoogle)
		api.POST("/staff/invitations", settings, staffHandler.Invite)
		api.DELETE("/staff/:id", settings, staffHandler.Delete)
	}

	// WebSocket (token in query; no Authorization header required)
	router.GET("/staff/stream", realtime.ServeWs(hub, staff.Topic, logger, jwtService.Validate, func(claims *auth.Claims) bool {
		return claims.HasPermission(models.ModuleSettings)
	}, origins.CheckRequest))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
