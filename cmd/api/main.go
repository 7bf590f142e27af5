package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	_ "github.com/joho/godotenv/autoload"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/jrmendez/caja-api/docs" // Swagger docs
	"github.com/jrmendez/caja-api/internal/config"
	"github.com/jrmendez/caja-api/internal/database"
	"github.com/jrmendez/caja-api/internal/handlers"
	"github.com/jrmendez/caja-api/internal/jobs"
	"github.com/jrmendez/caja-api/internal/middleware"
	"github.com/jrmendez/caja-api/internal/repository"
	"github.com/jrmendez/caja-api/internal/services"
	"github.com/jrmendez/caja-api/internal/storage"
	"github.com/jrmendez/caja-api/pkg/logger"

	"github.com/gin-gonic/gin"
)

// @title Caja API
// @version 1.0
// @description REST API for the Caja market-lending cash ledger

// @contact.name API Support

// @license.name MIT

// @host localhost:8080
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Setup(cfg.Environment)

	// Initialize Sentry when DSN is configured
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			TracesSampleRate: 0.2,
			Environment:      cfg.Environment,
		}); err != nil {
			logger.Error("Sentry initialization failed", "error", err)
		} else {
			logger.Info("Sentry initialized")
		}
	}

	// Warn if Resend email is not configured
	if cfg.ResendAPIKey == "" || cfg.FromEmail == "" {
		logger.Warn("Resend email disabled: RESEND_API_KEY or FROM_EMAIL not set. Account and daily summary emails will be skipped.")
	}

	// Set Gin mode
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	logger.Info("Connected to database")

	// Run migrations
	if err := database.Migrate(db); err != nil {
		logger.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	logger.Info("Database migrated")

	// Initialize storage
	store, err := storage.NewLocalStorage(cfg.StoragePath)
	if err != nil {
		logger.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	logger.Info("Initialized local storage")

	// Initialize repositories
	repos := repository.NewRepositories(db)

	// Initialize background worker
	worker := jobs.NewWorker(cfg.WorkerCount)
	logger.Info("Started background worker", "goroutines", cfg.WorkerCount)

	// Initialize services
	svcs := services.NewServices(repos, cfg)

	// Schedule recurring jobs
	scheduleJobs(worker, svcs, repos)

	// Initialize handlers
	h := handlers.NewHandlers(svcs, store, worker)

	// Setup router
	router := setupRouter(h, cfg)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	// Create context with timeout for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	// Shutdown background worker
	worker.Shutdown()
	logger.Info("Background worker stopped")

	// Flush Sentry events before exit
	if cfg.SentryDSN != "" {
		sentry.Flush(5 * time.Second)
	}

	logger.Info("Server exited gracefully")
}

func setupRouter(h *handlers.Handlers, cfg *config.Config) *gin.Engine {
	router := gin.New()

	// Global middleware
	if cfg.SentryDSN != "" {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.CORS(cfg.AllowedOrigins))
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	// Redirect root to swagger
	router.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Uploaded files (collection photos, expense receipts)
	router.Static("/uploads", cfg.StoragePath+"/uploads")

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Health check (public)
		v1.GET("/health", h.Health.Index)

		// Authentication (public)
		auth := v1.Group("/auth")
		{
			auth.POST("/login", h.Auth.Login)
			auth.POST("/refresh", h.Auth.Refresh)
			auth.POST("/logout", h.Auth.Logout)
		}

		// Protected routes (requires authentication)
		protected := v1.Group("")
		protected.Use(middleware.Auth(cfg.JWTSecret))
		{
			// Admin-only routes
			admin := protected.Group("")
			admin.Use(middleware.RequireAdmin())
			{
				// User management
				admin.GET("/users", h.User.Index)
				admin.POST("/users", h.User.Create)
				admin.DELETE("/users/:user_id", h.User.Destroy)
				admin.POST("/users/:user_id/restore", h.User.Restore)
				admin.POST("/users/:user_id/toggle_status", h.User.ToggleStatus)
				admin.POST("/users/:user_id/reset_password", h.User.ResetPassword)

				// Market management (everyone can read, only admins change them)
				admin.POST("/markets", h.Market.Create)
				admin.PUT("/markets/:market_id", h.Market.Update)
				admin.DELETE("/markets/:market_id", h.Market.Destroy)

				// Loan terms and lifecycle
				admin.PUT("/loans/:loan_id", h.Loan.Update)
				admin.POST("/loans/:loan_id/close", h.Loan.Close)
				admin.POST("/loans/:loan_id/reopen", h.Loan.Reopen)

				// Destructive ledger operations
				admin.DELETE("/collections/:collection_id", h.Collection.Destroy)
				admin.DELETE("/customers/:customer_id", h.Customer.Destroy)

				// Reports
				admin.GET("/reports/summary", h.Report.Summary)
				admin.GET("/reports/summary/pdf", h.Report.SummaryPDF)
				admin.GET("/reports/reconciliation", h.Report.Reconciliation)
				admin.GET("/reports/collections/export", h.Report.ExportCollections)

				// Audit trail
				admin.GET("/audit_logs", h.Audit.Index)
			}

			// Own profile (admin can reach any profile)
			protected.GET("/users/:user_id", middleware.RequireAdminOrOwner(), h.User.Show)
			protected.PUT("/users/:user_id", middleware.RequireAdminOrOwner(), h.User.Update)
			protected.PUT("/users/me/password", h.User.ChangePassword)

			// Customers
			protected.GET("/customers", h.Customer.Index)
			protected.GET("/customers/:customer_id", h.Customer.Show)
			protected.POST("/customers", h.Customer.Create)
			protected.PUT("/customers/:customer_id", h.Customer.Update)
			protected.GET("/customers/:customer_id/statement", h.Customer.Statement)

			// Markets (read only for collectors)
			protected.GET("/markets", h.Market.Index)
			protected.GET("/markets/:market_id", h.Market.Show)

			// Loans
			protected.GET("/loans", h.Loan.Index)
			protected.GET("/loans/delinquent", h.Loan.Delinquent)
			protected.GET("/loans/:loan_id", h.Loan.Show)
			protected.POST("/loans", h.Loan.Create)

			// Collections (the daily ledger)
			protected.POST("/collections", h.Collection.Create)
			protected.GET("/collections", h.Collection.Index)
			protected.GET("/collections/:collection_id", h.Collection.Show)
			protected.PUT("/collections/:collection_id", h.Collection.Update)
			protected.PUT("/collections/:collection_id/details/member/:customer_id", h.Collection.UpdateDetail)
			protected.DELETE("/collections/:collection_id/details/member/:customer_id", h.Collection.DeleteDetail)
			// Older mobile clients delete details through a POST
			protected.POST("/collections/:collection_id/details/member/:customer_id/delete", h.Collection.DeleteDetail)
			protected.POST("/collections/:collection_id/photo", h.Collection.AttachPhoto)

			// Expenses
			protected.GET("/expenses", h.Expense.Index)
			protected.GET("/expenses/:expense_id", h.Expense.Show)
			protected.POST("/expenses", h.Expense.Create)
			protected.PUT("/expenses/:expense_id", h.Expense.Update)
			protected.DELETE("/expenses/:expense_id", h.Expense.Destroy)
			protected.POST("/expenses/:expense_id/receipt", h.Expense.AttachReceipt)
			protected.GET("/expenses/:expense_id/receipt", h.Expense.DownloadReceipt)
		}
	}

	return router
}

func scheduleJobs(worker *jobs.Worker, svcs *services.Services, repos *repository.Repositories) {
	// End-of-day reconciliation email to every admin
	worker.ScheduleEvery(24*time.Hour, func(ctx context.Context) error {
		logger.Info("[Job] Sending daily reconciliation summary...")
		summary, rows, err := svcs.Report.DailySummary(ctx, "")
		if err != nil {
			return err
		}
		admins, err := repos.User.FindAdmins(ctx)
		if err != nil {
			return err
		}
		// Mail delivery must not hold the scheduler slot
		worker.EnqueueAsync(func(ctx context.Context) error {
			return svcs.Email.SendDailySummary(ctx, admins, summary, rows)
		})
		return nil
	})

	// Expired refresh tokens accumulate one row per login; prune daily
	worker.ScheduleEveryImmediate(24*time.Hour, func(ctx context.Context) error {
		pruned, err := repos.RefreshToken.DeleteExpired(ctx)
		if err != nil {
			return err
		}
		if pruned > 0 {
			logger.Info("[Job] Pruned expired refresh tokens", "count", pruned)
		}
		return nil
	})

	// Flag loans past their agreed end date
	worker.ScheduleEveryImmediate(12*time.Hour, func(ctx context.Context) error {
		logger.Info("[Job] Scanning for delinquent loans...")
		loans, err := svcs.Loan.FindDelinquent(ctx)
		if err != nil {
			return err
		}
		if len(loans) > 0 {
			logger.Warn("Delinquent loans found", "count", len(loans))
		}
		return nil
	})

	logger.Info("Scheduled recurring jobs")
}
