package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/bihar-gov/sevalink/internal/adapters/legacy"
	"github.com/bihar-gov/sevalink/internal/analytics"
	"github.com/bihar-gov/sevalink/internal/attachment"
	complaintapi "github.com/bihar-gov/sevalink/internal/complaint/api"
	complaintinfra "github.com/bihar-gov/sevalink/internal/complaint/infrastructure"
	"github.com/bihar-gov/sevalink/internal/department"
	"github.com/bihar-gov/sevalink/internal/notification"
	"github.com/bihar-gov/sevalink/internal/routing"
	"github.com/bihar-gov/sevalink/internal/shared/auth"
	"github.com/bihar-gov/sevalink/internal/shared/config"
	"github.com/bihar-gov/sevalink/internal/shared/database"
	"github.com/bihar-gov/sevalink/internal/shared/events"
	"github.com/bihar-gov/sevalink/internal/shared/metrics"
	secmiddleware "github.com/bihar-gov/sevalink/internal/shared/middleware"
	"github.com/bihar-gov/sevalink/internal/user"
)

// App holds all application dependencies
type App struct {
	Config  *config.Config
	DB      *database.DB
	Bus     *events.Bus
	Storage *attachment.Storage
	Notify  *notification.Service
}

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	app := &App{Config: cfg}

	// Database (optional, degraded mode without it)
	db, err := database.New(ctx, cfg.Database)
	if err != nil {
		logrus.WithError(err).Warn("database not available, running in limited mode")
	} else {
		app.DB = db
		defer db.Close()

		if err := database.Migrate(ctx, db.Pool); err != nil {
			logrus.WithError(err).Warn("migration failed")
		}
	}

	// Event bus (optional)
	if cfg.EventBus.Enabled {
		bus, err := events.NewBus(ctx, cfg.EventBus)
		if err != nil {
			logrus.WithError(err).Warn("event store not available, running without lifecycle events")
		} else {
			app.Bus = bus
			defer bus.Close()
		}
	}

	// Attachment storage (optional)
	storage, err := attachment.NewStorage(cfg.Storage)
	if err != nil {
		logrus.WithError(err).Warn("object storage not available, uploads disabled")
	} else {
		app.Storage = storage
		if err := storage.EnsureBucket(ctx); err != nil {
			logrus.WithError(err).Warn("attachment bucket not ready")
		}
	}

	// Notification dispatcher
	app.Notify = notificationService(app)
	if err := app.Notify.Start(ctx); err != nil {
		logrus.WithError(err).Warn("notification dispatcher failed to start")
	}
	defer app.Notify.Stop()

	if app.DB != nil {
		seedAndImport(ctx, app)
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(secmiddleware.SecurityHeaders)
	r.Use(metrics.Middleware)
	r.Use(secmiddleware.CORS(secmiddleware.DefaultCORSConfig()))

	// Health checks (unauthenticated)
	r.Get("/health", healthHandler)
	r.Get("/ready", readyHandler(app))
	r.Handle("/metrics", metrics.Handler())

	r.Get("/", infoHandler)

	limiter := secmiddleware.NewIPRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)

	jsonBody := secmiddleware.MaxBody(1 << 20)
	uploadBody := secmiddleware.MaxBody(attachment.MaxUploadSize + 1<<20)

	// Dev mode skips auth so the portal can be exercised locally; the
	// admin guard degrades to a passthrough alongside it
	adminOnly := auth.Passthrough()
	if cfg.Server.Env == "production" {
		adminOnly = auth.RequireRoles(auth.RoleAdmin)
	}

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.Server.Env == "production" {
			r.Use(auth.Middleware(cfg.Auth))
		}

		if app.DB != nil {
			deptRepo := department.NewRepository(app.DB.Pool)
			r.With(jsonBody).Mount("/departments", department.NewHandler(deptRepo, adminOnly).Routes())

			complaintRepo := complaintinfra.NewPostgresRepository(app.DB.Pool)
			router := routing.NewEngine(deptRepo)
			complaintHandler := complaintapi.NewHandler(complaintRepo, router, busOrNil(app), app.Notify)
			r.With(jsonBody, limiter.Middleware).Mount("/complaints", complaintHandler.Routes())

			analyticsService := analytics.NewService(analytics.NewPostgresRepository(app.DB.Pool))
			r.With(jsonBody).Mount("/analytics", analytics.NewHandler(analyticsService, adminOnly).Routes())

			logRepo := notification.NewLogRepository(app.DB.Pool, cfg.Notify.MaxLogEntries)
			r.With(jsonBody).Mount("/notifications", notification.NewHandler(logRepo, adminOnly).Routes())
		}

		if app.Storage != nil {
			r.With(uploadBody, limiter.Middleware).Mount("/uploads", attachment.NewHandler(app.Storage, adminOnly).Routes())
		}
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan bool)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		logrus.Info("shutting down server")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logrus.WithError(err).Error("server shutdown error")
		}
		close(done)
	}()

	logrus.WithFields(logrus.Fields{
		"env":  cfg.Server.Env,
		"port": cfg.Server.Port,
	}).Info("SevaLink citizen complaint portal listening")

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}

	<-done
	logrus.Info("server stopped")
}

// notificationService wires delivery providers from config, falling
// back to console delivery when no relay or gateway is configured
func notificationService(app *App) *notification.Service {
	cfg := app.Config.Notify

	var email notification.Provider = notification.NewConsoleProvider(notification.ChannelEmail)
	if cfg.SMTPHost != "" {
		email = notification.NewSMTPEmailProvider(cfg)
	}

	var sms notification.Provider = notification.NewConsoleProvider(notification.ChannelSMS)
	if cfg.SMSGatewayURL != "" {
		sms = notification.NewHTTPSMSProvider(cfg)
	}

	var logRepo *notification.LogRepository
	if app.DB != nil {
		logRepo = notification.NewLogRepository(app.DB.Pool, cfg.MaxLogEntries)
	}

	return notification.NewService(email, sms, logRepo, cfg)
}

// seedAndImport populates the department directory and staff accounts,
// then pulls departments from the legacy state registry when enabled
func seedAndImport(ctx context.Context, app *App) {
	deptRepo := department.NewRepository(app.DB.Pool)

	if app.Config.Seed.OnStart {
		if err := department.Seed(ctx, deptRepo); err != nil {
			logrus.WithError(err).Warn("department seeding failed")
		}

		departments, _, err := deptRepo.List(ctx, department.ListFilter{ActiveOnly: true})
		if err != nil {
			logrus.WithError(err).Warn("could not list departments for staff seeding")
		} else if err := user.Seed(ctx, user.NewRepository(app.DB.Pool), departments); err != nil {
			logrus.WithError(err).Warn("staff seeding failed")
		}
	}

	if app.Config.Legacy.Enabled {
		registry, err := legacy.Connect(ctx, app.Config.Legacy)
		if err != nil {
			logrus.WithError(err).Warn("legacy registry not available")
			return
		}
		defer registry.Close()

		if _, err := registry.ImportDepartments(ctx, deptRepo); err != nil {
			logrus.WithError(err).Warn("legacy department import failed")
		}
	}
}

// busOrNil avoids a typed-nil Publisher when the bus is down
func busOrNil(app *App) events.Publisher {
	if app.Bus == nil {
		return nil
	}
	return app.Bus
}

func infoHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"name":    "SevaLink Citizen Complaint Portal",
		"version": "1.0.0",
		"docs":    "/api/v1",
	})
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
}

func readyHandler(app *App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{
			"server": "ready",
		}

		if app.DB != nil {
			if err := app.DB.Health(r.Context()); err != nil {
				checks["database"] = "not ready: " + err.Error()
			} else {
				checks["database"] = "ready"
			}
		} else {
			checks["database"] = "not configured"
		}

		if app.Bus != nil {
			if err := app.Bus.Health(); err != nil {
				checks["eventstore"] = "not ready: " + err.Error()
			} else {
				checks["eventstore"] = "ready"
			}
		} else {
			checks["eventstore"] = "not configured"
		}

		if app.Storage != nil {
			if err := app.Storage.Health(r.Context()); err != nil {
				checks["objectstore"] = "not ready: " + err.Error()
			} else {
				checks["objectstore"] = "ready"
			}
		} else {
			checks["objectstore"] = "not configured"
		}

		allReady := true
		for _, status := range checks {
			if status != "ready" && status != "not configured" {
				allReady = false
				break
			}
		}

		status := http.StatusOK
		if !allReady {
			status = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]any{
			"status": map[bool]string{true: "ready", false: "not ready"}[allReady],
			"checks": checks,
		})
	}
}
