package entrypoint

import (
	"context"
	"encoding/hex"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/staffmanager/internal/audit"
	"github.com/mrlokans/staffmanager/internal/auth"
	"github.com/mrlokans/staffmanager/internal/config"
	"github.com/mrlokans/staffmanager/internal/database"
	dbaudit "github.com/mrlokans/staffmanager/internal/database/audit"
	"github.com/mrlokans/staffmanager/internal/database/users"
	http_controllers "github.com/mrlokans/staffmanager/internal/http"
	"github.com/mrlokans/staffmanager/internal/images"
	"github.com/mrlokans/staffmanager/internal/scheduler"
	"github.com/mrlokans/staffmanager/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// Serve runs the HTTP server until SIGINT or SIGTERM, then shuts it down
// within the configured timeout.
func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Starting server at %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server Shutdown: %v", err)
	}

	// Background work stops after the last request has been served
	if onShutdown != nil {
		onShutdown(ctx)
	}

	log.Println("Server exiting")
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting staffmanager v%s", version)

	logLevel := logger.Warn
	if cfg.Database.LogSQL {
		logLevel = logger.Info
	}
	db, err := database.NewDatabase(cfg.Database.Path, database.WithLogLevel(logLevel))
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	svc := http_controllers.NewServices(db, cfg.Loans.PeriodDays)

	store, err := images.NewStore(cfg.Uploads.Dir, images.Options{
		MaxBytes:     cfg.Uploads.MaxBytes,
		MaxDimension: cfg.Uploads.MaxDimension,
		JPEGQuality:  cfg.Uploads.JPEGQuality,
	})
	if err != nil {
		log.Fatalf("Failed to initialize image store: %v", err)
	}
	log.Printf("Storing uploaded images in %s", store.Root())

	archiver := audit.NewArchiver(cfg.Audit.Dir)
	auditService := audit.NewService(dbaudit.NewRepository(db.DB), archiver)
	defer auditService.Wait()

	routerCfg := http_controllers.RouterConfig{
		Database:      db,
		Services:      svc,
		Images:        store,
		Auditor:       auditService,
		Audit:         auditService,
		TemplatesPath: cfg.UI.TemplatesPath,
		StaticPath:    cfg.UI.StaticPath,
		Version:       version,
		AuthConfig:    cfg.Auth,
		SecureCookies: cfg.Auth.SecureCookies,
	}

	if cfg.Auth.Mode == config.AuthModeLocal {
		log.Printf("Authentication mode: local")
		if err := setupAuth(db, cfg.Auth, &routerCfg); err != nil {
			log.Fatalf("Failed to initialize authentication: %v", err)
		}
		routerCfg.AuthEvents = auditService
		routerCfg.Users = users.NewRepository(db.DB)
	} else {
		log.Printf("Authentication mode: none (no authentication required)")
	}

	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	var maintenance *scheduler.MaintenanceScheduler
	if cfg.Tasks.Enabled {
		taskClient, err = tasks.NewClient(cfg.Database.Path, cfg.Tasks)
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		taskClient.Register(
			tasks.NewOverdueLoansQueue(svc.Loans, auditService),
			tasks.NewCleanupAuditEventsQueue(auditService, archiver, auditService),
			tasks.NewCleanupOrphanImagesQueue(store, db, auditService),
		)

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)
		routerCfg.TaskClient = taskClient

		if cfg.Maintenance.Enabled {
			maintenance, err = scheduler.NewMaintenanceScheduler(taskClient, scheduler.JobsFrom(cfg.Maintenance, cfg.Audit.RetentionDays))
			if err != nil {
				log.Fatalf("Failed to initialize maintenance scheduler: %v", err)
			}
			if err := maintenance.Start(taskCtx); err != nil {
				log.Fatalf("Failed to start maintenance scheduler: %v", err)
			}
		}
	} else if cfg.Maintenance.Enabled {
		log.Printf("WARNING: maintenance schedules need the task queue; set TASKS_ENABLED=true to run them")
	}

	router := http_controllers.NewRouter(routerCfg)

	onShutdown := func(ctx context.Context) {
		if maintenance != nil {
			maintenance.Stop()
		}
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
	}

	Serve(router, cfg, onShutdown)
}

// setupAuth creates the session store, the auth middleware and the CSRF
// secret, and seeds the configured administrator.
func setupAuth(db *database.Database, cfg config.Auth, routerCfg *http_controllers.RouterConfig) error {
	authService := auth.NewService(db.DB, cfg)

	sqlDB, err := db.DB.DB()
	if err != nil {
		return fmt.Errorf("get SQL DB for sessions: %w", err)
	}
	sessionManager, err := auth.NewSessionManager(sqlDB, cfg)
	if err != nil {
		return fmt.Errorf("initialize session manager: %w", err)
	}

	csrfSecret, err := csrfSecretFrom(cfg.SessionSecret)
	if err != nil {
		return err
	}

	if _, err := authService.EnsureAdmin(cfg.AdminUsername, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		return fmt.Errorf("seed administrator: %w", err)
	}
	if hasUsers, _ := authService.HasUsers(); !hasUsers {
		log.Printf("No users found. Visit /setup or run 'create-admin' to create an administrator account.")
	}

	routerCfg.AuthService = authService
	routerCfg.SessionManager = sessionManager
	routerCfg.AuthMiddleware = auth.NewMiddleware(authService, sessionManager, cfg)
	routerCfg.CSRFSecret = csrfSecret
	return nil
}

// csrfSecretFrom decodes a configured hex secret, falls back to the raw
// bytes, and generates a fresh one when none is configured.
func csrfSecretFrom(configured string) ([]byte, error) {
	if configured != "" {
		if secret, err := hex.DecodeString(configured); err == nil {
			return secret, nil
		}
		return []byte(configured), nil
	}

	secret, err := auth.GenerateSessionSecret()
	if err != nil {
		return nil, fmt.Errorf("generate CSRF secret: %w", err)
	}
	log.Printf("Generated session secret (set AUTH_SESSION_SECRET to persist)")
	return hex.DecodeString(secret)
}
