package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"attendtrack/internal/auth"
	"attendtrack/internal/authz"
	"attendtrack/internal/config"
	"attendtrack/internal/database"
	"attendtrack/internal/handlers"
	"attendtrack/internal/metrics"
	"attendtrack/internal/repository"
	"attendtrack/internal/service"
	"attendtrack/internal/session"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database with config (supports sqlite, postgres, mysql)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	log.Printf("Database connection established (type: %s)", cfg.DatabaseType)

	// Run migrations
	if err := db.RunMigrations(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Migrations completed successfully")

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	classRepo := repository.NewClassRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	reportRepo := repository.NewReportRepository(db)
	referenceRepo := repository.NewReferenceRepository(db)

	// Session store
	var (
		store    session.Store
		sqlStore *session.SQLStore
	)
	switch cfg.SessionBackend {
	case "redis":
		redisClient := connectRedis(cfg)
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Printf("Redis close error: %v", err)
			}
		}()
		store = session.NewRedisStore(redisClient, userRepo, cfg.SessionDuration)
		log.Printf("Using Redis session store at %s", cfg.RedisAddr)
	case "sql", "":
		sqlStore = session.NewSQLStore(userRepo, cfg.SessionDuration)
		store = sqlStore
	default:
		log.Fatalf("Unknown SESSION_BACKEND %q", cfg.SessionBackend)
	}

	// Initialize services
	gate := authz.NewGate(classRepo)
	authService := service.NewAuthService(userRepo, store)
	studentService := service.NewStudentService(studentRepo)
	attendanceService := service.NewAttendanceService(attendanceRepo, gate)
	reportService := service.NewReportService(reportRepo, studentRepo, attendanceRepo)

	// Seed the first admin account
	created, err := authService.SeedAdmin(cfg.AdminUsername, cfg.AdminEmail, cfg.AdminPassword)
	if err != nil {
		log.Fatalf("Failed to seed admin user: %v", err)
	}
	if created {
		log.Printf("Created admin user %q", cfg.AdminUsername)
	}

	// Initialize handlers
	m := metrics.New()
	router := handlers.NewRouter(handlers.Handlers{
		Middleware: handlers.NewMiddleware(auth.NewAuthenticator(store), gate, m),
		Auth:       handlers.NewAuthHandler(authService, m),
		Class:      handlers.NewClassHandler(classRepo, attendanceRepo, attendanceService),
		Reference:  handlers.NewReferenceHandler(referenceRepo),
		Admin:      handlers.NewAdminHandler(authService, studentService, reportService, studentRepo, classRepo, userRepo),
		Metrics:    m,
	})

	// Start server
	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start background session cleanup
	if sqlStore != nil {
		go cleanupExpiredSessions(ctx, sqlStore, cfg.SessionCleanupInterval)
	}

	go func() {
		log.Printf("Server starting on http://localhost%s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	<-ctx.Done()
	log.Println("Server shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
}

func connectRedis(cfg *config.Config) *redis.Client {
	if cfg.RedisAddr == "" {
		log.Fatal("REDIS_ADDR is required when SESSION_BACKEND=redis")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Fatalf("Redis ping failed: %v", err)
	}
	return client
}

// cleanupExpiredSessions periodically removes expired sessions
func cleanupExpiredSessions(ctx context.Context, store *session.SQLStore, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := store.Cleanup(ctx)
			if err != nil {
				log.Printf("Error cleaning up expired sessions: %v", err)
				continue
			}
			if removed > 0 {
				log.Printf("Removed %d expired sessions", removed)
			}
		}
	}
}
