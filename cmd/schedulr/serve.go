package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"schedulr/internal/cache"
	"schedulr/internal/config"
	"schedulr/internal/handlers"
	"schedulr/internal/middleware"
	"schedulr/internal/repository"
	"schedulr/internal/service"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().Bool("dev-auth", false, "Trust X-User-ID / X-User-Role headers instead of JWT (development only)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := slog.Default()
	cfg := &config.Cfg
	logger.Info("Application starting...", slog.String("version", config.AppVersion))

	db, closeDB, err := openDB(cmd, cfg.Database.AutoMigrate)
	if err != nil {
		return err
	}
	defer closeDB()

	// トークン失効リスト。cache.url があれば Redis、無ければプロセス内メモリ
	healthExtras := map[string]handlers.Pinger{}
	var denylist cache.TokenDenylist
	if cfg.Cache.URL != "" {
		c, err := cache.New(ctx, cfg.Cache.URL)
		if err != nil {
			return fmt.Errorf("connecting to cache: %w", err)
		}
		defer c.Close()
		denylist = cache.NewRedisDenylist(c)
		healthExtras["cache"] = c
		logger.Info("Using Redis token denylist")
	} else {
		denylist = cache.NewMemoryDenylist()
		logger.Info("Using in-memory token denylist")
	}

	mailer, err := service.NewMailer(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initializing mailer: %w", err)
	}

	// Dependency Injection
	userRepo := repository.NewGormUserRepository()
	subjectRepo := repository.NewGormSubjectRepository()
	topicRepo := repository.NewGormTopicRepository()
	testRepo := repository.NewGormTestRepository()
	progressRepo := repository.NewGormProgressRepository()
	sessionRepo := repository.NewGormSessionRepository()

	authService := service.NewAuthService(db, userRepo, denylist, mailer, cfg)
	curriculumService := service.NewCurriculumService(db, subjectRepo, topicRepo)
	testService := service.NewTestService(db, testRepo, topicRepo, userRepo, progressRepo)
	sessionService := service.NewSessionService(db, sessionRepo)
	planService := service.NewPlanService(db, userRepo, subjectRepo, topicRepo, testRepo, progressRepo, cfg.Planner.ExamWeight)
	dashboardService := service.NewDashboardService(db, userRepo, subjectRepo, sessionRepo, progressRepo, planService)
	reportService := service.NewReportService(db, progressRepo)

	api := &handlers.Router{
		Auth:       handlers.NewAuthHandler(authService),
		Curriculum: handlers.NewCurriculumHandler(curriculumService),
		Tests:      handlers.NewTestHandler(testService),
		Sessions:   handlers.NewSessionHandler(sessionService),
		Plans:      handlers.NewPlanHandler(planService),
		Dashboard:  handlers.NewDashboardHandler(dashboardService, reportService),
		Health:     handlers.NewHealthHandler(db, healthExtras),
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.LoggingMiddleware(logger))

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   cfg.CORS.AllowedMethods,
		AllowedHeaders:   cfg.CORS.AllowedHeaders,
		ExposedHeaders:   cfg.CORS.ExposedHeaders,
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           cfg.CORS.MaxAge,
		Debug:            false,
	})
	r.Use(corsHandler.Handler)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	authn := middleware.JWTAuthMiddleware(cfg.JWT.SecretKey, denylist)
	if devAuth, _ := cmd.Flags().GetBool("dev-auth"); devAuth {
		logger.Warn("Applying DEVELOPMENT authentication middleware. Do not use in production.")
		authn = middleware.DevUserContextMiddleware
	} else {
		logger.Info("Applying production authentication middleware")
	}
	api.Mount(r, authn)

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Server listening", slog.String("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serverErr:
		return fmt.Errorf("could not listen on %s: %w", cfg.Server.Port, err)
	case <-quit:
	}
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", slog.Any("error", err))
	}
	logger.Info("Server exiting")
	return nil
}
