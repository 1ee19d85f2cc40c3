package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"schedulr/internal/config"
	"schedulr/internal/repository"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var rootCmd = &cobra.Command{
	Use:           "schedulr",
	Short:         "Study planner for students and mentors",
	Long:          "Schedulr serves the study planner API and provides maintenance commands for its database.",
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// 設定ファイル読み込み用の一時的なロガー
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

		dir, _ := cmd.Flags().GetString("config-dir")
		if err := config.LoadConfig(dir); err != nil {
			return fmt.Errorf("loading configuration: %w", err)
		}
		slog.SetDefault(newLogger(config.Cfg.Log.Level))
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	// 設定は読まない
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", config.AppName, config.AppVersion)
	},
}

func init() {
	rootCmd.PersistentFlags().String("config-dir", "configs", "Directory containing config.yaml")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(curriculumCmd)
	rootCmd.AddCommand(versionCmd)
}

// newLogger は log.level と APP_ENV からロガーを組み立てる。dev なら tint、それ以外は JSON
func newLogger(level string) *slog.Logger {
	logLevel := new(slog.LevelVar)
	switch strings.ToLower(level) {
	case "debug":
		logLevel.Set(slog.LevelDebug)
	case "info":
		logLevel.Set(slog.LevelInfo)
	case "warn", "warning":
		logLevel.Set(slog.LevelWarn)
	case "error":
		logLevel.Set(slog.LevelError)
	default:
		logLevel.Set(slog.LevelInfo)
		slog.Warn("Unknown log level specified in config, defaulting to INFO", slog.String("level", level))
	}

	var handler slog.Handler
	appEnv := os.Getenv("APP_ENV")
	if strings.ToLower(appEnv) == "dev" {
		handler = tint.NewHandler(os.Stderr, &tint.Options{
			Level:      logLevel,
			TimeFormat: time.RFC3339,
		})
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: true,
		})
	}
	return slog.New(handler)
}

// openDB は設定に従って DB に接続し、auto_migrate が有効ならマイグレーションも行う
func openDB(cmd *cobra.Command, migrate bool) (*gorm.DB, func(), error) {
	logger := slog.Default()
	db, err := repository.NewDB(config.Cfg.Database, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("initializing database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("getting sql.DB: %w", err)
	}
	closeFn := func() {
		if err := sqlDB.Close(); err != nil {
			logger.Error("Error closing database connection", slog.Any("error", err))
			return
		}
		logger.Info("Database connection closed.")
	}

	if migrate {
		if err := repository.Migrate(cmd.Context(), db); err != nil {
			closeFn()
			return nil, nil, err
		}
		logger.Info("Database migrated")
	}
	return db, closeFn, nil
}
