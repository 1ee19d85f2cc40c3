// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type ServerConfig struct {
	Port string `mapstructure:"port"`
}

type DatabaseConfig struct {
	Driver      string `mapstructure:"driver"` // postgres | sqlite
	URL         string `mapstructure:"url"`
	AutoMigrate bool   `mapstructure:"auto_migrate"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

type JWTConfig struct {
	SecretKey      string        `mapstructure:"secret_key"`
	AccessTokenTTL time.Duration `mapstructure:"access_token_ttl"`
}

type AppConfig struct {
	Name string `mapstructure:"name"`
}

type MailerConfig struct {
	Type string `mapstructure:"type"` // log | smtp | ses
}

type SMTPConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	From string `mapstructure:"from"`
}

type SESConfig struct {
	Region          string `mapstructure:"region"`
	AuthType        string `mapstructure:"auth_type"` // static_credentials | iam_role
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	From            string `mapstructure:"from"`
}

type CacheConfig struct {
	// 空ならトークン失効リストはプロセス内メモリで管理する
	URL string `mapstructure:"url"`
}

type PlannerConfig struct {
	ExamWeight float64 `mapstructure:"exam_weight"`
}

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
	CORS     CORSConfig     `mapstructure:"cors"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	App      AppConfig      `mapstructure:"app"`
	Mailer   MailerConfig   `mapstructure:"mailer"`
	SMTP     SMTPConfig     `mapstructure:"smtp"`
	SES      SESConfig      `mapstructure:"ses"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Planner  PlannerConfig  `mapstructure:"planner"`
}

var Cfg Config

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", DefaultServerPort)
	v.SetDefault("database.driver", DefaultDatabaseDriver)
	v.SetDefault("database.url", DefaultDatabaseURL)
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"})
	v.SetDefault("cors.exposed_headers", []string{"Content-Disposition"})
	v.SetDefault("cors.allow_credentials", false)
	v.SetDefault("cors.max_age", 300)
	v.SetDefault("jwt.secret_key", DefaultJWTSecret)
	v.SetDefault("jwt.access_token_ttl", DefaultAccessTokenTTL)
	v.SetDefault("app.name", AppName)
	v.SetDefault("mailer.type", DefaultMailerType)
	v.SetDefault("smtp.host", "localhost")
	v.SetDefault("smtp.port", DefaultSMTPPort)
	v.SetDefault("smtp.from", "no-reply@schedulr.local")
	v.SetDefault("ses.region", DefaultSESRegion)
	v.SetDefault("ses.auth_type", "iam_role")
	v.SetDefault("ses.access_key_id", "")
	v.SetDefault("ses.secret_access_key", "")
	v.SetDefault("ses.from", "")
	v.SetDefault("cache.url", "")
	v.SetDefault("planner.exam_weight", DefaultExamWeight)
}

// Load は path と カレントディレクトリから config.yaml を読み込み、環境変数で上書きした Config を返します。
// 設定ファイルが無い場合はデフォルト値と環境変数だけで動作します。
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if path != "" {
		v.AddConfigPath(path)
	}
	v.AddConfigPath(".")

	// SCHEDULR_DATABASE_URL のように接頭辞をつける
	v.SetEnvPrefix("SCHEDULR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// 接頭辞なしの慣習的な変数名も受け付ける
	_ = v.BindEnv("jwt.secret_key", "SECRET_KEY")
	_ = v.BindEnv("database.url", "DATABASE_URL")
	_ = v.BindEnv("server.port", "PORT")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			slog.Warn("Config file not found. Using default settings and environment variables.", slog.String("path", path))
		} else {
			return nil, fmt.Errorf("config.Load: reading config file: %w", err)
		}
	} else {
		slog.Info("Config file loaded", slog.String("file", v.ConfigFileUsed()))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config.Load: unmarshalling config: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadConfig は設定を読み込んでパッケージ変数 Cfg に格納します
func LoadConfig(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	Cfg = *cfg

	slog.Info("Config loaded successfully",
		slog.String("port", Cfg.Server.Port),
		slog.String("db_driver", Cfg.Database.Driver),
		slog.String("mailer", Cfg.Mailer.Type),
		slog.Bool("cache_enabled", Cfg.Cache.URL != ""),
		slog.Float64("exam_weight", Cfg.Planner.ExamWeight),
	)
	return nil
}

// normalize は値の揺れを吸収し、起動できない設定をエラーにします
func (c *Config) normalize() error {
	if c.Server.Port == "" {
		c.Server.Port = DefaultServerPort
	}
	// PORT=5000 のような指定も受け付ける
	if !strings.Contains(c.Server.Port, ":") {
		c.Server.Port = ":" + c.Server.Port
	}

	c.Database.Driver = strings.ToLower(strings.TrimSpace(c.Database.Driver))
	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite:
	case "postgresql", "pgx":
		c.Database.Driver = DriverPostgres
	case "sqlite3":
		c.Database.Driver = DriverSQLite
	default:
		return fmt.Errorf("config: unsupported database driver %q", c.Database.Driver)
	}
	if c.Database.URL == "" {
		return errors.New("config: database.url is required")
	}

	if c.JWT.SecretKey == "" {
		return errors.New("config: jwt.secret_key is required")
	}
	if c.JWT.SecretKey == DefaultJWTSecret {
		slog.Warn("Using the default JWT secret key. Set SECRET_KEY in production.")
	}
	if c.JWT.AccessTokenTTL <= 0 {
		c.JWT.AccessTokenTTL = DefaultAccessTokenTTL
	}

	if c.Planner.ExamWeight <= 0 {
		c.Planner.ExamWeight = DefaultExamWeight
	}
	c.Mailer.Type = strings.ToLower(c.Mailer.Type)
	if c.App.Name == "" {
		c.App.Name = AppName
	}
	return nil
}
