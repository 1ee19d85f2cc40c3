// internal/config/constants.go
package config

import "time"

// アプリケーション情報
const (
	AppName    = "Schedulr"
	AppVersion = "1.0.0"
)

// デフォルト設定値
const (
	DefaultServerPort     = ":5000"
	DefaultDatabaseDriver = "sqlite"
	DefaultDatabaseURL    = "schedulr.db"
	DefaultLogLevel       = "info"
	DefaultMailerType     = "log"
	DefaultJWTSecret      = "dev-secret-change-me"
	DefaultAccessTokenTTL = 24 * time.Hour
	DefaultExamWeight     = 0.5
	DefaultSMTPPort       = 1025
	DefaultSESRegion      = "ap-northeast-1"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)
