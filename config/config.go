// Package config reads the blog's runtime configuration from the environment.
// Values may also come from a .env file in the working directory.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/quillpress/blog/util/random"
)

//go:embed version
var version string

//go:embed name
var name string

type LogLevel string

const (
	Debug  LogLevel = "debug"
	Info   LogLevel = "info"
	Notice LogLevel = "notice"
	Warn   LogLevel = "warn"
	Error  LogLevel = "error"
)

type SessionStore string

const (
	SessionStoreCookie SessionStore = "cookie"
	SessionStoreRedis  SessionStore = "redis"
)

var (
	secretOnce      sync.Once
	generatedSecret string
)

// LoadEnvFile loads variables from the given .env files (or ".env" when none
// are given). Variables already present in the environment are not overridden.
// A missing file is not an error.
func LoadEnvFile(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); os.IsNotExist(err) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

func GetVersion() string {
	return strings.TrimSpace(version)
}

func GetName() string {
	return strings.TrimSpace(name)
}

func GetLogLevel() LogLevel {
	if IsDebug() {
		return Debug
	}
	logLevel := os.Getenv("BLOG_LOG_LEVEL")
	if logLevel == "" {
		return Info
	}
	return LogLevel(logLevel)
}

func IsDebug() bool {
	return os.Getenv("BLOG_DEBUG") == "true"
}

func GetDBFolderPath() string {
	dbFolderPath := os.Getenv("BLOG_DB_FOLDER")
	if dbFolderPath == "" {
		dbFolderPath = "db"
	}
	return dbFolderPath
}

func GetDBPath() string {
	return fmt.Sprintf("%s/%s.db", GetDBFolderPath(), GetName())
}

// GetDatabaseURL returns DATABASE_URL, falling back to the sqlite file under
// the db folder.
func GetDatabaseURL() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}
	return "sqlite://" + GetDBPath()
}

func GetLogFolder() string {
	logFolderPath := os.Getenv("BLOG_LOG_FOLDER")
	if logFolderPath == "" {
		logFolderPath = "log"
	}
	return logFolderPath
}

// GetSecretKey returns SECRET_KEY. When it is unset a random key is generated
// once per process, so sessions do not survive a restart.
func GetSecretKey() string {
	if secret := os.Getenv("SECRET_KEY"); secret != "" {
		return secret
	}
	secretOnce.Do(func() {
		generatedSecret = random.Seq(32)
	})
	return generatedSecret
}

func HasSecretKey() bool {
	return os.Getenv("SECRET_KEY") != ""
}

func GetListen() string {
	return os.Getenv("BLOG_LISTEN")
}

// GetDomain returns the host name requests must be addressed to, or "" to accept any.
func GetDomain() string {
	return os.Getenv("BLOG_DOMAIN")
}

func GetPort() int {
	return getInt("PORT", 5000)
}

func GetRedisAddr() string {
	return os.Getenv("BLOG_REDIS_ADDR")
}

func GetSessionStore() SessionStore {
	if SessionStore(os.Getenv("BLOG_SESSION_STORE")) == SessionStoreRedis {
		return SessionStoreRedis
	}
	return SessionStoreCookie
}

// GetSessionMaxAge returns the session lifetime in minutes.
func GetSessionMaxAge() int {
	return getInt("BLOG_SESSION_MAX_AGE", 1440)
}

// GetRateLimit returns how many auth form posts one client may make per minute.
func GetRateLimit() int {
	return getInt("BLOG_RATE_LIMIT", 20)
}

func GetAuditRetentionDays() int {
	return getInt("BLOG_AUDIT_RETENTION_DAYS", 90)
}

func GetTimeLocation() (*time.Location, error) {
	name := os.Getenv("BLOG_TIME_LOCATION")
	if name == "" {
		return time.Local, nil
	}
	return time.LoadLocation(name)
}

func getInt(key string, def int) int {
	value := os.Getenv(key)
	if value == "" {
		return def
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
