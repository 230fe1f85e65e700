package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	pstrings "docstamp/pkg/platform/strings"
)

// GenerationMode decides whether generation requires a session.
type GenerationMode string

const (
	GenerationAuthenticated GenerationMode = "authenticated"
	GenerationOpen          GenerationMode = "open"
)

// AdminMode decides where the administer capability comes from.
type AdminMode string

const (
	// AdminDirectory grants admin to directory users whose record is flagged admin.
	AdminDirectory AdminMode = "directory"
	// AdminOperator grants admin only to a single configured operator credential.
	AdminOperator AdminMode = "operator"
)

// Config is built once at startup and passed to constructors.
type Config struct {
	Server   Server
	Auth     Auth
	Assets   Assets
	Database Database
	Redis    RedisConfig
	Kafka    Kafka
	Log      Log
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr              string
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
	SecureCookies     bool
}

type Auth struct {
	GenerationMode    GenerationMode
	AdminMode         AdminMode
	AnonymousActor    string
	SessionSigningKey string
	SessionTTL        time.Duration
	BcryptCost        int

	OperatorUsername     string
	OperatorPasswordHash string

	BootstrapAdminUsername string
	BootstrapAdminPassword string
}

type Assets struct {
	Dir          string
	TemplatePath string
	FontPath     string
	FontCacheDir string
}

// Database holds the connection strings of the two stores. Empty means in-memory.
type Database struct {
	UsersURL        string
	LogsURL         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// LogsDSN falls back to the users database so one URL keeps both tables together.
func (d Database) LogsDSN() string {
	if d.LogsURL != "" {
		return d.LogsURL
	}
	return d.UsersURL
}

// RedisConfig configures the session store. Empty URL means in-memory sessions.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Kafka configures the optional generation log mirror.
type Kafka struct {
	Brokers      []string
	AuditTopic   string
	MirrorBuffer int
}

func (k Kafka) Enabled() bool {
	return len(k.Brokers) > 0
}

type Log struct {
	Level  string
	Format string
}

const devSigningKey = "dev-secret-key-change-in-production"

// FromEnv builds the Config from environment variables so main stays lean.
func FromEnv() (Config, error) {
	cfg := Config{
		Server: Server{
			Addr:              getEnv("DOCSTAMP_ADDR", ":8080"),
			ReadHeaderTimeout: getDuration("READ_HEADER_TIMEOUT", 5*time.Second),
			WriteTimeout:      getDuration("WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:       getDuration("IDLE_TIMEOUT", 2*time.Minute),
			ShutdownTimeout:   getDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
			SecureCookies:     getBool("SECURE_COOKIES", false),
		},
		Auth: Auth{
			GenerationMode:         GenerationMode(getEnv("GENERATION_MODE", string(GenerationAuthenticated))),
			AdminMode:              AdminMode(getEnv("ADMIN_MODE", string(AdminDirectory))),
			AnonymousActor:         getEnv("ANONYMOUS_ACTOR", "anonymous"),
			SessionSigningKey:      getEnv("SESSION_SIGNING_KEY", devSigningKey),
			SessionTTL:             getDuration("SESSION_TTL", 8*time.Hour),
			BcryptCost:             getInt("BCRYPT_COST", 10),
			OperatorUsername:       os.Getenv("OPERATOR_USERNAME"),
			OperatorPasswordHash:   os.Getenv("OPERATOR_PASSWORD_HASH"),
			BootstrapAdminUsername: os.Getenv("BOOTSTRAP_ADMIN_USERNAME"),
			BootstrapAdminPassword: os.Getenv("BOOTSTRAP_ADMIN_PASSWORD"),
		},
		Assets: Assets{
			Dir:          getEnv("ASSETS_DIR", "assets"),
			TemplatePath: getEnv("TEMPLATE_PATH", "templates/certificate.pdf"),
			FontPath:     getEnv("FONT_PATH", "fonts/LiberationSans-Bold.ttf"),
			FontCacheDir: getEnv("FONT_CACHE_DIR", filepath.Join(os.TempDir(), "docstamp-fonts")),
		},
		Database: Database{
			UsersURL:        os.Getenv("USERS_DATABASE_URL"),
			LogsURL:         os.Getenv("LOGS_DATABASE_URL"),
			MaxOpenConns:    getInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: Kafka{
			Brokers:      pstrings.SplitList(os.Getenv("KAFKA_BROKERS"), ","),
			AuditTopic:   getEnv("KAFKA_AUDIT_TOPIC", "docstamp.generation-logs"),
			MirrorBuffer: getInt("KAFKA_MIRROR_BUFFER", 256),
		},
		Log: Log{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects inconsistent mode combinations.
func (c Config) Validate() error {
	switch c.Auth.GenerationMode {
	case GenerationAuthenticated, GenerationOpen:
	default:
		return fmt.Errorf("GENERATION_MODE must be %q or %q, got %q", GenerationAuthenticated, GenerationOpen, c.Auth.GenerationMode)
	}
	switch c.Auth.AdminMode {
	case AdminDirectory:
	case AdminOperator:
		if c.Auth.OperatorUsername == "" || c.Auth.OperatorPasswordHash == "" {
			return fmt.Errorf("ADMIN_MODE=operator requires OPERATOR_USERNAME and OPERATOR_PASSWORD_HASH")
		}
	default:
		return fmt.Errorf("ADMIN_MODE must be %q or %q, got %q", AdminDirectory, AdminOperator, c.Auth.AdminMode)
	}
	if c.Auth.GenerationMode == GenerationOpen && strings.TrimSpace(c.Auth.AnonymousActor) == "" {
		return fmt.Errorf("ANONYMOUS_ACTOR must not be empty in open generation mode")
	}
	if c.Auth.SessionSigningKey == "" {
		return fmt.Errorf("SESSION_SIGNING_KEY must not be empty")
	}
	if c.Auth.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	if (c.Auth.BootstrapAdminUsername == "") != (c.Auth.BootstrapAdminPassword == "") {
		return fmt.Errorf("BOOTSTRAP_ADMIN_USERNAME and BOOTSTRAP_ADMIN_PASSWORD must be set together")
	}
	if c.Kafka.Enabled() && c.Kafka.AuditTopic == "" {
		return fmt.Errorf("KAFKA_AUDIT_TOPIC must not be empty when KAFKA_BROKERS is set")
	}
	return nil
}

// UsesDevSigningKey reports whether the built-in development key is in use.
func (c Config) UsesDevSigningKey() bool {
	return c.Auth.SessionSigningKey == devSigningKey
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}
