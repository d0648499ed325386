package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Redis    RedisConfig
	Admin    AdminConfig
	Blob     BlobConfig
}

type AppConfig struct {
	AppName     string
	Environment string
	HTTPPort    string
	// StoreBackend selects the persistence backend: "postgres" (default) or "memory".
	StoreBackend  string
	MigrationsDir string
}

type DatabaseConfig struct {
	DBHost     string
	DBPort     string
	DBName     string
	DBUser     string
	DBPassword string
	DBSSLMode  string

	ConnectTimeout        time.Duration
	PoolMaxConns          int32
	PoolMinConns          int32
	PoolMaxConnLifetime   time.Duration
	PoolMaxConnIdleTime   time.Duration
	PoolHealthCheckPeriod time.Duration
	// SlowQueryThreshold logs statements at least this slow; 0 disables it.
	SlowQueryThreshold time.Duration
}

type JWTConfig struct {
	AccessSecret     string
	RefreshSecret    string
	AccessExpiresIn  time.Duration
	RefreshExpiresIn time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	CacheTTL time.Duration
}

// AdminConfig holds the single operator account. The password is stored
// only as a bcrypt hash.
type AdminConfig struct {
	Email        string
	PasswordHash string
}

type BlobConfig struct {
	Backend         string
	LocalDir        string
	PublicBaseURL   string
	GCSBucket       string
	CredentialsFile string
}

const (
	StoreBackendPostgres = "postgres"
	StoreBackendMemory   = "memory"

	BlobBackendLocal = "local"
	BlobBackendGCS   = "gcs"
)

var (
	errMissingRequiredEnv = errors.New("missing required environment variables")
	errInvalidEnv         = errors.New("invalid environment variables")
)

func Load() (Config, error) {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	cfg := Config{}

	var missing []string
	var invalid []string
	req := func(key string) string {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			missing = append(missing, key)
		}
		return v
	}
	opt := func(key string) string {
		return strings.TrimSpace(os.Getenv(key))
	}
	optDefault := func(key, def string) string {
		if v := opt(key); v != "" {
			return v
		}
		return def
	}
	optDuration := func(key string, def time.Duration) time.Duration {
		raw := opt(key)
		if raw == "" {
			return def
		}
		d, err := time.ParseDuration(raw)
		if err != nil || d < 0 {
			invalid = append(invalid, key)
			return def
		}
		return d
	}
	optInt := func(key string, def int) int {
		raw := opt(key)
		if raw == "" {
			return def
		}
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			invalid = append(invalid, key)
			return def
		}
		return v
	}

	cfg.App = AppConfig{
		AppName:       req("APP_NAME"),
		Environment:   req("APP_ENV"),
		HTTPPort:      req("HTTP_PORT"),
		StoreBackend:  strings.ToLower(optDefault("STORE_BACKEND", StoreBackendPostgres)),
		MigrationsDir: opt("MIGRATIONS_DIR"),
	}

	cfg.Database = DatabaseConfig{
		DBHost:                opt("DB_HOST"),
		DBPort:                opt("DB_PORT"),
		DBName:                opt("DB_NAME"),
		DBUser:                opt("DB_USER"),
		DBPassword:            opt("DB_PASSWORD"),
		DBSSLMode:             optDefault("DB_SSL_MODE", "disable"),
		ConnectTimeout:        optDuration("DB_CONNECT_TIMEOUT", 5*time.Second),
		PoolMaxConns:          int32(optInt("DB_POOL_MAX_CONNS", 0)),
		PoolMinConns:          int32(optInt("DB_POOL_MIN_CONNS", 0)),
		PoolMaxConnLifetime:   optDuration("DB_POOL_MAX_CONN_LIFETIME", 0),
		PoolMaxConnIdleTime:   optDuration("DB_POOL_MAX_CONN_IDLE_TIME", 0),
		PoolHealthCheckPeriod: optDuration("DB_POOL_HEALTH_CHECK_PERIOD", 0),
		SlowQueryThreshold:    optDuration("DB_SLOW_QUERY_THRESHOLD", 500*time.Millisecond),
	}

	cfg.JWT = JWTConfig{
		AccessSecret:     req("JWT_ACCESS_SECRET"),
		RefreshSecret:    req("JWT_REFRESH_SECRET"),
		AccessExpiresIn:  optDuration("JWT_ACCESS_EXPIRES_IN", 15*time.Minute),
		RefreshExpiresIn: optDuration("JWT_REFRESH_EXPIRES_IN", 7*24*time.Hour),
	}

	cfg.Redis = RedisConfig{
		Addr:     opt("REDIS_ADDR"),
		Password: opt("REDIS_PASSWORD"),
		DB:       optInt("REDIS_DB", 0),
		CacheTTL: optDuration("REDIS_TTL", 10*time.Minute),
	}

	cfg.Admin = AdminConfig{
		Email:        strings.ToLower(opt("ADMIN_EMAIL")),
		PasswordHash: opt("ADMIN_PASSWORD_HASH"),
	}

	cfg.Blob = BlobConfig{
		Backend:         strings.ToLower(optDefault("BLOB_BACKEND", BlobBackendLocal)),
		LocalDir:        optDefault("BLOB_LOCAL_DIR", "uploads"),
		PublicBaseURL:   opt("BLOB_PUBLIC_BASE_URL"),
		GCSBucket:       opt("BLOB_GCS_BUCKET"),
		CredentialsFile: opt("GOOGLE_APPLICATION_CREDENTIALS"),
	}

	switch cfg.App.StoreBackend {
	case StoreBackendPostgres:
		for _, k := range []string{"DB_HOST", "DB_PORT", "DB_NAME", "DB_USER"} {
			if opt(k) == "" {
				missing = append(missing, k)
			}
		}
	case StoreBackendMemory:
	default:
		invalid = append(invalid, "STORE_BACKEND")
	}

	switch cfg.Blob.Backend {
	case BlobBackendLocal:
	case BlobBackendGCS:
		if cfg.Blob.GCSBucket == "" {
			missing = append(missing, "BLOB_GCS_BUCKET")
		}
	default:
		invalid = append(invalid, "BLOB_BACKEND")
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("%w: %s", errMissingRequiredEnv, strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("%w: %s", errInvalidEnv, strings.Join(invalid, ", "))
	}

	return cfg, nil
}
