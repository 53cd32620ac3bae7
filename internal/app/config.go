package app

import (
	"time"

	"github.com/yungbote/magix-backend/internal/data/db"
	"github.com/yungbote/magix-backend/internal/domain/chat"
	"github.com/yungbote/magix-backend/internal/platform/envutil"
	"github.com/yungbote/magix-backend/internal/platform/gcp"
	"github.com/yungbote/magix-backend/internal/platform/llm"
	"github.com/yungbote/magix-backend/internal/platform/logger"
)

type Config struct {
	Port        string
	LogMode     string
	GinMode     string
	Environment string
	Version     string

	DB db.Config

	BucketName                string
	ObjectStorageMode         string
	StorageEmulatorHost       string
	StorageModeCompatFallback bool

	GoogleProjectID string
	GoogleRegion    string

	GeminiAPIKey     string
	GeminiModel      string
	CodestralModel   string
	CodestralVersion string
	OpenAIAPIKey     string
	OpenAIModel      string

	ClientID         string
	TenantID         string
	DefaultUserEmail string
	AuthRequired     bool

	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	LLMStatusTTL   time.Duration
	LLMSeedFile    string
	AllowedOrigins []string
}

func LoadConfig(log *logger.Logger) Config {
	cfg := Config{
		Port:        envutil.String("PORT", "8080"),
		LogMode:     envutil.String("LOG_MODE", "development"),
		GinMode:     envutil.String("GIN_MODE", "release"),
		Environment: envutil.String("ENVIRONMENT", "development"),
		Version:     envutil.String("SERVICE_VERSION", "dev"),

		DB: db.Config{
			Driver:       envutil.String("DB_DRIVER", db.DriverPostgres),
			DSN:          envutil.String("DATABASE_URL", ""),
			Host:         envutil.String("POSTGRES_HOST", "localhost"),
			Port:         envutil.String("POSTGRES_PORT", "5432"),
			User:         envutil.String("POSTGRES_USER", "postgres"),
			Password:     envutil.String("POSTGRES_PASSWORD", ""),
			Name:         envutil.String("POSTGRES_NAME", "magix"),
			SQLitePath:   envutil.String("SQLITE_PATH", ""),
			MaxOpenConns: envutil.Int("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns: envutil.Int("DB_MAX_IDLE_CONNS", 5),
		},

		BucketName:          envutil.String("MAGIX_BUCKET_NAME", gcp.DefaultBucketName),
		ObjectStorageMode:   envutil.String("OBJECT_STORAGE_MODE", ""),
		StorageEmulatorHost: envutil.String("STORAGE_EMULATOR_HOST", ""),

		GoogleProjectID: envutil.String("GOOGLE_PROJECT_ID", ""),
		GoogleRegion:    envutil.String("GOOGLE_REGION", "us-central1"),

		GeminiAPIKey:     envutil.String("GEMINI_API_KEY", ""),
		GeminiModel:      envutil.String("GEMINI_MODEL", llm.DefaultGeminiModel),
		CodestralModel:   envutil.String("CODESTRAL_MODEL", llm.DefaultCodestralModel),
		CodestralVersion: envutil.String("CODESTRAL_VERSION", llm.DefaultCodestralVersion),
		OpenAIAPIKey:     envutil.String("OPENAI_API_KEY", ""),
		OpenAIModel:      envutil.String("OPENAI_MODEL", llm.DefaultOpenAIModel),

		ClientID:         envutil.String("CLIENT_ID", ""),
		TenantID:         envutil.String("TENANT_ID", ""),
		DefaultUserEmail: envutil.String("DEFAULT_USER_EMAIL", chat.DefaultUserEmail),
		AuthRequired:     envutil.Bool("AUTH_REQUIRED", false),

		RedisAddr:      envutil.String("REDIS_ADDR", ""),
		RedisPassword:  envutil.String("REDIS_PASSWORD", ""),
		RedisDB:        envutil.Int("REDIS_DB", 0),
		LLMStatusTTL:   envutil.Seconds("LLM_STATUS_TTL_SECONDS", 30*time.Second),
		LLMSeedFile:    envutil.String("LLM_SEED_FILE", ""),
		AllowedOrigins: envutil.List("CORS_ALLOWED_ORIGINS", nil),
	}
	if cfg.ObjectStorageMode == "" && cfg.StorageEmulatorHost != "" {
		cfg.ObjectStorageMode = string(gcp.ObjectStorageModeGCSEmulator)
		cfg.StorageModeCompatFallback = true
	}
	if cfg.ObjectStorageMode == "" {
		cfg.ObjectStorageMode = string(gcp.ObjectStorageModeGCS)
	}

	log.Debug("Config loaded",
		"port", cfg.Port,
		"db_driver", cfg.DB.Driver,
		"object_storage_mode", cfg.ObjectStorageMode,
		"bucket", cfg.BucketName,
		"google_project_id", cfg.GoogleProjectID,
		"google_region", cfg.GoogleRegion,
		"redis_enabled", cfg.RedisAddr != "",
		"auth_required", cfg.AuthRequired,
	)
	return cfg
}
