package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Device scope backends.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendBolt     = "bolt"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database  DatabaseConfig
	Redis     RedisConfig
	CORS      CORSConfig
	Log       LogConfig
	Storage   StorageConfig
	Sync      SyncConfig
	Materials   MaterialsConfig
	Leaderboard LeaderboardConfig
	Metrics     MetricsConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// StorageConfig selects where device scoped keys live and how large a single
// serialized value may grow.
type StorageConfig struct {
	DeviceBackend string
	BoltPath      string
	KeyPrefix     string
	QuotaBytes    int
}

// SyncConfig tunes the reconciliation worker.
type SyncConfig struct {
	Channel    string
	Retries    int
	RetryDelay time.Duration
}

// MaterialsConfig controls uploaded classroom material storage.
type MaterialsConfig struct {
	StorageDir      string
	SignedURLSecret string
	SignedURLTTL    time.Duration
}

// LeaderboardConfig controls quiz score standings and their backup.
type LeaderboardConfig struct {
	Key            string
	Size           int
	BackupInterval time.Duration
}

type MetricsConfig struct {
	Enabled bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	quota := v.GetInt("STORAGE_QUOTA_BYTES")
	if quota <= 0 {
		quota = 5 * 1024 * 1024
	}
	backend := strings.ToLower(strings.TrimSpace(v.GetString("DEVICE_BACKEND")))
	switch backend {
	case BackendMemory, BackendRedis, BackendPostgres, BackendBolt:
	default:
		backend = BackendMemory
	}
	cfg.Storage = StorageConfig{
		DeviceBackend: backend,
		BoltPath:      v.GetString("DEVICE_BOLT_PATH"),
		KeyPrefix:     v.GetString("DEVICE_KEY_PREFIX"),
		QuotaBytes:    quota,
	}

	cfg.Sync = SyncConfig{
		Channel:    v.GetString("SYNC_CHANNEL"),
		Retries:    v.GetInt("SYNC_RETRIES"),
		RetryDelay: parseDuration(v.GetString("SYNC_RETRY_DELAY"), 500*time.Millisecond),
	}

	cfg.Materials = MaterialsConfig{
		StorageDir:      v.GetString("MATERIALS_STORAGE_DIR"),
		SignedURLSecret: v.GetString("MATERIALS_SIGNED_URL_SECRET"),
		SignedURLTTL:    parseDuration(v.GetString("MATERIALS_SIGNED_URL_TTL"), 12*time.Hour),
	}

	cfg.Leaderboard = LeaderboardConfig{
		Key:            v.GetString("LEADERBOARD_KEY"),
		Size:           v.GetInt("LEADERBOARD_SIZE"),
		BackupInterval: parseDuration(v.GetString("LEADERBOARD_BACKUP_INTERVAL"), 10*time.Minute),
	}

	cfg.Metrics = MetricsConfig{Enabled: v.GetBool("ENABLE_METRICS")}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "classroom_sync")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("DEVICE_BACKEND", BackendMemory)
	v.SetDefault("DEVICE_BOLT_PATH", "./classroom.db")
	v.SetDefault("DEVICE_KEY_PREFIX", "classroom:device:")
	v.SetDefault("STORAGE_QUOTA_BYTES", 5*1024*1024)

	v.SetDefault("SYNC_CHANNEL", "classroom:device:changes")
	v.SetDefault("SYNC_RETRIES", 3)
	v.SetDefault("SYNC_RETRY_DELAY", "500ms")

	v.SetDefault("MATERIALS_STORAGE_DIR", "./materials")
	v.SetDefault("MATERIALS_SIGNED_URL_SECRET", "dev_materials_secret")
	v.SetDefault("MATERIALS_SIGNED_URL_TTL", "12h")

	v.SetDefault("LEADERBOARD_KEY", "leaderboard")
	v.SetDefault("LEADERBOARD_SIZE", 10)
	v.SetDefault("LEADERBOARD_BACKUP_INTERVAL", "10m")

	v.SetDefault("ENABLE_METRICS", true)
}

func isMissingFile(err error) bool {
	return strings.Contains(err.Error(), "no such file or directory")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
