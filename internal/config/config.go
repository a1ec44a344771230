package config

import (
	"fmt"
	"os"
	"strconv"
)

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	MaxIdle  int
}

// GetDSN 获取数据库连接字符串
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// PMSConfig PMS 核心 API 配置
type PMSConfig struct {
	BaseURL        string // PMS 核心服务地址
	APIKey         string // API Key（可选）
	TimeoutSeconds int    // 单请求超时（秒）
}

// Config pms-rateops（HTTP API）配置
type Config struct {
	HTTP struct {
		Addr string
	}
	PMS       PMSConfig
	DBEnabled bool
	Database  DatabaseConfig
	Redis     struct {
		Addr     string
		Password string
		DB       int
	}
	Log struct {
		Level  string
		Format string
	}
	Cache struct {
		ReferenceTTLSeconds int // 参考数据缓存
		PreviewTTLSeconds   int // 预览会话
		ProgressTTLSeconds  int // 执行进度
	}
}

func Load() *Config {
	cfg := &Config{}
	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")

	cfg.PMS.BaseURL = getEnv("PMS_BASE_URL", "http://localhost:9000")
	cfg.PMS.APIKey = getEnv("PMS_API_KEY", "")
	cfg.PMS.TimeoutSeconds = parseInt(getEnv("PMS_TIMEOUT_SECONDS", "30"), 30)

	// Default to true for local dev: if DB is unavailable, pms-rateops falls back
	// to the in-memory audit repo so the screen still works.
	cfg.DBEnabled = getEnv("DB_ENABLED", "true") == "true"
	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = parseInt(getEnv("DB_PORT", "5432"), 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "pmsrate")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.MaxConns = parseInt(getEnv("DB_MAX_CONNS", "10"), 10)
	cfg.Database.MaxIdle = parseInt(getEnv("DB_MAX_IDLE", "5"), 5)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = parseInt(getEnv("REDIS_DB", "0"), 0)

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	cfg.Cache.ReferenceTTLSeconds = parseInt(getEnv("REFERENCE_CACHE_TTL_SECONDS", "300"), 300)
	cfg.Cache.PreviewTTLSeconds = parseInt(getEnv("PREVIEW_TTL_SECONDS", "1800"), 1800)
	cfg.Cache.ProgressTTLSeconds = parseInt(getEnv("PROGRESS_TTL_SECONDS", "3600"), 3600)

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}
