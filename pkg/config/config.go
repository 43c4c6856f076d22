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
	App       AppConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Redis     RedisConfig
	NATS      NATSConfig
	RateLimit RateLimitConfig
	Reminder  ReminderConfig
	Storage   StorageConfig
	Log       LogConfig
	Bcrypt    BcryptConfig
}

type AppConfig struct {
	Name        string
	Port        string
	Env         string
	CORSOrigins string // comma-separated, "*" = ทุก origin
}

// DatabaseConfig Driver = postgres (default) หรือ mongo
type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	MongoURI string
	MongoDB  string
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
}

// RedisConfig ใช้สำหรับ rate limiter, URL ว่าง = ใช้ limiter ใน memory
type RedisConfig struct {
	URL      string
	Password string
	DB       int
}

// NATSConfig URL ว่าง = ไม่ publish task events ออก NATS
type NATSConfig struct {
	URL           string
	SubjectPrefix string
}

// RateLimitConfig จำกัดจำนวน request ต่อ client ต่อ window บน /api/auth
type RateLimitConfig struct {
	Enabled  bool
	Requests int
	Window   time.Duration
}

type ReminderConfig struct {
	Enabled   bool
	Interval  time.Duration
	Window    time.Duration
	BatchSize int
}

type StorageConfig struct {
	Type          string // local, s3
	BasePath      string // ./uploads
	BaseURL       string // http://localhost:8080/uploads
	MaxAvatarSize int64  // bytes
	S3            S3Config
}

type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	Region    string
	PublicURL string
}

type LogConfig struct {
	Level      string // debug, info, warn, error
	Format     string // json, text
	Output     string // stdout, file, both
	FilePath   string
	MaxSize    int // MB
	MaxBackups int
	MaxAge     int // วัน
	Compress   bool
}

type BcryptConfig struct {
	Cost int
}

const minBcryptCost = 10

func LoadConfig() (*Config, error) {
	// ไม่มี .env ก็ใช้ environment variables ตรงๆ
	_ = godotenv.Load()

	jwtExpiration, err := parseDuration(getEnv("JWT_EXPIRE", "7d"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_EXPIRE: %w", err)
	}
	rateWindow, err := parseDuration(getEnv("RATE_LIMIT_WINDOW", "15m"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_WINDOW: %w", err)
	}
	reminderInterval, err := parseDuration(getEnv("REMINDER_INTERVAL", "15m"))
	if err != nil {
		return nil, fmt.Errorf("invalid REMINDER_INTERVAL: %w", err)
	}
	reminderWindow, err := parseDuration(getEnv("REMINDER_WINDOW", "24h"))
	if err != nil {
		return nil, fmt.Errorf("invalid REMINDER_WINDOW: %w", err)
	}

	config := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "Taskflow"),
			Port:        getEnv("APP_PORT", getEnv("PORT", "5000")),
			Env:         getEnv("APP_ENV", "development"),
			CORSOrigins: getEnv("CORS_ORIGINS", "*"),
		},
		Database: DatabaseConfig{
			Driver:   strings.ToLower(getEnv("DB_DRIVER", "postgres")),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "taskflow"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
			MongoURI: getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			MongoDB:  getEnv("MONGODB_DATABASE", "taskflow"),
		},
		JWT: JWTConfig{
			Secret:     getEnv("JWT_SECRET", ""),
			Expiration: jwtExpiration,
		},
		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		NATS: NATSConfig{
			URL:           getEnv("NATS_URL", ""),
			SubjectPrefix: getEnv("NATS_SUBJECT_PREFIX", "taskflow.events"),
		},
		RateLimit: RateLimitConfig{
			Enabled:  getEnvBool("RATE_LIMIT_ENABLED", true),
			Requests: getEnvInt("RATE_LIMIT_REQUESTS", 100),
			Window:   rateWindow,
		},
		Reminder: ReminderConfig{
			Enabled:   getEnvBool("REMINDER_ENABLED", true),
			Interval:  reminderInterval,
			Window:    reminderWindow,
			BatchSize: getEnvInt("REMINDER_BATCH_SIZE", 200),
		},
		Storage: StorageConfig{
			Type:          getEnv("STORAGE_TYPE", "local"),
			BasePath:      getEnv("STORAGE_BASE_PATH", "./uploads"),
			BaseURL:       getEnv("STORAGE_BASE_URL", "http://localhost:5000/uploads"),
			MaxAvatarSize: getEnvInt64("STORAGE_MAX_AVATAR_SIZE", 2<<20),
			S3: S3Config{
				Endpoint:  getEnv("S3_ENDPOINT", "localhost:9000"),
				AccessKey: getEnv("S3_ACCESS_KEY", "minioadmin"),
				SecretKey: getEnv("S3_SECRET_KEY", "minioadmin"),
				Bucket:    getEnv("S3_BUCKET", "taskflow"),
				UseSSL:    getEnvBool("S3_USE_SSL", false),
				Region:    getEnv("S3_REGION", "us-east-1"),
				PublicURL: getEnv("S3_PUBLIC_URL", ""),
			},
		},
		Log: LogConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			Format:     getEnv("LOG_FORMAT", "json"),
			Output:     getEnv("LOG_OUTPUT", "stdout"),
			FilePath:   getEnv("LOG_FILE", "logs/app.log"),
			MaxSize:    getEnvInt("LOG_MAX_SIZE", 100),
			MaxBackups: getEnvInt("LOG_MAX_BACKUPS", 5),
			MaxAge:     getEnvInt("LOG_MAX_AGE", 30),
			Compress:   getEnvBool("LOG_COMPRESS", true),
		},
		Bcrypt: BcryptConfig{
			Cost: getEnvInt("BCRYPT_COST", minBcryptCost),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate ตรวจค่าที่ระบบทำงานต่อไม่ได้ถ้าผิด
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		if c.IsProduction() {
			return errors.New("JWT_SECRET is required in production")
		}
		c.JWT.Secret = "development-secret-change-me"
	}
	if c.JWT.Expiration <= 0 {
		return errors.New("JWT_EXPIRE must be positive")
	}
	if c.Bcrypt.Cost < minBcryptCost {
		c.Bcrypt.Cost = minBcryptCost
	}
	if c.Database.Driver != "postgres" && c.Database.Driver != "mongo" {
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}
	if c.Storage.Type != "local" && c.Storage.Type != "s3" {
		return fmt.Errorf("unsupported STORAGE_TYPE %q", c.Storage.Type)
	}
	if c.RateLimit.Enabled && (c.RateLimit.Requests <= 0 || c.RateLimit.Window <= 0) {
		return errors.New("RATE_LIMIT_REQUESTS and RATE_LIMIT_WINDOW must be positive")
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

func (c *Config) UsesMongo() bool {
	return c.Database.Driver == "mongo"
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvInt64(key string, defaultValue int64) int64 {
	value, err := strconv.ParseInt(getEnv(key, ""), 10, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return value
}

// parseDuration รับ Go duration ("90m", "24h") และรูปแบบวัน ("7d")
func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, "d") {
		days, err := strconv.Atoi(strings.TrimSuffix(s, "d"))
		if err != nil {
			return 0, fmt.Errorf("invalid day duration %q", s)
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}
	return time.ParseDuration(s)
}
