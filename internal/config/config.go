package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap"
)

// Config содержит все параметры конфигурации сервиса.
// Значения читаются из переменных окружения с префиксом LESSON_.
type Config struct {
	Env        string `envconfig:"ENV" default:"development"`
	LogLevel   string `envconfig:"LOG_LEVEL" default:"info"`
	ServerPort string `envconfig:"SERVER_PORT" default:"8080"`

	DBHost        string        `envconfig:"DB_HOST" default:"localhost"`
	DBPort        string        `envconfig:"DB_PORT" default:"5432"`
	DBUser        string        `envconfig:"DB_USER" default:"postgres"`
	DBPassword    string        `envconfig:"DB_PASSWORD" required:"true"`
	DBName        string        `envconfig:"DB_NAME" default:"lesson"`
	DBSSLMode     string        `envconfig:"DB_SSLMODE" default:"disable"`
	DBMaxConns    int32         `envconfig:"DB_MAX_CONNS" default:"10"`
	DBIdleTimeout time.Duration `envconfig:"DB_IDLE_TIMEOUT" default:"5m"`

	RedisAddr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	JWTSecret       string        `envconfig:"JWT_SECRET" required:"true"`
	PasswordPepper  string        `envconfig:"PASSWORD_PEPPER" required:"true"`
	AccessTokenTTL  time.Duration `envconfig:"ACCESS_TOKEN_TTL" default:"15m"`
	RefreshTokenTTL time.Duration `envconfig:"REFRESH_TOKEN_TTL" default:"168h"`

	// CORSAllowedOrigins - список разрешенных origin через запятую.
	CORSAllowedOrigins string `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`

	DeepSeekAPIKey  string        `envconfig:"DEEPSEEK_API_KEY" default:""`
	DeepSeekBaseURL string        `envconfig:"DEEPSEEK_BASE_URL" default:"https://api.deepseek.com/v1"`
	DeepSeekModel   string        `envconfig:"DEEPSEEK_MODEL" default:"deepseek-chat"`
	AITimeout       time.Duration `envconfig:"AI_TIMEOUT" default:"90s"`
}

// GetAllowedOrigins возвращает список разрешенных CORS origin.
func (c *Config) GetAllowedOrigins() []string {
	parts := strings.Split(c.CORSAllowedOrigins, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}

// DSN собирает строку подключения к PostgreSQL.
func (c *Config) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

// LoadConfig загружает конфигурацию из .env файла (если есть) и переменных окружения.
func LoadConfig(envFilePath string) (*Config, error) {
	if envFilePath != "" {
		if err := godotenv.Load(envFilePath); err != nil {
			// Файл .env опционален, в проде конфигурация приходит из окружения.
			zap.S().Debugw("Файл .env не загружен", "path", envFilePath, "error", err)
		}
	}

	var cfg Config
	if err := envconfig.Process("LESSON", &cfg); err != nil {
		return nil, fmt.Errorf("ошибка чтения переменных окружения: %w", err)
	}
	return &cfg, nil
}
