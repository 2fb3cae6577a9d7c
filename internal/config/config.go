// Package config содержит функции для загрузки конфигурации приложения
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/hazadus/arabes/internal/logger"
	"github.com/hazadus/arabes/internal/utils"
)

// DefaultPath - путь к файлу конфигурации по умолчанию
const DefaultPath = "~/.arabes"

// DefaultJWTSecret используется только в режиме разработки
const DefaultJWTSecret = "arabes-dev-secret"

// Окружения
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config структура для хранения конфигурации приложения
type Config struct {
	APIURL     string `yaml:"api_url"`
	PublicURL  string `yaml:"public_url"`
	ListenAddr string `yaml:"listen_addr"`

	JWTSecret string `yaml:"jwt_secret"`
	TokenTTL  string `yaml:"token_ttl"`

	DataFile        string `yaml:"data_file"`
	UploadDir       string `yaml:"upload_dir"`
	DownloadDir     string `yaml:"download_dir"`
	CredentialsFile string `yaml:"credentials_file"`

	AwsBucketName string `yaml:"aws_bucket_name"`
	AwsAccessKey  string `yaml:"aws_access_key"`
	AwsSecretKey  string `yaml:"aws_secret_key"`
	AwsRegion     string `yaml:"aws_region"`
	AwsEndpoint   string `yaml:"aws_endpoint"`

	AdminUsername string `yaml:"admin_username"`
	AdminPassword string `yaml:"admin_password"`
	AdminFullName string `yaml:"admin_full_name"`

	Environment   string `yaml:"environment"`
	LogFile       string `yaml:"log_file"`
	LogMaxSizeMB  int    `yaml:"log_max_size_mb"`
	LogMaxBackups int    `yaml:"log_max_backups"`
	LogMaxAgeDays int    `yaml:"log_max_age_days"`

	RateLimitRPS   float64 `yaml:"rate_limit_rps"`
	RateLimitBurst int     `yaml:"rate_limit_burst"`
}

// LoadConfig загружает конфигурацию: .env, затем YAML-файл, затем переменные ARABES_*.
// Отсутствующий файл не является ошибкой
func LoadConfig(filePath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("ошибка чтения .env: %w", err)
	}

	path, err := utils.ExpandPath(filePath)
	if err != nil {
		return nil, err
	}

	config := &Config{}
	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(raw, config); err != nil {
			return nil, fmt.Errorf("ошибка разбора конфигурации: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("ошибка чтения конфигурации: %w", err)
	}

	config.applyEnv()
	if err := config.applyDefaults(); err != nil {
		return nil, err
	}
	return config, nil
}

// applyEnv переопределяет значения переменными окружения
func (c *Config) applyEnv() {
	overrides := map[string]*string{
		"ARABES_API_URL":         &c.APIURL,
		"ARABES_PUBLIC_URL":      &c.PublicURL,
		"ARABES_LISTEN_ADDR":     &c.ListenAddr,
		"ARABES_JWT_SECRET":      &c.JWTSecret,
		"ARABES_TOKEN_TTL":       &c.TokenTTL,
		"ARABES_DATA_FILE":       &c.DataFile,
		"ARABES_UPLOAD_DIR":      &c.UploadDir,
		"ARABES_AWS_BUCKET_NAME": &c.AwsBucketName,
		"ARABES_AWS_ACCESS_KEY":  &c.AwsAccessKey,
		"ARABES_AWS_SECRET_KEY":  &c.AwsSecretKey,
		"ARABES_AWS_REGION":      &c.AwsRegion,
		"ARABES_AWS_ENDPOINT":    &c.AwsEndpoint,
		"ARABES_ADMIN_USERNAME":  &c.AdminUsername,
		"ARABES_ADMIN_PASSWORD":  &c.AdminPassword,
		"ARABES_LOG_FILE":        &c.LogFile,
		"ARABES_ENVIRONMENT":     &c.Environment,
	}
	for key, field := range overrides {
		if value := os.Getenv(key); value != "" {
			*field = value
		}
	}

	if value := os.Getenv("ARABES_RATE_LIMIT_RPS"); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			c.RateLimitRPS = f
		}
	}
	if value := os.Getenv("ARABES_RATE_LIMIT_BURST"); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			c.RateLimitBurst = n
		}
	}
}

// applyDefaults заполняет пустые значения и раскрывает тильду в путях
func (c *Config) applyDefaults() error {
	setDefault(&c.APIURL, "http://localhost:5000")
	c.APIURL = strings.TrimRight(c.APIURL, "/")
	setDefault(&c.PublicURL, c.APIURL)
	c.PublicURL = strings.TrimRight(c.PublicURL, "/")
	setDefault(&c.ListenAddr, ":5000")
	setDefault(&c.TokenTTL, "24h")
	setDefault(&c.DataFile, "~/.arabes-data.yaml")
	setDefault(&c.UploadDir, "~/.arabes-uploads")
	setDefault(&c.DownloadDir, "~/Downloads")
	setDefault(&c.CredentialsFile, "~/.arabes-credentials")
	setDefault(&c.AwsRegion, "us-east-1")
	setDefault(&c.AdminFullName, "Administrador")
	setDefault(&c.Environment, EnvDevelopment)

	if c.LogMaxSizeMB == 0 {
		c.LogMaxSizeMB = 100
	}
	if c.LogMaxBackups == 0 {
		c.LogMaxBackups = 5
	}
	if c.LogMaxAgeDays == 0 {
		c.LogMaxAgeDays = 30
	}
	if c.RateLimitRPS == 0 {
		c.RateLimitRPS = 10
	}
	if c.RateLimitBurst == 0 {
		c.RateLimitBurst = 40
	}

	for _, p := range []*string{&c.DataFile, &c.UploadDir, &c.DownloadDir, &c.CredentialsFile, &c.LogFile} {
		expanded, err := utils.ExpandPath(*p)
		if err != nil {
			return err
		}
		*p = expanded
	}
	return nil
}

// Validate проверяет настройки сервера
func (c *Config) Validate() error {
	if _, err := time.ParseDuration(c.TokenTTL); err != nil {
		return fmt.Errorf("некорректный token_ttl %q: %w", c.TokenTTL, err)
	}
	if c.Environment == EnvProduction && (c.JWTSecret == "" || c.JWTSecret == DefaultJWTSecret) {
		return errors.New("в production необходимо задать jwt_secret")
	}
	if c.AwsBucketName != "" && (c.AwsAccessKey == "" || c.AwsSecretKey == "") {
		return errors.New("для S3 необходимо задать aws_access_key и aws_secret_key")
	}
	return nil
}

// Secret возвращает ключ подписи токенов, в разработке допускается ключ по умолчанию
func (c *Config) Secret() string {
	if c.JWTSecret == "" {
		return DefaultJWTSecret
	}
	return c.JWTSecret
}

// TTL возвращает срок жизни токена
func (c *Config) TTL() time.Duration {
	d, err := time.ParseDuration(c.TokenTTL)
	if err != nil || d <= 0 {
		return 24 * time.Hour
	}
	return d
}

// UseS3 сообщает, настроено ли хранилище S3
func (c *Config) UseS3() bool {
	return c.AwsBucketName != ""
}

// Logger возвращает настройки журнала
func (c *Config) Logger(service string, console bool) logger.Config {
	return logger.Config{
		ServiceName: service,
		Environment: c.Environment,
		FilePath:    c.LogFile,
		Console:     console,
		MaxSizeMB:   c.LogMaxSizeMB,
		MaxBackups:  c.LogMaxBackups,
		MaxAgeDays:  c.LogMaxAgeDays,
	}
}

func setDefault(field *string, value string) {
	if strings.TrimSpace(*field) == "" {
		*field = value
	}
}
