package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func writeConfig(t *testing.T, values map[string]interface{}) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw, err := yaml.Marshal(values)
	if err != nil {
		t.Fatalf("Ошибка сериализации конфигурации: %v", err)
	}
	if err := os.WriteFile(path, raw, 0644); err != nil {
		t.Fatalf("Ошибка записи файла конфигурации: %v", err)
	}
	return path
}

func TestLoadConfigFromFile(t *testing.T) {
	path := writeConfig(t, map[string]interface{}{
		"api_url":         "https://api.example.com/",
		"aws_bucket_name": "test-bucket",
		"aws_access_key":  "test-access-key",
		"aws_secret_key":  "test-secret-key",
		"aws_endpoint":    "https://s3.example.com",
		"download_dir":    "~/test-downloads",
		"rate_limit_rps":  2.5,
	})

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	if cfg.APIURL != "https://api.example.com" {
		t.Errorf("Ожидался APIURL без слеша, получено: %s", cfg.APIURL)
	}
	if cfg.PublicURL != cfg.APIURL {
		t.Errorf("PublicURL по умолчанию должен совпадать с APIURL, получено: %s", cfg.PublicURL)
	}
	if !cfg.UseS3() || cfg.AwsEndpoint != "https://s3.example.com" {
		t.Errorf("Настройки S3 загружены неверно: %+v", cfg)
	}
	if cfg.RateLimitRPS != 2.5 {
		t.Errorf("Ожидался RateLimitRPS 2.5, получено %v", cfg.RateLimitRPS)
	}

	home, _ := os.UserHomeDir()
	expected := filepath.Join(home, "test-downloads")
	if cfg.DownloadDir != expected {
		t.Errorf("Ожидался DownloadDir: %s, получено: %s", expected, cfg.DownloadDir)
	}
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Отсутствующий файл не должен быть ошибкой: %v", err)
	}

	if cfg.APIURL != "http://localhost:5000" || cfg.ListenAddr != ":5000" {
		t.Errorf("Неожиданные значения по умолчанию: %s %s", cfg.APIURL, cfg.ListenAddr)
	}
	if cfg.Environment != EnvDevelopment {
		t.Errorf("Ожидалось окружение development, получено %s", cfg.Environment)
	}
	if cfg.UseS3() {
		t.Error("Без бакета должно использоваться локальное хранилище")
	}
	if strings.HasPrefix(cfg.DataFile, "~") || strings.HasPrefix(cfg.UploadDir, "~") {
		t.Error("Тильда в путях должна быть раскрыта")
	}
	if cfg.TTL() != 24*time.Hour {
		t.Errorf("Ожидался TTL 24h, получено %v", cfg.TTL())
	}
	if cfg.Secret() != DefaultJWTSecret {
		t.Errorf("Ожидался ключ по умолчанию, получено %s", cfg.Secret())
	}
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("api_url: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Error("Ожидалась ошибка разбора конфигурации")
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, map[string]interface{}{
		"listen_addr": ":7000",
		"jwt_secret":  "from-file",
	})
	t.Setenv("ARABES_LISTEN_ADDR", ":9000")
	t.Setenv("ARABES_JWT_SECRET", "from-env")
	t.Setenv("ARABES_RATE_LIMIT_BURST", "3")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}
	if cfg.ListenAddr != ":9000" || cfg.JWTSecret != "from-env" {
		t.Errorf("Переменные окружения должны иметь приоритет: %s %s", cfg.ListenAddr, cfg.JWTSecret)
	}
	if cfg.RateLimitBurst != 3 {
		t.Errorf("Ожидался RateLimitBurst 3, получено %d", cfg.RateLimitBurst)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"development default secret", Config{Environment: EnvDevelopment, TokenTTL: "24h"}, false},
		{"production without secret", Config{Environment: EnvProduction, TokenTTL: "24h"}, true},
		{"production default secret", Config{Environment: EnvProduction, TokenTTL: "24h", JWTSecret: DefaultJWTSecret}, true},
		{"production with secret", Config{Environment: EnvProduction, TokenTTL: "24h", JWTSecret: "strong"}, false},
		{"bad ttl", Config{TokenTTL: "forever"}, true},
		{"s3 without keys", Config{TokenTTL: "1h", AwsBucketName: "b"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, ожидалась ошибка: %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoggerConfig(t *testing.T) {
	cfg := &Config{Environment: EnvProduction, LogFile: "/tmp/arabes.log", LogMaxSizeMB: 7}
	lc := cfg.Logger("arabes-server", true)
	if lc.ServiceName != "arabes-server" || lc.FilePath != "/tmp/arabes.log" || !lc.Console || lc.MaxSizeMB != 7 {
		t.Errorf("Неожиданные настройки журнала: %+v", lc)
	}
}
