// Package logger содержит структурированный JSON-логгер с ротацией файлов
package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Level - уровень записи
type Level string

// Уровни записей
const (
	LevelInfo     Level = "INFO"
	LevelWarn     Level = "WARN"
	LevelError    Level = "ERROR"
	LevelSecurity Level = "SECURITY"
)

// Типы событий
const (
	EventServiceStartup  = "SERVICE_STARTUP"
	EventServiceShutdown = "SERVICE_SHUTDOWN"
	EventLoginSuccess    = "LOGIN_SUCCESS"
	EventLoginFailure    = "LOGIN_FAILURE"
	EventAccessDenied    = "ACCESS_DENIED"
	EventInvalidToken    = "INVALID_TOKEN"
	EventExpiredToken    = "EXPIRED_TOKEN"
	EventAdminActivity   = "ADMIN_ACTIVITY"
	EventValidation      = "VALIDATION_FAILURE"
	EventRequest         = "HTTP_REQUEST"
	EventStorage         = "STORAGE"
	EventData            = "DATA"
	EventPlayback        = "PLAYBACK"
	EventGeneral         = "GENERAL"
)

// Entry - одна строка журнала
type Entry struct {
	Timestamp string                 `json:"timestamp"`
	Level     Level                  `json:"level"`
	Service   string                 `json:"service"`
	EventType string                 `json:"event_type"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// Config содержит настройки логгера
type Config struct {
	ServiceName string
	Environment string
	FilePath    string // Пустой путь - без записи в файл
	Console     bool   // Дублировать записи в stdout
	MaxSizeMB   int
	MaxBackups  int
	MaxAgeDays  int
}

// Logger пишет записи в формате JSON Lines
type Logger struct {
	config Config
	writer io.Writer
	closer io.Closer
	mu     sync.Mutex
}

var sensitiveFields = map[string]bool{
	"password":      true,
	"new_password":  true,
	"token":         true,
	"access_token":  true,
	"authorization": true,
	"secret":        true,
	"secret_key":    true,
	"jwt":           true,
	"cookie":        true,
	"api_key":       true,
}

var emailRegex = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)

var (
	instance   *Logger
	instanceMu sync.RWMutex
)

// Init устанавливает глобальный логгер
func Init(cfg Config) *Logger {
	l := New(cfg)
	instanceMu.Lock()
	instance = l
	instanceMu.Unlock()
	return l
}

// Get возвращает глобальный логгер. До вызова Init записи отбрасываются
func Get() *Logger {
	instanceMu.RLock()
	l := instance
	instanceMu.RUnlock()
	if l != nil {
		return l
	}
	return &Logger{config: Config{ServiceName: "arabes"}, writer: io.Discard}
}

// New создает логгер по конфигурации
func New(cfg Config) *Logger {
	if cfg.ServiceName == "" {
		cfg.ServiceName = "arabes"
	}
	if cfg.MaxSizeMB == 0 {
		cfg.MaxSizeMB = 100
	}
	if cfg.MaxBackups == 0 {
		cfg.MaxBackups = 5
	}
	if cfg.MaxAgeDays == 0 {
		cfg.MaxAgeDays = 30
	}

	var writers []io.Writer
	if cfg.Console {
		writers = append(writers, os.Stdout)
	}

	l := &Logger{config: cfg}

	if cfg.FilePath != "" {
		dir := filepath.Dir(cfg.FilePath)
		if err := os.MkdirAll(dir, 0700); err != nil {
			fmt.Fprintf(os.Stderr, "⚠️  Не удалось создать каталог журнала %s: %v\n", dir, err)
		} else {
			fileWriter := &lumberjack.Logger{
				Filename:   cfg.FilePath,
				MaxSize:    cfg.MaxSizeMB,
				MaxBackups: cfg.MaxBackups,
				MaxAge:     cfg.MaxAgeDays,
				Compress:   true,
			}
			writers = append(writers, fileWriter)
			l.closer = fileWriter
		}
	}

	switch len(writers) {
	case 0:
		l.writer = io.Discard
	case 1:
		l.writer = writers[0]
	default:
		l.writer = io.MultiWriter(writers...)
	}
	return l
}

// NewWithWriter создает логгер поверх произвольного writer
func NewWithWriter(cfg Config, w io.Writer) *Logger {
	if cfg.ServiceName == "" {
		cfg.ServiceName = "arabes"
	}
	return &Logger{config: cfg, writer: w}
}

// Close закрывает файл журнала
func (l *Logger) Close() error {
	if l.closer != nil {
		return l.closer.Close()
	}
	return nil
}

func (l *Logger) log(level Level, eventType, message string, details map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry := Entry{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Level:     level,
		Service:   l.config.ServiceName,
		EventType: eventType,
		Message:   sanitizeString(message),
		Details:   sanitizeDetails(details),
	}

	data, err := json.Marshal(entry)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ошибка сериализации записи журнала: %v\n", err)
		return
	}
	_, _ = l.writer.Write(append(data, '\n'))
}

// Info пишет информационную запись
func (l *Logger) Info(eventType, message string, details map[string]interface{}) {
	l.log(LevelInfo, eventType, message, details)
}

// Warn пишет предупреждение
func (l *Logger) Warn(eventType, message string, details map[string]interface{}) {
	l.log(LevelWarn, eventType, message, details)
}

// Error пишет ошибку
func (l *Logger) Error(eventType, message string, details map[string]interface{}) {
	l.log(LevelError, eventType, message, details)
}

// Security пишет событие безопасности
func (l *Logger) Security(eventType, message string, details map[string]interface{}) {
	l.log(LevelSecurity, eventType, message, details)
}

func Info(eventType, message string, details map[string]interface{}) {
	Get().Info(eventType, message, details)
}

func Warn(eventType, message string, details map[string]interface{}) {
	Get().Warn(eventType, message, details)
}

func Error(eventType, message string, details map[string]interface{}) {
	Get().Error(eventType, message, details)
}

func Security(eventType, message string, details map[string]interface{}) {
	Get().Security(eventType, message, details)
}

// Fields собирает детали записи из пар ключ-значение
func Fields(kv ...interface{}) map[string]interface{} {
	details := make(map[string]interface{}, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		details[key] = kv[i+1]
	}
	return details
}

func sanitizeDetails(details map[string]interface{}) map[string]interface{} {
	if details == nil {
		return nil
	}
	sanitized := make(map[string]interface{}, len(details))
	for k, v := range details {
		if sensitiveFields[strings.ToLower(k)] {
			sanitized[k] = "[REDACTED]"
			continue
		}
		switch val := v.(type) {
		case string:
			sanitized[k] = sanitizeString(val)
		case map[string]interface{}:
			sanitized[k] = sanitizeDetails(val)
		default:
			sanitized[k] = val
		}
	}
	return sanitized
}

func sanitizeString(s string) string {
	return emailRegex.ReplaceAllStringFunc(s, maskEmail)
}

func maskEmail(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return "[REDACTED_EMAIL]"
	}
	local := parts[0]
	if len(local) <= 2 {
		return "**@" + parts[1]
	}
	return local[:2] + "***@" + parts[1]
}
