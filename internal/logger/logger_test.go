package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func decode(t *testing.T, line string) Entry {
	t.Helper()
	var e Entry
	if err := json.Unmarshal([]byte(line), &e); err != nil {
		t.Fatalf("Ошибка разбора записи %q: %v", line, err)
	}
	return e
}

func TestLogWritesJSONLine(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(Config{ServiceName: "test"}, &buf)

	l.Info(EventGeneral, "hello", Fields("track_id", "a", "count", 2))

	e := decode(t, strings.TrimSpace(buf.String()))
	if e.Level != LevelInfo {
		t.Errorf("Ожидался уровень INFO, получено %s", e.Level)
	}
	if e.Service != "test" || e.EventType != EventGeneral || e.Message != "hello" {
		t.Errorf("Неожиданная запись: %+v", e)
	}
	if e.Details["track_id"] != "a" {
		t.Errorf("Ожидалась деталь track_id=a, получено %v", e.Details["track_id"])
	}
}

func TestSensitiveFieldsAreRedacted(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(Config{}, &buf)

	l.Security(EventLoginFailure, "login failed for maria@example.com", Fields(
		"password", "hunter2",
		"Authorization", "Bearer abc",
		"username", "maria",
	))

	out := buf.String()
	if strings.Contains(out, "hunter2") || strings.Contains(out, "Bearer abc") {
		t.Errorf("Секреты попали в журнал: %s", out)
	}
	if strings.Contains(out, "maria@example.com") {
		t.Errorf("Адрес почты не замаскирован: %s", out)
	}
	e := decode(t, strings.TrimSpace(out))
	if e.Details["username"] != "maria" {
		t.Errorf("Обычные поля не должны скрываться: %v", e.Details)
	}
	if !strings.Contains(e.Message, "ma***@example.com") {
		t.Errorf("Ожидалась маска ma***@example.com, получено %s", e.Message)
	}
}

func TestFieldsSkipsNonStringKeys(t *testing.T) {
	f := Fields("a", 1, 2, "b", "c")
	if len(f) != 1 || f["a"] != 1 {
		t.Errorf("Неожиданный результат Fields: %v", f)
	}
}

func TestGetBeforeInitDiscards(t *testing.T) {
	instanceMu.Lock()
	instance = nil
	instanceMu.Unlock()

	// Не должно паниковать и ничего не писать
	Info(EventGeneral, "discarded", nil)
}

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")
	l := New(Config{FilePath: path})
	l.Warn(EventStorage, "disk full", nil)
	if err := l.Close(); err != nil {
		t.Fatalf("Ошибка закрытия журнала: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Ошибка чтения журнала: %v", err)
	}
	e := decode(t, strings.TrimSpace(string(data)))
	if e.Level != LevelWarn || e.Message != "disk full" {
		t.Errorf("Неожиданная запись: %+v", e)
	}
}
