package apiclient

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hazadus/arabes/internal/auth"
	"github.com/hazadus/arabes/internal/catalog"
	"github.com/hazadus/arabes/internal/data"
	"github.com/hazadus/arabes/internal/server"
	"github.com/hazadus/arabes/internal/storage"
	"github.com/hazadus/arabes/internal/uploader"
)

// newTestServer поднимает настоящий API на временных каталогах
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	dataStore, err := data.Open(filepath.Join(dir, "data.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	store, err := storage.NewLocalStore(filepath.Join(dir, "uploads"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := server.SeedAdmin(dataStore, "admin", "segredo123", "Administrador"); err != nil {
		t.Fatal(err)
	}

	srv := server.New(server.Options{
		Data:      dataStore,
		Uploads:   uploader.NewService(store, dataStore),
		Store:     store,
		Auth:      auth.NewAuthenticator(dataStore, auth.NewManager("test-secret", time.Hour)),
		UploadDir: store.Dir(),
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoginAndAdminFlow(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()
	client := New(ts.URL+"/", "")

	if _, err := client.Login(ctx, "admin", "errado123"); err == nil {
		t.Fatal("Ожидалась ошибка входа с неверным паролем")
	} else if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("Ожидалась ErrUnauthorized, получено %v", err)
	}

	creds, err := client.Login(ctx, "admin", "segredo123")
	if err != nil {
		t.Fatalf("Ошибка входа: %v", err)
	}
	if !creds.IsAdmin() || creds.User.FullName != "Administrador" {
		t.Errorf("Неожиданные учетные данные: %+v", creds)
	}

	user, err := client.CreateAdmin(ctx, "Maria", "maria", "segredo456")
	if err != nil {
		t.Fatalf("Ошибка создания администратора: %v", err)
	}
	admins, err := client.ListAdmins(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(admins) != 2 {
		t.Errorf("Ожидалось 2 администратора, получено %d", len(admins))
	}
	if err := client.DeleteAdmin(ctx, user.ID); err != nil {
		t.Errorf("Ошибка удаления администратора: %v", err)
	}
}

func TestAdminCallsWithoutToken(t *testing.T) {
	ts := newTestServer(t)
	client := New(ts.URL, "")

	err := client.DeleteMedia(context.Background(), "abc")
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("Ожидалась ErrUnauthorized, получено %v", err)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized {
		t.Errorf("Ожидалась APIError 401, получено %v", err)
	}
}

func TestMediaRoundTrip(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()
	client := New(ts.URL, "")
	if _, err := client.Login(ctx, "admin", "segredo123"); err != nil {
		t.Fatal(err)
	}

	m, err := client.CreateMedia(ctx, MediaFields{
		Title:    "Aicha",
		Artist:   "Khaled",
		Category: "rai",
		File:     writeFile(t, "aicha.mp3", "fake audio bytes"),
	})
	if err != nil {
		t.Fatalf("Ошибка загрузки медиа: %v", err)
	}

	list, err := client.ListMedia(ctx, catalog.AllCategories, "aicha")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].ID != m.ID {
		t.Errorf("Ожидалось одно медиа, получено %+v", list)
	}

	updated, err := client.UpdateMedia(ctx, m.ID, MediaFields{Artist: "Cheb Khaled"})
	if err != nil {
		t.Fatalf("Ошибка обновления: %v", err)
	}
	if updated.Artist != "Cheb Khaled" || updated.Title != "Aicha" {
		t.Errorf("Неожиданное медиа после обновления: %+v", updated)
	}

	var buf bytes.Buffer
	n, err := client.Download(ctx, m.ID, &buf)
	if err != nil {
		t.Fatalf("Ошибка скачивания: %v", err)
	}
	if n != int64(len("fake audio bytes")) || buf.String() != "fake audio bytes" {
		t.Errorf("Неожиданное содержимое: %q", buf.String())
	}

	if err := client.DeleteMedia(ctx, m.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := client.GetMedia(ctx, m.ID); !errors.Is(err, data.ErrNotFound) {
		t.Errorf("Ожидалась ErrNotFound, получено %v", err)
	}
}

func TestNewsRoundTrip(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()
	client := New(ts.URL, "")
	if _, err := client.Login(ctx, "admin", "segredo123"); err != nil {
		t.Fatal(err)
	}

	n, err := client.CreateNews(ctx, NewsFields{Title: "Festival", Content: "Programação"})
	if err != nil {
		t.Fatalf("Ошибка публикации: %v", err)
	}

	list, err := client.ListNews(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].ID != n.ID {
		t.Errorf("Ожидалась одна новость, получено %+v", list)
	}

	got, err := client.GetNews(ctx, n.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "Festival" {
		t.Errorf("Неожиданная новость: %+v", got)
	}
	if err := client.DeleteNews(ctx, n.ID); err != nil {
		t.Fatal(err)
	}
}

func TestListNewsAcceptsBareArray(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":"1","title":"","content":"Texto"}]`))
	}))
	defer ts.Close()

	list, err := New(ts.URL, "").ListNews(context.Background(), "")
	if err != nil {
		t.Fatalf("Ошибка разбора массива: %v", err)
	}
	if len(list) != 1 || list[0].Title != catalog.MissingNewsTitle {
		t.Errorf("Ожидалась новость с заглушкой заголовка, получено %+v", list)
	}
}

func TestDecodeErrorFallsBackToStatusText(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	_, err := New(ts.URL, "").ListMedia(context.Background(), "", "")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Ожидалась APIError, получено %v", err)
	}
	if apiErr.Message != http.StatusText(http.StatusBadGateway) {
		t.Errorf("Неожиданное сообщение: %q", apiErr.Message)
	}
}

func TestCreateMediaStreamsFileWithProgress(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()
	client := New(ts.URL, "")
	if _, err := client.Login(ctx, "admin", "segredo123"); err != nil {
		t.Fatal(err)
	}

	content := strings.Repeat("a", 1<<20)
	var calls int
	var lastSent, lastTotal int64
	client.SetUploadProgress(func(sent, total int64) {
		calls++
		if sent < lastSent {
			t.Errorf("Прогресс уменьшился: %d после %d", sent, lastSent)
		}
		lastSent, lastTotal = sent, total
	})

	m, err := client.CreateMedia(ctx, MediaFields{
		Title: "Grande",
		File:  writeFile(t, "grande.mp3", content),
	})
	if err != nil {
		t.Fatalf("Ошибка загрузки медиа: %v", err)
	}
	if calls == 0 {
		t.Fatal("Обработчик прогресса не вызывался")
	}
	if lastTotal != int64(len(content)) || lastSent != lastTotal {
		t.Errorf("Ожидался прогресс %d/%d, получено %d/%d", len(content), len(content), lastSent, lastTotal)
	}

	var buf bytes.Buffer
	if _, err := client.Download(ctx, m.ID, &buf); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != len(content) {
		t.Errorf("Ожидался размер %d, получено %d", len(content), buf.Len())
	}
}

func TestCreateMediaMissingFileFailsBeforeRequest(t *testing.T) {
	var hits int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusCreated)
	}))
	defer ts.Close()

	_, err := New(ts.URL, "token").CreateMedia(context.Background(), MediaFields{
		Title: "Sem arquivo",
		File:  filepath.Join(t.TempDir(), "nao-existe.mp3"),
	})
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Ожидалась os.ErrNotExist, получено %v", err)
	}
	if hits != 0 {
		t.Errorf("Запрос не должен был отправляться, получено %d", hits)
	}
}
