package auth

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hazadus/arabes/internal/data"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("segredo123")
	if err != nil {
		t.Fatalf("Ошибка хеширования: %v", err)
	}
	if hash == "segredo123" {
		t.Error("Хеш не должен совпадать с паролем")
	}
	if !CheckPassword(hash, "segredo123") {
		t.Error("Верный пароль не прошел проверку")
	}
	if CheckPassword(hash, "errado") {
		t.Error("Неверный пароль прошел проверку")
	}

	if _, err := HashPassword("123"); !errors.Is(err, ErrWeakPassword) {
		t.Errorf("Ожидалась ErrWeakPassword, получено %v", err)
	}
	if _, err := HashPassword(strings.Repeat("a", MaxPasswordLength+1)); !errors.Is(err, ErrPasswordTooLong) {
		t.Errorf("Ожидалась ErrPasswordTooLong, получено %v", err)
	}
	if _, err := HashPassword(strings.Repeat("a", MaxPasswordLength)); err != nil {
		t.Errorf("Пароль ровно 72 байта должен приниматься: %v", err)
	}
}

func TestIssueAndParse(t *testing.T) {
	m := NewManager("test-secret", time.Hour)
	admin := data.Admin{ID: "id-1", Username: "maria", Role: data.RoleAdmin}

	token, err := m.Issue(admin)
	if err != nil {
		t.Fatalf("Ошибка выпуска токена: %v", err)
	}

	claims, err := m.Parse(token)
	if err != nil {
		t.Fatalf("Ошибка разбора токена: %v", err)
	}
	if claims.Subject != "id-1" || claims.Username != "maria" || claims.Role != data.RoleAdmin {
		t.Errorf("Неожиданные данные токена: %+v", claims)
	}
}

func TestParseExpired(t *testing.T) {
	m := NewManager("test-secret", time.Minute)
	issued := time.Now().Add(-time.Hour)
	m.now = func() time.Time { return issued }

	token, err := m.Issue(data.Admin{ID: "id-1"})
	if err != nil {
		t.Fatalf("Ошибка выпуска токена: %v", err)
	}

	m.now = time.Now
	if _, err := m.Parse(token); !errors.Is(err, ErrExpiredToken) {
		t.Errorf("Ожидалась ErrExpiredToken, получено %v", err)
	}
}

func TestParseRejectsForeignTokens(t *testing.T) {
	m := NewManager("test-secret", time.Hour)

	other, _ := NewManager("other-secret", time.Hour).Issue(data.Admin{ID: "id-1"})
	if _, err := m.Parse(other); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Чужая подпись: ожидалась ErrInvalidToken, получено %v", err)
	}

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "id-1"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("Ошибка подписи: %v", err)
	}
	if _, err := m.Parse(none); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Алгоритм none: ожидалась ErrInvalidToken, получено %v", err)
	}

	if _, err := m.Parse("garbage"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Мусор: ожидалась ErrInvalidToken, получено %v", err)
	}

	noSubject, _ := m.Issue(data.Admin{})
	if _, err := m.Parse(noSubject); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Без subject: ожидалась ErrInvalidToken, получено %v", err)
	}
}

func TestAuthenticate(t *testing.T) {
	store, err := data.Open(filepath.Join(t.TempDir(), "data.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	hash, _ := HashPassword("segredo123")
	if _, err := store.AddAdmin(data.Admin{Username: "Maria", PasswordHash: hash}); err != nil {
		t.Fatal(err)
	}

	a := NewAuthenticator(store, NewManager("s", time.Hour))

	token, admin, err := a.Authenticate("maria", "segredo123")
	if err != nil {
		t.Fatalf("Ошибка входа: %v", err)
	}
	if token == "" || admin.Username != "Maria" {
		t.Errorf("Неожиданный результат входа: %q %+v", token, admin)
	}

	if _, _, err := a.Authenticate("maria", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Неверный пароль: ожидалась ErrInvalidCredentials, получено %v", err)
	}
	if _, _, err := a.Authenticate("ghost", "segredo123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Неизвестный пользователь: ожидалась ErrInvalidCredentials, получено %v", err)
	}
}

func TestVerifyRejectsDeletedAdmin(t *testing.T) {
	store, err := data.Open(filepath.Join(t.TempDir(), "data.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	first, err := store.AddAdmin(data.Admin{Username: "admin"})
	if err != nil {
		t.Fatal(err)
	}
	second, err := store.AddAdmin(data.Admin{Username: "maria"})
	if err != nil {
		t.Fatal(err)
	}

	tokens := NewManager("s", time.Hour)
	a := NewAuthenticator(store, tokens)
	token, err := tokens.Issue(second)
	if err != nil {
		t.Fatal(err)
	}

	claims, err := a.Verify(token)
	if err != nil {
		t.Fatalf("Ошибка проверки токена: %v", err)
	}
	if claims.Subject != second.ID || claims.Role != data.RoleAdmin {
		t.Errorf("Неожиданные данные токена: %+v", claims)
	}

	if err := store.DeleteAdminByID(second.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := a.Verify(token); !errors.Is(err, ErrRevokedToken) {
		t.Errorf("Ожидалась ErrRevokedToken, получено %v", err)
	}

	firstToken, _ := tokens.Issue(first)
	if _, err := a.Verify(firstToken); err != nil {
		t.Errorf("Токен существующего администратора отклонен: %v", err)
	}
	if _, err := a.Verify("garbage"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Ожидалась ErrInvalidToken, получено %v", err)
	}
}
