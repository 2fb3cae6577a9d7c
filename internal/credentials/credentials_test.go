package credentials

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFile(t *testing.T) {
	creds, err := Load(filepath.Join(t.TempDir(), "none"))
	if err != nil {
		t.Fatalf("Отсутствующий файл не должен быть ошибкой: %v", err)
	}
	if creds.IsAuthenticated() || creds.IsAdmin() {
		t.Error("Пустые учетные данные не должны давать доступ")
	}
}

func TestSaveLoadClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "creds")
	in := &Credentials{
		Token: "jwt-token",
		User:  User{ID: "1", FullName: "Maria Silva", Username: "maria", Role: "admin"},
	}

	if err := Save(path, in); err != nil {
		t.Fatalf("Ошибка сохранения: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("Ожидались права 0600, получено %v", info.Mode().Perm())
	}

	out, err := Load(path)
	if err != nil {
		t.Fatalf("Ошибка загрузки: %v", err)
	}
	if *out != *in {
		t.Errorf("Ожидалось %+v, получено %+v", in, out)
	}
	if !out.IsAuthenticated() || !out.IsAdmin() {
		t.Error("Сохраненный администратор должен считаться вошедшим")
	}

	if err := Clear(path); err != nil {
		t.Fatalf("Ошибка удаления: %v", err)
	}
	if err := Clear(path); err != nil {
		t.Errorf("Повторное удаление не должно быть ошибкой: %v", err)
	}
	after, _ := Load(path)
	if after.IsAuthenticated() {
		t.Error("После выхода токен не должен сохраняться")
	}
}

func TestIsAdminRequiresRole(t *testing.T) {
	tests := []struct {
		name  string
		creds *Credentials
		want  bool
	}{
		{"nil", nil, false},
		{"no token", &Credentials{User: User{Role: "admin"}}, false},
		{"token without role", &Credentials{Token: "t"}, false},
		{"token with admin role", &Credentials{Token: "t", User: User{Role: "admin"}}, true},
	}
	for _, tt := range tests {
		if got := tt.creds.IsAdmin(); got != tt.want {
			t.Errorf("%s: IsAdmin() = %v, ожидалось %v", tt.name, got, tt.want)
		}
	}
}

func TestLoadInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "creds")
	if err := os.WriteFile(path, []byte("token: [bad"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Ожидалась ошибка разбора")
	}
}
