// Package credentials хранит токен входа и данные пользователя на диске клиента
package credentials

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/hazadus/arabes/internal/utils"
)

// User - данные вошедшего администратора
type User struct {
	ID       string `yaml:"id" json:"id"`
	FullName string `yaml:"full_name" json:"fullName"`
	Username string `yaml:"username" json:"username"`
	Role     string `yaml:"role" json:"role"`
}

// Credentials - содержимое файла учетных данных
type Credentials struct {
	Token string `yaml:"token"`
	User  User   `yaml:"user"`
}

// IsAuthenticated сообщает, сохранен ли токен. Подлинность проверяет сервер
func (c *Credentials) IsAuthenticated() bool {
	return c != nil && c.Token != ""
}

// IsAdmin сообщает, вошел ли администратор
func (c *Credentials) IsAdmin() bool {
	return c.IsAuthenticated() && c.User.Role == "admin"
}

// Load читает файл. Отсутствующий файл дает пустые учетные данные
func Load(filePath string) (*Credentials, error) {
	path, err := utils.ExpandPath(filePath)
	if err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Credentials{}, nil
		}
		return nil, fmt.Errorf("ошибка чтения учетных данных: %w", err)
	}

	creds := &Credentials{}
	if err := yaml.Unmarshal(raw, creds); err != nil {
		return nil, fmt.Errorf("ошибка разбора учетных данных: %w", err)
	}
	return creds, nil
}

// Save записывает файл с правами 0600
func Save(filePath string, creds *Credentials) error {
	path, err := utils.ExpandPath(filePath)
	if err != nil {
		return err
	}

	raw, err := yaml.Marshal(creds)
	if err != nil {
		return fmt.Errorf("ошибка сериализации учетных данных: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("ошибка создания каталога: %w", err)
	}
	if err := os.WriteFile(path, raw, 0600); err != nil {
		return fmt.Errorf("ошибка записи учетных данных: %w", err)
	}
	// WriteFile не меняет права существующего файла
	if err := os.Chmod(path, 0600); err != nil {
		return fmt.Errorf("ошибка установки прав: %w", err)
	}
	return nil
}

// Clear удаляет файл учетных данных
func Clear(filePath string) error {
	path, err := utils.ExpandPath(filePath)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("ошибка удаления учетных данных: %w", err)
	}
	return nil
}
