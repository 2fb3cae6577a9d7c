package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// UploadsPrefix - путь, по которому сервер раздает локальные файлы
const UploadsPrefix = "/uploads/"

// LocalStore хранит файлы в каталоге на диске
type LocalStore struct {
	dir string
}

// NewLocalStore создает каталог хранилища при необходимости
func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("ошибка создания каталога загрузок: %w", err)
	}
	return &LocalStore{dir: dir}, nil
}

// Dir возвращает корневой каталог хранилища
func (s *LocalStore) Dir() string {
	return s.dir
}

// Put записывает файл на диск
func (s *LocalStore) Put(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	path, err := s.path(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("ошибка создания каталога: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("ошибка создания файла: %w", err)
	}
	if _, err := io.Copy(file, &ctxReader{ctx: ctx, r: body}); err != nil {
		file.Close()
		os.Remove(path)
		return "", fmt.Errorf("ошибка загрузки: %w", err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("ошибка загрузки: %w", err)
	}
	return s.URL(key), nil
}

// Open открывает файл для чтения
func (s *LocalStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
		}
		return nil, fmt.Errorf("ошибка открытия файла: %w", err)
	}
	return file, nil
}

// Delete удаляет файл. Отсутствующий файл не считается ошибкой
func (s *LocalStore) Delete(ctx context.Context, key string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("ошибка удаления файла: %w", err)
	}
	return nil
}

// URL возвращает относительный адрес файла на сервере
func (s *LocalStore) URL(key string) string {
	return UploadsPrefix + key
}

// path не выпускает ключ за пределы каталога хранилища
func (s *LocalStore) path(key string) (string, error) {
	clean := filepath.Clean("/" + key)
	if key == "" || clean == "/" || strings.Contains(key, "..") {
		return "", fmt.Errorf("некорректный ключ файла: %q", key)
	}
	return filepath.Join(s.dir, clean), nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
