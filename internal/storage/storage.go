// Package storage содержит хранилища файлов медиа: Amazon S3 и локальный каталог
package storage

import (
	"context"
	"errors"
	"io"
	"strings"
)

// ErrNotFound возвращается, если объекта нет в хранилище
var ErrNotFound = errors.New("объект не найден в хранилище")

// Store сохраняет, отдает и удаляет файлы по ключу
type Store interface {
	// Put сохраняет содержимое и возвращает адрес файла
	Put(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
	// Open открывает файл для чтения
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete удаляет файл
	Delete(ctx context.Context, key string) error
	// URL возвращает адрес файла по ключу
	URL(key string) string
}

// KeyFromURL восстанавливает ключ по адресу файла, выданному хранилищем
func KeyFromURL(store Store, u string) (string, bool) {
	prefix := store.URL("")
	if prefix == "" || !strings.HasPrefix(u, prefix) {
		return "", false
	}
	key := strings.TrimPrefix(u, prefix)
	return key, key != ""
}
