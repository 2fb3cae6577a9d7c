// Package uploader принимает загрузки медиа и новостей: сохраняет файлы в хранилище,
// дополняет метаданные и записывает каталог
package uploader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/hazadus/arabes/internal/catalog"
	"github.com/hazadus/arabes/internal/data"
	"github.com/hazadus/arabes/internal/logger"
	"github.com/hazadus/arabes/internal/metadata"
	"github.com/hazadus/arabes/internal/storage"
)

var (
	// ErrFileRequired возвращается при создании медиа без файла
	ErrFileRequired = errors.New("файл обязателен")
	// ErrTitleRequired возвращается, если название не указано и не найдено в тегах
	ErrTitleRequired = errors.New("название обязательно")
	// ErrContentRequired возвращается при пустом тексте новости
	ErrContentRequired = errors.New("текст новости обязателен")
	// ErrInvalidVideo возвращается для нераспознанной ссылки на видео
	ErrInvalidVideo = errors.New("некорректная ссылка на видео")
)

// Upload - загруженный файл формы
type Upload struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.ReadSeeker
}

// MediaForm - поля формы медиа. Пустые поля при обновлении не меняются
type MediaForm struct {
	Title     string
	Artist    string
	Category  string
	File      *Upload
	Thumbnail *Upload
}

// NewsForm - поля формы новости
type NewsForm struct {
	Title    string
	Content  string
	Category string
	VideoURL string
	Image    *Upload
}

// Service управляет загрузкой и удалением файлов каталога
type Service struct {
	store     storage.Store
	extractor *metadata.Extractor
	data      *data.Store
}

// NewService создает сервис загрузки
func NewService(store storage.Store, dataStore *data.Store) *Service {
	return &Service{
		store:     store,
		extractor: metadata.NewExtractor(),
		data:      dataStore,
	}
}

// CreateMedia сохраняет аудиофайл, обложку и запись медиа
func (s *Service) CreateMedia(ctx context.Context, form MediaForm) (data.Media, error) {
	if form.File == nil {
		return data.Media{}, ErrFileRequired
	}

	probe := s.extractor.ProbeReader(form.File.Body, form.File.Name)
	m := data.Media{
		Title:    firstNonEmpty(form.Title, probe.Tags.Title),
		Artist:   firstNonEmpty(form.Artist, probe.Tags.Artist),
		Category: strings.TrimSpace(form.Category),
		Length:   int(probe.Duration.Seconds()),
	}
	if m.Title == "" {
		return data.Media{}, ErrTitleRequired
	}

	stored, err := s.putAudio(ctx, &m, form.File)
	if err != nil {
		return data.Media{}, err
	}
	if form.Thumbnail != nil {
		key, url, err := s.put(ctx, "thumbnails", form.Thumbnail)
		if err != nil {
			s.cleanup(ctx, stored)
			return data.Media{}, err
		}
		m.ThumbnailKey, m.ThumbnailURL = key, url
		stored = append(stored, key)
	}

	saved, err := s.data.AddMedia(m)
	if err != nil {
		s.cleanup(ctx, stored)
		return data.Media{}, err
	}

	logger.Info(logger.EventAdminActivity, "Media created", logger.Fields(
		"media_id", saved.ID,
		"title", saved.Title,
		"file_key", saved.FileKey,
	))
	return saved, nil
}

// UpdateMedia меняет указанные поля и заменяет переданные файлы
func (s *Service) UpdateMedia(ctx context.Context, id string, form MediaForm) (data.Media, error) {
	m, err := s.data.MediaByID(id)
	if err != nil {
		return data.Media{}, err
	}

	var stored, replaced []string
	if form.File != nil {
		oldKey := s.keyOf(m.FileKey, m.URL)
		probe := s.extractor.ProbeReader(form.File.Body, form.File.Name)
		m.Length = int(probe.Duration.Seconds())
		if stored, err = s.putAudio(ctx, &m, form.File); err != nil {
			return data.Media{}, err
		}
		replaced = appendKey(replaced, oldKey)
	}
	if form.Thumbnail != nil {
		oldKey := s.keyOf(m.ThumbnailKey, m.ThumbnailURL)
		key, url, err := s.put(ctx, "thumbnails", form.Thumbnail)
		if err != nil {
			s.cleanup(ctx, stored)
			return data.Media{}, err
		}
		m.ThumbnailKey, m.ThumbnailURL = key, url
		stored = append(stored, key)
		replaced = appendKey(replaced, oldKey)
	}

	if v := strings.TrimSpace(form.Title); v != "" {
		m.Title = v
	}
	if v := strings.TrimSpace(form.Artist); v != "" {
		m.Artist = v
	}
	if v := strings.TrimSpace(form.Category); v != "" {
		m.Category = v
	}

	saved, err := s.data.UpdateMedia(m)
	if err != nil {
		s.cleanup(ctx, stored)
		return data.Media{}, err
	}
	s.cleanup(ctx, replaced)

	logger.Info(logger.EventAdminActivity, "Media updated", logger.Fields("media_id", saved.ID))
	return saved, nil
}

// DeleteMedia удаляет файлы медиа и запись. Ошибка хранилища не прерывает удаление
func (s *Service) DeleteMedia(ctx context.Context, id string) error {
	m, err := s.data.MediaByID(id)
	if err != nil {
		return err
	}

	s.cleanup(ctx, appendKey(appendKey(nil, s.keyOf(m.FileKey, m.URL)), s.keyOf(m.ThumbnailKey, m.ThumbnailURL)))

	if _, err := s.data.DeleteMediaByID(id); err != nil {
		return err
	}
	logger.Info(logger.EventAdminActivity, "Media deleted", logger.Fields("media_id", id, "title", m.Title))
	return nil
}

// CreateNews сохраняет новость с необязательным изображением
func (s *Service) CreateNews(ctx context.Context, form NewsForm) (data.News, error) {
	n := data.News{
		Title:    strings.TrimSpace(form.Title),
		Content:  strings.TrimSpace(form.Content),
		Category: strings.TrimSpace(form.Category),
	}
	if n.Title == "" {
		return data.News{}, ErrTitleRequired
	}
	if n.Content == "" {
		return data.News{}, ErrContentRequired
	}
	if err := setVideo(&n, form.VideoURL); err != nil {
		return data.News{}, err
	}

	var stored []string
	if form.Image != nil {
		key, url, err := s.put(ctx, "images", form.Image)
		if err != nil {
			return data.News{}, err
		}
		n.ImageKey, n.ImageURL = key, url
		stored = append(stored, key)
	}

	saved, err := s.data.AddNews(n)
	if err != nil {
		s.cleanup(ctx, stored)
		return data.News{}, err
	}
	logger.Info(logger.EventAdminActivity, "News created", logger.Fields("news_id", saved.ID, "title", saved.Title))
	return saved, nil
}

// UpdateNews меняет указанные поля новости
func (s *Service) UpdateNews(ctx context.Context, id string, form NewsForm) (data.News, error) {
	n, err := s.data.NewsByID(id)
	if err != nil {
		return data.News{}, err
	}

	if v := strings.TrimSpace(form.Title); v != "" {
		n.Title = v
	}
	if v := strings.TrimSpace(form.Content); v != "" {
		n.Content = v
	}
	if v := strings.TrimSpace(form.Category); v != "" {
		n.Category = v
	}
	if strings.TrimSpace(form.VideoURL) != "" {
		if err := setVideo(&n, form.VideoURL); err != nil {
			return data.News{}, err
		}
	}

	var stored, replaced []string
	if form.Image != nil {
		oldKey := s.keyOf(n.ImageKey, n.ImageURL)
		key, url, err := s.put(ctx, "images", form.Image)
		if err != nil {
			return data.News{}, err
		}
		n.ImageKey, n.ImageURL = key, url
		stored = append(stored, key)
		replaced = appendKey(replaced, oldKey)
	}

	saved, err := s.data.UpdateNews(n)
	if err != nil {
		s.cleanup(ctx, stored)
		return data.News{}, err
	}
	s.cleanup(ctx, replaced)

	logger.Info(logger.EventAdminActivity, "News updated", logger.Fields("news_id", saved.ID))
	return saved, nil
}

// DeleteNews удаляет изображение новости и запись
func (s *Service) DeleteNews(ctx context.Context, id string) error {
	n, err := s.data.NewsByID(id)
	if err != nil {
		return err
	}

	s.cleanup(ctx, appendKey(nil, s.keyOf(n.ImageKey, n.ImageURL)))

	if _, err := s.data.DeleteNewsByID(id); err != nil {
		return err
	}
	logger.Info(logger.EventAdminActivity, "News deleted", logger.Fields("news_id", id))
	return nil
}

// putAudio сохраняет аудиофайл и заполняет поля файла в записи
func (s *Service) putAudio(ctx context.Context, m *data.Media, file *Upload) ([]string, error) {
	key, url, err := s.put(ctx, "media", file)
	if err != nil {
		return nil, err
	}
	m.FileKey = key
	m.URL = url
	m.FileSize = sizeOf(file)
	m.ContentType = contentTypeOf(file)
	return []string{key}, nil
}

// put сохраняет файл под ключом <prefix>/<uuid><ext>
func (s *Service) put(ctx context.Context, prefix string, file *Upload) (string, string, error) {
	if _, err := file.Body.Seek(0, io.SeekStart); err != nil {
		return "", "", fmt.Errorf("ошибка чтения загрузки: %w", err)
	}

	key := prefix + "/" + uuid.NewString() + strings.ToLower(filepath.Ext(file.Name))
	url, err := s.store.Put(ctx, key, file.Body, contentTypeOf(file))
	if err != nil {
		logger.Error(logger.EventStorage, "Storage upload failed", logger.Fields("key", key, "error", err.Error()))
		return "", "", fmt.Errorf("ошибка загрузки в хранилище: %w", err)
	}
	return key, url, nil
}

// cleanup удаляет объекты хранилища, ошибки только журналируются
func (s *Service) cleanup(ctx context.Context, keys []string) {
	for _, key := range keys {
		if err := s.store.Delete(ctx, key); err != nil {
			logger.Warn(logger.EventStorage, "Storage delete failed", logger.Fields("key", key, "error", err.Error()))
		}
	}
}

// keyOf возвращает ключ записи либо восстанавливает его по адресу
func (s *Service) keyOf(key, url string) string {
	if key != "" {
		return key
	}
	if k, ok := storage.KeyFromURL(s.store, url); ok {
		return k
	}
	return ""
}

func setVideo(n *data.News, raw string) error {
	url, id, err := catalog.NormalizeVideoURL(raw)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidVideo, err)
	}
	n.VideoURL, n.VideoID = url, id
	return nil
}

func sizeOf(file *Upload) int64 {
	if file.Size > 0 {
		return file.Size
	}
	size, err := file.Body.Seek(0, io.SeekEnd)
	if err != nil {
		return 0
	}
	_, _ = file.Body.Seek(0, io.SeekStart)
	return size
}

var knownTypes = map[string]string{
	".mp3":  "audio/mpeg",
	".m4a":  "audio/mp4",
	".ogg":  "audio/ogg",
	".wav":  "audio/wav",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
}

func contentTypeOf(file *Upload) string {
	if file.ContentType != "" && file.ContentType != "application/octet-stream" {
		return file.ContentType
	}
	ext := strings.ToLower(filepath.Ext(file.Name))
	if t, ok := knownTypes[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return "application/octet-stream"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func appendKey(keys []string, key string) []string {
	if key == "" {
		return keys
	}
	return append(keys, key)
}
