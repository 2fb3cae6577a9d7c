// Package data содержит файловое хранилище каталога: медиа, новости и администраторы
package data

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/hazadus/arabes/internal/utils"
)

var (
	// ErrNotFound возвращается, если запись не найдена
	ErrNotFound = errors.New("запись не найдена")
	// ErrDuplicate возвращается при повторном имени пользователя
	ErrDuplicate = errors.New("запись уже существует")
	// ErrLastAdmin запрещает удаление последнего администратора
	ErrLastAdmin = errors.New("нельзя удалить последнего администратора")
	// ErrEmptyUsername возвращается для пустого имени пользователя
	ErrEmptyUsername = errors.New("имя пользователя не может быть пустым")
)

// Категории по умолчанию
const (
	DefaultMediaCategory = "music"
	DefaultNewsCategory  = "geral"
	RoleAdmin            = "admin"
)

// Media - аудиозапись галереи
type Media struct {
	ID           string    `yaml:"id" json:"id"`
	Title        string    `yaml:"title" json:"title"`
	Artist       string    `yaml:"artist" json:"artist"`
	Category     string    `yaml:"category" json:"category"`
	FileKey      string    `yaml:"file_key" json:"fileKey,omitempty"`
	URL          string    `yaml:"url" json:"url"` // Адрес файла в хранилище
	ThumbnailKey string    `yaml:"thumbnail_key,omitempty" json:"thumbnailKey,omitempty"`
	ThumbnailURL string    `yaml:"thumbnail_url,omitempty" json:"thumbnailUrl,omitempty"`
	Length       int       `yaml:"length" json:"length"`       // Длина трека в секундах
	FileSize     int64     `yaml:"file_size" json:"fileSize"` // Размер файла в байтах
	ContentType  string    `yaml:"content_type,omitempty" json:"contentType,omitempty"`
	CreatedAt    time.Time `yaml:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `yaml:"updated_at" json:"updatedAt"`
}

// News - новостная статья
type News struct {
	ID        string    `yaml:"id" json:"id"`
	Title     string    `yaml:"title" json:"title"`
	Content   string    `yaml:"content" json:"content"`
	Category  string    `yaml:"category" json:"category"`
	ImageKey  string    `yaml:"image_key,omitempty" json:"imageKey,omitempty"`
	ImageURL  string    `yaml:"image_url,omitempty" json:"imageUrl,omitempty"`
	VideoURL  string    `yaml:"video_url,omitempty" json:"videoUrl,omitempty"`
	VideoID   string    `yaml:"video_id,omitempty" json:"videoId,omitempty"`
	CreatedAt time.Time `yaml:"created_at" json:"createdAt"`
	UpdatedAt time.Time `yaml:"updated_at" json:"updatedAt"`
}

// Admin - учетная запись администратора
type Admin struct {
	ID           string    `yaml:"id" json:"id"`
	FullName     string    `yaml:"full_name" json:"fullName"`
	Username     string    `yaml:"username" json:"username"`
	PasswordHash string    `yaml:"password_hash" json:"-"`
	Role         string    `yaml:"role" json:"role"`
	CreatedAt    time.Time `yaml:"created_at" json:"createdAt"`
}

// AppData - содержимое файла данных
type AppData struct {
	Media  []Media `yaml:"media"`
	News   []News  `yaml:"news"`
	Admins []Admin `yaml:"admins"`
}

// NewAppData создает новую структуру AppData
func NewAppData() *AppData {
	return &AppData{
		Media:  make([]Media, 0),
		News:   make([]News, 0),
		Admins: make([]Admin, 0),
	}
}

// LoadData загружает данные из файла. Отсутствующий или пустой файл дает пустые данные
func (d *AppData) LoadData(filePath string) error {
	path, err := utils.ExpandPath(filePath)
	if err != nil {
		return err
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			*d = *NewAppData()
			return nil
		}
		return fmt.Errorf("ошибка чтения файла данных: %w", err)
	}
	if len(raw) == 0 {
		*d = *NewAppData()
		return nil
	}
	if err := yaml.Unmarshal(raw, d); err != nil {
		return fmt.Errorf("ошибка разбора данных: %w", err)
	}
	return nil
}

// SaveData атомарно сохраняет данные в файл через временный файл
func (d *AppData) SaveData(filePath string) error {
	path, err := utils.ExpandPath(filePath)
	if err != nil {
		return err
	}

	raw, err := yaml.Marshal(d)
	if err != nil {
		return fmt.Errorf("ошибка сериализации данных: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("ошибка создания каталога данных: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".arabes-data-*")
	if err != nil {
		return fmt.Errorf("ошибка создания временного файла: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("ошибка записи файла данных: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("ошибка записи файла данных: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("ошибка записи файла данных: %w", err)
	}
	return nil
}

// Store - потокобезопасное хранилище поверх файла данных
type Store struct {
	path string
	now  func() time.Time

	mu   sync.RWMutex
	data *AppData
}

// Open загружает хранилище из файла
func Open(filePath string) (*Store, error) {
	d := NewAppData()
	if err := d.LoadData(filePath); err != nil {
		return nil, err
	}
	return &Store{path: filePath, now: time.Now, data: d}, nil
}

// save вызывается под блокировкой записи
func (s *Store) save() error {
	return s.data.SaveData(s.path)
}

// ListMedia возвращает медиа от новых к старым
func (s *Store) ListMedia() []Media {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := append([]Media(nil), s.data.Media...)
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return list
}

// MediaByID возвращает медиа по ID
func (s *Store) MediaByID(id string) (Media, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, m := range s.data.Media {
		if m.ID == id {
			return m, nil
		}
	}
	return Media{}, fmt.Errorf("медиа %s: %w", id, ErrNotFound)
}

// AddMedia присваивает ID и сохраняет новую запись
func (s *Store) AddMedia(m Media) (Media, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	m.ID = uuid.NewString()
	if m.Category == "" {
		m.Category = DefaultMediaCategory
	}
	m.CreatedAt = now
	m.UpdatedAt = now

	s.data.Media = append(s.data.Media, m)
	if err := s.save(); err != nil {
		s.data.Media = s.data.Media[:len(s.data.Media)-1]
		return Media{}, err
	}
	return m, nil
}

// UpdateMedia заменяет запись с тем же ID, сохраняя дату создания
func (s *Store) UpdateMedia(m Media) (Media, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.data.Media {
		if s.data.Media[i].ID != m.ID {
			continue
		}
		prev := s.data.Media[i]
		m.CreatedAt = prev.CreatedAt
		m.UpdatedAt = s.now().UTC()
		if m.Category == "" {
			m.Category = DefaultMediaCategory
		}
		s.data.Media[i] = m
		if err := s.save(); err != nil {
			s.data.Media[i] = prev
			return Media{}, err
		}
		return m, nil
	}
	return Media{}, fmt.Errorf("медиа %s: %w", m.ID, ErrNotFound)
}

// DeleteMediaByID удаляет медиа и возвращает удаленную запись
func (s *Store) DeleteMediaByID(id string) (Media, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, m := range s.data.Media {
		if m.ID != id {
			continue
		}
		prev := s.data.Media
		s.data.Media = append(append([]Media(nil), prev[:i]...), prev[i+1:]...)
		if err := s.save(); err != nil {
			s.data.Media = prev
			return Media{}, err
		}
		return m, nil
	}
	return Media{}, fmt.Errorf("медиа %s: %w", id, ErrNotFound)
}

// ListNews возвращает новости от новых к старым
func (s *Store) ListNews() []News {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := append([]News(nil), s.data.News...)
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return list
}

// NewsByID возвращает новость по ID
func (s *Store) NewsByID(id string) (News, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, n := range s.data.News {
		if n.ID == id {
			return n, nil
		}
	}
	return News{}, fmt.Errorf("новость %s: %w", id, ErrNotFound)
}

// AddNews присваивает ID и сохраняет новость
func (s *Store) AddNews(n News) (News, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	n.ID = uuid.NewString()
	if n.Category == "" {
		n.Category = DefaultNewsCategory
	}
	n.CreatedAt = now
	n.UpdatedAt = now

	s.data.News = append(s.data.News, n)
	if err := s.save(); err != nil {
		s.data.News = s.data.News[:len(s.data.News)-1]
		return News{}, err
	}
	return n, nil
}

// UpdateNews заменяет новость с тем же ID
func (s *Store) UpdateNews(n News) (News, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.data.News {
		if s.data.News[i].ID != n.ID {
			continue
		}
		prev := s.data.News[i]
		n.CreatedAt = prev.CreatedAt
		n.UpdatedAt = s.now().UTC()
		if n.Category == "" {
			n.Category = DefaultNewsCategory
		}
		s.data.News[i] = n
		if err := s.save(); err != nil {
			s.data.News[i] = prev
			return News{}, err
		}
		return n, nil
	}
	return News{}, fmt.Errorf("новость %s: %w", n.ID, ErrNotFound)
}

// DeleteNewsByID удаляет новость и возвращает удаленную запись
func (s *Store) DeleteNewsByID(id string) (News, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.data.News {
		if n.ID != id {
			continue
		}
		prev := s.data.News
		s.data.News = append(append([]News(nil), prev[:i]...), prev[i+1:]...)
		if err := s.save(); err != nil {
			s.data.News = prev
			return News{}, err
		}
		return n, nil
	}
	return News{}, fmt.Errorf("новость %s: %w", id, ErrNotFound)
}

// ListAdmins возвращает администраторов в порядке создания
func (s *Store) ListAdmins() []Admin {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Admin(nil), s.data.Admins...)
}

// AdminCount возвращает число администраторов
func (s *Store) AdminCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data.Admins)
}

// AdminByID возвращает администратора по ID
func (s *Store) AdminByID(id string) (Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, a := range s.data.Admins {
		if a.ID == id {
			return a, nil
		}
	}
	return Admin{}, fmt.Errorf("администратор %s: %w", id, ErrNotFound)
}

// AdminByUsername ищет администратора без учета регистра
func (s *Store) AdminByUsername(username string) (Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, a := range s.data.Admins {
		if strings.EqualFold(a.Username, username) {
			return a, nil
		}
	}
	return Admin{}, fmt.Errorf("администратор %s: %w", username, ErrNotFound)
}

// AddAdmin сохраняет нового администратора. Имя пользователя уникально
func (s *Store) AddAdmin(a Admin) (Admin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a.Username = strings.TrimSpace(a.Username)
	if a.Username == "" {
		return Admin{}, ErrEmptyUsername
	}
	for _, existing := range s.data.Admins {
		if strings.EqualFold(existing.Username, a.Username) {
			return Admin{}, fmt.Errorf("администратор %s: %w", a.Username, ErrDuplicate)
		}
	}

	a.ID = uuid.NewString()
	if a.Role == "" {
		a.Role = RoleAdmin
	}
	a.CreatedAt = s.now().UTC()

	s.data.Admins = append(s.data.Admins, a)
	if err := s.save(); err != nil {
		s.data.Admins = s.data.Admins[:len(s.data.Admins)-1]
		return Admin{}, err
	}
	return a, nil
}

// DeleteAdminByID удаляет администратора, кроме последнего
func (s *Store) DeleteAdminByID(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, a := range s.data.Admins {
		if a.ID != id {
			continue
		}
		if len(s.data.Admins) == 1 {
			return ErrLastAdmin
		}
		prev := s.data.Admins
		s.data.Admins = append(append([]Admin(nil), prev[:i]...), prev[i+1:]...)
		if err := s.save(); err != nil {
			s.data.Admins = prev
			return err
		}
		return nil
	}
	return fmt.Errorf("администратор %s: %w", id, ErrNotFound)
}
