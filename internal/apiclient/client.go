// Package apiclient - HTTP-клиент REST API сайта для CLI и TUI
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hazadus/arabes/internal/catalog"
	"github.com/hazadus/arabes/internal/credentials"
	"github.com/hazadus/arabes/internal/data"
	"github.com/hazadus/arabes/internal/uploader"
)

// ErrUnauthorized возвращается при ответах 401 и 403
var ErrUnauthorized = errors.New("требуется вход администратора")

// APIError - ошибка, возвращенная сервером
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("ошибка API (%d): %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() error {
	if e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden {
		return ErrUnauthorized
	}
	if e.Status == http.StatusNotFound {
		return data.ErrNotFound
	}
	return nil
}

// Client обращается к API по базовому адресу
type Client struct {
	baseURL string
	token   string
	http    *http.Client

	onUpload func(sent, total int64)
}

// New создает клиент. Токен может быть пустым для публичных запросов
func New(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 5 * time.Minute},
	}
}

// SetUploadProgress задает обработчик прогресса загрузки файлов
func (c *Client) SetUploadProgress(fn func(sent, total int64)) {
	c.onUpload = fn
}

// BaseURL возвращает базовый адрес API
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SetToken меняет токен авторизации
func (c *Client) SetToken(token string) {
	c.token = token
}

// MediaFields - поля формы медиа
type MediaFields struct {
	Title     string
	Artist    string
	Category  string
	File      string // Путь к аудиофайлу
	Thumbnail string // Путь к обложке
}

// NewsFields - поля формы новости
type NewsFields struct {
	Title    string
	Content  string
	Category string
	VideoURL string
	Image    string // Путь к изображению
}

type loginResponse struct {
	Token string           `json:"token"`
	User  credentials.User `json:"user"`
}

// Login входит и возвращает учетные данные для сохранения
func (c *Client) Login(ctx context.Context, username, password string) (*credentials.Credentials, error) {
	body, err := json.Marshal(map[string]string{"username": username, "password": password})
	if err != nil {
		return nil, err
	}

	var resp loginResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", bytes.NewReader(body), "application/json", &resp); err != nil {
		return nil, err
	}
	c.token = resp.Token
	return &credentials.Credentials{Token: resp.Token, User: resp.User}, nil
}

// ListMedia возвращает медиа с фильтром по категории и поиском
func (c *Client) ListMedia(ctx context.Context, category, search string) ([]data.Media, error) {
	q := url.Values{}
	if category != "" && category != catalog.AllCategories {
		q.Set("category", category)
	}
	if search != "" {
		q.Set("search", search)
	}

	var list []data.Media
	if err := c.do(ctx, http.MethodGet, withQuery("/api/media", q), nil, "", &list); err != nil {
		return nil, err
	}
	return list, nil
}

// GetMedia возвращает медиа по ID
func (c *Client) GetMedia(ctx context.Context, id string) (data.Media, error) {
	var m data.Media
	err := c.do(ctx, http.MethodGet, "/api/media/"+url.PathEscape(id), nil, "", &m)
	return m, err
}

// ListNews возвращает новости. Сервер может вернуть массив или объект {data: [...]}
func (c *Client) ListNews(ctx context.Context, search string) ([]data.News, error) {
	q := url.Values{}
	if search != "" {
		q.Set("search", search)
	}

	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, withQuery("/api/news", q), nil, "", &raw); err != nil {
		return nil, err
	}

	var list []data.News
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, fmt.Errorf("ошибка разбора новостей: %w", err)
		}
	} else {
		var wrapped struct {
			Data []data.News `json:"data"`
		}
		if err := json.Unmarshal(trimmed, &wrapped); err != nil {
			return nil, fmt.Errorf("ошибка разбора новостей: %w", err)
		}
		list = wrapped.Data
	}

	for i := range list {
		list[i] = catalog.NormalizeNews(list[i])
	}
	return list, nil
}

// GetNews возвращает новость по ID
func (c *Client) GetNews(ctx context.Context, id string) (data.News, error) {
	var n data.News
	if err := c.do(ctx, http.MethodGet, "/api/news/"+url.PathEscape(id), nil, "", &n); err != nil {
		return data.News{}, err
	}
	return catalog.NormalizeNews(n), nil
}

// CreateMedia загружает новое медиа
func (c *Client) CreateMedia(ctx context.Context, f MediaFields) (data.Media, error) {
	var m data.Media
	err := c.sendForm(ctx, http.MethodPost, "/api/media", mediaValues(f), map[string]string{
		"file":      f.File,
		"thumbnail": f.Thumbnail,
	}, &m)
	return m, err
}

// UpdateMedia меняет медиа. Пустые поля не меняются
func (c *Client) UpdateMedia(ctx context.Context, id string, f MediaFields) (data.Media, error) {
	var m data.Media
	err := c.sendForm(ctx, http.MethodPut, "/api/media/"+url.PathEscape(id), mediaValues(f), map[string]string{
		"file":      f.File,
		"thumbnail": f.Thumbnail,
	}, &m)
	return m, err
}

// DeleteMedia удаляет медиа
func (c *Client) DeleteMedia(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/media/"+url.PathEscape(id), nil, "", nil)
}

// CreateNews публикует новость
func (c *Client) CreateNews(ctx context.Context, f NewsFields) (data.News, error) {
	var n data.News
	err := c.sendForm(ctx, http.MethodPost, "/api/news", newsValues(f), map[string]string{"image": f.Image}, &n)
	return n, err
}

// UpdateNews меняет новость
func (c *Client) UpdateNews(ctx context.Context, id string, f NewsFields) (data.News, error) {
	var n data.News
	err := c.sendForm(ctx, http.MethodPut, "/api/news/"+url.PathEscape(id), newsValues(f), map[string]string{"image": f.Image}, &n)
	return n, err
}

// DeleteNews удаляет новость
func (c *Client) DeleteNews(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/news/"+url.PathEscape(id), nil, "", nil)
}

// ListAdmins возвращает администраторов
func (c *Client) ListAdmins(ctx context.Context) ([]credentials.User, error) {
	var users []credentials.User
	if err := c.do(ctx, http.MethodGet, "/api/admins", nil, "", &users); err != nil {
		return nil, err
	}
	return users, nil
}

// CreateAdmin создает администратора
func (c *Client) CreateAdmin(ctx context.Context, fullName, username, password string) (credentials.User, error) {
	body, err := json.Marshal(map[string]string{"fullName": fullName, "username": username, "password": password})
	if err != nil {
		return credentials.User{}, err
	}
	var user credentials.User
	err = c.do(ctx, http.MethodPost, "/api/admins", bytes.NewReader(body), "application/json", &user)
	return user, err
}

// DeleteAdmin удаляет администратора
func (c *Client) DeleteAdmin(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/admins/"+url.PathEscape(id), nil, "", nil)
}

// Download пишет файл медиа в w и возвращает число байт
func (c *Client) Download(ctx context.Context, id string, w io.Writer) (int64, error) {
	req, err := c.newRequest(ctx, http.MethodGet, catalog.DownloadURL(c.baseURL, id), nil, "")
	if err != nil {
		return 0, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("ошибка запроса к API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, decodeError(resp)
	}
	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("ошибка скачивания: %w", err)
	}
	return n, nil
}

func (c *Client) newRequest(ctx context.Context, method, target string, body io.Reader, contentType string) (*http.Request, error) {
	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		target = c.baseURL + target
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания запроса: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	req, err := c.newRequest(ctx, method, path, body, contentType)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("ошибка запроса к API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("ошибка разбора ответа API: %w", err)
	}
	return nil
}

// sendForm отправляет multipart-форму потоком. Пустые пути файлов пропускаются
func (c *Client) sendForm(ctx context.Context, method, path string, fields map[string]string, files map[string]string, out any) error {
	uploads, total, err := openUploads(files)
	if err != nil {
		return err
	}

	pr, pw := io.Pipe()
	defer pr.Close()
	w := multipart.NewWriter(pw)

	go func() {
		err := writeForm(w, fields, uploads)
		if err == nil {
			err = w.Close()
		}
		pw.CloseWithError(err)
	}()

	var body io.Reader = pr
	if c.onUpload != nil && total > 0 {
		body = &uploader.ProgressReader{
			Reader: pr,
			Size:   total,
			OnProgress: func(sent int64) {
				c.onUpload(min(sent, total), total)
			},
		}
	}
	return c.do(ctx, method, path, body, w.FormDataContentType(), out)
}

type upload struct {
	field string
	file  *os.File
}

// openUploads открывает файлы заранее, чтобы ошибка пути вернулась до запроса
func openUploads(files map[string]string) ([]upload, int64, error) {
	var (
		uploads []upload
		total   int64
	)
	for field, filePath := range files {
		if filePath == "" {
			continue
		}
		f, err := os.Open(filePath)
		if err != nil {
			closeUploads(uploads)
			return nil, 0, fmt.Errorf("ошибка открытия файла: %w", err)
		}
		if info, err := f.Stat(); err == nil {
			total += info.Size()
		}
		uploads = append(uploads, upload{field: field, file: f})
	}
	return uploads, total, nil
}

func closeUploads(uploads []upload) {
	for _, u := range uploads {
		u.file.Close()
	}
}

func writeForm(w *multipart.Writer, fields map[string]string, uploads []upload) error {
	defer closeUploads(uploads)

	for k, v := range fields {
		if v == "" {
			continue
		}
		if err := w.WriteField(k, v); err != nil {
			return err
		}
	}
	for _, u := range uploads {
		part, err := w.CreateFormFile(u.field, filepath.Base(u.file.Name()))
		if err != nil {
			return err
		}
		if _, err := io.Copy(part, u.file); err != nil {
			return fmt.Errorf("ошибка чтения файла: %w", err)
		}
	}
	return nil
}

func decodeError(resp *http.Response) error {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	msg := strings.TrimSpace(string(raw))
	if json.Unmarshal(raw, &payload) == nil {
		if payload.Error != "" {
			msg = payload.Error
		} else if payload.Message != "" {
			msg = payload.Message
		}
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return &APIError{Status: resp.StatusCode, Message: msg}
}

func withQuery(path string, q url.Values) string {
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.Encode()
}

func mediaValues(f MediaFields) map[string]string {
	return map[string]string{"title": f.Title, "artist": f.Artist, "category": f.Category}
}

func newsValues(f NewsFields) map[string]string {
	return map[string]string{
		"title":    f.Title,
		"content":  f.Content,
		"category": f.Category,
		"videoUrl": f.VideoURL,
	}
}
