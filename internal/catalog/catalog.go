// Package catalog содержит запросы к спискам медиа и новостей и вспомогательные
// функции представления: ссылки, адреса файлов, видео
package catalog

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/kkdai/youtube/v2"
	"github.com/samber/lo"

	"github.com/hazadus/arabes/internal/data"
	"github.com/hazadus/arabes/internal/playback"
)

// Значения по умолчанию
const (
	AllCategories      = "todos"
	MissingNewsTitle   = "Título não disponível"
	MissingNewsContent = "Conteúdo não disponível"
)

// Виды ссылок для ShareLink
const (
	KindMedia = "media"
	KindNews  = "news"
)

// FilterMedia отбирает медиа по категории и строке поиска
func FilterMedia(list []data.Media, category, search string) []data.Media {
	search = strings.ToLower(strings.TrimSpace(search))
	category = strings.TrimSpace(category)

	return lo.Filter(list, func(m data.Media, _ int) bool {
		if category != "" && !strings.EqualFold(category, AllCategories) && !strings.EqualFold(m.Category, category) {
			return false
		}
		if search == "" {
			return true
		}
		return strings.Contains(strings.ToLower(m.Title), search) ||
			strings.Contains(strings.ToLower(m.Artist), search)
	})
}

// Categories возвращает список категорий медиа, начиная с "todos"
func Categories(list []data.Media) []string {
	cats := lo.Uniq(lo.FilterMap(list, func(m data.Media, _ int) (string, bool) {
		c := strings.ToLower(strings.TrimSpace(m.Category))
		return c, c != ""
	}))
	return append([]string{AllCategories}, cats...)
}

// SearchNews отбирает новости по подстроке в заголовке или тексте
func SearchNews(list []data.News, search string) []data.News {
	search = strings.ToLower(strings.TrimSpace(search))
	if search == "" {
		return list
	}
	return lo.Filter(list, func(n data.News, _ int) bool {
		return strings.Contains(strings.ToLower(n.Title), search) ||
			strings.Contains(strings.ToLower(n.Content), search)
	})
}

// NormalizeNews подставляет заглушки для пустых полей
func NormalizeNews(n data.News) data.News {
	if strings.TrimSpace(n.Title) == "" {
		n.Title = MissingNewsTitle
	}
	if strings.TrimSpace(n.Content) == "" {
		n.Content = MissingNewsContent
	}
	return n
}

// ResolveAssetURL дополняет относительный адрес базовым адресом API
func ResolveAssetURL(base, u string) string {
	if u == "" {
		return ""
	}
	if strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") {
		return u
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(u, "/")
}

// ShareLink строит публичную ссылку на медиа или новость
func ShareLink(origin, kind, id string) string {
	return fmt.Sprintf("%s/%s/%s", strings.TrimRight(origin, "/"), kind, url.PathEscape(id))
}

// DownloadURL возвращает адрес скачивания медиа
func DownloadURL(apiBase, id string) string {
	return fmt.Sprintf("%s/api/media/download/%s", strings.TrimRight(apiBase, "/"), url.PathEscape(id))
}

// ValidID отвергает пустые идентификаторы и идентификаторы с разметкой
func ValidID(id string) bool {
	id = strings.TrimSpace(id)
	return id != "" && !strings.Contains(id, "<")
}

// NormalizeVideoURL приводит ссылку YouTube или голый идентификатор к каноническому
// адресу. Прочие ссылки возвращаются без изменений с пустым идентификатором
func NormalizeVideoURL(raw string) (string, string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", "", nil
	}

	if u, err := url.Parse(raw); err == nil && u.Host != "" && !strings.Contains(strings.ToLower(u.Host), "youtu") {
		return raw, "", nil
	}

	id, err := youtube.ExtractVideoID(raw)
	if err != nil {
		return "", "", fmt.Errorf("некорректная ссылка на видео %q: %w", raw, err)
	}
	return "https://www.youtube.com/watch?v=" + id, id, nil
}

// Tracks превращает медиа в треки контроллера воспроизведения
func Tracks(list []data.Media, apiBase string) []playback.Track {
	return lo.Map(list, func(m data.Media, _ int) playback.Track {
		return playback.Track{
			ID:        m.ID,
			StreamURL: ResolveAssetURL(apiBase, m.URL),
			Title:     m.Title,
			Artist:    m.Artist,
		}
	})
}

// TrackByID ищет трек по идентификатору
func TrackByID(tracks []playback.Track, id string) (playback.Track, bool) {
	return lo.Find(tracks, func(t playback.Track) bool {
		return t.ID == id
	})
}
