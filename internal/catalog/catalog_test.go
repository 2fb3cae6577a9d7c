package catalog

import (
	"reflect"
	"testing"

	"github.com/hazadus/arabes/internal/data"
)

func sampleMedia() []data.Media {
	return []data.Media{
		{ID: "1", Title: "Ya Rayah", Artist: "Dahmane El Harrachi", Category: "music"},
		{ID: "2", Title: "Entrevista", Artist: "Rádio Árabe", Category: "podcast"},
		{ID: "3", Title: "Aicha", Artist: "Khaled", Category: "Music"},
	}
}

func ids(list []data.Media) []string {
	out := make([]string, 0, len(list))
	for _, m := range list {
		out = append(out, m.ID)
	}
	return out
}

func TestFilterMedia(t *testing.T) {
	tests := []struct {
		name     string
		category string
		search   string
		want     []string
	}{
		{"empty filters", "", "", []string{"1", "2", "3"}},
		{"todos matches all", "todos", "", []string{"1", "2", "3"}},
		{"category case insensitive", "music", "", []string{"1", "3"}},
		{"search by title", "", "aicha", []string{"3"}},
		{"search by artist", "todos", "RÁDIO", []string{"2"}},
		{"category and search", "podcast", "khaled", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(FilterMedia(sampleMedia(), tt.category, tt.search))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Ожидалось %v, получено %v", tt.want, got)
			}
		})
	}
}

func TestCategories(t *testing.T) {
	got := Categories(sampleMedia())
	want := []string{"todos", "music", "podcast"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Ожидалось %v, получено %v", want, got)
	}
}

func TestSearchNews(t *testing.T) {
	list := []data.News{
		{ID: "a", Title: "Festival de música", Content: "Programa"},
		{ID: "b", Title: "Entrevista", Content: "Conversa sobre o festival"},
		{ID: "c", Title: "Outro", Content: "Nada"},
	}

	if got := SearchNews(list, ""); len(got) != 3 {
		t.Errorf("Пустой поиск должен вернуть все новости, получено %d", len(got))
	}
	got := SearchNews(list, "FESTIVAL")
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "b" {
		t.Errorf("Неожиданный результат поиска: %+v", got)
	}
}

func TestNormalizeNews(t *testing.T) {
	n := NormalizeNews(data.News{ID: "x", Title: "  "})
	if n.Title != MissingNewsTitle || n.Content != MissingNewsContent {
		t.Errorf("Ожидались заглушки, получено %+v", n)
	}

	kept := NormalizeNews(data.News{Title: "T", Content: "C"})
	if kept.Title != "T" || kept.Content != "C" {
		t.Errorf("Заполненные поля не должны меняться: %+v", kept)
	}
}

func TestResolveAssetURL(t *testing.T) {
	tests := []struct {
		base, u, want string
	}{
		{"http://api:5000", "", ""},
		{"http://api:5000", "https://cdn.example.com/a.mp3", "https://cdn.example.com/a.mp3"},
		{"http://api:5000/", "/uploads/media/a.mp3", "http://api:5000/uploads/media/a.mp3"},
		{"http://api:5000", "uploads/a.jpg", "http://api:5000/uploads/a.jpg"},
	}
	for _, tt := range tests {
		if got := ResolveAssetURL(tt.base, tt.u); got != tt.want {
			t.Errorf("ResolveAssetURL(%q, %q) = %q, ожидалось %q", tt.base, tt.u, got, tt.want)
		}
	}
}

func TestLinks(t *testing.T) {
	if got := ShareLink("https://site.example/", KindMedia, "42"); got != "https://site.example/media/42" {
		t.Errorf("Неожиданная ссылка: %s", got)
	}
	if got := ShareLink("https://site.example", KindNews, "7"); got != "https://site.example/news/7" {
		t.Errorf("Неожиданная ссылка: %s", got)
	}
	if got := DownloadURL("http://api:5000/", "42"); got != "http://api:5000/api/media/download/42" {
		t.Errorf("Неожиданный адрес скачивания: %s", got)
	}
}

func TestValidID(t *testing.T) {
	tests := map[string]bool{
		"":                 false,
		"   ":              false,
		"<script>":         false,
		"abc-123":          true,
		"7f9c0d4e-1a2b-4c": true,
	}
	for id, want := range tests {
		if got := ValidID(id); got != want {
			t.Errorf("ValidID(%q) = %v, ожидалось %v", id, got, want)
		}
	}
}

func TestNormalizeVideoURL(t *testing.T) {
	tests := []struct {
		raw     string
		wantURL string
		wantID  string
		wantErr bool
	}{
		{"", "", "", false},
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"https://youtu.be/dQw4w9WgXcQ", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"dQw4w9WgXcQ", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"https://vimeo.com/123456", "https://vimeo.com/123456", "", false},
		{"short", "", "", true},
	}

	for _, tt := range tests {
		gotURL, gotID, err := NormalizeVideoURL(tt.raw)
		if (err != nil) != tt.wantErr {
			t.Errorf("NormalizeVideoURL(%q) ошибка = %v, ожидалась ошибка: %v", tt.raw, err, tt.wantErr)
			continue
		}
		if gotURL != tt.wantURL || gotID != tt.wantID {
			t.Errorf("NormalizeVideoURL(%q) = (%q, %q), ожидалось (%q, %q)", tt.raw, gotURL, gotID, tt.wantURL, tt.wantID)
		}
	}
}

func TestTracks(t *testing.T) {
	media := []data.Media{
		{ID: "1", Title: "A", Artist: "X", URL: "/uploads/media/1.mp3"},
		{ID: "2", Title: "B", Artist: "Y", URL: "https://s3.example/bucket/2.mp3"},
		{ID: "3", Title: "C"},
	}

	tracks := Tracks(media, "http://api:5000")
	if len(tracks) != 3 {
		t.Fatalf("Ожидалось 3 трека, получено %d", len(tracks))
	}
	if tracks[0].StreamURL != "http://api:5000/uploads/media/1.mp3" {
		t.Errorf("Неожиданный адрес потока: %s", tracks[0].StreamURL)
	}
	if tracks[1].StreamURL != "https://s3.example/bucket/2.mp3" {
		t.Errorf("Абсолютный адрес не должен меняться: %s", tracks[1].StreamURL)
	}
	if tracks[2].StreamURL != "" {
		t.Errorf("Трек без файла должен иметь пустой источник, получено %s", tracks[2].StreamURL)
	}

	found, ok := TrackByID(tracks, "2")
	if !ok || found.Title != "B" {
		t.Errorf("Трек 2 не найден: %+v", found)
	}
	if _, ok := TrackByID(tracks, "nope"); ok {
		t.Error("Несуществующий трек не должен находиться")
	}
}
