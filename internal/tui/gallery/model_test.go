package gallery

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hazadus/arabes/internal/data"
	"github.com/hazadus/arabes/internal/playback"
)

// stubController запоминает переключения и отдает заданное состояние
type stubController struct {
	toggled []string
	status  playback.Status
	err     error
}

func (s *stubController) Toggle(track playback.Track) (playback.Token, error) {
	if s.err != nil {
		return 0, s.err
	}
	s.toggled = append(s.toggled, track.ID)
	return playback.Token(len(s.toggled)), nil
}

func (s *stubController) Snapshot() playback.Status {
	return s.status
}

func testMedia() []data.Media {
	now := time.Now()
	return []data.Media{
		{ID: "1", Title: "Aicha", Artist: "Khaled", Category: "rai", URL: "/uploads/media/1.mp3", CreatedAt: now},
		{ID: "2", Title: "Habibi", Artist: "Amr Diab", Category: "pop", URL: "/uploads/media/2.mp3", CreatedAt: now},
	}
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestNewModel(t *testing.T) {
	model := NewModel(&stubController{}, "http://api", false)
	model.SetMedia(testMedia())

	if model.Len() != 2 {
		t.Fatalf("Ожидалось 2 элемента, получено %d", model.Len())
	}
	if model.Category() != "todos" {
		t.Errorf("Ожидалась категория todos, получено %s", model.Category())
	}
}

func TestGlyph(t *testing.T) {
	tests := []struct {
		name   string
		status playback.Status
		want   string
	}{
		{"idle", playback.Status{}, GlyphPlay},
		{"playing this", playback.Status{TrackID: "1", Playing: true}, GlyphPause},
		{"playing other", playback.Status{TrackID: "2", Playing: true}, GlyphPlay},
		{"pending this", playback.Status{Pending: true, PendingTrackID: "1"}, GlyphPending},
	}
	for _, tt := range tests {
		if got := Glyph(tt.status, "1"); got != tt.want {
			t.Errorf("%s: ожидался %q, получен %q", tt.name, tt.want, got)
		}
	}
}

func TestToggleSelected(t *testing.T) {
	ctrl := &stubController{}
	model := NewModel(ctrl, "http://api", false)
	model.SetMedia(testMedia())

	model, _ = model.Update(key("enter"))
	model, _ = model.Update(key(" "))

	if len(ctrl.toggled) != 2 || ctrl.toggled[0] != "1" || ctrl.toggled[1] != "1" {
		t.Errorf("Ожидалось два переключения первого трека, получено %v", ctrl.toggled)
	}
}

func TestToggleErrorShown(t *testing.T) {
	ctrl := &stubController{err: playback.ErrEmptySource}
	model := NewModel(ctrl, "http://api", false)
	model.SetMedia(testMedia())

	model, _ = model.Update(key("enter"))
	if !strings.HasPrefix(model.Error(), PlaybackErrorText) {
		t.Errorf("Ожидалась ошибка воспроизведения, получено %q", model.Error())
	}
	if !strings.Contains(model.View(), PlaybackErrorText) {
		t.Error("Ошибка должна отображаться")
	}
}

func TestTabCyclesCategory(t *testing.T) {
	model := NewModel(&stubController{}, "http://api", false)
	model.SetMedia(testMedia())

	model, _ = model.Update(key("tab"))
	if model.Category() != "rai" || model.Len() != 1 {
		t.Errorf("Ожидалась категория rai с одним элементом, получено %s/%d", model.Category(), model.Len())
	}
	model, _ = model.Update(key("tab"))
	model, _ = model.Update(key("tab"))
	if model.Category() != "todos" || model.Len() != 2 {
		t.Errorf("Ожидался возврат к todos, получено %s/%d", model.Category(), model.Len())
	}
}

func TestNewsAndQuitMessages(t *testing.T) {
	model := NewModel(&stubController{}, "http://api", false)
	model.SetMedia(testMedia())

	_, cmd := model.Update(key("n"))
	if cmd == nil {
		t.Fatal("Ожидалась команда перехода к новостям")
	}
	if _, ok := cmd().(OpenNewsMsg); !ok {
		t.Error("Ожидалось OpenNewsMsg")
	}

	_, cmd = model.Update(key("q"))
	if cmd == nil {
		t.Fatal("Ожидалась команда выхода")
	}
	if _, ok := cmd().(QuitMsg); !ok {
		t.Error("Ожидалось QuitMsg")
	}
}

func TestEditRequiresAdmin(t *testing.T) {
	model := NewModel(&stubController{}, "http://api", false)
	model.SetMedia(testMedia())
	if _, cmd := model.Update(key("e")); cmd != nil {
		t.Error("Без прав редактирование недоступно")
	}

	admin := NewModel(&stubController{}, "http://api", true)
	admin.SetMedia(testMedia())
	_, cmd := admin.Update(key("e"))
	if cmd == nil {
		t.Fatal("Ожидалась команда редактирования")
	}
	msg, ok := cmd().(EditMediaMsg)
	if !ok || msg.Media.ID != "1" {
		t.Errorf("Ожидалось редактирование медиа 1, получено %+v", msg)
	}
}

func TestTrackForResolvesStreamURL(t *testing.T) {
	model := NewModel(&stubController{}, "http://api/", false)
	model.SetMedia(testMedia())

	track, ok := model.TrackFor("2")
	if !ok {
		t.Fatal("Трек не найден")
	}
	if track.StreamURL != "http://api/uploads/media/2.mp3" {
		t.Errorf("Неожиданный адрес: %s", track.StreamURL)
	}
}

// Компиляционная проверка: настоящий контроллер подходит галерее
var _ Controller = (*playback.Controller)(nil)
