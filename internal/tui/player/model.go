// Package player содержит панель текущего воспроизведения для TUI
package player

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/hazadus/arabes/internal/player"
	"github.com/hazadus/arabes/internal/playback"
	"github.com/hazadus/arabes/internal/utils"
)

var (
	trackInfoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))

	statusStyle = lipgloss.NewStyle().
			Bold(true)

	panelStyle = lipgloss.NewStyle().
			PaddingLeft(4).
			MarginTop(1)
)

// Model - панель с треком, статусом и прогрессом
type Model struct {
	progressBar progress.Model
	track       playback.Track
	state       playback.Status
	status      player.Status
	width       int
}

// NewModel создает пустую панель
func NewModel() *Model {
	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 40

	return &Model{progressBar: prog}
}

// SetWidth подгоняет ширину прогресс-бара под окно
func (m *Model) SetWidth(width int) {
	m.width = width
	m.progressBar.Width = max(10, min(60, width-30))
}

// SetState обновляет панель по снимку контроллера и статусу плеера
func (m *Model) SetState(track playback.Track, state playback.Status, status player.Status) {
	m.track = track
	m.state = state
	m.status = status
}

// Active сообщает, есть ли что показывать
func (m *Model) Active() bool {
	return m.state.Playing || m.state.Pending
}

// Percent возвращает долю проигранного
func (m *Model) Percent() float64 {
	if m.status.Total <= 0 {
		return 0
	}
	p := float64(m.status.Current) / float64(m.status.Total)
	return min(1, max(0, p))
}

// View отображает панель
func (m *Model) View() string {
	if !m.Active() {
		return panelStyle.Render(statusStyle.Render("⏹ " + formatStatus(m.state)))
	}

	info := trackInfoStyle.Render(fmt.Sprintf("🎤 %s  🎵 %s", m.track.Artist, m.track.Title))
	line := fmt.Sprintf("%s %s  %s  %s / %s",
		statusIcon(m.state),
		statusStyle.Render(formatStatus(m.state)),
		m.progressBar.ViewAs(m.Percent()),
		utils.FormatDuration(m.status.Current),
		utils.FormatDuration(m.status.Total),
	)
	return panelStyle.Render(info + "\n" + line)
}

func statusIcon(state playback.Status) string {
	switch {
	case state.Playing:
		return "▶️"
	case state.Pending:
		return "⏳"
	default:
		return "⏹"
	}
}

func formatStatus(state playback.Status) string {
	switch {
	case state.Playing:
		return "Tocando"
	case state.Pending:
		return "Carregando"
	default:
		return "Parado"
	}
}
