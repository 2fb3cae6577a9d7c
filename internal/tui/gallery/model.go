// Package gallery содержит модель экрана галереи медиа для TUI
package gallery

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/samber/lo"

	"github.com/hazadus/arabes/internal/catalog"
	"github.com/hazadus/arabes/internal/data"
	"github.com/hazadus/arabes/internal/playback"
	"github.com/hazadus/arabes/internal/utils"
)

// PlaybackErrorText показывается при неудачном старте трека
const PlaybackErrorText = "Erro ao reproduzir a música."

// Глифы кнопки воспроизведения
const (
	GlyphPlay    = "▶"
	GlyphPause   = "⏸"
	GlyphPending = "…"
)

var (
	titleStyle        = lipgloss.NewStyle().MarginLeft(2)
	itemStyle         = lipgloss.NewStyle().PaddingLeft(4)
	selectedItemStyle = lipgloss.NewStyle().PaddingLeft(2).Foreground(lipgloss.Color("170"))
	paginationStyle   = list.DefaultStyles().PaginationStyle.PaddingLeft(4)
	helpStyle         = list.DefaultStyles().HelpStyle.PaddingLeft(4).PaddingBottom(1)
	categoryStyle     = lipgloss.NewStyle().PaddingLeft(4).Foreground(lipgloss.Color("241"))
	errorStyle        = lipgloss.NewStyle().PaddingLeft(4).Foreground(lipgloss.Color("196")).Bold(true)
)

// Controller - часть контроллера воспроизведения, нужная галерее
type Controller interface {
	Toggle(track playback.Track) (playback.Token, error)
	Snapshot() playback.Status
}

// OpenNewsMsg отправляется для перехода к новостям
type OpenNewsMsg struct{}

// EditMediaMsg отправляется для редактирования медиа. Пустой ID - новое медиа
type EditMediaMsg struct {
	Media data.Media
}

// QuitMsg отправляется при выходе из галереи
type QuitMsg struct{}

// mediaItem реализует интерфейс list.Item для медиа
type mediaItem struct {
	media data.Media
	track playback.Track
}

func (i mediaItem) FilterValue() string {
	return fmt.Sprintf("%s %s %s", i.media.Artist, i.media.Title, i.media.Category)
}

// Glyph выбирает глиф кнопки по состоянию контроллера
func Glyph(status playback.Status, id string) string {
	switch {
	case status.Playing && status.TrackID == id:
		return GlyphPause
	case status.Pending && status.PendingTrackID == id:
		return GlyphPending
	default:
		return GlyphPlay
	}
}

// mediaItemDelegate отображает строку медиа с глифом воспроизведения
type mediaItemDelegate struct {
	state func() playback.Status
}

func (d mediaItemDelegate) Height() int                             { return 1 }
func (d mediaItemDelegate) Spacing() int                            { return 0 }
func (d mediaItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }
func (d mediaItemDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	i, ok := listItem.(mediaItem)
	if !ok {
		return
	}

	// Глиф | Исполнитель | Название | Категория | Продолжительность
	str := fmt.Sprintf("%s  %-20s %-40s %-12s %s",
		Glyph(d.state(), i.media.ID),
		utils.TruncateString(i.media.Artist, 20),
		utils.TruncateString(i.media.Title, 40),
		utils.TruncateString(i.media.Category, 12),
		utils.FormatDurationFromSeconds(i.media.Length))

	fn := itemStyle.Render
	if index == m.Index() {
		fn = func(s ...string) string {
			return selectedItemStyle.Render("> " + strings.Join(s, " "))
		}
	}

	fmt.Fprint(w, fn(str))
}

// Model представляет модель галереи
type Model struct {
	list       list.Model
	controller Controller
	apiBase    string
	canEdit    bool

	media      []data.Media
	categories []string
	category   string
	err        string
}

// NewModel создает галерею поверх контроллера. canEdit включает клавиши администратора
func NewModel(controller Controller, apiBase string, canEdit bool) *Model {
	l := list.New(nil, mediaItemDelegate{state: controller.Snapshot}, 0, 0)
	l.Title = "Músicas"
	l.SetShowStatusBar(false)
	l.SetShowTitle(true)
	l.SetFilteringEnabled(true)
	l.DisableQuitKeybindings()
	l.Styles.Title = titleStyle
	l.Styles.PaginationStyle = paginationStyle
	l.Styles.HelpStyle = helpStyle

	return &Model{
		list:       l,
		controller: controller,
		apiBase:    apiBase,
		canEdit:    canEdit,
		category:   catalog.AllCategories,
	}
}

// Init инициализирует модель
func (m *Model) Init() tea.Cmd {
	return nil
}

// SetMedia заменяет содержимое галереи
func (m *Model) SetMedia(media []data.Media) {
	m.media = media
	m.categories = catalog.Categories(media)
	if !lo.Contains(m.categories, m.category) {
		m.category = catalog.AllCategories
	}
	m.refresh()
}

// SetError показывает ошибку воспроизведения. Пустая строка скрывает ее
func (m *Model) SetError(text string) {
	m.err = text
}

// Error возвращает текущую ошибку воспроизведения
func (m *Model) Error() string {
	return m.err
}

// Category возвращает выбранную категорию
func (m *Model) Category() string {
	return m.category
}

// Len возвращает число видимых элементов
func (m *Model) Len() int {
	return len(m.list.Items())
}

// Selected возвращает выбранное медиа
func (m *Model) Selected() (data.Media, bool) {
	item, ok := m.list.SelectedItem().(mediaItem)
	if !ok {
		return data.Media{}, false
	}
	return item.media, true
}

// TrackFor возвращает трек воспроизведения для медиа
func (m *Model) TrackFor(id string) (playback.Track, bool) {
	return catalog.TrackByID(catalog.Tracks(m.media, m.apiBase), id)
}

func (m *Model) refresh() {
	visible := catalog.FilterMedia(m.media, m.category, "")
	tracks := catalog.Tracks(visible, m.apiBase)

	items := make([]list.Item, len(visible))
	for i := range visible {
		items[i] = mediaItem{media: visible[i], track: tracks[i]}
	}
	m.list.SetItems(items)
}

func (m *Model) nextCategory() {
	if len(m.categories) == 0 {
		return
	}
	idx := lo.IndexOf(m.categories, m.category)
	m.category = m.categories[(idx+1)%len(m.categories)]
	m.refresh()
}

func (m *Model) toggleSelected() {
	item, ok := m.list.SelectedItem().(mediaItem)
	if !ok {
		return
	}
	m.err = ""
	if _, err := m.controller.Toggle(item.track); err != nil {
		m.err = fmt.Sprintf("%s %v", PlaybackErrorText, err)
	}
}

// Update обрабатывает сообщения и обновляет модель
func (m *Model) Update(msg tea.Msg) (*Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetWidth(msg.Width)
		m.list.SetHeight(msg.Height - 8) // Место для категории, ошибки и плеера
		return m, nil

	case tea.KeyMsg:
		// Во время ввода фильтра клавиши принадлежат списку
		if m.list.FilterState() == list.Filtering {
			break
		}

		switch msg.String() {
		case "q":
			return m, func() tea.Msg { return QuitMsg{} }

		case "enter", " ":
			m.toggleSelected()
			return m, nil

		case "tab":
			m.nextCategory()
			return m, nil

		case "n":
			return m, func() tea.Msg { return OpenNewsMsg{} }

		case "e":
			if !m.canEdit {
				return m, nil
			}
			if selected, ok := m.Selected(); ok {
				return m, func() tea.Msg { return EditMediaMsg{Media: selected} }
			}
			return m, nil

		case "a":
			if !m.canEdit {
				return m, nil
			}
			return m, func() tea.Msg { return EditMediaMsg{} }
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View отображает модель
func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(m.list.View())
	b.WriteString("\n")
	b.WriteString(categoryStyle.Render("Categoria: " + m.category))
	b.WriteString("\n")
	if m.err != "" {
		b.WriteString(errorStyle.Render(m.err))
		b.WriteString("\n")
	}

	help := "Enter/Espaço: tocar/parar • Tab: categoria • /: buscar • n: notícias • q: sair"
	if m.canEdit {
		help += " • a: adicionar • e: editar"
	}
	b.WriteString(helpStyle.Render(help))
	return b.String()
}
