// Package news содержит экран новостей для TUI
package news

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hazadus/arabes/internal/catalog"
	"github.com/hazadus/arabes/internal/data"
	"github.com/hazadus/arabes/internal/utils"
)

var (
	titleStyle        = lipgloss.NewStyle().MarginLeft(2)
	itemStyle         = lipgloss.NewStyle().PaddingLeft(4)
	selectedItemStyle = lipgloss.NewStyle().PaddingLeft(2).Foreground(lipgloss.Color("170"))
	helpStyle         = list.DefaultStyles().HelpStyle.PaddingLeft(4).PaddingBottom(1)
	headerStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")).Margin(1, 0, 0, 2)
	metaStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).MarginLeft(2)
	errorStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true).Margin(1, 0, 0, 2)
)

// Source загружает новости
type Source interface {
	ListNews(ctx context.Context, search string) ([]data.News, error)
}

// GoBackMsg отправляется для возврата в галерею
type GoBackMsg struct{}

// LoadedMsg содержит загруженные новости
type LoadedMsg struct {
	News []data.News
}

// LoadErrorMsg сообщает об ошибке загрузки
type LoadErrorMsg struct {
	Err error
}

type newsItem struct {
	news data.News
}

func (i newsItem) FilterValue() string {
	return i.news.Title + " " + i.news.Content
}

type newsItemDelegate struct{}

func (d newsItemDelegate) Height() int                             { return 1 }
func (d newsItemDelegate) Spacing() int                            { return 0 }
func (d newsItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }
func (d newsItemDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	i, ok := listItem.(newsItem)
	if !ok {
		return
	}

	video := "  "
	if i.news.VideoURL != "" {
		video = "📺"
	}
	str := fmt.Sprintf("%s %s  %-60s %s",
		i.news.CreatedAt.Format("02/01/2006"),
		video,
		utils.TruncateString(i.news.Title, 60),
		i.news.Category)

	fn := itemStyle.Render
	if index == m.Index() {
		fn = func(s ...string) string {
			return selectedItemStyle.Render("> " + strings.Join(s, " "))
		}
	}
	fmt.Fprint(w, fn(str))
}

// Model - экран списка новостей с просмотром одной новости
type Model struct {
	source   Source
	list     list.Model
	viewport viewport.Model
	current  *data.News
	err      error
	loading  bool
}

// NewModel создает экран новостей
func NewModel(source Source) *Model {
	l := list.New(nil, newsItemDelegate{}, 0, 0)
	l.Title = "Notícias"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.DisableQuitKeybindings()
	l.Styles.Title = titleStyle
	l.Styles.HelpStyle = helpStyle

	return &Model{
		source:   source,
		list:     l,
		viewport: viewport.New(80, 20),
		loading:  true,
	}
}

// Init запускает загрузку новостей
func (m *Model) Init() tea.Cmd {
	return m.load()
}

func (m *Model) load() tea.Cmd {
	source := m.source
	return func() tea.Msg {
		news, err := source.ListNews(context.Background(), "")
		if err != nil {
			return LoadErrorMsg{Err: err}
		}
		return LoadedMsg{News: news}
	}
}

// Len возвращает число новостей в списке
func (m *Model) Len() int {
	return len(m.list.Items())
}

// Current возвращает открытую новость
func (m *Model) Current() (data.News, bool) {
	if m.current == nil {
		return data.News{}, false
	}
	return *m.current, true
}

func (m *Model) open(n data.News) {
	n = catalog.NormalizeNews(n)
	m.current = &n
	m.viewport.SetContent(detail(n))
	m.viewport.GotoTop()
}

// Update обрабатывает сообщения
func (m *Model) Update(msg tea.Msg) (*Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width, msg.Height-4)
		m.viewport.Width = msg.Width - 4
		m.viewport.Height = msg.Height - 8
		return m, nil

	case LoadedMsg:
		m.loading = false
		m.err = nil
		items := make([]list.Item, len(msg.News))
		for i, n := range msg.News {
			items[i] = newsItem{news: n}
		}
		return m, m.list.SetItems(items)

	case LoadErrorMsg:
		m.loading = false
		m.err = msg.Err
		return m, nil

	case tea.KeyMsg:
		if m.current != nil {
			switch msg.String() {
			case "esc", "q", "backspace":
				m.current = nil
				return m, nil
			}
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

		if m.list.FilterState() == list.Filtering {
			break
		}

		switch msg.String() {
		case "esc", "q":
			return m, func() tea.Msg { return GoBackMsg{} }

		case "r":
			if m.err != nil {
				m.loading = true
				m.err = nil
				return m, m.load()
			}

		case "enter":
			if item, ok := m.list.SelectedItem().(newsItem); ok {
				m.open(item.news)
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View отображает экран
func (m *Model) View() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("❌ Não foi possível carregar as notícias: %v", m.err)) +
			"\n" + helpStyle.Render("r: Tentar novamente • q/esc: voltar")
	}
	if m.loading {
		return metaStyle.Render("⏳ Carregando notícias...")
	}
	if m.current != nil {
		return m.viewport.View() + "\n" + helpStyle.Render("↑/↓: rolar • q/esc: voltar à lista")
	}
	return m.list.View() + "\n" + helpStyle.Render("Enter: abrir • /: buscar • q/esc: voltar")
}

func detail(n data.News) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(n.Title))
	b.WriteString("\n")
	meta := n.CreatedAt.Format("02/01/2006 15:04")
	if n.Category != "" {
		meta += " • " + n.Category
	}
	b.WriteString(metaStyle.Render(meta))
	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().MarginLeft(2).Render(n.Content))
	b.WriteString("\n")
	if n.VideoURL != "" {
		b.WriteString("\n")
		b.WriteString(metaStyle.Render("📺 " + n.VideoURL))
		b.WriteString("\n")
	}
	if n.ImageURL != "" {
		b.WriteString(metaStyle.Render("🖼  " + n.ImageURL))
		b.WriteString("\n")
	}
	return b.String()
}
