// Package app содержит основную логику TUI приложения
package app

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hazadus/arabes/internal/data"
	"github.com/hazadus/arabes/internal/player"
	"github.com/hazadus/arabes/internal/playback"
	"github.com/hazadus/arabes/internal/tui/editor"
	"github.com/hazadus/arabes/internal/tui/gallery"
	"github.com/hazadus/arabes/internal/tui/news"
	tuiPlayer "github.com/hazadus/arabes/internal/tui/player"
)

// ScreenType определяет тип текущего экрана
type ScreenType int

// Константы для типов экранов
const (
	// LoadingScreen - загрузка каталога
	LoadingScreen ScreenType = iota
	// GalleryScreen - галерея медиа
	GalleryScreen
	// NewsScreen - новости
	NewsScreen
	// EditorScreen - редактор медиа
	EditorScreen
	// ErrorScreen - ошибка загрузки с повтором
	ErrorScreen
)

const tickInterval = time.Second

var (
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true).Margin(1, 2)
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).MarginLeft(2)
)

// Catalog загружает медиа и новости
type Catalog interface {
	ListMedia(ctx context.Context, category, search string) ([]data.Media, error)
	ListNews(ctx context.Context, search string) ([]data.News, error)
}

// Options - зависимости главной модели
type Options struct {
	Catalog    Catalog
	Editor     editor.MediaWriter // nil, если пользователь не администратор
	Controller *playback.Controller
	Progress   func() player.Status
	APIBase    string
}

// mediaLoadedMsg содержит загруженный каталог
type mediaLoadedMsg struct {
	media []data.Media
}

// loadErrorMsg сообщает об ошибке загрузки каталога
type loadErrorMsg struct {
	err error
}

// eventMsg переносит событие контроллера в цикл Bubble Tea
type eventMsg struct {
	event playback.Event
}

type tickMsg time.Time

// MainModel представляет главную модель TUI
type MainModel struct {
	opts          Options
	currentScreen ScreenType
	galleryModel  *gallery.Model
	nowPlaying    *tuiPlayer.Model
	newsModel     *news.Model
	editorModel   *editor.Model
	loadErr       error
	width         int
	height        int
}

// NewMainModel создает новую главную модель
func NewMainModel(opts Options) *MainModel {
	return &MainModel{
		opts:          opts,
		currentScreen: LoadingScreen,
		galleryModel:  gallery.NewModel(opts.Controller, opts.APIBase, opts.Editor != nil),
		nowPlaying:    tuiPlayer.NewModel(),
	}
}

// Init запускает загрузку каталога, прослушивание событий и таймер прогресса
func (m *MainModel) Init() tea.Cmd {
	return tea.Batch(m.loadMedia(), m.listenEvents(), tick())
}

func (m *MainModel) loadMedia() tea.Cmd {
	catalog := m.opts.Catalog
	return func() tea.Msg {
		media, err := catalog.ListMedia(context.Background(), "", "")
		if err != nil {
			return loadErrorMsg{err: err}
		}
		return mediaLoadedMsg{media: media}
	}
}

// listenEvents ждет следующее событие контроллера. После закрытия канала ничего не шлет
func (m *MainModel) listenEvents() tea.Cmd {
	events := m.opts.Controller.Events()
	return func() tea.Msg {
		e, ok := <-events
		if !ok {
			return nil
		}
		return eventMsg{event: e}
	}
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// refreshNowPlaying переносит состояние контроллера и плеера в панель
func (m *MainModel) refreshNowPlaying() {
	state := m.opts.Controller.Snapshot()
	id := state.TrackID
	if state.Pending {
		id = state.PendingTrackID
	}

	var track playback.Track
	if id != "" {
		track, _ = m.galleryModel.TrackFor(id)
	}
	var status player.Status
	if state.Playing && m.opts.Progress != nil {
		status = m.opts.Progress()
	}
	m.nowPlaying.SetState(track, state, status)
}

func (m *MainModel) handleEvent(e playback.Event) {
	switch e.Kind {
	case playback.EventFailed:
		text := gallery.PlaybackErrorText
		if e.Err != nil {
			text = fmt.Sprintf("%s %v", text, e.Err)
		}
		m.galleryModel.SetError(text)
	case playback.EventStarted:
		m.galleryModel.SetError("")
	}
	m.refreshNowPlaying()
}

// Update обрабатывает сообщения
func (m *MainModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.opts.Controller.Stop()
			return m, tea.Quit
		}
		if m.currentScreen == ErrorScreen || m.currentScreen == LoadingScreen {
			switch msg.String() {
			case "r":
				if m.currentScreen == ErrorScreen {
					m.currentScreen = LoadingScreen
					return m, m.loadMedia()
				}
			case "q":
				m.opts.Controller.Stop()
				return m, tea.Quit
			}
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.nowPlaying.SetWidth(msg.Width)
		var cmds []tea.Cmd
		var cmd tea.Cmd
		m.galleryModel, cmd = m.galleryModel.Update(msg)
		cmds = append(cmds, cmd)
		if m.newsModel != nil {
			m.newsModel, cmd = m.newsModel.Update(msg)
			cmds = append(cmds, cmd)
		}
		if m.editorModel != nil {
			m.editorModel, cmd = m.editorModel.Update(msg)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)

	case mediaLoadedMsg:
		m.loadErr = nil
		m.galleryModel.SetMedia(msg.media)
		m.currentScreen = GalleryScreen
		return m, nil

	case loadErrorMsg:
		m.loadErr = msg.err
		m.currentScreen = ErrorScreen
		return m, nil

	case eventMsg:
		m.handleEvent(msg.event)
		return m, m.listenEvents()

	case tickMsg:
		m.refreshNowPlaying()
		return m, tick()

	case gallery.QuitMsg:
		m.opts.Controller.Stop()
		return m, tea.Quit

	case gallery.OpenNewsMsg:
		m.currentScreen = NewsScreen
		m.newsModel = news.NewModel(m.opts.Catalog)
		if m.width > 0 {
			m.newsModel, _ = m.newsModel.Update(tea.WindowSizeMsg{Width: m.width, Height: m.height})
		}
		return m, m.newsModel.Init()

	case news.GoBackMsg:
		m.currentScreen = GalleryScreen
		m.newsModel = nil
		return m, nil

	case gallery.EditMediaMsg:
		if m.opts.Editor == nil {
			return m, nil
		}
		m.currentScreen = EditorScreen
		m.editorModel = editor.NewModel(m.opts.Editor, msg.Media)
		return m, m.editorModel.Init()

	case editor.GoBackMsg:
		m.currentScreen = GalleryScreen
		m.editorModel = nil
		// Каталог мог измениться
		return m, m.loadMedia()
	}

	// Передаем сообщение активной модели
	var cmd tea.Cmd
	switch m.currentScreen {
	case GalleryScreen:
		m.galleryModel, cmd = m.galleryModel.Update(msg)
		// Toggle меняет состояние контроллера синхронно
		m.refreshNowPlaying()
	case NewsScreen:
		if m.newsModel != nil {
			m.newsModel, cmd = m.newsModel.Update(msg)
		}
	case EditorScreen:
		if m.editorModel != nil {
			m.editorModel, cmd = m.editorModel.Update(msg)
		}
	}
	return m, cmd
}

// View отображает интерфейс
func (m *MainModel) View() string {
	switch m.currentScreen {
	case LoadingScreen:
		return helpStyle.Render("⏳ Carregando músicas...")

	case ErrorScreen:
		return errorStyle.Render(fmt.Sprintf("❌ Não foi possível carregar as músicas: %v", m.loadErr)) +
			"\n" + helpStyle.Render("r: Tentar novamente • q: sair")

	case GalleryScreen:
		return m.galleryModel.View() + "\n" + m.nowPlaying.View()

	case NewsScreen:
		if m.newsModel != nil {
			return m.newsModel.View() + "\n" + m.nowPlaying.View()
		}
		return "Erro: tela de notícias não inicializada"

	case EditorScreen:
		if m.editorModel != nil {
			return m.editorModel.View()
		}
		return "Erro: editor não inicializado"

	default:
		return "Tela desconhecida"
	}
}

// Screen возвращает текущий экран
func (m *MainModel) Screen() ScreenType {
	return m.currentScreen
}

// Close переводит контроллер в состояние покоя
func (m *MainModel) Close() {
	if m.opts.Controller != nil {
		m.opts.Controller.Close()
	}
}
