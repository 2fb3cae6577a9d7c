// Package editor содержит экран редактирования медиа для администратора
package editor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hazadus/arabes/internal/apiclient"
	"github.com/hazadus/arabes/internal/data"
	"github.com/hazadus/arabes/internal/utils"
)

var (
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true).Margin(1, 0)
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Width(15)
	focusedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	blurredStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Margin(1, 0)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Margin(1, 0)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("46")).Margin(1, 0)
	footerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Margin(1, 0)
)

// MediaWriter сохраняет медиа через API
type MediaWriter interface {
	CreateMedia(ctx context.Context, f apiclient.MediaFields) (data.Media, error)
	UpdateMedia(ctx context.Context, id string, f apiclient.MediaFields) (data.Media, error)
}

// MediaSavedMsg отправляется когда медиа успешно сохранено
type MediaSavedMsg struct {
	Media data.Media
}

// GoBackMsg отправляется при выходе из редактора
type GoBackMsg struct{}

type saveErrorMsg struct {
	err error
}

type fieldType int

const (
	titleField fieldType = iota
	artistField
	categoryField
	fileField
	thumbnailField
	numFields
)

// Model представляет модель экрана редактирования медиа
type Model struct {
	writer   MediaWriter
	original data.Media
	inputs   []textinput.Model
	focus    int
	err      string
	success  string
	saving   bool
}

// NewModel создает редактор. Медиа без ID создается заново
func NewModel(writer MediaWriter, media data.Media) *Model {
	inputs := make([]textinput.Model, numFields)

	inputs[titleField] = textinput.New()
	inputs[titleField].Placeholder = "Título"
	inputs[titleField].SetValue(media.Title)
	inputs[titleField].Focus()
	inputs[titleField].PromptStyle = focusedStyle
	inputs[titleField].TextStyle = focusedStyle

	inputs[artistField] = textinput.New()
	inputs[artistField].Placeholder = "Artista"
	inputs[artistField].SetValue(media.Artist)

	inputs[categoryField] = textinput.New()
	inputs[categoryField].Placeholder = data.DefaultMediaCategory
	inputs[categoryField].SetValue(media.Category)

	inputs[fileField] = textinput.New()
	inputs[fileField].Placeholder = "Caminho do MP3"

	inputs[thumbnailField] = textinput.New()
	inputs[thumbnailField].Placeholder = "Caminho da capa"

	return &Model{
		writer:   writer,
		original: media,
		inputs:   inputs,
	}
}

// IsNew сообщает, создается ли новое медиа
func (m *Model) IsNew() bool {
	return m.original.ID == ""
}

// Init инициализирует модель
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update обрабатывает сообщения и обновляет модель
func (m *Model) Update(msg tea.Msg) (*Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, func() tea.Msg { return GoBackMsg{} }

		case "ctrl+s":
			return m, m.save()

		case "tab", "shift+tab", "enter", "up", "down":
			s := msg.String()

			if s == "enter" && m.focus == len(m.inputs) {
				return m, m.save()
			}

			if s == "up" || s == "shift+tab" {
				m.focus--
			} else {
				m.focus++
			}

			if m.focus > len(m.inputs) {
				m.focus = 0
			} else if m.focus < 0 {
				m.focus = len(m.inputs)
			}

			cmds := make([]tea.Cmd, len(m.inputs))
			for i := 0; i < len(m.inputs); i++ {
				if i == m.focus {
					cmds[i] = m.inputs[i].Focus()
					m.inputs[i].PromptStyle = focusedStyle
					m.inputs[i].TextStyle = focusedStyle
				} else {
					m.inputs[i].Blur()
					m.inputs[i].PromptStyle = blurredStyle
					m.inputs[i].TextStyle = blurredStyle
				}
			}
			return m, tea.Batch(cmds...)
		}

	case MediaSavedMsg:
		m.saving = false
		m.err = ""
		m.success = "Música salva!"
		m.original = msg.Media
		// Возвращаемся в галерею после короткой паузы
		return m, tea.Tick(time.Second, func(time.Time) tea.Msg { return GoBackMsg{} })

	case saveErrorMsg:
		m.saving = false
		m.success = ""
		m.err = msg.err.Error()
		return m, nil

	case tea.WindowSizeMsg:
		for i := range m.inputs {
			m.inputs[i].Width = msg.Width - 20
		}
		return m, nil
	}

	if m.focus < len(m.inputs) {
		var cmd tea.Cmd
		m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
		return m, cmd
	}
	return m, nil
}

// fields собирает значения формы. Пути к файлам раскрываются
func (m *Model) fields() (apiclient.MediaFields, error) {
	f := apiclient.MediaFields{
		Title:    strings.TrimSpace(m.inputs[titleField].Value()),
		Artist:   strings.TrimSpace(m.inputs[artistField].Value()),
		Category: strings.TrimSpace(m.inputs[categoryField].Value()),
	}

	var err error
	if v := strings.TrimSpace(m.inputs[fileField].Value()); v != "" {
		if f.File, err = utils.ExpandPath(v); err != nil {
			return f, err
		}
	}
	if v := strings.TrimSpace(m.inputs[thumbnailField].Value()); v != "" {
		if f.Thumbnail, err = utils.ExpandPath(v); err != nil {
			return f, err
		}
	}
	return f, nil
}

// save проверяет форму и отправляет ее в API
func (m *Model) save() tea.Cmd {
	if m.saving {
		return nil
	}

	f, err := m.fields()
	if err != nil {
		m.err = err.Error()
		return nil
	}
	if m.IsNew() && f.File == "" {
		m.err = "O arquivo MP3 é obrigatório para uma nova música"
		m.success = ""
		return nil
	}
	if !m.IsNew() && f.Title == "" {
		m.err = "O campo 'Título' não pode ficar vazio"
		m.success = ""
		return nil
	}

	m.saving = true
	m.err = ""
	writer, id, isNew := m.writer, m.original.ID, m.IsNew()
	return func() tea.Msg {
		var saved data.Media
		var err error
		if isNew {
			saved, err = writer.CreateMedia(context.Background(), f)
		} else {
			saved, err = writer.UpdateMedia(context.Background(), id, f)
		}
		if err != nil {
			return saveErrorMsg{err: fmt.Errorf("Erro ao salvar a música: %w", err)}
		}
		return MediaSavedMsg{Media: saved}
	}
}

// View отображает модель
func (m *Model) View() string {
	var b strings.Builder

	if m.IsNew() {
		b.WriteString(titleStyle.Render("Nova música"))
	} else {
		b.WriteString(titleStyle.Render(fmt.Sprintf("Editando: %s", m.original.Title)))
	}
	b.WriteString("\n\n")

	labels := []string{"Título:", "Artista:", "Categoria:", "Arquivo:", "Capa:"}
	for i, input := range m.inputs {
		b.WriteString(labelStyle.Render(labels[i]))
		b.WriteString(" ")
		b.WriteString(input.View())
		b.WriteString("\n\n")
	}

	saveButton := "[ Salvar ]"
	if m.focus == len(m.inputs) {
		saveButton = focusedStyle.Render(saveButton)
	} else {
		saveButton = blurredStyle.Render(saveButton)
	}
	b.WriteString(saveButton)
	b.WriteString("\n\n")

	if m.saving {
		b.WriteString(helpStyle.Render("⏳ Salvando..."))
		b.WriteString("\n")
	}
	if m.err != "" {
		b.WriteString(errorStyle.Render(m.err))
		b.WriteString("\n")
	}
	if m.success != "" {
		b.WriteString(successStyle.Render(m.success))
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render("Tab/Enter: próximo campo • Shift+Tab: campo anterior"))
	b.WriteString("\n")
	b.WriteString(footerStyle.Render("Ctrl+S: salvar • Esc: cancelar"))

	return b.String()
}
