// Package tui содержит компоненты для текстового пользовательского интерфейса
package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/hazadus/arabes/internal/tui/app"
)

// App представляет основное TUI приложение
type App struct {
	opts app.Options
}

// NewApp создает новый экземпляр TUI приложения
func NewApp(opts app.Options) *App {
	return &App{opts: opts}
}

// Run запускает TUI приложение
func (tuiApp *App) Run() error {
	model := app.NewMainModel(tuiApp.opts)

	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err := p.Run()

	// Выход из программы переводит контроллер в состояние покоя
	model.Close()

	return err
}
