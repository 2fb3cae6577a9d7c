package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hazadus/arabes/internal/playback"
	"github.com/hazadus/arabes/internal/player"
	"github.com/hazadus/arabes/internal/tui"
	tuiapp "github.com/hazadus/arabes/internal/tui/app"
)

// createTUICommand создает команду для запуска TUI интерфейса
func (app *Application) createTUICommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Launch the interactive gallery",
		Long:  `Browse media and news, play tracks and, when logged in as an administrator, edit media.`,
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return app.runTUI()
		},
	}
}

// tuiOptions собирает зависимости интерфейса. Редактор доступен только администратору
func (app *Application) tuiOptions(ctrl *playback.Controller, progress func() player.Status) tuiapp.Options {
	opts := tuiapp.Options{
		Catalog:    app.Client,
		Controller: ctrl,
		Progress:   progress,
		APIBase:    app.Client.BaseURL(),
	}
	if app.Creds.IsAdmin() {
		opts.Editor = app.Client
	}
	return opts
}

func (app *Application) runTUI() error {
	speaker := player.NewSpeaker(player.DefaultBufferSize)
	defer speaker.Close()

	ctrl := playback.NewController(speaker)
	if err := tui.NewApp(app.tuiOptions(ctrl, speaker.Status)).Run(); err != nil {
		return fmt.Errorf("ошибка запуска TUI: %w", err)
	}
	return nil
}
