package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/spf13/cobra"

	"github.com/hazadus/arabes/internal/catalog"
	"github.com/hazadus/arabes/internal/data"
	"github.com/hazadus/arabes/internal/playback"
	"github.com/hazadus/arabes/internal/player"
	"github.com/hazadus/arabes/internal/streaming"
	"github.com/hazadus/arabes/internal/utils"
)

const progressInterval = 500 * time.Millisecond

// createPlayCommand создает команду play с привязкой к экземпляру приложения
func (app *Application) createPlayCommand(ctx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "play [id]",
		Short: "Play a media item by its ID",
		Long:  `Stream a media item from the API. Space toggles playback, Ctrl+C stops and exits.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if !catalog.ValidID(args[0]) {
				return fmt.Errorf("неверный ID медиа: %q", args[0])
			}
			return app.playByID(ctx, args[0])
		},
	}
}

// enableRawMode включает режим raw для терминала (без буферизации и echo)
func enableRawMode() {
	cmd := exec.Command("stty", "-echo", "-icanon")
	cmd.Stdin = os.Stdin
	_ = cmd.Run() // Без терминала управление клавишами просто недоступно
}

// disableRawMode восстанавливает нормальный режим терминала
func disableRawMode() {
	cmd := exec.Command("stty", "echo", "icanon")
	cmd.Stdin = os.Stdin
	_ = cmd.Run()
}

// readKeys передает нажатые клавиши в канал до ошибки чтения или закрытия done.
// После done горутина завершается на следующем нажатии, не блокируясь на отправке
func readKeys(done <-chan struct{}, r io.Reader) <-chan byte {
	keys := make(chan byte)
	go func() {
		defer close(keys)
		buffer := make([]byte, 1)
		for {
			if _, err := r.Read(buffer); err != nil {
				return
			}
			select {
			case keys <- buffer[0]:
			case <-done:
				return
			}
		}
	}()
	return keys
}

func (app *Application) playByID(ctx context.Context, id string) error {
	m, err := app.Client.GetMedia(ctx, id)
	if err != nil {
		return fmt.Errorf("ошибка поиска медиа: %w", err)
	}
	if m.URL == "" {
		return fmt.Errorf("у медиа %s отсутствует файл", id)
	}

	printNowPlaying(m)

	speaker := player.NewSpeaker(player.DefaultBufferSize)
	defer speaker.Close()
	ctrl := playback.NewController(speaker)
	defer ctrl.Close()

	fmt.Printf("🌐 Начинаем потоковое воспроизведение...\n")
	fmt.Printf("🎮 Управление:\n")
	fmt.Printf("   [Пробел] - пауза/воспроизведение\n")
	fmt.Printf("   [Ctrl+C] - остановить и выйти\n")
	fmt.Println()

	enableRawMode()
	defer disableRawMode()

	track := catalog.Tracks([]data.Media{m}, app.Client.BaseURL())[0]
	done := make(chan struct{})
	defer close(done)
	return playLoop(ctx, ctrl, track, speaker.Status, readKeys(done, os.Stdin))
}

func printNowPlaying(m data.Media) {
	fmt.Printf("🎵 Сейчас играет:\n")
	fmt.Printf("   ID: %s\n", m.ID)
	fmt.Printf("   Исполнитель: %s\n", m.Artist)
	fmt.Printf("   Название: %s\n", m.Title)
	if m.Length > 0 {
		fmt.Printf("   Продолжительность: %s\n", utils.FormatDurationFromSeconds(m.Length))
	}
	fmt.Println()
}

// playLoop запускает трек и обрабатывает события контроллера, клавиши и прогресс
// до конца трека, ошибки старта или отмены ctx
func playLoop(ctx context.Context, ctrl *playback.Controller, track playback.Track, progress func() player.Status, keys <-chan byte) error {
	if _, err := ctrl.Play(track); err != nil {
		return fmt.Errorf("ошибка запуска воспроизведения: %w", err)
	}

	ticker := time.NewTicker(progressInterval)
	defer ticker.Stop()

	for {
		select {
		case e, ok := <-ctrl.Events():
			if !ok {
				return nil
			}
			switch e.Kind {
			case playback.EventStarted:
				fmt.Printf("\r\033[K▶️  Воспроизведение\n")
			case playback.EventStopped:
				fmt.Printf("\r\033[K⏸️  Пауза\n")
			case playback.EventFailed:
				return fmt.Errorf("ошибка воспроизведения: %w", e.Err)
			case playback.EventEnded:
				fmt.Println("\n✅ Потоковое воспроизведение завершено")
				return nil
			}

		case key, ok := <-keys:
			if !ok {
				keys = nil
				continue
			}
			// Пробел или Enter
			if key == ' ' || key == '\n' || key == '\r' {
				if _, err := ctrl.Toggle(track); err != nil {
					return fmt.Errorf("ошибка переключения воспроизведения: %w", err)
				}
			}

		case <-ticker.C:
			if _, playing := ctrl.Query(); playing {
				displayProgress(progress())
			}

		case <-ctx.Done():
			ctrl.Stop()
			fmt.Println("\n⏹️  Воспроизведение остановлено пользователем")
			return nil
		}
	}
}

// displayProgress отображает прогресс воспроизведения
func displayProgress(status player.Status) {
	statusIcon := "⏱️"
	statusText := streaming.GetStreamStatus(status.StuckCount)
	if status.StuckCount > 3 {
		statusIcon = "⚠️"
	} else if status.Speed >= 0.98 && status.Speed <= 1.02 {
		statusIcon = "✅"
	}

	if status.Total > 0 {
		percent := float64(status.Current) / float64(status.Total) * 100
		fmt.Printf("\r%s  %.1f%% | %s / %s | Скорость: %.2fx | Статус: %s",
			statusIcon,
			percent,
			utils.FormatDuration(status.Current),
			utils.FormatDuration(status.Total),
			status.Speed,
			statusText)
		return
	}
	fmt.Printf("\r%s  %s | Скорость: %.2fx | Потоковое воспроизведение",
		statusIcon,
		utils.FormatDuration(status.Current),
		status.Speed)
}
