package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hazadus/arabes/internal/catalog"
	"github.com/hazadus/arabes/internal/uploader"
	"github.com/hazadus/arabes/internal/utils"
)

// createDownloadCommand создает команду download с привязкой к экземпляру приложения
func (app *Application) createDownloadCommand(ctx context.Context) *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "download [id]",
		Short: "Download a media file",
		Long:  `Download a media file from the API and save it to the configured download directory.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if !catalog.ValidID(args[0]) {
				return fmt.Errorf("неверный ID медиа: %q", args[0])
			}
			if outDir == "" {
				outDir = app.Config.DownloadDir
			}
			dir, err := utils.ExpandPath(outDir)
			if err != nil {
				return err
			}
			_, err = app.downloadMedia(ctx, args[0], dir)
			return err
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Directory to save into (default from config)")
	return cmd
}

// downloadMedia сохраняет файл медиа в каталог и возвращает путь к нему
func (app *Application) downloadMedia(ctx context.Context, id, dir string) (string, error) {
	m, err := app.Client.GetMedia(ctx, id)
	if err != nil {
		return "", fmt.Errorf("ошибка поиска медиа: %w", err)
	}

	ext := path.Ext(m.URL)
	if ext == "" {
		ext = ".mp3"
	}
	filePath := filepath.Join(dir, sanitizeFileName(m.Title)+ext)

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("ошибка создания директории: %w", err)
	}
	file, err := os.Create(filePath)
	if err != nil {
		return "", fmt.Errorf("ошибка создания файла: %w", err)
	}
	defer file.Close()

	fmt.Printf("⬇️  Скачиваем %q в файл: %s\n", m.Title, filePath)

	pr, pw := io.Pipe()
	go func() {
		_, err := app.Client.Download(ctx, id, pw)
		pw.CloseWithError(err)
	}()

	reader := &uploader.ProgressReader{
		Reader: pr,
		Size:   m.FileSize,
		OnProgress: func(read int64) {
			if m.FileSize > 0 {
				fmt.Printf("\r📊 %.1f%% (%s / %s)", float64(read)/float64(m.FileSize)*100,
					utils.FormatFileSize(read), utils.FormatFileSize(m.FileSize))
			}
		},
	}

	if _, err := io.Copy(file, reader); err != nil {
		pr.Close()
		file.Close()
		_ = os.Remove(filePath)
		return "", fmt.Errorf("ошибка скачивания: %w", err)
	}

	fmt.Printf("\n✅ Файл успешно скачан: %s\n", filePath)
	return filePath, nil
}
