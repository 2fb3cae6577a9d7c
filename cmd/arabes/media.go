package main

import (
	"context"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/hazadus/arabes/internal/catalog"
	"github.com/hazadus/arabes/internal/utils"
)

// createMediaCommand создает группу команд для галереи медиа
func (app *Application) createMediaCommand(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "media",
		Short: "Browse the music gallery",
	}
	cmd.AddCommand(app.createMediaListCommand(ctx))
	cmd.AddCommand(app.createMediaShowCommand(ctx))
	return cmd
}

func (app *Application) createMediaListCommand(ctx context.Context) *cobra.Command {
	var category, search string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List media, optionally filtered by category and search text",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			media, err := app.Client.ListMedia(ctx, category, search)
			if err != nil {
				return fmt.Errorf("ошибка загрузки медиа: %w", err)
			}

			if len(media) == 0 {
				fmt.Println("🎵 Медиа не найдено")
				return nil
			}

			fmt.Printf("🎵 Найдено медиа: %d\n", len(media))
			t := newTable(table.Row{"ID", "Название", "Исполнитель", "Категория", "Длительность", "Размер"})
			for _, m := range media {
				t.AppendRow(table.Row{
					m.ID,
					utils.TruncateString(m.Title, 40),
					utils.TruncateString(m.Artist, 30),
					m.Category,
					utils.FormatDurationFromSeconds(m.Length),
					utils.FormatFileSize(m.FileSize),
				})
			}
			t.Render()
			return nil
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", "", "Category to show ("+catalog.AllCategories+" for all)")
	cmd.Flags().StringVarP(&search, "search", "s", "", "Search in title and artist")
	return cmd
}

func (app *Application) createMediaShowCommand(ctx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "show [id]",
		Short: "Show a single media item",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			id := args[0]
			if !catalog.ValidID(id) {
				return fmt.Errorf("неверный ID медиа: %q", id)
			}

			m, err := app.Client.GetMedia(ctx, id)
			if err != nil {
				return fmt.Errorf("ошибка загрузки медиа: %w", err)
			}

			fmt.Printf("🎵 %s\n", m.Title)
			fmt.Printf("   ID: %s\n", m.ID)
			fmt.Printf("   Исполнитель: %s\n", m.Artist)
			fmt.Printf("   Категория: %s\n", m.Category)
			if m.Length > 0 {
				fmt.Printf("   Длительность: %s\n", utils.FormatDurationFromSeconds(m.Length))
			}
			if m.FileSize > 0 {
				fmt.Printf("   Размер: %s\n", utils.FormatFileSize(m.FileSize))
			}
			fmt.Printf("   Поток: %s\n", catalog.ResolveAssetURL(app.Client.BaseURL(), m.URL))
			fmt.Printf("   Скачать: %s\n", catalog.DownloadURL(app.Client.BaseURL(), m.ID))
			return nil
		},
	}
}
