package main

import (
	"context"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/hazadus/arabes/internal/catalog"
	"github.com/hazadus/arabes/internal/utils"
)

// createNewsCommand создает группу команд для новостей
func (app *Application) createNewsCommand(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "news",
		Short: "Read the news feed",
	}
	cmd.AddCommand(app.createNewsListCommand(ctx))
	cmd.AddCommand(app.createNewsShowCommand(ctx))
	return cmd
}

func (app *Application) createNewsListCommand(ctx context.Context) *cobra.Command {
	var search string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List news articles",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			list, err := app.Client.ListNews(ctx, search)
			if err != nil {
				return fmt.Errorf("ошибка загрузки новостей: %w", err)
			}

			if len(list) == 0 {
				fmt.Println("📰 Новостей не найдено")
				return nil
			}

			fmt.Printf("📰 Найдено новостей: %d\n", len(list))
			t := newTable(table.Row{"ID", "Заголовок", "Категория", "Дата"})
			for _, n := range list {
				date := ""
				if !n.CreatedAt.IsZero() {
					date = n.CreatedAt.Format("02/01/2006")
				}
				t.AppendRow(table.Row{n.ID, utils.TruncateString(n.Title, 50), n.Category, date})
			}
			t.Render()
			return nil
		},
	}

	cmd.Flags().StringVarP(&search, "search", "s", "", "Search in title and content")
	return cmd
}

func (app *Application) createNewsShowCommand(ctx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "show [id]",
		Short: "Show a news article",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			id := args[0]
			if !catalog.ValidID(id) {
				return fmt.Errorf("неверный ID новости: %q", id)
			}

			n, err := app.Client.GetNews(ctx, id)
			if err != nil {
				return fmt.Errorf("ошибка загрузки новости: %w", err)
			}

			fmt.Printf("📰 %s\n", n.Title)
			if n.Category != "" {
				fmt.Printf("   Категория: %s\n", n.Category)
			}
			if n.ImageURL != "" {
				fmt.Printf("   Изображение: %s\n", catalog.ResolveAssetURL(app.Client.BaseURL(), n.ImageURL))
			}
			if n.VideoURL != "" {
				fmt.Printf("   Видео: %s\n", n.VideoURL)
			}
			fmt.Println()
			fmt.Println(n.Content)
			return nil
		},
	}
}
