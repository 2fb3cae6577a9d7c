package main

import (
	"context"
	"fmt"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/hazadus/arabes/internal/catalog"
)

// clipboardWriteAll подменяется в тестах
var clipboardWriteAll = clipboard.WriteAll

// createShareCommand создает команду share, копирующую публичную ссылку
func (app *Application) createShareCommand(ctx context.Context) *cobra.Command {
	var news bool

	cmd := &cobra.Command{
		Use:   "share [id]",
		Short: "Print and copy a public link to a media item or news article",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			id := args[0]
			if !catalog.ValidID(id) {
				return fmt.Errorf("неверный ID: %q", id)
			}

			kind := catalog.KindMedia
			if news {
				kind = catalog.KindNews
				if _, err := app.Client.GetNews(ctx, id); err != nil {
					return fmt.Errorf("ошибка поиска новости: %w", err)
				}
			} else if _, err := app.Client.GetMedia(ctx, id); err != nil {
				return fmt.Errorf("ошибка поиска медиа: %w", err)
			}

			link := catalog.ShareLink(app.Config.PublicURL, kind, id)
			fmt.Printf("🔗 %s\n", link)

			// Без буфера обмена ссылка все равно выведена
			if err := clipboardWriteAll(link); err != nil {
				fmt.Printf("⚠️  Не удалось скопировать ссылку: %v\n", err)
				return nil
			}
			fmt.Println("📋 Ссылка скопирована в буфер обмена")
			return nil
		},
	}

	cmd.Flags().BoolVar(&news, "news", false, "Share a news article instead of a media item")
	return cmd
}
