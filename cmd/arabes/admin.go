package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/hazadus/arabes/internal/apiclient"
	"github.com/hazadus/arabes/internal/catalog"
	"github.com/hazadus/arabes/internal/utils"
)

// createAdminCommand создает группу команд администрирования
func (app *Application) createAdminCommand(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage media, news and administrators (requires login)",
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return app.requireAdmin()
		},
	}

	mediaCmd := &cobra.Command{Use: "media", Short: "Manage media"}
	mediaCmd.AddCommand(app.createAdminMediaAddCommand(ctx))
	mediaCmd.AddCommand(app.createAdminMediaUpdateCommand(ctx))
	mediaCmd.AddCommand(app.createAdminDeleteCommand(ctx, "media", app.Client.DeleteMedia))

	newsCmd := &cobra.Command{Use: "news", Short: "Manage news"}
	newsCmd.AddCommand(app.createAdminNewsAddCommand(ctx))
	newsCmd.AddCommand(app.createAdminNewsUpdateCommand(ctx))
	newsCmd.AddCommand(app.createAdminDeleteCommand(ctx, "news", app.Client.DeleteNews))

	usersCmd := &cobra.Command{Use: "users", Short: "Manage administrators"}
	usersCmd.AddCommand(app.createAdminUsersListCommand(ctx))
	usersCmd.AddCommand(app.createAdminUsersAddCommand(ctx))
	usersCmd.AddCommand(app.createAdminDeleteCommand(ctx, "users", app.Client.DeleteAdmin))

	cmd.AddCommand(mediaCmd, newsCmd, usersCmd)
	return cmd
}

// bindMediaFlags привязывает флаги формы медиа
func bindMediaFlags(cmd *cobra.Command, f *apiclient.MediaFields) {
	cmd.Flags().StringVarP(&f.Title, "title", "t", "", "Title")
	cmd.Flags().StringVarP(&f.Artist, "artist", "a", "", "Artist")
	cmd.Flags().StringVarP(&f.Category, "category", "c", "", "Category")
	cmd.Flags().StringVarP(&f.File, "file", "f", "", "Path to the MP3 file")
	cmd.Flags().StringVar(&f.Thumbnail, "thumbnail", "", "Path to the cover image")
}

func bindNewsFlags(cmd *cobra.Command, f *apiclient.NewsFields) {
	cmd.Flags().StringVarP(&f.Title, "title", "t", "", "Title")
	cmd.Flags().StringVar(&f.Content, "content", "", "Article text")
	cmd.Flags().StringVarP(&f.Category, "category", "c", "", "Category")
	cmd.Flags().StringVar(&f.VideoURL, "video", "", "YouTube link or video ID")
	cmd.Flags().StringVar(&f.Image, "image", "", "Path to the article image")
}

// expandPaths раскрывает тильду в путях к файлам
func expandPaths(paths ...*string) error {
	for _, p := range paths {
		if *p == "" {
			continue
		}
		expanded, err := utils.ExpandPath(*p)
		if err != nil {
			return err
		}
		*p = expanded
	}
	return nil
}

func (app *Application) createAdminMediaAddCommand(ctx context.Context) *cobra.Command {
	var f apiclient.MediaFields

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Upload a new media item",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if f.File == "" {
				return errors.New("необходимо указать --file")
			}
			if err := expandPaths(&f.File, &f.Thumbnail); err != nil {
				return err
			}

			fmt.Printf("📤 Загружаем файл: %s\n", f.File)
			done := app.showUploadProgress()
			m, err := app.Client.CreateMedia(ctx, f)
			done()
			if err != nil {
				return fmt.Errorf("ошибка создания медиа: %w", err)
			}

			fmt.Printf("✅ Медиа добавлено: ID %s\n", m.ID)
			fmt.Printf("   %s - %s (%s)\n", m.Artist, m.Title, m.Category)
			return nil
		},
	}

	bindMediaFlags(cmd, &f)
	return cmd
}

// showUploadProgress выводит прогресс отправки файлов. Возвращает функцию завершения
func (app *Application) showUploadProgress() func() {
	shown := false
	app.Client.SetUploadProgress(func(sent, total int64) {
		shown = true
		fmt.Printf("\r📊 %.1f%% (%s / %s)", float64(sent)/float64(total)*100,
			utils.FormatFileSize(sent), utils.FormatFileSize(total))
	})
	return func() {
		app.Client.SetUploadProgress(nil)
		if shown {
			fmt.Println()
		}
	}
}

func (app *Application) createAdminMediaUpdateCommand(ctx context.Context) *cobra.Command {
	var f apiclient.MediaFields

	cmd := &cobra.Command{
		Use:   "update [id]",
		Short: "Update a media item; only the given fields change",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if !catalog.ValidID(args[0]) {
				return fmt.Errorf("неверный ID медиа: %q", args[0])
			}
			if err := expandPaths(&f.File, &f.Thumbnail); err != nil {
				return err
			}

			done := app.showUploadProgress()
			m, err := app.Client.UpdateMedia(ctx, args[0], f)
			done()
			if err != nil {
				return fmt.Errorf("ошибка обновления медиа: %w", err)
			}
			fmt.Printf("✅ Медиа обновлено: %s - %s\n", m.Artist, m.Title)
			return nil
		},
	}

	bindMediaFlags(cmd, &f)
	return cmd
}

func (app *Application) createAdminNewsAddCommand(ctx context.Context) *cobra.Command {
	var f apiclient.NewsFields

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Publish a news article",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if f.Title == "" || f.Content == "" {
				return errors.New("необходимо указать --title и --content")
			}
			if err := expandPaths(&f.Image); err != nil {
				return err
			}

			n, err := app.Client.CreateNews(ctx, f)
			if err != nil {
				return fmt.Errorf("ошибка создания новости: %w", err)
			}
			fmt.Printf("✅ Новость опубликована: ID %s\n", n.ID)
			return nil
		},
	}

	bindNewsFlags(cmd, &f)
	return cmd
}

func (app *Application) createAdminNewsUpdateCommand(ctx context.Context) *cobra.Command {
	var f apiclient.NewsFields

	cmd := &cobra.Command{
		Use:   "update [id]",
		Short: "Update a news article; only the given fields change",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if !catalog.ValidID(args[0]) {
				return fmt.Errorf("неверный ID новости: %q", args[0])
			}
			if err := expandPaths(&f.Image); err != nil {
				return err
			}

			n, err := app.Client.UpdateNews(ctx, args[0], f)
			if err != nil {
				return fmt.Errorf("ошибка обновления новости: %w", err)
			}
			fmt.Printf("✅ Новость обновлена: %s\n", n.Title)
			return nil
		},
	}

	bindNewsFlags(cmd, &f)
	return cmd
}

// createAdminDeleteCommand создает команду удаления для любой сущности.
// Без --yes удаление требует подтверждения
func (app *Application) createAdminDeleteCommand(ctx context.Context, what string, del func(context.Context, string) error) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete by ID after confirmation",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if !catalog.ValidID(args[0]) {
				return fmt.Errorf("неверный ID: %q", args[0])
			}
			if !yes {
				ok, err := confirm(fmt.Sprintf("Удалить (%s) ID %s? [y/N]: ", what, args[0]))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Println("↩️  Удаление отменено")
					return nil
				}
			}
			if err := del(ctx, args[0]); err != nil {
				return fmt.Errorf("ошибка удаления (%s): %w", what, err)
			}
			fmt.Printf("🗑️  Удалено (%s): ID %s\n", what, args[0])
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Delete without asking for confirmation")
	return cmd
}

func (app *Application) createAdminUsersListCommand(ctx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List administrators",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			users, err := app.Client.ListAdmins(ctx)
			if err != nil {
				return fmt.Errorf("ошибка загрузки администраторов: %w", err)
			}

			fmt.Printf("👥 Администраторов: %d\n", len(users))
			t := newTable(table.Row{"ID", "Имя", "Логин", "Роль"})
			for _, u := range users {
				t.AppendRow(table.Row{u.ID, u.FullName, u.Username, u.Role})
			}
			t.Render()
			return nil
		},
	}
}

func (app *Application) createAdminUsersAddCommand(ctx context.Context) *cobra.Command {
	var fullName, username, password string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create an administrator",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if username == "" || password == "" {
				return errors.New("необходимо указать --username и --password")
			}
			if fullName == "" {
				fullName = username
			}

			u, err := app.Client.CreateAdmin(ctx, fullName, username, password)
			if err != nil {
				return fmt.Errorf("ошибка создания администратора: %w", err)
			}
			fmt.Printf("✅ Администратор создан: %s (ID %s)\n", u.Username, u.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&fullName, "full-name", "", "Full name")
	cmd.Flags().StringVarP(&username, "username", "u", "", "Username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (at least 6 characters)")
	return cmd
}
