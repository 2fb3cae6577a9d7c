package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// stdin подменяется в тестах
var stdin io.Reader = os.Stdin

// createLoginCommand создает команду login
func (app *Application) createLoginCommand(ctx context.Context) *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in as an administrator",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			reader := bufio.NewReader(stdin)
			if username == "" {
				value, err := prompt(reader, "Имя пользователя: ")
				if err != nil {
					return err
				}
				username = value
			}
			if password == "" {
				value, err := promptPassword(reader, "Пароль: ")
				if err != nil {
					return err
				}
				password = value
			}
			if username == "" || password == "" {
				return errors.New("необходимо указать имя пользователя и пароль")
			}

			creds, err := app.Client.Login(ctx, username, password)
			if err != nil {
				return fmt.Errorf("ошибка входа: %w", err)
			}
			if err := app.SaveCredentials(creds); err != nil {
				return err
			}

			fmt.Printf("✅ Добро пожаловать, %s!\n", creds.User.FullName)
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "Username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (prompted when omitted)")
	return cmd
}

// createLogoutCommand создает команду logout
func (app *Application) createLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved login",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if err := app.ClearCredentials(); err != nil {
				return err
			}
			fmt.Println("👋 Сеанс завершен")
			return nil
		},
	}
}

// createWhoamiCommand создает команду whoami
func (app *Application) createWhoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in user",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			if !app.Creds.IsAuthenticated() {
				fmt.Println("🔒 Вход не выполнен")
				return
			}
			u := app.Creds.User
			fmt.Printf("👤 %s (%s), роль: %s\n", u.FullName, u.Username, u.Role)
		},
	}
}

func prompt(reader *bufio.Reader, label string) (string, error) {
	fmt.Print(label)
	line, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("ошибка чтения ввода: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// confirm задает вопрос да/нет. Пустой ответ означает "нет"
func confirm(label string) (bool, error) {
	answer, err := prompt(bufio.NewReader(stdin), label)
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes", "д", "да":
		return true, nil
	}
	return false, nil
}

// promptPassword читает пароль без эха, если ввод идет с терминала
func promptPassword(reader *bufio.Reader, label string) (string, error) {
	f, ok := stdin.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return prompt(reader, label)
	}

	fmt.Print(label)
	raw, err := term.ReadPassword(int(f.Fd()))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("ошибка чтения пароля: %w", err)
	}
	return strings.TrimSpace(string(raw)), nil
}
