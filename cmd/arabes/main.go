package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hazadus/arabes/internal/apiclient"
	"github.com/hazadus/arabes/internal/config"
	"github.com/hazadus/arabes/internal/credentials"
	"github.com/hazadus/arabes/internal/logger"
)

// Application объединяет конфигурацию, учетные данные и клиент API
type Application struct {
	Config *config.Config
	Creds  *credentials.Credentials
	Client *apiclient.Client
}

// NewApplication загружает конфигурацию и сохраненный вход
func NewApplication(configPath string) (*Application, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки конфигурации: %w", err)
	}

	creds, err := credentials.Load(cfg.CredentialsFile)
	if err != nil {
		return nil, err
	}

	return &Application{
		Config: cfg,
		Creds:  creds,
		Client: apiclient.New(cfg.APIURL, creds.Token),
	}, nil
}

// SaveCredentials сохраняет вход и обновляет токен клиента
func (app *Application) SaveCredentials(creds *credentials.Credentials) error {
	if err := credentials.Save(app.Config.CredentialsFile, creds); err != nil {
		return err
	}
	app.Creds = creds
	app.Client.SetToken(creds.Token)
	return nil
}

// ClearCredentials удаляет сохраненный вход
func (app *Application) ClearCredentials() error {
	if err := credentials.Clear(app.Config.CredentialsFile); err != nil {
		return err
	}
	app.Creds = &credentials.Credentials{}
	app.Client.SetToken("")
	return nil
}

// requireAdmin отказывает до обращения к серверу, если администратор не вошел
func (app *Application) requireAdmin() error {
	if !app.Creds.IsAdmin() {
		return fmt.Errorf("%w: выполните 'arabes login'", apiclient.ErrUnauthorized)
	}
	return nil
}

func main() {
	os.Exit(run())
}

// run выполняет команду и возвращает код выхода. Отложенные вызовы
// (закрытие журнала, остановка сигналов) выполняются до os.Exit
func run() int {
	configPath := os.Getenv("ARABES_CONFIG")
	if configPath == "" {
		configPath = config.DefaultPath
	}

	app, err := NewApplication(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		return 1
	}

	// Журнал клиента пишется только в файл, если он задан
	if app.Config.LogFile != "" {
		logger.Init(app.Config.Logger("arabes-cli", false))
		defer logger.Get().Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.createRootCommand(ctx).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		return 1
	}
	return 0
}
