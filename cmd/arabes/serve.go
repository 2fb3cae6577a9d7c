package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hazadus/arabes/internal/auth"
	"github.com/hazadus/arabes/internal/data"
	"github.com/hazadus/arabes/internal/logger"
	"github.com/hazadus/arabes/internal/server"
	"github.com/hazadus/arabes/internal/storage"
	"github.com/hazadus/arabes/internal/uploader"
)

// createServeCommand создает команду serve, запускающую REST API
func (app *Application) createServeCommand(ctx context.Context) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the REST API server",
		Long:  `Serve the media, news and admin REST API. Files are stored in S3 when a bucket is configured, otherwise on local disk.`,
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if addr == "" {
				addr = app.Config.ListenAddr
			}
			return app.serve(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")
	return cmd
}

func (app *Application) serve(ctx context.Context, addr string) error {
	cfg := app.Config
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Сервер пишет журнал и в консоль
	logger.Init(cfg.Logger("arabes-api", true))

	store, uploadDir, err := app.openStorage()
	if err != nil {
		return err
	}

	dataStore, err := data.Open(cfg.DataFile)
	if err != nil {
		return fmt.Errorf("ошибка открытия данных: %w", err)
	}

	created, err := server.SeedAdmin(dataStore, cfg.AdminUsername, cfg.AdminPassword, cfg.AdminFullName)
	if err != nil {
		return fmt.Errorf("ошибка создания администратора: %w", err)
	}
	if created {
		fmt.Printf("👤 Создан администратор: %s\n", cfg.AdminUsername)
	}

	tokens := auth.NewManager(cfg.Secret(), cfg.TTL())
	srv := server.New(server.Options{
		Data:      dataStore,
		Uploads:   uploader.NewService(store, dataStore),
		Store:     store,
		Auth:      auth.NewAuthenticator(dataStore, tokens),
		PublicURL: cfg.PublicURL,
		UploadDir: uploadDir,
		RateRPS:   cfg.RateLimitRPS,
		RateBurst: cfg.RateLimitBurst,
	})

	fmt.Printf("🚀 API слушает %s\n", addr)
	if err := srv.Run(ctx, addr); err != nil {
		return err
	}
	fmt.Println("👋 Сервер остановлен")
	return nil
}

// openStorage выбирает S3, если задан бакет, иначе локальный каталог
func (app *Application) openStorage() (storage.Store, string, error) {
	cfg := app.Config
	if cfg.UseS3() {
		store, err := storage.NewS3Store(storage.S3Config{
			Region:     cfg.AwsRegion,
			AccessKey:  cfg.AwsAccessKey,
			SecretKey:  cfg.AwsSecretKey,
			Endpoint:   cfg.AwsEndpoint,
			BucketName: cfg.AwsBucketName,
		})
		if err != nil {
			return nil, "", fmt.Errorf("ошибка инициализации S3: %w", err)
		}
		fmt.Printf("☁️  Хранилище: S3 (%s)\n", cfg.AwsBucketName)
		return store, "", nil
	}

	store, err := storage.NewLocalStore(cfg.UploadDir)
	if err != nil {
		return nil, "", fmt.Errorf("ошибка инициализации локального хранилища: %w", err)
	}
	fmt.Printf("💾 Хранилище: %s\n", store.Dir())
	return store, store.Dir(), nil
}
