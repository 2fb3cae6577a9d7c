// Package server содержит REST API сайта: публичный каталог медиа и новостей,
// вход администраторов и административные операции
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hazadus/arabes/internal/auth"
	"github.com/hazadus/arabes/internal/data"
	"github.com/hazadus/arabes/internal/logger"
	"github.com/hazadus/arabes/internal/storage"
	"github.com/hazadus/arabes/internal/uploader"
)

const (
	shutdownTimeout = 10 * time.Second
	maxUploadMemory = 32 << 20
)

// Options содержит зависимости и настройки сервера
type Options struct {
	Data      *data.Store
	Uploads   *uploader.Service
	Store     storage.Store
	Auth      *auth.Authenticator
	PublicURL string
	UploadDir string // Каталог локального хранилища, пустой для S3
	RateRPS   float64
	RateBurst int
}

// Server - HTTP-сервер API
type Server struct {
	opts   Options
	engine *gin.Engine
}

// New собирает маршруты сервера
func New(opts Options) *Server {
	s := &Server{opts: opts, engine: gin.New()}
	s.routes()
	return s
}

// Handler возвращает обработчик HTTP
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() {
	r := s.engine
	r.Use(Recovery(), RequestLogger(), CORS(s.opts.PublicURL))
	if s.opts.RateRPS > 0 {
		r.Use(RateLimiter(s.opts.RateRPS, s.opts.RateBurst))
	}
	r.MaxMultipartMemory = maxUploadMemory

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if s.opts.UploadDir != "" {
		r.Static("/uploads", s.opts.UploadDir)
	}

	api := r.Group("/api")
	api.POST("/auth/login", s.login)

	api.GET("/media", s.listMedia)
	api.GET("/media/:id", s.getMedia)
	api.GET("/media/download/:id", s.downloadMedia)
	api.GET("/news", s.listNews)
	api.GET("/news/:id", s.getNews)

	admin := api.Group("")
	admin.Use(AuthMiddleware(s.opts.Auth), AdminOnly())
	admin.POST("/media", s.createMedia)
	admin.PUT("/media/:id", s.updateMedia)
	admin.DELETE("/media/:id", s.deleteMedia)
	admin.POST("/news", s.createNews)
	admin.PUT("/news/:id", s.updateNews)
	admin.DELETE("/news/:id", s.deleteNews)
	admin.GET("/admins", s.listAdmins)
	admin.POST("/admins", s.createAdmin)
	admin.DELETE("/admins/:id", s.deleteAdmin)
}

// Run обслуживает запросы до отмены ctx и затем мягко останавливается
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(logger.EventServiceStartup, "Server listening", logger.Fields("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ошибка запуска сервера: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	logger.Info(logger.EventServiceShutdown, "Server shutting down", nil)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("ошибка остановки сервера: %w", err)
	}
	return nil
}

// SeedAdmin создает первого администратора, если в хранилище их нет
func SeedAdmin(store *data.Store, username, password, fullName string) (bool, error) {
	if store.AdminCount() > 0 || username == "" || password == "" {
		return false, nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return false, err
	}
	admin, err := store.AddAdmin(data.Admin{FullName: fullName, Username: username, PasswordHash: hash})
	if err != nil {
		return false, err
	}

	logger.Info(logger.EventAdminActivity, "Bootstrap admin created", logger.Fields(
		"admin_id", admin.ID,
		"username", admin.Username,
	))
	return true, nil
}
