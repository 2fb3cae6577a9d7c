package server

import (
	"errors"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/hazadus/arabes/internal/auth"
	"github.com/hazadus/arabes/internal/catalog"
	"github.com/hazadus/arabes/internal/data"
	"github.com/hazadus/arabes/internal/logger"
	"github.com/hazadus/arabes/internal/storage"
	"github.com/hazadus/arabes/internal/uploader"
)

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type userResponse struct {
	ID       string `json:"id"`
	FullName string `json:"fullName"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

type createAdminRequest struct {
	FullName string `json:"fullName"`
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func toUser(a data.Admin) userResponse {
	return userResponse{ID: a.ID, FullName: a.FullName, Username: a.Username, Role: a.Role}
}

// respondError переводит ошибки слоя данных в коды HTTP
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, data.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, data.ErrDuplicate):
		c.JSON(http.StatusConflict, gin.H{"error": "username already exists"})
	case errors.Is(err, data.ErrLastAdmin):
		c.JSON(http.StatusConflict, gin.H{"error": "cannot delete the last admin"})
	case errors.Is(err, uploader.ErrFileRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
	case errors.Is(err, uploader.ErrTitleRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": "title is required"})
	case errors.Is(err, uploader.ErrContentRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": "content is required"})
	case errors.Is(err, uploader.ErrInvalidVideo):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid video url"})
	case errors.Is(err, data.ErrEmptyUsername):
		c.JSON(http.StatusBadRequest, gin.H{"error": "username is required"})
	case errors.Is(err, auth.ErrWeakPassword):
		c.JSON(http.StatusBadRequest, gin.H{"error": "password must be at least 6 characters"})
	case errors.Is(err, auth.ErrPasswordTooLong):
		c.JSON(http.StatusBadRequest, gin.H{"error": "password must be at most 72 bytes"})
	default:
		logger.Error(logger.EventGeneral, "Request failed", logger.Fields(
			"path", c.Request.URL.Path,
			"error", err.Error(),
		))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// validID отвечает 400 на некорректный идентификатор
func validID(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if !catalog.ValidID(id) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return "", false
	}
	return id, true
}

func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}

	token, admin, err := s.opts.Auth.Authenticate(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			logger.Security(logger.EventLoginFailure, "Login failed", logger.Fields(
				"username", req.Username,
				"ip", c.ClientIP(),
			))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid username or password"})
			return
		}
		respondError(c, err)
		return
	}

	logger.Security(logger.EventLoginSuccess, "Login succeeded", logger.Fields(
		"user_id", admin.ID,
		"ip", c.ClientIP(),
	))
	c.JSON(http.StatusOK, gin.H{"token": token, "user": toUser(admin)})
}

func (s *Server) listMedia(c *gin.Context) {
	list := catalog.FilterMedia(s.opts.Data.ListMedia(), c.Query("category"), c.Query("search"))
	c.JSON(http.StatusOK, list)
}

func (s *Server) getMedia(c *gin.Context) {
	id, ok := validID(c)
	if !ok {
		return
	}
	m, err := s.opts.Data.MediaByID(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (s *Server) downloadMedia(c *gin.Context) {
	id, ok := validID(c)
	if !ok {
		return
	}
	m, err := s.opts.Data.MediaByID(id)
	if err != nil {
		respondError(c, err)
		return
	}

	key := m.FileKey
	if key == "" {
		key, _ = storage.KeyFromURL(s.opts.Store, m.URL)
	}
	body, err := s.opts.Store.Open(c.Request.Context(), key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
			return
		}
		respondError(c, err)
		return
	}
	defer body.Close()

	contentType := m.ContentType
	if contentType == "" {
		contentType = "audio/mpeg"
	}
	size := m.FileSize
	if size <= 0 {
		size = -1
	}
	c.DataFromReader(http.StatusOK, size, contentType, body, map[string]string{
		"Content-Disposition": `attachment; filename="` + downloadName(m) + `"`,
	})
}

// downloadName строит имя файла для скачивания из названия
func downloadName(m data.Media) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '"', '\\', '/', '\r', '\n':
			return '_'
		}
		return r
	}, strings.TrimSpace(m.Title))
	if name == "" {
		name = m.ID
	}
	ext := filepath.Ext(m.FileKey)
	if ext == "" {
		ext = ".mp3"
	}
	return name + ext
}

func (s *Server) createMedia(c *gin.Context) {
	form, closeFiles, err := mediaForm(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid multipart form"})
		return
	}
	defer closeFiles()

	m, err := s.opts.Uploads.CreateMedia(c.Request.Context(), form)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

func (s *Server) updateMedia(c *gin.Context) {
	id, ok := validID(c)
	if !ok {
		return
	}
	form, closeFiles, err := mediaForm(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid multipart form"})
		return
	}
	defer closeFiles()

	m, err := s.opts.Uploads.UpdateMedia(c.Request.Context(), id, form)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (s *Server) deleteMedia(c *gin.Context) {
	id, ok := validID(c)
	if !ok {
		return
	}
	if err := s.opts.Uploads.DeleteMedia(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "media deleted"})
}

func (s *Server) listNews(c *gin.Context) {
	list := catalog.SearchNews(s.opts.Data.ListNews(), c.Query("search"))
	c.JSON(http.StatusOK, gin.H{"data": list})
}

func (s *Server) getNews(c *gin.Context) {
	id, ok := validID(c)
	if !ok {
		return
	}
	n, err := s.opts.Data.NewsByID(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, n)
}

func (s *Server) createNews(c *gin.Context) {
	form, closeFiles, err := newsForm(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid multipart form"})
		return
	}
	defer closeFiles()

	n, err := s.opts.Uploads.CreateNews(c.Request.Context(), form)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, n)
}

func (s *Server) updateNews(c *gin.Context) {
	id, ok := validID(c)
	if !ok {
		return
	}
	form, closeFiles, err := newsForm(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid multipart form"})
		return
	}
	defer closeFiles()

	n, err := s.opts.Uploads.UpdateNews(c.Request.Context(), id, form)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, n)
}

func (s *Server) deleteNews(c *gin.Context) {
	id, ok := validID(c)
	if !ok {
		return
	}
	if err := s.opts.Uploads.DeleteNews(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "news deleted"})
}

func (s *Server) listAdmins(c *gin.Context) {
	admins := s.opts.Data.ListAdmins()
	out := make([]userResponse, 0, len(admins))
	for _, a := range admins {
		out = append(out, toUser(a))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) createAdmin(c *gin.Context) {
	var req createAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}
	if strings.TrimSpace(req.Username) == "" {
		respondError(c, data.ErrEmptyUsername)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	admin, err := s.opts.Data.AddAdmin(data.Admin{
		FullName:     strings.TrimSpace(req.FullName),
		Username:     req.Username,
		PasswordHash: hash,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	logger.Info(logger.EventAdminActivity, "Admin created", logger.Fields(
		"admin_id", admin.ID,
		"by", c.GetString(ctxUserID),
	))
	c.JSON(http.StatusCreated, toUser(admin))
}

func (s *Server) deleteAdmin(c *gin.Context) {
	id, ok := validID(c)
	if !ok {
		return
	}
	if err := s.opts.Data.DeleteAdminByID(id); err != nil {
		respondError(c, err)
		return
	}

	logger.Info(logger.EventAdminActivity, "Admin deleted", logger.Fields(
		"admin_id", id,
		"by", c.GetString(ctxUserID),
	))
	c.JSON(http.StatusOK, gin.H{"message": "admin deleted"})
}

// formFile открывает необязательный файл формы
func formFile(c *gin.Context, field string, opened *[]multipart.File) (*uploader.Upload, error) {
	header, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, err
	}
	file, err := header.Open()
	if err != nil {
		return nil, err
	}
	*opened = append(*opened, file)
	return &uploader.Upload{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	}, nil
}

func closeAll(files []multipart.File) func() {
	return func() {
		for _, f := range files {
			f.Close()
		}
	}
}

func mediaForm(c *gin.Context) (uploader.MediaForm, func(), error) {
	var opened []multipart.File
	if err := c.Request.ParseMultipartForm(maxUploadMemory); err != nil {
		return uploader.MediaForm{}, func() {}, err
	}

	file, err := formFile(c, "file", &opened)
	if err != nil {
		closeAll(opened)()
		return uploader.MediaForm{}, func() {}, err
	}
	thumbnail, err := formFile(c, "thumbnail", &opened)
	if err != nil {
		closeAll(opened)()
		return uploader.MediaForm{}, func() {}, err
	}

	return uploader.MediaForm{
		Title:     c.PostForm("title"),
		Artist:    c.PostForm("artist"),
		Category:  c.PostForm("category"),
		File:      file,
		Thumbnail: thumbnail,
	}, closeAll(opened), nil
}

func newsForm(c *gin.Context) (uploader.NewsForm, func(), error) {
	var opened []multipart.File
	if err := c.Request.ParseMultipartForm(maxUploadMemory); err != nil {
		return uploader.NewsForm{}, func() {}, err
	}

	image, err := formFile(c, "image", &opened)
	if err != nil {
		closeAll(opened)()
		return uploader.NewsForm{}, func() {}, err
	}

	return uploader.NewsForm{
		Title:    c.PostForm("title"),
		Content:  c.PostForm("content"),
		Category: c.PostForm("category"),
		VideoURL: c.PostForm("videoUrl"),
		Image:    image,
	}, closeAll(opened), nil
}
