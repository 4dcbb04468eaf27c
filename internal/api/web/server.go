package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	app "colorify/internal/application"
	"colorify/internal/domain/entity"
	"colorify/internal/domain/port"
)

//go:embed templates/index.html
var templates embed.FS

const (
	title        = "Colorify"
	colorizePath = "/colorize"
	resultsPath  = "/results"
	uploadField  = "image"
)

// Colorizer сервис колоризации, которым пользуется страница
type Colorizer interface {
	Ready() bool
	Colorize(ctx context.Context, path string) (entity.ColorizeResult, error)
}

// ModelStatus источник состояния модели для /health
type ModelStatus interface {
	Info() app.ModelInfo
}

// Options зависимости HTTP-сервера
type Options struct {
	Colorizer   Colorizer
	Models      ModelStatus
	Results     port.ResultRepository
	Metrics     http.Handler // nil — без /metrics
	UploadDir   string       // куда сохранять загрузки, пусто — системный temp
	MaxUploadMB int64
	Log         logrus.FieldLogger
}

// Server страница Colorify и её обработчики
type Server struct {
	opts   Options
	engine *gin.Engine
	log    logrus.FieldLogger
}

// NewServer собирает gin-движок со всеми маршрутами
func NewServer(opts Options) (*Server, error) {
	if opts.MaxUploadMB <= 0 {
		opts.MaxUploadMB = 20
	}

	tmpl, err := template.ParseFS(templates, "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	s := &Server{
		opts: opts,
		log:  opts.Log.WithField("component", "web"),
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), s.requestLogger())
	engine.SetHTMLTemplate(tmpl)
	engine.MaxMultipartMemory = 8 << 20

	engine.GET("/", s.index)
	engine.POST(colorizePath, s.colorize)
	engine.GET(resultsPath+"/:id", s.result)
	engine.GET("/health", s.health)
	if opts.Metrics != nil {
		engine.GET("/metrics", gin.WrapH(opts.Metrics))
	}

	s.engine = engine
	return s, nil
}

// Handler отдаёт http.Handler для тестов и http.Server
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run слушает addr до отмены ctx, затем мягко останавливается
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("serving Colorify")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) index(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{
		"Title":        title,
		"ColorizePath": colorizePath,
	})
}

// colorize обработчик кнопки: без файла и до готовности модели ничего не меняет (204)
func (s *Server) colorize(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.opts.MaxUploadMB<<20)

	file, err := c.FormFile(uploadField)
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			c.AbortWithStatus(http.StatusRequestEntityTooLarge)
			return
		}
		c.Status(http.StatusNoContent)
		return
	}

	if !s.opts.Colorizer.Ready() {
		s.log.Info("Model is still loading... Please wait.")
		c.Status(http.StatusNoContent)
		return
	}

	input, err := s.saveUpload(c, file)
	if err != nil {
		s.log.WithError(err).Error("failed to store upload")
		c.JSON(http.StatusOK, gin.H{"image_url": nil})
		return
	}

	res, err := s.opts.Colorizer.Colorize(c.Request.Context(), input)
	outcome := "success"
	if err != nil {
		outcome = entity.KindOf(err).String()
	}
	s.log.WithFields(logrus.Fields{
		"request_id": requestID(c),
		"outcome":    outcome,
	}).Infof("Inference result: %s", res.Message)

	if err != nil {
		c.JSON(http.StatusOK, gin.H{"image_url": nil})
		return
	}

	rec, err := s.opts.Results.Add(c.Request.Context(), res.Path)
	if err != nil {
		s.log.WithError(err).Error("failed to register result")
		c.JSON(http.StatusOK, gin.H{"image_url": nil})
		return
	}

	c.JSON(http.StatusOK, gin.H{"image_url": resultsPath + "/" + rec.ID})
}

// saveUpload кладёт загрузку в свою временную директорию, сохраняя имя файла
func (s *Server) saveUpload(c *gin.Context, file *multipart.FileHeader) (string, error) {
	dir, err := os.MkdirTemp(s.opts.UploadDir, "colorify-upload-")
	if err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	base := filepath.Base(file.Filename)
	if base == "." || base == string(filepath.Separator) {
		base = "upload"
	}
	dst := filepath.Join(dir, base)

	if err := c.SaveUploadedFile(file, dst); err != nil {
		return "", fmt.Errorf("save upload: %w", err)
	}
	return dst, nil
}

func (s *Server) result(c *gin.Context) {
	rec, err := s.opts.Results.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, entity.ErrResultNotFound) {
			c.AbortWithStatus(http.StatusNotFound)
			return
		}
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	c.Header("Cache-Control", "private, max-age=3600")
	c.File(rec.Path)
}

func (s *Server) health(c *gin.Context) {
	info := s.opts.Models.Info()

	body := gin.H{
		"status":      "ok",
		"model_state": info.State.String(),
		"error":       nil,
	}
	if info.Error != "" {
		body["error"] = info.Error
	}
	if info.State.Terminal() {
		body["load_seconds"] = info.LoadTook.Seconds()
	}

	code := http.StatusOK
	if info.State != entity.StateReady {
		body["status"] = "unavailable"
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, body)
}

const requestIDKey = "request_id"

// requestLogger пишет строку лога на каждый запрос и проставляет X-Request-ID
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header("X-Request-ID", id)

		started := time.Now()
		c.Next()

		s.log.WithFields(logrus.Fields{
			"request_id": id,
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"took":       time.Since(started).Round(time.Millisecond),
		}).Debug("request")
	}
}

func requestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}
