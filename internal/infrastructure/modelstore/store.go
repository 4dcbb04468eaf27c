package modelstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"colorify/internal/domain/port"
)

const (
	// DefaultURLTemplate готовый ONNX-экспорт DDColor.
	// В репозитории ModelScope лежат только веса PyTorch, ONNX туда не выкладывают.
	DefaultURLTemplate = "https://github.com/facefusion/facefusion-assets/releases/download/models-3.0.0/{file}"

	// URLTemplateEnv переменная окружения с шаблоном адреса
	URLTemplateEnv = "COLORIFY_MODEL_URL_TEMPLATE"
)

// Options где искать и откуда качать модель
type Options struct {
	CacheDir    string        // корень кэша, модель лежит в <CacheDir>/models/<ModelID>
	ModelID     string        // например iic/cv_ddcolor_image-colorization
	Files       []string      // обязательные файлы модели
	URLTemplate string        // шаблон с {model} и {file}
	Timeout     time.Duration // таймаут одного файла
	RetryCount  int           // повторы HTTP-запроса внутри resty
}

// Store находит модель в локальном кэше или скачивает её туда
type Store struct {
	opts   Options
	client *resty.Client
	log    logrus.FieldLogger
}

// New создаёт хранилище модели
func New(opts Options, log logrus.FieldLogger) *Store {
	if opts.URLTemplate == "" {
		opts.URLTemplate = DefaultURLTemplate
	}

	client := resty.New().
		SetTimeout(opts.Timeout).
		SetRetryCount(opts.RetryCount).
		SetHeader("User-Agent", "colorify")

	return &Store{
		opts:   opts,
		client: client,
		log:    log.WithField("component", "modelstore"),
	}
}

// LocalDir директория модели внутри кэша
func (s *Store) LocalDir() string {
	return filepath.Join(s.opts.CacheDir, "models", filepath.FromSlash(s.opts.ModelID))
}

// Resolve возвращает директорию модели, скачивая недостающие файлы.
func (s *Store) Resolve(ctx context.Context) (string, error) {
	dir := s.LocalDir()

	missing := s.missingFiles(dir)
	if len(missing) == 0 {
		s.log.WithField("dir", dir).Info("found local model")
		return dir, nil
	}

	s.log.WithFields(logrus.Fields{"dir": dir, "missing": missing}).Info("local model not found, fetching")

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create model dir: %w", err)
	}

	for _, file := range missing {
		if err := s.fetch(ctx, dir, file); err != nil {
			return "", fmt.Errorf("%w (put %s into %s or point %s at an ONNX export)", err, file, dir, URLTemplateEnv)
		}
	}
	return dir, nil
}

func (s *Store) missingFiles(dir string) []string {
	var missing []string
	for _, file := range s.opts.Files {
		info, err := os.Stat(filepath.Join(dir, file))
		if err != nil || info.IsDir() || info.Size() == 0 {
			missing = append(missing, file)
		}
	}
	return missing
}

// fetch качает файл во временный и переименовывает, чтобы в кэше не оставалось обрывков.
func (s *Store) fetch(ctx context.Context, dir, file string) error {
	url := s.fileURL(file)
	dst := filepath.Join(dir, file)
	tmp := dst + ".part"

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create dir for %s: %w", file, err)
	}

	started := time.Now()
	resp, err := s.client.R().
		SetContext(ctx).
		SetOutput(tmp).
		Get(url)
	if err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("download %s: %w", file, err)
	}
	if resp.IsError() {
		_ = os.Remove(tmp)
		return fmt.Errorf("download %s: unexpected status %s", file, resp.Status())
	}

	info, err := os.Stat(tmp)
	if err != nil {
		return fmt.Errorf("stat %s: %w", file, err)
	}
	if info.Size() == 0 {
		_ = os.Remove(tmp)
		return errors.New("download " + file + ": empty body")
	}

	if err := os.Rename(tmp, dst); err != nil {
		return fmt.Errorf("install %s: %w", file, err)
	}

	s.log.WithFields(logrus.Fields{
		"file":  file,
		"bytes": info.Size(),
		"took":  time.Since(started).Round(time.Millisecond),
	}).Info("model file downloaded")
	return nil
}

func (s *Store) fileURL(file string) string {
	return strings.NewReplacer("{model}", s.opts.ModelID, "{file}", file).Replace(s.opts.URLTemplate)
}

var _ port.ModelSource = (*Store)(nil)
