package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"colorify/internal/infrastructure/modelstore"
	"colorify/internal/infrastructure/onnx"
)

const (
	// CacheEnv переменная, через которую задаётся и публикуется кэш моделей
	CacheEnv = "COLORIFY_MODEL_CACHE"

	DefaultTask    = onnx.TaskImageColorization
	DefaultModelID = "iic/cv_ddcolor_image-colorization"
)

type ModelConfig struct {
	Task        string        `yaml:"task"`
	ID          string        `yaml:"id"`
	CacheDir    string        `yaml:"cache_dir"`
	File        string        `yaml:"file"`
	URLTemplate string        `yaml:"url_template"`
	InputSize   int           `yaml:"input_size"`
	InputName   string        `yaml:"input_name"`
	OutputName  string        `yaml:"output_name"`
	LibraryPath string        `yaml:"library_path"`
	Timeout     time.Duration `yaml:"timeout"`
	RetryCount  int           `yaml:"retry_count"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

type Config struct {
	Addr          string      `yaml:"addr"`
	TempDir       string      `yaml:"temp_dir"`
	MaxUploadMB   int64       `yaml:"max_upload_mb"`
	Model         ModelConfig `yaml:"model"`
	Log           LogConfig   `yaml:"log"`
	SentryDSN     string      `yaml:"sentry_dsn"`
	Environment   string      `yaml:"environment"`
	TelegramToken string      `yaml:"-"`
}

// Default значения по умолчанию; кэш моделей — ./models рядом с рабочей директорией
func Default() *Config {
	cacheDir := "models"
	if wd, err := os.Getwd(); err == nil {
		cacheDir = filepath.Join(wd, "models")
	}

	return &Config{
		Addr:        ":7860",
		MaxUploadMB: 20,
		Model: ModelConfig{
			Task:      DefaultTask,
			ID:        DefaultModelID,
			CacheDir:  cacheDir,
			File:      "ddcolor.onnx",
			InputSize: 512,
			Timeout:   10 * time.Minute,
		},
		Log: LogConfig{
			Level: "info",
		},
		Environment: "development",
	}
}

// Load собирает конфиг: .env, затем YAML из COLORIFY_CONFIG, затем переменные окружения.
func Load() (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	cfg := Default()

	if path := os.Getenv("COLORIFY_CONFIG"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.loadEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) loadEnv() error {
	setString(&c.Addr, "COLORIFY_ADDR")
	setString(&c.TempDir, "COLORIFY_TEMP_DIR")
	setString(&c.Model.CacheDir, CacheEnv)
	setString(&c.Model.ID, "COLORIFY_MODEL_ID")
	setString(&c.Model.File, "COLORIFY_MODEL_FILE")
	setString(&c.Model.URLTemplate, modelstore.URLTemplateEnv)
	setString(&c.Model.LibraryPath, "ONNXRUNTIME_SHARED_LIBRARY_PATH")
	setString(&c.Log.Level, "COLORIFY_LOG_LEVEL")
	setString(&c.SentryDSN, "SENTRY_DSN")
	setString(&c.Environment, "COLORIFY_ENV")
	setString(&c.TelegramToken, "TELEGRAM_TOKEN")

	if v := os.Getenv("COLORIFY_LOG_JSON"); v != "" {
		c.Log.JSON = v == "true"
	}
	if v := os.Getenv("COLORIFY_INPUT_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("COLORIFY_INPUT_SIZE: %w", err)
		}
		c.Model.InputSize = n
	}
	if v := os.Getenv("COLORIFY_MAX_UPLOAD_MB"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("COLORIFY_MAX_UPLOAD_MB: %w", err)
		}
		c.MaxUploadMB = n
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// Validate проверяет обязательные поля
func (c *Config) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("addr is required"))
	}
	if c.Model.ID == "" {
		errs = append(errs, errors.New("model id is required"))
	}
	if c.Model.CacheDir == "" {
		errs = append(errs, errors.New("model cache dir is required"))
	}
	if c.Model.File == "" {
		errs = append(errs, errors.New("model file is required"))
	}
	if c.Model.InputSize <= 0 || c.Model.InputSize%32 != 0 {
		errs = append(errs, fmt.Errorf("model input size must be a positive multiple of 32, got %d", c.Model.InputSize))
	}
	if c.MaxUploadMB <= 0 {
		errs = append(errs, errors.New("max upload size must be positive"))
	}
	return errors.Join(errs...)
}

// PrepareCache создаёт директорию кэша и публикует её в окружение процесса
func (c *Config) PrepareCache() error {
	abs, err := filepath.Abs(c.Model.CacheDir)
	if err != nil {
		return fmt.Errorf("resolve cache dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	c.Model.CacheDir = abs
	return os.Setenv(CacheEnv, abs)
}
