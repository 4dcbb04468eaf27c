package container

import (
	"github.com/sirupsen/logrus"

	"colorify/config"
	app "colorify/internal/application"
	"colorify/internal/domain/port"
	"colorify/internal/infrastructure/modelstore"
	"colorify/internal/infrastructure/onnx"
	"colorify/internal/infrastructure/storage"
	"colorify/internal/infrastructure/vision"
)

type Container struct {
	Models   *app.ModelService
	Colorize *app.ColorizeService
	Users    *app.UserService
	Results  port.ResultRepository
}

// New собирает сервисы приложения поверх инфраструктуры
func New(cfg *config.Config, observer port.Observer, log logrus.FieldLogger) *Container {
	store := modelstore.New(modelstore.Options{
		CacheDir:    cfg.Model.CacheDir,
		ModelID:     cfg.Model.ID,
		Files:       []string{cfg.Model.File},
		URLTemplate: cfg.Model.URLTemplate,
		Timeout:     cfg.Model.Timeout,
		RetryCount:  cfg.Model.RetryCount,
	}, log)

	builder := onnx.NewBuilder(onnx.Options{
		Task:        cfg.Model.Task,
		ModelFile:   cfg.Model.File,
		InputName:   cfg.Model.InputName,
		OutputName:  cfg.Model.OutputName,
		InputSize:   cfg.Model.InputSize,
		LibraryPath: cfg.Model.LibraryPath,
	}, log)

	models := app.NewModelService(store, builder, observer, log)
	colorize := app.NewColorizeService(models, vision.NewCodec(), observer, cfg.TempDir, log)

	return &Container{
		Models:   models,
		Colorize: colorize,
		Users:    app.NewUserService(storage.NewMemoryUserRepository()),
		Results:  storage.NewMemoryResultRepository(),
	}
}
