package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/sirupsen/logrus"

	"colorify/internal/domain/entity"
	"colorify/internal/domain/port"
)

// OutputFileName имя файла результата внутри свежей временной директории
const OutputFileName = "colorify_image.png"

// PipelineProvider отдаёт готовый пайплайн без ожидания
type PipelineProvider interface {
	Pipeline() (port.Colorizer, entity.ReadinessState)
	Err() error
}

// ColorizeService превращает путь к картинке в путь к раскрашенному PNG
type ColorizeService struct {
	models   PipelineProvider
	codec    port.ImageCodec
	observer port.Observer
	tempRoot string
	log      logrus.FieldLogger
}

// NewColorizeService создаёт сервис. Пустой tempRoot — системная временная директория.
func NewColorizeService(models PipelineProvider, codec port.ImageCodec, observer port.Observer, tempRoot string, log logrus.FieldLogger) *ColorizeService {
	return &ColorizeService{
		models:   models,
		codec:    codec,
		observer: observer,
		tempRoot: tempRoot,
		log:      log.WithField("component", "colorize"),
	}
}

// Ready сообщает, можно ли сейчас звать Colorize с пользой
func (s *ColorizeService) Ready() bool {
	return s.State() == entity.StateReady
}

// State состояние модели за сервисом
func (s *ColorizeService) State() entity.ReadinessState {
	_, state := s.models.Pipeline()
	return state
}

// Colorize раскрашивает файл по пути path.
// Возвращает путь к результату или *entity.ColorizeError; Message заполнен всегда.
// Не ждёт загрузки модели и не паникует.
func (s *ColorizeService) Colorize(ctx context.Context, path string) (entity.ColorizeResult, error) {
	started := time.Now()
	out, err := s.colorize(ctx, path)
	s.observer.InferenceFinished(time.Since(started), err)

	if err != nil {
		msg := err.Error()
		var cerr *entity.ColorizeError
		if errors.As(err, &cerr) {
			msg = cerr.Message()
		}
		return entity.ColorizeResult{Message: msg}, err
	}
	return entity.ColorizeResult{Path: out, Message: entity.MsgSuccess}, nil
}

func (s *ColorizeService) colorize(ctx context.Context, path string) (out string, err error) {
	pipe, state := s.models.Pipeline()
	switch state {
	case entity.StateReady:
	case entity.StateFailed:
		return "", &entity.ColorizeError{Kind: entity.KindLoadFailed, Err: s.models.Err()}
	default:
		return "", &entity.ColorizeError{Kind: entity.KindNotReady, Err: fmt.Errorf("model is %s", state)}
	}

	defer func() {
		if r := recover(); r != nil {
			out = ""
			err = inferenceFailed(fmt.Errorf("panic: %v", r))
		}
	}()

	frame, err := s.codec.Decode(path)
	if err != nil {
		return "", &entity.ColorizeError{Kind: entity.KindDecodeFailed, Err: err}
	}

	output, err := pipe.Colorize(ctx, frame)
	if err != nil {
		return "", inferenceFailed(err)
	}

	img := output[entity.OutputImageKey]
	if img == nil {
		return "", inferenceFailed(entity.ErrNoOutputImage)
	}

	result, err := img.ToFrame()
	if err != nil {
		return "", inferenceFailed(err)
	}

	dir, err := os.MkdirTemp(s.tempRoot, "colorify-")
	if err != nil {
		return "", inferenceFailed(fmt.Errorf("create temp dir: %w", err))
	}

	out = filepath.Join(dir, OutputFileName)
	if err := s.codec.EncodePNG(out, result); err != nil {
		_ = os.RemoveAll(dir)
		return "", inferenceFailed(fmt.Errorf("write result: %w", err))
	}

	s.log.WithFields(logrus.Fields{
		"input":  path,
		"output": out,
		"size":   fmt.Sprintf("%dx%d", result.Width, result.Height),
	}).Debug("image colorized")
	return out, nil
}

func inferenceFailed(err error) *entity.ColorizeError {
	return &entity.ColorizeError{
		Kind:  entity.KindInferenceFailed,
		Err:   err,
		Trace: string(debug.Stack()),
	}
}
