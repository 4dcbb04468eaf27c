package app

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"colorify/internal/domain/entity"
	"colorify/internal/domain/port"
)

// ModelInfo снимок состояния модели для /health и логов
type ModelInfo struct {
	State    entity.ReadinessState
	Error    string
	LoadTook time.Duration
}

// ModelService загружает пайплайн один раз в фоне и публикует его.
// Состояние меняется только not_started → loading → ready | failed.
type ModelService struct {
	source   port.ModelSource
	builder  port.PipelineBuilder
	observer port.Observer
	log      logrus.FieldLogger

	state atomic.Int32
	done  chan struct{}

	// Пишутся загрузчиком до смены state, читаются после атомарного чтения state.
	pipeline port.Colorizer
	loadErr  error
	loadTook time.Duration
}

// NewModelService создаёт сервис модели; загрузка стартует в Start
func NewModelService(source port.ModelSource, builder port.PipelineBuilder, observer port.Observer, log logrus.FieldLogger) *ModelService {
	return &ModelService{
		source:   source,
		builder:  builder,
		observer: observer,
		log:      log.WithField("component", "model"),
		done:     make(chan struct{}),
	}
}

// Start запускает загрузку в отдельной горутине. Повторные вызовы ничего не делают.
func (s *ModelService) Start(ctx context.Context) bool {
	if !s.transition(entity.StateNotStarted, entity.StateLoading) {
		return false
	}
	go s.load(ctx)
	return true
}

func (s *ModelService) load(ctx context.Context) {
	defer close(s.done)

	s.log.Info("loading model from cache or downloading")
	started := time.Now()

	pipe, err := s.loadPipeline(ctx)
	s.loadTook = time.Since(started)

	if err != nil {
		s.loadErr = err
		s.transition(entity.StateLoading, entity.StateFailed)

		entry := s.log.WithError(err).WithField("took", s.loadTook)
		var cerr *entity.ColorizeError
		if errors.As(err, &cerr) && cerr.Trace != "" {
			entry = entry.WithField("trace", cerr.Trace)
		}
		entry.Error("model load failed")
	} else {
		s.pipeline = pipe
		s.transition(entity.StateLoading, entity.StateReady)
		s.log.WithField("took", s.loadTook).Info("model loaded successfully")
	}

	s.observer.ModelLoadFinished(s.loadTook, err)
}

// loadPipeline находит модель и строит пайплайн; паника тоже считается провалом
func (s *ModelService) loadPipeline(ctx context.Context) (pipe port.Colorizer, err error) {
	defer func() {
		if r := recover(); r != nil {
			pipe = nil
			err = &entity.ColorizeError{
				Kind:  entity.KindLoadFailed,
				Err:   fmt.Errorf("panic: %v", r),
				Trace: string(debug.Stack()),
			}
		}
	}()

	dir, err := s.source.Resolve(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve model: %w", err)
	}

	pipe, err = s.builder.Build(dir)
	if err != nil {
		return nil, fmt.Errorf("build pipeline from %s: %w", dir, err)
	}
	if pipe == nil {
		return nil, errors.New("builder returned no pipeline")
	}
	return pipe, nil
}

func (s *ModelService) transition(from, to entity.ReadinessState) bool {
	if !from.CanTransition(to) {
		return false
	}
	if !s.state.CompareAndSwap(int32(from), int32(to)) {
		return false
	}
	s.observer.ModelStateChanged(to)
	return true
}

// State текущее состояние без блокировки
func (s *ModelService) State() entity.ReadinessState {
	return entity.ReadinessState(s.state.Load())
}

// Pipeline возвращает пайплайн, если он готов, и состояние
func (s *ModelService) Pipeline() (port.Colorizer, entity.ReadinessState) {
	state := s.State()
	if state != entity.StateReady {
		return nil, state
	}
	return s.pipeline, state
}

// Err ошибка загрузки; nil, пока модель не в состоянии failed
func (s *ModelService) Err() error {
	if s.State() != entity.StateFailed {
		return nil
	}
	return s.loadErr
}

// Done закрывается, когда загрузка завершилась (успехом или провалом)
func (s *ModelService) Done() <-chan struct{} {
	return s.done
}

// Wait ждёт конца загрузки. Для мониторинга и тестов, обработчики запросов не ждут.
func (s *ModelService) Wait(ctx context.Context) error {
	select {
	case <-s.done:
		return s.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Info снимок состояния
func (s *ModelService) Info() ModelInfo {
	info := ModelInfo{State: s.State()}
	if info.State.Terminal() {
		info.LoadTook = s.loadTook
	}
	if err := s.Err(); err != nil {
		info.Error = err.Error()
	}
	return info
}

// Close освобождает пайплайн при остановке процесса
func (s *ModelService) Close() error {
	pipe, _ := s.Pipeline()
	if pipe == nil {
		return nil
	}
	return pipe.Close()
}
