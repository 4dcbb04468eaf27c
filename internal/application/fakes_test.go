package app

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"colorify/internal/domain/entity"
	"colorify/internal/domain/port"
	"colorify/internal/infrastructure/observability"
)

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// fakeColorizer подкрашивает серый кадр в тёплые тона и считает вызовы.
type fakeColorizer struct {
	calls  atomic.Int32
	err    error
	panics bool
	output entity.PipelineOutput
	closed atomic.Bool
}

func (f *fakeColorizer) Colorize(ctx context.Context, frame *entity.Frame) (entity.PipelineOutput, error) {
	f.calls.Add(1)
	if f.panics {
		panic("tensor shape mismatch")
	}
	if f.err != nil {
		return nil, f.err
	}
	if f.output != nil {
		return f.output, nil
	}

	out := &entity.OutputImage{Width: frame.Width, Height: frame.Height, Channels: 3, Data: make([]float32, len(frame.Pix))}
	for i := 0; i < len(frame.Pix); i += 3 {
		out.Data[i] = float32(frame.Pix[i]) * 1.2
		out.Data[i+1] = float32(frame.Pix[i+1])
		out.Data[i+2] = float32(frame.Pix[i+2]) * 0.6
	}
	return entity.PipelineOutput{entity.OutputImageKey: out}, nil
}

func (f *fakeColorizer) Close() error {
	f.closed.Store(true)
	return nil
}

type fakeSource struct {
	dir  string
	err  error
	gate chan struct{}
}

func (f *fakeSource) Resolve(ctx context.Context) (string, error) {
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.dir, f.err
}

type fakeBuilder struct {
	pipe   port.Colorizer
	err    error
	panics bool
	gotDir string
}

func (f *fakeBuilder) Build(modelDir string) (port.Colorizer, error) {
	f.gotDir = modelDir
	if f.panics {
		panic("corrupt weights")
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.pipe, nil
}

// readyModels возвращает загруженный сервис модели с fakeColorizer.
func readyModels(t *testing.T, pipe *fakeColorizer) *ModelService {
	t.Helper()
	models := NewModelService(&fakeSource{dir: "/models/iic"}, &fakeBuilder{pipe: pipe}, observability.Nop{}, quietLogger())
	require.True(t, models.Start(context.Background()))
	require.NoError(t, models.Wait(context.Background()))
	return models
}

func writeGrayPNG(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8((x * y) % 256)})
		}
	}
	path := filepath.Join(t.TempDir(), "gray.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
	return path
}

// recordingObserver запоминает события для проверок.
type recordingObserver struct {
	mu         sync.Mutex
	states     []entity.ReadinessState
	loadErrs   []error
	inferences []error
}

func (r *recordingObserver) ModelStateChanged(state entity.ReadinessState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, state)
}

func (r *recordingObserver) ModelLoadFinished(took time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loadErrs = append(r.loadErrs, err)
}

func (r *recordingObserver) InferenceFinished(took time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inferences = append(r.inferences, err)
}

var errBoom = errors.New("boom")

// failingEncoder декодирует как обычный кодек, но не может записать результат.
type failingEncoder struct {
	port.ImageCodec
}

func (failingEncoder) EncodePNG(path string, frame *entity.Frame) error {
	return errBoom
}
