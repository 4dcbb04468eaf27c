package onnx

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	ort "github.com/yalue/onnxruntime_go"
	"golang.org/x/image/draw"

	"colorify/internal/domain/entity"
	"colorify/internal/domain/port"
)

// TaskImageColorization единственная задача, которую умеет пайплайн
const TaskImageColorization = "image-colorization"

// ErrUnsupportedTask задача модели не колоризация
var ErrUnsupportedTask = errors.New("unsupported model task")

const (
	DefaultModelFile  = "ddcolor.onnx"
	DefaultInputName  = "input"
	DefaultOutputName = "output"
	DefaultInputSize  = 512
)

// Options параметры сборки DDColor-пайплайна
type Options struct {
	Task        string // пусто — image-colorization
	ModelFile   string // имя файла модели в директории
	InputName   string
	OutputName  string
	InputSize   int    // сторона квадратного входа модели
	LibraryPath string // путь к libonnxruntime, пусто — искать самим
}

func (o Options) withDefaults() Options {
	if o.Task == "" {
		o.Task = TaskImageColorization
	}
	if o.ModelFile == "" {
		o.ModelFile = DefaultModelFile
	}
	if o.InputName == "" {
		o.InputName = DefaultInputName
	}
	if o.OutputName == "" {
		o.OutputName = DefaultOutputName
	}
	if o.InputSize <= 0 {
		o.InputSize = DefaultInputSize
	}
	return o
}

// Builder собирает пайплайн из директории модели
type Builder struct {
	opts Options
	log  logrus.FieldLogger
}

// NewBuilder создаёт сборщик DDColor-пайплайна
func NewBuilder(opts Options, log logrus.FieldLogger) *Builder {
	return &Builder{opts: opts.withDefaults(), log: log.WithField("component", "onnx")}
}

// Build открывает сессию ONNX Runtime для <modelDir>/<ModelFile>.
func (b *Builder) Build(modelDir string) (port.Colorizer, error) {
	if b.opts.Task != TaskImageColorization {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedTask, b.opts.Task)
	}

	modelPath := filepath.Join(modelDir, b.opts.ModelFile)
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("model file: %w", err)
	}

	if err := initRuntime(b.opts.LibraryPath); err != nil {
		return nil, err
	}

	// Динамическая сессия: тензоры на каждый вызов, Run можно звать конкурентно.
	session, err := ort.NewDynamicAdvancedSession(modelPath,
		[]string{b.opts.InputName},
		[]string{b.opts.OutputName},
		nil)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	b.log.WithField("model", modelPath).Info("onnx session created")

	return &Pipeline{
		session:   session,
		size:      b.opts.InputSize,
		modelPath: modelPath,
	}, nil
}

// Pipeline колоризация DDColor: модель предсказывает каналы ab по яркости L.
type Pipeline struct {
	session   *ort.DynamicAdvancedSession
	size      int
	modelPath string
}

// Colorize раскрашивает кадр. Вызов блокирующий, прервать его нельзя.
func (p *Pipeline) Colorize(ctx context.Context, frame *entity.Frame) (entity.PipelineOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if frame == nil || frame.Width == 0 || frame.Height == 0 {
		return nil, errors.New("empty frame")
	}

	input, lum := preprocess(frame, p.size)
	side := int64(p.size)

	inputTensor, err := ort.NewTensor(ort.NewShape(1, 3, side, side), input)
	if err != nil {
		return nil, fmt.Errorf("create input tensor: %w", err)
	}
	defer inputTensor.Destroy()

	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 2, side, side))
	if err != nil {
		return nil, fmt.Errorf("create output tensor: %w", err)
	}
	defer outputTensor.Destroy()

	if err := p.session.Run([]ort.Value{inputTensor}, []ort.Value{outputTensor}); err != nil {
		return nil, fmt.Errorf("run session: %w", err)
	}

	out := postprocess(lum, outputTensor.GetData(), frame.Width, frame.Height, p.size)
	return entity.PipelineOutput{entity.OutputImageKey: out}, nil
}

// Close уничтожает сессию
func (p *Pipeline) Close() error {
	if p.session == nil {
		return nil
	}
	err := p.session.Destroy()
	p.session = nil
	return err
}

var _ port.Colorizer = (*Pipeline)(nil)

// preprocess возвращает вход модели 1x3xSxS (серое изображение по L)
// и плоскость L исходного размера.
func preprocess(frame *entity.Frame, size int) (input []float32, lum []float32) {
	lum = make([]float32, frame.Width*frame.Height)
	for i := range lum {
		r, g, b := frame.Pix[i*3], frame.Pix[i*3+1], frame.Pix[i*3+2]
		l, _, _ := rgbToLab(float64(r)/255, float64(g)/255, float64(b)/255)
		lum[i] = float32(l)
	}

	scaled := scaleFrame(frame, size)
	plane := size * size
	input = make([]float32, 3*plane)
	for i := 0; i < plane; i++ {
		px := scaled.Pix[i*4 : i*4+3]
		l, _, _ := rgbToLab(float64(px[0])/255, float64(px[1])/255, float64(px[2])/255)
		gr, gg, gb := labToRGB(l, 0, 0)
		input[i] = float32(gr)
		input[plane+i] = float32(gg)
		input[2*plane+i] = float32(gb)
	}
	return input, lum
}

// postprocess собирает Lab из исходной L и предсказанных ab и переводит в RGB [0, 255].
func postprocess(lum, ab []float32, width, height, size int) *entity.OutputImage {
	plane := size * size
	a := resizePlane(ab[:plane], size, size, width, height)
	b := resizePlane(ab[plane:2*plane], size, size, width, height)

	out := &entity.OutputImage{
		Width:    width,
		Height:   height,
		Channels: 3,
		Data:     make([]float32, width*height*3),
	}
	for i := range lum {
		r, g, bl := labToRGB(float64(lum[i]), float64(a[i]), float64(b[i]))
		out.Data[i*3] = float32(r * 255)
		out.Data[i*3+1] = float32(g * 255)
		out.Data[i*3+2] = float32(bl * 255)
	}
	return out
}

// scaleFrame масштабирует кадр до size x size билинейной интерполяцией
func scaleFrame(frame *entity.Frame, size int) *image.RGBA {
	src := frame.NRGBA()
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}
