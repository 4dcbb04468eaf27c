package entity

import (
	"image"
	"image/color"
	"math"
)

// OutputImageKey ключ основного изображения в ответе пайплайна
const OutputImageKey = "output_img"

// Frame хранит 8-битное изображение в порядке каналов RGB
type Frame struct {
	Width  int     // ширина в пикселях
	Height int     // высота в пикселях
	Pix    []uint8 // пиксели построчно, по 3 байта на пиксель
}

// NewFrame создаёт пустой кадр заданного размера
func NewFrame(width, height int) *Frame {
	return &Frame{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height*3),
	}
}

// At возвращает компоненты пикселя (x, y)
func (f *Frame) At(x, y int) (r, g, b uint8) {
	i := (y*f.Width + x) * 3
	return f.Pix[i], f.Pix[i+1], f.Pix[i+2]
}

// Set записывает компоненты пикселя (x, y)
func (f *Frame) Set(x, y int, r, g, b uint8) {
	i := (y*f.Width + x) * 3
	f.Pix[i], f.Pix[i+1], f.Pix[i+2] = r, g, b
}

// FrameFromImage копирует image.Image в RGB-кадр. Альфа отбрасывается.
func FrameFromImage(img image.Image) *Frame {
	b := img.Bounds()
	frame := NewFrame(b.Dx(), b.Dy())
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			c := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			frame.Set(x, y, c.R, c.G, c.B)
		}
	}
	return frame
}

// NRGBA оборачивает кадр в непрозрачный image.NRGBA
func (f *Frame) NRGBA() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, f.Width, f.Height))
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			r, g, b := f.At(x, y)
			i := img.PixOffset(x, y)
			img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = r, g, b, 255
		}
	}
	return img
}

// OutputImage — сырой результат модели: float32, HWC, RGB, диапазон [0, 255].
type OutputImage struct {
	Width    int
	Height   int
	Channels int
	Data     []float32
}

// PipelineOutput — именованные массивы, которые вернул пайплайн.
type PipelineOutput map[string]*OutputImage

// ToFrame приводит результат к 8 битам на канал.
// Значения вне [0, 255] обрезаются, дробная часть отбрасывается.
func (o *OutputImage) ToFrame() (*Frame, error) {
	if o.Channels != 3 {
		return nil, ErrUnsupportedChannels
	}
	if len(o.Data) != o.Width*o.Height*o.Channels {
		return nil, ErrOutputShape
	}

	frame := NewFrame(o.Width, o.Height)
	for i, v := range o.Data {
		frame.Pix[i] = toUint8(v)
	}
	return frame, nil
}

func toUint8(v float32) uint8 {
	switch {
	case math.IsNaN(float64(v)) || v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(v)
	}
}
