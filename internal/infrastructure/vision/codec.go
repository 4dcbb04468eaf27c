//go:build gocv
// +build gocv

package vision

import (
	"errors"
	"fmt"

	"gocv.io/x/gocv"

	"colorify/internal/domain/entity"
	"colorify/internal/domain/port"
)

// Codec читает и пишет изображения через OpenCV
type Codec struct{}

// NewCodec создаёт кодек на OpenCV.
func NewCodec() *Codec {
	return &Codec{}
}

// Name возвращает имя реализации для логов
func (c *Codec) Name() string {
	return "gocv"
}

// Decode читает файл и переставляет каналы BGR → RGB.
func (c *Codec) Decode(path string) (*entity.Frame, error) {
	mat := gocv.IMRead(path, gocv.IMReadColor)
	if mat.Empty() {
		mat.Close()
		return nil, fmt.Errorf("failed to decode image %q", path)
	}
	defer mat.Close()

	// OpenCV отдаёт BGR, пайплайн ждёт RGB.
	rgb := gocv.NewMat()
	defer rgb.Close()
	gocv.CvtColor(mat, &rgb, gocv.ColorBGRToRGB)

	return &entity.Frame{
		Width:  rgb.Cols(),
		Height: rgb.Rows(),
		Pix:    rgb.ToBytes(),
	}, nil
}

// EncodePNG переставляет каналы обратно в BGR и пишет PNG.
func (c *Codec) EncodePNG(path string, frame *entity.Frame) error {
	if frame == nil || frame.Width == 0 || frame.Height == 0 {
		return errors.New("empty frame")
	}

	rgb, err := gocv.NewMatFromBytes(frame.Height, frame.Width, gocv.MatTypeCV8UC3, frame.Pix)
	if err != nil {
		return fmt.Errorf("wrap frame: %w", err)
	}
	defer rgb.Close()

	bgr := gocv.NewMat()
	defer bgr.Close()
	gocv.CvtColor(rgb, &bgr, gocv.ColorRGBToBGR)

	if !gocv.IMWrite(path, bgr) {
		return fmt.Errorf("failed to write image %q", path)
	}
	return nil
}

var _ port.ImageCodec = (*Codec)(nil)
