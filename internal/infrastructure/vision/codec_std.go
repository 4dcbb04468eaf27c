//go:build !gocv
// +build !gocv

package vision

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"colorify/internal/domain/entity"
	"colorify/internal/domain/port"
)

// Codec читает и пишет изображения без OpenCV (сборка без тега gocv)
type Codec struct{}

// NewCodec создаёт кодек на пакетах image/*.
func NewCodec() *Codec {
	return &Codec{}
}

// Name возвращает имя реализации для логов
func (c *Codec) Name() string {
	return "std"
}

// Decode читает файл в RGB. Альфа-канал отбрасывается, как при IMReadColor.
func (c *Codec) Decode(path string) (*entity.Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %q: %w", path, err)
	}

	return entity.FrameFromImage(img), nil
}

// EncodePNG пишет кадр в PNG.
func (c *Codec) EncodePNG(path string, frame *entity.Frame) error {
	if frame == nil || frame.Width == 0 || frame.Height == 0 {
		return errors.New("empty frame")
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create image: %w", err)
	}

	if err := png.Encode(f, frame.NRGBA()); err != nil {
		f.Close()
		return fmt.Errorf("encode png: %w", err)
	}
	return f.Close()
}

var _ port.ImageCodec = (*Codec)(nil)
