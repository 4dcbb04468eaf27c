package onnx

import (
	"io"
	"math"
	"os"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"colorify/internal/domain/entity"
)

func TestLab_RoundTrip(t *testing.T) {
	colors := [][3]float64{{0, 0, 0}, {1, 1, 1}, {1, 0, 0}, {0.2, 0.6, 0.3}, {0.5, 0.5, 0.5}}
	for _, c := range colors {
		l, a, b := rgbToLab(c[0], c[1], c[2])
		r, g, bb := labToRGB(l, a, b)
		require.InDelta(t, c[0], r, 1e-3)
		require.InDelta(t, c[1], g, 1e-3)
		require.InDelta(t, c[2], bb, 1e-3)
	}
}

func TestLab_GrayHasNoChroma(t *testing.T) {
	l, a, b := rgbToLab(0.4, 0.4, 0.4)
	require.InDelta(t, 0, a, 1e-3)
	require.InDelta(t, 0, b, 1e-3)
	require.Greater(t, l, 0.0)

	white, _, _ := rgbToLab(1, 1, 1)
	require.InDelta(t, 100, white, 1e-2)
}

func TestResizePlane(t *testing.T) {
	src := []float32{0, 10, 20, 30}
	same := resizePlane(src, 2, 2, 2, 2)
	require.Equal(t, src, same)

	// Однородная плоскость остаётся однородной при любом масштабе.
	flat := resizePlane([]float32{5, 5, 5, 5}, 2, 2, 7, 3)
	for _, v := range flat {
		require.InDelta(t, 5, v, 1e-6)
	}

	up := resizePlane([]float32{0, 10}, 2, 1, 4, 1)
	require.Equal(t, float32(0), up[0])
	require.InDelta(t, 2.5, up[1], 1e-6)
	require.InDelta(t, 7.5, up[2], 1e-6)
	require.Equal(t, float32(10), up[3])
}

func TestPreprocessPostprocess_GrayWithZeroChroma(t *testing.T) {
	frame := entity.NewFrame(6, 4)
	for y := 0; y < 4; y++ {
		for x := 0; x < 6; x++ {
			v := uint8(40 * y)
			frame.Set(x, y, v, v, v)
		}
	}

	input, lum := preprocess(frame, 8)
	require.Len(t, input, 3*8*8)
	require.Len(t, lum, 6*4)
	for _, v := range input {
		require.False(t, math.IsNaN(float64(v)))
		require.GreaterOrEqual(t, v, float32(0))
		require.LessOrEqual(t, v, float32(1))
	}

	out := postprocess(lum, make([]float32, 2*8*8), 6, 4, 8)
	require.Equal(t, 6, out.Width)
	require.Equal(t, 4, out.Height)

	got, err := out.ToFrame()
	require.NoError(t, err)
	for i := range frame.Pix {
		require.InDelta(t, float64(frame.Pix[i]), float64(got.Pix[i]), 1.0)
	}
}

func TestOptionsDefaults(t *testing.T) {
	o := Options{}.withDefaults()
	require.Equal(t, DefaultModelFile, o.ModelFile)
	require.Equal(t, DefaultInputName, o.InputName)
	require.Equal(t, DefaultOutputName, o.OutputName)
	require.Equal(t, DefaultInputSize, o.InputSize)
	require.Equal(t, TaskImageColorization, o.Task)
}

func TestBuild_RejectsOtherTasks(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)

	_, err := NewBuilder(Options{Task: "image-captioning"}, log).Build(t.TempDir())
	require.ErrorIs(t, err, ErrUnsupportedTask)
}

func TestBuild_MissingModelFile(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)

	_, err := NewBuilder(Options{}, log).Build(t.TempDir())
	require.Error(t, err)
	require.ErrorIs(t, err, os.ErrNotExist)
}
