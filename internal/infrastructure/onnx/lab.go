package onnx

import "math"

// Преобразования sRGB <-> CIE Lab (D65), те же формулы, что у OpenCV для float.
// Каналы RGB в [0, 1], L в [0, 100].

const (
	whiteX = 0.950456
	whiteZ = 1.088754
	labEps = 0.008856
	labK   = 903.3
)

func srgbToLinear(c float64) float64 {
	if c <= 0.04045 {
		return c / 12.92
	}
	return math.Pow((c+0.055)/1.055, 2.4)
}

func linearToSRGB(c float64) float64 {
	if c <= 0.0031308 {
		return 12.92 * c
	}
	return 1.055*math.Pow(c, 1/2.4) - 0.055
}

func labF(t float64) float64 {
	if t > labEps {
		return math.Cbrt(t)
	}
	return 7.787*t + 16.0/116.0
}

func labFInv(f float64) float64 {
	if f3 := f * f * f; f3 > labEps {
		return f3
	}
	return (f - 16.0/116.0) / 7.787
}

func rgbToLab(r, g, b float64) (l, a, bb float64) {
	r, g, b = srgbToLinear(r), srgbToLinear(g), srgbToLinear(b)

	x := (0.412453*r + 0.357580*g + 0.180423*b) / whiteX
	y := 0.212671*r + 0.715160*g + 0.072169*b
	z := (0.019334*r + 0.119193*g + 0.950227*b) / whiteZ

	fy := labF(y)
	if y > labEps {
		l = 116*fy - 16
	} else {
		l = labK * y
	}
	return l, 500 * (labF(x) - fy), 200 * (fy - labF(z))
}

func labToRGB(l, a, bb float64) (r, g, b float64) {
	fy := (l + 16) / 116
	var y float64
	if l > labK*labEps {
		y = fy * fy * fy
	} else {
		y = l / labK
	}
	x := labFInv(fy+a/500) * whiteX
	z := labFInv(fy-bb/200) * whiteZ

	r = 3.240479*x - 1.537150*y - 0.498535*z
	g = -0.969256*x + 1.875991*y + 0.041556*z
	b = 0.055648*x - 0.204043*y + 1.057311*z

	return clamp01(linearToSRGB(clamp01(r))), clamp01(linearToSRGB(clamp01(g))), clamp01(linearToSRGB(clamp01(b)))
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
