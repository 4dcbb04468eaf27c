package onnx

// resizePlane билинейно масштабирует одноканальную float-плоскость.
// Центры пикселей совпадают с cv2.resize(INTER_LINEAR).
func resizePlane(src []float32, srcW, srcH, dstW, dstH int) []float32 {
	dst := make([]float32, dstW*dstH)
	if srcW == dstW && srcH == dstH {
		copy(dst, src)
		return dst
	}

	sx := float64(srcW) / float64(dstW)
	sy := float64(srcH) / float64(dstH)

	for y := 0; y < dstH; y++ {
		y0, y1, fy := sampleAxis(y, sy, srcH)
		for x := 0; x < dstW; x++ {
			x0, x1, fx := sampleAxis(x, sx, srcW)

			top := float64(src[y0*srcW+x0])*(1-fx) + float64(src[y0*srcW+x1])*fx
			bottom := float64(src[y1*srcW+x0])*(1-fx) + float64(src[y1*srcW+x1])*fx
			dst[y*dstW+x] = float32(top*(1-fy) + bottom*fy)
		}
	}
	return dst
}

func sampleAxis(i int, scale float64, n int) (i0, i1 int, frac float64) {
	pos := (float64(i)+0.5)*scale - 0.5
	if pos < 0 {
		pos = 0
	}
	i0 = int(pos)
	if i0 >= n-1 {
		return n - 1, n - 1, 0
	}
	return i0, i0 + 1, pos - float64(i0)
}
