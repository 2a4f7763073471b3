package resize

// BoxDownsample reduces a w x h float64 matrix to outW x outH by averaging
// each non-overlapping (w/outW) x (h/outH) cell, the downsample stage PDQ's
// pipeline runs between its 512x512 intermediate and its 64x64 DCT input.
// Both dimensions divide evenly in practice, since PDQ always downsamples
// from a power-of-two intermediate.
func BoxDownsample(src [][]float64, outW, outH int) [][]float64 {
	h := len(src)
	w := 0
	if h > 0 {
		w = len(src[0])
	}

	cellW := w / outW
	cellH := h / outH
	if cellW == 0 {
		cellW = 1
	}
	if cellH == 0 {
		cellH = 1
	}

	out := make([][]float64, outH)
	for oy := 0; oy < outH; oy++ {
		row := make([]float64, outW)
		y0 := oy * cellH
		y1 := y0 + cellH
		if y1 > h {
			y1 = h
		}
		for ox := 0; ox < outW; ox++ {
			x0 := ox * cellW
			x1 := x0 + cellW
			if x1 > w {
				x1 = w
			}
			var sum float64
			count := 0
			for y := y0; y < y1; y++ {
				for x := x0; x < x1; x++ {
					sum += src[y][x]
					count++
				}
			}
			if count > 0 {
				row[ox] = sum / float64(count)
			}
		}
		out[oy] = row
	}
	return out
}
