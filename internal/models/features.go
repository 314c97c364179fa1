package models

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// featureFunc turns an image tensor into a fixed-length feature vector.
type featureFunc func(Tensor) []float64

// classifierFeatures: per-channel 8x8 pooled means plus channel spread.
func classifierFeatures(t Tensor) []float64 {
	out := make([]float64, 0, 195)
	for c := 0; c < 3; c++ {
		out = append(out, gridMeans(t.Plane(c), t.Width, t.Height, 8)...)
	}
	for c := 0; c < 3; c++ {
		out = append(out, stat.PopStdDev(t.Plane(c), nil))
	}
	return out
}

// ganFeatures: pooled high-frequency residue and mean gradients, which carry
// the upsampling fingerprints generators leave behind.
func ganFeatures(t Tensor) []float64 {
	out := make([]float64, 0, 54)
	grads := make([]float64, 0, 6)
	for c := 0; c < 3; c++ {
		plane := t.Plane(c)
		residue := make([]float64, len(plane))
		var gx, gy float64
		for y := 0; y < t.Height; y++ {
			for x := 0; x < t.Width; x++ {
				v := plane[y*t.Width+x]
				left := plane[y*t.Width+max(x-1, 0)]
				right := plane[y*t.Width+min(x+1, t.Width-1)]
				up := plane[max(y-1, 0)*t.Width+x]
				down := plane[min(y+1, t.Height-1)*t.Width+x]
				residue[y*t.Width+x] = math.Abs(left + right + up + down - 4*v)
				gx += math.Abs(right - v)
				gy += math.Abs(down - v)
			}
		}
		out = append(out, gridMeans(residue, t.Width, t.Height, 4)...)
		n := float64(len(plane))
		grads = append(grads, gx/n, gy/n)
	}
	return append(out, grads...)
}

// facialFeatures: pooled luma and colour-difference planes.
func facialFeatures(t Tensor) []float64 {
	r, g, b := t.Plane(0), t.Plane(1), t.Plane(2)
	luma := make([]float64, len(r))
	rg := make([]float64, len(r))
	bg := make([]float64, len(r))
	for i := range r {
		luma[i] = 0.299*r[i] + 0.587*g[i] + 0.114*b[i]
		rg[i] = r[i] - g[i]
		bg[i] = b[i] - g[i]
	}
	out := make([]float64, 0, 49)
	out = append(out, gridMeans(luma, t.Width, t.Height, 4)...)
	out = append(out, gridMeans(rg, t.Width, t.Height, 4)...)
	out = append(out, gridMeans(bg, t.Width, t.Height, 4)...)
	return append(out, stat.PopStdDev(luma, nil))
}

// faceFeatures: pooled luma and a pooled skin-tone mask.
func faceFeatures(t Tensor) []float64 {
	r, g, b := t.Plane(0), t.Plane(1), t.Plane(2)
	luma := make([]float64, len(r))
	skin := make([]float64, len(r))
	for i := range r {
		luma[i] = 0.299*r[i] + 0.587*g[i] + 0.114*b[i]
		if r[i] > 0.37 && g[i] > 0.15 && b[i] > 0.08 && r[i] > g[i] && r[i] > b[i] && r[i]-g[i] > 0.06 {
			skin[i] = 1
		}
	}
	out := make([]float64, 0, 128)
	out = append(out, gridMeans(luma, t.Width, t.Height, 8)...)
	return append(out, gridMeans(skin, t.Width, t.Height, 8)...)
}

// gridMeans averages plane over a grid x grid partition. Cells on images
// smaller than the grid repeat the nearest pixel.
func gridMeans(plane []float64, w, h, grid int) []float64 {
	out := make([]float64, grid*grid)
	for gy := 0; gy < grid; gy++ {
		y0, y1 := cellBounds(gy, grid, h)
		for gx := 0; gx < grid; gx++ {
			x0, x1 := cellBounds(gx, grid, w)
			sum := 0.0
			for y := y0; y < y1; y++ {
				row := plane[y*w:]
				for x := x0; x < x1; x++ {
					sum += row[x]
				}
			}
			out[gy*grid+gx] = sum / float64((x1-x0)*(y1-y0))
		}
	}
	return out
}

func cellBounds(i, grid, n int) (int, int) {
	start := i * n / grid
	end := (i + 1) * n / grid
	if end <= start {
		start = min(start, n-1)
		end = start + 1
	}
	return start, end
}
