package forensics

import (
	"math"

	"deepscan/internal/media/raster"
)

const (
	tan22 = 0.4142135623730950488
	tan67 = 2.4142135623730950488
)

// Canny returns the edge map of gray as a row-major mask. Gradients come from
// 3x3 Sobel kernels with a replicated border, magnitude is |dx|+|dy|, and
// candidates survive non-maximum suppression along the quantised gradient
// direction before 8-connected hysteresis between low and high.
func Canny(gray *raster.Gray, low, high float64) []bool {
	w, h := gray.Width, gray.Height
	edges := make([]bool, w*h)
	if w == 0 || h == 0 {
		return edges
	}

	dx := make([]float64, w*h)
	dy := make([]float64, w*h)
	mag := make([]float64, w*h)
	at := func(x, y int) float64 {
		return float64(gray.At(clampIndex(x, w), clampIndex(y, h)))
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			gx := (at(x+1, y-1) + 2*at(x+1, y) + at(x+1, y+1)) - (at(x-1, y-1) + 2*at(x-1, y) + at(x-1, y+1))
			gy := (at(x-1, y+1) + 2*at(x, y+1) + at(x+1, y+1)) - (at(x-1, y-1) + 2*at(x, y-1) + at(x+1, y-1))
			i := y*w + x
			dx[i], dy[i] = gx, gy
			mag[i] = math.Abs(gx) + math.Abs(gy)
		}
	}
	magAt := func(x, y int) float64 {
		if x < 0 || y < 0 || x >= w || y >= h {
			return 0
		}
		return mag[y*w+x]
	}

	const (
		rejected = iota
		weak
		strong
	)
	state := make([]uint8, w*h)
	stack := make([]int, 0, w)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			m := mag[i]
			if m <= low {
				continue
			}
			ax, ay := math.Abs(dx[i]), math.Abs(dy[i])
			var keep bool
			switch {
			case ay < ax*tan22:
				keep = m > magAt(x-1, y) && m >= magAt(x+1, y)
			case ay > ax*tan67:
				keep = m > magAt(x, y-1) && m >= magAt(x, y+1)
			default:
				s := 1
				if (dx[i] < 0) != (dy[i] < 0) {
					s = -1
				}
				keep = m > magAt(x-s, y-1) && m > magAt(x+s, y+1)
			}
			if !keep {
				continue
			}
			if m > high {
				state[i] = strong
				stack = append(stack, i)
			} else {
				state[i] = weak
			}
		}
	}

	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		edges[i] = true
		x, y := i%w, i/w
		for ny := y - 1; ny <= y+1; ny++ {
			for nx := x - 1; nx <= x+1; nx++ {
				if nx < 0 || ny < 0 || nx >= w || ny >= h {
					continue
				}
				j := ny*w + nx
				if state[j] == weak {
					state[j] = strong
					stack = append(stack, j)
				}
			}
		}
	}
	return edges
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
