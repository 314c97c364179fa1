package models

import (
	"fmt"

	"deepscan/internal/media/raster"
)

// Tensor is a channels-first image with values normalised to [0, 1].
type Tensor struct {
	Channels int
	Height   int
	Width    int
	Data     []float64
}

// NewTensor allocates a zeroed tensor.
func NewTensor(channels, height, width int) Tensor {
	return Tensor{Channels: channels, Height: height, Width: width, Data: make([]float64, channels*height*width)}
}

// At returns the value of channel c at (x, y).
func (t Tensor) At(c, x, y int) float64 {
	return t.Data[(c*t.Height+y)*t.Width+x]
}

// Plane returns channel c as a row-major slice sharing t's storage.
func (t Tensor) Plane(c int) []float64 {
	size := t.Height * t.Width
	return t.Data[c*size : (c+1)*size]
}

// Validate reports whether the tensor holds an RGB image.
func (t Tensor) Validate() error {
	if t.Channels != 3 || t.Height <= 0 || t.Width <= 0 {
		return fmt.Errorf("tensor shape %dx%dx%d: want 3 channels and positive size", t.Channels, t.Height, t.Width)
	}
	if len(t.Data) != t.Channels*t.Height*t.Width {
		return fmt.Errorf("tensor data length %d does not match shape", len(t.Data))
	}
	return nil
}

// TensorFromImage resizes img to size x size with bilinear interpolation and
// scales every channel to [0, 1].
func TensorFromImage(img *raster.Image, size int) Tensor {
	resized := img
	if img.Width != size || img.Height != size {
		resized = raster.Resize(img, size, size)
	}
	t := NewTensor(3, size, size)
	plane := size * size
	for i := 0; i < plane; i++ {
		t.Data[i] = float64(resized.Pix[i*3]) / 255
		t.Data[plane+i] = float64(resized.Pix[i*3+1]) / 255
		t.Data[2*plane+i] = float64(resized.Pix[i*3+2]) / 255
	}
	return t
}
