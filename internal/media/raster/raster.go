package raster

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// Image is a canonical 8-bit RGB raster with interleaved channels and no padding.
type Image struct {
	Width  int
	Height int
	Pix    []uint8
}

// New allocates a black image of the given size.
func New(width, height int) *Image {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Image{Width: width, Height: height, Pix: make([]uint8, width*height*3)}
}

// FromImage converts any decoded image into RGB. Alpha is dropped without
// compositing so transparent pixels keep their stored colour.
func FromImage(src image.Image) *Image {
	b := src.Bounds()
	out := New(b.Dx(), b.Dy())
	if nrgba, ok := src.(*image.NRGBA); ok {
		for y := 0; y < out.Height; y++ {
			row := nrgba.Pix[nrgba.PixOffset(b.Min.X, b.Min.Y+y):]
			for x := 0; x < out.Width; x++ {
				i := (y*out.Width + x) * 3
				copy(out.Pix[i:i+3], row[x*4:x*4+3])
			}
		}
		return out
	}
	for y := 0; y < out.Height; y++ {
		for x := 0; x < out.Width; x++ {
			c := color.NRGBAModel.Convert(src.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			out.Set(x, y, c.R, c.G, c.B)
		}
	}
	return out
}

// Empty reports whether the image has no pixels.
func (m *Image) Empty() bool {
	return m == nil || m.Width == 0 || m.Height == 0
}

// At returns the RGB triple at (x, y).
func (m *Image) At(x, y int) (r, g, b uint8) {
	i := (y*m.Width + x) * 3
	return m.Pix[i], m.Pix[i+1], m.Pix[i+2]
}

// Set writes the RGB triple at (x, y).
func (m *Image) Set(x, y int, r, g, b uint8) {
	i := (y*m.Width + x) * 3
	m.Pix[i], m.Pix[i+1], m.Pix[i+2] = r, g, b
}

// Channel returns one colour plane (0 red, 1 green, 2 blue) as float64 values.
func (m *Image) Channel(c int) []float64 {
	out := make([]float64, m.Width*m.Height)
	for i := range out {
		out[i] = float64(m.Pix[i*3+c])
	}
	return out
}

// RGBA renders the image into a standard library RGBA for encoding and scaling.
func (m *Image) RGBA() *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, m.Width, m.Height))
	for i, j := 0, 0; i < len(m.Pix); i, j = i+3, j+4 {
		dst.Pix[j] = m.Pix[i]
		dst.Pix[j+1] = m.Pix[i+1]
		dst.Pix[j+2] = m.Pix[i+2]
		dst.Pix[j+3] = 0xff
	}
	return dst
}

// Resize scales the image to width x height with bilinear interpolation.
func Resize(src *Image, width, height int) *Image {
	if src.Width == width && src.Height == height {
		out := New(width, height)
		copy(out.Pix, src.Pix)
		return out
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.BiLinear.Scale(dst, dst.Bounds(), src.RGBA(), image.Rect(0, 0, src.Width, src.Height), draw.Src, nil)
	out := New(width, height)
	for i, j := 0, 0; j < len(out.Pix); i, j = i+4, j+3 {
		out.Pix[j] = dst.Pix[i]
		out.Pix[j+1] = dst.Pix[i+1]
		out.Pix[j+2] = dst.Pix[i+2]
	}
	return out
}

// Gray is an 8-bit luma plane.
type Gray struct {
	Width  int
	Height int
	Pix    []uint8
}

// Gray converts to luma with Rec. 601 weights, rounded to the nearest integer.
func (m *Image) Gray() *Gray {
	g := &Gray{Width: m.Width, Height: m.Height, Pix: make([]uint8, m.Width*m.Height)}
	for i := range g.Pix {
		r := float64(m.Pix[i*3])
		gr := float64(m.Pix[i*3+1])
		b := float64(m.Pix[i*3+2])
		v := 0.299*r + 0.587*gr + 0.114*b + 0.5
		if v > 255 {
			v = 255
		}
		g.Pix[i] = uint8(v)
	}
	return g
}

// At returns the luma value at (x, y).
func (g *Gray) At(x, y int) uint8 {
	return g.Pix[y*g.Width+x]
}

// Float64s returns the plane as float64 values in row-major order.
func (g *Gray) Float64s() []float64 {
	out := make([]float64, len(g.Pix))
	for i, v := range g.Pix {
		out[i] = float64(v)
	}
	return out
}
