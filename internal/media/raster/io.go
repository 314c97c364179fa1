package raster

import (
	"bufio"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"deepscan/internal/services"
)

// Metadata describes an image file without its pixels.
type Metadata struct {
	Width      int
	Height     int
	Channels   int
	FileSize   int64
	Format     string
	ColorModel string
}

// Map renders the metadata with the keys used in detection results.
func (m Metadata) Map() map[string]any {
	return map[string]any{
		"width":       m.Width,
		"height":      m.Height,
		"channels":    m.Channels,
		"file_size":   m.FileSize,
		"format":      m.Format,
		"color_model": m.ColorModel,
	}
}

// Decode reads an image stream into RGB and reports the detected format.
func Decode(r io.Reader) (*Image, string, error) {
	img, format, err := image.Decode(bufio.NewReader(r))
	if err != nil {
		return nil, "", services.Wrap(services.ErrDecode, "raster", "decode", "", err)
	}
	return FromImage(img), format, nil
}

// Read decodes the file at path into RGB.
func Read(path string) (*Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, services.Wrap(services.ErrNotFound, "raster", "open", filepath.Base(path), err)
	}
	defer file.Close()
	img, _, err := Decode(file)
	if err != nil {
		return nil, err
	}
	if img.Empty() {
		return nil, services.Wrap(services.ErrDecode, "raster", "decode", "image has no pixels", nil)
	}
	return img, nil
}

// ReadMetadata reads dimensions and format from the image header. Channels
// reports the decoded RGB layout (3), or 1 for grayscale sources.
func ReadMetadata(path string) (Metadata, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Metadata{}, services.Wrap(services.ErrNotFound, "raster", "stat", filepath.Base(path), err)
	}
	file, err := os.Open(path)
	if err != nil {
		return Metadata{}, services.Wrap(services.ErrNotFound, "raster", "open", filepath.Base(path), err)
	}
	defer file.Close()

	cfg, format, err := image.DecodeConfig(bufio.NewReader(file))
	if err != nil {
		return Metadata{}, services.Wrap(services.ErrDecode, "raster", "decode config", "", err)
	}
	md := Metadata{
		Width:      cfg.Width,
		Height:     cfg.Height,
		Channels:   3,
		FileSize:   info.Size(),
		Format:     format,
		ColorModel: colorModelName(cfg.ColorModel),
	}
	if md.ColorModel == "gray" {
		md.Channels = 1
	}
	return md, nil
}

// WritePNG encodes the image as PNG at path.
func WritePNG(path string, m *Image) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := png.Encode(file, m.RGBA()); err != nil {
		file.Close()
		return fmt.Errorf("encode png: %w", err)
	}
	return file.Close()
}

func colorModelName(model color.Model) string {
	switch model {
	case color.GrayModel, color.Gray16Model:
		return "gray"
	case color.RGBAModel, color.RGBA64Model:
		return "rgba"
	case color.NRGBAModel, color.NRGBA64Model:
		return "nrgba"
	case color.YCbCrModel, color.NYCbCrAModel:
		return "ycbcr"
	case color.CMYKModel:
		return "cmyk"
	}
	if _, ok := model.(color.Palette); ok {
		return "paletted"
	}
	return "other"
}
