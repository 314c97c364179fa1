// Package raster holds the canonical RGB image type shared by the image and
// video readers, plus decoding, metadata, luma conversion, and bilinear
// resizing.
//
// JPEG, PNG, and GIF come from the standard library; BMP, TIFF, and WebP are
// registered from golang.org/x/image.
package raster
