// Package imageio loads images from disk and writes intensity planes back out.
package imageio

import (
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"go-hybrid/pkg/common"
	"go-hybrid/pkg/gray"
)

// Format is an output encoding chosen from a file extension.
type Format string

const (
	PNG  Format = "png"
	JPEG Format = "jpeg"
	GIF  Format = "gif"
	BMP  Format = "bmp"
	TIFF Format = "tiff"
)

// JPEGQuality keeps JPEG output as close to lossless as the codec allows.
const JPEGQuality = 100

// FormatFromPath infers the output format from the extension of path.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return PNG, nil
	case ".jpg", ".jpeg":
		return JPEG, nil
	case ".gif":
		return GIF, nil
	case ".bmp":
		return BMP, nil
	case ".tif", ".tiff":
		return TIFF, nil
	default:
		return "", fmt.Errorf("%w: unsupported output format for %q", common.ErrIO, path)
	}
}

// Load opens and decodes the image at path.
func Load(path string) (image.Image, string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("%w: failed to open image: %w", common.ErrIO, err)
	}
	defer file.Close()

	img, format, err := image.Decode(file)
	if err != nil {
		return nil, "", fmt.Errorf("%w: failed to decode image %s: %w", common.ErrIO, path, err)
	}
	return img, format, nil
}

// Save writes p to path in the format its extension names. Samples are
// saturated to 0..255 here and nowhere earlier.
func Save(path string, p *common.Plane) error {
	if p.Empty() {
		return fmt.Errorf("%w: cannot save an empty plane", common.ErrValue)
	}
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}

	return writeFile(path, func(w io.Writer) error {
		return Encode(w, gray.ToImage(p), format)
	})
}

// writeFile creates path and fills it with encode. If encoding or closing
// fails the file is removed so no partial output is left behind.
func writeFile(path string, encode func(w io.Writer) error) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: failed to create output file: %w", common.ErrIO, err)
	}

	if err := encode(file); err != nil {
		file.Close()
		os.Remove(path)
		return err
	}
	if err := file.Close(); err != nil {
		os.Remove(path)
		return fmt.Errorf("%w: failed to close output file: %w", common.ErrIO, err)
	}
	return nil
}

// Encode writes img to w in the given format.
func Encode(w io.Writer, img image.Image, format Format) error {
	var err error
	switch format {
	case PNG:
		err = png.Encode(w, img)
	case JPEG:
		err = jpeg.Encode(w, img, &jpeg.Options{Quality: JPEGQuality})
	case GIF:
		err = gif.Encode(w, grayPaletted(img), nil)
	case BMP:
		err = bmp.Encode(w, img)
	case TIFF:
		err = tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		return fmt.Errorf("%w: unsupported output format %q", common.ErrIO, format)
	}
	if err != nil {
		return fmt.Errorf("%w: failed to encode %s: %w", common.ErrIO, format, err)
	}
	return nil
}

// grayPaletted maps img onto a 256-entry gray palette so GIF output keeps
// every intensity instead of quantizing to the default palette.
func grayPaletted(img image.Image) *image.Paletted {
	palette := make(color.Palette, 256)
	for i := range palette {
		palette[i] = color.Gray{Y: uint8(i)}
	}

	bounds := img.Bounds()
	out := image.NewPaletted(bounds, palette)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			g := color.GrayModel.Convert(img.At(x, y)).(color.Gray)
			out.SetColorIndex(x, y, g.Y)
		}
	}
	return out
}
