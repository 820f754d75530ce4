// Package gray reduces decoded images to single-channel intensity planes.
package gray

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"reflect"

	"go-hybrid/pkg/common"
)

// Luma weights applied to 8-bit R, G and B samples.
const (
	WeightR = 0.299
	WeightG = 0.587
	WeightB = 0.114
)

// Policy decides what happens to input that is already single-channel.
type Policy int

const (
	// Accept passes single-channel input through unchanged.
	Accept Policy = iota
	// Reject fails single-channel input with common.ErrValue.
	Reject
)

// FromImage converts img to an 8-bit intensity plane. Colour input goes through
// the luma transform on straight (non-premultiplied) colour and is rounded to
// whole intensities; alpha is ignored.
func FromImage(img image.Image, policy Policy) (*common.Plane, error) {
	if IsNil(img) {
		return nil, fmt.Errorf("%w: nil image", common.ErrValue)
	}
	bounds := img.Bounds()
	if bounds.Empty() {
		return nil, fmt.Errorf("%w: empty image", common.ErrValue)
	}

	if IsSingleChannel(img) {
		if policy == Reject {
			return nil, fmt.Errorf("%w: image is already single-channel", common.ErrValue)
		}
		return fromGray(img), nil
	}

	plane := common.NewPlane(bounds.Dx(), bounds.Dy())
	switch src := img.(type) {
	case *image.RGBA:
		// Direct pixel access, much faster than img.At()
		for y := 0; y < plane.Height; y++ {
			out := plane.Row(y)
			for x := range out {
				c := src.RGBAAt(x+bounds.Min.X, y+bounds.Min.Y)
				if c.A == 0xff {
					out[x] = Luma(c.R, c.G, c.B)
					continue
				}
				out[x] = lumaNRGBA64(color.NRGBA64Model.Convert(c).(color.NRGBA64))
			}
		}
		return plane, nil
	case *image.NRGBA:
		for y := 0; y < plane.Height; y++ {
			out := plane.Row(y)
			for x := range out {
				c := src.NRGBAAt(x+bounds.Min.X, y+bounds.Min.Y)
				out[x] = Luma(c.R, c.G, c.B)
			}
		}
		return plane, nil
	}

	for y := 0; y < plane.Height; y++ {
		out := plane.Row(y)
		for x := range out {
			c := color.NRGBA64Model.Convert(img.At(x+bounds.Min.X, y+bounds.Min.Y)).(color.NRGBA64)
			out[x] = lumaNRGBA64(c)
		}
	}
	return plane, nil
}

// Luma returns the rounded weighted intensity of one pixel.
func Luma(r, g, b uint8) float64 {
	return math.Round(WeightR*float64(r) + WeightG*float64(g) + WeightB*float64(b))
}

// lumaNRGBA64 weighs the straight (non-premultiplied) colour of c.
func lumaNRGBA64(c color.NRGBA64) float64 {
	return Luma(uint8(c.R>>8), uint8(c.G>>8), uint8(c.B>>8))
}

// IsNil reports whether img is nil or a typed nil pointer.
func IsNil(img image.Image) bool {
	if img == nil {
		return true
	}
	v := reflect.ValueOf(img)
	return v.Kind() == reflect.Pointer && v.IsNil()
}

// IsSingleChannel reports whether img carries one intensity channel.
func IsSingleChannel(img image.Image) bool {
	switch img.(type) {
	case *image.Gray, *image.Gray16:
		return true
	}
	return false
}

func fromGray(img image.Image) *common.Plane {
	bounds := img.Bounds()
	plane := common.NewPlane(bounds.Dx(), bounds.Dy())

	for y := 0; y < plane.Height; y++ {
		out := plane.Row(y)
		for x := range out {
			px, py := x+bounds.Min.X, y+bounds.Min.Y
			switch g := img.(type) {
			case *image.Gray:
				out[x] = float64(g.GrayAt(px, py).Y)
			case *image.Gray16:
				out[x] = float64(g.Gray16At(px, py).Y >> 8)
			}
		}
	}
	return plane
}

// ToImage renders a plane as an 8-bit gray image, saturating every sample.
func ToImage(p *common.Plane) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, p.Width, p.Height))
	for y := 0; y < p.Height; y++ {
		row := p.Row(y)
		off := y * img.Stride
		for x, v := range row {
			img.Pix[off+x] = common.Saturate(v)
		}
	}
	return img
}
