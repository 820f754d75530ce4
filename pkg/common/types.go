package common

import (
	"fmt"
	"math"
)

const (
	// TILE_ROWS is the default number of output rows a worker convolves at once.
	TILE_ROWS = 256

	// MAX_SAMPLE is the largest 8-bit intensity.
	MAX_SAMPLE = 255
)

// Plane is a single-channel image held in a signed, wide sample type so that
// high-frequency residuals can go negative and sums can exceed MAX_SAMPLE.
type Plane struct {
	Width  int
	Height int
	Pix    []float64 // row-major, len == Width*Height
}

// NewPlane allocates a zeroed plane. Negative dimensions are treated as zero.
func NewPlane(width, height int) *Plane {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Plane{
		Width:  width,
		Height: height,
		Pix:    make([]float64, width*height),
	}
}

// NewPlaneFrom wraps rows of samples. All rows must share one length.
func NewPlaneFrom(rows [][]float64) (*Plane, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("%w: empty plane", ErrValue)
	}

	width := len(rows[0])
	p := NewPlane(width, len(rows))
	for y, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("%w: row %d has %d samples, want %d", ErrValue, y, len(row), width)
		}
		copy(p.Pix[y*width:], row)
	}
	return p, nil
}

// At returns the sample at column x, row y.
func (p *Plane) At(x, y int) float64 {
	return p.Pix[y*p.Width+x]
}

// Set stores v at column x, row y.
func (p *Plane) Set(x, y int, v float64) {
	p.Pix[y*p.Width+x] = v
}

// Row returns the samples of row y. The slice aliases the plane.
func (p *Plane) Row(y int) []float64 {
	return p.Pix[y*p.Width : (y+1)*p.Width]
}

// Empty reports whether p is nil or has no samples.
func (p *Plane) Empty() bool {
	return p == nil || p.Width == 0 || p.Height == 0
}

// Clone returns a deep copy of p.
func (p *Plane) Clone() *Plane {
	c := NewPlane(p.Width, p.Height)
	copy(c.Pix, p.Pix)
	return c
}

// Shape reports (height, width), the order image arrays are usually printed in.
func (p *Plane) Shape() (int, int) {
	return p.Height, p.Width
}

// String formats p as Plane(WxH).
func (p *Plane) String() string {
	return fmt.Sprintf("Plane(%dx%d)", p.Width, p.Height)
}

// SameSize fails with ErrDimensionMismatch unless every plane matches the first.
func SameSize(planes ...*Plane) error {
	if len(planes) == 0 {
		return nil
	}
	first := planes[0]
	for _, p := range planes[1:] {
		if p.Width != first.Width || p.Height != first.Height {
			return fmt.Errorf("%w: %dx%d vs %dx%d", ErrDimensionMismatch,
				first.Width, first.Height, p.Width, p.Height)
		}
	}
	return nil
}

// Saturate clamps v to [0, MAX_SAMPLE] and rounds to the nearest integer.
func Saturate(v float64) uint8 {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v >= MAX_SAMPLE {
		return MAX_SAMPLE
	}
	return uint8(math.Round(v))
}
