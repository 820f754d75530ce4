package blur

import (
	"fmt"
	"math"

	"go-hybrid/pkg/common"
)

// Method selects how a Gaussian kernel is built.
type Method int

const (
	// Separable builds the kernel as the outer product of two 1D Gaussians
	// and lets Filter run two 1D passes.
	Separable Method = iota
	// Direct evaluates the 2D Gaussian formula at every tap.
	Direct
)

func (m Method) String() string {
	switch m {
	case Separable:
		return "separable"
	case Direct:
		return "direct"
	default:
		return fmt.Sprintf("Method(%d)", int(m))
	}
}

// ParseMethod maps "separable" or "direct" to a Method.
func ParseMethod(s string) (Method, error) {
	switch s {
	case "separable", "":
		return Separable, nil
	case "direct":
		return Direct, nil
	default:
		return 0, fmt.Errorf("%w: unknown kernel method %q", common.ErrValue, s)
	}
}

// Kernel is a normalized square Gaussian weight matrix.
type Kernel struct {
	Size    int
	Sigma   float64
	Weights []float64 // row-major, Size*Size

	// Taps is the normalized 1D factor when the kernel is separable, nil otherwise.
	Taps []float64
}

// At returns the weight in column kx, row ky.
func (k *Kernel) At(kx, ky int) float64 {
	return k.Weights[ky*k.Size+kx]
}

// Radius is the number of taps on each side of the centre.
func (k *Kernel) Radius() int {
	return k.Size / 2
}

// Separable reports whether Taps holds the 1D factor of Weights.
func (k *Kernel) Separable() bool {
	return len(k.Taps) == k.Size
}

// Sum of all weights. 1 up to rounding for any kernel built here.
func (k *Kernel) Sum() float64 {
	sum := 0.0
	for _, w := range k.Weights {
		sum += w
	}
	return sum
}

// DefaultSigma derives sigma from the kernel size when none is given.
func DefaultSigma(size int) float64 {
	return 0.3*((float64(size)-1)*0.5-1) + 0.8
}

// NewKernel creates a Gaussian kernel of the given odd size. A sigma <= 0 is
// replaced by DefaultSigma(size).
func NewKernel(size int, sigma float64, method Method) (*Kernel, error) {
	if size <= 0 || size%2 == 0 {
		return nil, fmt.Errorf("%w: kernel size must be odd and positive, got %d", common.ErrValue, size)
	}
	if math.IsNaN(sigma) || math.IsInf(sigma, 0) {
		return nil, fmt.Errorf("%w: kernel sigma must be finite, got %v", common.ErrValue, sigma)
	}
	if sigma <= 0 {
		sigma = DefaultSigma(size)
	}

	switch method {
	case Separable:
		return separableKernel(size, sigma), nil
	case Direct:
		return directKernel(size, sigma), nil
	default:
		return nil, fmt.Errorf("%w: unknown kernel method %v", common.ErrValue, method)
	}
}

// NewKernelFromRadius creates a kernel of size 2*radius+1.
func NewKernelFromRadius(radius int, sigma float64, method Method) (*Kernel, error) {
	if radius < 0 {
		return nil, fmt.Errorf("%w: kernel radius must not be negative, got %d", common.ErrValue, radius)
	}
	return NewKernel(2*radius+1, sigma, method)
}

// Taps1D returns a normalized 1D Gaussian of the given size.
func Taps1D(size int, sigma float64) []float64 {
	taps := make([]float64, size)
	center := size / 2
	sum := 0.0
	for i := range taps {
		x := float64(i - center)
		taps[i] = math.Exp(-(x * x) / (2 * sigma * sigma))
		sum += taps[i]
	}
	for i := range taps {
		taps[i] /= sum
	}
	return taps
}

func separableKernel(size int, sigma float64) *Kernel {
	taps := Taps1D(size, sigma)
	weights := make([]float64, size*size)
	for ky := 0; ky < size; ky++ {
		for kx := 0; kx < size; kx++ {
			weights[ky*size+kx] = taps[ky] * taps[kx]
		}
	}
	return &Kernel{Size: size, Sigma: sigma, Weights: weights, Taps: taps}
}

func directKernel(size int, sigma float64) *Kernel {
	weights := make([]float64, size*size)
	center := size / 2
	sum := 0.0

	for i := 0; i < size; i++ {
		for j := 0; j < size; j++ {
			x := float64(i - center)
			y := float64(j - center)
			w := math.Exp(-(x*x+y*y)/(2*sigma*sigma)) / (2 * math.Pi * sigma * sigma)
			weights[i*size+j] = w
			sum += w
		}
	}

	// Normalize kernel
	for i := range weights {
		weights[i] /= sum
	}

	return &Kernel{Size: size, Sigma: sigma, Weights: weights}
}
