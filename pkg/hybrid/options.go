package hybrid

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"go-hybrid/pkg/blur"
	"go-hybrid/pkg/common"
	"go-hybrid/pkg/gray"
)

// Detail selects which input contributes its high frequencies. The other
// input contributes its blurred, low-frequency content.
type Detail int

const (
	// DetailFromHigh extracts detail from the high input and blurs the low one.
	DetailFromHigh Detail = iota
	// DetailFromLow swaps the roles of the two inputs.
	DetailFromLow
)

func (d Detail) String() string {
	switch d {
	case DetailFromHigh:
		return "high"
	case DetailFromLow:
		return "low"
	default:
		return fmt.Sprintf("Detail(%d)", int(d))
	}
}

// ParseDetail maps "high" or "low" to a Detail.
func ParseDetail(s string) (Detail, error) {
	switch s {
	case "high", "":
		return DetailFromHigh, nil
	case "low":
		return DetailFromLow, nil
	default:
		return 0, fmt.Errorf("%w: unknown detail source %q", common.ErrValue, s)
	}
}

// Defaults used by DefaultOptions.
const (
	DefaultKernelSize = 31
	DefaultSigma      = 10.0
)

// Options are the explicit parameters of a pipeline run.
type Options struct {
	KernelSize int
	Sigma      float64
	Method     blur.Method
	Border     blur.Border
	Detail     Detail
	GrayInput  gray.Policy

	// ResizeBase resizes the low-frequency input to the detail input's size
	// instead of failing on a mismatch.
	ResizeBase bool

	Workers  int
	TileRows int

	Logger logrus.FieldLogger
}

// DefaultOptions returns the documented defaults: a 31x31 separable kernel with
// sigma 10, replicated borders, detail from the high input, sequential filtering.
func DefaultOptions() Options {
	return Options{
		KernelSize: DefaultKernelSize,
		Sigma:      DefaultSigma,
		Method:     blur.Separable,
		Border:     blur.Replicate,
		Detail:     DetailFromHigh,
		GrayInput:  gray.Accept,
		Workers:    1,
		TileRows:   common.TILE_ROWS,
	}
}

func (o Options) validate() error {
	if o.Detail != DetailFromHigh && o.Detail != DetailFromLow {
		return fmt.Errorf("%w: unknown detail source %v", common.ErrValue, o.Detail)
	}
	if o.Border != blur.Replicate && o.Border != blur.Reflect101 {
		return fmt.Errorf("%w: unknown border mode %v", common.ErrValue, o.Border)
	}
	if o.Workers < 0 {
		return fmt.Errorf("%w: workers must not be negative, got %d", common.ErrValue, o.Workers)
	}
	if o.TileRows < 0 {
		return fmt.Errorf("%w: tile rows must not be negative, got %d", common.ErrValue, o.TileRows)
	}
	return nil
}

func (o Options) logger() logrus.FieldLogger {
	if o.Logger != nil {
		return o.Logger
	}
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func (o Options) blurOptions() blur.Options {
	return blur.Options{
		Border:   o.Border,
		Workers:  o.Workers,
		TileRows: o.TileRows,
	}
}
