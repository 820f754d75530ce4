// Package hybrid builds hybrid images: the blurred, low-frequency content of
// one image plus the high-frequency detail of another.
//
// All arithmetic after grayscale reduction runs on signed float64 planes.
// Nothing is clamped until the result is encoded to a file, and the returned
// plane is never clamped.
package hybrid

import (
	"fmt"
	"image"

	"github.com/nfnt/resize"
	"github.com/sirupsen/logrus"

	"go-hybrid/pkg/blur"
	"go-hybrid/pkg/common"
	"go-hybrid/pkg/gray"
	"go-hybrid/pkg/imageio"
	"go-hybrid/pkg/stats"
)

// Step names recorded in Result.Steps.
const (
	StepLoad      = "load"
	StepGrayscale = "grayscale"
	StepKernel    = "kernel"
	StepFilter    = "filter"
	StepExtract   = "extract"
	StepCombine   = "combine"
	StepWrite     = "write"
)

// Result is the hybrid plane plus how long each step took.
type Result struct {
	Image *common.Plane
	Steps stats.Trace

	// Low is the blurred base and High the extracted detail that were summed.
	Low  *common.Plane
	High *common.Plane
}

// Build runs the pipeline and returns the hybrid plane. When outputPath is
// non-empty the plane is also written there, saturated to 8 bits.
func Build(high, low Source, outputPath string, opts Options) (*common.Plane, error) {
	res, err := Run(high, low, outputPath, opts)
	if err != nil {
		return nil, err
	}
	return res.Image, nil
}

// Run is Build with per-step timings and the intermediate planes.
func Run(high, low Source, outputPath string, opts Options) (*Result, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	log := opts.logger().WithFields(logrus.Fields{
		"high": high.String(),
		"low":  low.String(),
	})
	res := &Result{}
	trace := &res.Steps

	var highImg, lowImg image.Image
	err := trace.Time(StepLoad, func() error {
		var err error
		if highImg, err = high.Load(); err != nil {
			return fmt.Errorf("failed to load high image: %w", err)
		}
		if lowImg, err = low.Load(); err != nil {
			return fmt.Errorf("failed to load low image: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	logStep(log, trace)

	var highGray, lowGray *common.Plane
	err = trace.Time(StepGrayscale, func() error {
		var err error
		if highGray, err = gray.FromImage(highImg, opts.GrayInput); err != nil {
			return fmt.Errorf("failed to convert high image: %w", err)
		}
		if lowGray, err = gray.FromImage(lowImg, opts.GrayInput); err != nil {
			return fmt.Errorf("failed to convert low image: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	logStep(log, trace)

	detailSrc, baseSrc := highGray, lowGray
	if opts.Detail == DetailFromLow {
		detailSrc, baseSrc = lowGray, highGray
	}
	if err := common.SameSize(detailSrc, baseSrc); err != nil {
		if !opts.ResizeBase {
			return nil, err
		}
		log.Debugf("Resizing base %dx%d to %dx%d", baseSrc.Width, baseSrc.Height, detailSrc.Width, detailSrc.Height)
		baseSrc = ResizePlane(baseSrc, detailSrc.Width, detailSrc.Height)
	}

	var kernel *blur.Kernel
	err = trace.Time(StepKernel, func() error {
		var err error
		kernel, err = blur.NewKernel(opts.KernelSize, opts.Sigma, opts.Method)
		return err
	})
	if err != nil {
		return nil, err
	}
	logStep(log, trace)

	var detailBlur *common.Plane
	err = trace.Time(StepFilter, func() error {
		var err error
		if res.Low, err = blur.Filter(baseSrc, kernel, opts.blurOptions()); err != nil {
			return err
		}
		detailBlur, err = blur.Filter(detailSrc, kernel, opts.blurOptions())
		return err
	})
	if err != nil {
		return nil, err
	}
	logStep(log, trace)

	err = trace.Time(StepExtract, func() error {
		var err error
		res.High, err = HighPass(detailSrc, detailBlur)
		return err
	})
	if err != nil {
		return nil, err
	}
	logStep(log, trace)

	err = trace.Time(StepCombine, func() error {
		var err error
		res.Image, err = Combine(res.Low, res.High)
		return err
	})
	if err != nil {
		return nil, err
	}
	logStep(log, trace)

	if outputPath != "" {
		if err := trace.Time(StepWrite, func() error { return imageio.Save(outputPath, res.Image) }); err != nil {
			return nil, err
		}
		logStep(log.WithField("output", outputPath), trace)
	}

	log.Infof("Built hybrid image %dx%d in %.2fms", res.Image.Width, res.Image.Height,
		float64(trace.Total().Microseconds())/1000.0)
	return res, nil
}

// HighPass returns original - blurred, elementwise and unclamped.
func HighPass(original, blurred *common.Plane) (*common.Plane, error) {
	if err := common.SameSize(original, blurred); err != nil {
		return nil, err
	}
	out := common.NewPlane(original.Width, original.Height)
	for i, v := range original.Pix {
		out.Pix[i] = v - blurred.Pix[i]
	}
	return out, nil
}

// Combine returns low + high, elementwise and unclamped.
func Combine(low, high *common.Plane) (*common.Plane, error) {
	if err := common.SameSize(low, high); err != nil {
		return nil, err
	}
	out := common.NewPlane(low.Width, low.Height)
	for i, v := range low.Pix {
		out.Pix[i] = v + high.Pix[i]
	}
	return out, nil
}

// ResizePlane scales an 8-bit intensity plane with Lanczos resampling.
func ResizePlane(p *common.Plane, width, height int) *common.Plane {
	scaled := resize.Resize(uint(width), uint(height), gray.ToImage(p), resize.Lanczos3)
	// ToImage always yields *image.Gray, which resize keeps single-channel.
	out, _ := gray.FromImage(scaled, gray.Accept)
	return out
}

func logStep(log logrus.FieldLogger, trace *stats.Trace) {
	step := trace.Steps[len(trace.Steps)-1]
	log.WithField("step", step.Name).Debugf("%s done in %.2fms", step.Name,
		float64(step.Duration.Microseconds())/1000.0)
}
