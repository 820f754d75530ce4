package hybrid

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-hybrid/pkg/blur"
	"go-hybrid/pkg/common"
	"go-hybrid/pkg/gray"
	"go-hybrid/pkg/imageio"
)

func checkerboard(size int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			v := uint8(0)
			if (x+y)%2 == 0 {
				v = 255
			}
			img.SetRGBA(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return img
}

func uniform(width, height int, v uint8) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return img
}

func smallOptions() Options {
	opts := DefaultOptions()
	opts.KernelSize = 3
	opts.Sigma = 1
	return opts
}

// handBlur convolves with the 3x3 Gaussian of sigma 1, clamping at the edges.
func handBlur(src [][]float64) [][]float64 {
	h, w := len(src), len(src[0])
	clamp := func(i, n int) int { return min(max(i, 0), n-1) }
	taps := blur.Taps1D(3, 1)

	out := make([][]float64, h)
	for y := range out {
		out[y] = make([]float64, w)
		for x := range out[y] {
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					out[y][x] += taps[dy+1] * taps[dx+1] * src[clamp(y+dy, h)][clamp(x+dx, w)]
				}
			}
		}
	}
	return out
}

func TestBuild_CheckerboardOverGray(t *testing.T) {
	res, err := Run(FromImage(checkerboard(4)), FromImage(uniform(4, 4, 128)), "", smallOptions())
	require.NoError(t, err)

	for _, v := range res.Low.Pix {
		assert.InDelta(t, 128, v, 1e-9)
	}

	board := make([][]float64, 4)
	for y := range board {
		board[y] = make([]float64, 4)
		for x := range board[y] {
			if (x+y)%2 == 0 {
				board[y][x] = 255
			}
		}
	}
	blurred := handBlur(board)

	require.Equal(t, 4, res.Image.Width)
	require.Equal(t, 4, res.Image.Height)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			want := 128 + board[y][x] - blurred[y][x]
			assert.InDelta(t, want, res.Image.At(x, y), 1e-9, "(%d,%d)", x, y)
		}
	}

	assert.Less(t, minOf(res.High.Pix), 0.0)
}

func TestBuild_ResultIsNotClamped(t *testing.T) {
	out, err := Build(FromImage(checkerboard(4)), FromImage(uniform(4, 4, 250)), "", smallOptions())
	require.NoError(t, err)
	assert.Greater(t, maxOf(out.Pix), 255.0)

	out, err = Build(FromImage(checkerboard(4)), FromImage(uniform(4, 4, 5)), "", smallOptions())
	require.NoError(t, err)
	assert.Less(t, minOf(out.Pix), 0.0)
}

func TestBuild_DimensionMismatch(t *testing.T) {
	_, err := Build(FromImage(uniform(100, 100, 10)), FromImage(uniform(50, 50, 10)), "", smallOptions())
	assert.ErrorIs(t, err, common.ErrDimensionMismatch)
	assert.ErrorIs(t, err, common.ErrValue)
}

func TestBuild_ResizeBase(t *testing.T) {
	opts := smallOptions()
	opts.ResizeBase = true

	out, err := Build(FromImage(uniform(8, 6, 40)), FromImage(uniform(4, 3, 90)), "", opts)
	require.NoError(t, err)
	assert.Equal(t, 8, out.Width)
	assert.Equal(t, 6, out.Height)
	for _, v := range out.Pix {
		assert.InDelta(t, 90, v, 1)
	}
}

func TestBuild_DetailFromLow(t *testing.T) {
	opts := smallOptions()
	opts.Detail = DetailFromLow

	// The checkerboard is now the low source, so its detail sits on the
	// blurred uniform high source.
	swapped, err := Build(FromImage(uniform(4, 4, 128)), FromImage(checkerboard(4)), "", opts)
	require.NoError(t, err)

	straight, err := Build(FromImage(checkerboard(4)), FromImage(uniform(4, 4, 128)), "", smallOptions())
	require.NoError(t, err)
	assert.InDeltaSlice(t, straight.Pix, swapped.Pix, 1e-9)
}

func TestBuild_NoOutputPathWritesNothing(t *testing.T) {
	dir := t.TempDir()
	// Equivalent of t.Chdir (Go 1.24+) for the Go 1.21 toolchain.
	oldWd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(oldWd) })

	res, err := Run(FromImage(checkerboard(6)), FromImage(uniform(6, 6, 100)), "", smallOptions())
	require.NoError(t, err)
	require.NotNil(t, res.Image)

	_, wrote := res.Steps.Lookup(StepWrite)
	assert.False(t, wrote)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestBuild_FromPathsWritesOutput(t *testing.T) {
	dir := t.TempDir()
	highPath := filepath.Join(dir, "high.png")
	lowPath := filepath.Join(dir, "low.png")
	outPath := filepath.Join(dir, "hybrid.png")

	high, err := gray.FromImage(checkerboard(8), gray.Accept)
	require.NoError(t, err)
	require.NoError(t, imageio.Save(highPath, high))
	low, err := gray.FromImage(uniform(8, 8, 128), gray.Accept)
	require.NoError(t, err)
	require.NoError(t, imageio.Save(lowPath, low))

	res, err := Run(FromPath(highPath), FromPath(lowPath), outPath, smallOptions())
	require.NoError(t, err)

	for _, step := range []string{StepLoad, StepGrayscale, StepKernel, StepFilter, StepExtract, StepCombine, StepWrite} {
		_, ok := res.Steps.Lookup(step)
		assert.True(t, ok, step)
	}

	img, _, err := imageio.Load(outPath)
	require.NoError(t, err)
	written, err := gray.FromImage(img, gray.Accept)
	require.NoError(t, err)
	for i, v := range res.Image.Pix {
		assert.Equal(t, float64(common.Saturate(v)), written.Pix[i])
	}
}

func TestBuild_ReconstructionIdentity(t *testing.T) {
	src := common.NewPlane(9, 7)
	for i := range src.Pix {
		src.Pix[i] = float64((i * 37) % 256)
	}
	k, err := blur.NewKernel(5, 1.5, blur.Separable)
	require.NoError(t, err)

	low, err := blur.Filter(src, k, blur.Options{})
	require.NoError(t, err)
	high, err := HighPass(src, low)
	require.NoError(t, err)
	back, err := Combine(low, high)
	require.NoError(t, err)
	assert.InDeltaSlice(t, src.Pix, back.Pix, 1e-9)
}

func TestHighPassAndCombine_Mismatch(t *testing.T) {
	_, err := HighPass(common.NewPlane(2, 2), common.NewPlane(2, 3))
	assert.ErrorIs(t, err, common.ErrDimensionMismatch)
	_, err = Combine(common.NewPlane(3, 2), common.NewPlane(2, 2))
	assert.ErrorIs(t, err, common.ErrDimensionMismatch)
}

func TestBuild_InputErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Build(FromPath(filepath.Join(dir, "missing.png")), FromImage(uniform(2, 2, 1)), "", smallOptions())
	assert.ErrorIs(t, err, common.ErrIO)

	_, err = Build(Source{}, FromImage(uniform(2, 2, 1)), "", smallOptions())
	assert.ErrorIs(t, err, common.ErrValue)

	var typedNil *image.RGBA
	assert.NotPanics(t, func() {
		_, err = Build(FromImage(typedNil), FromImage(uniform(2, 2, 1)), "", smallOptions())
	})
	assert.ErrorIs(t, err, common.ErrValue)

	opts := smallOptions()
	opts.KernelSize = 4
	_, err = Build(FromImage(uniform(2, 2, 1)), FromImage(uniform(2, 2, 1)), "", opts)
	assert.ErrorIs(t, err, common.ErrValue)

	opts = smallOptions()
	opts.GrayInput = gray.Reject
	_, err = Build(FromImage(image.NewGray(image.Rect(0, 0, 2, 2))), FromImage(uniform(2, 2, 1)), "", opts)
	assert.ErrorIs(t, err, common.ErrValue)

	opts = smallOptions()
	opts.Workers = -1
	_, err = Build(FromImage(uniform(2, 2, 1)), FromImage(uniform(2, 2, 1)), "", opts)
	assert.ErrorIs(t, err, common.ErrValue)

	_, err = Build(FromImage(uniform(2, 2, 1)), FromImage(uniform(2, 2, 1)), filepath.Join(dir, "out.xyz"), smallOptions())
	assert.ErrorIs(t, err, common.ErrIO)
}

func TestBuild_ParallelMatchesSequential(t *testing.T) {
	seq, err := Build(FromImage(checkerboard(40)), FromImage(uniform(40, 40, 77)), "", DefaultOptions())
	require.NoError(t, err)

	opts := DefaultOptions()
	opts.Workers = 3
	opts.TileRows = 7
	par, err := Build(FromImage(checkerboard(40)), FromImage(uniform(40, 40, 77)), "", opts)
	require.NoError(t, err)
	assert.Equal(t, seq.Pix, par.Pix)
}

func TestBuild_LogsSteps(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	opts := smallOptions()
	opts.Logger = logger

	_, err := Build(FromImage(checkerboard(4)), FromImage(uniform(4, 4, 128)), "", opts)
	require.NoError(t, err)

	var steps []string
	for _, entry := range hook.AllEntries() {
		if step, ok := entry.Data["step"]; ok {
			steps = append(steps, step.(string))
		}
	}
	assert.Equal(t, []string{StepLoad, StepGrayscale, StepKernel, StepFilter, StepExtract, StepCombine}, steps)
	assert.Equal(t, logrus.InfoLevel, hook.LastEntry().Level)
}

func TestParseDetail(t *testing.T) {
	d, err := ParseDetail("low")
	require.NoError(t, err)
	assert.Equal(t, DetailFromLow, d)

	_, err = ParseDetail("middle")
	assert.ErrorIs(t, err, common.ErrValue)
}

func minOf(v []float64) float64 {
	m := v[0]
	for _, x := range v[1:] {
		m = min(m, x)
	}
	return m
}

func maxOf(v []float64) float64 {
	m := v[0]
	for _, x := range v[1:] {
		m = max(m, x)
	}
	return m
}
