package blur

import (
	"fmt"
	"sync"

	"go-hybrid/pkg/common"
)

// Options control how Filter walks the image.
type Options struct {
	Border Border

	// Workers > 1 convolves tiles of TileRows output rows concurrently.
	Workers  int
	TileRows int
}

// rowTile is a band of output rows [y0, y1).
type rowTile struct {
	ID     int
	y0, y1 int
}

// Filter convolves src with k and returns a new plane of the same size.
// Samples are not clamped.
func Filter(src *common.Plane, k *Kernel, opts Options) (*common.Plane, error) {
	if src.Empty() {
		return nil, fmt.Errorf("%w: cannot filter an empty plane", common.ErrValue)
	}
	if k == nil || k.Size <= 0 || len(k.Weights) != k.Size*k.Size {
		return nil, fmt.Errorf("%w: invalid kernel", common.ErrValue)
	}

	dst := common.NewPlane(src.Width, src.Height)
	if k.Separable() {
		tmp := common.NewPlane(src.Width, src.Height)
		forEachTile(src.Height, opts, func(y0, y1 int) {
			horizontalPass(tmp, src, k.Taps, opts.Border, y0, y1)
		})
		forEachTile(src.Height, opts, func(y0, y1 int) {
			verticalPass(dst, tmp, k.Taps, opts.Border, y0, y1)
		})
		return dst, nil
	}

	forEachTile(src.Height, opts, func(y0, y1 int) {
		convolve2D(dst, src, k, opts.Border, y0, y1)
	})
	return dst, nil
}

// forEachTile runs fn over every band of rows, either inline or on a pool
// of opts.Workers goroutines fed from a tile queue.
func forEachTile(height int, opts Options, fn func(y0, y1 int)) {
	tileRows := opts.TileRows
	if tileRows <= 0 {
		tileRows = common.TILE_ROWS
	}
	if opts.Workers <= 1 || height <= tileRows {
		fn(0, height)
		return
	}

	numTiles := (height + tileRows - 1) / tileRows
	tileQueue := make(chan rowTile, numTiles)
	for id := 0; id < numTiles; id++ {
		y0 := id * tileRows
		tileQueue <- rowTile{ID: id, y0: y0, y1: min(y0+tileRows, height)}
	}
	close(tileQueue)

	var wg sync.WaitGroup
	for i := 0; i < min(opts.Workers, numTiles); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for tile := range tileQueue {
				fn(tile.y0, tile.y1)
			}
		}()
	}
	wg.Wait()
}

func convolve2D(dst, src *common.Plane, k *Kernel, border Border, y0, y1 int) {
	width := src.Width
	height := src.Height
	offset := k.Radius()

	for y := y0; y < y1; y++ {
		out := dst.Row(y)
		for x := 0; x < width; x++ {
			var sum float64
			for ky := 0; ky < k.Size; ky++ {
				sy := border.Index(y+ky-offset, height)
				row := src.Row(sy)
				weights := k.Weights[ky*k.Size : (ky+1)*k.Size]
				for kx, w := range weights {
					sum += row[border.Index(x+kx-offset, width)] * w
				}
			}
			out[x] = sum
		}
	}
}

func horizontalPass(dst, src *common.Plane, taps []float64, border Border, y0, y1 int) {
	width := src.Width
	offset := len(taps) / 2

	for y := y0; y < y1; y++ {
		in := src.Row(y)
		out := dst.Row(y)
		for x := 0; x < width; x++ {
			var sum float64
			for i, w := range taps {
				sum += in[border.Index(x+i-offset, width)] * w
			}
			out[x] = sum
		}
	}
}

func verticalPass(dst, src *common.Plane, taps []float64, border Border, y0, y1 int) {
	width := src.Width
	height := src.Height
	offset := len(taps) / 2

	for y := y0; y < y1; y++ {
		out := dst.Row(y)
		for i := range out {
			out[i] = 0
		}
		for i, w := range taps {
			in := src.Row(border.Index(y+i-offset, height))
			for x := 0; x < width; x++ {
				out[x] += in[x] * w
			}
		}
	}
}
