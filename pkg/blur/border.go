package blur

import (
	"fmt"

	"go-hybrid/pkg/common"
)

// Border decides which source sample a tap outside the image reads.
type Border int

const (
	// Replicate repeats the edge sample: aaa|abcdefgh|hhh
	Replicate Border = iota
	// Reflect101 mirrors around the edge sample without repeating it: dcb|abcd...
	Reflect101
)

func (b Border) String() string {
	switch b {
	case Replicate:
		return "replicate"
	case Reflect101:
		return "reflect101"
	default:
		return fmt.Sprintf("Border(%d)", int(b))
	}
}

// ParseBorder maps "replicate" or "reflect101" to a Border.
func ParseBorder(s string) (Border, error) {
	switch s {
	case "replicate", "clamp", "":
		return Replicate, nil
	case "reflect101", "default":
		return Reflect101, nil
	default:
		return 0, fmt.Errorf("%w: unknown border mode %q", common.ErrValue, s)
	}
}

// Index maps i onto [0, n).
func (b Border) Index(i, n int) int {
	if i >= 0 && i < n {
		return i
	}
	if n == 1 {
		return 0
	}

	switch b {
	case Reflect101:
		period := 2 * (n - 1)
		i %= period
		if i < 0 {
			i += period
		}
		if i >= n {
			i = period - i
		}
		return i
	default:
		if i < 0 {
			return 0
		}
		return n - 1
	}
}
