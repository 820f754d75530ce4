package hybrid

import (
	"fmt"
	"image"

	"go-hybrid/pkg/common"
	"go-hybrid/pkg/gray"
	"go-hybrid/pkg/imageio"
)

// Source is one pipeline input: either a file to decode or an image already
// in memory.
type Source struct {
	path string
	img  image.Image
}

// FromPath returns a Source that decodes the file at path when loaded.
func FromPath(path string) Source {
	return Source{path: path}
}

// FromImage returns a Source for an already decoded image. A nil or typed-nil
// image makes Load fail with common.ErrValue.
func FromImage(img image.Image) Source {
	if gray.IsNil(img) {
		img = nil
	}
	return Source{img: img}
}

// Path is empty for in-memory sources.
func (s Source) Path() string {
	return s.path
}

// Load returns the decoded image. No resizing or channel changes happen here.
func (s Source) Load() (image.Image, error) {
	if s.img != nil {
		return s.img, nil
	}
	if s.path == "" {
		return nil, fmt.Errorf("%w: source has neither a path nor an image", common.ErrValue)
	}

	img, _, err := imageio.Load(s.path)
	if err != nil {
		return nil, err
	}
	return img, nil
}

// String names the source for logs: its path, or its size when in memory.
func (s Source) String() string {
	if s.img != nil {
		b := s.img.Bounds()
		return fmt.Sprintf("image(%dx%d)", b.Dx(), b.Dy())
	}
	return s.path
}
