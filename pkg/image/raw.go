package image

import (
	"fmt"

	"github.com/sandrolain/imagemath/pkg/types"
)

// Raw is a plain description of an image, suitable for JSON transport.
// Pixels are row-major; RGB images interleave their three bands.
type Raw struct {
	Mode   Mode      `json:"mode"`
	Width  int       `json:"width"`
	Height int       `json:"height"`
	Pixels []float64 `json:"pixels"`
}

// FromRaw builds an image from r. Samples are converted the way NewFilled
// converts its value.
func FromRaw(r Raw) (*Image, error) {
	if !r.Mode.Valid() {
		return nil, types.Errorf(types.ErrUnsupportedMode, "unsupported mode: %s", r.Mode)
	}
	size := Size{Width: r.Width, Height: r.Height}
	want, err := samples(size, r.Mode.Bands())
	if err != nil {
		return nil, err
	}
	if len(r.Pixels) != want {
		return nil, fmt.Errorf("image %dx%d mode %s needs %d samples, got %d",
			r.Width, r.Height, r.Mode, want, len(r.Pixels))
	}
	im, err := New(r.Mode, size)
	if err != nil {
		return nil, err
	}
	for i, v := range r.Pixels {
		switch r.Mode {
		case ModeI:
			im.ints[i] = saturateInt32(v)
		case ModeF:
			im.floats[i] = float32(v)
		case ModeBit:
			if v != 0 {
				im.pix[i] = 255
			}
		default:
			im.pix[i] = clip8(v)
		}
	}
	return im, nil
}

// Raw returns the plain description of the image.
func (im *Image) Raw() Raw {
	_ = im.Load()
	r := Raw{Mode: im.mode, Width: im.size.Width, Height: im.size.Height}
	switch im.mode {
	case ModeI:
		r.Pixels = make([]float64, len(im.ints))
		for i, v := range im.ints {
			r.Pixels[i] = float64(v)
		}
	case ModeF:
		r.Pixels = make([]float64, len(im.floats))
		for i, v := range im.floats {
			r.Pixels[i] = float64(v)
		}
	default:
		r.Pixels = make([]float64, len(im.pix))
		for i, v := range im.pix {
			r.Pixels[i] = float64(v)
		}
	}
	return r
}
