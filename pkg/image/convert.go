package image

import (
	"github.com/sandrolain/imagemath/pkg/types"
)

// Convert returns a copy of the image in the requested mode.
//
// Widening conversions (1/L to I, I to F) are exact. Narrowing conversions
// clip to the target range and truncate fractions. Conversion to 1
// thresholds at 128; conversion from RGB goes through ITU-R 601-2 luma;
// conversion to RGB replicates the 8-bit value in every band.
func (im *Image) Convert(mode Mode) (*Image, error) {
	if !mode.Valid() {
		return nil, types.Errorf(types.ErrUnsupportedMode, "cannot convert to unsupported mode: %s", mode)
	}
	if mode == im.mode {
		return im.Clone(), nil
	}
	_ = im.Load()

	out, err := New(mode, im.size)
	if err != nil {
		return nil, err
	}

	n := im.size.Area()
	switch mode {
	case ModeI:
		for i := 0; i < n; i++ {
			out.ints[i] = saturateInt32(im.sample(i))
		}
	case ModeF:
		for i := 0; i < n; i++ {
			out.floats[i] = float32(im.sample(i))
		}
	case ModeL:
		for i := 0; i < n; i++ {
			out.pix[i] = clip8(im.sample(i))
		}
	case ModeBit:
		for i := 0; i < n; i++ {
			if clip8(im.sample(i)) >= 128 {
				out.pix[i] = 255
			}
		}
	case ModeRGB:
		for i := 0; i < n; i++ {
			v := clip8(im.sample(i))
			out.pix[3*i], out.pix[3*i+1], out.pix[3*i+2] = v, v, v
		}
	}
	return out, nil
}
