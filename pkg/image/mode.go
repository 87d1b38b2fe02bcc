package image

import (
	"github.com/sandrolain/imagemath/pkg/types"
)

// Mode is the representation tag of an image: how each pixel is stored.
type Mode string

// Supported modes.
const (
	ModeBit Mode = "1"   // bilevel, one byte per pixel holding 0 or 255
	ModeL   Mode = "L"   // 8-bit luminance
	ModeI   Mode = "I"   // 32-bit signed integer
	ModeF   Mode = "F"   // 32-bit floating point
	ModeRGB Mode = "RGB" // 3x8-bit true color
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	m := Mode(s)
	if !m.Valid() {
		return "", types.Errorf(types.ErrUnsupportedMode, "unsupported mode: %s", s)
	}
	return m, nil
}

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	switch m {
	case ModeBit, ModeL, ModeI, ModeF, ModeRGB:
		return true
	}
	return false
}

// Bands returns the number of samples per pixel.
func (m Mode) Bands() int {
	if m == ModeRGB {
		return 3
	}
	return 1
}

// String returns the mode name.
func (m Mode) String() string {
	return string(m)
}

// Size is the width and height of an image in pixels.
type Size struct {
	Width  int
	Height int
}

// Area returns the number of pixels.
func (s Size) Area() int {
	return s.Width * s.Height
}

// Min returns the element-wise minimum of s and o.
func (s Size) Min(o Size) Size {
	return Size{Width: min(s.Width, o.Width), Height: min(s.Height, o.Height)}
}

// Rect is a pixel rectangle. (X0, Y0) is inclusive, (X1, Y1) exclusive.
type Rect struct {
	X0, Y0, X1, Y1 int
}

// Size returns the dimensions of r. Inverted rectangles have zero size.
func (r Rect) Size() Size {
	return Size{Width: max(r.X1-r.X0, 0), Height: max(r.Y1-r.Y0, 0)}
}

// Empty reports whether r contains no pixels.
func (r Rect) Empty() bool {
	return r.Size().Area() == 0
}
