// Package image provides the in-memory image values that image expressions
// operate on.
//
// An Image has a Mode and a Size and is treated as immutable: Convert and
// Crop return new images. Crop is lazy; the cropped pixels are copied on
// the first Load or pixel access. Kernels receive freshly allocated output
// images and write into their buffers through Bytes, Ints and Floats.
package image

import (
	"fmt"
	"math"
	"sync"

	"github.com/sandrolain/imagemath/pkg/types"
)

// Image is a single- or multi-band raster.
type Image struct {
	mode Mode
	size Size

	pix    []uint8   // ModeBit, ModeL, ModeRGB (interleaved)
	ints   []int32   // ModeI
	floats []float32 // ModeF

	// Pending crop, materialized by Load.
	once sync.Once
	src  *Image
	box  Rect
}

// New allocates a zero-filled image.
func New(mode Mode, size Size) (*Image, error) {
	if !mode.Valid() {
		return nil, types.Errorf(types.ErrUnsupportedMode, "unsupported mode: %s", mode)
	}
	if _, err := samples(size, mode.Bands()); err != nil {
		return nil, err
	}
	im := &Image{mode: mode, size: size}
	im.alloc()
	return im, nil
}

// NewFilled allocates an image with every sample set to value.
// ModeI truncates toward zero, ModeL clips to 0..255, ModeBit maps any
// non-zero value to 255.
func NewFilled(mode Mode, size Size, value float64) (*Image, error) {
	im, err := New(mode, size)
	if err != nil {
		return nil, err
	}
	switch mode {
	case ModeI:
		v := saturateInt32(value)
		for i := range im.ints {
			im.ints[i] = v
		}
	case ModeF:
		v := float32(value)
		for i := range im.floats {
			im.floats[i] = v
		}
	case ModeBit:
		var v uint8
		if value != 0 {
			v = 255
		}
		fillBytes(im.pix, v)
	default:
		fillBytes(im.pix, clip8(math.Trunc(value)))
	}
	return im, nil
}

// FromInts wraps a row-major int32 buffer as a ModeI image.
// The slice is used directly and must not be modified afterwards.
func FromInts(size Size, data []int32) (*Image, error) {
	if err := checkBuffer(size, 1, len(data)); err != nil {
		return nil, err
	}
	im := &Image{mode: ModeI, size: size, ints: data}
	return im, nil
}

// FromFloats wraps a row-major float32 buffer as a ModeF image.
// The slice is used directly and must not be modified afterwards.
func FromFloats(size Size, data []float32) (*Image, error) {
	if err := checkBuffer(size, 1, len(data)); err != nil {
		return nil, err
	}
	im := &Image{mode: ModeF, size: size, floats: data}
	return im, nil
}

// FromBytes wraps a row-major byte buffer as a ModeBit, ModeL or ModeRGB
// image. ModeBit samples are normalized to 0 or 255.
func FromBytes(mode Mode, size Size, data []uint8) (*Image, error) {
	switch mode {
	case ModeBit, ModeL, ModeRGB:
	default:
		return nil, types.Errorf(types.ErrUnsupportedMode, "mode %s is not byte oriented", mode)
	}
	if err := checkBuffer(size, mode.Bands(), len(data)); err != nil {
		return nil, err
	}
	if mode == ModeBit {
		for i, v := range data {
			if v != 0 {
				data[i] = 255
			}
		}
	}
	im := &Image{mode: mode, size: size, pix: data}
	return im, nil
}

// samples returns the number of samples an image of size with the given
// bands holds, failing when the dimensions are negative or the count
// does not fit in an int.
func samples(size Size, bands int) (int, error) {
	if size.Width < 0 || size.Height < 0 {
		return 0, fmt.Errorf("invalid image size %dx%d", size.Width, size.Height)
	}
	if size.Width != 0 && size.Height > math.MaxInt/size.Width/bands {
		return 0, fmt.Errorf("image size %dx%d is too large", size.Width, size.Height)
	}
	return size.Area() * bands, nil
}

func checkBuffer(size Size, bands, n int) error {
	want, err := samples(size, bands)
	if err != nil {
		return err
	}
	if n != want {
		return fmt.Errorf("buffer holds %d samples, want %d", n, want)
	}
	return nil
}

// Mode returns the representation tag.
func (im *Image) Mode() Mode {
	return im.mode
}

// Size returns the image dimensions.
func (im *Image) Size() Size {
	return im.size
}

// Width returns the image width.
func (im *Image) Width() int {
	return im.size.Width
}

// Height returns the image height.
func (im *Image) Height() int {
	return im.size.Height
}

// Load materializes pending work (a lazy crop). It is safe to call
// repeatedly and from multiple goroutines.
func (im *Image) Load() error {
	im.once.Do(im.materialize)
	return nil
}

// Bytes returns the sample buffer of a ModeBit, ModeL or ModeRGB image.
func (im *Image) Bytes() []uint8 {
	_ = im.Load()
	return im.pix
}

// Ints returns the sample buffer of a ModeI image.
func (im *Image) Ints() []int32 {
	_ = im.Load()
	return im.ints
}

// Floats returns the sample buffer of a ModeF image.
func (im *Image) Floats() []float32 {
	_ = im.Load()
	return im.floats
}

// At returns the sample at (x, y). For ModeRGB it returns the luma value.
// Out-of-range coordinates return 0.
func (im *Image) At(x, y int) float64 {
	if x < 0 || y < 0 || x >= im.size.Width || y >= im.size.Height {
		return 0
	}
	_ = im.Load()
	return im.sample(y*im.size.Width + x)
}

// RGBAt returns the three bands of the pixel at (x, y).
// Single-band images report the sample clipped to 8 bits in every band.
func (im *Image) RGBAt(x, y int) (r, g, b uint8) {
	if x < 0 || y < 0 || x >= im.size.Width || y >= im.size.Height {
		return 0, 0, 0
	}
	_ = im.Load()
	i := y*im.size.Width + x
	if im.mode == ModeRGB {
		return im.pix[3*i], im.pix[3*i+1], im.pix[3*i+2]
	}
	v := clip8(im.sample(i))
	return v, v, v
}

// Crop returns the rectangle r of the image. Areas of r outside the image
// are zero. The copy is deferred until the result is loaded.
func (im *Image) Crop(r Rect) *Image {
	return &Image{mode: im.mode, size: r.Size(), src: im, box: r}
}

// BBox returns the bounding box of the non-zero pixels. ok is false when
// every pixel is zero.
func (im *Image) BBox() (box Rect, ok bool) {
	_ = im.Load()
	w, h := im.size.Width, im.size.Height
	box = Rect{X0: w, Y0: h}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if !im.nonZero(y*w + x) {
				continue
			}
			ok = true
			box.X0 = min(box.X0, x)
			box.Y0 = min(box.Y0, y)
			box.X1 = max(box.X1, x+1)
			box.Y1 = max(box.Y1, y+1)
		}
	}
	if !ok {
		return Rect{}, false
	}
	return box, true
}

// IsEmpty reports whether every pixel is zero.
func (im *Image) IsEmpty() bool {
	_, ok := im.BBox()
	return !ok
}

// Clone returns a deep copy.
func (im *Image) Clone() *Image {
	_ = im.Load()
	c := &Image{mode: im.mode, size: im.size}
	c.pix = append([]uint8(nil), im.pix...)
	c.ints = append([]int32(nil), im.ints...)
	c.floats = append([]float32(nil), im.floats...)
	return c
}

// Equal reports whether two images have the same mode, size and samples.
func (im *Image) Equal(o *Image) bool {
	if im == o {
		return true
	}
	if o == nil || im.mode != o.mode || im.size != o.size {
		return false
	}
	_ = im.Load()
	_ = o.Load()
	switch im.mode {
	case ModeI:
		for i := range im.ints {
			if im.ints[i] != o.ints[i] {
				return false
			}
		}
	case ModeF:
		for i := range im.floats {
			if im.floats[i] != o.floats[i] {
				return false
			}
		}
	default:
		for i := range im.pix {
			if im.pix[i] != o.pix[i] {
				return false
			}
		}
	}
	return true
}

// String describes the image without its pixels.
func (im *Image) String() string {
	return fmt.Sprintf("<image mode=%s size=%dx%d>", im.mode, im.size.Width, im.size.Height)
}

func (im *Image) alloc() {
	n := im.size.Area()
	switch im.mode {
	case ModeI:
		im.ints = make([]int32, n)
	case ModeF:
		im.floats = make([]float32, n)
	default:
		im.pix = make([]uint8, n*im.mode.Bands())
	}
}

// materialize copies a pending crop out of its source.
func (im *Image) materialize() {
	if im.src == nil {
		return
	}
	src := im.src
	_ = src.Load()
	im.alloc()

	bands := im.mode.Bands()
	sw, sh := src.size.Width, src.size.Height
	for y := 0; y < im.size.Height; y++ {
		sy := im.box.Y0 + y
		if sy < 0 || sy >= sh {
			continue
		}
		for x := 0; x < im.size.Width; x++ {
			sx := im.box.X0 + x
			if sx < 0 || sx >= sw {
				continue
			}
			di, si := y*im.size.Width+x, sy*sw+sx
			switch im.mode {
			case ModeI:
				im.ints[di] = src.ints[si]
			case ModeF:
				im.floats[di] = src.floats[si]
			default:
				copy(im.pix[di*bands:(di+1)*bands], src.pix[si*bands:(si+1)*bands])
			}
		}
	}
	im.src = nil
}

// sample returns pixel i as a float64; ModeRGB yields luma.
func (im *Image) sample(i int) float64 {
	switch im.mode {
	case ModeI:
		return float64(im.ints[i])
	case ModeF:
		return float64(im.floats[i])
	case ModeRGB:
		return float64(luma(im.pix[3*i], im.pix[3*i+1], im.pix[3*i+2]))
	default:
		return float64(im.pix[i])
	}
}

func (im *Image) nonZero(i int) bool {
	switch im.mode {
	case ModeI:
		return im.ints[i] != 0
	case ModeF:
		return im.floats[i] != 0
	case ModeRGB:
		return im.pix[3*i] != 0 || im.pix[3*i+1] != 0 || im.pix[3*i+2] != 0
	default:
		return im.pix[i] != 0
	}
}

func fillBytes(buf []uint8, v uint8) {
	for i := range buf {
		buf[i] = v
	}
}

// clip8 clamps v to the 0..255 range.
func clip8(v float64) uint8 {
	switch {
	case math.IsNaN(v), v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(v)
	}
}

// saturateInt32 truncates toward zero and clamps to the int32 range.
func saturateInt32(v float64) int32 {
	switch {
	case math.IsNaN(v):
		return 0
	case v >= math.MaxInt32:
		return math.MaxInt32
	case v <= math.MinInt32:
		return math.MinInt32
	default:
		return int32(v)
	}
}

// luma computes ITU-R 601-2 luminance with 16-bit fixed point weights.
func luma(r, g, b uint8) uint8 {
	return uint8((uint32(r)*19595 + uint32(g)*38470 + uint32(b)*7471 + 0x8000) >> 16)
}

// ClipByte clamps v to 0..255, truncating fractions. NaN maps to 0.
func ClipByte(v float64) uint8 { return clip8(v) }

// SaturateInt32 truncates v toward zero and clamps it to the int32 range.
// NaN maps to 0.
func SaturateInt32(v float64) int32 { return saturateInt32(v) }
