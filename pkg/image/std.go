package image

import (
	stdimage "image"
	"image/color"
)

// FromStd converts a standard library image. Gray images become ModeL,
// 16-bit gray images ModeI, everything else ModeRGB (alpha is dropped).
// The result is anchored at (0, 0) regardless of the source bounds.
func FromStd(src stdimage.Image) *Image {
	b := src.Bounds()
	size := Size{Width: b.Dx(), Height: b.Dy()}

	switch s := src.(type) {
	case *stdimage.Gray:
		im, _ := New(ModeL, size)
		for y := 0; y < size.Height; y++ {
			off := s.PixOffset(b.Min.X, b.Min.Y+y)
			copy(im.pix[y*size.Width:(y+1)*size.Width], s.Pix[off:off+size.Width])
		}
		return im
	case *stdimage.Gray16:
		im, _ := New(ModeI, size)
		for y := 0; y < size.Height; y++ {
			for x := 0; x < size.Width; x++ {
				im.ints[y*size.Width+x] = int32(s.Gray16At(b.Min.X+x, b.Min.Y+y).Y)
			}
		}
		return im
	}

	im, _ := New(ModeRGB, size)
	for y := 0; y < size.Height; y++ {
		for x := 0; x < size.Width; x++ {
			c := color.NRGBAModel.Convert(src.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			i := 3 * (y*size.Width + x)
			im.pix[i], im.pix[i+1], im.pix[i+2] = c.R, c.G, c.B
		}
	}
	return im
}

// ToStd converts the image for encoding with the standard library codecs.
// ModeRGB becomes *image.RGBA; every other mode becomes *image.Gray with
// samples clipped to 0..255.
func (im *Image) ToStd() stdimage.Image {
	_ = im.Load()
	r := stdimage.Rect(0, 0, im.size.Width, im.size.Height)

	if im.mode == ModeRGB {
		dst := stdimage.NewRGBA(r)
		for i := 0; i < im.size.Area(); i++ {
			copy(dst.Pix[4*i:4*i+3], im.pix[3*i:3*i+3])
			dst.Pix[4*i+3] = 0xff
		}
		return dst
	}

	dst := stdimage.NewGray(r)
	for i := 0; i < im.size.Area(); i++ {
		dst.Pix[i] = clip8(im.sample(i))
	}
	return dst
}
