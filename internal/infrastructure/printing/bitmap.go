package printing

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"strconv"
	"strings"

	xdraw "golang.org/x/image/draw"
)

// Bitmap is a rasterized page
type Bitmap struct {
	Image  image.Image
	Width  int
	Height int
}

// NewBitmap wraps a decoded image
func NewBitmap(img image.Image) (*Bitmap, error) {
	if img == nil {
		return nil, NewCaptureError(ErrCodeInvalidBitmap, "bitmap image is nil", nil)
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, NewCaptureError(ErrCodeInvalidBitmap,
			fmt.Sprintf("bitmap has no area (%dx%d)", b.Dx(), b.Dy()), nil)
	}
	return &Bitmap{Image: img, Width: b.Dx(), Height: b.Dy()}, nil
}

// DecodeBitmap decodes a PNG or JPEG capture
func DecodeBitmap(data []byte) (*Bitmap, error) {
	if len(data) == 0 {
		return nil, NewCaptureError(ErrCodeInvalidBitmap, "capture is empty", nil)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, NewCaptureError(ErrCodeInvalidBitmap, "failed to decode capture", err)
	}
	return NewBitmap(img)
}

// NormalizeBitmap flattens the bitmap onto an opaque background and, when
// maxWidth is positive and smaller than the bitmap, scales it down to
// maxWidth keeping the aspect ratio. JPEG has no alpha channel so
// transparent areas would otherwise turn black.
func NormalizeBitmap(b *Bitmap, background color.Color, maxWidth int) (*Bitmap, error) {
	if b == nil || b.Image == nil {
		return nil, NewCaptureError(ErrCodeInvalidBitmap, "bitmap is nil", nil)
	}
	if background == nil {
		background = color.White
	}

	width, height := b.Width, b.Height
	if maxWidth > 0 && width > maxWidth {
		height = max(1, height*maxWidth/width)
		width = maxWidth
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)

	if width == b.Width && height == b.Height {
		draw.Draw(dst, dst.Bounds(), b.Image, b.Image.Bounds().Min, draw.Over)
	} else {
		xdraw.CatmullRom.Scale(dst, dst.Bounds(), b.Image, b.Image.Bounds(), xdraw.Over, nil)
	}

	return &Bitmap{Image: dst, Width: width, Height: height}, nil
}

// ParseHexColor parses #rgb or #rrggbb
func ParseHexColor(s string) (color.RGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return color.RGBA{}, NewCaptureError(ErrCodeInvalidBackground, "invalid color: "+s, nil)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, NewCaptureError(ErrCodeInvalidBackground, "invalid color: "+s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}
