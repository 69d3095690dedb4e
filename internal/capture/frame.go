package capture

import (
	"bytes"
	"image"
	"image/draw"
	"image/jpeg"
	"image/png"

	"github.com/nfnt/resize"
)

const (
	previewMaxWidth  = 320
	previewMaxHeight = 180
)

// mirrorHorizontal flips the frame left-to-right. Frames from the
// user-facing camera are mirrored so the captured image matches the
// mirrored live preview.
func mirrorHorizontal(src image.Image) image.Image {
	bounds := src.Bounds()
	dst := image.NewRGBA(bounds)
	draw.Draw(dst, bounds, src, bounds.Min, draw.Src)
	width := bounds.Dx()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := 0; x < width/2; x++ {
			left := bounds.Min.X + x
			right := bounds.Max.X - 1 - x
			l := dst.RGBAAt(left, y)
			dst.SetRGBA(left, y, dst.RGBAAt(right, y))
			dst.SetRGBA(right, y, l)
		}
	}
	return dst
}

// encodePNG encodes the frame losslessly at its native resolution.
func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// thumbnailJPEG downsizes the frame to a small preview suitable for display
// in a recipe card or capture confirmation.
func thumbnailJPEG(img image.Image) ([]byte, error) {
	thumb := resize.Thumbnail(previewMaxWidth, previewMaxHeight, img, resize.Lanczos3)
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: 80}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
