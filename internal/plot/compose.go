package plot

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"
)

// stackPNGs joins already-rendered panels into a single image, top to
// bottom
func stackPNGs(panels ...[]byte) ([]byte, error) {
	imgs := make([]image.Image, len(panels))
	width, height := 0, 0
	for i, p := range panels {
		img, err := png.Decode(bytes.NewReader(p))
		if err != nil {
			return nil, fmt.Errorf("failed to decode panel %d: %w", i, err)
		}
		imgs[i] = img
		if w := img.Bounds().Dx(); w > width {
			width = w
		}
		height += img.Bounds().Dy()
	}

	out := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(out, out.Bounds(), image.White, image.Point{}, draw.Src)
	y := 0
	for _, img := range imgs {
		b := img.Bounds()
		draw.Draw(out, image.Rect(0, y, b.Dx(), y+b.Dy()), img, b.Min, draw.Src)
		y += b.Dy()
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, fmt.Errorf("failed to encode composed image: %w", err)
	}
	return buf.Bytes(), nil
}
