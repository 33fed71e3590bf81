package render

import (
	"github.com/hajimehoshi/bitmapfont/v2"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
	"image"
	"image/draw"
)

// bitmapfont.Face glyph metrics
const glyphWidth = 6
const lineHeight = 16

// Card draws white text lines centered on a black background sized to
// bounds, with a one pixel border to make the panel edges visible.
// Used for the test card and the low battery warning.
func Card(bounds image.Rectangle, lines ...string) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(img, img.Bounds(), image.Black, image.Point{}, draw.Src)

	b := img.Bounds()
	draw.Draw(img, image.Rect(b.Min.X, b.Min.Y, b.Max.X, b.Min.Y+1), image.White, image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(b.Min.X, b.Max.Y-1, b.Max.X, b.Max.Y), image.White, image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(b.Min.X, b.Min.Y, b.Min.X+1, b.Max.Y), image.White, image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(b.Max.X-1, b.Min.Y, b.Max.X, b.Max.Y), image.White, image.Point{}, draw.Src)

	top := (bounds.Dy()-len(lines)*lineHeight)/2 + 12
	for i, line := range lines {
		x := (bounds.Dx() - len(line)*glyphWidth) / 2
		if x < 0 {
			x = 0
		}
		addLabel(img, x, top+i*lineHeight, line)
	}
	return img
}

func addLabel(img *image.RGBA, x, y int, label string) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.White,
		Face: bitmapfont.Face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(label)
}
