// Package render adapts source images to a panel's native resolution.
// Color reduction stays with the panel drivers.
package render

import (
	"github.com/disintegration/imaging"
	"image"
	"image/color"
)

type Fit string

const (
	FitCover   Fit = "cover"
	FitContain Fit = "contain"
	FitStretch Fit = "stretch"
)

// Prepare rotates src clockwise by the given angle, then scales it to
// exactly fill bounds according to the fit mode.
func Prepare(src image.Image, bounds image.Rectangle, rotation int64, fit Fit) image.Image {
	switch rotation {
	case 90:
		src = imaging.Rotate270(src)
	case 180:
		src = imaging.Rotate180(src)
	case 270:
		src = imaging.Rotate90(src)
	}

	width, height := bounds.Dx(), bounds.Dy()
	switch fit {
	case FitContain:
		letterbox := imaging.New(width, height, color.White)
		return imaging.PasteCenter(letterbox, imaging.Fit(src, width, height, imaging.Lanczos))
	case FitStretch:
		return imaging.Resize(src, width, height, imaging.Lanczos)
	default:
		return imaging.Fill(src, width, height, imaging.Center, imaging.Lanczos)
	}
}
