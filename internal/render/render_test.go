package render

import (
	"image"
	"image/color"
	"testing"
)

func TestPrepare_OutputMatchesPanelBounds(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 100, 50))
	bounds := image.Rect(0, 0, 212, 104)

	tests := []struct {
		name     string
		rotation int64
		fit      Fit
	}{
		{name: "cover", rotation: 0, fit: FitCover},
		{name: "contain", rotation: 0, fit: FitContain},
		{name: "stretch", rotation: 0, fit: FitStretch},
		{name: "cover rotated 90", rotation: 90, fit: FitCover},
		{name: "contain rotated 180", rotation: 180, fit: FitContain},
		{name: "stretch rotated 270", rotation: 270, fit: FitStretch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Prepare(src, bounds, tt.rotation, tt.fit)
			if out.Bounds().Dx() != bounds.Dx() || out.Bounds().Dy() != bounds.Dy() {
				t.Errorf("bounds = %v, want %dx%d", out.Bounds(), bounds.Dx(), bounds.Dy())
			}
		})
	}
}

func TestPrepare_RotatesClockwise(t *testing.T) {
	// Two pixels side by side: red left, blue right.
	src := image.NewRGBA(image.Rect(0, 0, 2, 1))
	src.Set(0, 0, color.RGBA{R: 255, A: 255})
	src.Set(1, 0, color.RGBA{B: 255, A: 255})

	out := Prepare(src, image.Rect(0, 0, 1, 2), 90, FitStretch)

	r, _, _, _ := out.At(0, 0).RGBA()
	if r>>8 < 200 {
		t.Errorf("top pixel after clockwise rotation = %v, want red", out.At(0, 0))
	}
	_, _, b, _ := out.At(0, 1).RGBA()
	if b>>8 < 200 {
		t.Errorf("bottom pixel after clockwise rotation = %v, want blue", out.At(0, 1))
	}
}

func TestPrepare_KeepsExactSizeSource(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 800, 480))
	out := Prepare(src, image.Rect(0, 0, 800, 480), 0, FitCover)
	if out.Bounds().Dx() != 800 || out.Bounds().Dy() != 480 {
		t.Errorf("bounds = %v, want 800x480", out.Bounds())
	}
}

func TestCard(t *testing.T) {
	bounds := image.Rect(0, 0, 250, 122)

	blank := Card(bounds)
	card := Card(bounds, "Battery low", "12%")

	if card.Bounds().Dx() != 250 || card.Bounds().Dy() != 122 {
		t.Fatalf("bounds = %v, want 250x122", card.Bounds())
	}

	r, g, bl, _ := card.At(0, 0).RGBA()
	if r>>8 < 200 || g>>8 < 200 || bl>>8 < 200 {
		t.Errorf("border pixel = %v, want white", card.At(0, 0))
	}

	if countWhite(card) <= countWhite(blank) {
		t.Error("text lines did not add any white pixels")
	}
}

func countWhite(img image.Image) int {
	count := 0
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if r, _, _, _ := img.At(x, y).RGBA(); r>>8 > 200 {
				count++
			}
		}
	}
	return count
}
