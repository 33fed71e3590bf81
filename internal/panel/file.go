package panel

import (
	"errors"
	"github.com/sirupsen/logrus"
	"image"
	"image/png"
	"os"
)

const pngId = "png"

func init() {
	Register(pngId, openPng)
}

// pngPanel writes each picture to a file instead of driving hardware,
// for headless setups where another program picks the file up.
type pngPanel struct {
	output string
	bounds image.Rectangle
}

func openPng(opts Options) (Panel, error) {
	if opts.Output == "" {
		return nil, &DisplayError{Panel: pngId, Op: "open", Err: errors.New("display.output is required")}
	}

	width, height := opts.Width, opts.Height
	if width <= 0 {
		width = defaultWidth
	}
	if height <= 0 {
		height = defaultHeight
	}

	return &pngPanel{
		output: opts.Output,
		bounds: image.Rect(0, 0, int(width), int(height)),
	}, nil
}

func (p *pngPanel) Bounds() image.Rectangle {
	return p.bounds
}

func (p *pngPanel) Render(img image.Image) error {
	file, err := os.Create(p.output)
	if err != nil {
		return &DisplayError{Panel: pngId, Op: "write", Err: err}
	}
	if err = png.Encode(file, img); err != nil {
		file.Close()
		return &DisplayError{Panel: pngId, Op: "write", Err: err}
	}
	if err = file.Close(); err != nil {
		return &DisplayError{Panel: pngId, Op: "write", Err: err}
	}

	logrus.Debugf("Wrote %s", p.output)

	return nil
}

func (p *pngPanel) Close() error {
	return nil
}

func (p *pngPanel) String() string {
	return pngId
}
