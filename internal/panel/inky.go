package panel

import (
	"errors"
	"fmt"
	"github.com/sirupsen/logrus"
	"image"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/inky"
)

const (
	inkyPhatId = "inky_phat"
	inkyWhatId = "inky_what"
)

// Pin assignment of the pimoroni hats.
const (
	inkyDcPin    = "GPIO22"
	inkyResetPin = "GPIO27"
	inkyBusyPin  = "GPIO17"
)

func init() {
	Register(inkyPhatId, func(opts Options) (Panel, error) {
		return openInky(inkyPhatId, inky.PHAT, opts)
	})
	Register(inkyWhatId, func(opts Options) (Panel, error) {
		return openInky(inkyWhatId, inky.WHAT, opts)
	})
}

type inkyPanel struct {
	id   string
	port spi.PortCloser
	dev  *inky.Dev
}

func openInky(id string, model inky.Model, opts Options) (Panel, error) {
	modelColor, err := inkyColor(opts.Color, inky.Black)
	if err != nil {
		return nil, &DisplayError{Panel: id, Op: "open", Err: err}
	}

	if err = initHost(); err != nil {
		return nil, &DisplayError{Panel: id, Op: "open", Err: err}
	}

	port, err := spireg.Open("")
	if err != nil {
		return nil, &DisplayError{Panel: id, Op: "open", Err: err}
	}

	dc := gpioreg.ByName(inkyDcPin)
	reset := gpioreg.ByName(inkyResetPin)
	busy := gpioreg.ByName(inkyBusyPin)
	if dc == nil || reset == nil || busy == nil {
		port.Close()
		return nil, &DisplayError{Panel: id, Op: "open", Err: errors.New("gpio pins not available")}
	}

	dev, err := inky.New(port, dc, reset, busy, &inky.Opts{
		Model:       model,
		ModelColor:  modelColor,
		BorderColor: inky.White,
	})
	if err != nil {
		port.Close()
		return nil, &DisplayError{Panel: id, Op: "open", Err: err}
	}

	logrus.Debugf("Opened %s with color model %s", id, modelColor)

	return &inkyPanel{id: id, port: port, dev: dev}, nil
}

func inkyColor(name string, def inky.Color) (inky.Color, error) {
	switch name {
	case "":
		return def, nil
	case "black":
		return inky.Black, nil
	case "white":
		return inky.White, nil
	case "red":
		return inky.Red, nil
	case "yellow":
		return inky.Yellow, nil
	}
	return def, fmt.Errorf("unknown color %s, expected black, white, red or yellow", name)
}

func (p *inkyPanel) Bounds() image.Rectangle {
	return p.dev.Bounds()
}

func (p *inkyPanel) Render(img image.Image) error {
	if err := p.dev.Draw(p.dev.Bounds(), img, image.Point{}); err != nil {
		return &DisplayError{Panel: p.id, Op: "draw", Err: err}
	}
	return nil
}

// Close releases the spi port. The panel keeps its picture without power,
// there is no sleep sequence to run.
func (p *inkyPanel) Close() error {
	if err := p.port.Close(); err != nil {
		return &DisplayError{Panel: p.id, Op: "close", Err: err}
	}
	return nil
}

func (p *inkyPanel) String() string {
	return p.id
}
