package panel

import (
	"github.com/sirupsen/logrus"
	"image"
	"image/color"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/waveshare2in13v2"
)

const waveshareId = "waveshare_2in13_v2"

func init() {
	Register(waveshareId, openWaveshare)
}

type wavesharePanel struct {
	port spi.PortCloser
	dev  *waveshare2in13v2.Dev
}

func openWaveshare(opts Options) (Panel, error) {
	if err := initHost(); err != nil {
		return nil, &DisplayError{Panel: waveshareId, Op: "open", Err: err}
	}

	port, err := spireg.Open("")
	if err != nil {
		return nil, &DisplayError{Panel: waveshareId, Op: "open", Err: err}
	}

	dev, err := waveshare2in13v2.NewHat(port, &waveshare2in13v2.EPD2in13v2)
	if err != nil {
		port.Close()
		return nil, &DisplayError{Panel: waveshareId, Op: "open", Err: err}
	}

	if err = dev.Init(); err != nil {
		port.Close()
		return nil, &DisplayError{Panel: waveshareId, Op: "init", Err: err}
	}
	if err = dev.Clear(color.White); err != nil {
		port.Close()
		return nil, &DisplayError{Panel: waveshareId, Op: "clear", Err: err}
	}

	logrus.Debugf("Opened %s on %s", waveshareId, port)

	return &wavesharePanel{port: port, dev: dev}, nil
}

func (p *wavesharePanel) Bounds() image.Rectangle {
	return p.dev.Bounds()
}

func (p *wavesharePanel) Render(img image.Image) error {
	if err := p.dev.Draw(p.dev.Bounds(), img, image.Point{}); err != nil {
		return &DisplayError{Panel: waveshareId, Op: "draw", Err: err}
	}
	return nil
}

// Close puts the controller in deep sleep before releasing the spi port.
// The controller must not stay powered between refreshes.
func (p *wavesharePanel) Close() error {
	if err := p.dev.Sleep(); err != nil {
		p.port.Close()
		return &DisplayError{Panel: waveshareId, Op: "sleep", Err: err}
	}
	if err := p.port.Close(); err != nil {
		return &DisplayError{Panel: waveshareId, Op: "close", Err: err}
	}
	return nil
}

func (p *wavesharePanel) String() string {
	return waveshareId
}
