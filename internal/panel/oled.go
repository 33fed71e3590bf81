package panel

import (
	"github.com/sirupsen/logrus"
	"image"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
)

const oledId = "ssd1306_i2c"

func init() {
	Register(oledId, openOled)
}

// oledPanel drives a ssd1306 oled on the first available i2c bus.
type oledPanel struct {
	bus i2c.BusCloser
	dev *ssd1306.Dev
}

func openOled(opts Options) (Panel, error) {
	if err := initHost(); err != nil {
		return nil, &DisplayError{Panel: oledId, Op: "open", Err: err}
	}

	bus, err := i2creg.Open("")
	if err != nil {
		return nil, &DisplayError{Panel: oledId, Op: "open", Err: err}
	}

	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		bus.Close()
		return nil, &DisplayError{Panel: oledId, Op: "open", Err: err}
	}
	dev.SetContrast(1)

	logrus.Debugf("Opened %s on %s", oledId, bus)

	return &oledPanel{bus: bus, dev: dev}, nil
}

func (p *oledPanel) Bounds() image.Rectangle {
	return p.dev.Bounds()
}

func (p *oledPanel) Render(img image.Image) error {
	if err := p.dev.Draw(p.dev.Bounds(), img, image.Point{}); err != nil {
		return &DisplayError{Panel: oledId, Op: "draw", Err: err}
	}
	return nil
}

func (p *oledPanel) Close() error {
	if err := p.dev.Halt(); err != nil {
		p.bus.Close()
		return &DisplayError{Panel: oledId, Op: "halt", Err: err}
	}
	if err := p.bus.Close(); err != nil {
		return &DisplayError{Panel: oledId, Op: "close", Err: err}
	}
	return nil
}

func (p *oledPanel) String() string {
	return oledId
}
