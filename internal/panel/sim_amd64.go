package panel

import (
	"gioui.org/app"
	"gioui.org/io/system"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/paint"
	"gioui.org/unit"
	"gioui.org/widget"
	"github.com/sirupsen/logrus"
	"image"
	"image/draw"
	"sync"
)

const simulatorId = "simulator"

func init() {
	Register(simulatorId, openSimulator)
}

// simulatorPanel shows the picture in a desktop window. The hat drivers
// cover the target hardware, so this one only exists on amd64.
type simulatorPanel struct {
	lock    sync.RWMutex
	lastImg image.Image

	bounds image.Rectangle
	window *app.Window
}

func openSimulator(opts Options) (Panel, error) {
	width, height := opts.Width, opts.Height
	if width <= 0 {
		width = defaultWidth
	}
	if height <= 0 {
		height = defaultHeight
	}

	p := &simulatorPanel{
		bounds: image.Rect(0, 0, int(width), int(height)),
	}

	blank := image.NewRGBA(p.bounds)
	draw.Draw(blank, blank.Bounds(), image.White, image.Point{}, draw.Src)
	p.lastImg = blank

	p.window = app.NewWindow(
		app.Title("inkframe"),
		app.Size(unit.Px(float32(width)), unit.Px(float32(height))),
	)
	go func() {
		if err := p.gioloop(); err != nil {
			logrus.Fatalf("Simulation window: %v", err)
		}
	}()
	go app.Main()

	return p, nil
}

func (p *simulatorPanel) gioloop() error {
	var ops op.Ops
	for {
		e := <-p.window.Events()
		switch e := e.(type) {
		case system.DestroyEvent:
			return e.Err
		case system.FrameEvent:
			gtx := layout.NewContext(&ops, e)

			p.lock.RLock()
			lastImg := p.lastImg
			p.lock.RUnlock()

			img := widget.Image{Src: paint.NewImageOp(lastImg), Fit: widget.Contain}
			img.Layout(gtx)
			e.Frame(gtx.Ops)
		}
	}
}

func (p *simulatorPanel) Bounds() image.Rectangle {
	return p.bounds
}

func (p *simulatorPanel) Render(img image.Image) error {
	p.lock.Lock()
	p.lastImg = img
	p.lock.Unlock()

	p.window.Invalidate()
	return nil
}

func (p *simulatorPanel) Close() error {
	p.window.Close()
	return nil
}

func (p *simulatorPanel) String() string {
	return simulatorId
}
