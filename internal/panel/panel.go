// Package panel drives the display attached to the frame. Every supported
// display registers itself under a short identifier, the rest of the
// application only deals with the Panel interface.
package panel

import (
	"fmt"
	"image"
	"periph.io/x/host/v3"
	"sort"
	"strings"
	"sync"
)

// Panel is an open display ready to show pictures. Implementations are not
// safe for concurrent use.
type Panel interface {
	// Bounds returns the native resolution of the display.
	Bounds() image.Rectangle

	// Render shows img on the display. img must already match Bounds,
	// color quantization is left to the driver.
	Render(img image.Image) error

	// Close releases the underlying bus, putting the display to sleep
	// first when the hardware needs it.
	Close() error

	String() string
}

// Options carries the display parameters a driver may need to open its
// panel. Hardware panels ignore the fields their controller fixes.
type Options struct {
	Color  string
	Output string
	Width  int64
	Height int64
}

// Resolution used by the virtual panels when the param file gives none.
const (
	defaultWidth  = 800
	defaultHeight = 480
)

// DisplayError reports a failed display operation.
type DisplayError struct {
	Panel string
	Op    string
	Err   error
}

func (e *DisplayError) Error() string {
	return fmt.Sprintf("panel %s: %s: %v", e.Panel, e.Op, e.Err)
}

func (e *DisplayError) Unwrap() error {
	return e.Err
}

// OpenFunc opens a concrete panel.
type OpenFunc func(opts Options) (Panel, error)

var (
	registryLock sync.Mutex
	registry     = map[string]OpenFunc{}
)

// Register makes a panel available under the given identifier. It is meant
// to be called from an init function and panics on a duplicate identifier.
func Register(id string, open OpenFunc) {
	registryLock.Lock()
	defer registryLock.Unlock()

	if _, ok := registry[id]; ok {
		panic("panel: duplicate registration of " + id)
	}
	registry[id] = open
}

// Open opens the panel registered under id.
func Open(id string, opts Options) (Panel, error) {
	registryLock.Lock()
	open, ok := registry[id]
	registryLock.Unlock()

	if !ok {
		return nil, &DisplayError{
			Panel: id,
			Op:    "open",
			Err:   fmt.Errorf("unknown panel, expected one of %s", strings.Join(Names(), ", ")),
		}
	}
	return open(opts)
}

// Names returns the identifiers of the panels this build supports.
func Names() []string {
	registryLock.Lock()
	defer registryLock.Unlock()

	names := make([]string, 0, len(registry))
	for id := range registry {
		names = append(names, id)
	}
	sort.Strings(names)
	return names
}

var (
	hostOnce sync.Once
	hostErr  error
)

// initHost loads the periph host drivers, once per process.
func initHost() error {
	hostOnce.Do(func() {
		_, hostErr = host.Init()
	})
	return hostErr
}
