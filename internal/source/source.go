// Package source acquires the image to display, either from a local
// file or from a remote url. Acquisition is a single attempt: the next
// scheduled wake up is the retry.
package source

import (
	"context"
	"errors"
	"fmt"
	"github.com/sirupsen/logrus"
	_ "golang.org/x/image/bmp"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
)

// ErrNotFound reports a missing local file or a remote 404.
var ErrNotFound = errors.New("image not found")

// FetchError reports a failed remote download. StatusCode is zero when
// the request never completed (network error, timeout).
type FetchError struct {
	Url        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d: %v", e.Url, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.Url, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// DecodeError reports bytes that are not a decodable image.
type DecodeError struct {
	Source string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Source, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Source yields the image to display, one per refresh cycle.
type Source interface {
	Resolve(ctx context.Context) (image.Image, error)
	String() string
}

// FileSource reads the image from a local path.
type FileSource struct {
	Path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

func (s *FileSource) Resolve(ctx context.Context) (image.Image, error) {
	file, err := os.Open(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("local image %s: %w", s.Path, ErrNotFound)
		}
		return nil, fmt.Errorf("local image %s: %w", s.Path, err)
	}
	defer file.Close()

	return decode(file, s.Path)
}

func (s *FileSource) String() string {
	return s.Path
}

func decode(r io.Reader, name string) (image.Image, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, &DecodeError{Source: name, Err: err}
	}
	bounds := img.Bounds()
	logrus.Debugf("Decoded %s image %dx%d from %s", format, bounds.Dx(), bounds.Dy(), name)
	return img, nil
}
