package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"io/ioutil"
	"net/http"
	"time"
)

// Images larger than this fail to decode instead of exhausting memory.
const maxImageBytes = 32 << 20

const userAgent = "inkframe"

// HttpSource downloads the image with a single bounded GET request.
type HttpSource struct {
	Url    string
	client *http.Client
}

func NewHttpSource(url string, timeout time.Duration) *HttpSource {
	return &HttpSource{
		Url: url,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

func (s *HttpSource) Resolve(ctx context.Context) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.Url, nil)
	if err != nil {
		return nil, &FetchError{Url: s.Url, Err: err}
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &FetchError{Url: s.Url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, &FetchError{Url: s.Url, StatusCode: resp.StatusCode, Err: ErrNotFound}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{Url: s.Url, StatusCode: resp.StatusCode, Err: errors.New("unexpected status")}
	}

	data, err := ioutil.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, &FetchError{Url: s.Url, Err: fmt.Errorf("read body: %w", err)}
	}

	return decode(bytes.NewReader(data), s.Url)
}

func (s *HttpSource) String() string {
	return s.Url
}
