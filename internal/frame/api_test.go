package frame

import (
	"encoding/json"
	"errors"
	"github.com/velotales/inkframe/apimodel"
	"github.com/velotales/inkframe/internal/frame/config"
	"github.com/velotales/inkframe/internal/version"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"
)

func testApi(t *testing.T) (*Api, *httptest.Server) {
	t.Helper()
	dir := t.TempDir()
	frameConfig := &config.FrameConfig{
		ConfigDir: dir,
		FrameParam: &config.FrameParam{
			DisplayParam: config.DisplayParam{Panel: "png", Fit: "cover"},
			SourceParam:  config.SourceParam{Path: "picture.png", TimeoutSeconds: 10},
			ApiParam:     config.ApiParam{Enabled: true, SslPort: 8443, ApiKey: "secret"},
		},
		FrameState: config.NewFrameState(filepath.Join(dir, "state.yaml")),
	}

	api := NewApi(frameConfig)
	server := httptest.NewServer(api.server.Handler)
	t.Cleanup(server.Close)

	return api, server
}

func callApi(t *testing.T, server *httptest.Server, method string, path string, key string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, server.URL+path, nil)
	if err != nil {
		t.Fatalf("Unable to build request: %v", err)
	}
	if key != "" {
		req.Header.Set("x-api-key", key)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })

	return resp
}

func TestApiRejectsMissingKey(t *testing.T) {
	_, server := testApi(t)

	resp := callApi(t, server, "GET", "/api/status", "")
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("status = %d, expected %d", resp.StatusCode, http.StatusForbidden)
	}

	var errorMessage apimodel.ErrorMessage
	if err := json.NewDecoder(resp.Body).Decode(&errorMessage); err != nil {
		t.Fatalf("Unable to decode error message: %v", err)
	}
	if errorMessage.ErrMessage != "Forbidden" {
		t.Fatalf("message = %q, expected Forbidden", errorMessage.ErrMessage)
	}
}

func TestApiIsAlive(t *testing.T) {
	_, server := testApi(t)

	resp := callApi(t, server, "GET", "/api/is_alive", "secret")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, expected %d", resp.StatusCode, http.StatusOK)
	}
}

func TestApiStatus(t *testing.T) {
	api, server := testApi(t)

	refreshedAt := time.Date(2021, 6, 26, 16, 9, 34, 0, time.UTC)
	api.config.FrameState.SetLastRefresh(refreshedAt)
	api.config.FrameState.SetBatteryLevel(77)
	api.config.FrameState.SetPowerPlugged(true)

	resp := callApi(t, server, "GET", "/api/status", "secret")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, expected %d", resp.StatusCode, http.StatusOK)
	}

	var status apimodel.FrameStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		t.Fatalf("Unable to decode status: %v", err)
	}
	if status.Version != version.App.String() {
		t.Fatalf("version = %q, expected %q", status.Version, version.App.String())
	}
	if status.Panel != "png" {
		t.Fatalf("panel = %q, expected png", status.Panel)
	}
	if status.BatteryLevel != 77 {
		t.Fatalf("battery level = %d, expected 77", status.BatteryLevel)
	}
	if !status.PowerPlugged {
		t.Fatalf("power plugged was not reported")
	}
	if status.LastRefresh != refreshedAt.Format(time.RFC3339) {
		t.Fatalf("last refresh = %q, expected %q", status.LastRefresh, refreshedAt.Format(time.RFC3339))
	}
	if status.NextWake != "" {
		t.Fatalf("next wake = %q, expected empty before the first alarm", status.NextWake)
	}
}

func TestApiRefresh(t *testing.T) {
	api, server := testApi(t)

	go func() {
		ev := <-api.EventChannel()
		ev.Result <- nil
	}()

	resp := callApi(t, server, "POST", "/api/refresh", "secret")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, expected %d", resp.StatusCode, http.StatusOK)
	}
}

func TestApiRefreshFailure(t *testing.T) {
	api, server := testApi(t)

	go func() {
		ev := <-api.EventChannel()
		ev.Result <- errors.New("panel gone")
	}()

	resp := callApi(t, server, "POST", "/api/refresh", "secret")
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, expected %d", resp.StatusCode, http.StatusServiceUnavailable)
	}

	var errorMessage apimodel.ErrorMessage
	if err := json.NewDecoder(resp.Body).Decode(&errorMessage); err != nil {
		t.Fatalf("Unable to decode error message: %v", err)
	}
	if errorMessage.ErrMessage != "panel gone" {
		t.Fatalf("message = %q, expected the refresh error", errorMessage.ErrMessage)
	}
}

func TestApiUnknownPath(t *testing.T) {
	_, server := testApi(t)

	resp := callApi(t, server, "GET", "/api/pictures", "secret")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, expected %d", resp.StatusCode, http.StatusNotFound)
	}

	var errorMessage apimodel.ErrorMessage
	if err := json.NewDecoder(resp.Body).Decode(&errorMessage); err != nil {
		t.Fatalf("Unable to decode error message: %v", err)
	}
	if errorMessage.ErrMessage != "Page not found" {
		t.Fatalf("message = %q, expected Page not found", errorMessage.ErrMessage)
	}
}
