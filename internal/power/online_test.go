package power

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWaitOnline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	if !WaitOnline(context.Background(), server.URL, 0) {
		t.Error("expected to be online")
	}
}

// Only 204 counts as online, a captive portal answering 200 does not.
func TestWaitOnlineGivesUp(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	if WaitOnline(context.Background(), server.URL, 0) {
		t.Error("expected the wait to give up")
	}
}
