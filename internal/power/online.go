package power

import (
	"context"
	"github.com/sirupsen/logrus"
	"net/http"
	"time"
)

const onlinePollInterval = 5 * time.Second

// WaitOnline polls url until it answers 204 or wait runs out. The wake
// alarm can only be programmed against a synced clock, so the caller
// holds the refresh until this returns. A false return means going on
// with whatever clock the rtc kept.
func WaitOnline(ctx context.Context, url string, wait time.Duration) bool {
	deadline := time.Now().Add(wait)
	client := &http.Client{Timeout: onlinePollInterval}

	for {
		if isOnline(ctx, client, url) {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}

		logrus.Infof("Waiting for connectivity to %s", url)

		select {
		case <-ctx.Done():
			return false
		case <-time.After(onlinePollInterval):
		}
	}
}

func isOnline(ctx context.Context, client *http.Client, url string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}

	resp, err := client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()

	return resp.StatusCode == http.StatusNoContent
}
