package broadcast

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
)

// Notifier delivers the final aggregated result of a broadcast. The registry
// invokes it at most once per broadcast; implementations do not need their
// own deduplication.
type Notifier interface {
	Notify(ctx context.Context, callbackURL string, result *Result) error
}

// HTTPNotifier posts the result as JSON to the broadcast's callback target.
// Delivery is a single attempt bounded by the caller's context; failures are
// returned for logging and never retried.
type HTTPNotifier struct {
	// Client is the HTTP client to use. Defaults to http.DefaultClient.
	Client *http.Client
	// Log receives delivery diagnostics. Defaults to slog.Default().
	Log *slog.Logger
}

// Notify implements Notifier.
func (n *HTTPNotifier) Notify(ctx context.Context, callbackURL string, result *Result) error {
	body, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("broadcast: encode result: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, callbackURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("broadcast: build callback request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := n.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("broadcast: callback post: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("broadcast: callback returned %s", resp.Status)
	}
	n.logger().Debug("callback delivered", "url", callbackURL, "status", resp.StatusCode)
	return nil
}

func (n *HTTPNotifier) logger() *slog.Logger {
	if n.Log != nil {
		return n.Log
	}
	return slog.Default()
}
