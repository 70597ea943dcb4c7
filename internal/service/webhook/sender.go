package webhook

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPSender POSTs payloads as JSON. Non-2xx responses are errors; there are
// no retries.
type HTTPSender struct {
	client    *http.Client
	userAgent string
}

// NewHTTPSender creates a sender identifying itself with userAgent.
func NewHTTPSender(userAgent string, timeout time.Duration) *HTTPSender {
	return &HTTPSender{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

// Send performs one POST.
func (s *HTTPSender) Send(ctx context.Context, url string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send webhook: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
