package webhook

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// VerifyTimeout bounds the reachability check of a new webhook URL.
const VerifyTimeout = 5 * time.Second

// Verifier checks that a webhook URL answers HEAD with 200 OK.
type Verifier struct {
	client    *http.Client
	userAgent string
}

// NewVerifier creates a verifier with the standard timeout.
func NewVerifier(userAgent string) *Verifier {
	return &Verifier{
		client:    &http.Client{Timeout: VerifyTimeout},
		userAgent: userAgent,
	}
}

// Verify returns an error unless url responds 200 to HEAD.
func (v *Verifier) Verify(ctx context.Context, url string) error {
	ctx, cancel := context.WithTimeout(ctx, VerifyTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return fmt.Errorf("invalid webhook url: %w", err)
	}
	req.Header.Set("User-Agent", v.userAgent)

	resp, err := v.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook url unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("webhook url returned status %d, expected 200", resp.StatusCode)
	}
	return nil
}
