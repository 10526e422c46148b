package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Verifier checks a payment confirmation issued by the external payment
// processor. The processor itself (checkout, webhooks, refunds) lives outside
// this service; all we consume is a yes/no signal for a confirmation token.
type Verifier interface {
	VerifyConfirmation(ctx context.Context, confirmation string) (bool, error)
}

var ErrVerifierUnavailable = errors.New("payment verifier unavailable")

// HTTPVerifier verifies confirmation tokens against the processor's
// verification endpoint.
type HTTPVerifier struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPVerifier creates a verifier. baseURL is the processor's verification
// endpoint, e.g. https://payments.internal/v1/confirmations/verify
func NewHTTPVerifier(baseURL string, timeout time.Duration) *HTTPVerifier {
	return &HTTPVerifier{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type verifyResponse struct {
	Status string `json:"status"`
}

// VerifyConfirmation returns true when the processor reports the confirmation
// as paid. A non-2xx response or transport failure is an infrastructure error,
// not a "payment failed" outcome.
func (v *HTTPVerifier) VerifyConfirmation(ctx context.Context, confirmation string) (bool, error) {
	if v.baseURL == "" {
		return false, ErrVerifierUnavailable
	}

	endpoint := fmt.Sprintf("%s?token=%s", v.baseURL, url.QueryEscape(confirmation))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, err
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrVerifierUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false, fmt.Errorf("%w: status %d", ErrVerifierUnavailable, resp.StatusCode)
	}

	var body verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false, err
	}

	return body.Status == "paid" || body.Status == "succeeded", nil
}
