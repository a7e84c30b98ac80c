// Package registry checks case manager credentials against the external
// medical registration service.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Registration is the registry's view of a practitioner.
type Registration struct {
	Pin        string `json:"pin"`
	Registered bool   `json:"registered"`
	Body       string `json:"registration_body,omitempty"`
	ExpiresAt  string `json:"expires_at,omitempty"`
}

// Verifier answers whether a manager holds a current registration.
type Verifier interface {
	Verify(ctx context.Context, pin string) (Registration, error)
}

// HTTPVerifier calls the registry's REST endpoint.
type HTTPVerifier struct {
	Endpoint string
	Client   *http.Client
}

func NewHTTPVerifier(endpoint string, timeout time.Duration) HTTPVerifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return HTTPVerifier{
		Endpoint: endpoint,
		Client:   &http.Client{Timeout: timeout},
	}
}

func (v HTTPVerifier) Verify(ctx context.Context, pin string) (Registration, error) {
	u := fmt.Sprintf("%s/registrations/%s", v.Endpoint, url.PathEscape(pin))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Registration{}, err
	}
	resp, err := v.Client.Do(req)
	if err != nil {
		return Registration{}, fmt.Errorf("registry lookup %s: %w", pin, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return Registration{Pin: pin, Registered: false}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return Registration{}, fmt.Errorf("registry lookup %s: status %d", pin, resp.StatusCode)
	}
	var reg Registration
	if err := json.NewDecoder(resp.Body).Decode(&reg); err != nil {
		return Registration{}, fmt.Errorf("registry lookup %s: decode: %w", pin, err)
	}
	return reg, nil
}

// StaticVerifier answers from a fixed table, for tests and offline use.
type StaticVerifier struct {
	Registrations map[string]Registration
	Err           error
}

func (v StaticVerifier) Verify(ctx context.Context, pin string) (Registration, error) {
	if v.Err != nil {
		return Registration{}, v.Err
	}
	if reg, ok := v.Registrations[pin]; ok {
		return reg, nil
	}
	return Registration{Pin: pin, Registered: false}, nil
}
