package signing

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"time"
)

// SignaturePayload carries the manager's signature as drawn in the client.
type SignaturePayload struct {
	Name      string `json:"name"`
	Signature string `json:"signature"`
	Date      string `json:"date"`
}

func (p SignaturePayload) validate() error {
	if p.Name == "" {
		return fmt.Errorf("signature name is required")
	}
	if p.Signature == "" {
		return fmt.Errorf("signature image is required")
	}
	if p.Date == "" {
		return fmt.Errorf("signature date is required")
	}
	return nil
}

// Stamper draws a signature payload onto the NDA template.
type Stamper interface {
	Stamp(ctx context.Context, template []byte, payload SignaturePayload) ([]byte, error)
}

// Flattener merges form fields and overlays into a final immutable document.
type Flattener interface {
	Flatten(ctx context.Context, doc []byte) ([]byte, error)
}

// ContentHash is the sha256 hex digest stored next to the signed artifact so
// later reads can prove the file is untouched.
func ContentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// PDFService talks to the document toolkit over HTTP. Stamping and
// flattening are POSTs of the raw document; metadata travels in headers.
type PDFService struct {
	Endpoint string
	Client   *http.Client
}

func NewPDFService(endpoint string, timeout time.Duration) PDFService {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return PDFService{Endpoint: endpoint, Client: &http.Client{Timeout: timeout}}
}

func (s PDFService) post(ctx context.Context, path string, doc []byte, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.Endpoint+path, bytes.NewReader(doc))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/pdf")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pdf service %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("pdf service %s: status %d", path, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func (s PDFService) Stamp(ctx context.Context, template []byte, payload SignaturePayload) ([]byte, error) {
	return s.post(ctx, "/stamp", template, map[string]string{
		"X-Signature-Name": payload.Name,
		"X-Signature-Data": payload.Signature,
		"X-Signature-Date": payload.Date,
	})
}

func (s PDFService) Flatten(ctx context.Context, doc []byte) ([]byte, error) {
	return s.post(ctx, "/flatten", doc, nil)
}
