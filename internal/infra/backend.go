package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"arcapos/internal/model"

	"github.com/go-resty/resty/v2"
)

// BackendClient talks to the product/client REST backend. Reads are retried
// once on transport errors and 5xx/429; creates are never retried.
type BackendClient struct {
	read  *resty.Client
	write *resty.Client
}

func NewBackendClient(baseURL string, timeout time.Duration) *BackendClient {
	base := strings.TrimRight(baseURL, "/")
	read := resty.New().
		SetBaseURL(base).
		SetHeader("Accept", "application/json").
		SetTimeout(timeout).
		SetRetryCount(1).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return resp != nil && (resp.StatusCode() == http.StatusTooManyRequests || resp.StatusCode() >= 500)
		})
	write := resty.New().
		SetBaseURL(base).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json").
		SetTimeout(timeout)
	return &BackendClient{read: read, write: write}
}

// ListProducts calls GET /products/get.
func (c *BackendClient) ListProducts(ctx context.Context) ([]model.Product, error) {
	resp, err := newRequest(ctx, c.read).Get("/products/get")
	if err != nil {
		return nil, fmt.Errorf("backend: list products: %w", err)
	}
	if resp.IsError() {
		return nil, apiErrorFromResponse(resp)
	}
	var products []model.Product
	if err := decodeList(resp.Body(), "products", &products); err != nil {
		return nil, fmt.Errorf("backend: list products: %w", err)
	}
	return products, nil
}

// ListClients calls GET /clients/get. The backend answers either a bare
// array or {"clients": [...]}.
func (c *BackendClient) ListClients(ctx context.Context) ([]model.Client, error) {
	resp, err := newRequest(ctx, c.read).Get("/clients/get")
	if err != nil {
		return nil, fmt.Errorf("backend: list clients: %w", err)
	}
	if resp.IsError() {
		return nil, apiErrorFromResponse(resp)
	}
	var clients []model.Client
	if err := decodeList(resp.Body(), "clients", &clients); err != nil {
		return nil, fmt.Errorf("backend: list clients: %w", err)
	}
	return clients, nil
}

// CreateClient calls POST /clients/create. The reply is either
// {"client": {...}} or the client object itself.
func (c *BackendClient) CreateClient(ctx context.Context, client model.Client) (*model.Client, error) {
	resp, err := newRequest(ctx, c.write).SetBody(client).Post("/clients/create")
	if err != nil {
		return nil, fmt.Errorf("backend: create client: %w", err)
	}
	if resp.IsError() {
		return nil, apiErrorFromResponse(resp)
	}

	var wrapped struct {
		Client *model.Client `json:"client"`
	}
	if err := decodeBody(resp, &wrapped); err != nil {
		return nil, fmt.Errorf("backend: create client: %w", err)
	}
	if wrapped.Client != nil {
		return wrapped.Client, nil
	}
	var created model.Client
	if err := decodeBody(resp, &created); err != nil {
		return nil, fmt.Errorf("backend: create client: %w", err)
	}
	return &created, nil
}

// Ping reports whether the backend answers at all; any HTTP status counts.
func (c *BackendClient) Ping(ctx context.Context) error {
	_, err := c.write.R().SetContext(ctx).Head("/")
	return err
}

// decodeList accepts a bare JSON array or an object holding the array under field.
func decodeList(body []byte, field string, dst any) error {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, dst); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		return nil
	}
	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &wrapped); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	raw, ok := wrapped[field]
	if !ok {
		return fmt.Errorf("%w: missing %q", ErrMalformedResponse, field)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}
