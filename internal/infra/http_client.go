package infra

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
)

// ErrMalformedResponse is returned when a 2xx body cannot be decoded.
var ErrMalformedResponse = errors.New("malformed response body")

// APIError is a non-2xx reply from one of the REST backends. Message is the
// backend's own explanation ({"error": ...} or {"detail": ...}) when present.
type APIError struct {
	StatusCode int
	Status     string
	Message    string
	Body       string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error: %s: %s", e.Status, e.Message)
	}
	if e.Body == "" {
		return fmt.Sprintf("api error: %s", e.Status)
	}
	return fmt.Sprintf("api error: %s: %s", e.Status, e.Body)
}

func apiErrorFromResponse(resp *resty.Response) *APIError {
	body := strings.TrimSpace(resp.String())
	apiErr := &APIError{
		StatusCode: resp.StatusCode(),
		Status:     resp.Status(),
		Body:       body,
	}
	var envelope struct {
		Error   string `json:"error"`
		Detail  string `json:"detail"`
		Message string `json:"message"`
	}
	if json.Unmarshal(resp.Body(), &envelope) == nil {
		switch {
		case envelope.Error != "":
			apiErr.Message = envelope.Error
		case envelope.Detail != "":
			apiErr.Message = envelope.Detail
		case envelope.Message != "":
			apiErr.Message = envelope.Message
		}
	}
	return apiErr
}

// decodeBody unmarshals a successful body; resty's own result parsing is not
// used so that a bad body is reported as ErrMalformedResponse, not as a
// transport failure.
func decodeBody(resp *resty.Response, dst any) error {
	if err := json.Unmarshal(resp.Body(), dst); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

// ── Bearer token propagation ──────────────────────────────────────────────────

type bearerKey struct{}

// WithBearerToken attaches the caller's token so outbound backend calls can
// forward it.
func WithBearerToken(ctx context.Context, token string) context.Context {
	if token == "" {
		return ctx
	}
	return context.WithValue(ctx, bearerKey{}, token)
}

// BearerToken returns the token attached by WithBearerToken, or "".
func BearerToken(ctx context.Context) string {
	token, _ := ctx.Value(bearerKey{}).(string)
	return token
}

func newRequest(ctx context.Context, c *resty.Client) *resty.Request {
	req := c.R().SetContext(ctx)
	if token := BearerToken(ctx); token != "" {
		req.SetAuthToken(token)
	}
	return req
}
