package timeline

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
)

const (
	userPinsPath   = "/v1/user/pins/"
	sharedPinsPath = "/v1/shared/pins/"
)

// Config for the timeline client. Shared-pin mode targets the shared
// pins endpoint and requires Topics and APIKey.
type Config struct {
	BaseURL string
	Tokens  TokenSource

	Shared bool
	Topics []string
	APIKey string

	// Transport overrides the HTTP transport, for tests.
	Transport http.RoundTripper
}

// Client issues single-shot PUT/DELETE requests against the remote
// timeline service. Delivery is fire-and-forget: no retry, no queue,
// no client-side timeout beyond host defaults. Every call resolves to
// a response body string - on token or transport failure the body is
// a synthesized {"error": ...} document, and HTTP status codes are
// not inspected.
type Client struct {
	http   *resty.Client
	tokens TokenSource
	shared bool
	topics string
	apiKey string
}

func New(cfg Config) *Client {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetHeader("Content-Type", "application/json")
	if cfg.Transport != nil {
		client.SetTransport(cfg.Transport)
	}

	return &Client{
		http:   client,
		tokens: cfg.Tokens,
		shared: cfg.Shared,
		topics: strings.Join(cfg.Topics, ","),
		apiKey: cfg.APIKey,
	}
}

// InsertPin PUTs the pin document; same id means a service-side
// upsert.
func (c *Client) InsertPin(ctx context.Context, pin Pin) string {
	return c.request(ctx, http.MethodPut, pin)
}

// DeletePin removes the pin with the same id. The document is still
// serialized as the request body, matching the insert path.
func (c *Client) DeletePin(ctx context.Context, pin Pin) string {
	return c.request(ctx, http.MethodDelete, pin)
}

func (c *Client) request(ctx context.Context, method string, pin Pin) string {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Error getting timeline token", "error", err, "pin_id", pin.ID)
		return errorBody("Failed to get timeline token: " + err.Error())
	}

	path := userPinsPath
	req := c.http.R().
		SetContext(ctx).
		SetHeader("X-User-Token", token).
		SetBody(pin)
	if c.shared {
		path = sharedPinsPath
		req.SetHeader("X-Pin-Topics", c.topics)
		req.SetHeader("X-API-Key", c.apiKey)
	}

	slog.InfoContext(ctx, "Sending timeline request", "method", method, "pin_id", pin.ID)
	resp, err := req.Execute(method, path+pin.ID)
	if err != nil {
		slog.ErrorContext(ctx, "Timeline request error", "error", err, "pin_id", pin.ID)
		return errorBody("Request failed")
	}

	// Status is logged but not acted on; the body is the caller's
	// contract either way.
	slog.InfoContext(ctx, "Timeline response", "status", resp.StatusCode(), "pin_id", pin.ID)
	return string(resp.Body())
}

func errorBody(reason string) string {
	out, _ := json.Marshal(map[string]string{"error": reason})
	return string(out)
}
