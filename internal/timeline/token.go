package timeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-resty/resty/v2"
)

var ErrTokenFetch = errors.New("token fetch failed")

// TokenSource yields the bearer token that authorizes timeline API
// calls. The fetch is the single suspension point of the pipeline:
// nothing is sent before it resolves.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticTokenSource returns a fixed token from configuration.
type StaticTokenSource struct {
	Value string
}

func (s StaticTokenSource) Token(ctx context.Context) (string, error) {
	if s.Value == "" {
		return "", fmt.Errorf("%w: no token configured", ErrTokenFetch)
	}
	return s.Value, nil
}

// HTTPTokenSource fetches the token from the phone bridge, which
// proxies the watch runtime's token grant.
type HTTPTokenSource struct {
	URL    string
	client *resty.Client
}

func NewHTTPTokenSource(url string) *HTTPTokenSource {
	return &HTTPTokenSource{
		URL:    url,
		client: resty.New().SetHeader("Accept", "application/json"),
	}
}

func (s *HTTPTokenSource) Token(ctx context.Context) (string, error) {
	var grant struct {
		Token string `json:"token"`
	}
	resp, err := s.client.R().
		SetContext(ctx).
		SetResult(&grant).
		Get(s.URL)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTokenFetch, err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("%w: bridge returned %s", ErrTokenFetch, resp.Status())
	}
	if grant.Token == "" {
		return "", fmt.Errorf("%w: empty token in bridge response", ErrTokenFetch)
	}
	return grant.Token, nil
}
