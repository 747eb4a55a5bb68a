// Package tokenclient acquires bearer tokens from counterparty hosts using the
// client-credentials exchange PACT prescribes.
package tokenclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Mindburn-Labs/pact-conformance/pkg/pact"
)

const (
	tokenPath       = "/auth/token"
	maxResponseSize = 1 << 20
	defaultTimeout  = 10 * time.Second
)

// EndpointResolver derives a counterparty token endpoint from the URL its
// events are addressed with.
type EndpointResolver func(eventURL string) (string, error)

// StripSuffixResolver drops the query and fragment, removes the first of the
// given path suffixes that matches, and appends /auth/token.
func StripSuffixResolver(suffixes ...string) EndpointResolver {
	return func(eventURL string) (string, error) {
		u, err := url.Parse(eventURL)
		if err != nil {
			return "", fmt.Errorf("parse counterparty url: %w", err)
		}
		if u.Scheme == "" || u.Host == "" {
			return "", fmt.Errorf("counterparty url %q is not absolute", eventURL)
		}
		u.RawQuery = ""
		u.Fragment = ""
		path := strings.TrimRight(u.Path, "/")
		for _, s := range suffixes {
			if strings.HasSuffix(path, s) {
				path = strings.TrimSuffix(path, s)
				break
			}
		}
		u.Path = path + tokenPath
		u.RawPath = ""
		return u.String(), nil
	}
}

// RegistryResolver strips the events path of every revision in the registry.
func RegistryResolver(reg *pact.Registry) EndpointResolver {
	var suffixes []string
	for _, rev := range reg.Revisions() {
		p, _ := reg.Lookup(rev)
		suffixes = append(suffixes, p.EventsPath())
	}
	return StripSuffixResolver(suffixes...)
}

// TokenResponse is the body returned by a PACT token endpoint.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`
	ExpiresIn   int    `json:"expires_in,omitempty"`
}

// Client exchanges a fixed credential pair for a bearer token. Tokens are
// never cached; every call performs one HTTP exchange.
type Client struct {
	clientID     string
	clientSecret string
	resolve      EndpointResolver
	httpClient   *http.Client
	logger       *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client. Its Timeout bounds each exchange.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithResolver replaces the token endpoint derivation.
func WithResolver(r EndpointResolver) Option {
	return func(c *Client) { c.resolve = r }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a token client for the given credential pair.
func New(clientID, clientSecret string, opts ...Option) *Client {
	c := &Client{
		clientID:     clientID,
		clientSecret: clientSecret,
		resolve:      RegistryResolver(pact.DefaultRegistry()),
		httpClient:   &http.Client{Timeout: defaultTimeout},
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint returns the token endpoint that Token would call for eventURL.
func (c *Client) Endpoint(eventURL string) (string, error) {
	return c.resolve(eventURL)
}

// Token fetches a fresh access token from the host behind eventURL.
// Every failure is a *pact.TokenError wrapping pact.ErrTokenAcquisition.
func (c *Client) Token(ctx context.Context, eventURL string) (string, error) {
	endpoint, err := c.resolve(eventURL)
	if err != nil {
		return "", &pact.TokenError{Endpoint: eventURL, Err: err}
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", &pact.TokenError{Endpoint: endpoint, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(c.clientID, c.clientSecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &pact.TokenError{Endpoint: endpoint, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.WarnContext(ctx, "token endpoint refused credentials",
			"endpoint", endpoint, "status", resp.StatusCode, "body", string(body))
		return "", &pact.TokenError{Endpoint: endpoint, Status: resp.StatusCode}
	}

	var tok TokenResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(&tok); err != nil {
		return "", &pact.TokenError{Endpoint: endpoint, Err: fmt.Errorf("decode token response: %w", err)}
	}
	if tok.AccessToken == "" {
		return "", &pact.TokenError{Endpoint: endpoint, Err: errors.New("response has no access_token")}
	}
	return tok.AccessToken, nil
}
