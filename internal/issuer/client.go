// Package issuer talks to the bundle issuer: it lists orders, fetches order
// details in parallel, extracts candidate keys, and reveals latent codes.
package issuer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/roach88/bundlekeys/internal/engine"
	"github.com/roach88/bundlekeys/internal/httpx"
)

// ErrSessionInvalid means the issuer no longer accepts the session cookie.
var ErrSessionInvalid = fmt.Errorf("issuer: %w", engine.ErrSessionInvalid)

const (
	DefaultBaseURL     = "https://www.humblebundle.com"
	DefaultConcurrency = 8

	sessionCookie = "_simpleauth_sess"
	csrfCookie    = "csrf_cookie"
	csrfHeader    = "CSRF-Prevention-Token"
)

// Config holds the issuer endpoint and session credentials.
type Config struct {
	BaseURL       string
	SessionCookie string
	CSRFToken     string
	// Concurrency bounds parallel order-detail fetches.
	Concurrency int
	HTTP        httpx.Options
}

// Client is an issuer session.
type Client struct {
	http        *http.Client
	baseURL     string
	csrf        string
	concurrency int
}

// New creates a client and seeds its cookie jar.
func New(cfg Config) (*Client, error) {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("issuer base url: %w", err)
	}

	hc, err := httpx.NewClient(cfg.HTTP)
	if err != nil {
		return nil, err
	}
	err = httpx.SetCookies(hc, base, map[string]string{
		sessionCookie: cfg.SessionCookie,
		csrfCookie:    cfg.CSRFToken,
	})
	if err != nil {
		return nil, err
	}

	n := cfg.Concurrency
	if n <= 0 {
		n = DefaultConcurrency
	}
	return &Client{http: hc, baseURL: base, csrf: cfg.CSRFToken, concurrency: n}, nil
}

// VerifySession checks that the library page is served without a redirect
// to the login page.
func (c *Client) VerifySession(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/home/library", nil)
	if err != nil {
		return err
	}
	noRedirect := *c.http
	noRedirect.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	resp, err := noRedirect.Do(req)
	if err != nil {
		return fmt.Errorf("verify issuer session: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode == http.StatusMovedPermanently || resp.StatusCode == http.StatusFound {
		return ErrSessionInvalid
	}
	if err := httpx.CheckStatus(resp); err != nil {
		return sessionOr(err)
	}
	return nil
}

// getJSON fetches path and decodes the JSON body into v.
func (c *Client) getJSON(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	return c.do(req, v)
}

func (c *Client) do(req *http.Request, v any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if err := httpx.CheckStatus(resp); err != nil {
		return sessionOr(err)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", req.URL.Path, err)
	}
	return nil
}

// sessionOr maps authentication failures to ErrSessionInvalid.
func sessionOr(err error) error {
	if httpx.IsAuthStatus(err) {
		return fmt.Errorf("%w: %v", ErrSessionInvalid, err)
	}
	return err
}

// IsSessionError reports whether err came from an expired issuer session.
func IsSessionError(err error) bool {
	return errors.Is(err, ErrSessionInvalid)
}
