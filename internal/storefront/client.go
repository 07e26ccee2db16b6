// Package storefront talks to the game store: it reads the account's
// ownership snapshot and redeems product codes.
package storefront

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/roach88/bundlekeys/internal/engine"
	"github.com/roach88/bundlekeys/internal/httpx"
)

// ErrSessionInvalid means the store no longer accepts the login cookie.
var ErrSessionInvalid = fmt.Errorf("storefront: %w", engine.ErrSessionInvalid)

const (
	DefaultBaseURL    = "https://store.steampowered.com"
	DefaultAPIBaseURL = "https://api.steampowered.com"

	sessionIDCookie = "sessionid"
	loginCookie     = "steamLoginSecure"
)

// Config holds the store endpoints and session credentials.
type Config struct {
	BaseURL    string
	APIBaseURL string
	SessionID  string
	LoginToken string
	HTTP       httpx.Options
}

// Client is a store session.
type Client struct {
	http       *http.Client
	baseURL    string
	apiBaseURL string
	sessionID  string
}

// New creates a client and seeds its cookie jar.
func New(cfg Config) (*Client, error) {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	api := strings.TrimRight(cfg.APIBaseURL, "/")
	if api == "" {
		api = DefaultAPIBaseURL
	}
	for _, u := range []string{base, api} {
		if _, err := url.Parse(u); err != nil {
			return nil, fmt.Errorf("store url: %w", err)
		}
	}

	hc, err := httpx.NewClient(cfg.HTTP)
	if err != nil {
		return nil, err
	}
	err = httpx.SetCookies(hc, base, map[string]string{
		sessionIDCookie: cfg.SessionID,
		loginCookie:     cfg.LoginToken,
	})
	if err != nil {
		return nil, err
	}
	return &Client{http: hc, baseURL: base, apiBaseURL: api, sessionID: cfg.SessionID}, nil
}

// VerifySession checks that the key registration page is served without a
// redirect to the login page.
func (c *Client) VerifySession(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/account/registerkey", nil)
	if err != nil {
		return err
	}
	noRedirect := *c.http
	noRedirect.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	resp, err := noRedirect.Do(req)
	if err != nil {
		return fmt.Errorf("verify store session: %w", err)
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

// fetch performs req and returns a JSON body, mapping login pages and
// authentication failures to ErrSessionInvalid.
func (c *Client) fetch(req *http.Request) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", req.URL.Path, err)
	}

	if resp.Request != nil && resp.Request.URL != nil && strings.Contains(resp.Request.URL.Path, "/login") {
		return nil, fmt.Errorf("%w: redirected to %s", ErrSessionInvalid, resp.Request.URL.Path)
	}
	if err := httpx.CheckStatus(resp); err != nil {
		return nil, sessionOr(err)
	}
	if looksLikeHTML(resp, b) {
		return nil, htmlError(req.URL.Path, b)
	}
	return b, nil
}

func (c *Client) getJSON(ctx context.Context, rawURL string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	b, err := c.fetch(req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode %s: %w", req.URL.Path, err)
	}
	return nil
}

func looksLikeHTML(resp *http.Response, body []byte) bool {
	if strings.Contains(resp.Header.Get("Content-Type"), "text/html") {
		return true
	}
	trimmed := bytes.TrimSpace(body)
	return len(trimmed) > 0 && trimmed[0] == '<'
}

// htmlError explains an HTML page served where JSON was expected. A login
// form means the session expired; anything else is reported by title.
func htmlError(path string, body []byte) error {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%s: unexpected non-JSON response", path)
	}
	title := strings.TrimSpace(doc.Find("title").First().Text())

	if doc.Find(`form[name="logon"], form#login_form, input[type="password"]`).Length() > 0 {
		return fmt.Errorf("%w: login page served for %s (%q)", ErrSessionInvalid, path, title)
	}
	return fmt.Errorf("%s: unexpected HTML page %q", path, title)
}

// sessionOr maps authentication failures to ErrSessionInvalid.
func sessionOr(err error) error {
	if httpx.IsAuthStatus(err) {
		return fmt.Errorf("%w: %v", ErrSessionInvalid, err)
	}
	return err
}
