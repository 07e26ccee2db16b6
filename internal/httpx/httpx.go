// Package httpx builds the HTTP clients used to talk to the issuer and the
// store: one cookie-carrying session per collaborator, a fixed User-Agent,
// timeouts, and bounded retry for replayable requests.
package httpx

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"
)

const (
	DefaultTimeout   = 20 * time.Second
	DefaultRetryMax  = 2
	DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"
)

// Transport applies the User-Agent and bounded retry policy.
//
// Only replayable requests are retried: GET/HEAD without a body. A redeem
// or reveal POST is never sent twice by the transport; repeating it is the
// pipeline's decision.
type Transport struct {
	Base *http.Transport

	UserAgent string

	// RetryMax is the number of retries after the first attempt.
	RetryMax int
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, errors.New("nil request")
	}
	if t.Base == nil {
		return nil, errors.New("nil base transport")
	}

	canRetry := (req.Method == http.MethodGet || req.Method == http.MethodHead) && req.Body == nil
	max := t.RetryMax
	if max < 0 || !canRetry {
		max = 0
	}

	var lastErr error
	for attempt := 0; attempt <= max; attempt++ {
		r := req.Clone(req.Context())
		if r.Header.Get("User-Agent") == "" && t.UserAgent != "" {
			r.Header.Set("User-Agent", t.UserAgent)
		}

		resp, err := t.Base.RoundTrip(r)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if req.Context().Err() != nil {
			return nil, lastErr
		}
	}
	return nil, lastErr
}

// Options configures a session client.
type Options struct {
	Timeout   time.Duration
	RetryMax  int
	UserAgent string
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.RetryMax < 0 {
		o.RetryMax = 0
	}
	if strings.TrimSpace(o.UserAgent) == "" {
		o.UserAgent = DefaultUserAgent
	}
	return o
}

// NewClient returns a client with its own cookie jar.
func NewClient(opts Options) (*http.Client, error) {
	opts = opts.withDefaults()

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}

	base := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 15 * time.Second,
	}
	return &http.Client{
		Transport: &Transport{
			Base:      base,
			UserAgent: opts.UserAgent,
			RetryMax:  opts.RetryMax,
		},
		Jar:     jar,
		Timeout: opts.Timeout,
	}, nil
}

// SetCookies seeds the client's jar with session cookies for rawURL.
// Empty values are skipped so unset credentials never overwrite real ones.
func SetCookies(c *http.Client, rawURL string, cookies map[string]string) error {
	if c.Jar == nil {
		return errors.New("client has no cookie jar")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parse %q: %w", rawURL, err)
	}

	var list []*http.Cookie
	for name, value := range cookies {
		if value == "" {
			continue
		}
		list = append(list, &http.Cookie{Name: name, Value: value, Path: "/"})
	}
	c.Jar.SetCookies(u, list)
	return nil
}

// StatusError reports a non-2xx response.
type StatusError struct {
	URL        string
	StatusCode int
	Location   string
}

func (e *StatusError) Error() string {
	if e == nil {
		return "HTTP status error"
	}
	loc := strings.TrimSpace(e.Location)
	if loc == "" {
		return fmt.Sprintf("HTTP %d from %s", e.StatusCode, e.URL)
	}
	return fmt.Sprintf("HTTP %d from %s location=%s", e.StatusCode, e.URL, loc)
}

// CheckStatus returns a *StatusError for non-2xx responses.
func CheckStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	u := ""
	if resp.Request != nil && resp.Request.URL != nil {
		u = resp.Request.URL.String()
	}
	return &StatusError{URL: u, StatusCode: resp.StatusCode, Location: resp.Header.Get("Location")}
}

// IsAuthStatus reports whether err is a 401 or 403 response.
func IsAuthStatus(err error) bool {
	var se *StatusError
	if !errors.As(err, &se) {
		return false
	}
	return se.StatusCode == http.StatusUnauthorized || se.StatusCode == http.StatusForbidden
}
