// Package config loads bundlekeys settings.
//
// Precedence, lowest first: built-in defaults, the YAML config file,
// BUNDLEKEYS_* environment variables (a .env file is loaded into the
// environment first), then explicit command-line overrides.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/roach88/bundlekeys/internal/engine"
	"github.com/roach88/bundlekeys/internal/httpx"
	"github.com/roach88/bundlekeys/internal/issuer"
	"github.com/roach88/bundlekeys/internal/matcher"
	"github.com/roach88/bundlekeys/internal/storefront"
)

const (
	EnvPrefix   = "BUNDLEKEYS"
	DefaultFile = "bundlekeys.yaml"
)

// Keys.
const (
	KeyLedgerDir        = "ledger_dir"
	KeyJournalPath      = "journal_path"
	KeyReviewPath       = "review_path"
	KeyFirstPass        = "match.first_pass_threshold"
	KeyAccept           = "match.accept_threshold"
	KeyPollInterval     = "retry.poll_interval"
	KeyProgressInterval = "retry.progress_interval"
	KeyUnknownLimit     = "retry.unknown_limit"
	KeyConcurrency      = "fetch.concurrency"
	KeyIssuerBaseURL    = "issuer.base_url"
	KeyIssuerSession    = "issuer.session_cookie"
	KeyIssuerCSRF       = "issuer.csrf_token"
	KeyStoreBaseURL     = "store.base_url"
	KeyStoreAPIBaseURL  = "store.api_base_url"
	KeyStoreSessionID   = "store.session_id"
	KeyStoreLogin       = "store.login_cookie"
	KeyHTTPTimeout      = "http.timeout"
	KeyHTTPRetryMax     = "http.retry_max"
)

type Config struct {
	LedgerDir   string
	JournalPath string
	ReviewPath  string
	Match       MatchConfig
	Retry       RetryConfig
	Fetch       FetchConfig
	Issuer      IssuerConfig
	Store       StoreConfig
	HTTP        HTTPConfig

	// File is the config file that was read, if any.
	File string
}

type MatchConfig struct {
	FirstPass int
	Accept    int
}

type RetryConfig struct {
	PollInterval     time.Duration
	ProgressInterval time.Duration
	UnknownLimit     int
}

type FetchConfig struct {
	Concurrency int
}

type IssuerConfig struct {
	BaseURL       string
	SessionCookie string
	CSRFToken     string
}

type StoreConfig struct {
	BaseURL     string
	APIBaseURL  string
	SessionID   string
	LoginCookie string
}

type HTTPConfig struct {
	Timeout  time.Duration
	RetryMax int
}

// Options controls where settings come from.
type Options struct {
	// File is an explicit config file. Empty means DefaultFile if present.
	File string
	// EnvFile is an explicit .env file. Empty means ".env" if present.
	EnvFile string
	// Overrides are applied last, keyed like the file.
	Overrides map[string]any
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyLedgerDir, ".")
	v.SetDefault(KeyJournalPath, "bundlekeys.db")
	v.SetDefault(KeyReviewPath, "skipped.txt")
	v.SetDefault(KeyFirstPass, matcher.DefaultFirstPass)
	v.SetDefault(KeyAccept, matcher.DefaultAccept)
	v.SetDefault(KeyPollInterval, engine.DefaultPollInterval)
	v.SetDefault(KeyProgressInterval, engine.DefaultProgressInterval)
	v.SetDefault(KeyUnknownLimit, engine.DefaultUnknownLimit)
	v.SetDefault(KeyConcurrency, issuer.DefaultConcurrency)
	v.SetDefault(KeyIssuerBaseURL, issuer.DefaultBaseURL)
	v.SetDefault(KeyIssuerSession, "")
	v.SetDefault(KeyIssuerCSRF, "")
	v.SetDefault(KeyStoreBaseURL, storefront.DefaultBaseURL)
	v.SetDefault(KeyStoreAPIBaseURL, storefront.DefaultAPIBaseURL)
	v.SetDefault(KeyStoreSessionID, "")
	v.SetDefault(KeyStoreLogin, "")
	v.SetDefault(KeyHTTPTimeout, httpx.DefaultTimeout)
	v.SetDefault(KeyHTTPRetryMax, httpx.DefaultRetryMax)
}

// Load reads and validates the configuration.
func Load(opts Options) (Config, error) {
	if err := loadEnvFile(opts.EnvFile); err != nil {
		return Config{}, err
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	file, err := readFile(v, opts.File)
	if err != nil {
		return Config{}, err
	}
	for k, val := range opts.Overrides {
		v.Set(k, val)
	}

	cfg := Config{
		LedgerDir:   strings.TrimSpace(v.GetString(KeyLedgerDir)),
		JournalPath: strings.TrimSpace(v.GetString(KeyJournalPath)),
		ReviewPath:  strings.TrimSpace(v.GetString(KeyReviewPath)),
		Match: MatchConfig{
			FirstPass: v.GetInt(KeyFirstPass),
			Accept:    v.GetInt(KeyAccept),
		},
		Retry: RetryConfig{
			PollInterval:     v.GetDuration(KeyPollInterval),
			ProgressInterval: v.GetDuration(KeyProgressInterval),
			UnknownLimit:     v.GetInt(KeyUnknownLimit),
		},
		Fetch: FetchConfig{Concurrency: v.GetInt(KeyConcurrency)},
		Issuer: IssuerConfig{
			BaseURL:       strings.TrimSpace(v.GetString(KeyIssuerBaseURL)),
			SessionCookie: strings.TrimSpace(v.GetString(KeyIssuerSession)),
			CSRFToken:     strings.TrimSpace(v.GetString(KeyIssuerCSRF)),
		},
		Store: StoreConfig{
			BaseURL:     strings.TrimSpace(v.GetString(KeyStoreBaseURL)),
			APIBaseURL:  strings.TrimSpace(v.GetString(KeyStoreAPIBaseURL)),
			SessionID:   strings.TrimSpace(v.GetString(KeyStoreSessionID)),
			LoginCookie: strings.TrimSpace(v.GetString(KeyStoreLogin)),
		},
		HTTP: HTTPConfig{
			Timeout:  v.GetDuration(KeyHTTPTimeout),
			RetryMax: v.GetInt(KeyHTTPRetryMax),
		},
		File: file,
	}
	if cfg.LedgerDir == "" {
		cfg.LedgerDir = "."
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadEnvFile(path string) error {
	if path == "" {
		_ = godotenv.Load()
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return &Error{Code: ErrCodeFile, Key: "env_file", Err: err}
	}
	return nil
}

func readFile(v *viper.Viper, path string) (string, error) {
	if path == "" {
		if _, err := os.Stat(DefaultFile); err != nil {
			return "", nil
		}
		path = DefaultFile
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return "", &Error{Code: ErrCodeFile, Key: "config", Err: err}
	}
	return path, nil
}

// Validate checks ranges and URLs.
func (c Config) Validate() error {
	checks := []struct {
		key string
		ok  bool
		msg string
	}{
		{KeyFirstPass, c.Match.FirstPass >= 0 && c.Match.FirstPass <= 100, "must be within 0..100"},
		{KeyAccept, c.Match.Accept >= 0 && c.Match.Accept <= 100, "must be within 0..100"},
		{KeyPollInterval, c.Retry.PollInterval > 0, "must be positive"},
		{KeyProgressInterval, c.Retry.ProgressInterval >= 0, "must not be negative"},
		{KeyUnknownLimit, c.Retry.UnknownLimit >= 0, "must not be negative"},
		{KeyConcurrency, c.Fetch.Concurrency >= 1, "must be at least 1"},
		{KeyHTTPTimeout, c.HTTP.Timeout > 0, "must be positive"},
		{KeyHTTPRetryMax, c.HTTP.RetryMax >= 0, "must not be negative"},
	}
	for _, chk := range checks {
		if !chk.ok {
			return &Error{Code: ErrCodeInvalid, Key: chk.key, Err: errors.New(chk.msg)}
		}
	}

	for key, raw := range map[string]string{
		KeyIssuerBaseURL:   c.Issuer.BaseURL,
		KeyStoreBaseURL:    c.Store.BaseURL,
		KeyStoreAPIBaseURL: c.Store.APIBaseURL,
	} {
		u, err := url.Parse(raw)
		if err != nil {
			return &Error{Code: ErrCodeInvalid, Key: key, Err: err}
		}
		if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
			return &Error{Code: ErrCodeInvalid, Key: key, Err: fmt.Errorf("not an http(s) url: %q", raw)}
		}
	}
	return nil
}

// Thresholds returns the matcher thresholds.
func (c Config) Thresholds() matcher.Thresholds {
	return matcher.Thresholds{FirstPass: c.Match.FirstPass, Accept: c.Match.Accept}
}

// HTTPOptions returns the shared client options.
func (c Config) HTTPOptions() httpx.Options {
	return httpx.Options{Timeout: c.HTTP.Timeout, RetryMax: c.HTTP.RetryMax}
}

// IssuerClient returns the issuer client configuration.
func (c Config) IssuerClient() issuer.Config {
	return issuer.Config{
		BaseURL:       c.Issuer.BaseURL,
		SessionCookie: c.Issuer.SessionCookie,
		CSRFToken:     c.Issuer.CSRFToken,
		Concurrency:   c.Fetch.Concurrency,
		HTTP:          c.HTTPOptions(),
	}
}

// StoreClient returns the store client configuration.
func (c Config) StoreClient() storefront.Config {
	return storefront.Config{
		BaseURL:    c.Store.BaseURL,
		APIBaseURL: c.Store.APIBaseURL,
		SessionID:  c.Store.SessionID,
		LoginToken: c.Store.LoginCookie,
		HTTP:       c.HTTPOptions(),
	}
}

// RequireCredentials reports the first missing session credential.
func (c Config) RequireCredentials() error {
	required := []struct {
		key, val string
	}{
		{KeyIssuerSession, c.Issuer.SessionCookie},
		{KeyStoreSessionID, c.Store.SessionID},
		{KeyStoreLogin, c.Store.LoginCookie},
	}
	for _, r := range required {
		if r.val == "" {
			return &Error{Code: ErrCodeMissing, Key: r.key, Err: errors.New("required for redeem")}
		}
	}
	return nil
}
