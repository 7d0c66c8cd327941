package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/net/proxy"

	"github.com/nao1215/webgrep/internal/config"
)

// Response is the result of a fetch. The body is a stream so binary
// resources can be persisted chunk-by-chunk without buffering them in
// memory; callers must close it.
type Response struct {
	// StatusCode is the HTTP response status code.
	StatusCode int

	// Header contains all response headers.
	Header http.Header

	// ContentType is the Content-Type header, for classification.
	ContentType string

	// Body is the response body stream. Always non-nil on success.
	Body io.ReadCloser
}

// Client performs GET requests with configured headers and proxies.
type Client struct {
	// direct is the HTTP client that bypasses all proxies. It serves
	// both the no-proxy configuration and the post-failure retry path.
	direct *http.Client

	// proxied is the HTTP client routed through the configured proxy.
	// Nil when no proxy is configured.
	proxied *http.Client

	// proxyDisabled flips to true after a proxy connection failure and
	// never flips back; all subsequent fetches in the run go direct.
	proxyDisabled atomic.Bool

	// userAgent is the User-Agent header to send.
	userAgent string

	// headers are extra request headers applied to every fetch.
	headers map[string]string

	// cookie and referer are the corresponding request headers, if set.
	cookie  string
	referer string

	// sites holds per-host header overrides from the config file.
	sites *config.File

	// timeout is the per-request timeout.
	timeout time.Duration

	// logger for structured logging.
	logger *slog.Logger
}

// Option configures a Client.
type Option func(*Client) error

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) error {
		c.userAgent = ua
		return nil
	}
}

// WithHeaders sets extra request headers applied to every fetch.
func WithHeaders(headers map[string]string) Option {
	return func(c *Client) error {
		c.headers = headers
		return nil
	}
}

// WithCookie sets the Cookie request header.
func WithCookie(cookie string) Option {
	return func(c *Client) error {
		c.cookie = cookie
		return nil
	}
}

// WithReferer sets the Referer request header.
func WithReferer(referer string) Option {
	return func(c *Client) error {
		c.referer = referer
		return nil
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) error {
		c.timeout = d
		return nil
	}
}

// WithSiteConfigs attaches per-host request overrides.
func WithSiteConfigs(sites *config.File) Option {
	return func(c *Client) error {
		c.sites = sites
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) error {
		c.logger = logger
		return nil
	}
}

// WithProxy routes requests through an HTTP(S) proxy URL.
func WithProxy(proxyURL string) Option {
	return func(c *Client) error {
		u, err := url.Parse(proxyURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%w: %q", ErrInvalidProxyURL, proxyURL)
		}
		transport := &http.Transport{Proxy: http.ProxyURL(u)}
		c.proxied = &http.Client{Transport: transport}
		return nil
	}
}

// WithSOCKSProxy routes requests through a SOCKS5 proxy at addr
// ("host:port").
func WithSOCKSProxy(addr string) Option {
	return func(c *Client) error {
		if !isValidProxyAddress(addr) {
			return fmt.Errorf("%w: %q", ErrInvalidProxyAddress, addr)
		}
		// No auth: SOCKS proxies webgrep targets typically run open on
		// localhost.
		dialer, err := proxy.SOCKS5("tcp", addr, nil, proxy.Direct)
		if err != nil {
			return fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
		}
		transport := &http.Transport{
			DialContext: func(ctx context.Context, network, address string) (net.Conn, error) {
				return dialer.Dial(network, address)
			},
		}
		c.proxied = &http.Client{Transport: transport}
		return nil
	}
}

// NewClient creates a Client. Without an explicit proxy option, proxy
// settings come from the standard environment variables; the
// environment-driven proxy is subject to the same kill-switch as an
// explicit one.
func NewClient(opts ...Option) (*Client, error) {
	c := &Client{
		userAgent: config.DefaultUserAgent,
		timeout:   config.DefaultTimeout,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	c.direct = &http.Client{
		Transport: &http.Transport{Proxy: nil},
		Timeout:   c.timeout,
	}

	if c.proxied == nil {
		if hasProxyEnv() {
			c.proxied = &http.Client{
				Transport: &http.Transport{Proxy: http.ProxyFromEnvironment},
				Timeout:   c.timeout,
			}
		}
	} else {
		c.proxied.Timeout = c.timeout
	}

	return c, nil
}

// hasProxyEnv reports whether any of the standard proxy environment
// variables is set.
func hasProxyEnv() bool {
	req, err := http.NewRequest(http.MethodGet, "http://example.com/", nil)
	if err != nil {
		return false
	}
	u, err := http.ProxyFromEnvironment(req)
	return err == nil && u != nil
}

// isValidProxyAddress checks for "host:port" with a numeric port.
func isValidProxyAddress(address string) bool {
	host, port, err := net.SplitHostPort(address)
	if err != nil || host == "" {
		return false
	}
	n, err := strconv.Atoi(port)
	return err == nil && n > 0 && n <= 65535
}

// Get performs a GET request against rawURL.
//
// If a proxy is configured and the request fails on proxy connectivity,
// the request is retried once with proxies disabled and the proxy stays
// disabled for the rest of the run. Non-proxy transport errors are
// returned as-is; status codes are the caller's to interpret.
func (c *Client) Get(ctx context.Context, rawURL string) (*Response, error) {
	req, err := c.newRequest(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	client := c.direct
	viaProxy := c.proxied != nil && !c.proxyDisabled.Load()
	if viaProxy {
		client = c.proxied
	}

	resp, err := client.Do(req)
	if err != nil && viaProxy && isProxyConnectError(err) {
		c.logger.Warn("proxy connection failed, disabling proxies for this run",
			"url", rawURL,
			"error", err,
		)
		c.proxyDisabled.Store(true)

		// Request bodies are nil for GET, so the request can be rebuilt
		// safely for the retry.
		req, err = c.newRequest(ctx, rawURL)
		if err != nil {
			return nil, err
		}
		resp, err = c.direct.Do(req)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch failed for %q: %w", rawURL, err)
	}

	return &Response{
		StatusCode:  resp.StatusCode,
		Header:      resp.Header,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        resp.Body,
	}, nil
}

// newRequest builds the GET request with global and per-site headers.
func (c *Client) newRequest(ctx context.Context, rawURL string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid request URL %q: %w", rawURL, err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	if c.cookie != "" {
		req.Header.Set("Cookie", c.cookie)
	}
	if c.referer != "" {
		req.Header.Set("Referer", c.referer)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	// Per-site overrides win over global flags for their host.
	if c.sites != nil {
		sc := c.sites.GetSiteConfig(req.URL.Host)
		if sc.UserAgent != "" {
			req.Header.Set("User-Agent", sc.UserAgent)
		}
		if sc.Cookie != "" {
			req.Header.Set("Cookie", sc.Cookie)
		}
		for k, v := range sc.Headers {
			req.Header.Set(k, v)
		}
	}

	return req, nil
}

// isProxyConnectError reports whether err looks like a failure to reach
// the proxy itself rather than the target. The transport surfaces proxy
// dial failures with a "proxyconnect" prefix; SOCKS dialers report
// "socks connect" errors.
func isProxyConnectError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "proxyconnect") || strings.Contains(msg, "socks connect")
}

// ReadBody reads and closes the response body, up to maxSize bytes.
func (r *Response) ReadBody(maxSize int64) ([]byte, error) {
	defer r.Body.Close() //nolint:errcheck // Close error is irrelevant after a full read

	reader := io.Reader(r.Body)
	if maxSize > 0 {
		reader = io.LimitReader(r.Body, maxSize)
	}
	b, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return b, nil
}
