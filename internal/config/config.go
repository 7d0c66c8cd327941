package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// DefaultTimeout is the connection timeout for each HTTP request.
	// Generous enough for slow servers without hanging a whole run on
	// one dead host.
	DefaultTimeout = 30 * time.Second

	// DefaultUserAgent identifies webgrep in HTTP requests. A
	// descriptive User-Agent lets operators identify the traffic in
	// their logs.
	DefaultUserAgent = "webgrep/2.0 (+https://github.com/nao1215/webgrep)"

	// DefaultMaxBodySize limits the response body size read into memory
	// for text resources. Images stream to disk and are not subject to
	// this limit.
	DefaultMaxBodySize = 10 * 1024 * 1024 // 10MB

	// AppName is the application name used for XDG directory paths.
	AppName = "webgrep"
)

// Config holds all options for a webgrep run. It is populated from CLI
// flags, validated once before any fetching begins, and then passed
// through the application by value of reference — never via globals.
type Config struct {
	// Pattern is the search pattern handed to the external grep
	// collaborator for every eligible resource.
	Pattern string

	// Targets is the list of root URLs to process. Each target is
	// traversed fully and sequentially before the next begins.
	Targets []string

	// Headers are extra HTTP request headers applied to every fetch.
	// Per-site configuration from the YAML file can add to or override
	// these for matching hosts.
	Headers map[string]string

	// Cookie is the Cookie header value, if any.
	Cookie string

	// Referer is the Referer header value, if any.
	Referer string

	// UserAgent is the User-Agent header. Defaults to DefaultUserAgent.
	UserAgent string

	// Proxy is an HTTP(S) proxy URL. When empty, proxy settings are
	// taken from the standard environment variables.
	Proxy string

	// SOCKSProxy is a SOCKS5 proxy address in "host:port" format.
	// Mutually exclusive with Proxy.
	SOCKSProxy string

	// Timeout is the per-request connection timeout.
	Timeout time.Duration

	// MaxBodySize is the maximum text response body size in bytes.
	MaxBodySize int64

	// IncludeAllOrigins admits resources from any origin into the
	// traversal.
	IncludeAllOrigins bool

	// IncludeSameOrigin admits resources whose origin matches their
	// parent's. Ignored when IncludeAllOrigins is set.
	IncludeSameOrigin bool

	// IncludeHeaders synthesizes each fetched resource's response
	// headers as a searched child resource.
	IncludeHeaders bool

	// StorageDir pins the storage root to a fixed directory instead of
	// a fresh temporary one, and implies cache persistence: a later run
	// with the same directory skips re-fetching registered resources.
	StorageDir string

	// Keep retains the storage root on exit even when it was a
	// temporary directory.
	Keep bool

	// HistoryDir is the directory holding the fetch-history database.
	// Empty disables history recording.
	HistoryDir string

	// ReportFile, when set, receives a Markdown summary of the run.
	ReportFile string

	// ConfigFilePath is an explicit path to the per-site YAML file. If
	// empty, .webgrep is searched for in the current directory and then
	// in the user's home directory.
	ConfigFilePath string

	// SiteConfigs holds per-site overrides loaded from the config file.
	SiteConfigs *File

	// GrepOptions are pass-through flags for the external grep
	// invocation (e.g. -i, -v, -E, -w).
	GrepOptions []string

	// Quiet suppresses the one-time startup warnings about unavailable
	// pipeline tools.
	Quiet bool

	// Verbose enables debug-level log output.
	Verbose bool
}

// NewConfig creates a Config with defaults. Callers override individual
// fields from flags after creation.
func NewConfig() *Config {
	return &Config{
		Headers:           make(map[string]string),
		UserAgent:         DefaultUserAgent,
		Timeout:           DefaultTimeout,
		MaxBodySize:       DefaultMaxBodySize,
		IncludeSameOrigin: true,
	}
}

// Persist reports whether the cache should be persisted at shutdown.
// Persistence is tied to a pinned storage directory: a throwaway
// temporary root has no next run to serve.
func (c *Config) Persist() bool {
	return c.StorageDir != ""
}

// XDGDataDir returns the XDG data directory for webgrep, the default
// location of the fetch-history database.
// On Linux: ~/.local/share/webgrep
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for webgrep.
// On Linux: ~/.config/webgrep
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks the configuration and returns a sentinel error
// describing the first problem found. Called once after CLI parsing,
// before any network activity.
func (c *Config) Validate() error {
	if c.Pattern == "" {
		return ErrNoPattern
	}
	if len(c.Targets) == 0 {
		return ErrNoTarget
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	if c.Proxy != "" && c.SOCKSProxy != "" {
		return ErrConflictingProxies
	}
	return nil
}
