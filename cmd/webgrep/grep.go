package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/nao1215/webgrep/internal/cache"
	"github.com/nao1215/webgrep/internal/config"
	"github.com/nao1215/webgrep/internal/fetch"
	"github.com/nao1215/webgrep/internal/history"
	"github.com/nao1215/webgrep/internal/log"
	"github.com/nao1215/webgrep/internal/pipeline"
	"github.com/nao1215/webgrep/internal/report"
	"github.com/nao1215/webgrep/internal/search"
	"github.com/nao1215/webgrep/internal/traverse"
	"github.com/spf13/cobra"
)

// NewGrepCmd creates the grep command.
func NewGrepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "grep [pattern] [url]...",
		Short: "Fetch a page's resource tree and grep every resource",
		Long: `Grep fetches each root URL, mirrors its embedded resources into a
local tree, and greps every eligible resource for the pattern.

Per resource, webgrep classifies the response (page, image, script,
style, ...), unminifies scripts and stylesheets when js-beautify is
installed, derives searchable artifacts from images (EXIF metadata,
printable strings, OCR text, steghide report), and prints grep output
as each resource completes.

Examples:
  # Grep a page and its same-origin resources
  webgrep grep "api_key" https://example.com/

  # Case-insensitive, following resources on any origin
  webgrep grep -i --all-origins "password" https://example.com/

  # Pin the storage root; the next run with the same --dir skips
  # re-fetching everything already mirrored
  webgrep grep --dir ./mirror "token" https://example.com/

Configuration file (.webgrep) example:
  sites:
    example.com:
      cookie: "session_id=abc123"
      headers:
        Authorization: "Bearer token"`,
		Args: cobra.MinimumNArgs(2),
		RunE: runGrepCmd,
	}

	// Request flags
	cmd.Flags().StringArrayP("header", "H", nil,
		"Extra request header in 'Key: Value' form (repeatable)")
	cmd.Flags().String("cookie", "", "Cookie request header")
	cmd.Flags().String("referer", "", "Referer request header")
	cmd.Flags().StringP("user-agent", "A", config.DefaultUserAgent,
		"User-Agent request header")
	cmd.Flags().String("proxy", "",
		"HTTP(S) proxy URL (default: standard proxy environment variables)")
	cmd.Flags().String("socks-proxy", "",
		"SOCKS5 proxy address as host:port")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Connection timeout for each request")
	cmd.Flags().Int64("max-body-size", config.DefaultMaxBodySize,
		"Maximum text response body size in bytes")

	// Scope flags
	cmd.Flags().BoolP("all-origins", "a", false,
		"Include resources from any origin")
	cmd.Flags().Bool("same-origin", true,
		"Include resources from the page's own origin")
	cmd.Flags().Bool("include-headers", false,
		"Search each resource's response headers too")

	// Storage flags
	cmd.Flags().StringP("dir", "d", "",
		"Pin the storage root to this directory and persist the cache")
	cmd.Flags().BoolP("keep", "k", false,
		"Keep the temporary storage root on exit")
	cmd.Flags().String("history-dir", config.XDGDataDir(),
		"Directory for the fetch-history database (empty disables recording)")
	cmd.Flags().String("report", "",
		"Write a Markdown run summary to this file")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .webgrep in current or home directory)")
	cmd.Flags().BoolP("quiet", "q", false,
		"Suppress startup warnings about unavailable pipeline tools")

	// Pass-through grep flags
	cmd.Flags().BoolP("ignore-case", "i", false, "Case-insensitive match (grep -i)")
	cmd.Flags().Bool("invert-match", false, "Select non-matching lines (grep -v)")
	cmd.Flags().BoolP("extended-regexp", "E", false, "Extended regular expression pattern (grep -E)")
	cmd.Flags().BoolP("word-regexp", "w", false, "Match whole words only (grep -w)")
	cmd.Flags().BoolP("line-number", "n", false, "Prefix matches with line numbers (grep -n)")

	return cmd
}

// runGrepCmd executes the grep command.
func runGrepCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildGrepConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// Set up structured logging with credential redaction
	logger := log.NewSecureLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Info("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return runGrep(ctx, cfg, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildGrepConfig creates a Config from cobra command flags. The first
// positional argument is the pattern, the rest are root URLs.
func buildGrepConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Pattern = args[0]
	cfg.Targets = args[1:]
	cfg.Verbose = getVerboseFlag(cmd)

	headers, err := cmd.Flags().GetStringArray("header")
	if err != nil {
		return nil, err
	}
	for _, h := range headers {
		k, v, ok := strings.Cut(h, ":")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("invalid header %q: want 'Key: Value'", h)
		}
		cfg.Headers[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}

	cfg.Cookie, err = cmd.Flags().GetString("cookie")
	if err != nil {
		return nil, err
	}

	cfg.Referer, err = cmd.Flags().GetString("referer")
	if err != nil {
		return nil, err
	}

	cfg.UserAgent, err = cmd.Flags().GetString("user-agent")
	if err != nil {
		return nil, err
	}

	cfg.Proxy, err = cmd.Flags().GetString("proxy")
	if err != nil {
		return nil, err
	}

	cfg.SOCKSProxy, err = cmd.Flags().GetString("socks-proxy")
	if err != nil {
		return nil, err
	}

	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}

	cfg.MaxBodySize, err = cmd.Flags().GetInt64("max-body-size")
	if err != nil {
		return nil, err
	}

	cfg.IncludeAllOrigins, err = cmd.Flags().GetBool("all-origins")
	if err != nil {
		return nil, err
	}

	cfg.IncludeSameOrigin, err = cmd.Flags().GetBool("same-origin")
	if err != nil {
		return nil, err
	}

	cfg.IncludeHeaders, err = cmd.Flags().GetBool("include-headers")
	if err != nil {
		return nil, err
	}

	cfg.StorageDir, err = cmd.Flags().GetString("dir")
	if err != nil {
		return nil, err
	}

	cfg.Keep, err = cmd.Flags().GetBool("keep")
	if err != nil {
		return nil, err
	}

	cfg.HistoryDir, err = cmd.Flags().GetString("history-dir")
	if err != nil {
		return nil, err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("report")
	if err != nil {
		return nil, err
	}

	cfg.Quiet, err = cmd.Flags().GetBool("quiet")
	if err != nil {
		return nil, err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// Load site-specific configurations from config file.
	// If user explicitly specified a config file path, error if not found.
	// If no path specified, silently use empty config if no file found.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		cfg.SiteConfigs, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else if explicitConfigPath {
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	} else {
		cfg.SiteConfigs = &config.File{
			Sites: make(map[string]config.SiteConfig),
		}
	}

	cfg.GrepOptions = grepOptions(cmd)

	return cfg, nil
}

// grepOptions translates the pass-through flags into grep arguments.
func grepOptions(cmd *cobra.Command) []string {
	passthrough := []struct {
		name string
		arg  string
	}{
		{name: "ignore-case", arg: "-i"},
		{name: "invert-match", arg: "-v"},
		{name: "extended-regexp", arg: "-E"},
		{name: "word-regexp", arg: "-w"},
		{name: "line-number", arg: "-n"},
	}

	var opts []string
	for _, p := range passthrough {
		if on, err := cmd.Flags().GetBool(p.name); err == nil && on {
			opts = append(opts, p.arg)
		}
	}
	return opts
}

// runGrep executes the traversal for every root URL.
func runGrep(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	if !search.Available() {
		return errors.New("grep not found on PATH (webgrep wraps the external grep tool)")
	}

	// Storage root: pinned by --dir, otherwise a throwaway temp dir.
	storageRoot := cfg.StorageDir
	if storageRoot == "" {
		tmp, err := os.MkdirTemp("", "webgrep-*")
		if err != nil {
			return fmt.Errorf("failed to create storage root: %w", err)
		}
		storageRoot = tmp
		if cfg.Keep {
			fmt.Fprintf(os.Stderr, "keeping storage root: %s\n", tmp)
		} else {
			defer func() {
				if err := os.RemoveAll(tmp); err != nil {
					logger.Warn("failed to remove storage root", "dir", tmp, "error", err)
				}
			}()
		}
	} else if err := os.MkdirAll(storageRoot, 0o750); err != nil {
		return fmt.Errorf("failed to create storage root: %w", err)
	}
	logger.Debug("storage root ready", "dir", storageRoot)

	cachePath := filepath.Join(storageRoot, cache.FileName)
	store := cache.Load(cachePath)

	client, err := newFetchClient(cfg, logger)
	if err != nil {
		return err
	}

	registry := pipeline.NewRegistry(
		pipeline.WithLogger(logger),
		pipeline.WithQuietProbes(cfg.Quiet),
	)
	searcher := search.New(cfg.Pattern, cfg.GrepOptions)

	opts := []traverse.Option{traverse.WithLogger(logger)}
	if cfg.HistoryDir != "" {
		db, err := history.Open(cfg.HistoryDir)
		if err != nil {
			logger.Warn("history recording disabled", "dir", cfg.HistoryDir, "error", err)
		} else {
			defer db.Close() //nolint:errcheck // Close error on shutdown is not actionable
			opts = append(opts, traverse.WithHistory(db))
		}
	}

	ctrl := traverse.New(cfg, storageRoot, client, store, registry, searcher, opts...)
	summary := report.NewSummary(cfg.Pattern)

	var runErr error
	for _, target := range cfg.Targets {
		if ctx.Err() != nil {
			break
		}

		rs := summary.AddRoot(target)
		if err := ctrl.Run(ctx, target, rs); err != nil {
			rs.Err = err.Error()
			runErr = err
			logger.Error("traversal failed", "target", target, "error", err)
			fmt.Fprintf(os.Stderr, "webgrep: %s: %v\n", target, err)
		}
	}

	// Orderly shutdown: the cache is saved and the report written even
	// when the run was interrupted or a root failed.
	if cfg.Persist() {
		if err := store.Save(cachePath); err != nil {
			logger.Error("failed to save cache", "path", cachePath, "error", err)
		}
	}

	if cfg.ReportFile != "" {
		if err := writeReport(cfg.ReportFile, summary); err != nil {
			logger.Error("failed to write report", "path", cfg.ReportFile, "error", err)
		}
	}

	// Interrupt is a clean-shutdown request, not an error.
	if ctx.Err() != nil {
		return nil
	}
	return runErr
}

// newFetchClient builds the HTTP client from the run configuration.
func newFetchClient(cfg *config.Config, logger *slog.Logger) (*fetch.Client, error) {
	opts := []fetch.Option{
		fetch.WithUserAgent(cfg.UserAgent),
		fetch.WithHeaders(cfg.Headers),
		fetch.WithTimeout(cfg.Timeout),
		fetch.WithLogger(logger),
	}
	if cfg.Cookie != "" {
		opts = append(opts, fetch.WithCookie(cfg.Cookie))
	}
	if cfg.Referer != "" {
		opts = append(opts, fetch.WithReferer(cfg.Referer))
	}
	if cfg.SiteConfigs != nil {
		opts = append(opts, fetch.WithSiteConfigs(cfg.SiteConfigs))
	}
	if cfg.Proxy != "" {
		opts = append(opts, fetch.WithProxy(cfg.Proxy))
	}
	if cfg.SOCKSProxy != "" {
		opts = append(opts, fetch.WithSOCKSProxy(cfg.SOCKSProxy))
	}

	client, err := fetch.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}
	return client, nil
}

// writeReport writes the Markdown run summary to path.
func writeReport(path string, summary *report.Summary) error {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	// Reports can quote matched content, so keep them owner-readable.
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600) //nolint:gosec // User-provided report path is intentional
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer f.Close() //nolint:errcheck // Write errors surface from Write below

	return report.NewMarkdownWriter(f).Write(summary)
}
