package config

import "errors"

// Configuration validation errors returned by Config.Validate.
// Package-level sentinel errors let callers use errors.Is while keeping
// human-readable messages.
var (
	// ErrNoPattern is returned when no search pattern was given.
	ErrNoPattern = errors.New("no search pattern specified")

	// ErrNoTarget is returned when no root URL was given.
	ErrNoTarget = errors.New("no target specified: provide at least one URL")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidMaxBodySize is returned when the max body size is
	// negative. Use 0 for the default limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrConflictingProxies is returned when both an HTTP proxy and a
	// SOCKS proxy are configured. Requests can only go through one.
	ErrConflictingProxies = errors.New("conflicting proxies: --proxy and --socks-proxy cannot be used together")
)
