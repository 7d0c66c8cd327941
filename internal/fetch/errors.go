package fetch

import "errors"

var (
	// ErrInvalidProxyAddress is returned when a SOCKS proxy address is
	// not in "host:port" format.
	ErrInvalidProxyAddress = errors.New("invalid proxy address: expected host:port format")

	// ErrInvalidProxyURL is returned when an HTTP proxy URL cannot be
	// parsed.
	ErrInvalidProxyURL = errors.New("invalid proxy URL")
)
