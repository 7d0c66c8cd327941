// Package log provides secure structured logging for webgrep.
//
// webgrep sends user-supplied credentials with its requests (cookies,
// Authorization headers, proxy credentials) and logs request metadata
// at debug level. The SecureHandler wrapper sanitizes those values
// before they reach the underlying slog handler, so verbose logs can be
// shared without leaking secrets.
package log
