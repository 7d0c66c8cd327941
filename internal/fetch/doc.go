// Package fetch implements webgrep's HTTP collaborator: GET with
// configured headers and proxy settings, returning status, headers, and
// a streaming body.
//
// Proxy support covers HTTP(S) proxies (flag or standard environment
// variables) and SOCKS5. When a configured proxy fails to connect, the
// request is retried once without proxies and proxying stays disabled
// for the rest of the run; that kill-switch is the one piece of mutable
// state the client owns.
package fetch
