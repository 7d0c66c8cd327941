// Package history provides SQLite-based storage of fetch history.
//
// Unlike the cache (which only answers "is this path already on
// disk?"), the history database records what each fetch returned —
// status code, content type, classified type, timestamp — across runs,
// and backs the `webgrep history` subcommand.
package history
