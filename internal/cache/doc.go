// Package cache persists the mapping from root URL to the set of
// relative paths and resource types materialized under it, so repeated
// runs against the same root skip network I/O entirely.
//
// The on-disk format is a single JSON file, cache.json, under the
// storage root. A missing or malformed file is a cold start, never a
// fatal error. The store has no notion of expiry: a resource on disk is
// trusted forever once registered, and staleness is the caller's
// responsibility.
package cache
