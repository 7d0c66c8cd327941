// Package resource defines the resource tree node and the pure functions
// that give each node its identity: storage path computation, origin
// derivation, embedded-data decoding, and semantic type classification.
//
// A Resource is a node in the traversal tree rooted at a target URL: the
// page itself, its images, scripts and stylesheets, inline fragments, and
// artifacts derived by analysis tools. Identity is computed once at
// construction and never recomputed; two constructions with identical
// inputs always yield identical paths, which is what makes the on-disk
// cache valid across runs.
package resource
