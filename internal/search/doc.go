// Package search wraps the external line-matching tool. webgrep does
// not reimplement pattern matching: each eligible resource's persisted
// file is handed to grep with the user's pattern and pass-through
// flags, and non-empty output is printed verbatim as the resource's
// subtree completes.
package search
