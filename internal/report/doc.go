// Package report summarizes a webgrep run: how many resources of each
// type were materialized per root URL, which failed, and which matched
// the search pattern. The summary can be rendered as GitHub Flavored
// Markdown for sharing.
package report
