// Package main provides the entry point for the webgrep CLI.
//
// webgrep fetches a web page, mirrors its embedded resources (images,
// scripts, stylesheets, inline fragments, tool-derived artifacts) into
// a local tree, and greps every eligible resource for a pattern.
//
// Usage:
//
//	webgrep grep <pattern> <url>
//	webgrep grep -i --all-origins <pattern> <url>...
//
// See --help for all available options.
package main

// main is the entry point for webgrep.
func main() {
	Execute()
}
