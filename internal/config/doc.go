// Package config provides configuration structures and utilities for
// webgrep. It defines the options governing fetching, origin scope,
// caching, the search pattern, and report generation, populated from
// CLI flags and an optional per-site YAML file.
package config
