// Package pipeline implements webgrep's type-keyed content pipelines.
//
// Two independent tables are kept per run: preprocessors, which replace
// a resource's content after fetch and before persistence (script
// beautification, CSS unminification), and derivers, which produce new
// derived child resources after persistence (EXIF dumps, OCR text,
// steghide probing). Both tables are keyed by resource type and ordered
// by registration.
//
// Every step carries a capability probe — an external binary checked
// with a harmless invocation, or always-available for in-process steps.
// Probes run once per registry; unavailable steps are skipped for the
// whole run with a single warning and never abort anything.
package pipeline
