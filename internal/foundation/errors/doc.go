// Package errors provides the classified error primitives used across sitebuilder.
//
// Every failure a build can surface is tagged with an ErrorCategory so the
// orchestrator can tell per-file failures (format, render, template, filesystem)
// from run-level ones (config), and so the CLI can pick an exit code.
//
// Example usage:
//
//	err := errors.FormatError("missing required field").
//		WithContext("path", path).
//		WithContext("field", "title").
//		Build()
package errors
