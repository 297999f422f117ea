// Package metrics provides build metrics for sitebuilder.
//
// Components receive a Recorder and default to NoopRecorder, so callers never
// nil-check before recording. The CLI swaps in a PrometheusRecorder when a
// textfile path is configured or when the watch server exposes /metrics.
package metrics
