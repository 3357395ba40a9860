// Package metrics provides observability hooks for navigation check and
// render runs.
//
// The package follows the Null Object pattern: components receive a Recorder
// through dependency injection and default to NoopRecorder, so metrics stay
// optional without nil checks at every call site. PrometheusRecorder is the
// real implementation, registered against a prometheus.Registry and exposed
// over HTTP with HTTPHandler.
package metrics
