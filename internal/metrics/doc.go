// Package metrics exposes counters for the ping state store.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so no call site needs a nil check. To export metrics,
// construct a PrometheusRecorder on a registry and serve that registry with
// HTTPHandler:
//
//	reg := prometheus.NewRegistry()
//	rec := metrics.NewPrometheusRecorder(reg)
//	http.Handle("/metrics", metrics.HTTPHandler(reg))
package metrics
