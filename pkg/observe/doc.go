// Package observe provides Prometheus metrics and OpenTelemetry tracing for
// store operations.
//
// Both types are nil-safe: a store built without them calls the same
// methods and nothing is recorded.
//
//	reg := prometheus.NewRegistry()
//	s, _ := store.New(store.Options{
//	    State:   map[string]any{"count": 0},
//	    Metrics: observe.NewMetrics(observe.WithRegistry(reg)),
//	    Tracer:  observe.NewTracer("my-app"),
//	})
package observe
