// Package devtools serves an HTTP inspection API for live stores: state
// snapshots, getters, dependency edges, remote commits, a WebSocket stream
// of mutations and Prometheus metrics.
//
//	reg := store.NewRegistry()
//	srv := devtools.NewServer(reg, devtools.Options{Gatherer: prometheus.DefaultGatherer})
//	defer srv.Close()
//	http.ListenAndServe("localhost:9229", srv.Handler())
package devtools
