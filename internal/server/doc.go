// Package server exposes the coordinator over HTTP: control endpoints, a
// server-sent-events stream of bus states, Prometheus metrics and a health
// check, routed with chi.
package server
