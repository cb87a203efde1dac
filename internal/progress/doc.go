// Package progress provides the event primitives, non-blocking hub, and emitter
// interfaces the explorer uses to report per-step progress. Events are batched
// on a background goroutine and fanned out to pluggable sinks such as the zap
// log sink or Prometheus collectors.
package progress
