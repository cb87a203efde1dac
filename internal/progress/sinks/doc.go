// Package sinks implements concrete progress consumers: a structured zap log
// sink and Prometheus collectors for runs and steps. Each sink satisfies
// progress.Sink.
package sinks
