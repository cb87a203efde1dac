// Package api hosts the HTTP server, middleware, and REST handlers for
// explorations. Notable routes:
//   - GET /healthz / readyz for Kubernetes probes.
//   - GET /metrics for Prometheus scraping.
//   - POST /v1/explore runs an exploration synchronously.
//   - POST /v1/explorations queues one; GET /v1/explorations/{id} polls its
//     live steps and POST /v1/explorations/{id}/cancel stops it.
package api
