// Package api hosts the HTTP server, middleware, and REST handlers. Notable
// routes:
//   - GET /health and /readyz for liveness and store readiness probes.
//   - GET /metrics for Prometheus scraping, when metrics are enabled.
//   - POST /audit/ to fetch a URL and store it as a new audit job.
//   - GET /results/{job_id} for the metrics report of a stored job.
package api
