// Package observability bundles the operational concerns of the console
// gateway: structured JSON logging, Prometheus metrics, OpenTelemetry
// trace/metric export, health probes, and graceful shutdown.
//
// The logger is built on log/slog and travels through context so request
// handlers can enrich log lines with request and user identifiers without
// threading a logger argument everywhere.
package observability
