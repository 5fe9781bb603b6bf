// Package observability provides production-grade observability infrastructure
// including structured logging, Prometheus metrics, and OpenTelemetry tracing.
//
// This package centralizes observability concerns to enable:
//   - Request tracing across service boundaries
//   - Structured logging with context propagation
//   - Prometheus metrics for monitoring
//   - Performance profiling and debugging
//
// Subpackages:
//   - logging: Structured logging utilities with slog
//   - monitor: per-source crawl lineage and health metrics, exported to Prometheus
//   - tracing: OpenTelemetry tracing integration
//
// Example usage:
//
//	import (
//	    "newslook/internal/observability/logging"
//	    "newslook/internal/observability/monitor"
//	)
//
//	func main() {
//	    logger := logging.NewLogger()
//	    logger.Info("application started")
//
//	    mon := monitor.New()
//	}
package observability
