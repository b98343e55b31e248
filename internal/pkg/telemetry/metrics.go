package telemetry

// SLI metric names used for instrumentation.
const (
	// Latency
	MetricAPILatencyP95      = "api.latency.p95"
	MetricCoverageLatencyP95 = "coverage.run_latency.p95"

	// Freshness: time between log submission and stored result
	MetricProcessingLag = "coverage.processing_lag_seconds"

	// Business
	MetricCoveragePercent = "business.coverage_percent"
	MetricWasteHectares   = "business.waste_hectares"
)
