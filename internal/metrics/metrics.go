// Package metrics provides lightweight hooks for instrumentation.
package metrics

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Contact form metrics. status: "sent", "rejected", "failed"
	IncContactSubmission(status string)

	// Signup metrics. status: "subscribed", "duplicate", "rejected", "failed"
	IncSubscription(status string)

	// Welcome email metrics. status: "sent", "failed"
	IncWelcomeEmail(status string)

	// Admission control metrics, per endpoint window name.
	IncRateLimited(window string)

	// Lead magnet download metrics. status: "served", "rejected", "missing"
	IncDownload(status string)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
