package metrics

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncContactSubmission is a no-op.
func (n *NoopRecorder) IncContactSubmission(status string) {}

// IncSubscription is a no-op.
func (n *NoopRecorder) IncSubscription(status string) {}

// IncWelcomeEmail is a no-op.
func (n *NoopRecorder) IncWelcomeEmail(status string) {}

// IncRateLimited is a no-op.
func (n *NoopRecorder) IncRateLimited(window string) {}

// IncDownload is a no-op.
func (n *NoopRecorder) IncDownload(status string) {}
