package metrics

import "sync"

// Snapshot captures current in-memory counters, keyed by status or
// window name.
type Snapshot struct {
	ContactSubmissions map[string]uint64
	Subscriptions      map[string]uint64
	WelcomeEmails      map[string]uint64
	RateLimited        map[string]uint64
	Downloads          map[string]uint64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	mu                 sync.Mutex
	contactSubmissions map[string]uint64
	subscriptions      map[string]uint64
	welcomeEmails      map[string]uint64
	rateLimited        map[string]uint64
	downloads          map[string]uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{
		contactSubmissions: make(map[string]uint64),
		subscriptions:      make(map[string]uint64),
		welcomeEmails:      make(map[string]uint64),
		rateLimited:        make(map[string]uint64),
		downloads:          make(map[string]uint64),
	}
}

// IncContactSubmission counts a contact form outcome.
func (m *InMemoryRecorder) IncContactSubmission(status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.contactSubmissions[status]++
}

// IncSubscription counts a signup outcome.
func (m *InMemoryRecorder) IncSubscription(status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscriptions[status]++
}

// IncWelcomeEmail counts a welcome email outcome.
func (m *InMemoryRecorder) IncWelcomeEmail(status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.welcomeEmails[status]++
}

// IncRateLimited counts a 429 per endpoint window.
func (m *InMemoryRecorder) IncRateLimited(window string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rateLimited[window]++
}

// IncDownload counts a download outcome.
func (m *InMemoryRecorder) IncDownload(status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.downloads[status]++
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{
		ContactSubmissions: copyCounters(m.contactSubmissions),
		Subscriptions:      copyCounters(m.subscriptions),
		WelcomeEmails:      copyCounters(m.welcomeEmails),
		RateLimited:        copyCounters(m.rateLimited),
		Downloads:          copyCounters(m.downloads),
	}
}

func copyCounters(src map[string]uint64) map[string]uint64 {
	dst := make(map[string]uint64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
