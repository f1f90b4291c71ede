package metrics

import (
	"net/http"
	"time"
)

// Provider defines the interface for metric collection
type Provider interface {
	// RecordHTTPRequest records metrics for an HTTP request
	RecordHTTPRequest(method, path, status string, duration time.Duration)

	// IncRequestsInFlight increments the in-flight requests counter
	IncRequestsInFlight()

	// DecRequestsInFlight decrements the in-flight requests counter
	DecRequestsInFlight()

	// RecordDBQuery records metrics for a database query
	RecordDBQuery(operation, table string, duration time.Duration, err error)

	// RecordPanic records a recovered panic
	RecordPanic(location string)

	// Handler returns an HTTP handler for exposing metrics
	Handler() http.Handler
}

// globalProvider is the global metrics provider
var globalProvider Provider

// SetProvider sets the global metrics provider
func SetProvider(p Provider) {
	globalProvider = p
}

// GetProvider returns the current metrics provider
func GetProvider() Provider {
	if globalProvider == nil {
		return &NoOpProvider{}
	}
	return globalProvider
}

// NoOpProvider is a no-op implementation of Provider
type NoOpProvider struct{}

func (n *NoOpProvider) RecordHTTPRequest(method, path, status string, duration time.Duration)    {}
func (n *NoOpProvider) IncRequestsInFlight()                                                     {}
func (n *NoOpProvider) DecRequestsInFlight()                                                     {}
func (n *NoOpProvider) RecordDBQuery(operation, table string, duration time.Duration, err error) {}
func (n *NoOpProvider) RecordPanic(location string)                                              {}

func (n *NoOpProvider) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Metrics provider not configured", http.StatusNotFound)
	})
}
