package outbox

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// pendingAlert is the buffered event count reported as a warning.
const pendingAlert = 512

type HealthStatus struct {
	Healthy       bool     `json:"healthy"`
	RelayRunning  bool     `json:"relay_running"`
	Published     uint64   `json:"events_published"`
	Failed        uint64   `json:"events_failed"`
	Dropped       uint64   `json:"events_dropped"`
	PendingEvents int      `json:"pending_events"`
	NATSConnected *bool    `json:"nats_connected,omitempty"`
	Errors        []string `json:"errors"`
}

type connectionChecker interface {
	Connected() bool
}

// HealthChecker reports on the relay and, when the publisher has one, its
// broker connection.
type HealthChecker struct {
	relay *Relay
}

func NewHealthChecker(relay *Relay) *HealthChecker {
	return &HealthChecker{relay: relay}
}

func (h *HealthChecker) Check() HealthStatus {
	stats := h.relay.Stats()
	status := HealthStatus{
		Healthy:       true,
		RelayRunning:  h.relay.Running(),
		Published:     stats.Published,
		Failed:        stats.Failed,
		Dropped:       stats.Dropped,
		PendingEvents: h.relay.Pending(),
		Errors:        []string{},
	}

	if !status.RelayRunning {
		status.Healthy = false
		status.Errors = append(status.Errors, "relay not running")
	}

	if cc, ok := h.relay.publisher.(connectionChecker); ok {
		connected := cc.Connected()
		status.NATSConnected = &connected
		if !connected {
			status.Healthy = false
			status.Errors = append(status.Errors, "NATS disconnected")
		}
	}

	if status.PendingEvents > pendingAlert {
		status.Errors = append(status.Errors, fmt.Sprintf("high pending event count: %d", status.PendingEvents))
	}

	return status
}

func (h *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	status := h.Check()

	w.Header().Set("Content-Type", "application/json")
	if !status.Healthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(status)
}
