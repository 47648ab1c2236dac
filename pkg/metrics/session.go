package metrics

import "github.com/prometheus/client_golang/prometheus"

// Reasons used with SessionMetrics.
const (
	IssueLogin   = "login"
	IssueRefresh = "refresh"
	IssueSwitch  = "switch_context"

	RejectInvalid = "invalid"
	RejectVersion = "version_mismatch"
	RejectUser    = "user_inactive"
)

// SessionMetrics tracks token issuance and authorization gate outcomes.
type SessionMetrics struct {
	issued          *prometheus.CounterVec
	refreshRejected *prometheus.CounterVec
	contextSwitches *prometheus.CounterVec
	gateDenied      *prometheus.CounterVec
}

// NewSessionMetrics registers the session metrics on the provided registerer.
func NewSessionMetrics(reg prometheus.Registerer) *SessionMetrics {
	if reg == nil {
		return &SessionMetrics{}
	}
	m := &SessionMetrics{
		issued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "session_tokens_issued_total",
			Help: "Token pairs issued, by reason.",
		}, []string{"reason"}),
		refreshRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "session_refresh_rejected_total",
			Help: "Refresh attempts rejected, by reason.",
		}, []string{"reason"}),
		contextSwitches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "session_context_switches_total",
			Help: "Successful context switches, by selected scope.",
		}, []string{"scope"}),
		gateDenied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authz_gate_denied_total",
			Help: "Requests stopped by an access-control gate.",
		}, []string{"gate"}),
	}
	reg.MustRegister(m.issued, m.refreshRejected, m.contextSwitches, m.gateDenied)
	return m
}

func (m *SessionMetrics) IncIssued(reason string) {
	if m == nil || m.issued == nil {
		return
	}
	m.issued.WithLabelValues(normalizeLabel(reason)).Inc()
}

func (m *SessionMetrics) IncRefreshRejected(reason string) {
	if m == nil || m.refreshRejected == nil {
		return
	}
	m.refreshRejected.WithLabelValues(normalizeLabel(reason)).Inc()
}

func (m *SessionMetrics) IncContextSwitch(scope string) {
	if m == nil || m.contextSwitches == nil {
		return
	}
	m.contextSwitches.WithLabelValues(normalizeLabel(scope)).Inc()
}

func (m *SessionMetrics) IncGateDenied(gate string) {
	if m == nil || m.gateDenied == nil {
		return
	}
	m.gateDenied.WithLabelValues(normalizeLabel(gate)).Inc()
}
