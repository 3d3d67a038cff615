package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder counts pipeline outcomes. A no-op implementation backs it
// when metrics are disabled, so callers never check a flag.
type Recorder interface {
	IncInspected()
	IncGateSkip(reason string)
	IncVerdict(label string)
	IncClassifierFailure()
	IncScamDetected()
	IncEnforcement(action string)
	IncNotificationSent()
	IncNotificationFailed()
	IncOverride(decision string)
}

type recorder struct {
	inspected          prometheus.Counter
	gateSkips          *prometheus.CounterVec
	verdicts           *prometheus.CounterVec
	classifierFailures prometheus.Counter
	scamsDetected      prometheus.Counter
	enforcementActions *prometheus.CounterVec
	notificationsSent  prometheus.Counter
	notificationErrors prometheus.Counter
	overrideDecisions  *prometheus.CounterVec
}

// NewRecorder registers the pipeline counters with the default
// registry, or returns a no-op recorder when disabled.
func NewRecorder(enabled bool) Recorder {
	if !enabled {
		return &noopRecorder{}
	}

	return &recorder{
		inspected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "antiscam_messages_inspected_total",
			Help: "Total number of group messages entering the moderation pipeline",
		}),

		gateSkips: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "antiscam_gate_skips_total",
			Help: "Messages dropped by a pipeline gate, by reason",
		}, []string{"reason"}),

		verdicts: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "antiscam_verdicts_total",
			Help: "Classifier verdicts, by label",
		}, []string{"label"}),

		classifierFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "antiscam_classifier_failures_total",
			Help: "Classification calls that produced no verdict",
		}),

		scamsDetected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "antiscam_scams_detected_total",
			Help: "Messages confirmed as scam by label and threshold",
		}),

		enforcementActions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "antiscam_enforcement_actions_total",
			Help: "Sanctions applied to offenders, by action",
		}, []string{"action"}),

		notificationsSent: promauto.NewCounter(prometheus.CounterOpts{
			Name: "antiscam_notifications_sent_total",
			Help: "Scam cards delivered to admin chats",
		}),

		notificationErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "antiscam_notification_errors_total",
			Help: "Scam card deliveries that failed",
		}),

		overrideDecisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "antiscam_override_decisions_total",
			Help: "Human review decisions, by decision",
		}, []string{"decision"}),
	}
}

func (r *recorder) IncInspected()              { r.inspected.Inc() }
func (r *recorder) IncGateSkip(reason string)  { r.gateSkips.WithLabelValues(reason).Inc() }
func (r *recorder) IncVerdict(label string)    { r.verdicts.WithLabelValues(label).Inc() }
func (r *recorder) IncClassifierFailure()      { r.classifierFailures.Inc() }
func (r *recorder) IncScamDetected()           { r.scamsDetected.Inc() }
func (r *recorder) IncEnforcement(action string) {
	r.enforcementActions.WithLabelValues(action).Inc()
}
func (r *recorder) IncNotificationSent()   { r.notificationsSent.Inc() }
func (r *recorder) IncNotificationFailed() { r.notificationErrors.Inc() }
func (r *recorder) IncOverride(decision string) {
	r.overrideDecisions.WithLabelValues(decision).Inc()
}

// noopRecorder is a no-op implementation for when metrics are disabled.
type noopRecorder struct{}

func (n *noopRecorder) IncInspected()            {}
func (n *noopRecorder) IncGateSkip(_ string)     {}
func (n *noopRecorder) IncVerdict(_ string)      {}
func (n *noopRecorder) IncClassifierFailure()    {}
func (n *noopRecorder) IncScamDetected()         {}
func (n *noopRecorder) IncEnforcement(_ string)  {}
func (n *noopRecorder) IncNotificationSent()     {}
func (n *noopRecorder) IncNotificationFailed()   {}
func (n *noopRecorder) IncOverride(_ string)     {}
