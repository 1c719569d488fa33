package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics. A nil *Metrics is a valid no-op.
type Metrics struct {
	// Booking wizard
	BookingsSubmitted prometheus.Counter
	BookingsFailed    prometheus.Counter
	WizardsOpen       prometheus.Gauge

	// Appointment workflow
	StatusTransitions *prometheus.CounterVec
	StatusRejected    *prometheus.CounterVec

	// Collaborators
	EmailsSent        *prometheus.CounterVec
	EmailsFailed      *prometheus.CounterVec
	DocumentsUploaded *prometheus.CounterVec
	BrokerPublishes   *prometheus.CounterVec
}

// NewMetrics creates all application metrics on reg.
func NewMetrics(reg prometheus.Registerer, namespace, subsystem string) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		BookingsSubmitted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "bookings_submitted_total",
			Help:      "Total number of booking wizards that reached confirmation",
		}),
		BookingsFailed: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "bookings_failed_total",
			Help:      "Total number of booking submissions rejected by persistence",
		}),
		WizardsOpen: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "booking_wizards_open",
			Help:      "Current number of booking wizards held in memory",
		}),
		StatusTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "appointment_status_transitions_total",
			Help:      "Total number of applied appointment status transitions",
		}, []string{"from", "to"}),
		StatusRejected: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "appointment_status_rejected_total",
			Help:      "Total number of rejected appointment status updates",
		}, []string{"reason"}),
		EmailsSent: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "emails_sent_total",
			Help:      "Total number of emails accepted by the email provider",
		}, []string{"template_type"}),
		EmailsFailed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "emails_failed_total",
			Help:      "Total number of emails the provider failed to accept",
		}, []string{"template_type"}),
		DocumentsUploaded: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "documents_uploaded_total",
			Help:      "Total number of patient documents stored",
		}, []string{"document_type", "store"}),
		BrokerPublishes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "broker_publishes_total",
			Help:      "Total number of broker publish attempts",
		}, []string{"channel", "status"}),
	}
}

func (m *Metrics) BookingSubmitted() {
	if m != nil {
		m.BookingsSubmitted.Inc()
	}
}

func (m *Metrics) BookingFailed() {
	if m != nil {
		m.BookingsFailed.Inc()
	}
}

func (m *Metrics) SetWizardsOpen(n int) {
	if m != nil {
		m.WizardsOpen.Set(float64(n))
	}
}

func (m *Metrics) StatusTransition(from, to string) {
	if m != nil {
		m.StatusTransitions.WithLabelValues(from, to).Inc()
	}
}

func (m *Metrics) StatusRejection(reason string) {
	if m != nil {
		m.StatusRejected.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) EmailResult(templateType string, ok bool) {
	if m == nil {
		return
	}
	if ok {
		m.EmailsSent.WithLabelValues(templateType).Inc()
		return
	}
	m.EmailsFailed.WithLabelValues(templateType).Inc()
}

func (m *Metrics) DocumentUploaded(documentType, store string) {
	if m != nil {
		m.DocumentsUploaded.WithLabelValues(documentType, store).Inc()
	}
}

func (m *Metrics) BrokerPublish(channel string, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.BrokerPublishes.WithLabelValues(channel, status).Inc()
}
