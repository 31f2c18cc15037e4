package metrics

import "github.com/prometheus/client_golang/prometheus"

// MessagingMetrics exposes counters/histograms for the SMS dispatch flow.
type MessagingMetrics struct {
	inboundTotal   *prometheus.CounterVec
	outboundTotal  *prometheus.CounterVec
	webhookLatency *prometheus.HistogramVec
	llmTokens      *prometheus.CounterVec
}

func NewMessagingMetrics(reg prometheus.Registerer) *MessagingMetrics {
	m := &MessagingMetrics{
		inboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tradeos",
			Subsystem: "messaging",
			Name:      "inbound_webhook_total",
			Help:      "Total inbound Twilio webhooks by pipeline outcome",
		}, []string{"outcome"}),
		outboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tradeos",
			Subsystem: "messaging",
			Name:      "outbound_total",
			Help:      "Total outbound Twilio sends",
		}, []string{"status"}),
		webhookLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tradeos",
			Subsystem: "messaging",
			Name:      "webhook_latency_seconds",
			Help:      "Latency of Twilio webhook processing",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
		llmTokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tradeos",
			Subsystem: "messaging",
			Name:      "llm_tokens_total",
			Help:      "Total LLM tokens consumed per client",
		}, []string{"client_id"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.inboundTotal, m.outboundTotal, m.webhookLatency, m.llmTokens)
	return m
}

func (m *MessagingMetrics) ObserveInbound(outcome string) {
	if m == nil {
		return
	}
	m.inboundTotal.WithLabelValues(outcome).Inc()
}

func (m *MessagingMetrics) ObserveOutbound(status string) {
	if m == nil {
		return
	}
	m.outboundTotal.WithLabelValues(status).Inc()
}

func (m *MessagingMetrics) ObserveWebhookLatency(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.webhookLatency.WithLabelValues(outcome).Observe(seconds)
}

func (m *MessagingMetrics) AddLLMTokens(clientID string, tokens int) {
	if m == nil || tokens <= 0 {
		return
	}
	m.llmTokens.WithLabelValues(clientID).Add(float64(tokens))
}
