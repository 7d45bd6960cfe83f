package metrics

import "github.com/prometheus/client_golang/prometheus"

// Request outcomes recorded by ObserveRequest.
const (
	OutcomeReplied = "replied"
	OutcomeFlagged = "flagged"
	OutcomeInvalid = "invalid"
	OutcomeFailed  = "failed"
)

// ChatMetrics exposes counters and histograms for the chat pipeline.
type ChatMetrics struct {
	requestsTotal *prometheus.CounterVec
	emotionTotal  *prometheus.CounterVec
	llmLatency    *prometheus.HistogramVec
}

// NewChatMetrics registers the collectors on reg, or the default registerer when reg is nil.
func NewChatMetrics(reg prometheus.Registerer) *ChatMetrics {
	m := &ChatMetrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "support_chat",
			Name:      "requests_total",
			Help:      "Chat requests by outcome",
		}, []string{"outcome"}),
		emotionTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "support_chat",
			Name:      "emotion_total",
			Help:      "Detected emotion labels on replied messages",
		}, []string{"emotion"}),
		llmLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "support_chat",
			Name:      "llm_latency_seconds",
			Help:      "Latency of language model completions",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 15, 30},
		}, []string{"provider", "status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.requestsTotal, m.emotionTotal, m.llmLatency)
	return m
}

// ObserveRequest counts one request by outcome.
func (m *ChatMetrics) ObserveRequest(outcome string) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(outcome).Inc()
}

func (m *ChatMetrics) ObserveEmotion(label string) {
	if m == nil {
		return
	}
	m.emotionTotal.WithLabelValues(label).Inc()
}

func (m *ChatMetrics) ObserveLLM(provider string, ok bool, seconds float64) {
	if m == nil {
		return
	}
	status := "ok"
	if !ok {
		status = "error"
	}
	m.llmLatency.WithLabelValues(provider, status).Observe(seconds)
}
