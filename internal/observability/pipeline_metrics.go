package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	questionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medalchat_questions_total",
			Help: "Questions answered, by terminal pipeline stage.",
		},
		[]string{"stage"},
	)
	guardRejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medalchat_guard_rejections_total",
			Help: "Questions stopped by the guard engine, by category.",
		},
		[]string{"category"},
	)
	fallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medalchat_sql_fallbacks_total",
			Help: "Simplified-query retries, by trigger and whether the retry was adopted.",
		},
		[]string{"reason", "adopted"},
	)
	sqlExecutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medalchat_sql_executions_total",
			Help: "Generated statements executed, by result class.",
		},
		[]string{"result"},
	)
	llmTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medalchat_llm_tokens_total",
			Help: "LLM tokens consumed, by provider and direction.",
		},
		[]string{"provider", "direction"},
	)
	llmCostUSD = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medalchat_llm_cost_usd_total",
			Help: "Estimated LLM spend in USD, by provider.",
		},
		[]string{"provider"},
	)
	questionLatencyMs = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "medalchat_question_latency_ms",
			Help:    "End-to-end pipeline latency in milliseconds.",
			Buckets: []float64{50, 100, 250, 500, 1000, 2000, 4000, 8000, 15000, 30000},
		},
	)
)

func init() {
	prometheus.MustRegister(
		questionsTotal,
		guardRejectionsTotal,
		fallbacksTotal,
		sqlExecutionsTotal,
		llmTokensTotal,
		llmCostUSD,
		questionLatencyMs,
	)
}

func ObserveQuestion(stage string, elapsed time.Duration) {
	questionsTotal.WithLabelValues(stage).Inc()
	questionLatencyMs.Observe(float64(elapsed.Milliseconds()))
}

func IncrementGuardRejection(category string) {
	guardRejectionsTotal.WithLabelValues(category).Inc()
}

func IncrementFallback(reason string, adopted bool) {
	a := "false"
	if adopted {
		a = "true"
	}
	fallbacksTotal.WithLabelValues(reason, a).Inc()
}

// IncrementSQLExecution records one statement run; result is "ok", "syntax"
// or "execution".
func IncrementSQLExecution(result string) {
	sqlExecutionsTotal.WithLabelValues(result).Inc()
}

func ObserveLLMUsage(provider string, inputTokens, outputTokens int, costUSD float64) {
	llmTokensTotal.WithLabelValues(provider, "input").Add(float64(inputTokens))
	llmTokensTotal.WithLabelValues(provider, "output").Add(float64(outputTokens))
	if costUSD > 0 {
		llmCostUSD.WithLabelValues(provider).Add(costUSD)
	}
}
