package ai

import (
	"time"

	"github.com/pkoukk/tiktoken-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	aiRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lesson_ai_requests_total",
			Help: "Total number of requests to AI providers.",
		},
		[]string{"model", "status"},
	)
	aiRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lesson_ai_request_duration_seconds",
			Help:    "Histogram of AI provider request durations.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"model"},
	)
	aiPromptTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lesson_ai_prompt_tokens",
			Help:    "Histogram of prompt token counts.",
			Buckets: prometheus.LinearBuckets(250, 250, 20),
		},
		[]string{"model"},
	)
	aiCompletionTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lesson_ai_completion_tokens",
			Help:    "Histogram of completion token counts.",
			Buckets: prometheus.LinearBuckets(100, 100, 20),
		},
		[]string{"model"},
	)
)

func observeRequest(model, status string, duration time.Duration) {
	aiRequestsTotal.With(prometheus.Labels{"model": model, "status": status}).Inc()
	if status == "success" {
		aiRequestDuration.With(prometheus.Labels{"model": model}).Observe(duration.Seconds())
	}
}

func observeUsage(model string, promptTokens, completionTokens int) {
	aiPromptTokens.With(prometheus.Labels{"model": model}).Observe(float64(promptTokens))
	aiCompletionTokens.With(prometheus.Labels{"model": model}).Observe(float64(completionTokens))
}

// ObservePromptTokens кладет локальную оценку размера промта в ту же
// гистограмму, что и usage от провайдера.
func ObservePromptTokens(model string, tokens int) {
	if tokens <= 0 {
		return
	}
	aiPromptTokens.With(prometheus.Labels{"model": model}).Observe(float64(tokens))
}

// EstimatePromptTokens считает токены промта локально, чтобы фиксировать
// размер запроса даже когда провайдер не вернул usage (dummy, ошибки сети).
func EstimatePromptTokens(model, prompt string) int {
	tke, err := tiktoken.EncodingForModel(model)
	if err != nil {
		// Для незнакомых моделей берем универсальную кодировку.
		tke, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return 0
		}
	}
	return len(tke.Encode(prompt, nil, nil))
}
