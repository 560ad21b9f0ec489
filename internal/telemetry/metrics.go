package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Метрики робота. Экспортируются на /metrics воркера.
var (
	// ItemsProcessed — обработанные элементы очереди по итогу.
	ItemsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "discharge_items_processed_total",
		Help: "Work items processed, by outcome",
	}, []string{"outcome"})

	// ItemDuration — продолжительность обработки одного элемента.
	ItemDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "discharge_item_duration_seconds",
		Help:    "Duration of a single work item",
		Buckets: []float64{30, 60, 120, 300, 600, 900, 1800},
	})

	// Retries — повторные попытки по операциям.
	Retries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "discharge_retries_total",
		Help: "Retries of transient failures, by operation",
	}, []string{"operation"})

	// IdempotencyOutcomes — итоги проверок перед созданием артефактов.
	IdempotencyOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "discharge_idempotency_total",
		Help: "Idempotency guard outcomes, by artifact and outcome",
	}, []string{"artifact", "outcome"})

	// StepDuration — продолжительность шагов процесса в портале.
	StepDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "discharge_pipeline_step_duration_seconds",
		Help:    "Duration of pipeline steps, by step and result",
		Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
	}, []string{"step", "result"})

	// SyncTimeouts — таймауты ожидания элементов интерфейса.
	SyncTimeouts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "discharge_sync_timeouts_total",
		Help: "Synchronization timeouts, by target",
	}, []string{"target"})
)
