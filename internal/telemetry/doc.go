// Package telemetry обеспечивает наблюдаемость робота.
//
// Включает:
//   - logging.go — structured logging через slog
//   - metrics.go — Prometheus метрики
//   - tracing.go — трейсер OpenTelemetry
//
// CPR пациента никогда не пишется в лог целиком, только через MaskCPR.
// Метрики экспортируются воркером на /metrics.
package telemetry
