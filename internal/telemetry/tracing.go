package telemetry

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// TracerName — имя трейсера робота.
const TracerName = "github.com/shaiso/discharge"

// Tracer возвращает трейсер из глобального провайдера.
// Пока провайдер не установлен, спаны ничего не делают.
func Tracer() trace.Tracer {
	return otel.Tracer(TracerName)
}
