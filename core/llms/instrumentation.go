package llms

import (
	"go.opentelemetry.io/otel"
)

const scopeName = "github.com/koscakluka/ema-storyteller/core/llms"

var (
	meter = otel.Meter(scopeName)

	segmentsFlushed, _ = meter.Int64Counter("llms.segments.flushed")
)
