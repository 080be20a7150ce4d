package orchestration

import (
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
)

const scopeName = "github.com/koscakluka/ema-storyteller/core"

var (
	tracer = otel.Tracer(scopeName)
	meter  = otel.Meter(scopeName)
	logger = otelslog.NewLogger(scopeName)

	turnsStarted, _    = meter.Int64Counter("orchestration.turns.started")
	turnsSuperseded, _ = meter.Int64Counter("orchestration.turns.superseded")
)
