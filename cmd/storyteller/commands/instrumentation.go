package commands

import "go.opentelemetry.io/contrib/bridges/otelslog"

const scopeName = "github.com/koscakluka/ema-storyteller/cmd/storyteller"

var logger = otelslog.NewLogger(scopeName)
