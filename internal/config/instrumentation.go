package config

import "go.opentelemetry.io/contrib/bridges/otelslog"

const scopeName = "github.com/koscakluka/ema-storyteller/internal/config"

var logger = otelslog.NewLogger(scopeName)
