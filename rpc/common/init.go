package common

import (
	"github.com/croftdb/croft/lib/logger"
)

// InitLoggers applies the configured log level to every logger in the
// process.
func InitLoggers(config ServerConfig) {
	level := config.LogLevel
	if level == "" {
		level = "info"
	}
	logger.SetLevelAll(level)
}
