package utils

import (
	"go.uber.org/zap"
)

// BestEffort runs a fire-and-forget side effect, logging any failure and
// swallowing it. Used where a secondary write must not affect the caller's
// outcome, such as history archiving or API-key usage stamps.
func BestEffort(logger *zap.Logger, operation string, fn func() error) {
	if err := fn(); err != nil {
		logger.Warn("Best-effort operation failed",
			zap.String("operation", operation),
			zap.Error(err))
	}
}
