package middleware

import (
	"io"

	"fitbook/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Output: io.Discard})
}
