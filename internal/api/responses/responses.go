// Package responses centralizes the JSON error envelope and the process logger.
package responses

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// InitLogger builds the process logger and installs it as zap's global.
// debug gives a colorized console; any other level compact JSON.
func InitLogger(level string) *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if lvl, err := zapcore.ParseLevel(level); err == nil {
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	if level == "debug" {
		cfg.Encoding = "console"
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	logger, err := cfg.Build()
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	zap.ReplaceGlobals(logger)
	return logger
}

// ErrorBody is the JSON envelope of every error response.
type ErrorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// Error aborts the request with status and a user-facing message. details,
// when given, is returned to the client and logged.
func Error(c *gin.Context, status int, message string, details ...string) {
	body := ErrorBody{Error: message}
	if len(details) > 0 {
		body.Details = details[0]
	}

	fields := []zap.Field{
		zap.Int("status", status),
		zap.String("path", c.Request.URL.Path),
		zap.String("message", message),
	}
	if body.Details != "" {
		fields = append(fields, zap.String("details", body.Details))
	}
	if status >= 500 {
		zap.L().Error("request failed", fields...)
	} else {
		zap.L().Warn("request rejected", fields...)
	}
	c.AbortWithStatusJSON(status, body)
}
