package utils

import (
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"
)

// InitLogger initializes the global zerolog logger. Pretty selects the
// human-readable console writer; otherwise logs are JSON lines.
func InitLogger(level string, pretty bool) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	if pretty {
		output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		log.Logger = zerolog.New(output).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}

	log.Info().Str("level", lvl.String()).Msg("Logger initialized")
}

// GinLogger is a middleware for Gin that logs requests using zerolog.
func GinLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		var event *zerolog.Event
		latency := time.Since(start)
		statusCode := c.Writer.Status()

		if statusCode >= 500 {
			event = log.Error()
		} else if statusCode >= 400 {
			event = log.Warn()
		} else {
			event = log.Info()
		}

		if userID, ok := c.Get("userID"); ok {
			event = event.Interface("user_id", userID)
		}
		if sc := trace.SpanContextFromContext(c.Request.Context()); sc.HasTraceID() {
			event = event.Str("trace_id", sc.TraceID().String())
		}

		event.Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status_code", statusCode).
			Str("client_ip", c.ClientIP()).
			Str("latency", latency.String()).
			Str("user_agent", c.Request.UserAgent()).
			Msg("Request processed")
	}
}

// LogError is a helper to log an error with zerolog.
func LogError(err error, message string) {
	if err != nil {
		log.Error().Err(err).Msg(message)
	}
}

// LogWarn logs a recoverable problem.
func LogWarn(err error, message string) {
	log.Warn().Err(err).Msg(message)
}

// LogInfo is a helper to log an informational message.
func LogInfo(message string, fields ...map[string]interface{}) {
	event := log.Info()
	for _, f := range fields {
		event = event.Fields(f)
	}
	event.Msg(message)
}

// LogDebug is a helper to log a debug message.
func LogDebug(message string, fields ...map[string]interface{}) {
	event := log.Debug()
	for _, f := range fields {
		event = event.Fields(f)
	}
	event.Msg(message)
}
