package middleware

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/duynhne/contact-service/config"
)

const TraceIDHeader = "X-Trace-ID"
const TraceParentHeader = "traceparent"

// Gin context keys set by LoggingMiddleware
const (
	traceIDKey = "trace_id"
	loggerKey  = "logger"
)

// GetTraceID extracts trace-id from request headers or generates a new one
func GetTraceID(c *gin.Context) string {
	// W3C Trace Context first: version-trace_id-parent_id-flags
	if traceParent := c.GetHeader(TraceParentHeader); traceParent != "" {
		if traceID := traceIDFromParent(traceParent); traceID != "" {
			return traceID
		}
	}

	// Fallback to X-Trace-ID header
	if traceID := c.GetHeader(TraceIDHeader); traceID != "" {
		return traceID
	}

	return generateTraceID()
}

// traceIDFromParent returns the trace_id part of a traceparent header, or "" if malformed
func traceIDFromParent(traceParent string) string {
	parts := strings.Split(traceParent, "-")
	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}

// generateTraceID generates a trace-id using random bytes
func generateTraceID() string {
	// 16 random bytes (32 hex characters)
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// LoggingMiddleware creates a Gin middleware for structured logging with trace-id
func LoggingMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		traceID := GetTraceID(c)

		// Handlers pick up the trace-scoped logger through GetLoggerFromGinContext
		c.Set(traceIDKey, traceID)
		c.Set(loggerKey, logger.With(zap.String("trace_id", traceID)))
		c.Header(TraceIDHeader, traceID)

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()
		fields := []zap.Field{
			zap.String("trace_id", traceID),
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", statusCode),
			zap.Duration("duration", duration),
			zap.String("client_ip", c.ClientIP()),
			zap.String("user_agent", c.Request.UserAgent()),
		}

		switch {
		case statusCode >= 500:
			logger.Error("HTTP request", fields...)
		case statusCode >= 400:
			logger.Warn("HTTP request", fields...)
		default:
			logger.Info("HTTP request", fields...)
		}
	}
}

// GetLoggerFromGinContext retrieves logger from Gin context (set by LoggingMiddleware)
func GetLoggerFromGinContext(c *gin.Context) *zap.Logger {
	if loggerVal, exists := c.Get(loggerKey); exists {
		if l, ok := loggerVal.(*zap.Logger); ok {
			return l
		}
	}
	return zap.L()
}

// NewLoggerFromConfig builds the service logger from LOG_* settings.
// Records go to stdout in the configured format and, when LOG_FILE is set,
// also as JSON to a lumberjack-rotated file.
func NewLoggerFromConfig(cfg config.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	jsonEncoder := zapcore.NewJSONEncoder(productionEncoderConfig())

	var stdoutEncoder zapcore.Encoder
	switch strings.ToLower(cfg.Format) {
	case "", "json":
		stdoutEncoder = jsonEncoder
	case "console":
		encCfg := zap.NewDevelopmentEncoderConfig()
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		stdoutEncoder = zapcore.NewConsoleEncoder(encCfg)
	default:
		return nil, fmt.Errorf("invalid log format %q", cfg.Format)
	}

	cores := []zapcore.Core{
		zapcore.NewCore(stdoutEncoder, zapcore.Lock(os.Stdout), level),
	}
	if cfg.File != "" {
		cores = append(cores, zapcore.NewCore(jsonEncoder, zapcore.AddSync(newRotatingFile(cfg)), level))
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)), nil
}

func newRotatingFile(cfg config.LoggingConfig) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.FileMaxSizeMB,
		MaxBackups: cfg.FileMaxBackups,
		MaxAge:     cfg.FileMaxAgeDays,
		Compress:   true,
	}
}

func productionEncoderConfig() zapcore.EncoderConfig {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "timestamp"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.MessageKey = "message"
	encCfg.LevelKey = "level"
	encCfg.CallerKey = "caller"
	return encCfg
}
