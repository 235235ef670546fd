package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	config "gitlab.com/maplesense1/wss.sensor_server/src/production/WSS.Config"
)

// Logger is the zerolog logger shared by both services.
type Logger struct {
	*zerolog.Logger
}

// NewLogger builds a logger writing to the configured stream.
func NewLogger(cfg *config.LoggingConfig) *Logger {
	var out io.Writer = os.Stdout
	if cfg.Output == "stderr" {
		out = os.Stderr
	}
	return NewLoggerWithWriter(cfg, out)
}

// NewLoggerWithWriter builds a logger writing to out and installs it as the
// zerolog/log package logger.
func NewLoggerWithWriter(cfg *config.LoggingConfig, out io.Writer) *Logger {
	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	if cfg.Format != "json" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	zctx := zerolog.New(out).With().Timestamp()
	if cfg.EnableCaller {
		zctx = zctx.Caller()
	}
	log.Logger = zctx.Logger()

	return &Logger{&log.Logger}
}

// NewNop discards everything.
func NewNop() *Logger {
	nop := zerolog.Nop()
	return &Logger{&nop}
}

func parseLevel(raw string) zerolog.Level {
	if raw == "" {
		return zerolog.InfoLevel
	}
	level, err := zerolog.ParseLevel(strings.ToLower(raw))
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}

func (l *Logger) derive(add func(zerolog.Context) zerolog.Context) *Logger {
	child := add(l.Logger.With()).Logger()
	return &Logger{&child}
}

// WithComponent tags entries with the emitting component.
func (l *Logger) WithComponent(component string) *Logger {
	return l.derive(func(c zerolog.Context) zerolog.Context { return c.Str("component", component) })
}

// WithRequestID tags entries with the HTTP request id.
func (l *Logger) WithRequestID(requestID string) *Logger {
	return l.derive(func(c zerolog.Context) zerolog.Context { return c.Str("request_id", requestID) })
}

func (l *Logger) WithField(key string, value interface{}) *Logger {
	return l.derive(func(c zerolog.Context) zerolog.Context { return c.Interface(key, value) })
}

func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	return l.derive(func(c zerolog.Context) zerolog.Context { return c.Fields(fields) })
}

func (l *Logger) Debug(msg string) { l.Logger.Debug().Msg(msg) }
func (l *Logger) Info(msg string)  { l.Logger.Info().Msg(msg) }
func (l *Logger) Warn(msg string)  { l.Logger.Warn().Msg(msg) }
func (l *Logger) Error(msg string) { l.Logger.Error().Msg(msg) }

// ErrorWithError logs msg at error level with err attached.
func (l *Logger) ErrorWithError(err error, msg string) { l.Logger.Error().Err(err).Msg(msg) }

// Fatal logs msg and exits the process.
func (l *Logger) Fatal(msg string) { l.Logger.Fatal().Msg(msg) }

// FatalWithError logs msg with err attached and exits the process.
func (l *Logger) FatalWithError(err error, msg string) { l.Logger.Fatal().Err(err).Msg(msg) }
