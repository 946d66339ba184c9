package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type Config struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json | console
	Output string `yaml:"output"` // stdout | stderr
}

var (
	mu   sync.RWMutex
	base = zerolog.New(os.Stdout).With().Timestamp().Logger()
)

// Init configures the process-wide sink every service logger derives from.
func Init(cfg Config) error {
	level := zerolog.InfoLevel
	if cfg.Level != "" {
		l, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
		level = l
	}

	var out io.Writer
	switch strings.ToLower(cfg.Output) {
	case "stderr":
		out = os.Stderr
	default:
		out = os.Stdout
	}
	if strings.ToLower(cfg.Format) == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano
	mu.Lock()
	base = zerolog.New(out).Level(level).With().Timestamp().Logger()
	mu.Unlock()
	return nil
}

type Logger struct {
	zl zerolog.Logger
}

func New(service string) *Logger {
	mu.RLock()
	defer mu.RUnlock()
	return &Logger{zl: base.With().Str("service", service).Str("hostname", hostname()).Logger()}
}

// NewWithWriter builds a logger that writes JSON lines to w; used by tests.
func NewWithWriter(service string, w io.Writer) *Logger {
	return &Logger{zl: zerolog.New(w).With().Timestamp().Str("service", service).Logger()}
}

func Nop() *Logger { return &Logger{zl: zerolog.Nop()} }

func (l *Logger) event(e *zerolog.Event, action string, fields map[string]any) {
	e.Str("action", action).Fields(fields).Msg(action)
}

func (l *Logger) Info(action string, fields map[string]any)  { l.event(l.zl.Info(), action, fields) }
func (l *Logger) Debug(action string, fields map[string]any) { l.event(l.zl.Debug(), action, fields) }
func (l *Logger) Warn(action string, fields map[string]any)  { l.event(l.zl.Warn(), action, fields) }
func (l *Logger) Error(action string, err error, fields map[string]any) {
	l.event(l.zl.Error().Err(err), action, fields)
}

func hostname() string { h, _ := os.Hostname(); return h }
