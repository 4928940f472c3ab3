// file: jsbridge/pkg/x_log/x_log.go

// Package x_log wires zerolog with styled console output and rotated log files.
package x_log

import (
	"context"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

//---------------------
// LEVELS
//---------------------

type Level = zerolog.Level

const (
	DebugLevel = zerolog.DebugLevel
	InfoLevel  = zerolog.InfoLevel
	WarnLevel  = zerolog.WarnLevel
	ErrorLevel = zerolog.ErrorLevel
	FatalLevel = zerolog.FatalLevel
)

var initMu sync.Mutex

//---------------------
// INITIALIZATION
//---------------------

// Init configures the global logger with the default config.
func Init() {
	cfg := defaultConfig
	InitWithConfig(&cfg, "app")
}

// InitWithConfig configures the global logger and tags it with module.
func InitWithConfig(cfg *Config, module string) {
	initMu.Lock()
	defer initMu.Unlock()

	c := *cfg
	ApplyDefaults(&c)

	zerolog.SetGlobalLevel(ParseLevel(c.Level))

	var writers []io.Writer
	if c.ToConsole || !c.ToFile {
		writers = append(writers, consoleWriter(&c, os.Stderr))
	}
	if c.ToFile {
		writers = append(writers, &lumberjack.Logger{
			Filename:   c.LogFile,
			MaxSize:    c.MaxSize,
			MaxBackups: c.MaxBackups,
			MaxAge:     c.MaxAge,
			Compress:   c.Compress,
		})
	}

	var out io.Writer = writers[0]
	if len(writers) > 1 {
		out = zerolog.MultiLevelWriter(writers...)
	}

	ctx := zerolog.New(out).With().Timestamp()
	if module != "" {
		ctx = ctx.Str("module", module)
	}
	log.Logger = ctx.Logger()
}

func consoleWriter(cfg *Config, f *os.File) io.Writer {
	if cfg.JSON {
		return f
	}
	styles := DefaultStylesByName(cfg.Style)
	styles.Out = f
	cw := ConsoleWriterWithStyles(styles)
	cw.NoColor = !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd())
	return cw
}

// ParseLevel maps a level name onto zerolog, defaulting to info.
func ParseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

//---------------------
// SCOPED LOGGERS
//---------------------

// New returns a child of the global logger tagged with module.
func New(module string) zerolog.Logger {
	return log.Logger.With().Str("module", module).Logger()
}

type ctxKey struct{}

// WithLogger attaches l to ctx.
func WithLogger(ctx context.Context, l *zerolog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// From returns the logger stored in ctx or the global one.
func From(ctx context.Context) *zerolog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(ctxKey{}).(*zerolog.Logger); ok && l != nil {
			return l
		}
	}
	return &log.Logger
}

//---------------------
// DEFAULT LOGGER SHORTCUTS
//---------------------

func Trace() *zerolog.Event { return log.Logger.Trace() }
func Debug() *zerolog.Event { return log.Logger.Debug() }
func Info() *zerolog.Event  { return log.Logger.Info() }
func Warn() *zerolog.Event  { return log.Logger.Warn() }
func Error() *zerolog.Event { return log.Logger.Error() }
