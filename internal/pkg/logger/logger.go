package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger define a interface para logging estruturado.
// A aplicação (Handler, Service, Repository) deve depender apenas desta interface.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, err error)
	Fatal(msg string, err error)
}

// Options configura a implementação zerolog.
type Options struct {
	Level   string
	Format  string // "json" (padrão) ou "console"
	Service string
	Output  io.Writer
}

// ZeroLogger é a implementação concreta da interface Logger sobre zerolog.
type ZeroLogger struct {
	base zerolog.Logger
}

// NewLogger cria um Logger JSON no stdout com o nível informado.
func NewLogger(level string) Logger {
	return New(Options{Level: level})
}

// New cria um Logger a partir das opções.
func New(opts Options) Logger {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	if strings.EqualFold(opts.Format, "console") {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano

	ctx := zerolog.New(out).With().Timestamp()
	if opts.Service != "" {
		ctx = ctx.Str("service", opts.Service)
	}

	return &ZeroLogger{base: ctx.Logger().Level(ParseLevel(opts.Level))}
}

// ParseLevel converte o nível textual; valores desconhecidos caem em info.
func ParseLevel(value string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(value)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

func (l *ZeroLogger) Debug(msg string, fields map[string]interface{}) {
	l.base.Debug().Fields(fields).Msg(msg)
}

func (l *ZeroLogger) Info(msg string, fields map[string]interface{}) {
	l.base.Info().Fields(fields).Msg(msg)
}

func (l *ZeroLogger) Warn(msg string, fields map[string]interface{}) {
	l.base.Warn().Fields(fields).Msg(msg)
}

func (l *ZeroLogger) Error(msg string, err error) {
	l.base.Error().Err(err).Msg(msg)
}

// Fatal registra e encerra o processo.
func (l *ZeroLogger) Fatal(msg string, err error) {
	l.base.Fatal().Err(err).Msg(msg)
}
