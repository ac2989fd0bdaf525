package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config задаёт уровень и формат вывода логов
type Config struct {
	Level  string // debug, info, warn, error
	Pretty bool
}

// New создаёт структурированный логгер сервиса
func New(cfg Config) zerolog.Logger {
	return NewWithWriter(cfg, os.Stdout)
}

// NewWithWriter используется там, где вывод нужно перехватить (тесты)
func NewWithWriter(cfg Config, out io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.TimeFieldFormat = time.RFC3339

	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
	}

	return zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Str("service", "complyform").
		Logger()
}

// SetGlobalLogger подменяет пакетный логгер zerolog/log
func SetGlobalLogger(l zerolog.Logger) {
	log.Logger = l
}
