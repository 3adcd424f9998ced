package logger

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Config настройки логгера
type Config struct {
	Env   string // development: читаемый вывод в консоль, иначе JSON
	Level string
	Out   io.Writer
}

// Logger структурный логгер, который передается в хендлеры и сервисы
type Logger struct {
	zl zerolog.Logger
}

func New(cfg Config) *Logger {
	var w io.Writer = os.Stdout
	if cfg.Out != nil {
		w = cfg.Out
	}
	if cfg.Env == "development" {
		w = zerolog.ConsoleWriter{Out: w}
	}
	return &Logger{zl: zerolog.New(w).Level(parseLevel(cfg.Level)).With().Timestamp().Logger()}
}

// Nop логгер для тестов, ничего не пишет
func Nop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

// parseLevel по умолчанию info, в том числе для неизвестных значений
func parseLevel(s string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(s)
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

func (l *Logger) Info() *zerolog.Event  { return l.zl.Info() }
func (l *Logger) Warn() *zerolog.Event  { return l.zl.Warn() }
func (l *Logger) Error() *zerolog.Event { return l.zl.Error() }
func (l *Logger) Fatal() *zerolog.Event { return l.zl.Fatal() }
