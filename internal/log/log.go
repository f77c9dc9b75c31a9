package log

import (
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelError Level = "ERROR"
)

var (
	mu     sync.RWMutex
	logger = newLogger(zerolog.InfoLevel)
)

func newLogger(lvl zerolog.Level) zerolog.Logger {
	w := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

func SetLevel(l Level) {
	mu.Lock()
	defer mu.Unlock()
	logger = logger.Level(parseLevel(l))
}

func parseLevel(l Level) zerolog.Level {
	switch Level(strings.ToUpper(strings.TrimSpace(string(l)))) {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func Debug(msg string, kv ...any) {
	mu.RLock()
	e := logger.Debug()
	mu.RUnlock()
	emit(e, msg, kv)
}

func Info(msg string, kv ...any) {
	mu.RLock()
	e := logger.Info()
	mu.RUnlock()
	emit(e, msg, kv)
}

func Error(msg string, err error, kv ...any) {
	mu.RLock()
	e := logger.Error().Err(err)
	mu.RUnlock()
	emit(e, msg, kv)
}

// emit attaches kv as structured fields. Arguments are consumed as
// key, value pairs; non-string keys are skipped and a trailing odd
// argument is ignored.
func emit(e *zerolog.Event, msg string, kv []any) {
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		e = e.Interface(key, kv[i+1])
	}
	e.Msg(msg)
}
