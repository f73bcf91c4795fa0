// Package log provides named, leveled loggers backed by go-logging. All
// loggers share one sink; verbosity is set globally and may be overridden
// per module.
package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/op/go-logging"
)

type Level int

const (
	Debug Level = iota
	Info
	Notice
	Warning
	Error
)

var levelNames = map[Level]string{
	Debug:   "debug",
	Info:    "info",
	Notice:  "notice",
	Warning: "warning",
	Error:   "error",
}

var backendLevels = map[Level]logging.Level{
	Debug:   logging.DEBUG,
	Info:    logging.INFO,
	Notice:  logging.NOTICE,
	Warning: logging.WARNING,
	Error:   logging.ERROR,
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("Level(%d)", int(l))
}

func (l Level) backend() logging.Level {
	if lvl, ok := backendLevels[l]; ok {
		return lvl
	}
	return logging.NOTICE
}

// Terminal output is colored; anything else gets the plain variant.
var (
	colorFormat = logging.MustStringFormatter(
		`%{color}[%{time:15:04:05.000}] [%{module}] [%{level}]%{color:reset} %{message}`,
	)
	plainFormat = logging.MustStringFormatter(
		`[%{time:15:04:05.000}] [%{module}] [%{level}] %{message}`,
	)
)

// Backend state. Levels survive sink changes.
var (
	mu           sync.Mutex
	backend      logging.LeveledBackend
	globalLevel  = Notice
	moduleLevels = map[string]Level{}
)

type Logger interface {
	Debug(v ...interface{})
	Debugf(format string, v ...interface{})

	Info(v ...interface{})
	Infof(format string, v ...interface{})

	Notice(v ...interface{})
	Noticef(format string, v ...interface{})

	Warning(v ...interface{})
	Warningf(format string, v ...interface{})

	Error(v ...interface{})
	Errorf(format string, v ...interface{})
}

// Create a logger tagged with a module name.
func New(module string) Logger {
	return logging.MustGetLogger(module)
}

// Redirect all log output to sink.
func SetSink(sink io.Writer) {
	format := plainFormat
	if sink == os.Stderr || sink == os.Stdout {
		format = colorFormat
	}

	mu.Lock()
	defer mu.Unlock()
	backend = logging.AddModuleLevel(
		logging.NewBackendFormatter(logging.NewLogBackend(sink, "", 0), format),
	)
	logging.SetBackend(backend)
	applyLevels()
}

// Set the verbosity of every module without an override.
func SetLevel(level Level) {
	mu.Lock()
	defer mu.Unlock()
	globalLevel = level
	applyLevels()
}

// Override the verbosity of a single module.
func SetModuleLevel(module string, level Level) {
	mu.Lock()
	defer mu.Unlock()
	moduleLevels[module] = level
	applyLevels()
}

// Drop every module override.
func ResetModuleLevels() {
	mu.Lock()
	defer mu.Unlock()
	moduleLevels = map[string]Level{}
	applyLevels()
}

// Push the configured levels to the backend. Must hold mu.
func applyLevels() {
	backend.SetLevel(globalLevel.backend(), "")
	for module, level := range moduleLevels {
		backend.SetLevel(level.backend(), module)
	}
}

// Parse a level name such as "debug" or "warning". The empty string maps to Notice.
func ParseLevel(name string) (Level, error) {
	switch n := strings.ToLower(strings.TrimSpace(name)); n {
	case "":
		return Notice, nil
	case "warn":
		return Warning, nil
	default:
		for level, levelName := range levelNames {
			if levelName == n {
				return level, nil
			}
		}
	}
	return Notice, fmt.Errorf("log: unknown level %q", name)
}

func init() {
	SetSink(os.Stderr)
}
