package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Logger provides structured logging for kagisearch components.
// File loggers write JSON lines to ~/.kagisearch/logs/<session-id>-kagisearch.log,
// one file per process shared by every component.
type Logger struct {
	sessionID string
	component string
	file      *os.File
	zl        zerolog.Logger
	logPath   string
	closeOnce *sync.Once
}

var (
	// Global session ID for the current execution
	sessionID     string
	sessionIDOnce sync.Once

	// logDir is the directory where log files are stored
	logDir string

	// initOnce ensures directory initialization happens once
	initOnce sync.Once

	// initErr stores any error from directory initialization
	initErr error
)

// getSessionID returns or creates the session ID for this execution
func getSessionID() string {
	sessionIDOnce.Do(func() {
		sessionID = uuid.New().String()
	})
	return sessionID
}

// initLogDirectory ensures the log directory exists. A directory set with
// SetLogDirectory before the first logger is created wins over the default.
func initLogDirectory() error {
	initOnce.Do(func() {
		if logDir == "" {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				initErr = fmt.Errorf("failed to get home directory: %w", err)
				return
			}
			logDir = filepath.Join(homeDir, ".kagisearch", "logs")
		}

		if err := os.MkdirAll(logDir, 0750); err != nil {
			initErr = fmt.Errorf("failed to create log directory: %w", err)
			return
		}
	})
	return initErr
}

// SetLogDirectory overrides the log directory. It has no effect once a file
// logger has been created.
func SetLogDirectory(dir string) {
	logDir = dir
}

// NewLogger creates a new file logger for a specific component.
//
// If the log directory cannot be created or the log file cannot be opened,
// it returns a fallback logger that writes to stderr along with the error.
// Callers can check the error to detect fallback mode and log warnings.
func NewLogger(component string) (*Logger, error) {
	if err := initLogDirectory(); err != nil {
		return newFallbackLogger(component, err), err
	}

	sessID := getSessionID()
	logPath := filepath.Join(logDir, fmt.Sprintf("%s-kagisearch.log", sessID))

	// Append mode: every component of the process shares the file
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		err = fmt.Errorf("failed to open log file: %w", err)
		return newFallbackLogger(component, err), err
	}

	return &Logger{
		sessionID: sessID,
		component: component,
		file:      file,
		zl:        newZerolog(file, component, sessID, zerolog.DebugLevel),
		logPath:   logPath,
		closeOnce: &sync.Once{},
	}, nil
}

// New creates a logger writing to w at the given level. Output is
// human-readable when w is a terminal-facing stream such as os.Stderr.
func New(w io.Writer, component string, level zerolog.Level) *Logger {
	if w == os.Stderr || w == os.Stdout {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05.000"}
	}
	return &Logger{
		sessionID: getSessionID(),
		component: component,
		zl:        newZerolog(w, component, getSessionID(), level),
		closeOnce: &sync.Once{},
	}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{
		zl:        zerolog.Nop(),
		closeOnce: &sync.Once{},
	}
}

// ParseLevel parses a level name such as "debug" or "warn". The empty string
// means info.
func ParseLevel(s string) (zerolog.Level, error) {
	if s == "" {
		return zerolog.InfoLevel, nil
	}
	level, err := zerolog.ParseLevel(s)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}

func newZerolog(w io.Writer, component, sessID string, level zerolog.Level) zerolog.Logger {
	return zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Str("component", component).
		Str("session", sessID).
		Logger()
}

// newFallbackLogger creates a logger that writes to stderr when file logging fails
func newFallbackLogger(component string, err error) *Logger {
	l := New(os.Stderr, component, zerolog.DebugLevel)
	l.Warnf("failed to initialize file logging: %v", err)
	l.Warnf("falling back to stderr logging")
	return l
}

// With returns a child logger that adds key=value to every entry.
func (l *Logger) With(key string, value any) *Logger {
	child := *l
	child.zl = l.zl.With().Interface(key, value).Logger()
	return &child
}

// Component returns a child logger for a sub-component sharing the same output.
func (l *Logger) Component(name string) *Logger {
	child := *l
	child.component = name
	child.zl = l.zl.With().Str("component", name).Logger()
	return &child
}

// Level returns the minimum level that is written.
func (l *Logger) Level() zerolog.Level {
	return l.zl.GetLevel()
}

// SetLevel changes the minimum level that is written.
func (l *Logger) SetLevel(level zerolog.Level) {
	l.zl = l.zl.Level(level)
}

// Printf logs a formatted message at info level
func (l *Logger) Printf(format string, v ...interface{}) {
	l.zl.Info().Msgf(format, v...)
}

// Debugf logs a debug-level message
func (l *Logger) Debugf(format string, v ...interface{}) {
	l.zl.Debug().Msgf(format, v...)
}

// Infof logs an info-level message
func (l *Logger) Infof(format string, v ...interface{}) {
	l.zl.Info().Msgf(format, v...)
}

// Warnf logs a warning-level message
func (l *Logger) Warnf(format string, v ...interface{}) {
	l.zl.Warn().Msgf(format, v...)
}

// Errorf logs an error-level message
func (l *Logger) Errorf(format string, v ...interface{}) {
	l.zl.Error().Msgf(format, v...)
}

// Zerolog exposes the underlying logger for callers that log fields directly.
func (l *Logger) Zerolog() *zerolog.Logger {
	return &l.zl
}

// SessionID returns the current session ID
func (l *Logger) SessionID() string {
	return l.sessionID
}

// LogPath returns the path to the log file
func (l *Logger) LogPath() string {
	return l.logPath
}

// Close closes the log file. Safe to call multiple times.
func (l *Logger) Close() error {
	var err error
	l.closeOnce.Do(func() {
		if l.file != nil {
			err = l.file.Sync()
			if cerr := l.file.Close(); err == nil {
				err = cerr
			}
		}
	})
	return err
}

// GetSessionID returns the current global session ID
func GetSessionID() string {
	return getSessionID()
}

// GetLogDirectory returns the directory where logs are stored
func GetLogDirectory() (string, error) {
	if err := initLogDirectory(); err != nil {
		return "", err
	}
	return logDir, nil
}

func init() {
	zerolog.TimeFieldFormat = time.RFC3339Nano
}
