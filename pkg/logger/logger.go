package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"unpack/pkg/env"
)

// Log is the process-wide logger. It falls back to slog's default until
// Init runs so packages can log from tests without initializing.
var Log = slog.Default()

const timeFormat = "2006-01-02T15:04:05.000-07:00"

var (
	logFile     *lumberjack.Logger
	logFileMu   sync.Mutex
	logFilePath string
	logLocation *time.Location
	locationMu  sync.RWMutex
)

// FileOptions configures the rotating log file. An empty Path disables it.
type FileOptions struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
}

// Init initializes the global logger writing to stderr.
func Init(levelStr string) {
	InitWithFile(levelStr, FileOptions{})
}

// InitWithFile initializes the global logger and, when file.Path is set,
// mirrors every record into a size-rotated log file.
func InitWithFile(levelStr string, file FileOptions) {
	level := parseLevel(levelStr)

	// Load timezone from TZ environment variable
	loc := time.Local
	if tzEnv := env.TZ(); tzEnv != "" {
		if loaded, err := time.LoadLocation(tzEnv); err == nil {
			loc = loaded
		}
	}
	locationMu.Lock()
	logLocation = loc
	locationMu.Unlock()

	if file.Path != "" {
		openFile(file)
	}

	tzLoc := loc
	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				t := a.Value.Time().In(tzLoc)
				return slog.String("time", t.Format(timeFormat))
			}
			return a
		},
	}

	// stdout belongs to the unpacked data consumers; logs go to stderr
	baseHandler := slog.NewTextHandler(os.Stderr, opts)

	Log = slog.New(&FileHandler{Handler: baseHandler})
	slog.SetDefault(Log)
}

func parseLevel(levelStr string) slog.Level {
	switch strings.ToUpper(levelStr) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func openFile(file FileOptions) {
	logFileMu.Lock()
	defer logFileMu.Unlock()

	if logFile != nil && logFilePath == file.Path {
		return
	}
	if logFile != nil {
		logFile.Close()
	}

	maxSize := file.MaxSizeMB
	if maxSize <= 0 {
		maxSize = 10
	}
	logFile = &lumberjack.Logger{
		Filename:   file.Path,
		MaxSize:    maxSize,
		MaxBackups: file.MaxBackups,
	}
	logFilePath = file.Path
}

// FileHandler wraps a slog.Handler and copies formatted records to the log
// file.
type FileHandler struct {
	slog.Handler
}

func (h *FileHandler) Handle(ctx context.Context, r slog.Record) error {
	err := h.Handler.Handle(ctx, r)

	logFileMu.Lock()
	defer logFileMu.Unlock()
	if logFile == nil {
		return err
	}

	locationMu.RLock()
	loc := logLocation
	locationMu.RUnlock()
	if loc == nil {
		loc = time.Local
	}

	msg := fmt.Sprintf("time=%s level=%s msg=%q", r.Time.In(loc).Format(timeFormat), r.Level, r.Message)
	r.Attrs(func(a slog.Attr) bool {
		msg += fmt.Sprintf(" %s=%v", a.Key, a.Value)
		return true
	})
	_, _ = io.WriteString(logFile, msg+"\n")
	return err
}

func (h *FileHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &FileHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *FileHandler) WithGroup(name string) slog.Handler {
	return &FileHandler{Handler: h.Handler.WithGroup(name)}
}

// SetLevel updates the logger level at runtime. The log file is kept.
func SetLevel(levelStr string) {
	logFileMu.Lock()
	path := logFilePath
	logFileMu.Unlock()
	InitWithFile(levelStr, FileOptions{Path: path})
}

// Close flushes and closes the log file if one is open
func Close() {
	logFileMu.Lock()
	defer logFileMu.Unlock()
	if logFile != nil {
		logFile.Close()
		logFile = nil
		logFilePath = ""
	}
}

// Helper functions for easy access
func Debug(msg string, args ...any) {
	Log.Debug(msg, args...)
}

func Info(msg string, args ...any) {
	Log.Info(msg, args...)
}

func Warn(msg string, args ...any) {
	Log.Warn(msg, args...)
}

func Error(msg string, args ...any) {
	Log.Error(msg, args...)
}
