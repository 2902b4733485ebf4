package cnx

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// LogLevel orders log severities; a logger emits every level up to its own.
type LogLevel int

const (
	LevelError LogLevel = iota
	LevelWarn
	LevelInfo
	LevelDebug
)

var levelNames = [...]string{"ERROR", "WARN", "INFO", "DEBUG"}

func (l LogLevel) String() string {
	if l < LevelError || l > LevelDebug {
		return "UNKNOWN"
	}
	return levelNames[l]
}

// ParseLogLevel maps a level name (case-insensitive) to a LogLevel.
// Unknown names give LevelWarn.
func ParseLogLevel(s string) LogLevel {
	s = strings.ToUpper(s)
	if s == "WARNING" {
		return LevelWarn
	}
	for i, name := range levelNames {
		if s == name {
			return LogLevel(i)
		}
	}
	return LevelWarn
}

// Logger receives the engines' diagnostics: cycle embedding, depth and
// thunk limits.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)

	// With returns a child logger that appends fields to every line.
	With(fields map[string]any) Logger
}

// textLogger writes one line per message:
//
//	[WARN] 2024-01-02T03:04:05Z merge depth limit 2 reached at object{a} op=merge
type textLogger struct {
	w      *lockedWriter
	level  LogLevel
	fields string
}

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewLogger returns a text logger at level writing to w (os.Stderr when nil).
func NewLogger(level LogLevel, w io.Writer) Logger {
	if w == nil {
		w = os.Stderr
	}
	return &textLogger{w: &lockedWriter{w: w}, level: level}
}

func (l *textLogger) Debugf(format string, args ...any) { l.logf(LevelDebug, format, args) }
func (l *textLogger) Infof(format string, args ...any)  { l.logf(LevelInfo, format, args) }
func (l *textLogger) Warnf(format string, args ...any)  { l.logf(LevelWarn, format, args) }
func (l *textLogger) Errorf(format string, args ...any) { l.logf(LevelError, format, args) }

func (l *textLogger) With(fields map[string]any) Logger {
	if len(fields) == 0 {
		return l
	}
	child := *l
	child.fields += formatFields(fields)
	return &child
}

func (l *textLogger) logf(level LogLevel, format string, args []any) {
	if level > l.level {
		return
	}
	line := fmt.Sprintf("[%s] %s %s%s\n",
		level, time.Now().UTC().Format(time.RFC3339Nano), fmt.Sprintf(format, args...), l.fields)

	l.w.mu.Lock()
	defer l.w.mu.Unlock()
	_, _ = io.WriteString(l.w.w, line)
}

// formatFields renders fields as " k=v" pairs sorted by key.
func formatFields(fields map[string]any) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		v := fmt.Sprint(fields[k])
		if strings.ContainsFunc(v, func(r rune) bool { return r <= ' ' }) {
			v = strconv.Quote(v)
		}
		fmt.Fprintf(&b, " %s=%s", k, v)
	}
	return b.String()
}

type noopLogger struct{}

func (noopLogger) Debugf(string, ...any)        {}
func (noopLogger) Infof(string, ...any)         {}
func (noopLogger) Warnf(string, ...any)         {}
func (noopLogger) Errorf(string, ...any)        {}
func (n noopLogger) With(map[string]any) Logger { return n }

// NewNoopLogger returns a logger that discards everything.
func NewNoopLogger() Logger {
	return noopLogger{}
}

// zapLogger adapts a zap.SugaredLogger.
type zapLogger struct {
	s *zap.SugaredLogger
}

// NewZapLogger wraps s so it can be passed as Options.Logger.
func NewZapLogger(s *zap.SugaredLogger) Logger {
	if s == nil {
		return NewNoopLogger()
	}
	return &zapLogger{s: s}
}

func (l *zapLogger) Debugf(format string, args ...any) { l.s.Debugf(format, args...) }
func (l *zapLogger) Infof(format string, args ...any)  { l.s.Infof(format, args...) }
func (l *zapLogger) Warnf(format string, args ...any)  { l.s.Warnf(format, args...) }
func (l *zapLogger) Errorf(format string, args ...any) { l.s.Errorf(format, args...) }

func (l *zapLogger) With(fields map[string]any) Logger {
	if len(fields) == 0 {
		return l
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	kv := make([]any, 0, len(fields)*2)
	for _, k := range keys {
		kv = append(kv, k, fields[k])
	}
	return &zapLogger{s: l.s.With(kv...)}
}

// valueSummary returns a compact one-line representation of a value's shape.
// Collections are truncated to keep output small.
func valueSummary(v any, maxDepth int) string {
	switch Classify(v) {
	case KindSkip:
		return fmt.Sprintf("skip(%v)", v)
	case KindPrimitive:
		return fmt.Sprintf("%T", v)
	case KindThunk:
		return "thunk"
	case KindInstance:
		switch t := v.(type) {
		case *Map:
			return fmt.Sprintf("Map(%d)", t.Len())
		case *Set:
			return fmt.Sprintf("Set(%d)", t.Len())
		}
		return "Date"
	case KindSequence:
		n := sequenceLen(v)
		if n == 0 || maxDepth <= 0 {
			return fmt.Sprintf("array[len=%d]", n)
		}
		var head any
		for e := range elements(v) {
			head = e
			break
		}
		return fmt.Sprintf("array[len=%d, head=%s]", n, valueSummary(head, maxDepth-1))
	}
	return "object{" + previewKeys(v, 5) + "}"
}

// truncateList joins items with "," and appends +N if truncated.
func truncateList(items []string, max int) string {
	if max <= 0 || len(items) <= max {
		return strings.Join(items, ",")
	}
	head := items[:max]
	return strings.Join(head, ",") + fmt.Sprintf(",+%d", len(items)-max)
}

func previewKeys(m any, limit int) string {
	keys := make([]string, 0, mappingLen(m))
	for k := range entries(m) {
		keys = append(keys, keyString(k))
	}
	return truncateList(keys, limit)
}
