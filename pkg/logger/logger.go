package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

// Level represents the severity level of log messages
type Level int

const (
	TraceLevel Level = iota
	DebugLevel
	InfoLevel
	WarnLevel
	ErrorLevel
)

type levelInfo struct {
	name    string
	color   string
	aliases []string
}

var levels = map[Level]levelInfo{
	TraceLevel: {name: "TRACE", color: "37", aliases: []string{"trace"}},
	DebugLevel: {name: "DEBUG", color: "36", aliases: []string{"debug"}},
	InfoLevel:  {name: "INFO", color: "32", aliases: []string{"info", ""}},
	WarnLevel:  {name: "WARN", color: "33", aliases: []string{"warn", "warning"}},
	ErrorLevel: {name: "ERROR", color: "31", aliases: []string{"error"}},
}

func (l Level) String() string {
	if info, ok := levels[l]; ok {
		return info.name
	}
	return "UNKNOWN"
}

// ParseLevel maps a level name to a Level. Unknown names fall back to InfoLevel.
func ParseLevel(name string) (Level, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	for lvl, info := range levels {
		for _, alias := range info.aliases {
			if alias == key {
				return lvl, true
			}
		}
	}
	return InfoLevel, false
}

// Config holds the logger configuration
type Config struct {
	Level     Level
	UseColor  bool
	JSON      bool
	Component string
	DryRun    bool
}

// Logger writes leveled entries for one component. Enrichment workers log
// concurrently, so writes are serialized.
type Logger struct {
	config Config
	mu     sync.Mutex
	logger *log.Logger
}

var defaultLogger *Logger

// Initialize installs the process-wide logger writing to stderr.
func Initialize(config Config) error {
	defaultLogger = &Logger{
		config: config,
		logger: log.New(os.Stderr, "", 0),
	}
	return nil
}

// ShouldUseColor reports whether colored output is appropriate for w.
// NO_COLOR disables color regardless of the terminal.
func ShouldUseColor(w io.Writer) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Log writes message at level when level passes the configured threshold.
func (l *Logger) Log(level Level, message string, fields ...Field) {
	l.write(level, message, fields, 2)
}

// write records the caller skip frames above itself for debug entries.
func (l *Logger) write(level Level, message string, fields []Field, skip int) {
	if level < l.config.Level {
		return
	}

	entry := LogEntry{
		Time:      time.Now(),
		Level:     level.String(),
		Message:   message,
		Component: l.config.Component,
	}
	if len(fields) > 0 {
		entry.Fields = make(map[string]interface{}, len(fields))
		for _, field := range fields {
			entry.Fields[field.Key] = field.Value
		}
	}
	if level <= DebugLevel {
		if _, file, line, ok := runtime.Caller(skip); ok {
			entry.File = file
			entry.Line = line
		}
	}

	var output string
	if l.config.JSON {
		raw, err := json.Marshal(entry)
		if err != nil {
			raw = []byte(fmt.Sprintf(`{"level":%q,"message":%q}`, entry.Level, entry.Message))
		}
		output = string(raw)
	} else {
		output = l.formatPretty(entry, level)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.logger.Print(output)
}

func (l *Logger) paint(code, text string) string {
	if !l.config.UseColor {
		return text
	}
	return "\033[" + code + "m" + text + "\033[0m"
}

func (l *Logger) formatPretty(entry LogEntry, level Level) string {
	var b strings.Builder

	b.WriteString(entry.Time.Format("2006-01-02 15:04:05"))
	b.WriteString(" [")
	b.WriteString(l.paint(levels[level].color, entry.Level))
	b.WriteString("]")

	if entry.Component != "" {
		fmt.Fprintf(&b, " %s:", entry.Component)
	}
	if l.config.DryRun {
		b.WriteString(" ")
		b.WriteString(l.paint("35", "[DRY-RUN]"))
	}
	b.WriteString(" ")
	b.WriteString(entry.Message)

	// Sorted so identical entries render identically.
	if len(entry.Fields) > 0 {
		keys := make([]string, 0, len(entry.Fields))
		for k := range entry.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		pairs := make([]string, len(keys))
		for i, k := range keys {
			pairs[i] = fmt.Sprintf("%s=%v", k, entry.Fields[k])
		}
		b.WriteString(" {" + strings.Join(pairs, ", ") + "}")
	}

	if entry.File != "" {
		fmt.Fprintf(&b, " (%s:%d)", entry.File, entry.Line)
	}
	return b.String()
}

// Field represents a structured field in a log entry
type Field struct {
	Key   string
	Value interface{}
}

func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

func Float(key string, value float64) Field {
	return Field{Key: key, Value: value}
}

func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

// Duration renders value in its string form.
func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.String()}
}

// Package identifies a locked package as name==version.
func Package(name, version string) Field {
	if version == "" {
		return Field{Key: "package", Value: name}
	}
	return Field{Key: "package", Value: name + "==" + version}
}

// Err records err under the "error" key.
func Err(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: "<nil>"}
	}
	return Field{Key: "error", Value: err.Error()}
}

// LogEntry is the JSON shape of one log line.
type LogEntry struct {
	Time      time.Time              `json:"time"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Component string                 `json:"component,omitempty"`
	File      string                 `json:"file,omitempty"`
	Line      int                    `json:"line,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

func Trace(message string, fields ...Field) { logDefault(TraceLevel, message, fields) }
func Debug(message string, fields ...Field) { logDefault(DebugLevel, message, fields) }
func Info(message string, fields ...Field)  { logDefault(InfoLevel, message, fields) }
func Warn(message string, fields ...Field)  { logDefault(WarnLevel, message, fields) }
func Error(message string, fields ...Field) { logDefault(ErrorLevel, message, fields) }

func logDefault(level Level, message string, fields []Field) {
	if defaultLogger != nil {
		defaultLogger.write(level, message, fields, 3)
		return
	}
	// Uninitialized: info and above still reach stderr.
	if level >= InfoLevel {
		fmt.Fprintf(os.Stderr, "[%s] pysbom: %s\n", level, message)
	}
}

// SetOutput redirects the default logger.
func SetOutput(w io.Writer) {
	if defaultLogger == nil {
		return
	}
	defaultLogger.mu.Lock()
	defer defaultLogger.mu.Unlock()
	defaultLogger.logger.SetOutput(w)
}
