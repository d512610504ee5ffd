package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// JSONLogEntry defines a single structured log line.
type JSONLogEntry struct {
	Timestamp time.Time              `json:"timestamp"`
	Severity  string                 `json:"severity"`
	Message   string                 `json:"message"`
	Component string                 `json:"component,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

type jsonLogger struct {
	mu        *sync.Mutex
	out       io.Writer
	metadata  map[string]interface{}
	component string
	logLevel  LogLevel
	ts        func() time.Time // for unit testing
}

var _ Logger = (*jsonLogger)(nil)

func (c *jsonLogger) clone() *jsonLogger {
	metadata := make(map[string]interface{})
	for k, v := range c.metadata {
		metadata[k] = v
	}
	return &jsonLogger{
		mu:        c.mu,
		out:       c.out,
		metadata:  metadata,
		component: c.component,
		logLevel:  c.logLevel,
		ts:        c.ts,
	}
}

func (c *jsonLogger) With(metadata map[string]interface{}) Logger {
	clone := c.clone()
	for k, v := range metadata {
		clone.metadata[k] = v
	}
	return clone
}

// WithPrefix maps the console logger's prefix onto the component field.
func (c *jsonLogger) WithPrefix(prefix string) Logger {
	clone := c.clone()
	if clone.component == "" {
		clone.component = prefix
	} else if !strings.Contains(clone.component, prefix) {
		clone.component += " " + prefix
	}
	return clone
}

func (c *jsonLogger) logWith(level LogLevel, msg string, args ...interface{}) {
	if level < c.logLevel {
		return
	}
	entry := JSONLogEntry{
		Timestamp: c.ts(),
		Severity:  level.String(),
		Message:   fmt.Sprintf(msg, args...),
		Component: c.component,
	}
	if len(c.metadata) > 0 {
		entry.Metadata = c.metadata
	}
	buf, err := json.Marshal(entry)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: json.Marshal: %v\n", err)
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.out.Write(append(buf, '\n'))
}

func (c *jsonLogger) Trace(msg string, args ...interface{}) {
	c.logWith(LevelTrace, msg, args...)
}

func (c *jsonLogger) Debug(msg string, args ...interface{}) {
	c.logWith(LevelDebug, msg, args...)
}

func (c *jsonLogger) Info(msg string, args ...interface{}) {
	c.logWith(LevelInfo, msg, args...)
}

func (c *jsonLogger) Warn(msg string, args ...interface{}) {
	c.logWith(LevelWarn, msg, args...)
}

func (c *jsonLogger) Error(msg string, args ...interface{}) {
	c.logWith(LevelError, msg, args...)
}

func (c *jsonLogger) Fatal(msg string, args ...interface{}) {
	c.logWith(LevelError, msg, args...)
	os.Exit(1)
}

// NewJSONLogger returns a Logger that writes one JSON object per line to
// stdout. Useful for server deployments behind log collectors.
func NewJSONLogger(level LogLevel) Logger {
	return NewJSONLoggerWithSink(os.Stdout, level)
}

// NewJSONLoggerWithSink is NewJSONLogger writing to an explicit sink.
func NewJSONLoggerWithSink(out io.Writer, level LogLevel) Logger {
	return &jsonLogger{
		mu:       &sync.Mutex{},
		out:      out,
		metadata: map[string]interface{}{},
		logLevel: level,
		ts:       time.Now,
	}
}
