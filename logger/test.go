package logger

import (
	"fmt"
	"os"
	"sync"
)

// TestLogEntry is one captured log call.
type TestLogEntry struct {
	Severity  string
	Message   string
	Arguments []interface{}
}

// TestLogger captures log calls in memory for assertions.
type TestLogger struct {
	mu       sync.Mutex
	metadata map[string]interface{}
	logs     []TestLogEntry
}

var _ Logger = (*TestLogger)(nil)

// Logs returns a copy of everything logged so far.
func (c *TestLogger) Logs() []TestLogEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]TestLogEntry, len(c.logs))
	copy(out, c.logs)
	return out
}

// Contains reports whether any captured message at the given severity
// renders to formatted.
func (c *TestLogger) Contains(severity, formatted string) bool {
	for _, entry := range c.Logs() {
		if entry.Severity == severity && fmt.Sprintf(entry.Message, entry.Arguments...) == formatted {
			return true
		}
	}
	return false
}

func (c *TestLogger) With(metadata map[string]interface{}) Logger {
	return c
}

func (c *TestLogger) WithPrefix(prefix string) Logger {
	return c
}

func (c *TestLogger) record(severity, msg string, args ...interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logs = append(c.logs, TestLogEntry{severity, msg, args})
}

func (c *TestLogger) Trace(msg string, args ...interface{}) {
	c.record("TRACE", msg, args...)
}

func (c *TestLogger) Debug(msg string, args ...interface{}) {
	c.record("DEBUG", msg, args...)
}

func (c *TestLogger) Info(msg string, args ...interface{}) {
	c.record("INFO", msg, args...)
}

func (c *TestLogger) Warn(msg string, args ...interface{}) {
	c.record("WARN", msg, args...)
}

func (c *TestLogger) Error(msg string, args ...interface{}) {
	c.record("ERROR", msg, args...)
}

func (c *TestLogger) Fatal(msg string, args ...interface{}) {
	c.record("FATAL", msg, args...)
	os.Exit(1)
}

// NewTestLogger returns a new Logger instance useful for testing
func NewTestLogger() *TestLogger {
	return &TestLogger{
		logs: make([]TestLogEntry, 0),
	}
}
