package logger

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"runtime"
	"strings"

	"github.com/mattn/go-isatty"
)

const isWindows = runtime.GOOS == "windows"

var noColor = os.Getenv("TERM") == "dumb" ||
	(!isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()))

func color(val string) string {
	if isWindows || noColor {
		return ""
	}
	return val
}

const (
	Reset       = "\033[0m"
	Red         = "\033[31m"
	Green       = "\033[32m"
	Magenta     = "\033[35m"
	BlueBold    = "\033[34;1m"
	MagentaBold = "\033[35;1m"
	RedBold     = "\033[31;1m"
	YellowBold  = "\033[33;1m"
	WhiteBold   = "\033[37;1m"
	CyanBold    = "\033[36;1m"
	Gray        = "\033[1;90m"
	Purple      = "[38;5;200m"
)

type levelStyle struct {
	label        string
	levelColor   string
	messageColor string
}

var styles = map[LogLevel]levelStyle{
	LevelTrace: {"TRACE", CyanBold, Gray},
	LevelDebug: {"DEBUG", BlueBold, Green},
	LevelInfo:  {"INFO", YellowBold, WhiteBold},
	LevelWarn:  {"WARN", MagentaBold, Magenta},
	LevelError: {"ERROR", RedBold, Red},
}

type consoleLogger struct {
	prefixes []string
	metadata map[string]interface{}
	logLevel LogLevel
}

var _ Logger = (*consoleLogger)(nil)

func (c *consoleLogger) clone() *consoleLogger {
	prefixes := make([]string, len(c.prefixes))
	copy(prefixes, c.prefixes)
	metadata := make(map[string]interface{})
	for k, v := range c.metadata {
		metadata[k] = v
	}
	return &consoleLogger{
		prefixes: prefixes,
		metadata: metadata,
		logLevel: c.logLevel,
	}
}

// WithPrefix will return a new logger with a prefix prepended to the message
func (c *consoleLogger) WithPrefix(prefix string) Logger {
	clone := c.clone()
	for _, p := range clone.prefixes {
		if p == prefix {
			return clone
		}
	}
	clone.prefixes = append(clone.prefixes, prefix)
	return clone
}

func (c *consoleLogger) With(metadata map[string]interface{}) Logger {
	clone := c.clone()
	for k, v := range metadata {
		clone.metadata[k] = v
	}
	return clone
}

func (c *consoleLogger) logWith(level LogLevel, msg string, args ...interface{}) {
	if level < c.logLevel {
		return
	}
	style := styles[level]
	var prefix string
	var suffix string
	if len(c.prefixes) > 0 {
		prefix = color(Purple) + strings.Join(c.prefixes, " ") + color(Reset) + " "
	}
	if len(c.metadata) > 0 {
		buf, _ := json.Marshal(c.metadata)
		suffix = " " + color(Gray) + string(buf) + color(Reset)
	}
	var pad string
	if len(style.label) < 5 {
		pad = strings.Repeat(" ", 5-len(style.label))
	}
	levelText := color(style.levelColor) + fmt.Sprintf("[%s]%s", style.label, pad) + color(Reset)
	message := color(style.messageColor) + fmt.Sprintf(msg, args...) + color(Reset)
	log.Printf("%s %s%s%s\n", levelText, prefix, message, suffix)
}

func (c *consoleLogger) Trace(msg string, args ...interface{}) {
	c.logWith(LevelTrace, msg, args...)
}

func (c *consoleLogger) Debug(msg string, args ...interface{}) {
	c.logWith(LevelDebug, msg, args...)
}

func (c *consoleLogger) Info(msg string, args ...interface{}) {
	c.logWith(LevelInfo, msg, args...)
}

func (c *consoleLogger) Warn(msg string, args ...interface{}) {
	c.logWith(LevelWarn, msg, args...)
}

func (c *consoleLogger) Error(msg string, args ...interface{}) {
	c.logWith(LevelError, msg, args...)
}

func (c *consoleLogger) Fatal(msg string, args ...interface{}) {
	c.logWith(LevelError, msg, args...)
	os.Exit(1)
}

// NewConsoleLogger returns a new Logger instance which will log to the
// console. With no arguments the level comes from the environment.
func NewConsoleLogger(levels ...LogLevel) Logger {
	level := GetLevelFromEnv()
	if len(levels) > 0 {
		level = levels[0]
	}
	return &consoleLogger{logLevel: level, metadata: map[string]interface{}{}}
}
