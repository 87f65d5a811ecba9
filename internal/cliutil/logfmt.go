// Package cliutil holds output formatting helpers shared by the CLI
// commands.
package cliutil

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/term"
)

// LogRecord represents a structured lifecycle event ready for JSON encoding.
type LogRecord struct {
	Timestamp time.Time `json:"ts"`
	Level     string    `json:"level"`
	Event     string    `json:"event"`
	PID       int       `json:"pid,omitempty"`
	Message   string    `json:"msg"`
}

// Logger writes lifecycle records either as JSON lines or in a short human
// format, depending on construction.
type Logger struct {
	out  io.Writer
	enc  *json.Encoder
	json bool
}

// NewLogger constructs a logger writing to out. With jsonMode false records
// are rendered for humans.
func NewLogger(out io.Writer, jsonMode bool) *Logger {
	l := &Logger{out: out, json: jsonMode}
	if jsonMode {
		l.enc = json.NewEncoder(out)
	}
	return l
}

// Log emits one record. Encoding failures are reported on the logger's own
// writer; there is nowhere better to send them.
func (l *Logger) Log(level, event string, pid int, msg string) {
	if l == nil {
		return
	}
	record := LogRecord{
		Timestamp: time.Now(),
		Level:     level,
		Event:     event,
		PID:       pid,
		Message:   msg,
	}
	if l.json {
		if err := l.enc.Encode(&record); err != nil {
			fmt.Fprintf(l.out, "error: encode log: %v\n", err)
		}
		return
	}
	if pid > 0 {
		fmt.Fprintf(l.out, "%s [%d] %s\n", event, pid, msg)
	} else {
		fmt.Fprintf(l.out, "%s %s\n", event, msg)
	}
}

// StdoutIsTerminal reports whether stdout is attached to a terminal. Piped
// output defaults to JSON records.
func StdoutIsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}
