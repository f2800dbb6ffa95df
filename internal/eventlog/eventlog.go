// Package eventlog owns the append-only activity log. Every supervisor
// event is stamped "2006-01-02 15:04:05" and mirrored to stdout and the
// log file; the raw file handle is shared with the encoder subprocess so
// its stdout lands in the same place.
package eventlog

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

const stampLayout = "2006-01-02 15:04:05"

type Logger struct {
	mu      sync.Mutex
	file    *os.File
	console io.Writer
}

// Open appends to the activity log at path, creating it if needed.
func Open(path string) (*Logger, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open activity log: %w", err)
	}
	return &Logger{file: f, console: os.Stdout}, nil
}

// Writer returns the sink for event lines. Pointing the stdlib log package
// here (log.SetOutput, log.SetFlags(0)) routes every log.Printf in the
// program through the stamping below.
func (l *Logger) Writer() io.Writer {
	return &lineWriter{l: l}
}

// File exposes the raw handle so the encoder's stdout can be appended
// verbatim, without stamping.
func (l *Logger) File() *os.File {
	return l.file
}

func (l *Logger) Close() error {
	return l.file.Close()
}

type lineWriter struct {
	l *Logger
}

// Write stamps each non-empty line of p and appends it to the console and
// the log file. Multi-line messages become one stamped entry per line.
func (w *lineWriter) Write(p []byte) (int, error) {
	w.l.mu.Lock()
	defer w.l.mu.Unlock()

	stamp := time.Now().Format(stampLayout)
	rest := p
	for len(rest) > 0 {
		line := rest
		if idx := bytes.IndexByte(rest, '\n'); idx >= 0 {
			line = rest[:idx]
			rest = rest[idx+1:]
		} else {
			rest = nil
		}
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		entry := stamp + " " + string(line) + "\n"
		io.WriteString(w.l.console, entry)
		if _, err := w.l.file.WriteString(entry); err != nil {
			return len(p), err
		}
	}
	return len(p), nil
}
