package testutil

import (
	"fmt"
	"strings"
	"sync"
)

// RecordingLogger captures log entries as formatted strings for assertions.
type RecordingLogger struct {
	mu      sync.Mutex
	Entries []string
}

func NewRecordingLogger() *RecordingLogger {
	return &RecordingLogger{}
}

func (l *RecordingLogger) record(level, msg string, args ...any) {
	var sb strings.Builder
	sb.WriteString(level + " " + msg)
	for i := 0; i+1 < len(args); i += 2 {
		fmt.Fprintf(&sb, " %v=%v", args[i], args[i+1])
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Entries = append(l.Entries, sb.String())
}

func (l *RecordingLogger) Debug(msg string, args ...any) { l.record("DEBUG", msg, args...) }
func (l *RecordingLogger) Info(msg string, args ...any)  { l.record("INFO", msg, args...) }
func (l *RecordingLogger) Warn(msg string, args ...any)  { l.record("WARN", msg, args...) }
func (l *RecordingLogger) Error(msg string, args ...any) { l.record("ERROR", msg, args...) }

// Contains reports whether any entry contains substr.
func (l *RecordingLogger) Contains(substr string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.Entries {
		if strings.Contains(e, substr) {
			return true
		}
	}
	return false
}
