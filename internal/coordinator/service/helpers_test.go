package service

import (
	"sync"
)

// mockLogger is a no-op logger for testing
type mockLogger struct{}

func (m *mockLogger) Debug(msg string, args ...any) {}
func (m *mockLogger) Info(msg string, args ...any)  {}
func (m *mockLogger) Warn(msg string, args ...any)  {}
func (m *mockLogger) Error(msg string, args ...any) {}
func (m *mockLogger) Fatal(msg string, args ...any) {}

// recordingLogger keeps every message it is asked to log.
type recordingLogger struct {
	mu       sync.Mutex
	messages []string
}

func (l *recordingLogger) record(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, msg)
}

func (l *recordingLogger) Debug(msg string, args ...any) { l.record(msg) }
func (l *recordingLogger) Info(msg string, args ...any)  { l.record(msg) }
func (l *recordingLogger) Warn(msg string, args ...any)  { l.record(msg) }
func (l *recordingLogger) Error(msg string, args ...any) { l.record(msg) }
func (l *recordingLogger) Fatal(msg string, args ...any) { l.record(msg) }

func (l *recordingLogger) getMessages() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string{}, l.messages...)
}
