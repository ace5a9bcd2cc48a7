package logging

import "sync"

// MockLogger records log entries for assertions in tests. Loggers derived
// through WithError/WithField/WithFields append to the same buffer.
type MockLogger struct {
	buf           *entryBuffer
	pendingError  error
	pendingFields []Field
}

// LogEntry is a single captured log call.
type LogEntry struct {
	Level   string
	Message string
	Fields  []Field
	Error   error
}

type entryBuffer struct {
	mu      sync.Mutex
	entries []LogEntry
}

// NewMockLogger returns an empty MockLogger.
func NewMockLogger() *MockLogger {
	return &MockLogger{buf: &entryBuffer{}}
}

func (m *MockLogger) record(level, msg string, fields []Field) {
	if m.buf == nil {
		m.buf = &entryBuffer{}
	}
	all := make([]Field, 0, len(m.pendingFields)+len(fields))
	all = append(all, m.pendingFields...)
	all = append(all, fields...)

	m.buf.mu.Lock()
	defer m.buf.mu.Unlock()
	m.buf.entries = append(m.buf.entries, LogEntry{
		Level:   level,
		Message: msg,
		Fields:  all,
		Error:   m.pendingError,
	})
}

// Debug records a debug-level entry.
func (m *MockLogger) Debug(msg string, fields ...Field) { m.record("DEBUG", msg, fields) }
// Info records an info-level entry.
func (m *MockLogger) Info(msg string, fields ...Field)  { m.record("INFO", msg, fields) }
// Warn records a warning-level entry.
func (m *MockLogger) Warn(msg string, fields ...Field)  { m.record("WARN", msg, fields) }
// Error records an error-level entry.
func (m *MockLogger) Error(msg string, fields ...Field) { m.record("ERROR", msg, fields) }

// Fatal records a FATAL entry; the mock never exits.
func (m *MockLogger) Fatal(msg string, fields ...Field) { m.record("FATAL", msg, fields) }

// WithError returns a logger sharing the entry buffer with an error field attached.
func (m *MockLogger) WithError(err error) Logger {
	child := m.derive()
	child.pendingError = err
	return child
}

// WithField returns a logger sharing the entry buffer with one extra field.
func (m *MockLogger) WithField(key string, value interface{}) Logger {
	return m.WithFields(Field{Key: key, Value: value})
}

// WithFields returns a logger sharing the entry buffer with extra fields.
func (m *MockLogger) WithFields(fields ...Field) Logger {
	child := m.derive()
	child.pendingFields = append(child.pendingFields, fields...)
	return child
}

func (m *MockLogger) derive() *MockLogger {
	if m.buf == nil {
		m.buf = &entryBuffer{}
	}
	fields := make([]Field, len(m.pendingFields))
	copy(fields, m.pendingFields)
	return &MockLogger{buf: m.buf, pendingError: m.pendingError, pendingFields: fields}
}

// Entries returns a copy of all captured entries.
func (m *MockLogger) Entries() []LogEntry {
	if m.buf == nil {
		return nil
	}
	m.buf.mu.Lock()
	defer m.buf.mu.Unlock()
	out := make([]LogEntry, len(m.buf.entries))
	copy(out, m.buf.entries)
	return out
}

// EntriesByLevel returns captured entries of one level.
func (m *MockLogger) EntriesByLevel(level string) []LogEntry {
	var out []LogEntry
	for _, e := range m.Entries() {
		if e.Level == level {
			out = append(out, e)
		}
	}
	return out
}

// HasEntry reports whether an entry with the given level and message exists.
func (m *MockLogger) HasEntry(level, message string) bool {
	for _, e := range m.Entries() {
		if e.Level == level && e.Message == message {
			return true
		}
	}
	return false
}

// Clear drops all captured entries.
func (m *MockLogger) Clear() {
	if m.buf == nil {
		return
	}
	m.buf.mu.Lock()
	m.buf.entries = nil
	m.buf.mu.Unlock()
}
