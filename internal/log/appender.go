package log

import (
	"io"
	"sync"
)

// MultiWriter fans every log line out to all appenders. A failing appender does
// not stop the others; the last error is reported.
type MultiWriter struct {
	mu      sync.Mutex
	writers []io.Writer
}

func (m *MultiWriter) Write(p []byte) (n int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, w := range m.writers {
		if _, e := w.Write(p); e != nil {
			err = e
		}
	}
	return len(p), err
}

func (m *MultiWriter) Add(writer io.Writer) *MultiWriter {
	m.mu.Lock()
	m.writers = append(m.writers, writer)
	m.mu.Unlock()
	return m
}

// Len reports the number of appenders.
func (m *MultiWriter) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.writers)
}

func NewMultiWriter() *MultiWriter {
	return &MultiWriter{writers: make([]io.Writer, 0)}
}
