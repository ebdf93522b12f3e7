package logbuf

import (
	"fmt"
	"os"
	"sync"
	"time"
)

// FileSink appends to a log file from any number of goroutines.
//
// Writes are serialised by a mutex and the file is opened with O_APPEND, so
// each call lands as one contiguous record even when other processes append
// to the same file.
type FileSink struct {
	mu     sync.Mutex
	path   string
	file   *os.File
	closed bool
}

// OpenFile opens (creating if needed) path for appending.
func OpenFile(path string) (*FileSink, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return &FileSink{path: path, file: f}, nil
}

// Path returns the file path the sink writes to.
func (s *FileSink) Path() string {
	return s.path
}

// Write implements io.Writer. It is safe for concurrent use.
func (s *FileSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, os.ErrClosed
	}
	return s.file.Write(p)
}

// WriteEntry appends e as a single timestamped line.
func (s *FileSink) WriteEntry(e Entry) error {
	line := fmt.Sprintf("%s [%s] %s\n", e.Time.Format(time.RFC3339), e.Level.String(), e.Message)
	_, err := s.Write([]byte(line))
	return err
}

// Close closes the underlying file. Further writes return os.ErrClosed.
// Close is idempotent.
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.file.Close()
}
