package logbuf

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// DefaultCapacity is used when a non-positive capacity is requested.
const DefaultCapacity = 100

// Entry is a single log message.
type Entry struct {
	Time    time.Time
	Level   slog.Level
	Message string
}

// String formats the entry for the terminal status region.
func (e Entry) String() string {
	return fmt.Sprintf("%s %-5s %s", e.Time.Format("15:04:05"), e.Level.String(), e.Message)
}

// Buffer is a bounded in-memory log.
//
// When the buffer is full the oldest entry is discarded. All methods are safe
// for concurrent use.
type Buffer struct {
	mu       sync.RWMutex
	entries  []Entry
	capacity int
}

// New creates a [Buffer] holding at most capacity entries.
func New(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{
		entries:  make([]Entry, 0, capacity),
		capacity: capacity,
	}
}

// Append adds an entry, trimming surrounding whitespace from its message.
func (b *Buffer) Append(e Entry) {
	e.Message = strings.TrimSpace(e.Message)

	b.mu.Lock()
	defer b.mu.Unlock()

	b.entries = append(b.entries, e)
	if len(b.entries) > b.capacity {
		// shift in place so the backing array does not grow without bound
		n := copy(b.entries, b.entries[len(b.entries)-b.capacity:])
		b.entries = b.entries[:n]
	}
}

// Recent returns up to n of the newest entries, oldest first.
//
// The returned slice is a copy; modifications do not affect the buffer.
func (b *Buffer) Recent(n int) []Entry {
	if n <= 0 {
		return nil
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if n > len(b.entries) {
		n = len(b.entries)
	}
	out := make([]Entry, n)
	copy(out, b.entries[len(b.entries)-n:])
	return out
}

// Latest returns the newest entry, if any.
func (b *Buffer) Latest() (Entry, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if len(b.entries) == 0 {
		return Entry{}, false
	}
	return b.entries[len(b.entries)-1], true
}

// Len returns the number of buffered entries.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries)
}

// Capacity returns the maximum number of entries kept.
func (b *Buffer) Capacity() int {
	return b.capacity
}
