package devserver

import (
	"sync"
	"time"
)

// RequestRecord is one proxied request captured for the debug-network
// view and the inspector's Network domain.
type RequestRecord struct {
	ID       string        `json:"id"`
	Method   string        `json:"method"`
	URL      string        `json:"url"`
	Status   int           `json:"status"`
	Duration time.Duration `json:"duration_ns"`
	Size     int64         `json:"size"`
	At       time.Time     `json:"at"`
}

// NetLog is a bounded ring of recent request records. When full, the
// oldest record is dropped.
type NetLog struct {
	mu      sync.RWMutex
	records []RequestRecord
	next    int
	full    bool
}

// NewNetLog creates a log holding at most capacity records.
func NewNetLog(capacity int) *NetLog {
	if capacity <= 0 {
		capacity = 256
	}
	return &NetLog{records: make([]RequestRecord, capacity)}
}

// Add appends a record, evicting the oldest when at capacity.
func (l *NetLog) Add(rec RequestRecord) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.records[l.next] = rec
	l.next++
	if l.next == len(l.records) {
		l.next = 0
		l.full = true
	}
}

// Snapshot returns the records oldest-first.
func (l *NetLog) Snapshot() []RequestRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if !l.full {
		out := make([]RequestRecord, l.next)
		copy(out, l.records[:l.next])
		return out
	}
	out := make([]RequestRecord, 0, len(l.records))
	out = append(out, l.records[l.next:]...)
	out = append(out, l.records[:l.next]...)
	return out
}

// Len reports how many records are held.
func (l *NetLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.full {
		return len(l.records)
	}
	return l.next
}
