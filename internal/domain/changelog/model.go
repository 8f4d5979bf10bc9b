package changelog

import "time"

// MaxEntries is how many pass entries the log retains.
const MaxEntries = 100

// Entry is the set of change descriptions produced by one sync pass.
type Entry struct {
	Timestamp time.Time `json:"timestamp"`
	Changes   []string  `json:"changes"`
}

// Log is an append-only list of entries capped at MaxEntries, oldest first.
type Log struct {
	entries []Entry
}

// NewLog wraps existing entries, dropping the oldest beyond MaxEntries.
func NewLog(entries []Entry) *Log {
	l := &Log{entries: append([]Entry(nil), entries...)}
	l.trim()
	return l
}

// Append adds one entry and drops the oldest until at most MaxEntries remain.
func (l *Log) Append(ts time.Time, descriptions []string) Entry {
	entry := Entry{
		Timestamp: ts.UTC(),
		Changes:   append([]string(nil), descriptions...),
	}
	l.entries = append(l.entries, entry)
	l.trim()
	return entry
}

// Entries returns a copy of the retained window in insertion order.
func (l *Log) Entries() []Entry {
	return append([]Entry(nil), l.entries...)
}

func (l *Log) Len() int {
	return len(l.entries)
}

// Latest returns up to limit most recent entries, newest first.
func (l *Log) Latest(limit int) []Entry {
	if limit <= 0 || limit > len(l.entries) {
		limit = len(l.entries)
	}
	out := make([]Entry, 0, limit)
	for i := len(l.entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, l.entries[i])
	}
	return out
}

func (l *Log) trim() {
	if over := len(l.entries) - MaxEntries; over > 0 {
		l.entries = append([]Entry(nil), l.entries[over:]...)
	}
}
