package engine

// Event categories.
const (
	CategoryAgent = "agent"
	CategoryDeath = "death"
	CategoryError = "error"
	CategoryWorld = "world"
)

// Event is a notable occurrence in the world.
type Event struct {
	Tick        uint64 `json:"tick"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// EventLog keeps the most recent events in a fixed-size ring.
type EventLog struct {
	buf   []Event
	next  int
	count int
	total uint64
}

// NewEventLog creates a log holding up to size events. A size below 1 is
// treated as 1.
func NewEventLog(size int) *EventLog {
	return &EventLog{buf: make([]Event, max(size, 1))}
}

// Add records e, evicting the oldest event when full.
func (l *EventLog) Add(e Event) {
	l.buf[l.next] = e
	l.next = (l.next + 1) % len(l.buf)
	l.count = min(l.count+1, len(l.buf))
	l.total++
}

// Len returns the number of events held.
func (l *EventLog) Len() int { return l.count }

// Total returns the number of events ever added.
func (l *EventLog) Total() uint64 { return l.total }

// Recent returns up to n of the newest events, oldest first. n <= 0 returns
// everything held.
func (l *EventLog) Recent(n int) []Event {
	if n <= 0 || n > l.count {
		n = l.count
	}
	out := make([]Event, n)
	start := l.next - n
	if start < 0 {
		start += len(l.buf)
	}
	for i := range n {
		out[i] = l.buf[(start+i)%len(l.buf)]
	}
	return out
}

// CountByCategory tallies the events held.
func (l *EventLog) CountByCategory() map[string]int {
	counts := make(map[string]int)
	for _, e := range l.Recent(0) {
		counts[e.Category]++
	}
	return counts
}
