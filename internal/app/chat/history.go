package chat

import "time"

// HistoryCap is the maximum number of messages a room retains in memory.
const HistoryCap = 90

// History is a fixed-capacity, most-recent-first buffer of chat messages.
// Pushing the 91st message evicts the oldest. It is not safe for concurrent
// use; callers hold the owning Service lock.
type History struct {
	msgs []Message
}

// Push inserts a message at the front of the buffer, evicting the oldest
// entry if the buffer is at capacity.
func (h *History) Push(m Message) {
	if len(h.msgs) >= HistoryCap {
		h.msgs = h.msgs[:HistoryCap-1]
	}
	h.msgs = append(h.msgs, Message{})
	copy(h.msgs[1:], h.msgs)
	h.msgs[0] = m
}

// Seed replaces the buffer contents with messages loaded from persistence.
// The input is expected most-recent-first and is truncated to HistoryCap.
func (h *History) Seed(msgs []Message) {
	if len(msgs) > HistoryCap {
		msgs = msgs[:HistoryCap]
	}
	h.msgs = append([]Message(nil), msgs...)
}

// Snapshot returns a copy of the buffer, most recent first.
func (h *History) Snapshot() []Message {
	out := make([]Message, len(h.msgs))
	copy(out, h.msgs)
	return out
}

// Len reports the number of buffered messages.
func (h *History) Len() int {
	return len(h.msgs)
}

// Newest returns the most recent message, if any.
func (h *History) Newest() (Message, bool) {
	if len(h.msgs) == 0 {
		return Message{}, false
	}
	return h.msgs[0], true
}

// LastActivity reports the timestamp of the most recent message, falling
// back to the given time when the buffer is empty.
func (h *History) LastActivity(fallback time.Time) time.Time {
	if m, ok := h.Newest(); ok {
		return m.Date
	}
	return fallback
}
