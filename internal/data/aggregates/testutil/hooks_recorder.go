package testutil

import (
	"sync"
	"time"

	"github.com/yungbote/coursemarket-backend/internal/data/aggregates"
)

// HookEvent is one signal delivered to a HooksRecorder. Kind is "op",
// "conflict" or "retry"; Status is set for "op" only.
type HookEvent struct {
	Kind   string
	Name   string
	Status string
}

// HooksRecorder is an aggregates.Hooks that keeps every signal in order.
type HooksRecorder struct {
	mu     sync.Mutex
	events []HookEvent
}

var _ aggregates.Hooks = (*HooksRecorder)(nil)

func (h *HooksRecorder) record(e HookEvent) {
	h.mu.Lock()
	h.events = append(h.events, e)
	h.mu.Unlock()
}

func (h *HooksRecorder) ObserveOperation(name, status string, _ time.Duration) {
	h.record(HookEvent{Kind: "op", Name: name, Status: status})
}

func (h *HooksRecorder) IncConflict(name string) { h.record(HookEvent{Kind: "conflict", Name: name}) }
func (h *HooksRecorder) IncRetry(name string)    { h.record(HookEvent{Kind: "retry", Name: name}) }

// Events returns a copy of everything recorded so far.
func (h *HooksRecorder) Events() []HookEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]HookEvent(nil), h.events...)
}

// Count returns how many events of kind were recorded.
func (h *HooksRecorder) Count(kind string) int {
	n := 0
	for _, e := range h.Events() {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

// Statuses lists the status of every observed operation in order.
func (h *HooksRecorder) Statuses() []string {
	var out []string
	for _, e := range h.Events() {
		if e.Kind == "op" {
			out = append(out, e.Status)
		}
	}
	return out
}
