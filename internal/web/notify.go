package web

import (
	"context"
	"sync"

	"github.com/JonMunkholm/clientdesk/internal/web/templates"
)

// maxQueuedNotifications bounds a dialog's queue; the oldest are dropped.
const maxQueuedNotifications = 20

// Notification is a message for the user, delivered with the next response
// for the dialog that produced it.
type Notification struct {
	Level string `json:"level"`
	Text  string `json:"text"`
}

// flashQueue is the Notifier of one dialog. Responses drain it.
type flashQueue struct {
	mu    sync.Mutex
	items []Notification
}

// NotifySuccess implements core.Notifier.
func (q *flashQueue) NotifySuccess(_ context.Context, text string) {
	q.push("success", text)
}

// NotifyError implements core.Notifier.
func (q *flashQueue) NotifyError(_ context.Context, text string) {
	q.push("error", text)
}

func (q *flashQueue) push(level, text string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.items = append(q.items, Notification{Level: level, Text: text})
	if over := len(q.items) - maxQueuedNotifications; over > 0 {
		q.items = q.items[over:]
	}
}

// Drain returns and clears the queued notifications. It never returns nil
// so JSON responses always carry an array.
func (q *flashQueue) Drain() []Notification {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := q.items
	q.items = nil
	if out == nil {
		out = []Notification{}
	}
	return out
}

func toFlashes(ns []Notification) []templates.Flash {
	flashes := make([]templates.Flash, len(ns))
	for i, n := range ns {
		flashes[i] = templates.Flash{Level: n.Level, Text: n.Text}
	}
	return flashes
}
