// Package notify delivers the user-visible side effects of workflow
// actions: success and failure notices on the terminal and, when the
// dashboard server is running, a live feed to connected browsers.
package notify

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Level indicates the notification outcome.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)

// Notification is one emitted notice.
type Notification struct {
	ID        string    `json:"id"`
	Level     Level     `json:"level"`
	Title     string    `json:"title"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// New builds a notification with a fresh id.
func New(level Level, title, detail string) Notification {
	return Notification{
		ID:        uuid.NewString(),
		Level:     level,
		Title:     title,
		Detail:    detail,
		CreatedAt: time.Now().UTC(),
	}
}

// Notifier receives workflow outcomes.
type Notifier interface {
	Success(title, detail string)
	Error(title, detail string)
}

// Terminal writes notifications as plain lines, the CLI's equivalent
// of a toast.
type Terminal struct {
	Out io.Writer
}

// NewTerminal creates a terminal notifier writing to out.
func NewTerminal(out io.Writer) *Terminal { return &Terminal{Out: out} }

func (t *Terminal) Success(title, detail string) { t.write("ok", title, detail) }
func (t *Terminal) Error(title, detail string)   { t.write("error", title, detail) }

func (t *Terminal) write(tag, title, detail string) {
	if detail != "" {
		fmt.Fprintf(t.Out, "[%s] %s: %s\n", tag, title, detail)
		return
	}
	fmt.Fprintf(t.Out, "[%s] %s\n", tag, title)
}

// Multi fans a notification out to several notifiers.
type Multi []Notifier

func (m Multi) Success(title, detail string) {
	for _, n := range m {
		n.Success(title, detail)
	}
}

func (m Multi) Error(title, detail string) {
	for _, n := range m {
		n.Error(title, detail)
	}
}

// Recorder keeps notifications in memory.
type Recorder struct {
	mu    sync.Mutex
	items []Notification
}

func (r *Recorder) Success(title, detail string) { r.add(LevelSuccess, title, detail) }
func (r *Recorder) Error(title, detail string)   { r.add(LevelError, title, detail) }

func (r *Recorder) add(level Level, title, detail string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, New(level, title, detail))
}

// Items returns a copy of everything recorded so far.
func (r *Recorder) Items() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.items))
	copy(out, r.items)
	return out
}
