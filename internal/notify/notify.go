// ABOUTME: One-shot user notifications emitted by the state machines
// ABOUTME: Channel feeds TUI toasts; Log routes notices through slog for CLI commands

package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Level distinguishes success toasts from error toasts.
type Level int

const (
	Success Level = iota
	Error
)

func (l Level) String() string {
	if l == Error {
		return "error"
	}
	return "success"
}

// Notice is a single transient message for the user.
type Notice struct {
	Level   Level
	Message string
	At      time.Time
}

// Notifier receives notices. Implementations must not block.
type Notifier interface {
	Notify(Notice)
}

// Func adapts a function to Notifier.
type Func func(Notice)

func (f Func) Notify(n Notice) { f(n) }

// Discard drops every notice.
var Discard Notifier = Func(func(Notice) {})

// SuccessNotice and ErrorNotice build notices stamped with the current time.
func SuccessNotice(msg string) Notice { return Notice{Level: Success, Message: msg, At: time.Now()} }
func ErrorNotice(msg string) Notice   { return Notice{Level: Error, Message: msg, At: time.Now()} }

// Channel buffers notices for a consumer such as the TUI. When the buffer is
// full new notices are dropped rather than blocking the sender.
type Channel struct {
	ch chan Notice
}

// NewChannel returns a Channel with room for size pending notices.
func NewChannel(size int) *Channel {
	if size < 1 {
		size = 1
	}
	return &Channel{ch: make(chan Notice, size)}
}

func (c *Channel) Notify(n Notice) {
	select {
	case c.ch <- n:
	default:
	}
}

// C exposes the receive side.
func (c *Channel) C() <-chan Notice {
	return c.ch
}

// Next blocks until a notice arrives or ctx ends.
func (c *Channel) Next(ctx context.Context) (Notice, bool) {
	select {
	case n := <-c.ch:
		return n, true
	case <-ctx.Done():
		return Notice{}, false
	}
}

// Drain returns every pending notice without blocking.
func (c *Channel) Drain() []Notice {
	var out []Notice
	for {
		select {
		case n := <-c.ch:
			out = append(out, n)
		default:
			return out
		}
	}
}

// Log writes notices to a slog logger: successes at info, errors at warn.
type Log struct {
	Logger *slog.Logger
}

func (l Log) Notify(n Notice) {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if n.Level == Error {
		logger.Warn(n.Message, "notice", n.Level.String())
		return
	}
	logger.Info(n.Message, "notice", n.Level.String())
}

// Recorder keeps every notice. Useful in tests and for CLI summaries.
type Recorder struct {
	mu      sync.Mutex
	notices []Notice
}

func (r *Recorder) Notify(n Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

// Notices returns a copy of everything recorded so far.
func (r *Recorder) Notices() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notice(nil), r.notices...)
}

// Messages returns recorded messages in order.
func (r *Recorder) Messages() []string {
	ns := r.Notices()
	out := make([]string, len(ns))
	for i, n := range ns {
		out[i] = n.Message
	}
	return out
}
