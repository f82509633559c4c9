// Package notify delivers short user-facing notices (the toast messages of
// the web client) to whatever surface is attached: a terminal, the log, or a
// test recorder.
package notify

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/wolfman30/leadhunter/pkg/logging"
)

// Variant controls how a notice is presented.
type Variant string

const (
	VariantDefault     Variant = "default"
	VariantDestructive Variant = "destructive"
	VariantInfo        Variant = "info"
)

// Notice is one user-visible message.
type Notice struct {
	Title       string
	Description string
	Variant     Variant
}

// Success builds a default notice.
func Success(title, description string) Notice {
	return Notice{Title: title, Description: description, Variant: VariantDefault}
}

// Error builds a destructive notice.
func Error(title, description string) Notice {
	return Notice{Title: title, Description: description, Variant: VariantDestructive}
}

// Info builds an informational notice.
func Info(title, description string) Notice {
	return Notice{Title: title, Description: description, Variant: VariantInfo}
}

func (n Notice) String() string {
	if n.Description == "" {
		return n.Title
	}
	return n.Title + ": " + n.Description
}

// Notifier receives notices. Implementations must be safe for concurrent use
// and must not block for long; notices are raised from request goroutines.
type Notifier interface {
	Notify(ctx context.Context, n Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, n Notice)

// Notify implements Notifier.
func (f NotifierFunc) Notify(ctx context.Context, n Notice) {
	f(ctx, n)
}

// Discard drops every notice.
var Discard Notifier = NotifierFunc(func(context.Context, Notice) {})

// LogNotifier writes notices as structured log records.
type LogNotifier struct {
	logger *logging.Logger
}

// NewLogNotifier creates a LogNotifier. A nil logger uses logging.Default.
func NewLogNotifier(logger *logging.Logger) *LogNotifier {
	if logger == nil {
		logger = logging.Default()
	}
	return &LogNotifier{logger: logger}
}

// Notify implements Notifier.
func (l *LogNotifier) Notify(ctx context.Context, n Notice) {
	args := []any{"title", n.Title, "description", n.Description, "variant", string(n.Variant)}
	if n.Variant == VariantDestructive {
		l.logger.WarnContext(ctx, "notice", args...)
		return
	}
	l.logger.InfoContext(ctx, "notice", args...)
}

// ConsoleNotifier prints one line per notice, prefixed by a marker for the
// variant.
type ConsoleNotifier struct {
	mu sync.Mutex
	w  io.Writer
}

// NewConsoleNotifier writes notices to w.
func NewConsoleNotifier(w io.Writer) *ConsoleNotifier {
	return &ConsoleNotifier{w: w}
}

// Notify implements Notifier.
func (c *ConsoleNotifier) Notify(_ context.Context, n Notice) {
	marker := "✓"
	switch n.Variant {
	case VariantDestructive:
		marker = "✗"
	case VariantInfo:
		marker = "i"
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.w, "%s %s\n", marker, strings.TrimSpace(n.String()))
}

// Multi fans a notice out to every notifier in order.
func Multi(notifiers ...Notifier) Notifier {
	return NotifierFunc(func(ctx context.Context, n Notice) {
		for _, nt := range notifiers {
			if nt != nil {
				nt.Notify(ctx, n)
			}
		}
	})
}

// Recorder keeps every notice it receives.
type Recorder struct {
	mu      sync.Mutex
	notices []Notice
}

// Notify implements Notifier.
func (r *Recorder) Notify(_ context.Context, n Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

// Notices returns a copy of what has been recorded so far.
func (r *Recorder) Notices() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notice(nil), r.notices...)
}

// Reset forgets recorded notices.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = nil
}
