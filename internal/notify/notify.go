// Package notify delivers non-blocking user notifications, the terminal
// counterpart of toast messages.
package notify

import (
	"context"
	"sync"

	"github.com/bookbuddy/storefront/pkg/logger"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notifier surfaces a short message without interrupting the caller.
type Notifier interface {
	Success(ctx context.Context, msg string)
	Error(ctx context.Context, msg string)
}

// LogNotifier writes notifications to the structured log.
type LogNotifier struct {
	logg *logger.Logger
}

func NewLogNotifier(logg *logger.Logger) *LogNotifier {
	return &LogNotifier{logg: logg}
}

func (n *LogNotifier) Success(ctx context.Context, msg string) {
	n.logg.Info(n.logg.WithField(ctx, "notification", LevelSuccess), msg)
}

func (n *LogNotifier) Error(ctx context.Context, msg string) {
	n.logg.Warn(n.logg.WithField(ctx, "notification", LevelError), msg)
}

// Message is one recorded notification.
type Message struct {
	Level Level
	Text  string
}

// Recorder keeps notifications in memory.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
}

func (r *Recorder) Success(_ context.Context, msg string) { r.add(LevelSuccess, msg) }

func (r *Recorder) Error(_ context.Context, msg string) { r.add(LevelError, msg) }

func (r *Recorder) add(level Level, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, Message{Level: level, Text: msg})
}

// Messages returns a copy of everything recorded so far.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.messages...)
}

// Count returns how many notifications of level were recorded.
func (r *Recorder) Count(level Level) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, m := range r.messages {
		if m.Level == level {
			n++
		}
	}
	return n
}
