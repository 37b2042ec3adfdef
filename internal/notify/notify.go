// Package notify delivers timer events to the terminal UI, the log and the speaker.
package notify

import (
	"errors"
	"sync"

	"github.com/charmbracelet/log"

	"timerdeck/internal/timer"
)

// Broadcaster fans events out to subscriber channels. Slow subscribers miss
// events rather than stalling the sender.
type Broadcaster struct {
	mu     sync.Mutex
	subs   []chan timer.Event
	closed bool
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{}
}

// Subscribe registers a new observer channel.
func (b *Broadcaster) Subscribe(buffer int) <-chan timer.Event {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan timer.Event, buffer)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch
	}
	b.subs = append(b.subs, ch)
	return ch
}

func (b *Broadcaster) Notify(event timer.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- event:
		default:
		}
	}
	return nil
}

// Close closes every subscriber channel.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, ch := range b.subs {
		close(ch)
	}
	b.subs = nil
}

// LogNotifier writes events to a structured logger.
type LogNotifier struct {
	logger *log.Logger
}

func NewLogNotifier(logger *log.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (l *LogNotifier) Notify(event timer.Event) error {
	switch event.Type {
	case timer.EventHalfway:
		l.logger.Info("halfway", "timer", event.TimerID, "name", event.Name,
			"category", event.Category, "remaining", event.Remaining)
	case timer.EventCompletion:
		l.logger.Info("completed", "timer", event.TimerID, "name", event.Name,
			"category", event.Category, "elapsed", event.Elapsed)
	case timer.EventWarning:
		l.logger.Warn(event.Message)
	}
	return nil
}

// Multi delivers to every notifier and joins their errors.
type Multi []timer.Notifier

func (m Multi) Notify(event timer.Event) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
