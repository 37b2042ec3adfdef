package history

import (
	"errors"
	"sync"
)

var (
	// ErrQueueFull is returned when the writer cannot keep up.
	ErrQueueFull = errors.New("history queue full")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("history sink closed")
)

// Appender persists history entries.
type Appender interface {
	AppendHistory(entry Entry) error
}

// AsyncSink queues entries and writes them on a single worker goroutine,
// so callers never wait on storage.
type AsyncSink struct {
	dst     Appender
	onError func(Entry, error)

	mu     sync.Mutex
	closed bool
	queue  chan Entry
	done   chan struct{}
}

// NewAsyncSink starts the worker. onError may be nil.
func NewAsyncSink(dst Appender, size int, onError func(Entry, error)) *AsyncSink {
	if size <= 0 {
		size = 1
	}
	s := &AsyncSink{
		dst:     dst,
		onError: onError,
		queue:   make(chan Entry, size),
		done:    make(chan struct{}),
	}
	go s.run()
	return s
}

// AppendHistory enqueues an entry without blocking.
func (s *AsyncSink) AppendHistory(entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	select {
	case s.queue <- entry:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close drains the queue and stops the worker.
func (s *AsyncSink) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.queue)
	s.mu.Unlock()

	<-s.done
	return nil
}

func (s *AsyncSink) run() {
	defer close(s.done)
	for entry := range s.queue {
		if err := s.dst.AppendHistory(entry); err != nil && s.onError != nil {
			s.onError(entry, err)
		}
	}
}
