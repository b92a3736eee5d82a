package observer

import (
	"context"
	"sync"
)

// stream is the Subscription shared by the command and polling subscribers.
type stream struct {
	events chan struct{}
	done   chan struct{}
	cancel context.CancelFunc

	once sync.Once
	mu   sync.Mutex
	err  error
}

func newStream(cancel context.CancelFunc) *stream {
	return &stream{
		events: make(chan struct{}, 1),
		done:   make(chan struct{}),
		cancel: cancel,
	}
}

func (s *stream) Events() <-chan struct{} { return s.events }

func (s *stream) Done() <-chan struct{} { return s.done }

func (s *stream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close stops the producer; Done closes once it has exited.
func (s *stream) Close() error {
	s.cancel()
	return nil
}

func (s *stream) emit() {
	select {
	case s.events <- struct{}{}:
	default:
	}
}

// finish records err and closes Done. Only the first call has effect.
func (s *stream) finish(err error) {
	s.once.Do(func() {
		s.mu.Lock()
		s.err = err
		s.mu.Unlock()
		close(s.done)
	})
}
