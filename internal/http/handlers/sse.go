package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"headshot/internal/domain"
)

// eventStream writes server-sent events. Each event is one "data:" frame
// holding a JSON object tagged by "type".
type eventStream struct {
	mu     sync.Mutex
	w      http.ResponseWriter
	rc     *http.ResponseController
	stop   chan struct{}
	wg     sync.WaitGroup
	closed bool
}

func openEventStream(w http.ResponseWriter, keepAlive time.Duration) *eventStream {
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")

	s := &eventStream{w: w, rc: http.NewResponseController(w), stop: make(chan struct{})}
	// Generation outlives the server write timeout.
	_ = s.rc.SetWriteDeadline(time.Time{})
	w.WriteHeader(http.StatusOK)
	_ = s.flush()

	if keepAlive > 0 {
		s.wg.Add(1)
		go s.pinger(keepAlive)
	}
	return s
}

// Send writes one event and flushes it to the client.
func (s *eventStream) Send(e domain.Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.ErrStreamClosed
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", payload); err != nil {
		return err
	}
	return s.flush()
}

// Close stops the keep-alive pinger. It does not end the response.
func (s *eventStream) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.stop)
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *eventStream) pinger(every time.Duration) {
	defer s.wg.Done()
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-t.C:
			s.mu.Lock()
			if !s.closed {
				if _, err := fmt.Fprint(s.w, ": keep-alive\n\n"); err == nil {
					_ = s.flush()
				}
			}
			s.mu.Unlock()
		}
	}
}

func (s *eventStream) flush() error {
	if err := s.rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
		return err
	}
	return nil
}
