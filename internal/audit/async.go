package audit

import (
	"sync"

	"github.com/rs/zerolog/log"
)

type record struct {
	message string
	source  string
}

// Async decouples callers from slow sinks with a buffered queue drained by a
// worker pool. Records are dropped, with a warning, when the queue is full.
type Async struct {
	next    Sink
	queue   chan record
	wg      sync.WaitGroup
	mu      sync.RWMutex
	workers int
	closed  bool
}

// NewAsync wraps next. Start must be called before records are delivered.
func NewAsync(next Sink, size, workers int) *Async {
	if size <= 0 {
		size = 1000
	}
	if workers <= 0 {
		workers = 1
	}

	return &Async{
		next:    next,
		queue:   make(chan record, size),
		workers: workers,
	}
}

// Start launches the workers.
func (a *Async) Start() {
	for i := 0; i < a.workers; i++ {
		a.wg.Add(1)
		go a.worker()
	}
}

// Stop closes the queue and waits until every queued record is written.
func (a *Async) Stop() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true
	close(a.queue)
	a.mu.Unlock()

	a.wg.Wait()
}

// Record implements Sink. It never blocks.
func (a *Async) Record(message, source string) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.closed {
		return
	}

	select {
	case a.queue <- record{message: message, source: source}:
	default:
		log.Warn().
			Str("source", source).
			Msg("Audit queue full, record dropped")
	}
}

func (a *Async) worker() {
	defer a.wg.Done()

	for r := range a.queue {
		a.next.Record(r.message, r.source)
	}
}
