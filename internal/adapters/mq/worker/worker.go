// Package worker runs the persistence side of the league: it reads save
// requests, debounces them and writes the latest engine snapshot to the
// configured store.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/fantasyfamily/internal/adapters/mq/queue"
	"github.com/okian/fantasyfamily/internal/adapters/repository"
	"github.com/okian/fantasyfamily/internal/domain/model"
	"github.com/okian/fantasyfamily/pkg/logger"
	"github.com/okian/fantasyfamily/pkg/metrics"
)

const (
	defaultDebounce      = 500 * time.Millisecond
	maxWaitMultiplier    = 10
	saverShutdownTimeout = 5 * time.Second
	opSave               = "save"
)

// Source provides the state to persist.
type Source interface {
	Snapshot() model.Snapshot
}

// Queue defines how the saver receives requests.
type Queue interface {
	Enqueue(ctx context.Context, r queue.Request) (bool, error)
	Dequeue() <-chan queue.Request
	Close() error
}

// Status is the persistence state exposed to clients.
type Status struct {
	LastSaved time.Time `json:"lastSaved"`
	Pending   bool      `json:"pending"`
	LastError string    `json:"lastError,omitempty"`
}

// Saver persists engine snapshots.
type Saver struct {
	queue  Queue
	source Source
	store  repository.Store

	debounce time.Duration
	maxWait  time.Duration
	now      func() time.Time

	// saveMu serialises writes to the store.
	saveMu sync.Mutex

	mu        sync.Mutex
	requested uint64
	saved     uint64
	lastSaved time.Time
	lastErr   error
	running   bool

	shutdown chan struct{}
	done     chan struct{}
	stopOnce sync.Once

	logger logger.Logger
}

// NewSaver creates a saver with configuration options.
func NewSaver(q Queue, source Source, store repository.Store, opts ...Option) *Saver {
	s := &Saver{
		queue:    q,
		source:   source,
		store:    store,
		debounce: defaultDebounce,
		now:      time.Now,
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.maxWait == 0 {
		s.maxWait = s.debounce * maxWaitMultiplier
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("saver")
	}
	return s
}

// Request marks state as changed and asks the worker to save it.
func (s *Saver) Request(ctx context.Context, reason string) error {
	s.mu.Lock()
	s.requested++
	s.mu.Unlock()
	metrics.UpdateSavePending(true)

	if _, err := s.queue.Enqueue(ctx, queue.Request{Reason: reason, At: s.now()}); err != nil {
		s.logger.Warn(ctx, "save request not queued", logger.String("reason", reason), logger.Error(err))
		return err
	}
	return nil
}

// Start runs the worker loop in a goroutine.
func (s *Saver) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()
	go s.Run(ctx)
}

// Run reads requests until ctx is cancelled, the saver is shut down or the
// queue is closed and nothing is left to save.
func (s *Saver) Run(ctx context.Context) {
	defer close(s.done)

	requests := s.queue.Dequeue()
	var (
		timer        *time.Timer
		fire         <-chan time.Time
		firstPending time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.shutdown:
			return
		case _, ok := <-requests:
			if !ok {
				requests = nil
				if fire == nil {
					return
				}
				continue
			}
			if s.debounce == 0 {
				_ = s.SaveNow(ctx)
				continue
			}
			switch {
			case fire == nil:
				firstPending = s.now()
				timer = time.NewTimer(s.debounce)
				fire = timer.C
			case s.now().Sub(firstPending) < s.maxWait:
				timer.Reset(s.debounce)
			}
		case <-fire:
			fire = nil
			drain(requests)
			_ = s.SaveNow(ctx)
			if requests == nil {
				return
			}
		}
	}
}

func drain(requests <-chan queue.Request) {
	if requests == nil {
		return
	}
	for {
		select {
		case _, ok := <-requests:
			if !ok {
				return
			}
		default:
			return
		}
	}
}

// SaveNow writes the current snapshot synchronously.
func (s *Saver) SaveNow(ctx context.Context) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.Lock()
	gen := s.requested
	s.mu.Unlock()

	snap := s.source.Snapshot()
	snap.LastSaved = s.now().UTC()

	start := time.Now()
	err := s.store.Save(ctx, snap)
	latency := float64(time.Since(start).Microseconds()) / 1000

	s.mu.Lock()
	if err != nil {
		s.lastErr = err
		s.mu.Unlock()
		metrics.RecordSave(s.store.Name(), "error", latency)
		metrics.RecordErrorByComponent("saver", "save_failed")
		metrics.RecordErrorLatency("saver", "save_failed", latency)
		s.logger.Error(ctx, "save failed", logger.String("store", s.store.Name()), logger.Error(err))
		return model.WrapKind(opSave, model.ErrPersistence, err)
	}
	s.lastErr = nil
	s.lastSaved = snap.LastSaved
	if gen > s.saved {
		s.saved = gen
	}
	pending := s.requested > s.saved
	s.mu.Unlock()

	metrics.RecordSave(s.store.Name(), "ok", latency)
	metrics.UpdateSavePending(pending)
	metrics.UpdateLastSaved(snap.LastSaved.Unix())
	s.logger.Debug(ctx, "state saved",
		logger.String("store", s.store.Name()),
		logger.Int("players", len(snap.Players)),
		logger.Int("logged_events", len(snap.LoggedEvents)))
	return nil
}

// MarkSaved records that the store already holds the current state, as after
// a load.
func (s *Saver) MarkSaved(at time.Time) {
	s.mu.Lock()
	s.saved = s.requested
	s.lastSaved = at
	s.lastErr = nil
	s.mu.Unlock()
	metrics.UpdateSavePending(false)
	if !at.IsZero() {
		metrics.UpdateLastSaved(at.Unix())
	}
}

// Status reports the last save instant, whether changes are waiting and the
// last persistence error.
func (s *Saver) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Status{LastSaved: s.lastSaved, Pending: s.requested > s.saved}
	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
	}
	return st
}

// Shutdown stops the loop, closes the queue and flushes pending changes.
func (s *Saver) Shutdown(ctx context.Context) error {
	s.stopOnce.Do(func() {
		if err := s.queue.Close(); err != nil {
			s.logger.Error(ctx, "error closing save queue", logger.Error(err))
		}
		close(s.shutdown)
	})

	s.mu.Lock()
	running := s.running
	s.mu.Unlock()
	if running {
		waitCtx, cancel := context.WithTimeout(ctx, saverShutdownTimeout)
		defer cancel()
		select {
		case <-s.done:
		case <-waitCtx.Done():
			s.logger.Warn(ctx, "saver shutdown timed out")
		}
	}

	if !s.Status().Pending {
		return nil
	}
	if err := s.SaveNow(ctx); err != nil {
		return fmt.Errorf("final flush: %w", err)
	}
	return nil
}
