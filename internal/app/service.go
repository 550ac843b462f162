// Package service wires the league engine to persistence and exposes the
// operations required by the HTTP API and the admin CLI.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/fantasyfamily/internal/adapters/mq/queue"
	"github.com/okian/fantasyfamily/internal/adapters/mq/worker"
	"github.com/okian/fantasyfamily/internal/adapters/repository"
	"github.com/okian/fantasyfamily/internal/domain/catalog"
	"github.com/okian/fantasyfamily/internal/domain/dedupe"
	"github.com/okian/fantasyfamily/internal/domain/engine"
	"github.com/okian/fantasyfamily/internal/domain/model"
	"github.com/okian/fantasyfamily/internal/domain/readmodel"
	"github.com/okian/fantasyfamily/pkg/logger"
	"github.com/okian/fantasyfamily/pkg/metrics"
)

const (
	defaultSaveDebounce = 500 * time.Millisecond
	defaultQueueSize    = 64
	defaultDedupeSize   = 10_000
)

// Service owns the engine, its store and the save pipeline.
type Service struct {
	mu sync.RWMutex

	// keyedMu serializes log submissions that carry an idempotency key.
	keyedMu sync.Mutex

	engine  *engine.Engine
	store   repository.Store
	saver   *worker.Saver
	deduper dedupe.Deduper

	saveDebounce time.Duration
	queueSize    int
	dedupeSize   int
	catalogFile  string
	engineOpts   []engine.Option

	started bool
	stopped bool
	cancel  context.CancelFunc

	logger logger.Logger
}

// New constructs a Service. Nothing is loaded until Start.
func New(opts ...Option) *Service {
	s := &Service{
		saveDebounce: defaultSaveDebounce,
		queueSize:    defaultQueueSize,
		dedupeSize:   defaultDedupeSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.store == nil {
		s.store = repository.NewMemoryStore()
	}

	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.engine = engine.New(append([]engine.Option{
		engine.WithLogger(s.logger.Named("engine")),
		engine.WithCommitHook(s.onCommit),
	}, s.engineOpts...)...)
	s.saver = worker.NewSaver(
		queue.New(queue.WithCapacity(s.queueSize)),
		s.engine,
		s.store,
		worker.WithDebounce(s.saveDebounce),
		worker.WithLogger(s.logger.Named("saver").With(logger.String("store", s.store.Name()))),
	)
	return s
}

func (s *Service) onCommit(op string) {
	_ = s.saver.Request(context.Background(), op)
}

// Start loads saved state, seeding the league when none exists, and starts
// the save worker.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.stopped {
		return fmt.Errorf("start: %w", ErrStopped)
	}

	s.logger.Info(ctx, "starting league service", logger.String("store", s.store.Name()))
	if err := s.load(ctx); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.saver.Start(runCtx)
	s.started = true

	s.logger.Info(ctx, "league service started",
		logger.Int("players", len(s.engine.Players())),
		logger.Int("life_events", len(s.engine.Catalog())),
		logger.Int("save_debounce_ms", int(s.saveDebounce.Milliseconds())),
	)
	return nil
}

// load runs the load contract: restore a saved snapshot, or seed and save
// when the store holds none.
func (s *Service) load(ctx context.Context) error {
	snap, ok, err := s.store.Load(ctx)
	if err != nil {
		metrics.RecordErrorByComponent("service", "load_failed")
		return model.WrapKind("load", model.ErrPersistence, err)
	}
	if ok {
		if err := s.engine.Restore(ctx, snap); err != nil {
			return err
		}
		s.saver.MarkSaved(snap.LastSaved)
		return nil
	}
	return s.seed(ctx)
}

func (s *Service) seed(ctx context.Context) error {
	defs, err := s.seedCatalog()
	if err != nil {
		return err
	}
	if err := s.engine.Seed(ctx, defs); err != nil {
		return err
	}
	if err := s.saver.SaveNow(ctx); err != nil {
		s.logger.Warn(ctx, "initial save failed", logger.Error(err))
	}
	return nil
}

func (s *Service) seedCatalog() ([]model.EventDefinition, error) {
	if s.catalogFile == "" {
		return catalog.Default()
	}
	defs, err := catalog.LoadFile(s.catalogFile)
	if err != nil {
		return nil, fmt.Errorf("catalog file %s: %w", s.catalogFile, err)
	}
	return defs, nil
}

// Stop flushes pending changes and closes the store.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping league service")

	var firstErr error
	if err := s.saver.Shutdown(ctx); err != nil {
		firstErr = err
	}
	if s.cancel != nil {
		s.cancel()
	}
	if err := s.store.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("close store: %w", err)
	}
	s.started = false
	s.stopped = true
	s.logger.Info(ctx, "league service stopped")
	return firstErr
}

// Reload discards in-memory state and re-runs the load contract.
func (s *Service) Reload(ctx context.Context) error {
	if err := s.load(ctx); err != nil {
		return err
	}
	s.deduper.Reset(ctx)
	s.logger.Info(ctx, "state reloaded")
	return nil
}

// Import replaces state with a JSON backup and saves it. A malformed backup
// leaves state untouched.
func (s *Service) Import(ctx context.Context, data []byte) error {
	snap, err := model.DecodeSnapshot(data)
	if err != nil {
		return err
	}
	if err := s.engine.Restore(ctx, snap); err != nil {
		return err
	}
	s.deduper.Reset(ctx)
	return s.saver.SaveNow(ctx)
}

// Export returns the full state as an indented JSON backup.
func (s *Service) Export(_ context.Context) ([]byte, error) {
	return model.EncodeSnapshot(s.Data())
}

// Reset clears stored data and reseeds the league.
func (s *Service) Reset(ctx context.Context) error {
	if err := s.store.Clear(ctx); err != nil {
		return model.WrapKind("reset", model.ErrPersistence, err)
	}
	defs, err := s.seedCatalog()
	if err != nil {
		return err
	}
	if err := s.engine.Seed(ctx, defs); err != nil {
		return err
	}
	s.deduper.Reset(ctx)
	s.logger.Info(ctx, "league reset")
	return s.saver.SaveNow(ctx)
}

// SaveStatus reports persistence progress.
func (s *Service) SaveStatus() worker.Status {
	return s.saver.Status()
}

// Flush writes the current state synchronously.
func (s *Service) Flush(ctx context.Context) error {
	return s.saver.SaveNow(ctx)
}

// Data is the full state with the last saved instant.
func (s *Service) Data() model.Snapshot {
	snap := s.engine.Snapshot()
	snap.LastSaved = s.saver.Status().LastSaved
	return snap
}

func (s *Service) DefineEvent(ctx context.Context, name string, points int, category model.Category) (model.EventDefinition, error) {
	return s.engine.DefineEvent(ctx, name, points, category)
}

func (s *Service) AddPlayer(ctx context.Context, name string) (model.Player, error) {
	return s.engine.AddPlayer(ctx, name)
}

func (s *Service) DraftMember(ctx context.Context, playerID, name string) (model.FamilyMember, error) {
	return s.engine.DraftMember(ctx, playerID, name)
}

// LogEvent applies an event to a member. A non-empty idempotency key that
// was already accepted returns duplicate=true without scoring again. Keyed
// submissions run one at a time, so a key is only reported as a duplicate
// once the submission that recorded it has committed.
func (s *Service) LogEvent(ctx context.Context, memberID, eventID, key string) (entry model.LoggedEvent, duplicate bool, err error) {
	if key == "" {
		entry, err = s.engine.LogEvent(ctx, memberID, eventID)
		return entry, false, err
	}

	s.keyedMu.Lock()
	defer s.keyedMu.Unlock()
	if s.deduper.SeenAndRecord(ctx, key) {
		metrics.RecordDuplicateSubmission()
		s.logger.Debug(ctx, "duplicate submission", logger.String("key", key))
		return model.LoggedEvent{}, true, nil
	}
	entry, err = s.engine.LogEvent(ctx, memberID, eventID)
	if err != nil {
		s.deduper.Unrecord(ctx, key)
	}
	return entry, false, err
}

func (s *Service) TradeMember(ctx context.Context, memberID, toPlayerID string) (model.LoggedEvent, bool, error) {
	return s.engine.TradeMember(ctx, memberID, toPlayerID)
}

func (s *Service) RenamePlayer(ctx context.Context, playerID, name string) (model.Player, bool, error) {
	return s.engine.RenamePlayer(ctx, playerID, name)
}

func (s *Service) DeletePlayer(ctx context.Context, playerID string) (model.Player, int, error) {
	return s.engine.DeletePlayer(ctx, playerID)
}

// Leaderboard returns players ordered by score.
func (s *Service) Leaderboard(_ context.Context) []model.Player {
	return readmodel.Leaderboard(s.engine.Players())
}

// MemberStats computes statistics for a drafted member.
func (s *Service) MemberStats(_ context.Context, memberID string) (readmodel.MemberStats, error) {
	_, member, ok := s.engine.Member(memberID)
	if !ok {
		return readmodel.MemberStats{}, model.NewKind("member_stats", model.ErrNotFound, "member %q", memberID)
	}
	return readmodel.ComputeMemberStats(s.engine.Ledger(0), member.Name), nil
}

// Members lists drafted members, optionally for one player.
func (s *Service) Members(_ context.Context, playerID string) ([]readmodel.MemberOverview, error) {
	if playerID != "" {
		if _, ok := s.engine.Player(playerID); !ok {
			return nil, model.NewKind("members", model.ErrNotFound, "player %q", playerID)
		}
	}
	return readmodel.MembersOverview(s.engine.Players(), s.engine.Ledger(0), playerID), nil
}

// Catalog browses definitions.
func (s *Service) Catalog(_ context.Context, q readmodel.CatalogQuery) []model.EventDefinition {
	return readmodel.BrowseCatalog(s.engine.Catalog(), q)
}

func (s *Service) CatalogGrouped(_ context.Context) readmodel.Grouped {
	return readmodel.CatalogByCategory(s.engine.Catalog())
}

func (s *Service) CatalogSummary(_ context.Context) readmodel.CatalogSummary {
	return readmodel.SummarizeCatalog(s.engine.Catalog())
}

// Feed returns up to limit ledger entries, newest first.
func (s *Service) Feed(_ context.Context, limit int) []model.LoggedEvent {
	return s.engine.Ledger(limit)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()

	snap := s.engine.Snapshot()
	members := 0
	for _, p := range snap.Players {
		members += len(p.Members)
	}
	st := s.saver.Status()
	stats := map[string]interface{}{
		"started":      started,
		"store":        s.store.Name(),
		"players":      len(snap.Players),
		"members":      members,
		"lifeEvents":   len(snap.LifeEvents),
		"loggedEvents": len(snap.LoggedEvents),
		"dedupeSize":   s.deduper.Size(),
		"savePending":  st.Pending,
	}
	if !st.LastSaved.IsZero() {
		stats["lastSaved"] = st.LastSaved
	}
	if st.LastError != "" {
		stats["lastError"] = st.LastError
	}
	return stats
}
