// Package engine applies compound league mutations atomically across the
// catalog, the roster and the ledger.
//
// Every operation validates and resolves all references before writing, and
// all writes for one operation happen inside a single critical section, so a
// failed operation leaves state untouched and readers never observe a
// half-applied change.
package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/fantasyfamily/internal/domain/catalog"
	"github.com/okian/fantasyfamily/internal/domain/ledger"
	"github.com/okian/fantasyfamily/internal/domain/model"
	"github.com/okian/fantasyfamily/internal/domain/roster"
	"github.com/okian/fantasyfamily/pkg/logger"
	"github.com/okian/fantasyfamily/pkg/metrics"
)

// Operation names passed to the commit hook and used as metric labels.
const (
	OpDefineEvent  = "define_event"
	OpAddPlayer    = "add_player"
	OpDraftMember  = "draft_member"
	OpLogEvent     = "log_event"
	OpTradeMember  = "trade_member"
	OpRenamePlayer = "rename_player"
	OpDeletePlayer = "delete_player"
)

// DefaultSeedPlayers are created when no saved state exists.
var DefaultSeedPlayers = []string{"Shannon", "Sam"} //nolint:gochecknoglobals // read-only defaults

// Engine owns the three league stores.
type Engine struct {
	mu      sync.RWMutex
	catalog *catalog.Store
	roster  *roster.Store
	ledger  *ledger.Ledger

	now         func() time.Time
	newID       func() string
	onCommit    func(op string)
	seedPlayers []string
	log         logger.Logger
}

// New builds an empty engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		catalog:     catalog.New(),
		roster:      roster.New(),
		ledger:      ledger.New(),
		now:         time.Now,
		newID:       uuid.NewString,
		seedPlayers: DefaultSeedPlayers,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		e.log = logger.Get().Named("engine")
	}
	return e
}

// mutate runs fn under the write lock and then, outside it, records metrics
// and fires the commit hook when fn reports a change.
func (e *Engine) mutate(ctx context.Context, op string, fn func() (bool, error)) error {
	start := time.Now()

	e.mu.Lock()
	changed, err := fn()
	players, members, defs, entries := e.roster.Len(), e.roster.MemberCount(), e.catalog.Len(), e.ledger.Len()
	e.mu.Unlock()

	metrics.RecordMutation(op, resultLabel(changed, err), float64(time.Since(start).Microseconds())/1000)
	if err != nil {
		e.log.Debug(ctx, "mutation rejected", logger.String("op", op), logger.Error(err))
		return err
	}
	if !changed {
		return nil
	}
	metrics.UpdateLeagueSize(players, members, defs, entries)
	if e.onCommit != nil {
		e.onCommit(op)
	}
	return nil
}

func resultLabel(changed bool, err error) string {
	switch {
	case errors.Is(err, model.ErrValidation):
		return "validation"
	case errors.Is(err, model.ErrNotFound):
		return "not_found"
	case err != nil:
		return "error"
	case !changed:
		return "noop"
	default:
		return "ok"
	}
}

// stamp returns the ledger timestamp for a new entry. Millisecond precision
// survives every store, including Postgres timestamptz.
func (e *Engine) stamp() time.Time {
	return e.now().UTC().Truncate(time.Millisecond)
}

// DefineEvent adds a definition to the catalog.
func (e *Engine) DefineEvent(ctx context.Context, name string, points int, category model.Category) (model.EventDefinition, error) {
	var def model.EventDefinition
	err := e.mutate(ctx, OpDefineEvent, func() (bool, error) {
		var err error
		def, err = e.catalog.Define(e.newID(), name, points, category)
		return err == nil, err
	})
	return def, err
}

// AddPlayer creates a player with score 0 and no members.
func (e *Engine) AddPlayer(ctx context.Context, name string) (model.Player, error) {
	var p model.Player
	err := e.mutate(ctx, OpAddPlayer, func() (bool, error) {
		var err error
		p, err = e.roster.AddPlayer(e.newID(), name)
		return err == nil, err
	})
	return p, err
}

// DraftMember appends a new family member to a player.
func (e *Engine) DraftMember(ctx context.Context, playerID, name string) (model.FamilyMember, error) {
	var m model.FamilyMember
	err := e.mutate(ctx, OpDraftMember, func() (bool, error) {
		var err error
		m, err = e.roster.DraftMember(playerID, e.newID(), name)
		return err == nil, err
	})
	return m, err
}

// LogEvent applies a catalog definition to a member: the owning player's
// score moves by the definition's points and a ledger entry snapshots the
// current names.
func (e *Engine) LogEvent(ctx context.Context, memberID, eventID string) (model.LoggedEvent, error) {
	const op = "log event"
	var entry model.LoggedEvent
	err := e.mutate(ctx, OpLogEvent, func() (bool, error) {
		def, ok := e.catalog.Get(eventID)
		if !ok {
			return false, model.NewKind(op, model.ErrNotFound, "life event %q", eventID)
		}
		owner, member, ok := e.roster.OwnerOf(memberID)
		if !ok {
			return false, model.NewKind(op, model.ErrNotFound, "family member %q", memberID)
		}
		if err := e.roster.AddScore(owner.ID, def.Points); err != nil {
			return false, err
		}
		entry = model.LoggedEvent{
			ID:         e.newID(),
			MemberName: member.Name,
			PlayerName: owner.Name,
			EventName:  def.Name,
			Points:     def.Points,
			Category:   def.Category,
			Timestamp:  e.stamp(),
		}
		e.ledger.Append(entry)
		return true, nil
	})
	return entry, err
}

// TradeMember moves a member to another player and records a zero-point
// audit entry. Trading to the current owner is a no-op and reports
// traded=false.
func (e *Engine) TradeMember(ctx context.Context, memberID, toPlayerID string) (entry model.LoggedEvent, traded bool, err error) {
	const op = "trade member"
	err = e.mutate(ctx, OpTradeMember, func() (bool, error) {
		owner, member, ok := e.roster.OwnerOf(memberID)
		if !ok {
			return false, model.NewKind(op, model.ErrNotFound, "family member %q", memberID)
		}
		if owner.ID == toPlayerID {
			return false, nil
		}
		dst, ok := e.roster.Player(toPlayerID)
		if !ok {
			return false, model.NewKind(op, model.ErrNotFound, "player %q", toPlayerID)
		}
		if err := e.roster.MoveMember(memberID, dst.ID); err != nil {
			return false, err
		}
		entry = model.LoggedEvent{
			ID:         e.newID(),
			MemberName: member.Name,
			PlayerName: model.TradeLabel(owner.Name, dst.Name),
			EventName:  model.TradeEventName,
			Points:     0,
			Category:   model.Neutral,
			Timestamp:  e.stamp(),
		}
		e.ledger.Append(entry)
		traded = true
		return true, nil
	})
	return entry, traded, err
}

// RenamePlayer changes a player's name and rewrites matching ledger entries.
// An empty or unchanged name is a no-op.
func (e *Engine) RenamePlayer(ctx context.Context, playerID, newName string) (p model.Player, renamed bool, err error) {
	err = e.mutate(ctx, OpRenamePlayer, func() (bool, error) {
		oldName, changed, err := e.roster.Rename(playerID, newName)
		if err != nil {
			return false, err
		}
		p, _ = e.roster.Player(playerID)
		if !changed {
			return false, nil
		}
		n := e.ledger.RenameReferences(oldName, p.Name)
		e.log.Debug(ctx, "player renamed",
			logger.String("player_id", playerID), logger.String("from", oldName),
			logger.String("to", p.Name), logger.Int("ledger_entries", n))
		renamed = true
		return true, nil
	})
	return p, renamed, err
}

// DeletePlayer removes a player with its members and purges ledger entries
// carrying its name. It returns the removed player and the number of purged
// entries.
func (e *Engine) DeletePlayer(ctx context.Context, playerID string) (removed model.Player, purged int, err error) {
	err = e.mutate(ctx, OpDeletePlayer, func() (bool, error) {
		var err error
		removed, err = e.roster.Delete(playerID)
		if err != nil {
			return false, err
		}
		purged = e.ledger.RemoveReferences(removed.Name)
		return true, nil
	})
	return removed, purged, err
}

// Players returns all players in insertion order.
func (e *Engine) Players() []model.Player {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.roster.List()
}

// Player returns one player by id.
func (e *Engine) Player(id string) (model.Player, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.roster.Player(id)
}

// Catalog returns all definitions in insertion order.
func (e *Engine) Catalog() []model.EventDefinition {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.catalog.List()
}

// Ledger returns at most limit entries, newest first; limit <= 0 returns all.
func (e *Engine) Ledger(limit int) []model.LoggedEvent {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if limit <= 0 {
		return e.ledger.List()
	}
	return e.ledger.Recent(limit)
}

// Member resolves a member and its owner.
func (e *Engine) Member(memberID string) (model.Player, model.FamilyMember, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.roster.OwnerOf(memberID)
}

// Snapshot captures the full state in one consistent read.
func (e *Engine) Snapshot() model.Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return model.Snapshot{
		Players:      e.roster.List(),
		LoggedEvents: e.ledger.List(),
		LifeEvents:   e.catalog.List(),
	}
}

// Restore replaces all state with a validated snapshot. It does not fire the
// commit hook; the caller decides whether the restored state needs saving.
func (e *Engine) Restore(ctx context.Context, s model.Snapshot) error {
	if err := s.Validate(); err != nil {
		return err
	}
	s = s.Clone()

	e.mu.Lock()
	e.roster.Reset(s.Players)
	e.ledger.Reset(s.LoggedEvents)
	e.catalog.Reset(s.LifeEvents)
	players, members, defs, entries := e.roster.Len(), e.roster.MemberCount(), e.catalog.Len(), e.ledger.Len()
	e.mu.Unlock()

	metrics.UpdateLeagueSize(players, members, defs, entries)
	e.log.Info(ctx, "state restored",
		logger.Int("players", players), logger.Int("life_events", defs), logger.Int("logged_events", entries))
	return nil
}

// Seed replaces all state with the seed players, no members, an empty ledger
// and the given catalog. Definitions without an id receive a fresh one. Like
// Restore it does not fire the commit hook.
func (e *Engine) Seed(ctx context.Context, defs []model.EventDefinition) error {
	cat := catalog.New()
	for _, d := range defs {
		id := d.ID
		if id == "" {
			id = e.newID()
		}
		if _, err := cat.Define(id, d.Name, d.Points, d.Category); err != nil {
			return err
		}
	}
	players := make([]model.Player, 0, len(e.seedPlayers))
	for _, name := range e.seedPlayers {
		players = append(players, model.Player{ID: e.newID(), Name: name, Members: []model.FamilyMember{}})
	}
	e.log.Info(ctx, "seeding league", logger.Int("players", len(players)), logger.Int("life_events", cat.Len()))
	return e.Restore(ctx, model.Snapshot{Players: players, LifeEvents: cat.List()})
}
