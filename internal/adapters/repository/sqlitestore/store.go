// Package sqlitestore persists league snapshots in a SQLite database using
// the relational layout players / family_members / life_events /
// logged_events. Every save replaces all rows inside one transaction.
package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/okian/fantasyfamily/internal/adapters/repository"
	"github.com/okian/fantasyfamily/internal/adapters/repository/sqlitestore/migrations"
	"github.com/okian/fantasyfamily/internal/domain/model"
)

// Store provides SQLite-backed snapshot persistence.
type Store struct {
	sqlDB *sql.DB
}

var _ repository.Store = (*Store)(nil)

// Open opens and migrates a SQLite store at path.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL&_pragma=foreign_keys(ON)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

func (s *Store) Name() string { return "sqlite" }

// Close releases the underlying SQLite connection.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) Load(ctx context.Context) (model.Snapshot, bool, error) {
	var lastSaved string
	err := s.sqlDB.QueryRowContext(ctx, `SELECT last_saved FROM league_meta WHERE id = 1`).Scan(&lastSaved)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Snapshot{}, false, nil
	}
	if err != nil {
		return model.Snapshot{}, false, fmt.Errorf("read league meta: %w", err)
	}

	var snap model.Snapshot
	if snap.LastSaved, err = parseTime(lastSaved); err != nil {
		return model.Snapshot{}, false, err
	}
	if snap.Players, err = s.loadPlayers(ctx); err != nil {
		return model.Snapshot{}, false, err
	}
	if snap.LifeEvents, err = s.loadLifeEvents(ctx); err != nil {
		return model.Snapshot{}, false, err
	}
	if snap.LoggedEvents, err = s.loadLoggedEvents(ctx); err != nil {
		return model.Snapshot{}, false, err
	}
	if err := snap.Validate(); err != nil {
		return model.Snapshot{}, false, fmt.Errorf("%w: %w", repository.ErrCorrupt, err)
	}
	return snap, true, nil
}

func (s *Store) loadPlayers(ctx context.Context) ([]model.Player, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT id, name, score FROM players ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query players: %w", err)
	}
	defer rows.Close()

	players := []model.Player{}
	index := make(map[string]int)
	for rows.Next() {
		p := model.Player{Members: []model.FamilyMember{}}
		if err := rows.Scan(&p.ID, &p.Name, &p.Score); err != nil {
			return nil, fmt.Errorf("scan player: %w", err)
		}
		index[p.ID] = len(players)
		players = append(players, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	mrows, err := s.sqlDB.QueryContext(ctx, `SELECT id, name, player_id FROM family_members ORDER BY player_id, position`)
	if err != nil {
		return nil, fmt.Errorf("query family members: %w", err)
	}
	defer mrows.Close()
	for mrows.Next() {
		var m model.FamilyMember
		var playerID string
		if err := mrows.Scan(&m.ID, &m.Name, &playerID); err != nil {
			return nil, fmt.Errorf("scan family member: %w", err)
		}
		i, ok := index[playerID]
		if !ok {
			return nil, fmt.Errorf("%w: member %q references unknown player %q", repository.ErrCorrupt, m.ID, playerID)
		}
		players[i].Members = append(players[i].Members, m)
	}
	return players, mrows.Err()
}

func (s *Store) loadLifeEvents(ctx context.Context) ([]model.EventDefinition, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT id, name, points, category FROM life_events ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query life events: %w", err)
	}
	defer rows.Close()

	defs := []model.EventDefinition{}
	for rows.Next() {
		var d model.EventDefinition
		var category string
		if err := rows.Scan(&d.ID, &d.Name, &d.Points, &category); err != nil {
			return nil, fmt.Errorf("scan life event: %w", err)
		}
		d.Category = model.Category(category)
		defs = append(defs, d)
	}
	return defs, rows.Err()
}

func (s *Store) loadLoggedEvents(ctx context.Context) ([]model.LoggedEvent, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT id, member_name, player_name, event_name, points, category, timestamp
		 FROM logged_events ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query logged events: %w", err)
	}
	defer rows.Close()

	entries := []model.LoggedEvent{}
	for rows.Next() {
		var e model.LoggedEvent
		var category, ts string
		if err := rows.Scan(&e.ID, &e.MemberName, &e.PlayerName, &e.EventName, &e.Points, &category, &ts); err != nil {
			return nil, fmt.Errorf("scan logged event: %w", err)
		}
		e.Category = model.Category(category)
		if e.Timestamp, err = parseTime(ts); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *Store) Save(ctx context.Context, snap model.Snapshot) error {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	if err := deleteAll(ctx, tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := insertSnapshot(ctx, tx, snap); err != nil {
		_ = tx.Rollback()
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO league_meta (id, last_saved) VALUES (1, ?)
		 ON CONFLICT(id) DO UPDATE SET last_saved = excluded.last_saved`,
		formatTime(snap.LastSaved),
	); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("write league meta: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}

func insertSnapshot(ctx context.Context, tx *sql.Tx, snap model.Snapshot) error {
	for i, p := range snap.Players {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO players (id, name, score, position) VALUES (?, ?, ?, ?)`,
			p.ID, p.Name, p.Score, i,
		); err != nil {
			return fmt.Errorf("insert player %s: %w", p.ID, err)
		}
		for j, m := range p.Members {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO family_members (id, name, player_id, position) VALUES (?, ?, ?, ?)`,
				m.ID, m.Name, p.ID, j,
			); err != nil {
				return fmt.Errorf("insert family member %s: %w", m.ID, err)
			}
		}
	}
	for i, d := range snap.LifeEvents {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO life_events (id, name, points, category, position) VALUES (?, ?, ?, ?, ?)`,
			d.ID, d.Name, d.Points, string(d.Category), i,
		); err != nil {
			return fmt.Errorf("insert life event %s: %w", d.ID, err)
		}
	}
	for i, e := range snap.LoggedEvents {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO logged_events (position, id, member_name, player_name, event_name, points, category, timestamp)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			i, e.ID, e.MemberName, e.PlayerName, e.EventName, e.Points, string(e.Category), formatTime(e.Timestamp),
		); err != nil {
			return fmt.Errorf("insert logged event %s: %w", e.ID, err)
		}
	}
	return nil
}

func deleteAll(ctx context.Context, tx *sql.Tx) error {
	for _, table := range []string{"logged_events", "life_events", "family_members", "players"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}

func (s *Store) Clear(ctx context.Context) error {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin clear: %w", err)
	}
	if err := deleteAll(ctx, tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM league_meta`); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("clear league meta: %w", err)
	}
	return tx.Commit()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(raw string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: timestamp %q: %w", repository.ErrCorrupt, raw, err)
	}
	return t, nil
}
