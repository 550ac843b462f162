// Package pgstore persists league snapshots in PostgreSQL through GORM,
// using the players / family_members / life_events / logged_events schema.
package pgstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/okian/fantasyfamily/internal/adapters/repository"
	"github.com/okian/fantasyfamily/internal/domain/model"
)

const metaID = 1

// Store is a GORM-backed snapshot store.
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

var _ repository.Store = (*Store)(nil)

// Connect opens the database and migrates the schema.
func Connect(ctx context.Context, dsn string) (*Store, error) {
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	s := New(gdb)
	if err := s.AutoMigrate(ctx); err != nil {
		if sqlDB, dbErr := gdb.DB(); dbErr == nil {
			_ = sqlDB.Close()
		}
		return nil, err
	}
	return s, nil
}

// New wraps an existing GORM handle without migrating.
func New(gdb *gorm.DB) *Store {
	return &Store{db: gdb, now: time.Now}
}

// AutoMigrate creates or updates the league tables.
func (s *Store) AutoMigrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(
		&LeagueMeta{}, &PlayerRow{}, &FamilyMemberRow{}, &LifeEventRow{}, &LoggedEventRow{},
	); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	stmts := []string{
		`create index if not exists idx_family_members_player_pos on family_members(player_id, position);`,
		`create index if not exists idx_life_events_pos on life_events(position);`,
	}
	for _, stmt := range stmts {
		if err := s.db.WithContext(ctx).Exec(stmt).Error; err != nil {
			return fmt.Errorf("index exec failed: %w (sql=%s)", err, stmt)
		}
	}
	return nil
}

func (s *Store) Name() string { return "postgres" }

func (s *Store) Load(ctx context.Context) (model.Snapshot, bool, error) {
	db := s.db.WithContext(ctx)

	var meta LeagueMeta
	if err := db.First(&meta, metaID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.Snapshot{}, false, nil
		}
		return model.Snapshot{}, false, fmt.Errorf("read league meta: %w", err)
	}

	var rs rowSet
	if err := db.Order("position").Find(&rs.players).Error; err != nil {
		return model.Snapshot{}, false, fmt.Errorf("query players: %w", err)
	}
	if err := db.Order("player_id, position").Find(&rs.members).Error; err != nil {
		return model.Snapshot{}, false, fmt.Errorf("query family members: %w", err)
	}
	if err := db.Order("position").Find(&rs.defs).Error; err != nil {
		return model.Snapshot{}, false, fmt.Errorf("query life events: %w", err)
	}
	if err := db.Order("position").Find(&rs.entries).Error; err != nil {
		return model.Snapshot{}, false, fmt.Errorf("query logged events: %w", err)
	}

	snap := fromRows(rs, meta.LastSaved.UTC())
	if err := snap.Validate(); err != nil {
		return model.Snapshot{}, false, fmt.Errorf("%w: %w", repository.ErrCorrupt, err)
	}
	return snap, true, nil
}

func (s *Store) Save(ctx context.Context, snap model.Snapshot) error {
	rs := toRows(snap, s.now().UTC())
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := deleteAll(tx); err != nil {
			return err
		}
		if err := createAll(tx, rs); err != nil {
			return err
		}
		meta := LeagueMeta{ID: metaID, LastSaved: snap.LastSaved.UTC()}
		return tx.Save(&meta).Error
	})
}

func createAll(tx *gorm.DB, rs rowSet) error {
	const batch = 200
	if len(rs.players) > 0 {
		if err := tx.CreateInBatches(rs.players, batch).Error; err != nil {
			return fmt.Errorf("insert players: %w", err)
		}
	}
	if len(rs.members) > 0 {
		if err := tx.CreateInBatches(rs.members, batch).Error; err != nil {
			return fmt.Errorf("insert family members: %w", err)
		}
	}
	if len(rs.defs) > 0 {
		if err := tx.CreateInBatches(rs.defs, batch).Error; err != nil {
			return fmt.Errorf("insert life events: %w", err)
		}
	}
	if len(rs.entries) > 0 {
		if err := tx.CreateInBatches(rs.entries, batch).Error; err != nil {
			return fmt.Errorf("insert logged events: %w", err)
		}
	}
	return nil
}

func deleteAll(tx *gorm.DB) error {
	for _, table := range []string{"logged_events", "life_events", "family_members", "players"} {
		if err := tx.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}

func (s *Store) Clear(ctx context.Context) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := deleteAll(tx); err != nil {
			return err
		}
		return tx.Exec("DELETE FROM league_meta").Error
	})
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
