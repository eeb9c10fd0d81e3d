package slots

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/Masterminds/squirrel"
	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
	_ "modernc.org/sqlite"             // pure go sqlite driver
)

const (
	slotsTable = "slots"

	dialectSQLite   = "sqlite"
	dialectPostgres = "postgres"

	defaultPostgresDSN = "postgres://localhost/mudanzingo?sslmode=disable"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// SQLSlots keeps every slot as a row of the slots table. Modify runs inside
// a transaction; on postgres the row is locked with SELECT ... FOR UPDATE.
type SQLSlots struct {
	db          *sql.DB
	sq          squirrel.StatementBuilderType
	dialect     string
	lockManager *LockManager
}

// OpenSQLite opens (or creates) a sqlite database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLSlots, error) {
	if path == "" {
		path = "mudanzingo.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	openMu.Lock()
	db, err := sqlOpen("sqlite", path)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection keeps transactions of this process strictly ordered.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("configure sqlite: %w", err)
	}
	return newSQLSlots(ctx, db, dialectSQLite)
}

// OpenPostgres connects to postgres through the pgx driver.
func OpenPostgres(ctx context.Context, dsn string) (*SQLSlots, error) {
	if dsn == "" {
		dsn = defaultPostgresDSN
	}
	openMu.Lock()
	db, err := sqlOpen("pgx", dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return newSQLSlots(ctx, db, dialectPostgres)
}

func newSQLSlots(ctx context.Context, db *sql.DB, dialect string) (*SQLSlots, error) {
	s := &SQLSlots{
		db:          db,
		sq:          statementBuilder(dialect),
		dialect:     dialect,
		lockManager: NewLockManager(),
	}
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS `+slotsTable+` (
		slot_key TEXT PRIMARY KEY,
		payload TEXT NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create slots table: %w", err)
	}
	return s, nil
}

func statementBuilder(dialect string) squirrel.StatementBuilderType {
	if dialect == dialectPostgres {
		return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	}
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)
}

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *SQLSlots) DB() *sql.DB { return s.db }

// Load implements Slots.Load
func (s *SQLSlots) Load(ctx context.Context, key string) ([]byte, error) {
	query, args, err := s.selectQuery(key, false)
	if err != nil {
		return nil, err
	}
	var payload []byte
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select slot %s: %w", key, err)
	}
	return emptyAsAbsent(payload), nil
}

// Modify implements Slots.Modify
func (s *SQLSlots) Modify(ctx context.Context, key string, fn ModifyFunc) error {
	return s.lockManager.Execute(key, WriteOperation, func() (retErr error) {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin: %w", err)
		}
		defer func() {
			if retErr != nil {
				_ = tx.Rollback()
			}
		}()

		if s.dialect == dialectPostgres {
			// A row must exist for FOR UPDATE to lock anything.
			query, args, err := s.seedQuery(key)
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("seed slot %s: %w", key, err)
			}
		}

		query, args, err := s.selectQuery(key, s.dialect == dialectPostgres)
		if err != nil {
			return err
		}
		var current []byte
		err = tx.QueryRowContext(ctx, query, args...).Scan(&current)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("select slot %s: %w", key, err)
		}

		next, err := fn(emptyAsAbsent(current))
		if err != nil {
			return err
		}
		if next != nil {
			query, args, err := s.upsertQuery(key, next)
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("upsert slot %s: %w", key, err)
			}
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit: %w", err)
		}
		return nil
	})
}

// Close implements Slots.Close
func (s *SQLSlots) Close() error {
	return s.db.Close()
}

func (s *SQLSlots) selectQuery(key string, forUpdate bool) (string, []interface{}, error) {
	q := s.sq.Select("payload").From(slotsTable).Where(squirrel.Eq{"slot_key": key})
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}
	return q.ToSql()
}

func (s *SQLSlots) seedQuery(key string) (string, []interface{}, error) {
	return s.sq.Insert(slotsTable).
		Columns("slot_key", "payload").
		Values(key, "").
		Suffix("ON CONFLICT (slot_key) DO NOTHING").
		ToSql()
}

func (s *SQLSlots) upsertQuery(key string, payload []byte) (string, []interface{}, error) {
	return s.sq.Insert(slotsTable).
		Columns("slot_key", "payload").
		Values(key, string(payload)).
		Suffix("ON CONFLICT (slot_key) DO UPDATE SET payload = excluded.payload").
		ToSql()
}

// emptyAsAbsent maps the empty payload of a seeded row to an absent slot.
func emptyAsAbsent(payload []byte) []byte {
	if len(payload) == 0 {
		return nil
	}
	return payload
}
