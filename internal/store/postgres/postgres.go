package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"shiftledger/backend/internal/store"
)

//go:embed migrations/*.sql
var migrations embed.FS

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Migrate applies the embedded goose migrations.
func (s *Store) Migrate(ctx context.Context) error {
	goose.SetBaseFS(migrations)
	defer goose.SetBaseFS(nil)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, s.db, "migrations"); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) LoadCollections(ctx context.Context, tenantID string) (map[string][]byte, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT collection_key, payload
		FROM tenant_collections
		WHERE tenant_id = $1
	`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]byte)
	for rows.Next() {
		var (
			key     string
			payload []byte
		)
		if err := rows.Scan(&key, &payload); err != nil {
			return nil, err
		}
		out[key] = payload
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// SaveCollections upserts every snapshot inside one transaction. Transactions
// aborted by a serialization failure or deadlock are retried.
func (s *Store) SaveCollections(ctx context.Context, tenantID string, snapshots []store.Snapshot) error {
	if len(snapshots) == 0 {
		return nil
	}
	var err error
	for attempt := 0; attempt < 3; attempt++ {
		err = s.saveOnce(ctx, tenantID, snapshots)
		if err == nil || !isSerializationFailure(err) {
			return err
		}
	}
	return err
}

func (s *Store) saveOnce(ctx context.Context, tenantID string, snapshots []store.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, snap := range snapshots {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO tenant_collections (tenant_id, collection_key, payload, version, updated_at)
			VALUES ($1, $2, $3::jsonb, 1, now())
			ON CONFLICT (tenant_id, collection_key)
			DO UPDATE SET payload = EXCLUDED.payload,
			              version = tenant_collections.version + 1,
			              updated_at = now()
		`, tenantID, snap.Key, string(snap.Data)); err != nil {
			return fmt.Errorf("save %s: %w", snap.Key, err)
		}
	}
	return tx.Commit()
}

func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}
