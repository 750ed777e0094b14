package usage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const usageRowID = 1

type dbQuerier interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	QueryRow(context.Context, string, ...any) pgx.Row
}

// PostgresStore keeps the record as one row of usage_counter.
type PostgresStore struct {
	db dbQuerier
}

func NewPostgresStore(db dbQuerier) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates usage_counter when it is missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.Exec(
		ctx,
		`CREATE TABLE IF NOT EXISTS usage_counter (
			id    SMALLINT PRIMARY KEY,
			day   TEXT     NOT NULL,
			count INTEGER  NOT NULL
		)`,
	)
	if err != nil {
		return fmt.Errorf("create usage_counter: %w", err)
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context) (Record, error) {
	record := Record{}
	err := s.db.QueryRow(
		ctx,
		`SELECT day, count FROM usage_counter WHERE id = $1`,
		usageRowID,
	).Scan(&record.Date, &record.Count)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrNoRecord
	}
	if err != nil {
		return Record{}, fmt.Errorf("load usage row: %w", err)
	}
	if record.Count < 0 {
		return Record{}, fmt.Errorf("%w: negative count %d", ErrCorruptRecord, record.Count)
	}
	return record, nil
}

func (s *PostgresStore) Save(ctx context.Context, record Record) error {
	_, err := s.db.Exec(
		ctx,
		`INSERT INTO usage_counter (id, day, count)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (id)
		 DO UPDATE SET day = EXCLUDED.day, count = EXCLUDED.count`,
		usageRowID,
		record.Date,
		record.Count,
	)
	if err != nil {
		return fmt.Errorf("save usage row: %w", err)
	}
	return nil
}
