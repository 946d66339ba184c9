package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"robot-pick-system/internal/domain"
)

// JournalInterface records order and pick history for auditing. It is
// write-only: nothing is read back when the service starts.
type JournalInterface interface {
	OrderCreated(ctx context.Context, o domain.Order) error
	OrderProgressed(ctx context.Context, o domain.Order) error
	OrderRemoved(ctx context.Context, id string) error
	PickFinished(ctx context.Context, r domain.PickResult) error
}

type NopJournal struct{}

func (NopJournal) OrderCreated(context.Context, domain.Order) error      { return nil }
func (NopJournal) OrderProgressed(context.Context, domain.Order) error   { return nil }
func (NopJournal) OrderRemoved(context.Context, string) error            { return nil }
func (NopJournal) PickFinished(context.Context, domain.PickResult) error { return nil }

// execer is the part of *pgxpool.Pool the journal needs.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type PGJournal struct {
	db execer
}

func NewPGJournal(db execer) *PGJournal { return &PGJournal{db: db} }

const journalSchema = `
CREATE TABLE IF NOT EXISTS orders_journal (
	order_id   TEXT PRIMARY KEY,
	requested  JSONB NOT NULL,
	completed  JSONB NOT NULL,
	status     TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	removed_at TIMESTAMPTZ
);
CREATE TABLE IF NOT EXISTS pick_log (
	id          BIGSERIAL PRIMARY KEY,
	order_id    TEXT,
	color       TEXT NOT NULL,
	success     BOOLEAN NOT NULL,
	mode        TEXT,
	error       TEXT,
	finished_at TIMESTAMPTZ NOT NULL
);`

func (j *PGJournal) EnsureSchema(ctx context.Context) error {
	if _, err := j.db.Exec(ctx, journalSchema); err != nil {
		return fmt.Errorf("failed to create journal schema: %w", err)
	}
	return nil
}

func (j *PGJournal) OrderCreated(ctx context.Context, o domain.Order) error {
	req, done, err := countsJSON(o)
	if err != nil {
		return err
	}
	_, err = j.db.Exec(ctx, `
INSERT INTO orders_journal (order_id, requested, completed, status, created_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (order_id) DO NOTHING
`, o.ID, req, done, string(o.Status), o.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to journal order %s: %w", o.ID, err)
	}
	return nil
}

func (j *PGJournal) OrderProgressed(ctx context.Context, o domain.Order) error {
	_, done, err := countsJSON(o)
	if err != nil {
		return err
	}
	_, err = j.db.Exec(ctx, `
UPDATE orders_journal SET completed = $2, status = $3, updated_at = now()
WHERE order_id = $1
`, o.ID, done, string(o.Status))
	if err != nil {
		return fmt.Errorf("failed to journal progress for %s: %w", o.ID, err)
	}
	return nil
}

func (j *PGJournal) OrderRemoved(ctx context.Context, id string) error {
	_, err := j.db.Exec(ctx, `UPDATE orders_journal SET removed_at = now(), updated_at = now() WHERE order_id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to journal removal of %s: %w", id, err)
	}
	return nil
}

func (j *PGJournal) PickFinished(ctx context.Context, r domain.PickResult) error {
	_, err := j.db.Exec(ctx, `
INSERT INTO pick_log (order_id, color, success, mode, error, finished_at)
VALUES ($1, $2, $3, $4, $5, $6)
`, nullIfEmpty(r.OrderID), string(r.Color), r.Success, nullIfEmpty(r.Mode), nullIfEmpty(r.Error), r.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to journal pick: %w", err)
	}
	return nil
}

func countsJSON(o domain.Order) (string, string, error) {
	req, err := json.Marshal(o.Requested)
	if err != nil {
		return "", "", fmt.Errorf("marshal requested counts: %w", err)
	}
	done, err := json.Marshal(o.Completed)
	if err != nil {
		return "", "", fmt.Errorf("marshal completed counts: %w", err)
	}
	return string(req), string(done), nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
