package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ljungman/calendard/internal/domain"
)

// PostgresStore persists events in a single table, ordered by insertion.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pgx ping: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Migrate creates the events table when it does not exist yet.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS events (
    position          BIGSERIAL,
    id                TEXT PRIMARY KEY,
    title             TEXT NOT NULL,
    date              TEXT NOT NULL,
    start_time        TEXT NOT NULL,
    end_time          TEXT NOT NULL,
    description       TEXT NOT NULL DEFAULT '',
    location          TEXT NOT NULL DEFAULT '',
    category          TEXT NOT NULL DEFAULT '',
    repeat_type       TEXT NOT NULL DEFAULT 'none',
    repeat_interval   INT  NOT NULL DEFAULT 0,
    repeat_end_date   TEXT NOT NULL DEFAULT '',
    notification_time INT  NOT NULL DEFAULT 0,
    series_id         TEXT NOT NULL DEFAULT ''
)
`)
	if err != nil {
		return fmt.Errorf("migrate events: %w", err)
	}
	return nil
}

const eventColumns = `id, title, date, start_time, end_time, description, location, category,
repeat_type, repeat_interval, repeat_end_date, notification_time, series_id`

func (s *PostgresStore) List(ctx context.Context) ([]domain.Event, error) {
	rows, err := s.pool.Query(ctx, `
SELECT `+eventColumns+`
FROM events
ORDER BY position
`)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var out []domain.Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Create(ctx context.Context, ev domain.Event) (domain.Event, error) {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	_, err := s.pool.Exec(ctx, `
INSERT INTO events (`+eventColumns+`)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
`, ev.ID, ev.Title, ev.Date, ev.StartTime, ev.EndTime, ev.Description, ev.Location,
		string(ev.Category), string(ev.Repeat.Type), ev.Repeat.Interval, ev.Repeat.EndDate,
		ev.NotificationTime, ev.SeriesID)
	if err != nil {
		return domain.Event{}, fmt.Errorf("create event: %w", err)
	}
	return ev, nil
}

func (s *PostgresStore) Update(ctx context.Context, id string, ev domain.Event) (domain.Event, error) {
	tag, err := s.pool.Exec(ctx, `
UPDATE events
SET title = $2, date = $3, start_time = $4, end_time = $5, description = $6,
    location = $7, category = $8, repeat_type = $9, repeat_interval = $10,
    repeat_end_date = $11, notification_time = $12, series_id = $13
WHERE id = $1
`, id, ev.Title, ev.Date, ev.StartTime, ev.EndTime, ev.Description, ev.Location,
		string(ev.Category), string(ev.Repeat.Type), ev.Repeat.Interval, ev.Repeat.EndDate,
		ev.NotificationTime, ev.SeriesID)
	if err != nil {
		return domain.Event{}, fmt.Errorf("update event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.Event{}, ErrNotFound
	}
	ev.ID = id
	return ev, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `
DELETE FROM events
WHERE id = $1
`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanEvent(rows pgx.Rows) (domain.Event, error) {
	var (
		ev                   domain.Event
		category, repeatType string
	)
	err := rows.Scan(
		&ev.ID, &ev.Title, &ev.Date, &ev.StartTime, &ev.EndTime,
		&ev.Description, &ev.Location, &category,
		&repeatType, &ev.Repeat.Interval, &ev.Repeat.EndDate,
		&ev.NotificationTime, &ev.SeriesID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Event{}, ErrNotFound
		}
		return domain.Event{}, fmt.Errorf("scan event: %w", err)
	}
	ev.Category = domain.Category(category)
	ev.Repeat.Type = domain.RepeatType(repeatType)
	return ev, nil
}
