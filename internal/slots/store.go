package slots

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/chirostrong/booking-bot/internal/schedule"
)

type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PgxPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store owns the canonical slot set in Postgres.
type Store struct {
	pool PgxPool
}

func NewStore(pool PgxPool) *Store {
	if pool == nil {
		return nil
	}
	return &Store{pool: pool}
}

const slotColumns = `
	id, slot_date, to_char(start_time, 'HH24:MI'),
	CASE WHEN COALESCE(booking_name, '') <> '' THEN 'booked' ELSE status END,
	COALESCE(booking_name, ''), COALESCE(phone, ''), COALESCE(email, ''), reminder_sent
`

// Materialize ensures a free slot row exists for every (date, time) pair in
// the window. Existing rows and their bookings are never touched; safe to
// call repeatedly and concurrently.
func (s *Store) Materialize(ctx context.Context, w schedule.Window) error {
	var dates []time.Time
	var times []string
	for _, d := range w.Days() {
		for _, t := range schedule.TimesFor(d) {
			dates = append(dates, d)
			times = append(times, t)
		}
	}
	query := `
		INSERT INTO slots (slot_date, start_time)
		SELECT d, t::time
		FROM unnest($1::date[], $2::text[]) AS pairs(d, t)
		ON CONFLICT (slot_date, start_time) DO NOTHING
	`
	if _, err := s.pool.Exec(ctx, query, dates, times); err != nil {
		return fmt.Errorf("slots: materialize window: %w", err)
	}
	return nil
}

// List returns slots from today onward inside the window, ordered by date
// and time, with status derived from contact presence.
func (s *Store) List(ctx context.Context, w schedule.Window, today time.Time) ([]Slot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM slots
		WHERE slot_date >= $1 AND slot_date BETWEEN $2 AND $3
		ORDER BY slot_date, start_time
	`
	rows, err := s.pool.Query(ctx, query, today, w.Start, w.End)
	if err != nil {
		return nil, fmt.Errorf("slots: list window: %w", err)
	}
	defer rows.Close()
	return scanSlots(rows)
}

// Get returns one slot by id.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (*Slot, error) {
	query := `SELECT ` + slotColumns + ` FROM slots WHERE id = $1`
	slot, err := scanSlot(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("slots: get slot: %w", err)
	}
	return slot, nil
}

// SetStatus performs a status-only write. Used where contact data is not
// involved, e.g. an admin blocking out a slot.
func (s *Store) SetStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE slots SET status = $2, updated_at = now() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("slots: set status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// BookIfFree atomically transitions a slot from free to booked and attaches
// contact data. The precondition and effect are one conditional UPDATE; two
// concurrent attempts on the same slot can never both succeed.
func (s *Store) BookIfFree(ctx context.Context, id uuid.UUID, c Contact) error {
	return s.bookIfFree(ctx, s.pool, id, c)
}

func (s *Store) bookIfFree(ctx context.Context, q Querier, id uuid.UUID, c Contact) error {
	query := `
		UPDATE slots
		SET booking_name = $2, phone = $3, email = $4,
			status = 'booked', reminder_sent = FALSE, updated_at = now()
		WHERE id = $1 AND status = 'free'
	`
	tag, err := q.Exec(ctx, query, id, c.Name, c.Phone, c.Email)
	if err != nil {
		return fmt.Errorf("slots: book slot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Zero rows means either an unknown id or a lost race; tell them apart
		// so callers can offer "pick another slot" instead of "retry".
		if _, err := s.Get(ctx, id); errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return ErrSlotTaken
	}
	return nil
}

// UpdateContact overwrites contact fields on a currently booked slot.
func (s *Store) UpdateContact(ctx context.Context, id uuid.UUID, c Contact) error {
	query := `
		UPDATE slots
		SET booking_name = $2, phone = $3, email = $4, updated_at = now()
		WHERE id = $1 AND status = 'booked'
	`
	tag, err := s.pool.Exec(ctx, query, id, c.Name, c.Phone, c.Email)
	if err != nil {
		return fmt.Errorf("slots: update contact: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := s.Get(ctx, id); errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return ErrNotBooked
	}
	return nil
}

// Cancel clears contact fields and forces the slot back to free. Cancelling
// an already-free slot is a harmless no-op success.
func (s *Store) Cancel(ctx context.Context, id uuid.UUID) error {
	return s.cancel(ctx, s.pool, id)
}

func (s *Store) cancel(ctx context.Context, q Querier, id uuid.UUID) error {
	query := `
		UPDATE slots
		SET status = 'free', booking_name = NULL, phone = NULL, email = NULL,
			reminder_sent = FALSE, updated_at = now()
		WHERE id = $1
	`
	tag, err := q.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("slots: cancel booking: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Move rebooks a booking onto a different slot. The target is booked first;
// the source is released only after that succeeds, so a conflict leaves the
// original booking completely untouched. Contact fields always come from the
// move's own input.
func (s *Store) Move(ctx context.Context, oldID, newID uuid.UUID, c Contact) error {
	if oldID == newID {
		return s.UpdateContact(ctx, oldID, c)
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("slots: begin move: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := s.bookIfFree(ctx, tx, newID, c); err != nil {
		return err
	}
	if err := s.cancel(ctx, tx, oldID); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("slots: commit move: %w", err)
	}
	return nil
}

// ListBooked returns all currently booked slots ordered by date and time.
func (s *Store) ListBooked(ctx context.Context) ([]Slot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM slots
		WHERE status = 'booked' OR COALESCE(booking_name, '') <> ''
		ORDER BY slot_date, start_time
	`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("slots: list booked: %w", err)
	}
	defer rows.Close()
	return scanSlots(rows)
}

// ListNeedingReminder returns bookings whose start falls within leadTime of
// now, with an email on file and no reminder sent yet.
func (s *Store) ListNeedingReminder(ctx context.Context, now time.Time, leadTime time.Duration) ([]Slot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM slots
		WHERE COALESCE(email, '') <> ''
			AND reminder_sent = FALSE
			AND slot_date + start_time BETWEEN $1 AND $2
		ORDER BY slot_date, start_time
	`
	rows, err := s.pool.Query(ctx, query, now, now.Add(leadTime))
	if err != nil {
		return nil, fmt.Errorf("slots: list needing reminder: %w", err)
	}
	defer rows.Close()
	return scanSlots(rows)
}

// MarkReminderSent sets the reminder flag. Idempotent.
func (s *Store) MarkReminderSent(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE slots SET reminder_sent = TRUE, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("slots: mark reminder sent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanSlot(row pgx.Row) (*Slot, error) {
	var s Slot
	if err := row.Scan(&s.ID, &s.Date, &s.Time, &s.Status, &s.Name, &s.Phone, &s.Email, &s.ReminderSent); err != nil {
		return nil, err
	}
	s.Date = s.Date.UTC().Truncate(24 * time.Hour)
	return &s, nil
}

func scanSlots(rows pgx.Rows) ([]Slot, error) {
	var out []Slot
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("slots: scan row: %w", err)
		}
		out = append(out, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("slots: iterate rows: %w", err)
	}
	return out, nil
}
