package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pkordes/trip-planner/internal/domain"
)

// db is the minimal interface satisfied by *pgxpool.Pool, pgx.Conn, and pgx.Tx.
// Accepting this interface instead of *pgxpool.Pool directly allows integration
// tests to pass a transaction that is rolled back after each test, giving free
// per-test isolation without any manual cleanup.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// pgTripStore is the Postgres implementation of TripStore.
// The full snapshot lives in the doc jsonb column; owner_id and allowed_users
// are copied out of it on every write so membership can be queried and indexed.
type pgTripStore struct {
	db db
}

// NewPGTripStore constructs a TripStore backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewPGTripStore(db db) TripStore {
	return &pgTripStore{db: db}
}

// Get loads the snapshot stored for id.
func (r *pgTripStore) Get(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	const q = `SELECT doc FROM trips WHERE id = @id`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id})
	result, err := scanTrip(row)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripStore.Get: %w", err)
	}
	return result, nil
}

// Put upserts the whole snapshot. No version check is made.
func (r *pgTripStore) Put(ctx context.Context, trip domain.Trip) error {
	const q = `
		INSERT INTO trips (id, owner_id, allowed_users, doc, updated_at)
		VALUES (@id, @owner_id, @allowed_users, @doc, @updated_at)
		ON CONFLICT (id) DO UPDATE
		SET owner_id      = EXCLUDED.owner_id,
		    allowed_users = EXCLUDED.allowed_users,
		    doc           = EXCLUDED.doc,
		    updated_at    = EXCLUDED.updated_at`

	trip.Normalize()
	args := pgx.NamedArgs{
		"id":            trip.ID,
		"owner_id":      trip.OwnerID,
		"allowed_users": trip.AllowedUsers,
		"doc":           trip, // encoded by pgx's jsonb codec
		"updated_at":    trip.UpdatedAt,
	}

	if _, err := r.db.Exec(ctx, q, args); err != nil {
		return fmt.Errorf("repo.TripStore.Put: %w", err)
	}
	return nil
}

// Delete removes a trip by primary key.
func (r *pgTripStore) Delete(ctx context.Context, id uuid.UUID) error {
	const q = `DELETE FROM trips WHERE id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id})
	if err != nil {
		return fmt.Errorf("repo.TripStore.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.TripStore.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

// ListForUser returns the trips uid may access, most recently updated first.
func (r *pgTripStore) ListForUser(ctx context.Context, uid string) ([]domain.Trip, error) {
	const q = `
		SELECT doc
		FROM trips
		WHERE @uid = ANY(allowed_users)
		ORDER BY updated_at DESC, id`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"uid": uid})
	if err != nil {
		return nil, fmt.Errorf("repo.TripStore.ListForUser: %w", err)
	}
	defer rows.Close()

	trips := []domain.Trip{}
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.TripStore.ListForUser: scan: %w", err)
		}
		trips = append(trips, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.TripStore.ListForUser: rows: %w", err)
	}

	return trips, nil
}

// scanner is satisfied by both pgx.Row and pgx.Rows, allowing scanTrip to be
// reused for both QueryRow and Query calls.
type scanner interface {
	Scan(dest ...any) error
}

// scanTrip decodes the doc column into a domain.Trip.
func scanTrip(s scanner) (domain.Trip, error) {
	var t domain.Trip
	if err := s.Scan(&t); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Trip{}, domain.ErrNotFound
		}
		return domain.Trip{}, err
	}
	t.Normalize()
	return t, nil
}
