package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pkordes/trip-planner/internal/domain"
)

// uniqueViolation is the Postgres SQLSTATE for a unique constraint failure.
const uniqueViolation = "23505"

// pgUserStore is the Postgres implementation of UserStore.
type pgUserStore struct {
	db db
}

// NewPGUserStore constructs a UserStore backed by the provided db connection.
func NewPGUserStore(db db) UserStore {
	return &pgUserStore{db: db}
}

// Create inserts a new account and returns the persisted record.
func (r *pgUserStore) Create(ctx context.Context, user domain.User) (domain.User, error) {
	const q = `
		INSERT INTO users (uid, email, password_hash, display_name, created_at)
		VALUES (@uid, @email, @password_hash, @display_name, @created_at)
		RETURNING uid, email, password_hash, display_name, created_at`

	args := pgx.NamedArgs{
		"uid":           user.UID,
		"email":         normalizeEmail(user.Email),
		"password_hash": user.PasswordHash,
		"display_name":  user.DisplayName,
		"created_at":    user.CreatedAt,
	}

	result, err := scanUser(r.db.QueryRow(ctx, q, args))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.User{}, fmt.Errorf("repo.UserStore.Create: %w: email already registered", domain.ErrConflict)
		}
		return domain.User{}, fmt.Errorf("repo.UserStore.Create: %w", err)
	}
	return result, nil
}

// GetByID retrieves an account by uid.
func (r *pgUserStore) GetByID(ctx context.Context, uid string) (domain.User, error) {
	const q = `
		SELECT uid, email, password_hash, display_name, created_at
		FROM users
		WHERE uid = @uid`

	result, err := scanUser(r.db.QueryRow(ctx, q, pgx.NamedArgs{"uid": uid}))
	if err != nil {
		return domain.User{}, fmt.Errorf("repo.UserStore.GetByID: %w", err)
	}
	return result, nil
}

// FindByEmail retrieves an account by its normalized email.
func (r *pgUserStore) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	const q = `
		SELECT uid, email, password_hash, display_name, created_at
		FROM users
		WHERE email = @email`

	result, err := scanUser(r.db.QueryRow(ctx, q, pgx.NamedArgs{"email": normalizeEmail(email)}))
	if err != nil {
		return domain.User{}, fmt.Errorf("repo.UserStore.FindByEmail: %w", err)
	}
	return result, nil
}

func scanUser(s scanner) (domain.User, error) {
	var u domain.User
	err := s.Scan(&u.UID, &u.Email, &u.PasswordHash, &u.DisplayName, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, domain.ErrNotFound
		}
		return domain.User{}, err
	}
	return u, nil
}
