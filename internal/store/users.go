package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/carshowcase/showcase/internal/model"
)

// NormalizeEmail returns the canonical form used for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateUser inserts a new user. The caller must have set PasswordHash. ID,
// CreatedAt and UpdatedAt are populated on success. A taken email yields
// ErrDuplicate.
func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("generate user id: %w", err)
	}
	now := time.Now().UTC()
	u.ID = id.String()
	u.Email = NormalizeEmail(u.Email)
	u.CreatedAt = now
	u.UpdatedAt = now

	const q = `INSERT INTO users
		(id, email, password_hash, first_name, last_name, is_admin, created_at, updated_at)
		VALUES
		(:id, :email, :password_hash, :first_name, :last_name, :is_admin, :created_at, :updated_at)`

	if _, err := s.db.NamedExecContext(ctx, q, u); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetUser returns a user by ID.
func (s *Store) GetUser(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	if err := s.db.GetContext(ctx, &u, s.q("SELECT * FROM users WHERE id = ?"), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// GetUserByEmail returns a user by email address, compared case-insensitively.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	err := s.db.GetContext(ctx, &u, s.q("SELECT * FROM users WHERE email = ?"), NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return &u, nil
}

// ListUsers returns all users ordered by email.
func (s *Store) ListUsers(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := s.db.SelectContext(ctx, &users, "SELECT * FROM users ORDER BY email"); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// CountAdmins returns the number of admin accounts.
func (s *Store) CountAdmins(ctx context.Context) (int, error) {
	var count int
	if err := s.db.GetContext(ctx, &count, s.q("SELECT COUNT(*) FROM users WHERE is_admin = ?"), true); err != nil {
		return 0, fmt.Errorf("count admins: %w", err)
	}
	return count, nil
}

// UpdateUser writes every mutable column of u. UpdatedAt is refreshed.
func (s *Store) UpdateUser(ctx context.Context, u *model.User) error {
	u.Email = NormalizeEmail(u.Email)
	u.UpdatedAt = time.Now().UTC()

	const q = `UPDATE users SET
		email = :email,
		password_hash = :password_hash,
		first_name = :first_name,
		last_name = :last_name,
		is_admin = :is_admin,
		updated_at = :updated_at
		WHERE id = :id`

	result, err := s.db.NamedExecContext(ctx, q, u)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("update user: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update user rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteUser removes a user together with their vehicles and file records
// in one transaction. The removed file records are returned so the caller
// can delete the blobs behind them.
func (s *Store) DeleteUser(ctx context.Context, id string) ([]model.File, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("delete user: begin: %w", err)
	}
	defer tx.Rollback()

	files := []model.File{}
	if err := tx.SelectContext(ctx, &files, s.q("SELECT * FROM files WHERE owner_id = ?"), id); err != nil {
		return nil, fmt.Errorf("delete user: list files: %w", err)
	}
	if _, err := tx.ExecContext(ctx, s.q("DELETE FROM files WHERE owner_id = ?"), id); err != nil {
		return nil, fmt.Errorf("delete user: files: %w", err)
	}
	if _, err := tx.ExecContext(ctx, s.q("DELETE FROM vehicles WHERE owner_id = ?"), id); err != nil {
		return nil, fmt.Errorf("delete user: vehicles: %w", err)
	}

	result, err := tx.ExecContext(ctx, s.q("DELETE FROM users WHERE id = ?"), id)
	if err != nil {
		return nil, fmt.Errorf("delete user: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("delete user rows affected: %w", err)
	}
	if n == 0 {
		return nil, ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("delete user: commit: %w", err)
	}
	return files, nil
}
