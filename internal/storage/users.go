package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// UserRecord represents an account
type UserRecord struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	Permissions  []string
	IsActive     bool
	DateJoined   time.Time
}

// AuthorRecord is the publishing profile attached to a user
type AuthorRecord struct {
	ID          int64
	UserID      int64
	DisplayName string
	CreatedAt   time.Time
}

const userColumns = `id, username, email, password_hash, permissions, is_active, date_joined`

// CreateUser inserts a user and fills in its ID
func (s *Store) CreateUser(ctx context.Context, user *UserRecord) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return insertUser(ctx, tx, user, s.now())
	})
}

// CreateUserWithAuthor inserts a user and its author profile atomically
func (s *Store) CreateUserWithAuthor(ctx context.Context, user *UserRecord, author *AuthorRecord) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		now := s.now()
		if err := insertUser(ctx, tx, user, now); err != nil {
			return err
		}
		author.UserID = user.ID
		return insertAuthor(ctx, tx, author, now)
	})
}

// CreateAuthor attaches an author profile to an existing user
func (s *Store) CreateAuthor(ctx context.Context, author *AuthorRecord) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return insertAuthor(ctx, tx, author, s.now())
	})
}

// GetUser retrieves a user by ID
func (s *Store) GetUser(ctx context.Context, id int64) (*UserRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	user, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("user %d: %w", id, err)
	}
	return user, nil
}

// GetUserByUsername retrieves a user by username
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*UserRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
	user, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("user %q: %w", username, err)
	}
	return user, nil
}

// SetPermissions replaces a user's permission set
func (s *Store) SetPermissions(ctx context.Context, userID int64, perms []string) error {
	permsJSON, err := json.Marshal(nonNil(perms))
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE users SET permissions = ? WHERE id = ?`, string(permsJSON), userID)
	if err != nil {
		return fmt.Errorf("update permissions: %w", err)
	}
	return checkAffected(res, "user", userID)
}

// SetActive enables or disables login for a user
func (s *Store) SetActive(ctx context.Context, userID int64, active bool) error {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET is_active = ? WHERE id = ?`, active, userID)
	if err != nil {
		return fmt.Errorf("update active flag: %w", err)
	}
	return checkAffected(res, "user", userID)
}

// GetAuthorByUser returns the author profile of a user
func (s *Store) GetAuthorByUser(ctx context.Context, userID int64) (*AuthorRecord, error) {
	var a AuthorRecord
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, display_name, created_at FROM authors WHERE user_id = ?
	`, userID).Scan(&a.ID, &a.UserID, &a.DisplayName, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("author for user %d: %w", userID, ErrNotFound)
		}
		return nil, err
	}
	return &a, nil
}

func insertUser(ctx context.Context, tx *sql.Tx, user *UserRecord, now time.Time) error {
	permsJSON, err := json.Marshal(nonNil(user.Permissions))
	if err != nil {
		return err
	}
	if user.DateJoined.IsZero() {
		user.DateJoined = now
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO users (username, email, password_hash, permissions, is_active, date_joined)
		VALUES (?, ?, ?, ?, ?, ?)
	`, user.Username, user.Email, user.PasswordHash, string(permsJSON), user.IsActive, user.DateJoined)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("user %q: %w", user.Username, ErrDuplicate)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	user.ID, err = res.LastInsertId()
	return err
}

func insertAuthor(ctx context.Context, tx *sql.Tx, author *AuthorRecord, now time.Time) error {
	if author.CreatedAt.IsZero() {
		author.CreatedAt = now
	}
	res, err := tx.ExecContext(ctx, `
		INSERT INTO authors (user_id, display_name, created_at) VALUES (?, ?, ?)
	`, author.UserID, author.DisplayName, author.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("author for user %d: %w", author.UserID, ErrDuplicate)
		}
		return fmt.Errorf("insert author: %w", err)
	}
	author.ID, err = res.LastInsertId()
	return err
}

func scanUser(row *sql.Row) (*UserRecord, error) {
	var u UserRecord
	var permsJSON string
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &permsJSON, &u.IsActive, &u.DateJoined)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal([]byte(permsJSON), &u.Permissions); err != nil {
		return nil, fmt.Errorf("decode permissions: %w", err)
	}
	return &u, nil
}

func (s *Store) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
