package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ResponseRecord represents a response row joined with its post and both authors
type ResponseRecord struct {
	ID               int64
	PostID           int64
	AuthorID         int64
	AuthorUserID     int64
	AuthorUsername   string
	PostTitle        string
	PostAuthorUserID int64
	PostAuthorName   string
	Text             string
	Accepted         bool
	CreatedAt        time.Time
}

// ResponseFilter narrows response listings. Zero values match everything.
type ResponseFilter struct {
	// PostAuthorUserID keeps responses to posts written by this user
	PostAuthorUserID int64
	// AuthorUserID keeps responses written by this user
	AuthorUserID int64
	PostID       int64
	Accepted     *bool
	Text         string
	PostTitle    string
}

const responseSelect = `
	SELECT r.id, r.post_id, r.author_id, ra.user_id, ru.username,
	       p.title, pa.user_id, pu.username, r.text, r.accepted, r.created_at
	FROM responses r
	JOIN authors ra ON ra.id = r.author_id
	JOIN users ru ON ru.id = ra.user_id
	JOIN posts p ON p.id = r.post_id
	JOIN authors pa ON pa.id = p.author_id
	JOIN users pu ON pu.id = pa.user_id
`

// CreateResponse inserts a response and fills in its ID
func (s *Store) CreateResponse(ctx context.Context, resp *ResponseRecord) error {
	if resp.CreatedAt.IsZero() {
		resp.CreatedAt = s.now()
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO responses (post_id, author_id, text, accepted, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, resp.PostID, resp.AuthorID, resp.Text, resp.Accepted, resp.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert response: %w", err)
	}
	resp.ID, err = res.LastInsertId()
	return err
}

// GetResponse retrieves a response by ID
func (s *Store) GetResponse(ctx context.Context, id int64) (*ResponseRecord, error) {
	row := s.db.QueryRowContext(ctx, responseSelect+` WHERE r.id = ?`, id)
	r, err := scanResponse(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("response %d: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return r, nil
}

// UpdateResponseText replaces the text of a response
func (s *Store) UpdateResponseText(ctx context.Context, id int64, text string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE responses SET text = ? WHERE id = ?`, text, id)
	if err != nil {
		return fmt.Errorf("update response: %w", err)
	}
	return checkAffected(res, "response", id)
}

// DeleteResponse removes a response
func (s *Store) DeleteResponse(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM responses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete response: %w", err)
	}
	return checkAffected(res, "response", id)
}

// MarkAccepted sets the accepted flag if it is not set yet. It reports
// whether this call performed the transition.
func (s *Store) MarkAccepted(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE responses SET accepted = 1 WHERE id = ? AND accepted = 0`, id)
	if err != nil {
		return false, fmt.Errorf("accept response: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// ListResponses returns responses newest first
func (s *Store) ListResponses(ctx context.Context, filter ResponseFilter, limit, offset int) ([]*ResponseRecord, error) {
	where, args := filter.clause()
	query := responseSelect + where + ` ORDER BY r.created_at DESC, r.id DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	defer rows.Close()

	responses := make([]*ResponseRecord, 0)
	for rows.Next() {
		r, err := scanResponse(rows)
		if err != nil {
			return nil, err
		}
		responses = append(responses, r)
	}
	return responses, rows.Err()
}

// CountResponses returns how many responses match the filter
func (s *Store) CountResponses(ctx context.Context, filter ResponseFilter) (int, error) {
	where, args := filter.clause()
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM responses r
		JOIN authors ra ON ra.id = r.author_id
		JOIN posts p ON p.id = r.post_id
		JOIN authors pa ON pa.id = p.author_id
	`+where, args...).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count responses: %w", err)
	}
	return n, nil
}

func (f ResponseFilter) clause() (string, []any) {
	var conds []string
	var args []any
	if f.PostAuthorUserID != 0 {
		conds = append(conds, "pa.user_id = ?")
		args = append(args, f.PostAuthorUserID)
	}
	if f.AuthorUserID != 0 {
		conds = append(conds, "ra.user_id = ?")
		args = append(args, f.AuthorUserID)
	}
	if f.PostID != 0 {
		conds = append(conds, "r.post_id = ?")
		args = append(args, f.PostID)
	}
	if f.Accepted != nil {
		conds = append(conds, "r.accepted = ?")
		args = append(args, *f.Accepted)
	}
	if f.Text != "" {
		conds = append(conds, `r.text LIKE ? ESCAPE '\'`)
		args = append(args, likePattern(f.Text))
	}
	if f.PostTitle != "" {
		conds = append(conds, `p.title LIKE ? ESCAPE '\'`)
		args = append(args, likePattern(f.PostTitle))
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanResponse(row rowScanner) (*ResponseRecord, error) {
	var r ResponseRecord
	err := row.Scan(&r.ID, &r.PostID, &r.AuthorID, &r.AuthorUserID, &r.AuthorUsername,
		&r.PostTitle, &r.PostAuthorUserID, &r.PostAuthorName, &r.Text, &r.Accepted, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}
