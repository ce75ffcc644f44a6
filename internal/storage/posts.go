package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// PostRecord represents a post row joined with its author's names
type PostRecord struct {
	ID                int64
	AuthorID          int64
	AuthorUserID      int64
	AuthorUsername    string
	AuthorDisplayName string
	Category          string
	Title             string
	Content           string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// PostFilter narrows post listings. Zero values match everything.
type PostFilter struct {
	Category     string
	AuthorUserID int64
}

const postSelect = `
	SELECT p.id, p.author_id, a.user_id, u.username, a.display_name, p.category, p.title, p.content, p.created_at, p.updated_at
	FROM posts p
	JOIN authors a ON a.id = p.author_id
	JOIN users u ON u.id = a.user_id
`

// CreatePost inserts a post and fills in its ID and timestamps
func (s *Store) CreatePost(ctx context.Context, post *PostRecord) error {
	now := s.now()
	if post.CreatedAt.IsZero() {
		post.CreatedAt = now
	}
	post.UpdatedAt = post.CreatedAt

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO posts (author_id, category, title, content, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, post.AuthorID, post.Category, post.Title, post.Content, post.CreatedAt, post.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert post: %w", err)
	}
	post.ID, err = res.LastInsertId()
	return err
}

// GetPost retrieves a post by ID
func (s *Store) GetPost(ctx context.Context, id int64) (*PostRecord, error) {
	row := s.db.QueryRowContext(ctx, postSelect+` WHERE p.id = ?`, id)

	var p PostRecord
	err := row.Scan(&p.ID, &p.AuthorID, &p.AuthorUserID, &p.AuthorUsername, &p.AuthorDisplayName, &p.Category, &p.Title, &p.Content, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("post %d: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return &p, nil
}

// UpdatePost replaces the editable fields of a post and bumps updated_at
func (s *Store) UpdatePost(ctx context.Context, post *PostRecord) error {
	post.UpdatedAt = s.now()
	res, err := s.db.ExecContext(ctx, `
		UPDATE posts SET category = ?, title = ?, content = ?, updated_at = ? WHERE id = ?
	`, post.Category, post.Title, post.Content, post.UpdatedAt, post.ID)
	if err != nil {
		return fmt.Errorf("update post: %w", err)
	}
	return checkAffected(res, "post", post.ID)
}

// DeletePost removes a post; its responses go with it
func (s *Store) DeletePost(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	return checkAffected(res, "post", id)
}

// ListPosts returns posts newest first
func (s *Store) ListPosts(ctx context.Context, filter PostFilter, limit, offset int) ([]*PostRecord, error) {
	where, args := filter.clause()
	query := postSelect + where + ` ORDER BY p.created_at DESC, p.id DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	posts := make([]*PostRecord, 0)
	for rows.Next() {
		var p PostRecord
		if err := rows.Scan(&p.ID, &p.AuthorID, &p.AuthorUserID, &p.AuthorUsername, &p.AuthorDisplayName, &p.Category, &p.Title, &p.Content, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		posts = append(posts, &p)
	}
	return posts, rows.Err()
}

// CountPosts returns how many posts match the filter
func (s *Store) CountPosts(ctx context.Context, filter PostFilter) (int, error) {
	where, args := filter.clause()
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM posts p JOIN authors a ON a.id = p.author_id
	`+where, args...).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count posts: %w", err)
	}
	return n, nil
}

func (f PostFilter) clause() (string, []any) {
	var conds []string
	var args []any
	if f.Category != "" {
		conds = append(conds, "p.category = ?")
		args = append(args, f.Category)
	}
	if f.AuthorUserID != 0 {
		conds = append(conds, "a.user_id = ?")
		args = append(args, f.AuthorUserID)
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
