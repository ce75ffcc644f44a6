// Package core implements the board: posts, responses and the rules for who
// may change them.
package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/Sergeybob123/callboard/internal/storage"
)

// Field limits
const (
	MaxTitleLength    = 128
	MaxContentBytes   = 1 << 20
	MaxResponseLength = 10000
)

// Board orchestrates post and response operations
type Board struct {
	store     Storage
	notifier  Notifier
	previewer Previewer
	logger    *zap.Logger
	pageSize  int
	now       func() time.Time
}

// BoardDeps holds dependencies for constructing a Board.
type BoardDeps struct {
	Store     Storage
	Notifier  Notifier
	Previewer Previewer
	Logger    *zap.Logger
	PageSize  int
}

// NewBoard creates a board. A nil Notifier drops events, a nil Previewer
// leaves previews empty and a nil Logger discards logs.
func NewBoard(deps BoardDeps) *Board {
	b := &Board{
		store:     deps.Store,
		notifier:  deps.Notifier,
		previewer: deps.Previewer,
		logger:    deps.Logger,
		pageSize:  deps.PageSize,
		now:       func() time.Time { return time.Now().UTC() },
	}
	if b.logger == nil {
		b.logger = zap.NewNop()
	}
	if b.pageSize < 1 {
		b.pageSize = 5
	}
	return b
}

// PageSize returns the number of items per list page
func (b *Board) PageSize() int {
	return b.pageSize
}

// Home returns the landing page: categories and the newest posts
func (b *Board) Home(ctx context.Context) (*Home, error) {
	total, err := b.store.CountPosts(ctx, storage.PostFilter{})
	if err != nil {
		return nil, err
	}
	records, err := b.store.ListPosts(ctx, storage.PostFilter{}, b.pageSize, 0)
	if err != nil {
		return nil, err
	}
	return &Home{
		Categories: Categories,
		TotalPosts: total,
		Latest:     b.postSummaries(records),
	}, nil
}

// ListPosts returns one page of posts, newest first
func (b *Board) ListPosts(ctx context.Context, page, category string) (*PostPage, error) {
	if category != "" && !ValidCategory(category) {
		v := &ValidationError{}
		v.add("category", fmt.Sprintf("unknown category %q", category))
		return nil, v
	}
	filter := storage.PostFilter{Category: category}

	total, err := b.store.CountPosts(ctx, filter)
	if err != nil {
		return nil, err
	}
	p, err := Paginate(page, total, b.pageSize)
	if err != nil {
		return nil, err
	}
	records, err := b.store.ListPosts(ctx, filter, p.PageSize, p.Offset())
	if err != nil {
		return nil, err
	}
	return &PostPage{Posts: b.postSummaries(records), Page: p}, nil
}

// GetPost returns a post with its full content
func (b *Board) GetPost(ctx context.Context, id int64) (*Post, error) {
	rec, err := b.store.GetPost(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	post := postFromRecord(rec)
	return &post, nil
}

// CreatePost publishes a post as the acting user's author profile
func (b *Board) CreatePost(ctx context.Context, actor *User, form PostForm) (*Post, error) {
	if err := requirePerm(actor, PermAddPost); err != nil {
		return nil, err
	}
	if !actor.IsAuthor() {
		return nil, fmt.Errorf("user %s has no author profile: %w", actor.Username, ErrForbidden)
	}
	form, err := validatePost(form)
	if err != nil {
		return nil, err
	}

	rec := &storage.PostRecord{
		AuthorID: actor.AuthorID,
		Category: form.Category,
		Title:    form.Title,
		Content:  form.Content,
	}
	if err := b.store.CreatePost(ctx, rec); err != nil {
		return nil, err
	}
	b.logger.Info("post created", zap.Int64("post_id", rec.ID), zap.String("author", actor.Username))
	return b.GetPost(ctx, rec.ID)
}

// UpdatePost replaces a post's fields. Only the post's author may do this.
func (b *Board) UpdatePost(ctx context.Context, actor *User, id int64, form PostForm) (*Post, error) {
	rec, err := b.ownedPost(ctx, actor, id, PermChangePost)
	if err != nil {
		return nil, err
	}
	form, err = validatePost(form)
	if err != nil {
		return nil, err
	}

	rec.Category = form.Category
	rec.Title = form.Title
	rec.Content = form.Content
	if err := b.store.UpdatePost(ctx, rec); err != nil {
		return nil, translate(err)
	}
	return b.GetPost(ctx, id)
}

// DeletePost removes a post and its responses. Only the post's author may do this.
func (b *Board) DeletePost(ctx context.Context, actor *User, id int64) error {
	if _, err := b.ownedPost(ctx, actor, id, PermDeletePost); err != nil {
		return err
	}
	if err := b.store.DeletePost(ctx, id); err != nil {
		return translate(err)
	}
	b.logger.Info("post deleted", zap.Int64("post_id", id), zap.String("by", actor.Username))
	return nil
}

// Account returns the profile of a user. The email and permissions are only
// shown to the user themselves.
func (b *Board) Account(ctx context.Context, actor *User, userID int64) (*Account, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	rec, err := b.store.GetUser(ctx, userID)
	if err != nil {
		return nil, translate(err)
	}

	acct := &Account{
		ID:         rec.ID,
		Username:   rec.Username,
		DateJoined: rec.DateJoined,
	}
	if author, err := b.store.GetAuthorByUser(ctx, userID); err == nil {
		acct.IsAuthor = true
		acct.DisplayName = author.DisplayName
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}
	if acct.PostCount, err = b.store.CountPosts(ctx, storage.PostFilter{AuthorUserID: userID}); err != nil {
		return nil, err
	}
	if acct.ResponseCount, err = b.store.CountResponses(ctx, storage.ResponseFilter{AuthorUserID: userID}); err != nil {
		return nil, err
	}
	if actor.ID == userID {
		acct.Email = rec.Email
		acct.Permissions = rec.Permissions
	}
	return acct, nil
}

// CreateResponse submits a response to a post
func (b *Board) CreateResponse(ctx context.Context, actor *User, postID int64, form ResponseForm) (*Response, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	if !actor.IsAuthor() {
		return nil, fmt.Errorf("user %s has no author profile: %w", actor.Username, ErrForbidden)
	}
	if _, err := b.store.GetPost(ctx, postID); err != nil {
		return nil, translate(err)
	}
	text, err := validateResponse(form)
	if err != nil {
		return nil, err
	}

	rec := &storage.ResponseRecord{PostID: postID, AuthorID: actor.AuthorID, Text: text}
	if err := b.store.CreateResponse(ctx, rec); err != nil {
		return nil, err
	}
	resp, err := b.GetResponse(ctx, rec.ID)
	if err != nil {
		return nil, err
	}
	b.notify(ctx, EventResponseCreated, resp)
	return resp, nil
}

// GetResponse returns a single response
func (b *Board) GetResponse(ctx context.Context, id int64) (*Response, error) {
	rec, err := b.store.GetResponse(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	resp := responseFromRecord(rec)
	return &resp, nil
}

// UpdateResponse replaces a response's text. Only its author may do this.
func (b *Board) UpdateResponse(ctx context.Context, actor *User, id int64, form ResponseForm) (*Response, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	rec, err := b.store.GetResponse(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	if rec.AuthorUserID != actor.ID {
		return nil, fmt.Errorf("response %d belongs to %s: %w", id, rec.AuthorUsername, ErrForbidden)
	}
	text, err := validateResponse(form)
	if err != nil {
		return nil, err
	}
	if err := b.store.UpdateResponseText(ctx, id, text); err != nil {
		return nil, translate(err)
	}
	return b.GetResponse(ctx, id)
}

// DeleteResponse removes a response. Its author and the post's author may do this.
func (b *Board) DeleteResponse(ctx context.Context, actor *User, id int64) error {
	if actor == nil {
		return ErrUnauthenticated
	}
	rec, err := b.store.GetResponse(ctx, id)
	if err != nil {
		return translate(err)
	}
	if rec.AuthorUserID != actor.ID && rec.PostAuthorUserID != actor.ID {
		return fmt.Errorf("response %d: %w", id, ErrForbidden)
	}
	if err := b.store.DeleteResponse(ctx, id); err != nil {
		return translate(err)
	}
	b.logger.Info("response deleted", zap.Int64("response_id", id), zap.String("by", actor.Username))
	return nil
}

// AcceptResponse marks a response accepted. Only the post's author may do
// this. Accepting an accepted response changes nothing.
func (b *Board) AcceptResponse(ctx context.Context, actor *User, id int64) (*Response, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	rec, err := b.store.GetResponse(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	if rec.PostAuthorUserID != actor.ID {
		return nil, fmt.Errorf("only the author of post %d may accept responses: %w", rec.PostID, ErrForbidden)
	}

	changed, err := b.store.MarkAccepted(ctx, id)
	if err != nil {
		return nil, err
	}
	resp, err := b.GetResponse(ctx, id)
	if err != nil {
		return nil, err
	}
	if changed {
		b.logger.Info("response accepted", zap.Int64("response_id", id), zap.Int64("post_id", rec.PostID))
		b.notify(ctx, EventResponseAccepted, resp)
	}
	return resp, nil
}

// ListReceivedResponses returns responses to posts the actor wrote
func (b *Board) ListReceivedResponses(ctx context.Context, actor *User, page string, f ReceivedFilter) (*ResponsePage, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	return b.listResponses(ctx, page, storage.ResponseFilter{
		PostAuthorUserID: actor.ID,
		PostID:           f.PostID,
		Accepted:         f.Accepted,
		Text:             strings.TrimSpace(f.Query),
	})
}

// ListSubmittedResponses returns responses the actor wrote
func (b *Board) ListSubmittedResponses(ctx context.Context, actor *User, page string, f SubmittedFilter) (*ResponsePage, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	return b.listResponses(ctx, page, storage.ResponseFilter{
		AuthorUserID: actor.ID,
		PostTitle:    strings.TrimSpace(f.PostTitle),
		Accepted:     f.Accepted,
		Text:         strings.TrimSpace(f.Query),
	})
}

func (b *Board) listResponses(ctx context.Context, page string, filter storage.ResponseFilter) (*ResponsePage, error) {
	total, err := b.store.CountResponses(ctx, filter)
	if err != nil {
		return nil, err
	}
	p, err := Paginate(page, total, b.pageSize)
	if err != nil {
		return nil, err
	}
	records, err := b.store.ListResponses(ctx, filter, p.PageSize, p.Offset())
	if err != nil {
		return nil, err
	}

	out := make([]Response, 0, len(records))
	for _, rec := range records {
		out = append(out, responseFromRecord(rec))
	}
	return &ResponsePage{Responses: out, Page: p}, nil
}

// ownedPost loads a post the actor may modify under perm
func (b *Board) ownedPost(ctx context.Context, actor *User, id int64, perm string) (*storage.PostRecord, error) {
	if err := requirePerm(actor, perm); err != nil {
		return nil, err
	}
	rec, err := b.store.GetPost(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	if rec.AuthorUserID != actor.ID {
		return nil, fmt.Errorf("post %d belongs to %s: %w", id, rec.AuthorUsername, ErrForbidden)
	}
	return rec, nil
}

func (b *Board) notify(ctx context.Context, typ EventType, resp *Response) {
	if b.notifier == nil {
		return
	}
	ev := Event{
		Type:           typ,
		ResponseID:     resp.ID,
		PostID:         resp.PostID,
		PostTitle:      resp.PostTitle,
		ResponseAuthor: resp.AuthorUsername,
		PostAuthor:     resp.PostAuthor,
		OccurredAt:     b.now(),
	}
	if err := b.notifier.Notify(ctx, ev); err != nil {
		b.logger.Warn("event delivery failed",
			zap.String("type", string(typ)),
			zap.Int64("response_id", resp.ID),
			zap.Error(err))
	}
}

func (b *Board) postSummaries(records []*storage.PostRecord) []Post {
	posts := make([]Post, 0, len(records))
	for _, rec := range records {
		p := postFromRecord(rec)
		if b.previewer != nil {
			p.Preview = b.previewer.Preview(p.Content)
		}
		p.Content = ""
		posts = append(posts, p)
	}
	return posts
}

func requirePerm(actor *User, perm string) error {
	if actor == nil {
		return ErrUnauthenticated
	}
	if !actor.HasPerm(perm) {
		return fmt.Errorf("user %s lacks %s: %w", actor.Username, perm, ErrForbidden)
	}
	return nil
}

func validatePost(form PostForm) (PostForm, error) {
	v := &ValidationError{}
	form.Title = strings.TrimSpace(form.Title)
	form.Category = strings.TrimSpace(form.Category)

	if !ValidCategory(form.Category) {
		v.add("category", fmt.Sprintf("unknown category %q", form.Category))
	}
	switch n := utf8.RuneCountInString(form.Title); {
	case n == 0:
		v.add("title", "required")
	case n > MaxTitleLength:
		v.add("title", fmt.Sprintf("at most %d characters", MaxTitleLength))
	}
	switch {
	case strings.TrimSpace(form.Content) == "":
		v.add("content", "required")
	case len(form.Content) > MaxContentBytes:
		v.add("content", "exceeds 1MB")
	}
	return form, v.orNil()
}

func validateResponse(form ResponseForm) (string, error) {
	v := &ValidationError{}
	text := strings.TrimSpace(form.Text)
	switch n := utf8.RuneCountInString(text); {
	case n == 0:
		v.add("text", "required")
	case n > MaxResponseLength:
		v.add("text", fmt.Sprintf("at most %d characters", MaxResponseLength))
	}
	return text, v.orNil()
}

func postFromRecord(rec *storage.PostRecord) Post {
	return Post{
		ID:             rec.ID,
		AuthorUserID:   rec.AuthorUserID,
		AuthorUsername: rec.AuthorUsername,
		AuthorName:     rec.AuthorDisplayName,
		Category:       rec.Category,
		Title:          rec.Title,
		Content:        rec.Content,
		CreatedAt:      rec.CreatedAt,
		UpdatedAt:      rec.UpdatedAt,
	}
}

func responseFromRecord(rec *storage.ResponseRecord) Response {
	return Response{
		ID:               rec.ID,
		PostID:           rec.PostID,
		PostTitle:        rec.PostTitle,
		PostAuthorUserID: rec.PostAuthorUserID,
		PostAuthor:       rec.PostAuthorName,
		AuthorUserID:     rec.AuthorUserID,
		AuthorUsername:   rec.AuthorUsername,
		Text:             rec.Text,
		Accepted:         rec.Accepted,
		CreatedAt:        rec.CreatedAt,
	}
}
