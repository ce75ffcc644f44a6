package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "sub", "board.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func seedAuthor(t *testing.T, s *Store, username string) (*UserRecord, *AuthorRecord) {
	t.Helper()
	user := &UserRecord{Username: username, PasswordHash: "x", IsActive: true}
	author := &AuthorRecord{DisplayName: username}
	require.NoError(t, s.CreateUserWithAuthor(context.Background(), user, author))
	return user, author
}

func seedPost(t *testing.T, s *Store, author *AuthorRecord, title, category string) *PostRecord {
	t.Helper()
	post := &PostRecord{AuthorID: author.ID, Category: category, Title: title, Content: "<p>" + title + "</p>"}
	require.NoError(t, s.CreatePost(context.Background(), post))
	return post
}

func seedResponse(t *testing.T, s *Store, post *PostRecord, author *AuthorRecord, text string) *ResponseRecord {
	t.Helper()
	resp := &ResponseRecord{PostID: post.ID, AuthorID: author.ID, Text: text}
	require.NoError(t, s.CreateResponse(context.Background(), resp))
	return resp
}

func TestNewStore_CreatesDirectoryAndSchema(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Ping(ctx))
	counts, err := store.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, Counts{}, counts)
}

func TestNewStore_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "board.db")
	store, err := NewStore(path)
	require.NoError(t, err)
	seedAuthor(t, store, "alice")
	require.NoError(t, store.Close())

	store, err = NewStore(path)
	require.NoError(t, err)
	defer store.Close()

	user, err := store.GetUserByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
}

func TestUsers(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	user, author := seedAuthor(t, store, "alice")
	assert.NotZero(t, user.ID)
	assert.Equal(t, user.ID, author.UserID)
	assert.False(t, user.DateJoined.IsZero())

	t.Run("duplicate username", func(t *testing.T) {
		err := store.CreateUser(ctx, &UserRecord{Username: "alice", PasswordHash: "y"})
		assert.ErrorIs(t, err, ErrDuplicate)
	})

	t.Run("duplicate author profile", func(t *testing.T) {
		err := store.CreateAuthor(ctx, &AuthorRecord{UserID: user.ID})
		assert.ErrorIs(t, err, ErrDuplicate)
	})

	t.Run("duplicate user leaves no author behind", func(t *testing.T) {
		before, err := store.Counts(ctx)
		require.NoError(t, err)
		err = store.CreateUserWithAuthor(ctx, &UserRecord{Username: "alice"}, &AuthorRecord{})
		assert.ErrorIs(t, err, ErrDuplicate)
		after, err := store.Counts(ctx)
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})

	t.Run("permissions round trip", func(t *testing.T) {
		require.NoError(t, store.SetPermissions(ctx, user.ID, []string{"add_post", "change_post"}))
		got, err := store.GetUser(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"add_post", "change_post"}, got.Permissions)
	})

	t.Run("deactivate", func(t *testing.T) {
		require.NoError(t, store.SetActive(ctx, user.ID, false))
		got, err := store.GetUser(ctx, user.ID)
		require.NoError(t, err)
		assert.False(t, got.IsActive)
	})

	t.Run("missing user", func(t *testing.T) {
		_, err := store.GetUser(ctx, 9999)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, store.SetActive(ctx, 9999, true), ErrNotFound)
	})

	t.Run("user without author", func(t *testing.T) {
		plain := &UserRecord{Username: "bob"}
		require.NoError(t, store.CreateUser(ctx, plain))
		_, err := store.GetAuthorByUser(ctx, plain.ID)
		assert.ErrorIs(t, err, ErrNotFound)

		require.NoError(t, store.CreateAuthor(ctx, &AuthorRecord{UserID: plain.ID, DisplayName: "Bob"}))
		got, err := store.GetAuthorByUser(ctx, plain.ID)
		require.NoError(t, err)
		assert.Equal(t, "Bob", got.DisplayName)
	})
}

func TestPosts(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice, aliceAuthor := seedAuthor(t, store, "alice")
	_, bobAuthor := seedAuthor(t, store, "bob")

	first := seedPost(t, store, aliceAuthor, "first", "tanks")
	second := seedPost(t, store, bobAuthor, "second", "healers")
	third := seedPost(t, store, aliceAuthor, "third", "tanks")

	t.Run("get joins author", func(t *testing.T) {
		got, err := store.GetPost(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, "alice", got.AuthorUsername)
		assert.Equal(t, "alice", got.AuthorDisplayName)
		assert.Equal(t, alice.ID, got.AuthorUserID)
		assert.Equal(t, "<p>first</p>", got.Content)
	})

	t.Run("list newest first", func(t *testing.T) {
		posts, err := store.ListPosts(ctx, PostFilter{}, 10, 0)
		require.NoError(t, err)
		require.Len(t, posts, 3)
		assert.Equal(t, []int64{third.ID, second.ID, first.ID}, []int64{posts[0].ID, posts[1].ID, posts[2].ID})
	})

	t.Run("list with limit and offset", func(t *testing.T) {
		posts, err := store.ListPosts(ctx, PostFilter{}, 2, 2)
		require.NoError(t, err)
		require.Len(t, posts, 1)
		assert.Equal(t, first.ID, posts[0].ID)
	})

	t.Run("filters", func(t *testing.T) {
		n, err := store.CountPosts(ctx, PostFilter{Category: "tanks"})
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		n, err = store.CountPosts(ctx, PostFilter{AuthorUserID: alice.ID, Category: "healers"})
		require.NoError(t, err)
		assert.Equal(t, 0, n)

		posts, err := store.ListPosts(ctx, PostFilter{AuthorUserID: alice.ID}, 10, 0)
		require.NoError(t, err)
		assert.Len(t, posts, 2)
	})

	t.Run("update bumps updated_at", func(t *testing.T) {
		store.now = func() time.Time { return time.Now().UTC().Add(time.Hour) }
		defer func() { store.now = func() time.Time { return time.Now().UTC() } }()

		edit := *first
		edit.Title = "first, edited"
		require.NoError(t, store.UpdatePost(ctx, &edit))

		got, err := store.GetPost(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, "first, edited", got.Title)
		assert.True(t, got.UpdatedAt.After(got.CreatedAt))
	})

	t.Run("update missing", func(t *testing.T) {
		err := store.UpdatePost(ctx, &PostRecord{ID: 9999, Title: "x", Category: "tanks"})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("delete cascades to responses", func(t *testing.T) {
		resp := seedResponse(t, store, second, aliceAuthor, "hi")
		require.NoError(t, store.DeletePost(ctx, second.ID))

		_, err := store.GetPost(ctx, second.ID)
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = store.GetResponse(ctx, resp.ID)
		assert.ErrorIs(t, err, ErrNotFound)

		assert.ErrorIs(t, store.DeletePost(ctx, second.ID), ErrNotFound)
	})
}

func TestResponses(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice, aliceAuthor := seedAuthor(t, store, "alice")
	bob, bobAuthor := seedAuthor(t, store, "bob")
	_, carolAuthor := seedAuthor(t, store, "carol")

	alicePost := seedPost(t, store, aliceAuthor, "Need a tank", "tanks")
	bobPost := seedPost(t, store, bobAuthor, "Selling potions", "potion_makers")

	r1 := seedResponse(t, store, alicePost, bobAuthor, "I can tank")
	r2 := seedResponse(t, store, alicePost, carolAuthor, "me too, 100% ready")
	r3 := seedResponse(t, store, bobPost, aliceAuthor, "how much?")

	t.Run("get joins post and authors", func(t *testing.T) {
		got, err := store.GetResponse(ctx, r1.ID)
		require.NoError(t, err)
		assert.Equal(t, "bob", got.AuthorUsername)
		assert.Equal(t, bob.ID, got.AuthorUserID)
		assert.Equal(t, "Need a tank", got.PostTitle)
		assert.Equal(t, alice.ID, got.PostAuthorUserID)
		assert.Equal(t, "alice", got.PostAuthorName)
		assert.False(t, got.Accepted)
	})

	t.Run("received by post author", func(t *testing.T) {
		list, err := store.ListResponses(ctx, ResponseFilter{PostAuthorUserID: alice.ID}, 10, 0)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, r2.ID, list[0].ID)
		assert.Equal(t, r1.ID, list[1].ID)
	})

	t.Run("submitted by author", func(t *testing.T) {
		list, err := store.ListResponses(ctx, ResponseFilter{AuthorUserID: alice.ID}, 10, 0)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, r3.ID, list[0].ID)
	})

	t.Run("text search is case-insensitive and escapes wildcards", func(t *testing.T) {
		n, err := store.CountResponses(ctx, ResponseFilter{Text: "I CAN"})
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		n, err = store.CountResponses(ctx, ResponseFilter{Text: "100%"})
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		n, err = store.CountResponses(ctx, ResponseFilter{Text: "%"})
		require.NoError(t, err)
		assert.Equal(t, 1, n, "a literal percent only matches text containing it")
	})

	t.Run("post title and post id filters", func(t *testing.T) {
		n, err := store.CountResponses(ctx, ResponseFilter{PostTitle: "potion"})
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		n, err = store.CountResponses(ctx, ResponseFilter{PostID: alicePost.ID})
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})

	t.Run("accept is a one-way transition", func(t *testing.T) {
		changed, err := store.MarkAccepted(ctx, r1.ID)
		require.NoError(t, err)
		assert.True(t, changed)

		changed, err = store.MarkAccepted(ctx, r1.ID)
		require.NoError(t, err)
		assert.False(t, changed)

		got, err := store.GetResponse(ctx, r1.ID)
		require.NoError(t, err)
		assert.True(t, got.Accepted)

		accepted := true
		n, err := store.CountResponses(ctx, ResponseFilter{PostAuthorUserID: alice.ID, Accepted: &accepted})
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		pending := false
		n, err = store.CountResponses(ctx, ResponseFilter{PostAuthorUserID: alice.ID, Accepted: &pending})
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("accept missing response reports no change", func(t *testing.T) {
		changed, err := store.MarkAccepted(ctx, 9999)
		require.NoError(t, err)
		assert.False(t, changed)
	})

	t.Run("update text keeps accepted flag", func(t *testing.T) {
		require.NoError(t, store.UpdateResponseText(ctx, r1.ID, "I can tank, edited"))
		got, err := store.GetResponse(ctx, r1.ID)
		require.NoError(t, err)
		assert.Equal(t, "I can tank, edited", got.Text)
		assert.True(t, got.Accepted)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, store.DeleteResponse(ctx, r3.ID))
		err := store.DeleteResponse(ctx, r3.ID)
		assert.True(t, errors.Is(err, ErrNotFound))
	})

	t.Run("response to missing post violates foreign key", func(t *testing.T) {
		err := store.CreateResponse(ctx, &ResponseRecord{PostID: 9999, AuthorID: aliceAuthor.ID, Text: "x"})
		assert.Error(t, err)
	})
}
