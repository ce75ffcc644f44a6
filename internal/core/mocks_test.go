package core

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Sergeybob123/callboard/internal/storage"
)

// RecordingNotifier collects events for assertions
type RecordingNotifier struct {
	mu     sync.Mutex
	events []Event
	Err    error
}

func (n *RecordingNotifier) Notify(_ context.Context, ev Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
	return n.Err
}

func (n *RecordingNotifier) Events() []Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Event(nil), n.events...)
}

// PlainHasher stores passwords reversibly so tests stay fast
type PlainHasher struct{}

func (PlainHasher) Hash(password string) (string, error) {
	return "plain:" + password, nil
}

func (PlainHasher) Compare(hash, password string) error {
	if hash != "plain:"+password {
		return errors.New("mismatch")
	}
	return nil
}

// UpperPreviewer makes previews easy to spot
type UpperPreviewer struct{}

func (UpperPreviewer) Preview(html string) string {
	return strings.ToUpper(html)
}

type fixture struct {
	store    *storage.Store
	board    *Board
	accounts *Accounts
	notifier *RecordingNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := storage.NewStore(filepath.Join(t.TempDir(), "board.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	notifier := &RecordingNotifier{}
	return &fixture{
		store:    store,
		notifier: notifier,
		board: NewBoard(BoardDeps{
			Store:     store,
			Notifier:  notifier,
			Previewer: UpperPreviewer{},
			PageSize:  2,
		}),
		accounts: NewAccounts(store, PlainHasher{}, nil),
	}
}

func (f *fixture) register(t *testing.T, username string) *User {
	t.Helper()
	user, err := f.accounts.Register(context.Background(), RegisterForm{
		Username: username,
		Password: "password-" + username,
	})
	require.NoError(t, err)
	return user
}

func (f *fixture) post(t *testing.T, author *User, title string) *Post {
	t.Helper()
	post, err := f.board.CreatePost(context.Background(), author, PostForm{
		Category: "tanks",
		Title:    title,
		Content:  "<p>" + title + "</p>",
	})
	require.NoError(t, err)
	return post
}

func (f *fixture) respond(t *testing.T, author *User, postID int64, text string) *Response {
	t.Helper()
	resp, err := f.board.CreateResponse(context.Background(), author, postID, ResponseForm{Text: text})
	require.NoError(t, err)
	return resp
}
