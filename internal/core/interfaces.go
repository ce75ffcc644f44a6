package core

import (
	"context"

	"github.com/Sergeybob123/callboard/internal/storage"
)

// UserStorage stores accounts and author profiles.
// Implementations: storage.Store (SQLite)
type UserStorage interface {
	CreateUser(ctx context.Context, user *storage.UserRecord) error
	CreateUserWithAuthor(ctx context.Context, user *storage.UserRecord, author *storage.AuthorRecord) error
	GetUser(ctx context.Context, id int64) (*storage.UserRecord, error)
	GetUserByUsername(ctx context.Context, username string) (*storage.UserRecord, error)
	SetPermissions(ctx context.Context, userID int64, perms []string) error
	SetActive(ctx context.Context, userID int64, active bool) error
	GetAuthorByUser(ctx context.Context, userID int64) (*storage.AuthorRecord, error)
}

// PostStorage stores posts.
// Implementations: storage.Store (SQLite)
type PostStorage interface {
	CreatePost(ctx context.Context, post *storage.PostRecord) error
	GetPost(ctx context.Context, id int64) (*storage.PostRecord, error)
	UpdatePost(ctx context.Context, post *storage.PostRecord) error
	DeletePost(ctx context.Context, id int64) error
	ListPosts(ctx context.Context, filter storage.PostFilter, limit, offset int) ([]*storage.PostRecord, error)
	CountPosts(ctx context.Context, filter storage.PostFilter) (int, error)
}

// ResponseStorage stores responses.
// Implementations: storage.Store (SQLite)
type ResponseStorage interface {
	CreateResponse(ctx context.Context, resp *storage.ResponseRecord) error
	GetResponse(ctx context.Context, id int64) (*storage.ResponseRecord, error)
	UpdateResponseText(ctx context.Context, id int64, text string) error
	DeleteResponse(ctx context.Context, id int64) error

	// MarkAccepted reports whether the call flipped the flag.
	MarkAccepted(ctx context.Context, id int64) (bool, error)

	ListResponses(ctx context.Context, filter storage.ResponseFilter, limit, offset int) ([]*storage.ResponseRecord, error)
	CountResponses(ctx context.Context, filter storage.ResponseFilter) (int, error)
}

// Storage is everything the board persists.
type Storage interface {
	UserStorage
	PostStorage
	ResponseStorage
}

// Notifier delivers board events.
// Implementations: events.NATSNotifier, events.LogNotifier
type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

// Previewer renders a short plain-text excerpt of post content.
// Implementations: markup.Previewer (html-to-markdown)
type Previewer interface {
	Preview(html string) string
}

// PasswordHasher hashes and checks passwords.
// Implementations: auth.BcryptHasher
type PasswordHasher interface {
	Hash(password string) (string, error)
	// Compare returns nil when password matches hash.
	Compare(hash, password string) error
}
