package core

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"slices"
	"strings"
	"sync"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/Sergeybob123/callboard/internal/storage"
)

const (
	minPasswordLength = 8
	// bcrypt ignores everything past 72 bytes
	maxPasswordBytes = 72
)

// usernamePattern accepts Unicode letters, marks and digits plus . @ + - _
var usernamePattern = regexp.MustCompile(`^[\p{L}\p{M}\p{N}_.@+-]{3,150}$`)

// CreateOptions adjusts how an account is opened
type CreateOptions struct {
	// NoAuthor skips the author profile; the user can read but not publish
	NoAuthor    bool
	Permissions []string
}

// Accounts manages users and their credentials
type Accounts struct {
	users  UserStorage
	hasher PasswordHasher
	logger *zap.Logger

	// dummyHash stands in for the stored hash of an unknown username
	dummyOnce sync.Once
	dummyHash string
}

// NewAccounts creates an account service
func NewAccounts(users UserStorage, hasher PasswordHasher, logger *zap.Logger) *Accounts {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Accounts{users: users, hasher: hasher, logger: logger}
}

// Register opens an account with an author profile and the default permissions
func (a *Accounts) Register(ctx context.Context, form RegisterForm) (*User, error) {
	return a.Create(ctx, form, CreateOptions{Permissions: DefaultPermissions})
}

// Create opens an account
func (a *Accounts) Create(ctx context.Context, form RegisterForm, opts CreateOptions) (*User, error) {
	form, err := validateRegistration(form)
	if err != nil {
		return nil, err
	}
	for _, p := range opts.Permissions {
		if !KnownPermission(p) {
			return nil, fmt.Errorf("unknown permission %q", p)
		}
	}

	hash, err := a.hasher.Hash(form.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	rec := &storage.UserRecord{
		Username:     form.Username,
		Email:        form.Email,
		PasswordHash: hash,
		Permissions:  slices.Clone(opts.Permissions),
		IsActive:     true,
	}
	if opts.NoAuthor {
		err = a.users.CreateUser(ctx, rec)
	} else {
		displayName := form.DisplayName
		if displayName == "" {
			displayName = form.Username
		}
		err = a.users.CreateUserWithAuthor(ctx, rec, &storage.AuthorRecord{DisplayName: displayName})
	}
	if err != nil {
		return nil, translate(err)
	}

	a.logger.Info("account created", zap.Int64("user_id", rec.ID), zap.String("username", rec.Username))
	return a.UserByID(ctx, rec.ID)
}

// Authenticate checks a username and password. Unknown users, wrong
// passwords and inactive accounts all fail the same way.
func (a *Accounts) Authenticate(ctx context.Context, username, password string) (*User, error) {
	rec, err := a.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			_ = a.hasher.Compare(a.missingUserHash(), password)
			return nil, fmt.Errorf("invalid credentials: %w", ErrUnauthenticated)
		}
		return nil, err
	}
	if err := a.hasher.Compare(rec.PasswordHash, password); err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", ErrUnauthenticated)
	}
	if !rec.IsActive {
		return nil, fmt.Errorf("invalid credentials: %w", ErrUnauthenticated)
	}
	return a.withAuthor(ctx, rec)
}

// UserByID loads a user together with their author profile
func (a *Accounts) UserByID(ctx context.Context, id int64) (*User, error) {
	rec, err := a.users.GetUser(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	return a.withAuthor(ctx, rec)
}

// UserByName loads a user by username
func (a *Accounts) UserByName(ctx context.Context, username string) (*User, error) {
	rec, err := a.users.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, translate(err)
	}
	return a.withAuthor(ctx, rec)
}

// Grant adds permissions to a user
func (a *Accounts) Grant(ctx context.Context, username string, perms ...string) (*User, error) {
	return a.updatePerms(ctx, username, perms, func(current []string, p string) []string {
		if slices.Contains(current, p) {
			return current
		}
		return append(current, p)
	})
}

// Revoke removes permissions from a user
func (a *Accounts) Revoke(ctx context.Context, username string, perms ...string) (*User, error) {
	return a.updatePerms(ctx, username, perms, func(current []string, p string) []string {
		return slices.DeleteFunc(current, func(s string) bool { return s == p })
	})
}

// SetActive enables or disables an account
func (a *Accounts) SetActive(ctx context.Context, username string, active bool) (*User, error) {
	user, err := a.UserByName(ctx, username)
	if err != nil {
		return nil, err
	}
	if err := a.users.SetActive(ctx, user.ID, active); err != nil {
		return nil, translate(err)
	}
	user.IsActive = active
	return user, nil
}

func (a *Accounts) updatePerms(ctx context.Context, username string, perms []string, apply func([]string, string) []string) (*User, error) {
	for _, p := range perms {
		if !KnownPermission(p) {
			return nil, fmt.Errorf("unknown permission %q", p)
		}
	}
	user, err := a.UserByName(ctx, username)
	if err != nil {
		return nil, err
	}

	updated := slices.Clone(user.Permissions)
	for _, p := range perms {
		updated = apply(updated, p)
	}
	slices.Sort(updated)
	if err := a.users.SetPermissions(ctx, user.ID, updated); err != nil {
		return nil, translate(err)
	}
	user.Permissions = updated
	return user, nil
}

func (a *Accounts) missingUserHash() string {
	a.dummyOnce.Do(func() {
		hash, err := a.hasher.Hash("callboard-missing-user")
		if err != nil {
			a.logger.Warn("hashing placeholder password", zap.Error(err))
			return
		}
		a.dummyHash = hash
	})
	return a.dummyHash
}

func (a *Accounts) withAuthor(ctx context.Context, rec *storage.UserRecord) (*User, error) {
	user := &User{
		ID:          rec.ID,
		Username:    rec.Username,
		Email:       rec.Email,
		Permissions: rec.Permissions,
		IsActive:    rec.IsActive,
		DateJoined:  rec.DateJoined,
	}
	author, err := a.users.GetAuthorByUser(ctx, rec.ID)
	switch {
	case err == nil:
		user.AuthorID = author.ID
	case !errors.Is(err, storage.ErrNotFound):
		return nil, err
	}
	return user, nil
}

func validateRegistration(form RegisterForm) (RegisterForm, error) {
	v := &ValidationError{}
	form.Username = strings.TrimSpace(form.Username)
	form.Email = strings.TrimSpace(form.Email)
	form.DisplayName = strings.TrimSpace(form.DisplayName)

	if !usernamePattern.MatchString(form.Username) {
		v.add("username", "3 to 150 letters, digits or . @ + - _")
	}
	if form.Email != "" {
		if addr, err := mail.ParseAddress(form.Email); err != nil || addr.Address != form.Email {
			v.add("email", "invalid address")
		}
	}
	switch {
	case utf8.RuneCountInString(form.Password) < minPasswordLength:
		v.add("password", fmt.Sprintf("at least %d characters", minPasswordLength))
	case len(form.Password) > maxPasswordBytes:
		v.add("password", fmt.Sprintf("at most %d bytes", maxPasswordBytes))
	}
	if utf8.RuneCountInString(form.DisplayName) > 150 {
		v.add("display_name", "at most 150 characters")
	}
	return form, v.orNil()
}
