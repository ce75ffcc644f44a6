package core

import (
	"slices"
	"time"
)

// Permission names granted to users
const (
	PermAddPost    = "add_post"
	PermChangePost = "change_post"
	PermDeletePost = "delete_post"
)

// DefaultPermissions are granted on registration
var DefaultPermissions = []string{PermAddPost, PermChangePost, PermDeletePost}

// KnownPermission reports whether name is a permission the board checks
func KnownPermission(name string) bool {
	return slices.Contains(DefaultPermissions, name)
}

// User is an account as seen by the board
type User struct {
	ID          int64     `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email,omitempty"`
	Permissions []string  `json:"permissions"`
	IsActive    bool      `json:"is_active"`
	DateJoined  time.Time `json:"date_joined"`
	// AuthorID is zero for users without an author profile
	AuthorID int64 `json:"author_id,omitempty"`
}

// HasPerm reports whether the user holds a permission
func (u *User) HasPerm(perm string) bool {
	return u != nil && slices.Contains(u.Permissions, perm)
}

// IsAuthor reports whether the user may publish
func (u *User) IsAuthor() bool {
	return u != nil && u.AuthorID != 0
}

// Category is a game role a post is filed under
type Category struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// Categories lists every category in display order
var Categories = []Category{
	{Slug: "tanks", Name: "Tanks"},
	{Slug: "healers", Name: "Healers"},
	{Slug: "damage_dealers", Name: "Damage Dealers"},
	{Slug: "traders", Name: "Traders"},
	{Slug: "guild_masters", Name: "Guild Masters"},
	{Slug: "quest_givers", Name: "Quest Givers"},
	{Slug: "blacksmiths", Name: "Blacksmiths"},
	{Slug: "leatherworkers", Name: "Leatherworkers"},
	{Slug: "potion_makers", Name: "Potion Makers"},
	{Slug: "spell_masters", Name: "Spell Masters"},
}

// ValidCategory reports whether slug names a category
func ValidCategory(slug string) bool {
	for _, c := range Categories {
		if c.Slug == slug {
			return true
		}
	}
	return false
}

// Post is a news item published by an author
type Post struct {
	ID             int64     `json:"id"`
	AuthorUserID   int64     `json:"author_id"`
	AuthorUsername string    `json:"author"`
	AuthorName     string    `json:"author_name"`
	Category       string    `json:"category"`
	Title          string    `json:"title"`
	Content        string    `json:"content,omitempty"`
	Preview        string    `json:"preview,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Response is a reply submitted to a post
type Response struct {
	ID               int64     `json:"id"`
	PostID           int64     `json:"post_id"`
	PostTitle        string    `json:"post_title"`
	PostAuthorUserID int64     `json:"post_author_id"`
	PostAuthor       string    `json:"post_author"`
	AuthorUserID     int64     `json:"author_id"`
	AuthorUsername   string    `json:"author"`
	Text             string    `json:"text"`
	Accepted         bool      `json:"accepted"`
	CreatedAt        time.Time `json:"created_at"`
}

// Page describes one page of a paginated list
type Page struct {
	Number      int  `json:"number"`
	PageSize    int  `json:"page_size"`
	TotalItems  int  `json:"total_items"`
	TotalPages  int  `json:"total_pages"`
	HasNext     bool `json:"has_next"`
	HasPrevious bool `json:"has_previous"`
}

// Offset returns the index of the first item on the page
func (p Page) Offset() int {
	return (p.Number - 1) * p.PageSize
}

// PostPage is a page of posts
type PostPage struct {
	Posts []Post `json:"posts"`
	Page  Page   `json:"page"`
}

// ResponsePage is a page of responses
type ResponsePage struct {
	Responses []Response `json:"responses"`
	Page      Page       `json:"page"`
}

// Home is the landing page payload
type Home struct {
	Categories []Category `json:"categories"`
	TotalPosts int        `json:"total_posts"`
	Latest     []Post     `json:"latest"`
}

// Account is the profile view of a user
type Account struct {
	ID         int64     `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email,omitempty"`
	DateJoined time.Time `json:"date_joined"`
	IsAuthor   bool      `json:"is_author"`
	// DisplayName is empty for users without an author profile
	DisplayName   string `json:"display_name,omitempty"`
	PostCount     int    `json:"post_count"`
	ResponseCount int    `json:"response_count"`
	// Permissions is only filled in for the account owner
	Permissions []string `json:"permissions,omitempty"`
}

// PostForm carries the editable fields of a post
type PostForm struct {
	Category string `json:"category"`
	Title    string `json:"title"`
	Content  string `json:"content"`
}

// ResponseForm carries the editable fields of a response
type ResponseForm struct {
	Text string `json:"text"`
}

// ReceivedFilter narrows the responses a post author reviews
type ReceivedFilter struct {
	PostID   int64
	Accepted *bool
	Query    string
}

// SubmittedFilter narrows the responses a user wrote
type SubmittedFilter struct {
	PostTitle string
	Accepted  *bool
	Query     string
}

// RegisterForm carries the fields needed to open an account
type RegisterForm struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

// EventType names a board event
type EventType string

// Board events
const (
	EventResponseCreated  EventType = "response.created"
	EventResponseAccepted EventType = "response.accepted"
)

// Event announces a change other systems may want to act on
type Event struct {
	Type           EventType `json:"type"`
	ResponseID     int64     `json:"response_id"`
	PostID         int64     `json:"post_id"`
	PostTitle      string    `json:"post_title"`
	ResponseAuthor string    `json:"response_author"`
	PostAuthor     string    `json:"post_author"`
	OccurredAt     time.Time `json:"occurred_at"`
}
