package postboard

import (
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrEmptyTitle = errors.New("title cannot be empty")
	ErrEmptyBody  = errors.New("body cannot be empty")
)

// DefaultUserID is sent with every write request.
// The API has no session concept, so it is a fixed placeholder unless configured.
const DefaultUserID = 1

// Post is the record exchanged with the API and displayed in the UI.
// Fields other than id, title and body (like userId) are dropped on decode.
type Post struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

// PostInput is the body of create and update requests.
type PostInput struct {
	Title  string `json:"title"`
	Body   string `json:"body"`
	UserID int    `json:"userId"`
}

func NewPostInput(title, body string) PostInput {
	return PostInput{
		Title:  title,
		Body:   body,
		UserID: DefaultUserID,
	}
}

// Validate checks the fields a user must fill in before submitting.
func (p PostInput) Validate() error {
	if strings.TrimSpace(p.Title) == "" {
		return ErrEmptyTitle
	}
	if strings.TrimSpace(p.Body) == "" {
		return ErrEmptyBody
	}

	return nil
}

// ClonePosts returns a copy of posts that never shares the backing array.
// nil becomes an empty slice so that encoded snapshots are always `[]`.
func ClonePosts(posts []Post) []Post {
	cloned := make([]Post, len(posts))
	copy(cloned, posts)
	return cloned
}
