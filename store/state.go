package store

import (
	"github.com/samber/lo"

	"github.com/ThreeDotsLabs/postboard"
)

// State is an immutable snapshot of the store.
type State struct {
	Posts []postboard.Post `json:"posts"`

	// ErrorMessage is set by a failed operation and cleared only by DismissError.
	ErrorMessage string `json:"error_message,omitempty"`

	// Revision is incremented once for every applied event.
	Revision uint64 `json:"revision"`

	LastOperation   Operation `json:"last_operation,omitempty"`
	LastOperationID string    `json:"last_operation_id,omitempty"`
}

func (s State) Clone() State {
	s.Posts = postboard.ClonePosts(s.Posts)
	return s
}

func appendPost(posts []postboard.Post, post postboard.Post) []postboard.Post {
	return append(postboard.ClonePosts(posts), post)
}

// replacePost swaps every post with postID for the updated one, keeping positions.
// The id is kept even if the server answered with a different one.
func replacePost(posts []postboard.Post, postID int, updated postboard.Post) ([]postboard.Post, bool) {
	updated.ID = postID

	found := false
	replaced := lo.Map(posts, func(post postboard.Post, _ int) postboard.Post {
		if post.ID != postID {
			return post
		}
		found = true
		return updated
	})

	if !found {
		return posts, false
	}
	return replaced, true
}

func removePosts(posts []postboard.Post, postID int) []postboard.Post {
	return postboard.ClonePosts(lo.Reject(posts, func(post postboard.Post, _ int) bool {
		return post.ID == postID
	}))
}

func containsPost(posts []postboard.Post, postID int) bool {
	return lo.ContainsBy(posts, func(post postboard.Post) bool {
		return post.ID == postID
	})
}
