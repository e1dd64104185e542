package fakeapi

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/samber/lo"
)

var ErrPostNotFound = errors.New("post not found")

// StoredPost is a post as the API returns it.
type StoredPost struct {
	ID     int    `json:"id"`
	UserID int    `json:"userId"`
	Title  string `json:"title"`
	Body   string `json:"body"`
}

// Storage keeps posts in insertion order.
type Storage struct {
	lock   sync.RWMutex
	posts  []StoredPost
	nextID int
}

func NewStorage(posts []StoredPost) *Storage {
	maxID := lo.Max(lo.Map(posts, func(post StoredPost, _ int) int {
		return post.ID
	}))

	return &Storage{
		posts:  append([]StoredPost{}, posts...),
		nextID: maxID + 1,
	}
}

func (s *Storage) All() []StoredPost {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return append([]StoredPost{}, s.posts...)
}

func (s *Storage) ByID(id int) (StoredPost, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	post, ok := lo.Find(s.posts, func(post StoredPost) bool {
		return post.ID == id
	})
	if !ok {
		return StoredPost{}, errors.Wrapf(ErrPostNotFound, "id %d", id)
	}

	return post, nil
}

// Add assigns the next id to post and stores it.
func (s *Storage) Add(post StoredPost) StoredPost {
	s.lock.Lock()
	defer s.lock.Unlock()

	post.ID = s.nextID
	s.nextID++

	s.posts = append(s.posts, post)

	return post
}

func (s *Storage) Update(post StoredPost) (StoredPost, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	_, index, ok := lo.FindIndexOf(s.posts, func(p StoredPost) bool {
		return p.ID == post.ID
	})
	if !ok {
		return StoredPost{}, errors.Wrapf(ErrPostNotFound, "id %d", post.ID)
	}

	s.posts[index] = post

	return post, nil
}

// Delete removes the post with id. Unknown ids are ignored.
func (s *Storage) Delete(id int) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.posts = lo.Reject(s.posts, func(post StoredPost, _ int) bool {
		return post.ID == id
	})
}
