package fakeapi

import (
	"strings"

	"github.com/brianvoe/gofakeit/v6"
)

// SeedPosts generates count posts with ids starting at 1.
// The same seed always gives the same posts.
func SeedPosts(count int, seed int64) []StoredPost {
	faker := gofakeit.New(seed)

	posts := make([]StoredPost, 0, count)
	for i := 1; i <= count; i++ {
		posts = append(posts, StoredPost{
			ID:     i,
			UserID: (i-1)/10 + 1,
			Title:  strings.ToLower(strings.TrimSuffix(faker.Sentence(faker.Number(3, 8)), ".")),
			Body:   faker.Paragraph(1, 4, 8, "\n"),
		})
	}

	return posts
}
