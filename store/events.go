package store

import (
	"github.com/ThreeDotsLabs/postboard"
)

type Operation string

const (
	OperationFetch   Operation = "fetch"
	OperationCreate  Operation = "create"
	OperationUpdate  Operation = "update"
	OperationDelete  Operation = "delete"
	OperationDismiss Operation = "dismiss"
)

// Events describe the outcome of a single operation.
// They are applied to the state in the order they are published.

type PostsFetched struct {
	Posts []postboard.Post `json:"posts"`
}

type PostCreated struct {
	Post postboard.Post `json:"post"`
}

type PostUpdated struct {
	PostID int            `json:"post_id"`
	Post   postboard.Post `json:"post"`
}

type PostDeleted struct {
	PostID int `json:"post_id"`
}

type OperationFailed struct {
	Operation Operation `json:"operation"`
	PostID    int       `json:"post_id,omitempty"`
	Error     string    `json:"error"`
}

type ErrorDismissed struct{}
