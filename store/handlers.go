package store

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/ThreeDotsLabs/postboard"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

func (s *Store) onPostsFetched(ctx context.Context, event *PostsFetched) error {
	return s.apply(ctx, OperationFetch, func(state *State) {
		state.Posts = postboard.ClonePosts(event.Posts)
	})
}

func (s *Store) onPostCreated(ctx context.Context, event *PostCreated) error {
	return s.apply(ctx, OperationCreate, func(state *State) {
		if containsPost(state.Posts, event.Post.ID) {
			s.logger.Info("Created post has an id that is already present", watermill.LogFields{
				"post_id": event.Post.ID,
			})
		}
		state.Posts = appendPost(state.Posts, event.Post)
	})
}

func (s *Store) onPostUpdated(ctx context.Context, event *PostUpdated) error {
	return s.apply(ctx, OperationUpdate, func(state *State) {
		posts, found := replacePost(state.Posts, event.PostID, event.Post)
		if !found {
			s.logger.Debug("Updated post is not present locally, ignoring", watermill.LogFields{
				"post_id": event.PostID,
			})
			return
		}
		state.Posts = posts
	})
}

func (s *Store) onPostDeleted(ctx context.Context, event *PostDeleted) error {
	return s.apply(ctx, OperationDelete, func(state *State) {
		state.Posts = removePosts(state.Posts, event.PostID)
	})
}

func (s *Store) onOperationFailed(ctx context.Context, event *OperationFailed) error {
	return s.apply(ctx, event.Operation, func(state *State) {
		state.ErrorMessage = event.Error
	})
}

func (s *Store) onErrorDismissed(ctx context.Context, event *ErrorDismissed) error {
	return s.apply(ctx, OperationDismiss, func(state *State) {
		state.ErrorMessage = ""
	})
}

// apply builds the next snapshot, stores it and broadcasts it to subscribers.
// It is called only from the event handlers, which never run concurrently.
func (s *Store) apply(ctx context.Context, operation Operation, mutate func(state *State)) error {
	next := s.state.Load().Clone()
	mutate(&next)

	next.Revision++
	next.LastOperation = operation
	next.LastOperationID, _ = postboard.OperationIDFromContext(ctx)

	s.state.Store(&next)

	s.logger.Debug("State updated", watermill.LogFields{
		"revision":     next.Revision,
		"operation":    operation,
		"operation_id": next.LastOperationID,
		"posts":        len(next.Posts),
	})

	return s.broadcast(next)
}

func (s *Store) broadcast(state State) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return errors.Wrap(err, "cannot marshal state")
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)

	if err := s.statePubSub.Publish(stateTopic, msg); err != nil {
		return errors.Wrapf(err, "cannot broadcast revision %d", state.Revision)
	}

	return nil
}
