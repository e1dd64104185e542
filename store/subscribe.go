package store

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/ThreeDotsLabs/watermill"
)

// Subscribe returns a channel receiving every snapshot applied after the call, in revision order.
// The channel is closed when ctx is cancelled or the store is closed.
//
// The store waits for each subscriber to receive a snapshot before applying the next event,
// so the channel should be drained.
func (s *Store) Subscribe(ctx context.Context) (<-chan State, error) {
	messages, err := s.statePubSub.Subscribe(ctx, stateTopic)
	if err != nil {
		return nil, errors.Wrap(err, "cannot subscribe to state")
	}

	states := make(chan State, s.config.SubscriberBuffer)

	go func() {
		defer close(states)

		for msg := range messages {
			var state State
			err := json.Unmarshal(msg.Payload, &state)
			msg.Ack()

			if err != nil {
				s.logger.Error("Cannot unmarshal state", err, watermill.LogFields{"message_uuid": msg.UUID})
				continue
			}

			select {
			case states <- state:
			case <-ctx.Done():
				return
			}
		}
	}()

	return states, nil
}
