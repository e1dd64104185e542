// Package store holds the client-side view of the posts collection.
//
// Operations are fire-and-forget: each one sends a single request on its own goroutine
// and publishes the outcome as an event. A single event handler applies events to the state,
// so the state has exactly one writer. New snapshots are broadcast to subscribers.
package store

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/ThreeDotsLabs/postboard"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/components/cqrs"
	"github.com/ThreeDotsLabs/watermill/components/metrics"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// API is the remote collection of posts.
type API interface {
	ListPosts(ctx context.Context) ([]postboard.Post, error)
	CreatePost(ctx context.Context, input postboard.PostInput) (postboard.Post, error)
	UpdatePost(ctx context.Context, postID int, input postboard.PostInput) (postboard.Post, error)
	DeletePost(ctx context.Context, postID int) error
}

type Store struct {
	api    API
	config Config
	logger watermill.LoggerAdapter

	eventsPubSub *gochannel.GoChannel
	statePubSub  *gochannel.GoChannel
	router       *message.Router
	eventBus     *cqrs.EventBus

	state atomic.Pointer[State]

	operations sync.WaitGroup
	closing    chan struct{}
	closed     bool
	closedLock sync.RWMutex
}

// NewStore creates a new Store. Run must be called before operations are applied.
func NewStore(api API, config Config, logger watermill.LoggerAdapter) (*Store, error) {
	if api == nil {
		return nil, errors.New("missing API")
	}

	config.setDefaults()
	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid Store config")
	}

	if logger == nil {
		logger = watermill.NopLogger{}
	}

	s := &Store{
		api:    api,
		config: config,
		logger: logger,

		eventsPubSub: gochannel.NewGoChannel(gochannel.Config{}, logger),
		statePubSub: gochannel.NewGoChannel(gochannel.Config{
			BlockPublishUntilSubscriberAck: true,
		}, logger),

		closing: make(chan struct{}),
	}
	s.state.Store(&State{Posts: []postboard.Post{}})

	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: config.CloseTimeout}, logger)
	if err != nil {
		return nil, errors.Wrap(err, "cannot create router")
	}
	router.AddMiddleware(
		dropOnError(logger),
		middleware.Recoverer,
	)
	if config.Registerer != nil {
		metrics.NewPrometheusMetricsBuilder(config.Registerer, "postboard", "store").AddPrometheusRouterMetrics(router)
	}
	s.router = router

	marshaler := cqrs.JSONMarshaler{
		GenerateName: cqrs.StructName,
	}

	s.eventBus, err = cqrs.NewEventBusWithConfig(s.eventsPubSub, cqrs.EventBusConfig{
		GeneratePublishTopic: func(params cqrs.GenerateEventPublishTopicParams) (string, error) {
			return eventsTopic, nil
		},
		OnPublish: func(params cqrs.OnEventSendParams) error {
			if operationID, ok := postboard.OperationIDFromContext(params.Message.Context()); ok {
				middleware.SetCorrelationID(operationID, params.Message)
			}
			return nil
		},
		Marshaler: marshaler,
		Logger:    logger,
	})
	if err != nil {
		return nil, errors.Wrap(err, "cannot create event bus")
	}

	eventProcessor, err := cqrs.NewEventGroupProcessorWithConfig(router, cqrs.EventGroupProcessorConfig{
		GenerateSubscribeTopic: func(params cqrs.EventGroupProcessorGenerateSubscribeTopicParams) (string, error) {
			return eventsTopic, nil
		},
		SubscriberConstructor: func(params cqrs.EventGroupProcessorSubscriberConstructorParams) (message.Subscriber, error) {
			return s.eventsPubSub, nil
		},
		OnHandle: func(params cqrs.EventGroupProcessorOnHandleParams) error {
			ctx := params.Message.Context()
			if operationID := middleware.MessageCorrelationID(params.Message); operationID != "" {
				ctx = postboard.ContextWithOperationID(ctx, operationID)
			}
			return params.Handler.Handle(ctx, params.Event)
		},
		AckOnUnknownEvent: true,
		Marshaler:         marshaler,
		Logger:            logger,
	})
	if err != nil {
		return nil, errors.Wrap(err, "cannot create event processor")
	}

	err = eventProcessor.AddHandlersGroup(
		handlerGroupName,
		cqrs.NewGroupEventHandler(s.onPostsFetched),
		cqrs.NewGroupEventHandler(s.onPostCreated),
		cqrs.NewGroupEventHandler(s.onPostUpdated),
		cqrs.NewGroupEventHandler(s.onPostDeleted),
		cqrs.NewGroupEventHandler(s.onOperationFailed),
		cqrs.NewGroupEventHandler(s.onErrorDismissed),
	)
	if err != nil {
		return nil, errors.Wrap(err, "cannot add event handlers")
	}

	return s, nil
}

// Run applies events until ctx is cancelled or Close is called. It blocks.
func (s *Store) Run(ctx context.Context) error {
	return s.router.Run(ctx)
}

// Running is closed when the store is ready to apply events.
func (s *Store) Running() chan struct{} {
	return s.router.Running()
}

// Close waits for in-flight requests (up to CloseTimeout) and stops the store.
func (s *Store) Close() error {
	s.closedLock.Lock()
	if s.closed {
		s.closedLock.Unlock()
		return nil
	}
	s.closed = true
	close(s.closing)
	s.closedLock.Unlock()

	s.logger.Debug("Closing store, waiting for in-flight operations", nil)

	operationsDone := make(chan struct{})
	go func() {
		s.operations.Wait()
		close(operationsDone)
	}()

	select {
	case <-operationsDone:
	case <-time.After(s.config.CloseTimeout):
		s.logger.Info("In-flight operations did not finish before close timeout", nil)
	}

	var err error
	if closeErr := s.router.Close(); closeErr != nil {
		err = multierror.Append(err, errors.Wrap(closeErr, "cannot close router"))
	}
	if closeErr := s.statePubSub.Close(); closeErr != nil {
		err = multierror.Append(err, errors.Wrap(closeErr, "cannot close state Pub/Sub"))
	}
	if closeErr := s.eventsPubSub.Close(); closeErr != nil {
		err = multierror.Append(err, errors.Wrap(closeErr, "cannot close events Pub/Sub"))
	}

	return err
}

// State returns a copy of the latest snapshot.
func (s *Store) State() State {
	return s.state.Load().Clone()
}

func (s *Store) Posts() []postboard.Post {
	return postboard.ClonePosts(s.state.Load().Posts)
}

func (s *Store) ErrorMessage() string {
	return s.state.Load().ErrorMessage
}

// FetchPosts replaces all posts with the ones returned by the API.
// It returns the id of the operation, visible later as State.LastOperationID.
func (s *Store) FetchPosts() string {
	return s.dispatch(OperationFetch, 0, func(ctx context.Context) (any, error) {
		posts, err := s.api.ListPosts(ctx)
		if err != nil {
			return nil, err
		}
		return &PostsFetched{Posts: posts}, nil
	})
}

// CreatePost appends the post returned by the API.
func (s *Store) CreatePost(title, body string) string {
	return s.dispatch(OperationCreate, 0, func(ctx context.Context) (any, error) {
		post, err := s.api.CreatePost(ctx, postboard.PostInput{Title: title, Body: body})
		if err != nil {
			return nil, err
		}
		return &PostCreated{Post: post}, nil
	})
}

// UpdatePost replaces the local post with postID. Posts missing locally are not added.
func (s *Store) UpdatePost(postID int, title, body string) string {
	return s.dispatch(OperationUpdate, postID, func(ctx context.Context) (any, error) {
		post, err := s.api.UpdatePost(ctx, postID, postboard.PostInput{Title: title, Body: body})
		if err != nil {
			return nil, err
		}
		return &PostUpdated{PostID: postID, Post: post}, nil
	})
}

// DeletePost removes every local post with postID once the API confirms.
func (s *Store) DeletePost(postID int) string {
	return s.dispatch(OperationDelete, postID, func(ctx context.Context) (any, error) {
		if err := s.api.DeletePost(ctx, postID); err != nil {
			return nil, err
		}
		return &PostDeleted{PostID: postID}, nil
	})
}

// DismissError clears the error message.
func (s *Store) DismissError() string {
	return s.dispatch(OperationDismiss, 0, func(ctx context.Context) (any, error) {
		return &ErrorDismissed{}, nil
	})
}

// dispatch runs call on a new goroutine and publishes its outcome.
// An empty id is returned when the store is closed.
func (s *Store) dispatch(
	operation Operation,
	postID int,
	call func(ctx context.Context) (any, error),
) string {
	operationID := postboard.NewOperationID()
	logFields := watermill.LogFields{
		"operation":    operation,
		"operation_id": operationID,
	}
	if postID != 0 {
		logFields["post_id"] = postID
	}

	s.closedLock.RLock()
	defer s.closedLock.RUnlock()

	if s.closed {
		s.logger.Info("Store is closed, operation dropped", logFields)
		return ""
	}

	s.operations.Add(1)
	go func() {
		defer s.operations.Done()

		select {
		case <-s.Running():
		case <-s.closing:
			s.logger.Info("Store closed before running, operation dropped", logFields)
			return
		}

		ctx := postboard.ContextWithOperationID(context.Background(), operationID)

		s.logger.Debug("Operation started", logFields)

		event, err := call(ctx)
		if err != nil {
			s.logger.Error("Operation failed", err, logFields)
			event = &OperationFailed{
				Operation: operation,
				PostID:    postID,
				Error:     err.Error(),
			}
		}

		if err := s.eventBus.Publish(ctx, event); err != nil {
			s.logger.Error("Cannot publish operation outcome", err, logFields)
		}
	}()

	return operationID
}

// dropOnError logs and acks messages whose handler failed.
func dropOnError(logger watermill.LoggerAdapter) message.HandlerMiddleware {
	return func(h message.HandlerFunc) message.HandlerFunc {
		return func(msg *message.Message) ([]*message.Message, error) {
			msgs, err := h(msg)
			if err != nil {
				logger.Error("Dropping event", err, watermill.LogFields{
					"message_uuid":   msg.UUID,
					"correlation_id": middleware.MessageCorrelationID(msg),
				})
				return nil, nil
			}
			return msgs, nil
		}
	}
}
