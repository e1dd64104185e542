package store_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ThreeDotsLabs/postboard"
	"github.com/ThreeDotsLabs/postboard/store"
	"github.com/ThreeDotsLabs/watermill"
)

const stateTimeout = 5 * time.Second

type apiMock struct {
	lock sync.Mutex

	Listed  []postboard.Post
	Created postboard.Post
	Updated postboard.Post
	Err     error

	Inputs     []postboard.PostInput
	UpdatedIDs []int
	DeletedIDs []int
}

func (a *apiMock) ListPosts(ctx context.Context) ([]postboard.Post, error) {
	a.lock.Lock()
	defer a.lock.Unlock()

	if a.Err != nil {
		return nil, a.Err
	}
	return postboard.ClonePosts(a.Listed), nil
}

func (a *apiMock) CreatePost(ctx context.Context, input postboard.PostInput) (postboard.Post, error) {
	a.lock.Lock()
	defer a.lock.Unlock()

	a.Inputs = append(a.Inputs, input)
	if a.Err != nil {
		return postboard.Post{}, a.Err
	}
	return a.Created, nil
}

func (a *apiMock) UpdatePost(ctx context.Context, postID int, input postboard.PostInput) (postboard.Post, error) {
	a.lock.Lock()
	defer a.lock.Unlock()

	a.Inputs = append(a.Inputs, input)
	a.UpdatedIDs = append(a.UpdatedIDs, postID)
	if a.Err != nil {
		return postboard.Post{}, a.Err
	}
	return a.Updated, nil
}

func (a *apiMock) DeletePost(ctx context.Context, postID int) error {
	a.lock.Lock()
	defer a.lock.Unlock()

	a.DeletedIDs = append(a.DeletedIDs, postID)
	return a.Err
}

func (a *apiMock) SetErr(err error) {
	a.lock.Lock()
	defer a.lock.Unlock()

	a.Err = err
}

func newStore(t *testing.T, api store.API, config store.Config) *store.Store {
	t.Helper()

	if config.CloseTimeout == 0 {
		config.CloseTimeout = time.Second
	}

	s, err := store.NewStore(api, config, watermill.NewStdLogger(false, false))
	require.NoError(t, err)

	return s
}

func runStore(t *testing.T, s *store.Store) {
	t.Helper()

	go func() {
		assert.NoError(t, s.Run(context.Background()))
	}()

	select {
	case <-s.Running():
	case <-time.After(stateTimeout):
		t.Fatal("store is not running")
	}
}

// startStore runs a store and subscribes to its state.
func startStore(t *testing.T, api store.API) (*store.Store, <-chan store.State) {
	t.Helper()

	s := newStore(t, api, store.Config{})
	runStore(t, s)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		cancel()
		assert.NoError(t, s.Close())
	})

	states, err := s.Subscribe(ctx)
	require.NoError(t, err)

	return s, states
}

func waitForOperation(t *testing.T, states <-chan store.State, operationID string) store.State {
	t.Helper()
	require.NotEmpty(t, operationID)

	timeout := time.After(stateTimeout)
	for {
		select {
		case state, ok := <-states:
			require.True(t, ok, "states channel closed")
			if state.LastOperationID == operationID {
				return state
			}
		case <-timeout:
			t.Fatalf("operation %s was not applied", operationID)
		}
	}
}

func fetched(t *testing.T, s *store.Store, states <-chan store.State) store.State {
	t.Helper()
	return waitForOperation(t, states, s.FetchPosts())
}

func TestStore_FetchPosts(t *testing.T) {
	api := &apiMock{Listed: []postboard.Post{{ID: 1, Title: "A", Body: "B"}}}
	s, states := startStore(t, api)

	state := fetched(t, s, states)

	assert.Equal(t, []postboard.Post{{ID: 1, Title: "A", Body: "B"}}, state.Posts)
	assert.Empty(t, state.ErrorMessage)
	assert.EqualValues(t, 1, state.Revision)
	assert.Equal(t, store.OperationFetch, state.LastOperation)

	assert.Equal(t, state, s.State())
	assert.Equal(t, state.Posts, s.Posts())
}

func TestStore_FetchPosts_overwrites(t *testing.T) {
	api := &apiMock{Listed: []postboard.Post{{ID: 1, Title: "A", Body: "B"}, {ID: 2, Title: "C", Body: "D"}}}
	s, states := startStore(t, api)

	fetched(t, s, states)

	api.lock.Lock()
	api.Listed = []postboard.Post{{ID: 3, Title: "E", Body: "F"}}
	api.lock.Unlock()

	state := fetched(t, s, states)
	assert.Equal(t, []postboard.Post{{ID: 3, Title: "E", Body: "F"}}, state.Posts)
}

func TestStore_CreatePost(t *testing.T) {
	api := &apiMock{
		Listed:  []postboard.Post{{ID: 1, Title: "A", Body: "B"}},
		Created: postboard.Post{ID: 101, Title: "X", Body: "Y"},
	}
	s, states := startStore(t, api)

	fetched(t, s, states)

	state := waitForOperation(t, states, s.CreatePost("X", "Y"))

	assert.Equal(t, []postboard.Post{
		{ID: 1, Title: "A", Body: "B"},
		{ID: 101, Title: "X", Body: "Y"},
	}, state.Posts)
	assert.Equal(t, store.OperationCreate, state.LastOperation)
	assert.Equal(t, []postboard.PostInput{{Title: "X", Body: "Y"}}, api.Inputs)
}

func TestStore_UpdatePost(t *testing.T) {
	api := &apiMock{
		Listed:  []postboard.Post{{ID: 1, Title: "A", Body: "B"}, {ID: 2, Title: "C", Body: "D"}},
		Updated: postboard.Post{ID: 1, Title: "Z", Body: "W"},
	}
	s, states := startStore(t, api)

	fetched(t, s, states)

	state := waitForOperation(t, states, s.UpdatePost(1, "Z", "W"))

	assert.Equal(t, []postboard.Post{
		{ID: 1, Title: "Z", Body: "W"},
		{ID: 2, Title: "C", Body: "D"},
	}, state.Posts)
	assert.Equal(t, []int{1}, api.UpdatedIDs)
}

func TestStore_UpdatePost_absent(t *testing.T) {
	api := &apiMock{
		Listed:  []postboard.Post{{ID: 1, Title: "A", Body: "B"}},
		Updated: postboard.Post{ID: 5, Title: "Z", Body: "W"},
	}
	s, states := startStore(t, api)

	before := fetched(t, s, states)

	state := waitForOperation(t, states, s.UpdatePost(5, "Z", "W"))

	assert.Equal(t, before.Posts, state.Posts)
	assert.Empty(t, state.ErrorMessage)
	assert.Equal(t, before.Revision+1, state.Revision)
}

func TestStore_DeletePost(t *testing.T) {
	testCases := []struct {
		Name     string
		PostID   int
		Expected []postboard.Post
	}{
		{
			Name:     "present",
			PostID:   2,
			Expected: []postboard.Post{{ID: 1, Title: "A", Body: "B"}},
		},
		{
			Name:     "absent",
			PostID:   3,
			Expected: []postboard.Post{{ID: 1, Title: "A", Body: "B"}, {ID: 2, Title: "C", Body: "D"}},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			api := &apiMock{Listed: []postboard.Post{{ID: 1, Title: "A", Body: "B"}, {ID: 2, Title: "C", Body: "D"}}}
			s, states := startStore(t, api)

			fetched(t, s, states)

			state := waitForOperation(t, states, s.DeletePost(tc.PostID))

			assert.Equal(t, tc.Expected, state.Posts)
			assert.Equal(t, []int{tc.PostID}, api.DeletedIDs)
		})
	}
}

func TestStore_failure_keeps_posts(t *testing.T) {
	api := &apiMock{
		Listed:  []postboard.Post{{ID: 1, Title: "A", Body: "B"}},
		Created: postboard.Post{ID: 101, Title: "X", Body: "Y"},
	}
	s, states := startStore(t, api)

	before := fetched(t, s, states)

	api.SetErr(errors.New("dial tcp: connection refused"))

	operations := map[string]func() string{
		"fetch":  s.FetchPosts,
		"create": func() string { return s.CreatePost("X", "Y") },
		"update": func() string { return s.UpdatePost(1, "Z", "W") },
		"delete": func() string { return s.DeletePost(1) },
	}

	for name, operation := range operations {
		state := waitForOperation(t, states, operation())

		assert.Equal(t, before.Posts, state.Posts, name)
		assert.Equal(t, "dial tcp: connection refused", state.ErrorMessage, name)
	}
}

func TestStore_error_message_lifecycle(t *testing.T) {
	api := &apiMock{
		Listed:  []postboard.Post{{ID: 1, Title: "A", Body: "B"}},
		Created: postboard.Post{ID: 101, Title: "X", Body: "Y"},
		Err:     errors.New("no data received"),
	}
	s, states := startStore(t, api)

	state := fetched(t, s, states)
	assert.Equal(t, "no data received", state.ErrorMessage)
	assert.Equal(t, store.OperationFetch, state.LastOperation)

	api.SetErr(nil)

	// success does not clear the message
	state = waitForOperation(t, states, s.CreatePost("X", "Y"))
	assert.Equal(t, "no data received", state.ErrorMessage)
	assert.Len(t, state.Posts, 1)

	state = waitForOperation(t, states, s.DismissError())
	assert.Empty(t, state.ErrorMessage)
	assert.Equal(t, store.OperationDismiss, state.LastOperation)
	assert.Empty(t, s.ErrorMessage())
}

func TestStore_revisions_in_order(t *testing.T) {
	api := &apiMock{Created: postboard.Post{ID: 101, Title: "X", Body: "Y"}}
	s, states := startStore(t, api)

	operations := 20
	operationIDs := map[string]struct{}{}
	for i := 0; i < operations; i++ {
		operationIDs[s.CreatePost("X", "Y")] = struct{}{}
	}

	for i := 1; i <= operations; i++ {
		select {
		case state := <-states:
			assert.EqualValues(t, i, state.Revision)
			assert.Len(t, state.Posts, i)
			assert.Contains(t, operationIDs, state.LastOperationID)
		case <-time.After(stateTimeout):
			t.Fatalf("revision %d not received", i)
		}
	}
}

func TestStore_multiple_subscribers(t *testing.T) {
	api := &apiMock{Listed: []postboard.Post{{ID: 1, Title: "A", Body: "B"}}}
	s, states := startStore(t, api)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	otherStates, err := s.Subscribe(ctx)
	require.NoError(t, err)

	operationID := s.FetchPosts()

	first := waitForOperation(t, states, operationID)
	second := waitForOperation(t, otherStates, operationID)

	assert.Equal(t, first, second)
}

func TestStore_operation_before_run(t *testing.T) {
	api := &apiMock{Listed: []postboard.Post{{ID: 1, Title: "A", Body: "B"}}}
	s := newStore(t, api, store.Config{})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		cancel()
		assert.NoError(t, s.Close())
	})

	states, err := s.Subscribe(ctx)
	require.NoError(t, err)

	operationID := s.FetchPosts()

	runStore(t, s)

	state := waitForOperation(t, states, operationID)
	assert.Len(t, state.Posts, 1)
}

func TestStore_Close(t *testing.T) {
	api := &apiMock{}
	s := newStore(t, api, store.Config{})
	runStore(t, s)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	assert.Empty(t, s.FetchPosts())
	assert.Empty(t, s.Posts())
}

func TestStore_metrics(t *testing.T) {
	api := &apiMock{}
	reg := prometheus.NewRegistry()

	s := newStore(t, api, store.Config{Registerer: reg})
	runStore(t, s)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		cancel()
		assert.NoError(t, s.Close())
	})

	states, err := s.Subscribe(ctx)
	require.NoError(t, err)

	waitForOperation(t, states, s.FetchPosts())

	// the router records handler metrics after the handler returns
	assert.Eventually(t, func() bool {
		families, err := reg.Gather()
		if err != nil {
			return false
		}

		names := map[string]bool{}
		for _, f := range families {
			names[f.GetName()] = true
		}

		return names["postboard_store_handler_execution_time_seconds"] &&
			names["postboard_store_subscriber_messages_received_total"]
	}, stateTimeout, 10*time.Millisecond)
}

func TestNewStore_invalid(t *testing.T) {
	_, err := store.NewStore(nil, store.Config{}, nil)
	assert.Error(t, err)

	_, err = store.NewStore(&apiMock{}, store.Config{CloseTimeout: -1}, nil)
	assert.Error(t, err)
}
