package fakeapi_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ThreeDotsLabs/postboard/fakeapi"
	"github.com/ThreeDotsLabs/watermill"
)

func newServer(t *testing.T, posts []fakeapi.StoredPost) (*httptest.Server, *fakeapi.Storage) {
	t.Helper()

	storage := fakeapi.NewStorage(posts)
	router := fakeapi.Router{
		Storage: storage,
		Logger:  watermill.NopLogger{},
	}

	server := httptest.NewServer(router.Mux())
	t.Cleanup(server.Close)

	return server, storage
}

func send(t *testing.T, method, url string, body any) (*http.Response, []byte) {
	t.Helper()

	var reqBody bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&reqBody).Encode(body))
	}

	req, err := http.NewRequest(method, url, &reqBody)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var respBody bytes.Buffer
	_, err = respBody.ReadFrom(resp.Body)
	require.NoError(t, err)

	return resp, respBody.Bytes()
}

var testPosts = []fakeapi.StoredPost{
	{ID: 1, UserID: 1, Title: "A", Body: "B"},
	{ID: 2, UserID: 1, Title: "C", Body: "D"},
}

func TestRouter_ListPosts(t *testing.T) {
	server, _ := newServer(t, testPosts)

	resp, body := send(t, http.MethodGet, server.URL+"/posts", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.JSONEq(t, `[
		{"id":1,"userId":1,"title":"A","body":"B"},
		{"id":2,"userId":1,"title":"C","body":"D"}
	]`, string(body))
}

func TestRouter_GetPost(t *testing.T) {
	server, _ := newServer(t, testPosts)

	resp, body := send(t, http.MethodGet, server.URL+"/posts/2", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"id":2,"userId":1,"title":"C","body":"D"}`, string(body))

	resp, _ = send(t, http.MethodGet, server.URL+"/posts/3", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = send(t, http.MethodGet, server.URL+"/posts/abc", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRouter_CreatePost(t *testing.T) {
	server, storage := newServer(t, testPosts)

	resp, body := send(t, http.MethodPost, server.URL+"/posts", map[string]any{
		"title":  "X",
		"body":   "Y",
		"userId": 1,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.JSONEq(t, `{"id":3,"userId":1,"title":"X","body":"Y"}`, string(body))

	assert.Len(t, storage.All(), 3)
}

func TestRouter_CreatePost_invalid_body(t *testing.T) {
	server, _ := newServer(t, testPosts)

	req, err := http.NewRequest(http.MethodPost, server.URL+"/posts", bytes.NewBufferString("{"))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRouter_UpdatePost(t *testing.T) {
	server, storage := newServer(t, testPosts)

	resp, body := send(t, http.MethodPut, server.URL+"/posts/1", map[string]any{
		"title":  "Z",
		"body":   "W",
		"userId": 1,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"id":1,"userId":1,"title":"Z","body":"W"}`, string(body))

	assert.Equal(t, []fakeapi.StoredPost{
		{ID: 1, UserID: 1, Title: "Z", Body: "W"},
		{ID: 2, UserID: 1, Title: "C", Body: "D"},
	}, storage.All())
}

func TestRouter_UpdatePost_unknown(t *testing.T) {
	server, _ := newServer(t, testPosts)

	resp, _ := send(t, http.MethodPut, server.URL+"/posts/42", map[string]any{"title": "Z", "body": "W"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRouter_DeletePost(t *testing.T) {
	server, storage := newServer(t, testPosts)

	resp, body := send(t, http.MethodDelete, server.URL+"/posts/2", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{}`, string(body))

	assert.Equal(t, []fakeapi.StoredPost{{ID: 1, UserID: 1, Title: "A", Body: "B"}}, storage.All())

	resp, _ = send(t, http.MethodDelete, server.URL+"/posts/2", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
