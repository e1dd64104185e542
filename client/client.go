// Package client talks to a jsonplaceholder-style posts API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/pkg/errors"

	"github.com/ThreeDotsLabs/postboard"
	"github.com/ThreeDotsLabs/watermill"
)

var (
	ErrNoData        = errors.New("no data received")
	ErrDecode        = errors.New("could not decode response")
	ErrEncode        = errors.New("could not encode request")
	ErrErrorResponse = errors.New("server responded with error status")
)

const postsPath = "/posts"

type Client struct {
	config Config
	logger watermill.LoggerAdapter
}

// NewClient creates a new Client.
// Every method sends exactly one request and never retries.
func NewClient(config Config, logger watermill.LoggerAdapter) (*Client, error) {
	config.setDefaults()
	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid Client config")
	}

	if logger == nil {
		logger = watermill.NopLogger{}
	}

	if config.Registerer != nil {
		httpClient, err := instrumentTransport(config.HTTPClient, config.Registerer)
		if err != nil {
			return nil, err
		}
		config.HTTPClient = httpClient
	}

	return &Client{
		config: config,
		logger: logger.With(watermill.LogFields{"base_url": config.BaseURL}),
	}, nil
}

func (c *Client) ListPosts(ctx context.Context) ([]postboard.Post, error) {
	var posts []postboard.Post
	if err := c.do(ctx, http.MethodGet, postsPath, nil, &posts); err != nil {
		return nil, err
	}

	return posts, nil
}

func (c *Client) CreatePost(ctx context.Context, input postboard.PostInput) (postboard.Post, error) {
	var post postboard.Post
	if err := c.do(ctx, http.MethodPost, postsPath, c.withUserID(input), &post); err != nil {
		return postboard.Post{}, err
	}

	return post, nil
}

func (c *Client) UpdatePost(ctx context.Context, postID int, input postboard.PostInput) (postboard.Post, error) {
	var post postboard.Post
	if err := c.do(ctx, http.MethodPut, postPath(postID), c.withUserID(input), &post); err != nil {
		return postboard.Post{}, err
	}

	return post, nil
}

// DeletePost ignores the response body.
func (c *Client) DeletePost(ctx context.Context, postID int) error {
	return c.do(ctx, http.MethodDelete, postPath(postID), nil, nil)
}

func (c *Client) withUserID(input postboard.PostInput) postboard.PostInput {
	if input.UserID == 0 {
		input.UserID = c.config.UserID
	}
	return input
}

func postPath(postID int) string {
	return postsPath + "/" + strconv.Itoa(postID)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(ErrEncode, err.Error())
		}
		body = bytes.NewReader(payload)
	}

	url := c.config.BaseURL + path

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return errors.Wrapf(err, "cannot create %s %s request", method, url)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	logFields := watermill.LogFields{
		"method": method,
		"url":    url,
	}
	if operationID, ok := postboard.OperationIDFromContext(ctx); ok {
		logFields["operation_id"] = operationID
	}

	c.logger.Trace("Sending request", logFields)

	resp, err := c.config.HTTPClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s failed", method, url)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrapf(err, "could not read response of %s %s", method, url)
	}

	logFields = logFields.Add(watermill.LogFields{"http_status": resp.StatusCode})

	if resp.StatusCode >= http.StatusBadRequest {
		c.logger.Info("Server responded with error", logFields.Add(watermill.LogFields{
			"http_response": string(respBody),
		}))
		return errors.Wrap(ErrErrorResponse, resp.Status)
	}

	c.logger.Trace("Response received", logFields)

	if out == nil {
		return nil
	}

	if len(bytes.TrimSpace(respBody)) == 0 {
		return ErrNoData
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return errors.Wrap(ErrDecode, err.Error())
	}

	return nil
}
