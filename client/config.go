package client

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ThreeDotsLabs/postboard"
)

const (
	DefaultBaseURL = "https://jsonplaceholder.typicode.com"
	DefaultTimeout = 30 * time.Second
)

type Config struct {
	// BaseURL is the address of the API, without the /posts suffix.
	BaseURL string

	// HTTPClient is used to send requests.
	// If not provided, a client with Timeout is created.
	HTTPClient *http.Client

	// Timeout is applied only when HTTPClient is not provided.
	Timeout time.Duration

	// UserID is sent with every created or updated post.
	UserID int

	// Registerer enables request metrics when set.
	Registerer prometheus.Registerer
}

func (c *Config) setDefaults() {
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")

	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.UserID == 0 {
		c.UserID = postboard.DefaultUserID
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
}

func (c Config) Validate() error {
	var err error

	if c.BaseURL == "" {
		err = multierror.Append(err, errors.New("missing BaseURL"))
	} else if u, parseErr := url.Parse(c.BaseURL); parseErr != nil {
		err = multierror.Append(err, errors.Wrap(parseErr, "invalid BaseURL"))
	} else if u.Scheme != "http" && u.Scheme != "https" {
		err = multierror.Append(err, errors.Errorf("unsupported BaseURL scheme %q", u.Scheme))
	}

	if c.Timeout < 0 {
		err = multierror.Append(err, errors.New("Timeout must be positive"))
	}
	if c.UserID < 0 {
		err = multierror.Append(err, errors.New("UserID must be positive"))
	}

	return err
}
