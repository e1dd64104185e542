package store

import (
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	eventsTopic = "posts.events"
	stateTopic  = "posts.state"

	handlerGroupName = "post-store"
)

type Config struct {
	// CloseTimeout bounds how long Close waits for in-flight requests
	// and for the router to stop.
	CloseTimeout time.Duration

	// SubscriberBuffer is the size of channels returned by Subscribe.
	SubscriberBuffer int

	// Registerer enables router metrics when set.
	Registerer prometheus.Registerer
}

func (c *Config) setDefaults() {
	if c.CloseTimeout == 0 {
		c.CloseTimeout = 10 * time.Second
	}
}

func (c Config) Validate() error {
	var err error

	if c.CloseTimeout < 0 {
		err = multierror.Append(err, errors.New("CloseTimeout must be positive"))
	}
	if c.SubscriberBuffer < 0 {
		err = multierror.Append(err, errors.New("SubscriberBuffer must be positive"))
	}

	return err
}
