package cmd

import (
	"context"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/viper"

	"github.com/ThreeDotsLabs/postboard/client"
	"github.com/ThreeDotsLabs/postboard/store"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/components/metrics"
)

// app is a running store connected to the configured API.
type app struct {
	store *store.Store

	runErr       chan error
	closeMetrics func()
}

func newApp(ctx context.Context) (*app, error) {
	a := &app{
		runErr:       make(chan error, 1),
		closeMetrics: func() {},
	}

	clientConfig := client.Config{
		BaseURL: viper.GetString("base-url"),
		Timeout: requestTimeout(),
		UserID:  viper.GetInt("user-id"),
	}
	storeConfig := store.Config{}

	if addr := viper.GetString("metrics-addr"); addr != "" {
		var registry *prometheus.Registry
		registry, a.closeMetrics = metrics.CreateRegistryAndServeHTTP(addr)

		clientConfig.Registerer = registry
		storeConfig.Registerer = registry

		logger.Info("Serving metrics", watermill.LogFields{"addr": addr})
	}

	c, err := client.NewClient(clientConfig, logger)
	if err != nil {
		a.closeMetrics()
		return nil, errors.Wrap(err, "could not create API client")
	}

	a.store, err = store.NewStore(c, storeConfig, infrastructureLogger)
	if err != nil {
		a.closeMetrics()
		return nil, errors.Wrap(err, "could not create store")
	}

	go func() {
		a.runErr <- a.store.Run(ctx)
	}()

	select {
	case <-a.store.Running():
	case err := <-a.runErr:
		a.closeMetrics()
		return nil, errors.Wrap(err, "store stopped before running")
	}

	return a, nil
}

func (a *app) Close() error {
	var err error

	if closeErr := a.store.Close(); closeErr != nil {
		err = multierror.Append(err, closeErr)
	}
	a.closeMetrics()

	return err
}

// runOperation starts an operation and waits until its outcome is applied.
// An error is returned when the operation left an error message.
func (a *app) runOperation(ctx context.Context, operation func(s *store.Store) string) (store.State, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout()+5*time.Second)
	defer cancel()

	states, err := a.store.Subscribe(ctx)
	if err != nil {
		return store.State{}, err
	}

	operationID := operation(a.store)
	if operationID == "" {
		return store.State{}, errors.New("store is closed")
	}

	for state := range states {
		if state.LastOperationID != operationID {
			continue
		}

		if state.ErrorMessage != "" {
			return state, errors.New(state.ErrorMessage)
		}
		return state, nil
	}

	return store.State{}, errors.Wrap(ctx.Err(), "operation did not finish")
}
