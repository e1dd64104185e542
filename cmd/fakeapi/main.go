// fakeapi serves an in-memory posts API for local runs of postboard.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"github.com/ThreeDotsLabs/postboard"
	"github.com/ThreeDotsLabs/postboard/fakeapi"
	"github.com/ThreeDotsLabs/watermill"
)

func main() {
	addr := pflag.String("addr", ":8080", "The address to listen on")
	posts := pflag.Int("posts", 100, "The number of generated posts")
	seed := pflag.Int64("seed", 1, "The seed of generated posts")
	debug := pflag.BoolP("debug", "d", false, "If true, every request is logged")
	pflag.Parse()

	logger, err := postboard.NewLogger(postboard.LogConfig{
		Enabled: true,
		Debug:   *debug,
	})
	if err != nil {
		panic(err)
	}

	router := fakeapi.Router{
		Storage: fakeapi.NewStorage(fakeapi.SeedPosts(*posts, *seed)),
		Logger:  logger,
	}

	server := &http.Server{
		Addr:              *addr,
		Handler:           router.Mux(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("Could not shut down server", err, nil)
		}
	}()

	logger.Info("Serving posts", watermill.LogFields{"addr": *addr, "posts": *posts})

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server failed", err, nil)
		os.Exit(1)
	}
}
