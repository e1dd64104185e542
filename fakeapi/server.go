// Package fakeapi serves an in-memory posts API that behaves like jsonplaceholder.
package fakeapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/pkg/errors"

	"github.com/ThreeDotsLabs/watermill"
)

type Router struct {
	Storage *Storage
	Logger  watermill.LoggerAdapter
}

func (router Router) Mux() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(router.logRequest)

	r.Route("/posts", func(r chi.Router) {
		r.Get("/", router.ListPosts)
		r.Post("/", router.CreatePost)
		r.Get("/{id}", router.GetPost)
		r.Put("/{id}", router.UpdatePost)
		r.Delete("/{id}", router.DeletePost)
	})

	return r
}

type PostRequest struct {
	Title  string `json:"title"`
	Body   string `json:"body"`
	UserID int    `json:"userId"`
}

func (router Router) ListPosts(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, router.Storage.All())
}

func (router Router) GetPost(w http.ResponseWriter, r *http.Request) {
	id, ok := postID(r)
	if !ok {
		router.notFound(w, r)
		return
	}

	post, err := router.Storage.ByID(id)
	if err != nil {
		router.notFound(w, r)
		return
	}

	render.JSON(w, r, post)
}

func (router Router) CreatePost(w http.ResponseWriter, r *http.Request) {
	req := PostRequest{}
	if err := render.Decode(r, &req); err != nil {
		router.badRequest(w, r, err)
		return
	}

	post := router.Storage.Add(StoredPost{
		UserID: req.UserID,
		Title:  req.Title,
		Body:   req.Body,
	})

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, post)
}

func (router Router) UpdatePost(w http.ResponseWriter, r *http.Request) {
	id, ok := postID(r)
	if !ok {
		router.notFound(w, r)
		return
	}

	req := PostRequest{}
	if err := render.Decode(r, &req); err != nil {
		router.badRequest(w, r, err)
		return
	}

	post, err := router.Storage.Update(StoredPost{
		ID:     id,
		UserID: req.UserID,
		Title:  req.Title,
		Body:   req.Body,
	})
	if errors.Is(err, ErrPostNotFound) {
		router.notFound(w, r)
		return
	} else if err != nil {
		router.logError(w, err)
		return
	}

	render.JSON(w, r, post)
}

func (router Router) DeletePost(w http.ResponseWriter, r *http.Request) {
	if id, ok := postID(r); ok {
		router.Storage.Delete(id)
	}

	render.JSON(w, r, struct{}{})
}

func postID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		return 0, false
	}
	return id, true
}

func (router Router) notFound(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusNotFound)
	render.JSON(w, r, struct{}{})
}

func (router Router) badRequest(w http.ResponseWriter, r *http.Request, err error) {
	router.Logger.Info("Invalid request body", watermill.LogFields{"err": err.Error()})
	w.WriteHeader(http.StatusBadRequest)
}

func (router Router) logError(w http.ResponseWriter, err error) {
	router.Logger.Error("Error", err, nil)
	w.WriteHeader(http.StatusInternalServerError)
}

func (router Router) logRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		router.Logger.Debug("Request handled", watermill.LogFields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   ww.Status(),
			"duration": time.Since(start).String(),
		})
	})
}
