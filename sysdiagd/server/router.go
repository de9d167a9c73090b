package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.MiddlewareLogger)
	r.Get("/", s.HandlerHealth)
	r.Get("/version", s.HandlerVersion)
	r.Post("/shutdown", s.HandlerShutdown)
	r.Post("/api/collecte", s.HandlerSubmit)
	r.Get("/api/diagnostic/{taskId}", s.HandlerReport)
	r.Post("/api/chat/{taskId}", s.HandlerChat)
	return r
}
