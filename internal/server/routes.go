// Package server wires HTTP handlers into a gorilla/mux router.
package server

import (
	"net/http"

	"github.com/gorilla/mux"
)

// Routes configures and returns the router with all application routes and
// the request logging and tracing middleware.
func (s *Server) Routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(requestLogger(s.log), tracer())

	r.HandleFunc("/", s.RootHandler)
	r.HandleFunc("/ws", s.WebSocketHandler)
	r.HandleFunc("/health", s.StatusHandler).Methods(http.MethodGet)
	r.HandleFunc("/rooms", s.RoomsHandler).Methods(http.MethodGet)
	return r
}
