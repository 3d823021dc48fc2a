// Package server assembles the relay from its configuration and an injected
// registry.
package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Tyrowin/roomrelay/internal/config"
	"github.com/Tyrowin/roomrelay/internal/logging"
	"github.com/Tyrowin/roomrelay/internal/registry"
)

// Server is the relay: it upgrades connections, hands each one to the hub,
// and routes their frames through the relay into the registry.
type Server struct {
	cfg      *config.Config
	registry *registry.Registry
	relay    *Relay
	hub      *Hub
	origins  *originPolicy
	upgrader websocket.Upgrader
	baseCtx  context.Context
	log      *slog.Logger
}

// New creates a Server for cfg driving reg. The caller owns reg; it is shared
// by every connection the server accepts.
func New(cfg *config.Config, reg *registry.Registry, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}

	s := &Server{
		cfg:      cfg,
		registry: reg,
		relay:    NewRelay(reg),
		hub:      NewHub(log),
		origins:  newOriginPolicy(cfg.AllowedOrigins, log),
		baseCtx:  logging.WithContext(context.Background(), log),
		log:      log,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.origins.checkOrigin,
	}
	return s
}

// Hub returns the server's hub of live connections.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Registry returns the registry the server drives.
func (s *Server) Registry() *registry.Registry {
	return s.registry
}

// Shutdown closes every live connection and waits for their pumps.
func (s *Server) Shutdown(timeout time.Duration) error {
	return s.hub.Shutdown(timeout)
}
