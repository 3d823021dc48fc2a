// Package server tracks every live connection through the Hub type so the
// relay can start their pumps and tear them all down on shutdown.
package server

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/Tyrowin/roomrelay/internal/logging"
)

// ErrHubClosed is returned by Register once Shutdown has started.
var ErrHubClosed = errors.New("hub is shutting down")

// Hub owns the set of live connections, joined or not, and the goroutines
// that pump them. Room membership is not tracked here.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	closing bool
	wg      sync.WaitGroup
	log     *slog.Logger
}

// NewHub creates an empty Hub.
func NewHub(log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		clients: make(map[*Client]struct{}),
		log:     log.With(slog.String("component", "hub")),
	}
}

// Register adds client to the hub and launches its read and write pumps.
func (h *Hub) Register(client *Client) error {
	if client == nil {
		return errors.New("nil client")
	}

	h.mu.Lock()
	if h.closing {
		h.mu.Unlock()
		return ErrHubClosed
	}
	h.clients[client] = struct{}{}
	clientCount := len(h.clients)
	h.wg.Add(2)
	h.mu.Unlock()

	h.log.Info("client registered", logging.Conn(client.id), logging.Remote(client.addr), slog.Int("clients", clientCount))

	go func() {
		defer h.wg.Done()
		client.writePump()
	}()
	go func() {
		defer h.wg.Done()
		client.readPump()
	}()
	return nil
}

// unregister drops client from the hub. It is only called from Client.Close.
func (h *Hub) unregister(client *Client) {
	h.mu.Lock()
	_, ok := h.clients[client]
	delete(h.clients, client)
	clientCount := len(h.clients)
	h.mu.Unlock()

	if ok {
		h.log.Info("client unregistered", logging.Conn(client.id), logging.Remote(client.addr), slog.Int("clients", clientCount))
	}
}

// ClientCount returns the number of live connections.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// shutdownClients closes every live connection; each read pump then runs
// its client's close path.
func (h *Hub) shutdownClients() int {
	h.mu.Lock()
	h.closing = true
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.Unlock()

	for _, client := range clients {
		if client.conn == nil {
			continue
		}
		if err := client.conn.Close(); err != nil && !isExpectedCloseError(err) {
			h.log.Warn("error closing client connection", logging.Conn(client.id), logging.Err(err))
		}
	}
	return len(clients)
}

// Shutdown closes all client connections and waits for their goroutines to
// finish, or until the timeout is reached.
func (h *Hub) Shutdown(timeout time.Duration) error {
	h.log.Info("initiating hub shutdown")

	closed := h.shutdownClients()
	h.log.Info("closed client connections", slog.Int("count", closed))

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		h.log.Info("hub shutdown completed successfully")
		return nil
	case <-time.After(timeout):
		h.log.Warn("hub shutdown timeout reached, some goroutines may still be running")
		return context.DeadlineExceeded
	}
}
