// Package wstest provides common utilities for testing the relay over real
// WebSocket connections.
//
// It contains helpers shared by the server and command tests: starting a
// relay behind httptest, dialing with an allowed Origin, sending inbound
// frames, and reading outbound frames with deadlines.
package wstest

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// DefaultOrigin is an origin the default configuration allows.
const DefaultOrigin = "http://localhost:8080"

// ReadTimeout bounds every frame read made through this package.
const ReadTimeout = 2 * time.Second

// Frame is a decoded outbound frame. Numeric fields decode as float64.
type Frame map[string]any

// Type returns the frame's type field.
func (f Frame) Type() string {
	s, _ := f["type"].(string)
	return s
}

// String returns the string field key.
func (f Frame) String(key string) string {
	s, _ := f[key].(string)
	return s
}

// Int returns the numeric field key, or -1 when it is absent.
func (f Frame) Int(key string) int {
	n, ok := f[key].(float64)
	if !ok {
		return -1
	}
	return int(n)
}

// WebSocketURL converts an httptest server URL to a ws:// URL for path.
func WebSocketURL(serverURL, path string) string {
	return "ws" + strings.TrimPrefix(serverURL, "http") + path
}

// Dial creates a WebSocket connection to url with DefaultOrigin and
// registers its closure with t.Cleanup.
func Dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()

	conn, err := DialWithOrigin(url, DefaultOrigin)
	if err != nil {
		t.Fatalf("Failed to connect to %s: %v", url, err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// DialWithOrigin creates a WebSocket connection with the given Origin header.
// An empty origin sends no Origin header.
func DialWithOrigin(url, origin string) (*websocket.Conn, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: 5 * time.Second,
	}

	headers := http.Header{}
	if origin != "" {
		headers.Set("Origin", origin)
	}

	conn, resp, err := dialer.Dial(url, headers)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	return conn, err
}

// Send writes an inbound frame with the given type and payload.
func Send(t *testing.T, conn *websocket.Conn, frameType string, payload any) {
	t.Helper()

	frame := map[string]any{"type": frameType, "payload": payload}
	if err := conn.WriteJSON(frame); err != nil {
		t.Fatalf("Failed to send %s frame: %v", frameType, err)
	}
}

// Create sends a create frame for roomID.
func Create(t *testing.T, conn *websocket.Conn, roomID string) {
	t.Helper()
	Send(t, conn, "create", map[string]string{"roomId": roomID})
}

// Join sends a join frame for roomID.
func Join(t *testing.T, conn *websocket.Conn, roomID string) {
	t.Helper()
	Send(t, conn, "join", map[string]string{"roomId": roomID})
}

// Chat sends a chat frame.
func Chat(t *testing.T, conn *websocket.Conn, message, username string) {
	t.Helper()
	Send(t, conn, "chat", map[string]string{"message": message, "username": username})
}

// Read reads the next frame, failing the test after ReadTimeout.
func Read(t *testing.T, conn *websocket.Conn) Frame {
	t.Helper()

	if err := conn.SetReadDeadline(time.Now().Add(ReadTimeout)); err != nil {
		t.Fatalf("Failed to set read deadline: %v", err)
	}
	messageType, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("Failed to read frame: %v", err)
	}
	if messageType != websocket.TextMessage {
		t.Fatalf("Expected text message, got type %d", messageType)
	}

	var frame Frame
	if err := json.Unmarshal(data, &frame); err != nil {
		t.Fatalf("Frame %q is not a single JSON object: %v", data, err)
	}
	return frame
}

// Expect reads the next frame and fails unless its type is frameType.
func Expect(t *testing.T, conn *websocket.Conn, frameType string) Frame {
	t.Helper()

	frame := Read(t, conn)
	if frame.Type() != frameType {
		t.Fatalf("Expected %s frame, got %v", frameType, frame)
	}
	return frame
}

// ExpectMemberCount reads the next frame and fails unless it is a
// memberCount push with the given count.
func ExpectMemberCount(t *testing.T, conn *websocket.Conn, count int) {
	t.Helper()

	frame := Expect(t, conn, "memberCount")
	if got := frame.Int("count"); got != count {
		t.Fatalf("Expected memberCount %d, got %d", count, got)
	}
}

// ExpectNone fails if any frame arrives within timeout. A timed-out read
// leaves conn unusable for further reads, so call it last.
func ExpectNone(t *testing.T, conn *websocket.Conn, timeout time.Duration) {
	t.Helper()

	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		t.Fatalf("Failed to set read deadline: %v", err)
	}
	if _, data, err := conn.ReadMessage(); err == nil {
		t.Fatalf("Expected no frame, got %s", data)
	}
}

// CloseGracefully sends a normal-closure close frame and closes conn.
func CloseGracefully(conn *websocket.Conn) error {
	err := conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	if err != nil {
		return err
	}
	return conn.Close()
}
