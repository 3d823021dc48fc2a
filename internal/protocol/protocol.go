// Package protocol defines the JSON frames exchanged between relay clients
// and the server, and the decoding rules applied to inbound frames.
package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Inbound frame types.
const (
	TypeCreate = "create"
	TypeJoin   = "join"
	TypeChat   = "chat"
)

// Outbound frame types. TypeChat is shared with the inbound set.
const (
	TypeSuccess     = "success"
	TypeError       = "error"
	TypeMemberCount = "memberCount"
)

// ErrMalformedFrame is returned by Decode for input that is not a valid
// inbound frame.
var ErrMalformedFrame = errors.New("malformed frame")

// Frame is the envelope every inbound message arrives in.
type Frame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// RoomPayload carries the room id of create and join frames.
type RoomPayload struct {
	RoomID string `json:"roomId"`
}

// ChatPayload carries the body of a chat frame.
type ChatPayload struct {
	Message  string `json:"message"`
	Username string `json:"username"`
}

// Command is a decoded inbound frame. RoomID is set for create and join,
// Chat for chat.
type Command struct {
	Type   string
	RoomID string
	Chat   ChatPayload
}

// Decode parses one inbound frame. Every failure wraps ErrMalformedFrame.
func Decode(data []byte) (Command, error) {
	var frame Frame
	if err := json.Unmarshal(data, &frame); err != nil {
		return Command{}, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}

	switch frame.Type {
	case TypeCreate, TypeJoin:
		var p RoomPayload
		if err := decodePayload(frame.Payload, &p); err != nil {
			return Command{}, err
		}
		roomID := strings.TrimSpace(p.RoomID)
		if roomID == "" {
			return Command{}, fmt.Errorf("%w: %s frame without roomId", ErrMalformedFrame, frame.Type)
		}
		return Command{Type: frame.Type, RoomID: roomID}, nil

	case TypeChat:
		var p ChatPayload
		if err := decodePayload(frame.Payload, &p); err != nil {
			return Command{}, err
		}
		return Command{Type: TypeChat, Chat: p}, nil

	case "":
		return Command{}, fmt.Errorf("%w: missing type", ErrMalformedFrame)

	default:
		return Command{}, fmt.Errorf("%w: unknown type %q", ErrMalformedFrame, frame.Type)
	}
}

func decodePayload(raw json.RawMessage, v any) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return fmt.Errorf("%w: payload must be an object", ErrMalformedFrame)
	}
	if err := json.Unmarshal(trimmed, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	return nil
}
