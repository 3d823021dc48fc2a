package protocol

import (
	"encoding/json"
	"fmt"
)

// Success acknowledges a create or join.
type Success struct {
	Type        string `json:"type"`
	Message     string `json:"message"`
	MemberCount *int   `json:"memberCount,omitempty"`
}

// Error rejects a command. It is only ever sent to the originating connection.
type Error struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Chat is a relayed chat line.
type Chat struct {
	Type     string `json:"type"`
	Message  string `json:"message"`
	Username string `json:"username"`
}

// MemberCount is pushed to every member of a room when its membership changes.
type MemberCount struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// Message texts. The browser client matches on parts of these strings.
const (
	msgRoomCreated  = "Room %s created successfully"
	msgRoomJoined   = "Joined room %s"
	msgRoomExists   = "Room %s already exists"
	msgRoomNotFound = "Room %s not found"
	msgInvalidFrame = "Invalid message format"
)

// RoomCreated encodes the reply to a successful create.
func RoomCreated(roomID string) []byte {
	return encode(Success{Type: TypeSuccess, Message: fmt.Sprintf(msgRoomCreated, roomID)})
}

// RoomJoined encodes the reply to a successful join.
func RoomJoined(roomID string, memberCount int) []byte {
	return encode(Success{
		Type:        TypeSuccess,
		Message:     fmt.Sprintf(msgRoomJoined, roomID),
		MemberCount: &memberCount,
	})
}

// RoomExists encodes the error for a create on a known room id.
func RoomExists(roomID string) []byte {
	return ErrorFrame(fmt.Sprintf(msgRoomExists, roomID))
}

// RoomNotFound encodes the error for a join on an unknown room id.
func RoomNotFound(roomID string) []byte {
	return ErrorFrame(fmt.Sprintf(msgRoomNotFound, roomID))
}

// InvalidFrame encodes the error for undecodable input.
func InvalidFrame() []byte {
	return ErrorFrame(msgInvalidFrame)
}

// ErrorFrame encodes an error frame with an arbitrary message.
func ErrorFrame(message string) []byte {
	return encode(Error{Type: TypeError, Message: message})
}

// ChatFrame encodes a chat line for fan-out.
func ChatFrame(message, username string) []byte {
	return encode(Chat{Type: TypeChat, Message: message, Username: username})
}

// MemberCountFrame encodes a member-count push.
func MemberCountFrame(count int) []byte {
	return encode(MemberCount{Type: TypeMemberCount, Count: count})
}

// The frame structs only hold strings and ints, so Marshal cannot fail.
func encode(v any) []byte {
	data, _ := json.Marshal(v)
	return data
}
