package protocol

import (
	"encoding/json"
	"errors"
	"testing"
)

// TestDecode covers every inbound frame type and the malformed cases that
// must be rejected without touching any state.
func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Command
		wantErr bool
	}{
		{
			name:  "create",
			input: `{"type":"create","payload":{"roomId":"ABCD"}}`,
			want:  Command{Type: TypeCreate, RoomID: "ABCD"},
		},
		{
			name:  "join trims room id",
			input: `{"type":"join","payload":{"roomId":"  ABCD "}}`,
			want:  Command{Type: TypeJoin, RoomID: "ABCD"},
		},
		{
			name:  "chat",
			input: `{"type":"chat","payload":{"message":"hi","username":"alice"}}`,
			want:  Command{Type: TypeChat, Chat: ChatPayload{Message: "hi", Username: "alice"}},
		},
		{
			name:  "chat with empty message",
			input: `{"type":"chat","payload":{"message":"","username":"alice"}}`,
			want:  Command{Type: TypeChat, Chat: ChatPayload{Username: "alice"}},
		},
		{name: "not json", input: `hello`, wantErr: true},
		{name: "json array", input: `[1,2]`, wantErr: true},
		{name: "missing type", input: `{"payload":{"roomId":"A"}}`, wantErr: true},
		{name: "unknown type", input: `{"type":"leave","payload":{}}`, wantErr: true},
		{name: "missing payload", input: `{"type":"join"}`, wantErr: true},
		{name: "payload not object", input: `{"type":"chat","payload":"hi"}`, wantErr: true},
		{name: "empty room id", input: `{"type":"create","payload":{"roomId":"   "}}`, wantErr: true},
		{name: "room id wrong type", input: `{"type":"join","payload":{"roomId":42}}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode([]byte(tt.input))
			if tt.wantErr {
				if !errors.Is(err, ErrMalformedFrame) {
					t.Fatalf("Decode(%s) error = %v, want ErrMalformedFrame", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Decode(%s) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("Decode(%s) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

// TestOutboundFrames checks the field names the browser client reads.
func TestOutboundFrames(t *testing.T) {
	tests := []struct {
		name  string
		frame []byte
		want  map[string]any
	}{
		{
			name:  "room created",
			frame: RoomCreated("ABCD"),
			want:  map[string]any{"type": "success", "message": "Room ABCD created successfully"},
		},
		{
			name:  "room joined",
			frame: RoomJoined("ABCD", 2),
			want:  map[string]any{"type": "success", "message": "Joined room ABCD", "memberCount": float64(2)},
		},
		{
			name:  "room exists",
			frame: RoomExists("ABCD"),
			want:  map[string]any{"type": "error", "message": "Room ABCD already exists"},
		},
		{
			name:  "room not found",
			frame: RoomNotFound("XYZ"),
			want:  map[string]any{"type": "error", "message": "Room XYZ not found"},
		},
		{
			name:  "invalid frame",
			frame: InvalidFrame(),
			want:  map[string]any{"type": "error", "message": "Invalid message format"},
		},
		{
			name:  "chat",
			frame: ChatFrame("hi", "alice"),
			want:  map[string]any{"type": "chat", "message": "hi", "username": "alice"},
		},
		{
			name:  "member count",
			frame: MemberCountFrame(3),
			want:  map[string]any{"type": "memberCount", "count": float64(3)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got map[string]any
			if err := json.Unmarshal(tt.frame, &got); err != nil {
				t.Fatalf("frame is not valid JSON: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Errorf("got fields %v, want %v", got, tt.want)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("field %q = %v, want %v", k, got[k], v)
				}
			}
		})
	}
}
