package server

import (
	"context"
	"testing"

	"github.com/Tyrowin/roomrelay/internal/logging"
	"github.com/Tyrowin/roomrelay/internal/protocol"
	"github.com/Tyrowin/roomrelay/internal/registry"
)

func newDetachedClient(relay *Relay, sendBuffer int) *Client {
	ctx := logging.WithContext(context.Background(), logging.Discard())
	return NewClient(ctx, nil, NewHub(logging.Discard()), relay, "127.0.0.1:12345", 512, sendBuffer)
}

func TestNewClientAssignsDistinctIDs(t *testing.T) {
	a := newDetachedClient(nil, 1)
	b := newDetachedClient(nil, 1)

	if a.ID() == "" || b.ID() == "" {
		t.Fatal("expected non-empty client ids")
	}
	if a.ID() == b.ID() {
		t.Errorf("expected distinct ids, both were %s", a.ID())
	}
	if a.Addr() != "127.0.0.1:12345" {
		t.Errorf("Addr() = %q", a.Addr())
	}
}

func TestClientSendDropsWhenBufferFull(t *testing.T) {
	client := newDetachedClient(nil, 2)

	if !client.Send([]byte("one")) || !client.Send([]byte("two")) {
		t.Fatal("expected the first two frames to be queued")
	}
	if client.Send([]byte("three")) {
		t.Error("expected the third frame to be dropped")
	}

	ch := client.GetSendChan()
	if got := string(<-ch); got != "one" {
		t.Errorf("first queued frame = %q, want one", got)
	}
	if got := string(<-ch); got != "two" {
		t.Errorf("second queued frame = %q, want two", got)
	}
}

func TestClientSendAfterClose(t *testing.T) {
	client := newDetachedClient(nil, 4)
	client.Close()

	if !client.IsClosed() {
		t.Fatal("expected client to be closed")
	}
	if client.Send([]byte("late")) {
		t.Error("expected Send on a closed client to report failure")
	}
	if _, ok := <-client.GetSendChan(); ok {
		t.Error("expected send channel to be closed")
	}
}

func TestClientCloseEvictsMembershipOnce(t *testing.T) {
	reg := registry.New(protocol.MemberCountFrame, logging.Discard())
	relay := NewRelay(reg)
	if err := reg.CreateRoom("ABCD"); err != nil {
		t.Fatal(err)
	}

	client := newDetachedClient(relay, 8)
	other := &recordingPeer{id: "other"}
	if _, err := reg.Join(client, "ABCD"); err != nil {
		t.Fatal(err)
	}
	if _, err := reg.Join(other, "ABCD"); err != nil {
		t.Fatal(err)
	}
	other.take()

	client.Close()
	client.Close()

	if got := reg.MemberCount("ABCD"); got != 1 {
		t.Errorf("MemberCount = %d, want 1", got)
	}
	expectFrames(t, other, map[string]any{"type": "memberCount", "count": float64(1)})
}
