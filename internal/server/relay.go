package server

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Tyrowin/roomrelay/internal/logging"
	"github.com/Tyrowin/roomrelay/internal/protocol"
	"github.com/Tyrowin/roomrelay/internal/registry"
	"github.com/Tyrowin/roomrelay/internal/telemetry"
)

var invalidFrame = protocol.InvalidFrame()

// Relay interprets decoded commands against the registry and replies to the
// originating peer. It holds no per-connection state: a peer is "joined"
// exactly when the registry maps it to a room.
type Relay struct {
	registry *registry.Registry
	tracer   trace.Tracer
}

// NewRelay creates a Relay driving reg.
func NewRelay(reg *registry.Registry) *Relay {
	return &Relay{
		registry: reg,
		tracer:   telemetry.Tracer(),
	}
}

// HandleFrame decodes one inbound frame from peer and applies it. Malformed
// input is answered with an error frame and otherwise ignored.
func (r *Relay) HandleFrame(ctx context.Context, peer registry.Peer, data []byte) {
	log := logging.FromContext(ctx)

	cmd, err := protocol.Decode(data)
	if err != nil {
		log.Warn("invalid frame", logging.Err(err))
		peer.Send(invalidFrame)
		return
	}

	ctx = logging.WithContext(ctx, log.With(logging.FrameType(cmd.Type)))
	ctx, span := r.tracer.Start(ctx, "relay."+cmd.Type,
		trace.WithAttributes(
			attribute.String("relay.frame_type", cmd.Type),
			attribute.String("relay.conn_id", peer.ID()),
		),
	)
	defer span.End()

	switch cmd.Type {
	case protocol.TypeCreate:
		r.create(ctx, span, peer, cmd.RoomID)
	case protocol.TypeJoin:
		r.join(ctx, span, peer, cmd.RoomID)
	case protocol.TypeChat:
		r.chat(ctx, span, peer, cmd.Chat)
	}
}

func (r *Relay) create(ctx context.Context, span trace.Span, peer registry.Peer, roomID string) {
	log := logging.FromContext(ctx).With(logging.Room(roomID))
	span.SetAttributes(attribute.String("relay.room_id", roomID))

	if err := r.registry.CreateRoom(roomID); err != nil {
		recordError(span, err)
		if errors.Is(err, registry.ErrRoomAlreadyExists) {
			log.Info("create rejected: room exists")
			peer.Send(protocol.RoomExists(roomID))
			return
		}
		log.Error("create failed", logging.Err(err))
		peer.Send(protocol.ErrorFrame(err.Error()))
		return
	}

	log.Info("room created by client")
	peer.Send(protocol.RoomCreated(roomID))
}

func (r *Relay) join(ctx context.Context, span trace.Span, peer registry.Peer, roomID string) {
	log := logging.FromContext(ctx).With(logging.Room(roomID))
	span.SetAttributes(attribute.String("relay.room_id", roomID))

	count, err := r.registry.Join(peer, roomID)
	if err != nil {
		recordError(span, err)
		if errors.Is(err, registry.ErrRoomNotFound) {
			log.Info("join rejected: room not found")
			peer.Send(protocol.RoomNotFound(roomID))
			return
		}
		log.Error("join failed", logging.Err(err))
		peer.Send(protocol.ErrorFrame(err.Error()))
		return
	}

	span.SetAttributes(attribute.Int("relay.member_count", count))
	log.Info("client joined room")
	peer.Send(protocol.RoomJoined(roomID, count))
}

// chat fans a chat line out to the sender's room. A sender that has not
// joined a room is ignored.
func (r *Relay) chat(ctx context.Context, span trace.Span, peer registry.Peer, msg protocol.ChatPayload) {
	if !r.registry.Broadcast(peer, protocol.ChatFrame(msg.Message, msg.Username)) {
		span.SetAttributes(attribute.Bool("relay.dropped", true))
		logging.FromContext(ctx).Debug("chat ignored: sender has not joined a room")
	}
}

// Disconnect evicts peer from its room. Client.Close calls it exactly once.
func (r *Relay) Disconnect(ctx context.Context, peer registry.Peer) {
	room, joined := r.registry.RoomOf(peer)
	if !r.registry.Remove(peer) {
		return
	}
	if joined {
		logging.FromContext(ctx).Info("client left room", logging.Room(room),
			"remaining", r.registry.MemberCount(room))
	}
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
