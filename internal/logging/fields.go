package logging

import "log/slog"

// Domain identifiers

func Room(id string) slog.Attr {
	return slog.String("room_id", id)
}

func Conn(id string) slog.Attr {
	return slog.String("conn_id", id)
}

func FrameType(t string) slog.Attr {
	return slog.String("frame_type", t)
}

// Transport

func Remote(addr string) slog.Attr {
	return slog.String("remote_addr", addr)
}

// Error handling

func Err(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.String("error", err.Error())
}
