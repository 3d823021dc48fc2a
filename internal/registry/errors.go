package registry

import "errors"

var (
	// ErrRoomAlreadyExists is returned by CreateRoom for a known room id.
	ErrRoomAlreadyExists = errors.New("room already exists")

	// ErrRoomNotFound is returned by Join for a room that was never created.
	ErrRoomNotFound = errors.New("room not found")
)
