package server

import (
	"github.com/example/go-chatapp/internal/chat"
	"github.com/example/go-chatapp/internal/types"
)

// ClientFrame is the envelope for inbound websocket frames. Exactly one of
// the event fields is set.
type ClientFrame struct {
	Connect     *StatusChange `json:"connect,omitempty"`
	Disconnect  *StatusChange `json:"disconnect,omitempty"`
	Publish     *Publish      `json:"publish,omitempty"`
	Private     *Private      `json:"private,omitempty"`
	Subscribe   *Subscribe    `json:"subscribe,omitempty"`
	Unsubscribe *Subscribe    `json:"unsubscribe,omitempty"`
}

// StatusChange announces a presence change. The username is informational;
// the authenticated session identity wins.
type StatusChange struct {
	Username string `json:"username"`
}

// Publish submits a message to the public room.
type Publish struct {
	Message types.Message `json:"message"`
}

// Private submits a message to one pair room. RoomId is the transport
// route; the room id inside the message payload is not trusted.
type Private struct {
	RoomId  string        `json:"room_id"`
	Message types.Message `json:"message"`
}

type Subscribe struct {
	Topic string `json:"topic"`
}

// ServerFrame is the envelope for outbound frames: a payload tagged with
// the topic it was published on, or an error.
type ServerFrame struct {
	Topic     string `json:"topic,omitempty"`
	Timestamp string `json:"timestamp"`
	Payload   any    `json:"payload,omitempty"`
	Error     string `json:"error,omitempty"`
}

func ErrInvalidFrame() *ServerFrame {
	return &ServerFrame{
		Timestamp: chat.Now(),
		Error:     "invalid frame format",
	}
}
