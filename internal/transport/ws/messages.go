package ws

import "encoding/json"

// Event types on the realtime channel.
const (
	// client -> server
	EventJoinRoom   = "join-room"
	EventCursorMove = "cursor-move" // also server -> client, different payload

	// bidirectional: client payload is re-broadcast verbatim to peers
	EventDrawStart   = "draw-start"
	EventDrawMove    = "draw-move"
	EventDrawEnd     = "draw-end"
	EventClearCanvas = "clear-canvas"

	// server -> client
	EventRoomInfo   = "room-info"
	EventUserJoined = "user-joined"
	EventUserLeft   = "user-left"
)

type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

type JoinRoomPayload struct {
	RoomID string `json:"roomId"`
}

type DrawStartPayload struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Color     string  `json:"color"`
	LineWidth float64 `json:"lineWidth"`
}

type DrawMovePayload struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type CursorMovePayload struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type RoomInfoPayload struct {
	UserCount int    `json:"userCount"`
	UserID    string `json:"userId"`
	Color     string `json:"color"`
}

type UserJoinedPayload struct {
	UserID    string `json:"userId"`
	UserCount int    `json:"userCount"`
	Color     string `json:"color"`
}

type UserLeftPayload struct {
	UserID    string `json:"userId"`
	UserCount int    `json:"userCount"`
}

type CursorBroadcastPayload struct {
	UserID string  `json:"userId"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Color  string  `json:"color"`
}

func decode(payload interface{}, dst interface{}) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return json.Unmarshal(b, dst)
}
