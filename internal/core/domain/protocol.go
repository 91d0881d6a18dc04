package domain

import "time"

// Outbound envelope discriminators.
const (
	TypeEcho         = "echo"
	TypeBroadcast    = "broadcast"
	TypeWelcome      = "welcome"
	TypeUserJoined   = "user_joined"
	TypeUserLeft     = "user_left"
	TypeRoomMessage  = "room_message"
	TypeUserCount    = "user_count"
	TypeConnected    = "connected"
	TypeSubscribed   = "subscribed"
	TypeUnsubscribed = "unsubscribed"
	TypePong         = "pong"
	TypeNotification = "notification"
)

// Inbound is the open-ended envelope accepted on every websocket endpoint.
// The only contractually significant field is "action"; everything else is
// endpoint convention.
type Inbound map[string]any

func (m Inbound) Action(fallback string) string {
	if a, ok := m["action"].(string); ok {
		return a
	}
	return fallback
}

func (m Inbound) Text() string {
	if t, ok := m["text"].(string); ok {
		return t
	}
	return ""
}

func (m Inbound) Topics() []string {
	raw, ok := m["topics"].([]any)
	if !ok {
		return nil
	}
	topics := make([]string, 0, len(raw))
	for _, t := range raw {
		if s, ok := t.(string); ok {
			topics = append(topics, s)
		}
	}
	return topics
}

// EchoMessage wraps the sender's payload unchanged.
type EchoMessage struct {
	Type string  `json:"type"` // "echo"
	Data Inbound `json:"data"`
}

// BroadcastMessage is fanned out to every connection on the broadcast endpoint.
type BroadcastMessage struct {
	Type      string  `json:"type"` // "broadcast"
	Data      Inbound `json:"data"`
	Timestamp string  `json:"timestamp"`
}

// WelcomeMessage is sent to a connection joining a room.
type WelcomeMessage struct {
	Type  string `json:"type"` // "welcome"
	Room  string `json:"room"`
	Users int    `json:"users"`
}

// RoomEvent announces membership changes to the rest of a room.
type RoomEvent struct {
	Type      string `json:"type"` // "user_joined" | "user_left"
	Room      string `json:"room"`
	Users     int    `json:"users"`
	Timestamp string `json:"timestamp"`
}

// RoomMessage is chat delivered to every member of a room.
type RoomMessage struct {
	Type      string `json:"type"` // "room_message"
	Room      string `json:"room"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

// UserCountMessage answers a list_users action.
type UserCountMessage struct {
	Type  string `json:"type"` // "user_count"
	Room  string `json:"room"`
	Count int    `json:"count"`
}

// ConnectedMessage greets a new notifications subscriber.
type ConnectedMessage struct {
	Type    string `json:"type"` // "connected"
	Message string `json:"message"`
}

// SubscriptionState answers subscribe/unsubscribe actions with the
// connection's current topic set.
type SubscriptionState struct {
	Type   string   `json:"type"` // "subscribed" | "unsubscribed"
	Topics []string `json:"topics"`
}

type PongMessage struct {
	Type string `json:"type"` // "pong"
}

// Notification is the server-push envelope delivered to a topic room.
type Notification struct {
	Type      string `json:"type"` // "notification"
	Topic     string `json:"topic"`
	Data      any    `json:"data"`
	Timestamp string `json:"timestamp"`
}

// WSError is the single best-effort reply for malformed or unknown input.
// The connection stays open after it is sent.
type WSError struct {
	Error string `json:"error"`
}

// Timestamp renders the wire timestamp format: ISO-8601 in UTC.
func Timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
