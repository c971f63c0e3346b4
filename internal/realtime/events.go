package realtime

import (
	"encoding/json"
)

// Events sent by clients.
const (
	EventUserOnline        = "user_online"
	EventJoinRoom          = "join_room"
	EventLeaveRoom         = "leave_room"
	EventSendMessage       = "send_message"
	EventTyping            = "typing"
	EventStopTyping        = "stop_typing"
	EventJoinNotifications = "join_notifications"
	EventSendNotification  = "send_notification"
	EventJoinGroup         = "join_group"
	EventGroupMessage      = "group_message"
)

// Events sent by the server.
const (
	EventOnlineUsers         = "online_users"
	EventReceiveMessage      = "receive_message"
	EventUserTyping          = "user_typing"
	EventUserStopTyping      = "user_stop_typing"
	EventNewNotification     = "new_notification"
	EventReceiveGroupMessage = "receive_group_message"
)

// ClientMessage is a frame read from a connection. Data is decoded by the
// hub according to Event.
type ClientMessage struct {
	Event  string          `json:"event"`
	Data   json.RawMessage `json:"data"`
	client *Client
}

// ServerMessage is a frame written to connections. SkipClient and SkipUser
// exclude recipients from a channel delivery.
type ServerMessage struct {
	Event      string  `json:"event"`
	Data       any     `json:"data"`
	SkipClient *Client `json:"-"`
	SkipUser   string  `json:"-"`
}

type RoomMessage struct {
	RoomId  string          `json:"roomId"`
	Message json.RawMessage `json:"message"`
}

type Typing struct {
	RoomId   string `json:"roomId"`
	UserId   string `json:"userId"`
	UserName string `json:"userName,omitempty"`
}

type TypingIndicator struct {
	UserId   string `json:"userId"`
	UserName string `json:"userName,omitempty"`
}

type NotificationRelay struct {
	RecipientId  string          `json:"recipientId"`
	Notification json.RawMessage `json:"notification"`
}

type GroupMessage struct {
	GroupId string          `json:"groupId"`
	Message json.RawMessage `json:"message"`
}

func serializeMessage(msg *ServerMessage) ([]byte, error) {
	return json.Marshal(msg)
}

func onlineUsersMessage(ids []string) *ServerMessage {
	return &ServerMessage{Event: EventOnlineUsers, Data: ids}
}
