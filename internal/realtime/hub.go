package realtime

import (
	"context"
	"encoding/json"
	"log"

	"github.com/campusconnect/campus-connect/internal/stats"
)

const (
	eventQueueSize = 256
	pushQueueSize  = 256
)

type pushReq struct {
	channel string
	msg     *ServerMessage
}

type stopReq struct {
	done chan struct{}
}

// Hub owns presence and channel membership for every connection in the
// process. All state is touched only from the Run goroutine; other
// goroutines talk to it over channels.
type Hub struct {
	log            *log.Logger
	stats          stats.StatsProvider
	presence       *PresenceRegistry
	rooms          *RoomMembership
	clients        map[string]*Client
	registerChan   chan *Client
	deRegisterChan chan *Client
	eventChan      chan *ClientMessage
	pushChan       chan pushReq
	snapshotChan   chan chan []string
	stop           chan stopReq
	done           chan struct{}
}

func NewHub(logger *log.Logger, su stats.StatsProvider) *Hub {
	for _, name := range []string{
		stats.NumActiveClients,
		stats.NumOnlineUsers,
		stats.NumChannels,
		stats.NumDroppedMessages,
	} {
		su.RegisterMetric(name)
	}

	return &Hub{
		log:            logger,
		stats:          su,
		presence:       NewPresenceRegistry(),
		rooms:          NewRoomMembership(),
		clients:        make(map[string]*Client),
		registerChan:   make(chan *Client),
		deRegisterChan: make(chan *Client),
		eventChan:      make(chan *ClientMessage, eventQueueSize),
		pushChan:       make(chan pushReq, pushQueueSize),
		snapshotChan:   make(chan chan []string),
		stop:           make(chan stopReq),
		done:           make(chan struct{}),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case c := <-h.registerChan:
			h.addClient(c)
		case c := <-h.deRegisterChan:
			h.removeClient(c)
		case msg := <-h.eventChan:
			h.handleEvent(msg)
		case req := <-h.pushChan:
			h.deliver(req.channel, req.msg)
		case reply := <-h.snapshotChan:
			reply <- h.presence.Snapshot()
		case req := <-h.stop:
			h.log.Println("shutting down realtime hub")
			for _, c := range h.clients {
				c.stopClient()
			}

			close(h.done)
			close(req.done)
			return
		}
	}
}

// RegisterClient adds a freshly upgraded connection to the hub. It must be
// called before the client's pumps are started.
func (h *Hub) RegisterClient(c *Client) error {
	if h == nil {
		return ErrHubUnavailable
	}

	select {
	case h.registerChan <- c:
		return nil
	case <-h.done:
		return ErrHubStopped
	}
}

func (h *Hub) deregister(c *Client) {
	select {
	case h.deRegisterChan <- c:
	case <-h.done:
	}
}

// dispatch queues an inbound frame without blocking the reader. Frames are
// dropped when the hub falls behind.
func (h *Hub) dispatch(msg *ClientMessage) {
	select {
	case h.eventChan <- msg:
	case <-h.done:
	default:
		h.log.Printf("event queue full, dropping %s from %q", msg.Event, msg.client.id)
		h.stats.Incr(stats.NumDroppedMessages)
	}
}

// PushMessage delivers a stored conversation message to the conversation's
// subscribers, skipping every connection of skipUserId.
func (h *Hub) PushMessage(conversationId string, message any, skipUserId string) error {
	channel, ok := ConversationChannel(conversationId)
	if !ok {
		return ErrInvalidRoom
	}

	return h.push(channel, &ServerMessage{
		Event:    EventReceiveMessage,
		Data:     message,
		SkipUser: skipUserId,
	})
}

// PushNotification delivers a stored notification to every connection
// subscribed to the recipient's feed.
func (h *Hub) PushNotification(recipientId string, notification any) error {
	return h.push(NotificationChannel(recipientId), &ServerMessage{
		Event: EventNewNotification,
		Data:  notification,
	})
}

func (h *Hub) push(channel string, msg *ServerMessage) error {
	if h == nil {
		return ErrHubUnavailable
	}

	select {
	case <-h.done:
		return ErrHubStopped
	default:
	}

	select {
	case h.pushChan <- pushReq{channel: channel, msg: msg}:
		return nil
	default:
		return ErrHubBusy
	}
}

// OnlineUsers returns the current presence snapshot.
func (h *Hub) OnlineUsers(ctx context.Context) ([]string, error) {
	if h == nil {
		return nil, ErrHubUnavailable
	}

	reply := make(chan []string, 1)
	select {
	case h.snapshotChan <- reply:
	case <-h.done:
		return nil, ErrHubStopped
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case ids := <-reply:
		return ids, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Shutdown stops every client and the hub loop.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.log.Println("received shutdown signal")

	req := stopReq{done: make(chan struct{})}
	select {
	case h.stop <- req:
	case <-h.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-req.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hub) addClient(c *Client) {
	c.state = StateConnected
	h.clients[c.id] = c
	h.stats.Incr(stats.NumActiveClients)
	h.log.Printf("connection %q opened for user %q", c.id, c.user.Id)
}

// removeClient drops the connection from every channel and from presence.
// Connections that never announced or joined anything are removed quietly.
func (h *Hub) removeClient(c *Client) {
	if _, ok := h.clients[c.id]; !ok {
		return
	}

	delete(h.clients, c.id)
	c.state = StateDisconnected
	h.stats.Decr(stats.NumActiveClients)

	if n := h.rooms.DropAll(c.id); n > 0 {
		h.stats.Set(stats.NumChannels, h.rooms.Len())
	}

	if userId, ok := h.presence.MarkOfflineByConnection(c.id); ok {
		h.log.Printf("user %q went offline", userId)
		h.presenceChanged()
	}

	h.log.Printf("connection %q closed", c.id)
}

func (h *Hub) handleEvent(msg *ClientMessage) {
	c := msg.client
	if _, ok := h.clients[c.id]; !ok {
		return
	}

	switch msg.Event {
	case EventUserOnline:
		if userId, ok := h.ownId(c, msg); ok {
			h.markOnline(c, userId)
		}
	case EventJoinNotifications:
		if userId, ok := h.ownId(c, msg); ok {
			h.join(c, NotificationChannel(userId))
		}
	case EventJoinRoom:
		if channel, ok := h.roomChannel(c, msg); ok {
			h.join(c, channel)
		}
	case EventLeaveRoom:
		if channel, ok := h.roomChannel(c, msg); ok {
			h.rooms.Leave(c.id, channel)
			h.stats.Set(stats.NumChannels, h.rooms.Len())
		}
	case EventJoinGroup:
		if groupId, ok := decodeId(msg.Data); ok {
			h.join(c, GroupChannel(groupId))
		}
	case EventSendMessage:
		var p RoomMessage
		if !decodePayload(msg.Data, &p) {
			return
		}
		if channel, ok := ConversationChannel(p.RoomId); ok {
			h.deliver(channel, &ServerMessage{
				Event:      EventReceiveMessage,
				Data:       p.Message,
				SkipClient: c,
			})
		}
	case EventTyping, EventStopTyping:
		var p Typing
		if !decodePayload(msg.Data, &p) {
			return
		}
		channel, ok := ConversationChannel(p.RoomId)
		if !ok {
			return
		}
		if p.UserId == "" {
			p.UserId = c.user.Id
		}

		out := &ServerMessage{Event: EventUserTyping, SkipClient: c}
		indicator := TypingIndicator{UserId: p.UserId, UserName: p.UserName}
		if msg.Event == EventStopTyping {
			out.Event = EventUserStopTyping
			indicator.UserName = ""
		}
		out.Data = indicator

		h.deliver(channel, out)
	case EventSendNotification:
		var p NotificationRelay
		if decodePayload(msg.Data, &p) && p.RecipientId != "" {
			h.deliver(NotificationChannel(p.RecipientId), &ServerMessage{
				Event: EventNewNotification,
				Data:  p.Notification,
			})
		}
	case EventGroupMessage:
		var p GroupMessage
		if decodePayload(msg.Data, &p) && p.GroupId != "" {
			h.deliver(GroupChannel(p.GroupId), &ServerMessage{
				Event:      EventReceiveGroupMessage,
				Data:       p.Message,
				SkipClient: c,
			})
		}
	default:
		h.log.Printf("ignoring unknown event %q from %q", msg.Event, c.id)
	}
}

// ownId decodes a user id payload and accepts it only when it names the
// user the connection authenticated as.
func (h *Hub) ownId(c *Client, msg *ClientMessage) (string, bool) {
	userId, ok := decodeId(msg.Data)
	if !ok {
		return "", false
	}

	if userId != c.user.Id {
		h.log.Printf("connection %q authenticated as %q announced %q, ignoring %s", c.id, c.user.Id, userId, msg.Event)
		return "", false
	}

	return userId, true
}

// roomChannel decodes a conversation id payload into its channel name.
func (h *Hub) roomChannel(c *Client, msg *ClientMessage) (string, bool) {
	roomId, ok := decodeId(msg.Data)
	if !ok {
		return "", false
	}

	channel, ok := ConversationChannel(roomId)
	if !ok {
		h.log.Printf("connection %q sent %s for invalid room %q, ignoring", c.id, msg.Event, roomId)
	}
	return channel, ok
}

func (h *Hub) markOnline(c *Client, userId string) {
	h.presence.MarkOnline(userId, c.id)
	c.state = StateAnnounced
	h.presenceChanged()
}

func (h *Hub) presenceChanged() {
	h.stats.Set(stats.NumOnlineUsers, h.presence.Len())
	h.broadcast(onlineUsersMessage(h.presence.Snapshot()))
}

func (h *Hub) join(c *Client, channel string) {
	h.rooms.Join(c.id, channel)
	h.stats.Set(stats.NumChannels, h.rooms.Len())
}

// broadcast queues msg on every connection.
func (h *Hub) broadcast(msg *ServerMessage) {
	for _, c := range h.clients {
		if !c.queueMessage(msg) {
			h.stats.Incr(stats.NumDroppedMessages)
		}
	}
}

// deliver queues msg on every subscriber of channel except the skipped
// ones and returns how many connections it was queued on. An empty or
// unknown channel delivers nothing.
func (h *Hub) deliver(channel string, msg *ServerMessage) int {
	delivered := 0
	for _, id := range h.rooms.Members(channel) {
		c, ok := h.clients[id]
		if !ok || c == msg.SkipClient {
			continue
		}
		if msg.SkipUser != "" && c.user.Id == msg.SkipUser {
			continue
		}

		if c.queueMessage(msg) {
			delivered++
		} else {
			h.stats.Incr(stats.NumDroppedMessages)
		}
	}

	return delivered
}

func decodeId(data json.RawMessage) (string, bool) {
	var id string
	if !decodePayload(data, &id) || id == "" {
		return "", false
	}
	return id, true
}

func decodePayload(data json.RawMessage, v any) bool {
	if len(data) == 0 {
		return false
	}
	return json.Unmarshal(data, v) == nil
}
