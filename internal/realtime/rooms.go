package realtime

import (
	"slices"

	"github.com/samber/lo"
)

// RoomMembership tracks which connections are subscribed to which channels.
// Both directions are indexed so a disconnect can drop a connection from
// every channel without scanning them all. Like PresenceRegistry it belongs
// to the hub goroutine.
type RoomMembership struct {
	channels map[string]map[string]struct{}
	byConn   map[string]map[string]struct{}
}

func NewRoomMembership() *RoomMembership {
	return &RoomMembership{
		channels: make(map[string]map[string]struct{}),
		byConn:   make(map[string]map[string]struct{}),
	}
}

// Join subscribes connId to channel. Joining twice has no further effect.
func (r *RoomMembership) Join(connId, channel string) {
	members, ok := r.channels[channel]
	if !ok {
		members = make(map[string]struct{})
		r.channels[channel] = members
	}
	members[connId] = struct{}{}

	joined, ok := r.byConn[connId]
	if !ok {
		joined = make(map[string]struct{})
		r.byConn[connId] = joined
	}
	joined[channel] = struct{}{}
}

// Leave unsubscribes connId from channel if it was subscribed.
func (r *RoomMembership) Leave(connId, channel string) {
	if members, ok := r.channels[channel]; ok {
		delete(members, connId)
		if len(members) == 0 {
			delete(r.channels, channel)
		}
	}

	if joined, ok := r.byConn[connId]; ok {
		delete(joined, channel)
		if len(joined) == 0 {
			delete(r.byConn, connId)
		}
	}
}

// DropAll removes connId from every channel and returns how many channels
// it was dropped from.
func (r *RoomMembership) DropAll(connId string) int {
	joined := r.byConn[connId]
	for channel := range joined {
		members := r.channels[channel]
		delete(members, connId)
		if len(members) == 0 {
			delete(r.channels, channel)
		}
	}
	delete(r.byConn, connId)

	return len(joined)
}

// Members returns the connection ids subscribed to channel in sorted order.
func (r *RoomMembership) Members(channel string) []string {
	ids := lo.Keys(r.channels[channel])
	slices.Sort(ids)
	return ids
}

// Channels returns the channels connId is subscribed to in sorted order.
func (r *RoomMembership) Channels(connId string) []string {
	names := lo.Keys(r.byConn[connId])
	slices.Sort(names)
	return names
}

func (r *RoomMembership) Len() int {
	return len(r.channels)
}
