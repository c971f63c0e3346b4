package realtime

import (
	"slices"

	"github.com/samber/lo"
)

// PresenceRegistry maps a user id to the connection that most recently
// announced it. It is owned by the hub goroutine and is not safe for
// concurrent use.
type PresenceRegistry struct {
	users map[string]string
}

func NewPresenceRegistry() *PresenceRegistry {
	return &PresenceRegistry{users: make(map[string]string)}
}

// MarkOnline records connId as the live connection of userId, replacing any
// earlier mapping for the same user.
func (p *PresenceRegistry) MarkOnline(userId, connId string) {
	p.users[userId] = connId
}

// MarkOfflineByConnection removes the user currently mapped to connId.
// It reports the removed user id and whether a mapping existed.
func (p *PresenceRegistry) MarkOfflineByConnection(connId string) (string, bool) {
	for userId, id := range p.users {
		if id == connId {
			delete(p.users, userId)
			return userId, true
		}
	}

	return "", false
}

// Snapshot returns the online user ids in sorted order.
func (p *PresenceRegistry) Snapshot() []string {
	ids := lo.Keys(p.users)
	slices.Sort(ids)
	return ids
}

func (p *PresenceRegistry) Len() int {
	return len(p.users)
}
