package chat

import (
	"sort"
	"sync"
)

// PresenceRegistry tracks the set of currently connected usernames. It is
// in-memory only; a restart starts from an empty set.
type PresenceRegistry struct {
	mu     sync.RWMutex
	online map[string]struct{}
}

func NewPresenceRegistry() *PresenceRegistry {
	return &PresenceRegistry{
		online: make(map[string]struct{}),
	}
}

// Connect marks a username online. Reconnecting an already-online user is a
// no-op. Reports whether the set changed.
func (p *PresenceRegistry) Connect(username string) bool {
	u := normalize(username)
	if u == "" {
		return false
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.online[u]; ok {
		return false
	}
	p.online[u] = struct{}{}
	return true
}

// Disconnect marks a username offline. Disconnecting a user who is not
// online is a no-op. Reports whether the set changed.
func (p *PresenceRegistry) Disconnect(username string) bool {
	u := normalize(username)
	if u == "" {
		return false
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.online[u]; !ok {
		return false
	}
	delete(p.online, u)
	return true
}

// Online returns a sorted point-in-time copy of the online set.
func (p *PresenceRegistry) Online() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	users := make([]string, 0, len(p.online))
	for u := range p.online {
		users = append(users, u)
	}
	sort.Strings(users)

	return users
}
