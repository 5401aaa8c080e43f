package chat

import (
	"encoding/json"
	"errors"
	"log"
	"sort"
	"sync"

	"github.com/example/go-chatapp/internal/store"
	"github.com/example/go-chatapp/internal/types"
)

const friendsPartition = "friends"

// Pair is the canonical identity of a friendship: both usernames
// normalized, Low <= High. Because Pair is a comparable value type, map
// keys deduplicate Pair("alice","bob") and Pair("bob","alice") for free.
type Pair struct {
	Low  string
	High string
}

func NewPair(userA, userB string) (Pair, error) {
	a, b := normalize(userA), normalize(userB)
	if a == "" || b == "" {
		return Pair{}, ErrInvalidInput
	}

	if a <= b {
		return Pair{Low: a, High: b}, nil
	}
	return Pair{Low: b, High: a}, nil
}

// Involves reports whether the given username is one side of the pair.
func (p Pair) Involves(username string) bool {
	u := normalize(username)
	return u == p.Low || u == p.High
}

// Other returns the opposite side of the pair for the given username.
func (p Pair) Other(username string) (string, bool) {
	switch normalize(username) {
	case p.Low:
		return p.High, true
	case p.High:
		return p.Low, true
	default:
		return "", false
	}
}

// FriendshipGraph stores undirected friend relations and persists the full
// set through a store partition on every mutation.
type FriendshipGraph struct {
	log   *log.Logger
	store store.Store

	mu          sync.Mutex
	friendships map[Pair]struct{}
}

// NewFriendshipGraph loads the persisted friendship set. An unreadable or
// corrupt partition is logged and the graph starts empty; it is never fatal.
func NewFriendshipGraph(logger *log.Logger, st store.Store) *FriendshipGraph {
	g := &FriendshipGraph{
		log:         logger,
		store:       st,
		friendships: make(map[Pair]struct{}),
	}

	data, err := st.LoadAll(friendsPartition)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			g.log.Printf("load friendships: %v, starting with empty graph", err)
		}
		return g
	}

	var loaded []types.Friendship
	if err := json.Unmarshal(data, &loaded); err != nil {
		g.log.Printf("parse friendships: %v, starting with empty graph", err)
		return g
	}

	for _, f := range loaded {
		pair, err := NewPair(f.User1, f.User2)
		if err != nil {
			g.log.Printf("skipping invalid friendship %q/%q", f.User1, f.User2)
			continue
		}
		g.friendships[pair] = struct{}{}
	}

	return g
}

// AddFriendship creates the friendship between two users. It reports false
// with no side effect when either name is blank, the two names normalize to
// the same user, or the pair already exists. Racing identical adds are
// serialized, so exactly one of them observes true.
func (g *FriendshipGraph) AddFriendship(userA, userB string) bool {
	pair, err := NewPair(userA, userB)
	if err != nil {
		return false
	}

	if pair.Low == pair.High {
		return false
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.friendships[pair]; ok {
		return false
	}

	g.friendships[pair] = struct{}{}
	g.save()
	g.log.Printf("created friendship between %q and %q", pair.Low, pair.High)

	return true
}

// Friends returns the sorted, deduplicated friend list for a username.
// Invalid input yields an empty list.
func (g *FriendshipGraph) Friends(username string) []string {
	friends := []string{}

	u := normalize(username)
	if u == "" {
		return friends
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	for pair := range g.friendships {
		if other, ok := pair.Other(u); ok {
			friends = append(friends, other)
		}
	}
	sort.Strings(friends)

	return friends
}

func (g *FriendshipGraph) AreFriends(userA, userB string) bool {
	pair, err := NewPair(userA, userB)
	if err != nil {
		return false
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	_, ok := g.friendships[pair]
	return ok
}

// ChatroomId returns the room id for any pair of users, friends or not.
func (g *FriendshipGraph) ChatroomId(userA, userB string) (string, error) {
	return ResolveRoom(userA, userB)
}

// save rewrites the whole collection. Persistence faults degrade to an
// in-memory-only graph; callers are not interrupted. Callers must hold mu.
func (g *FriendshipGraph) save() {
	friendships := make([]types.Friendship, 0, len(g.friendships))
	for pair := range g.friendships {
		friendships = append(friendships, types.Friendship{User1: pair.Low, User2: pair.High})
	}
	sort.Slice(friendships, func(i, j int) bool {
		if friendships[i].User1 != friendships[j].User1 {
			return friendships[i].User1 < friendships[j].User1
		}
		return friendships[i].User2 < friendships[j].User2
	})

	data, err := json.MarshalIndent(friendships, "", "  ")
	if err != nil {
		g.log.Printf("encode friendships: %v", err)
		return
	}

	if err := g.store.SaveAll(friendsPartition, data); err != nil {
		g.log.Printf("save friendships: %v", err)
	}
}
