package chat

import (
	"log"

	"github.com/example/go-chatapp/internal/stats"
	"github.com/example/go-chatapp/internal/types"
)

// Topic names form the contract with the transport layer.
const (
	// TopicUsers carries the full online-user list on every presence change.
	TopicUsers = "users"
	// TopicMessages carries the global public-message stream.
	TopicMessages = "messages"
)

// PrivateTopic is the per-room private-message stream for a room id.
func PrivateTopic(roomId string) string {
	return "private/" + roomId
}

// FriendsTopic is the personal friend-notification stream for a username.
func FriendsTopic(username string) string {
	return "friends/" + normalize(username)
}

// Publisher fans a payload out to the subscribers of a topic. Implemented
// by the transport layer.
type Publisher interface {
	Publish(topic string, payload any)
}

// AccountStore is the slice of the account system the router needs: whether
// a username refers to a known account.
type AccountStore interface {
	Exists(username string) bool
}

// FriendAdded is the event published to both users' friend topics when a
// friendship is created.
type FriendAdded struct {
	Type  string `json:"type"`
	UserA string `json:"userA"`
	UserB string `json:"userB"`
}

// Router mediates between the transport layer and the presence registry,
// friendship graph, and message log. It holds no state of its own; it only
// enforces the protocol rules (timestamp defaulting, room-id forcing,
// validation) and emits the resulting notifications.
type Router struct {
	log      *log.Logger
	presence *PresenceRegistry
	friends  *FriendshipGraph
	messages *MessageLog
	accounts AccountStore
	pub      Publisher
	stats    stats.StatsProvider
}

func NewRouter(logger *log.Logger, presence *PresenceRegistry, friends *FriendshipGraph,
	messages *MessageLog, accounts AccountStore, pub Publisher, sp stats.StatsProvider) *Router {
	sp.RegisterMetric(stats.OnlineUsers)
	sp.RegisterMetric(stats.PublicMessages)
	sp.RegisterMetric(stats.PrivateMessages)
	sp.RegisterMetric(stats.FriendshipsCreated)

	return &Router{
		log:      logger,
		presence: presence,
		friends:  friends,
		messages: messages,
		accounts: accounts,
		pub:      pub,
		stats:    sp,
	}
}

// Connect marks a user online and broadcasts the updated online list.
func (rt *Router) Connect(username string) {
	u := normalize(username)
	if u == "" {
		rt.log.Println("connect event with blank username, dropping")
		return
	}

	if rt.presence.Connect(u) {
		rt.stats.Incr(stats.OnlineUsers)
	}

	online := rt.presence.Online()
	rt.log.Printf("user joined: %q, online now: %v", u, online)
	rt.pub.Publish(TopicUsers, online)
}

// Disconnect marks a user offline and broadcasts the updated online list.
func (rt *Router) Disconnect(username string) {
	u := normalize(username)
	if u == "" {
		rt.log.Println("disconnect event with blank username, dropping")
		return
	}

	if rt.presence.Disconnect(u) {
		rt.stats.Decr(stats.OnlineUsers)
	}

	online := rt.presence.Online()
	rt.log.Printf("user left: %q, online now: %v", u, online)
	rt.pub.Publish(TopicUsers, online)
}

// PublicMessage logs and broadcasts a message on the global room. The room
// id is forced to "public" no matter what the payload claimed, and the
// timestamp is defaulted to server time when the client omitted it.
func (rt *Router) PublicMessage(msg types.Message) {
	if msg.Sender == "" {
		rt.log.Println("public message without sender, dropping")
		return
	}

	if msg.Timestamp == "" {
		msg.Timestamp = Now()
	}
	msg.RoomId = PublicRoom

	rt.log.Printf("message from %q at %s: %s", msg.Sender, msg.Timestamp, msg.Text)

	rt.messages.Append(msg)
	rt.stats.Incr(stats.PublicMessages)
	rt.pub.Publish(TopicMessages, msg)
}

// PrivateMessage logs and broadcasts a message on one pair room. The room
// id comes from the transport route and overrides whatever the payload
// carried.
func (rt *Router) PrivateMessage(msg types.Message, roomId string) {
	id := normalize(roomId)
	if id == "" {
		rt.log.Println("private message without room id, dropping")
		return
	}
	if msg.Sender == "" {
		rt.log.Println("private message without sender, dropping")
		return
	}

	if msg.Timestamp == "" {
		msg.Timestamp = Now()
	}
	msg.RoomId = id

	rt.log.Printf("private message in %q from %q at %s: %s", id, msg.Sender, msg.Timestamp, msg.Text)

	rt.messages.Append(msg)
	rt.stats.Incr(stats.PrivateMessages)
	rt.pub.Publish(PrivateTopic(id), msg)
}

// AddFriend creates a friendship and notifies both users. The target must
// be a known account. The returned reason mirrors the REST contract.
func (rt *Router) AddFriend(userA, userB string) (bool, string) {
	if !rt.accounts.Exists(userB) {
		return false, "user does not exist"
	}

	if !rt.friends.AddFriendship(userA, userB) {
		return false, "friendship already exists or input invalid"
	}

	rt.stats.Incr(stats.FriendshipsCreated)

	event := FriendAdded{
		Type:  "friend-added",
		UserA: normalize(userA),
		UserB: normalize(userB),
	}
	rt.pub.Publish(FriendsTopic(userA), event)
	rt.pub.Publish(FriendsTopic(userB), event)

	return true, "friendship created"
}
