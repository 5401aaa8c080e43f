package types

type User struct {
	Username string `json:"username"`
	Password string `json:"-"`
}

// Message is a single chat message. Timestamp is an ISO-8601 UTC string;
// the server fills it in when the client leaves it empty.
type Message struct {
	Sender    string `json:"sender"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp,omitempty"`
	RoomId    string `json:"room_id,omitempty"`
}

// Friendship is the wire form of a friend relation. User1 and User2 are
// stored normalized and in lexicographic order so the pair is symmetric.
type Friendship struct {
	User1 string `json:"user1"`
	User2 string `json:"user2"`
}
