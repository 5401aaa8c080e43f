package chat

import (
	"errors"
	"strings"
	"time"
)

// PublicRoom is the reserved id of the single global room. It is never
// produced by ResolveRoom because registration rejects the username.
const PublicRoom = "public"

var ErrInvalidInput = errors.New("invalid input")

func normalize(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// ResolveRoom derives the canonical room id for a pair of usernames, e.g.
// "alice_bob". Both names are trimmed and lowercased, then joined in
// lexicographic order, so ResolveRoom(a, b) == ResolveRoom(b, a).
func ResolveRoom(userA, userB string) (string, error) {
	a, b := normalize(userA), normalize(userB)
	if a == "" || b == "" {
		return "", ErrInvalidInput
	}

	if a <= b {
		return a + "_" + b, nil
	}
	return b + "_" + a, nil
}

// Now returns the current server time as an ISO-8601 UTC string with
// millisecond precision.
func Now() string {
	return time.Now().UTC().Round(time.Millisecond).Format(time.RFC3339Nano)
}
