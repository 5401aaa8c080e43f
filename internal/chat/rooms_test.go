package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveRoom(t *testing.T) {
	tcases := []struct {
		name     string
		userA    string
		userB    string
		expected string
		err      error
	}{
		{
			name:     "already ordered",
			userA:    "alice",
			userB:    "bob",
			expected: "alice_bob",
		},
		{
			name:     "reversed order",
			userA:    "bob",
			userB:    "alice",
			expected: "alice_bob",
		},
		{
			name:     "mixed case and whitespace",
			userA:    " BOB ",
			userB:    "Alice",
			expected: "alice_bob",
		},
		{
			name:     "same user twice",
			userA:    "alice",
			userB:    "alice",
			expected: "alice_alice",
		},
		{
			name:  "blank first user",
			userA: "   ",
			userB: "bob",
			err:   ErrInvalidInput,
		},
		{
			name:  "empty second user",
			userA: "alice",
			userB: "",
			err:   ErrInvalidInput,
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			id, err := ResolveRoom(tc.userA, tc.userB)
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err, "expected error for %q/%q", tc.userA, tc.userB)
				return
			}
			assert.NoError(t, err, "expected no error for %q/%q", tc.userA, tc.userB)
			assert.Equal(t, tc.expected, id, "expected room id to match")
		})
	}
}

func TestResolveRoomSymmetry(t *testing.T) {
	pairs := [][2]string{
		{"alice", "bob"},
		{"Zed", "aaron"},
		{"  carol", "DAVE  "},
		{"x", "x"},
	}

	for _, pair := range pairs {
		ab, err := ResolveRoom(pair[0], pair[1])
		assert.NoError(t, err, "expected no error resolving %q/%q", pair[0], pair[1])
		ba, err := ResolveRoom(pair[1], pair[0])
		assert.NoError(t, err, "expected no error resolving %q/%q", pair[1], pair[0])
		assert.Equal(t, ab, ba, "expected ResolveRoom to be symmetric for %q/%q", pair[0], pair[1])
	}
}
