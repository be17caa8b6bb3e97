package party

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIDSlice_GetIndex(t *testing.T) {
	ids := NewIDSlice([]ID{"c", "a", "b"})
	tests := []struct {
		name        string
		partyIDs    IDSlice
		requestedID ID
		want        int
	}{
		{"empty", IDSlice{}, "a", -1},
		{"first", ids, "a", 0},
		{"last", ids, "c", 2},
		{"missing", ids, "d", -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.partyIDs.GetIndex(tt.requestedID))
		})
	}
}

func TestNewIDSlice(t *testing.T) {
	input := []ID{"charlie", "alice", "bob"}
	ids := NewIDSlice(input)
	assert.True(t, ids.Valid())
	assert.Equal(t, IDSlice{"alice", "bob", "charlie"}, ids)
	assert.Equal(t, ID("charlie"), input[0], "input must not be reordered")

	assert.False(t, IDSlice{"a", "a"}.Valid())
	assert.False(t, IDSlice{"b", "a"}.Valid())
	assert.False(t, IDSlice{""}.Valid())

	assert.True(t, ids.Contains("alice", "bob"))
	assert.False(t, ids.Contains("alice", "dave"))
	assert.Equal(t, IDSlice{"alice", "charlie"}, ids.Remove("bob"))
}
