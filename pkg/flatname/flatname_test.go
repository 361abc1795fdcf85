package flatname

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJoin(t *testing.T) {
	tests := []struct {
		parent string
		base   string
		want   string
	}{
		{"Very", "Fat.txt", "Very$%Fat.txt"},
		{"The", "Very$%Fat.txt", "The$%Very$%Fat.txt"},
		{"a b", "c.d.e", "a b$%c.d.e"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, Join(tt.parent, tt.base))
		})
	}
}

func TestJoinIsDeterministic(t *testing.T) {
	assert.Equal(t, Join("x", "y"), Join("x", "y"))
}

func TestRepeatedJoinStaysSingleSegment(t *testing.T) {
	name := "Fat.txt"
	for _, parent := range []string{"Very", "The", "Cat", "deeper", "still"} {
		name = Join(parent, name)
		assert.True(t, Valid(name), "name %q should be a single segment", name)
		assert.False(t, strings.Contains(name, "/"))
	}
	assert.Equal(t, 5, Depth(name))
}

func TestSplit(t *testing.T) {
	assert.Equal(t, []string{"Cat", "The", "Very", "Fat.txt"}, Split("Cat$%The$%Very$%Fat.txt"))
	assert.Equal(t, []string{"plain.txt"}, Split("plain.txt"))
}

func TestDepth(t *testing.T) {
	assert.Equal(t, 0, Depth("a.txt"))
	assert.Equal(t, 3, Depth("Cat$%The$%Very$%Fat.txt"))
}

func TestValid(t *testing.T) {
	assert.True(t, Valid("a$%b"))
	assert.False(t, Valid(""))
	assert.False(t, Valid(".."))
	assert.False(t, Valid("a/b"))
}
