package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsSubclassOf(t *testing.T) {
	g := NewGraph().
		Declare("Admin", "User").
		Declare("User", "Model", "Arrayable").
		Declare("Loop", "Loop2").
		Declare("Loop2", "Loop")

	tests := []struct {
		child, parent string
		want          bool
	}{
		{"User", "User", true},
		{"Admin", "User", true},
		{"Admin", "Model", true},
		{"Admin", "Arrayable", true},
		{"Model", "User", false},
		{"Loop", "Other", false},
	}

	for _, tt := range tests {
		t.Run(tt.child+"->"+tt.parent, func(t *testing.T) {
			assert.Equal(t, tt.want, IsSubclassOf(g, tt.child, tt.parent))
		})
	}
}

func TestIsInstanceOf(t *testing.T) {
	g := NewGraph().Declare("Page", "Paginator")

	assert.True(t, IsInstanceOf(g, NewGeneric("Page", String()), "Paginator"))
	assert.True(t, IsInstanceOf(g, NewObject("Page"), "Page"))
	assert.False(t, IsInstanceOf(g, String(), "Page"))
	assert.True(t, IsInstanceOfAny(g, NewObject("Page"), "X", "Paginator"))
	assert.False(t, IsInstanceOf(nil, NewObject("Page"), "Paginator"))
}

func TestChain(t *testing.T) {
	a := NewGraph().Declare("A", "B")
	b := NewGraph().Declare("B", "C")

	assert.True(t, IsSubclassOf(Chain{a, b}, "A", "C"))
	assert.False(t, IsSubclassOf(a, "A", "C"))
}
