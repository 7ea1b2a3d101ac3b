package util

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStack(t *testing.T) {
	var s Stack[int]
	_, ok := s.Pop()
	assert.False(t, ok)

	s.Push(1)
	s.Push(2)
	s.Push(3)
	top, ok := s.Peek()
	assert.True(t, ok)
	assert.Equal(t, 3, top)
	assert.Equal(t, []int{3, 2, 1}, slices.Collect(s.TopDown()))

	popped, _ := s.Pop()
	assert.Equal(t, 3, popped)
	assert.Equal(t, 2, s.Len())

	assert.Equal(t, []int{1, 2}, s.PopAll())
	assert.Zero(t, s.Len())
}
