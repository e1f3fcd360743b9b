package list

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func values[T any](l *List[T]) []T {
	out := make([]T, 0, l.Len())
	l.Walk(func(e *Element[T]) bool {
		out = append(out, e.Value)
		return true
	})
	return out
}

func TestPushAndMove(t *testing.T) {
	l := New[string](false)
	a := l.PushBack("a")
	b := l.PushBack("b")
	c := l.PushBack("c")
	require.Equal(t, []string{"a", "b", "c"}, values(l))

	l.MoveToBack(a)
	assert.Equal(t, []string{"b", "c", "a"}, values(l))

	l.MoveToFront(c)
	assert.Equal(t, []string{"c", "b", "a"}, values(l))
	assert.Equal(t, "c", l.Front().Value)
	assert.Equal(t, "a", l.Back().Value)
	assert.Equal(t, b, l.Front().Next())
	assert.Nil(t, l.Back().Next())
	assert.Nil(t, l.Front().Prev())
}

func TestRemove(t *testing.T) {
	l := New[int](true)
	one := l.PushBack(1)
	l.PushBack(2)

	assert.Equal(t, 1, l.Remove(one))
	assert.Equal(t, 1, l.Len())
	// removing twice is a no-op
	assert.Equal(t, 0, l.Remove(one))
	assert.Equal(t, 1, l.Len())
	assert.Equal(t, []int{2}, values(l))
}

func TestEmptyList(t *testing.T) {
	l := New[int](false)
	assert.Nil(t, l.Front())
	assert.Nil(t, l.Back())
	l.PushFront(1)
	l.Init()
	assert.Zero(t, l.Len())
	assert.Nil(t, l.Front())
}
