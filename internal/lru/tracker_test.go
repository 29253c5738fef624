package lru

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPushAndSize(t *testing.T) {
	tr := NewTracker(3)
	assert.Equal(t, 0, tr.Size())
	tr.Push("one")
	assert.Equal(t, 1, tr.Size())
	tr.Push("two")
	assert.Equal(t, 2, tr.Size())
	tr.Push("three")
	assert.Equal(t, 3, tr.Size())
	tr.Push("four") // overwrites the first element
	assert.Equal(t, 3, tr.Size())
}

func TestFull(t *testing.T) {
	tr := NewTracker(3)
	assert.False(t, tr.Full())
	tr.Push("one")
	tr.Push("two")
	tr.Push("three")
	assert.True(t, tr.Full())
	tr.Push("four")
	assert.True(t, tr.Full())
}

func TestBackEvictsOldest(t *testing.T) {
	tr := NewTracker(3)
	tr.Push("one")
	tr.Push("two")
	tr.Push("three")
	back, ok := tr.Back()
	assert.True(t, ok)
	assert.Equal(t, "one", back)

	evicted, didEvict := tr.Push("four")
	assert.True(t, didEvict)
	assert.Equal(t, "one", evicted)

	back, ok = tr.Back()
	assert.True(t, ok)
	assert.Equal(t, "two", back)
}

func TestMoveToFront(t *testing.T) {
	tr := NewTracker(4)
	tr.Push("one")
	tr.Push("two")
	tr.Push("three")
	tr.Push("four")

	back, _ := tr.Back()
	assert.Equal(t, "one", back)

	tr.MoveToFront("one")
	back, _ = tr.Back()
	assert.Equal(t, "two", back)
}

func TestPushNAfterCapacityLeavesBackAtNMinusCapacityPlusOne(t *testing.T) {
	tr := NewTracker(3)
	names := []string{"one", "two", "three", "four"}
	for _, n := range names {
		tr.Push(n)
	}
	assert.Equal(t, 3, tr.Size())
	back, _ := tr.Back()
	// N=4, capacity=3: names[N-capacity] = names[1] = "two".
	assert.Equal(t, "two", back)
}

func TestBackOnEmpty(t *testing.T) {
	tr := NewTracker(2)
	_, ok := tr.Back()
	assert.False(t, ok)
}
