package monitor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRing_PushBelowCapacity(t *testing.T) {
	r := newRing[int](3)

	_, full := r.push(1)
	assert.False(t, full)
	r.push(2)

	assert.Equal(t, 2, r.len())
	assert.Equal(t, 1, r.at(0))
	assert.Equal(t, 2, r.at(1))
}

func TestRing_EvictsOldest(t *testing.T) {
	r := newRing[int](3)
	r.push(1)
	r.push(2)
	r.push(3)

	evicted, full := r.push(4)
	assert.True(t, full)
	assert.Equal(t, 1, evicted)
	assert.Equal(t, 3, r.len())
	assert.Equal(t, 2, r.at(0))
	assert.Equal(t, 4, r.at(2))

	evicted, full = r.push(5)
	assert.True(t, full)
	assert.Equal(t, 2, evicted)
	assert.Equal(t, []int{3, 4, 5}, r.lastN(3))
}

func TestRing_LastN(t *testing.T) {
	r := newRing[int](4)
	for i := 1; i <= 6; i++ {
		r.push(i)
	}

	assert.Equal(t, []int{5, 6}, r.lastN(2))
	assert.Equal(t, []int{3, 4, 5, 6}, r.lastN(10), "n beyond len is clamped")
	assert.Empty(t, r.lastN(0))
}

func TestRing_MinimumCapacity(t *testing.T) {
	r := newRing[string](0)
	r.push("a")
	evicted, full := r.push("b")
	assert.True(t, full)
	assert.Equal(t, "a", evicted)
	assert.Equal(t, "b", r.at(0))
}
