package mrl

import (
	"sort"

	"github.com/pkg/errors"
)

// levelBuffer holds the k slots of one level of the sketch. Slots
// [0, fill) are occupied and are always filled left to right, so an
// occupied slot never follows an empty one.
type levelBuffer struct {
	slots []int64
	fill  int
}

func newLevelBuffer(k int64) (*levelBuffer, error) {
	if k <= 0 {
		return nil, errors.Errorf("invalid level buffer capacity: %v", k)
	}
	return &levelBuffer{
		slots: make([]int64, k),
	}, nil
}

// push places value in the first empty slot.
func (lb *levelBuffer) push(value int64) error {
	if lb.isFull() {
		return errors.Errorf("level buffer already full: %v", len(lb.slots))
	}
	lb.slots[lb.fill] = value
	lb.fill++
	return nil
}

// compact sorts a full buffer, returns the values at even positions
// (0, 2, 4, ...) in ascending order and clears the buffer.
// Callers should only call this right after the buffer becomes full.
func (lb *levelBuffer) compact() []int64 {
	occupied := lb.slots[:lb.fill]
	sort.Slice(occupied, func(i, j int) bool { return occupied[i] < occupied[j] })

	survivors := make([]int64, 0, (len(occupied)+1)/2)
	for i := 0; i < len(occupied); i += 2 {
		survivors = append(survivors, occupied[i])
	}
	lb.clear()
	return survivors
}

// values returns a copy of the occupied slots in slot order.
func (lb *levelBuffer) values() []int64 {
	ret := make([]int64, lb.fill)
	copy(ret, lb.slots[:lb.fill])
	return ret
}

func (lb *levelBuffer) size() int {
	return lb.fill
}

func (lb *levelBuffer) capacity() int {
	return len(lb.slots)
}

func (lb *levelBuffer) isFull() bool {
	return lb.fill >= len(lb.slots)
}

func (lb *levelBuffer) clear() {
	for i := range lb.slots[:lb.fill] {
		lb.slots[i] = 0
	}
	lb.fill = 0
}
