package quotenumber

import (
	"fmt"
)

// CounterStore is the atomic increment-with-default primitive. The backing
// implementation (a locked counter row) guarantees no two concurrent calls
// observe the same post-increment value.
type CounterStore interface {
	Next(start int64) (int64, error)
}

// Allocator hands out strictly increasing quote numbers for a deployment.
// Numbers are gap-tolerant: an allocated number that is never used on a
// quotation stays burned.
type Allocator struct {
	store CounterStore
	start func() int64
}

// NewAllocator creates an allocator over store. start supplies the counter
// seed and is consulted on every allocation, so a settings change before the
// counter row exists still takes effect; the first allocation yields
// start()+1.
func NewAllocator(store CounterStore, start func() int64) *Allocator {
	return &Allocator{store: store, start: start}
}

// Next returns the next quote number.
func (a *Allocator) Next() (int64, error) {
	return a.store.Next(a.start())
}

// Format renders a quote number for humans, e.g. Format("QF-", 1042) ==
// "QF-1042". Pure and stateless; presentation only.
func Format(prefix string, n int64) string {
	return fmt.Sprintf("%s%d", prefix, n)
}
