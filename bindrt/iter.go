package bindrt

import (
	"context"
	"fmt"
	"iter"
	"math"

	"bindgen/utils"
)

// Integer is a native integer result.
type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

// Length converts a native length or size to int. Negative values and
// values past the int range are errors.
func Length[T Integer](n T) (int, error) {
	if n < 0 || !utils.IsInRange(0, uint64(n), math.MaxInt) {
		return 0, fmt.Errorf("bindrt: length %d out of int range", n)
	}

	return int(n), nil
}

// IndexIter walks a native container through a size method and an
// element-lookup method, one index at a time. No native iterator object
// is ever held.
type IndexIter struct {
	size func(ctx context.Context) (int, error)
	at   func(ctx context.Context, i int) (any, error)

	i, n  int
	cur   any
	err   error
	begun bool
}

// NewIndexIter returns an iterator over [0, size).
func NewIndexIter(size func(ctx context.Context) (int, error), at func(ctx context.Context, i int) (any, error)) *IndexIter {
	return &IndexIter{size: size, at: at}
}

// Next advances to the next element. It returns false at the end or on
// error; check Err.
func (it *IndexIter) Next(ctx context.Context) bool {
	if it.err != nil {
		return false
	}

	if !it.begun {
		it.begun = true

		it.n, it.err = it.size(ctx)
		if it.err != nil {
			return false
		}
	}

	if it.i >= it.n {
		return false
	}

	it.cur, it.err = it.at(ctx, it.i)
	if it.err != nil {
		return false
	}

	it.i++

	return true
}

// Value returns the current element.
func (it *IndexIter) Value() any { return it.cur }

// Index returns the index of the current element.
func (it *IndexIter) Index() int { return it.i - 1 }

// Err returns the first error met.
func (it *IndexIter) Err() error { return it.err }

// All returns a range-over-func sequence of (index, element) pairs; the
// error is available from Err afterwards.
func (it *IndexIter) All(ctx context.Context) iter.Seq2[int, any] {
	return func(yield func(int, any) bool) {
		for it.Next(ctx) {
			if !yield(it.Index(), it.Value()) {
				return
			}
		}
	}
}
