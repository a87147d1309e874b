package core

// CachedVector is an append-only buffer whose logical length is tracked
// separately from the capacity of its backing slice. Reset drops the logical
// length to zero without releasing the backing storage, so a vector that is
// filled and reset every iteration stops allocating once it reaches its
// high-water mark.
//
// CachedVector is not safe for concurrent use; callers that share one across
// goroutines must synchronize externally.
type CachedVector[T any] struct {
	buf []T
	n   int
}

// Len returns the logical length.
func (v *CachedVector[T]) Len() int {
	return v.n
}

// Cap returns the capacity of the backing storage.
func (v *CachedVector[T]) Cap() int {
	return cap(v.buf)
}

// Append adds x after the last logical element, reusing backing storage below
// the high-water mark and growing it beyond.
func (v *CachedVector[T]) Append(x T) {
	if v.n < len(v.buf) {
		v.buf[v.n] = x
	} else {
		v.buf = append(v.buf, x)
	}
	v.n++
}

// At returns the element at index i. It panics if i is outside [0, Len).
func (v *CachedVector[T]) At(i int) T {
	if i < 0 || i >= v.n {
		panic("core: CachedVector index out of range")
	}
	return v.buf[i]
}

// Ptr returns a pointer to the element at index i for in-place updates.
// It panics if i is outside [0, Len).
func (v *CachedVector[T]) Ptr(i int) *T {
	if i < 0 || i >= v.n {
		panic("core: CachedVector index out of range")
	}
	return &v.buf[i]
}

// Slice returns a view of the logical contents. The view aliases the backing
// storage and is invalidated by the next Append or Reset.
func (v *CachedVector[T]) Slice() []T {
	return v.buf[:v.n]
}

// Reset clears the logical length. Backing storage is retained.
func (v *CachedVector[T]) Reset() {
	v.n = 0
}
