package importer

import "fmt"

// result carries either the value produced by a stage or the error that ended the row.
type result[T any] struct {
	val T
	err error
}

func succeed[T any](v T) result[T] {
	return result[T]{val: v}
}

// then runs stage only when r holds a value, so a failure short-circuits the rest of
// the row and never reaches the batch loop as anything but a value.
func then[A, B any](r result[A], stage func(A) (B, error)) result[B] {
	if r.err != nil {
		return result[B]{err: r.err}
	}
	v, err := stage(r.val)
	return result[B]{val: v, err: err}
}

// guard converts a panic inside fn into an error result.
func guard[T any](fn func() result[T]) (r result[T]) {
	defer func() {
		if p := recover(); p != nil {
			r = result[T]{err: fmt.Errorf("unexpected failure: %v", p)}
		}
	}()
	return fn()
}
