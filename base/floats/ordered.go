package floats

import (
	"cmp"
	"errors"
	"strconv"
)

var ErrInvalidValue = errors.New("invalid value: NaN")

// Ordered holds a floating-point value that is guaranteed not to be NaN, so
// that values of this type are totally ordered: -Inf is the minimum, +Inf the
// maximum and both zeros compare equal.
//
// The zero value holds 0.
type Ordered[T Float] struct {
	v T
}

func NewOrdered[T Float](x T) (Ordered[T], error) {
	if IsNaN(x) {
		return Ordered[T]{}, ErrInvalidValue
	}
	return Ordered[T]{v: x}, nil
}

func MustOrdered[T Float](x T) Ordered[T] {
	o, err := NewOrdered(x)
	if err != nil {
		panic(err)
	}
	return o
}

func (o Ordered[T]) Value() T {
	return o.v
}

func (o Ordered[T]) Compare(p Ordered[T]) int {
	return cmp.Compare(o.v, p.v)
}

func (o Ordered[T]) Less(p Ordered[T]) bool {
	return o.v < p.v
}

func (o Ordered[T]) Equal(p Ordered[T]) bool {
	return o.v == p.v
}

func (o Ordered[T]) Midpoint(p Ordered[T]) Ordered[T] {
	return Ordered[T]{v: Midpoint(o.v, p.v)}
}

func (o Ordered[T]) String() string {
	var bitSize int
	switch any(o.v).(type) {
	case float32:
		bitSize = 32
	default:
		bitSize = 64
	}
	return strconv.FormatFloat(float64(o.v), 'g', -1, bitSize)
}

// Compare orders raw values the same way Ordered does. It panics if either
// value is NaN.
func Compare[T Float](x, y T) int {
	if IsNaN(x) || IsNaN(y) {
		panic("unexpected NaN value")
	}
	return cmp.Compare(x, y)
}
