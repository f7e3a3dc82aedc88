// Package utils holds small helpers for the optional fields in API bodies.
package utils

// Value dereferences v, returning the zero value for nil.
func Value[T any](v *T) T {
	if v == nil {
		return *new(T)
	}
	return *v
}

func Ptr[T any](v T) *T {
	return &v
}

// PointsTo reports whether p is set and holds v. A nil owner never matches.
func PointsTo[T comparable](p *T, v T) bool {
	return p != nil && *p == v
}
