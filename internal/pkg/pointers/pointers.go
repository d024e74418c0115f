// Package pointers has helpers for building pointer-typed filter fields.
package pointers

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T { return &v }
