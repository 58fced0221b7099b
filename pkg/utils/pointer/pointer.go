// Package pointer converts between values and pointers. Catalogue
// fields use nil to mean "never recorded", so values get lifted into
// pointers on write and guarded on read.
package pointer

// Ref returns a pointer to t.
func Ref[T any](t T) *T {
	return &t
}

// Deref is *ptr. It panics on nil, for fields known to be set.
func Deref[T any](ptr *T) T {
	return *ptr
}

// SafeDeref is *val, or the zero value when val is nil.
func SafeDeref[T any](val *T) T {
	if val == nil {
		return *new(T)
	}
	return *val
}
