package cmp

type BiPredicator[V any, U any] func(a V, b U) bool

func SliceEq[T comparable](a []T, b []T) bool {
	if len(a) != len(b) {
		return false
	}
	for nth, va := range a {
		if va != b[nth] {
			return false
		}
	}
	return true
}

func SliceEqWith[T any, U any](a []T, b []U, pred BiPredicator[T, U]) bool {
	if len(a) != len(b) {
		return false
	}

	for nth := range a {
		if !pred(a[nth], b[nth]) {
			return false
		}
	}

	return true
}

// Check A and B hold the same elements in some equivarency, ignoring order.
//
// Each element of B is matched with a distinct element of A.
func SliceContentEqWith[T any, U any](a []T, b []U, pred BiPredicator[T, U]) bool {
	if len(a) != len(b) {
		return false
	}

	used := make([]bool, len(a))
	for _, vb := range b {
		found := false
		for nth, va := range a {
			if used[nth] {
				continue
			}
			if pred(va, vb) {
				used[nth] = true
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// SliceContentEq is SliceContentEqWith over comparable elements.
func SliceContentEq[T comparable](a []T, b []T) bool {
	return SliceContentEqWith(a, b, func(x, y T) bool { return x == y })
}

// check a == b
func MapEq[K comparable, V comparable](a map[K]V, b map[K]V) bool {
	if len(a) != len(b) {
		return false
	}
	for ka, va := range a {
		vb, ok := b[ka]
		if !ok || vb != va {
			return false
		}
	}
	return true
}

// check a == b, in context of comparator
func MapEqWith[K comparable, V any, U any](a map[K]V, b map[K]U, comparator BiPredicator[V, U]) bool {
	if len(a) != len(b) {
		return false
	}
	for ka, va := range a {
		vb, ok := b[ka]
		if !ok || !comparator(va, vb) {
			return false
		}
	}
	return true
}
