package slices

// Map each element in sli.
//
// The element indexed N in the result is given with mapper(sli[N]).
func Map[T any, R any](sli []T, mapper func(v T) R) []R {
	ret := make([]R, len(sli))
	for nth, v := range sli {
		ret[nth] = mapper(v)
	}
	return ret
}

// ToMap converts a slice to a map keyed with getkey.
//
// If keys collide, a value coming latter takes over previous.
func ToMap[T any, K comparable](sli []T, getkey func(v T) K) map[K]T {
	m := map[K]T{}

	for _, v := range sli {
		m[getkey(v)] = v
	}

	return m
}

// KeysOf flattens a map to the slice of its keys, in no particular
// order.
func KeysOf[T any, K comparable](m map[K]T) []K {
	sli := make([]K, 0, len(m))
	for k := range m {
		sli = append(sli, k)
	}
	return sli
}

// Filter picks the elements matching with predicator, keeping their
// order.
func Filter[T any](vs []T, predicator func(v T) bool) []T {
	filtered := []T{}
	for _, v := range vs {
		if predicator(v) {
			filtered = append(filtered, v)
		}
	}
	return filtered
}

// Contains returns true when at least one element satisfies the
// predicator.
func Contains[T any](vs []T, predicator func(v T) bool) bool {
	for _, v := range vs {
		if predicator(v) {
			return true
		}
	}
	return false
}
