package xstrings

type Comparable interface{ ~int | ~int64 | ~string }

// UniqueSlice removes duplicates, keeping the first occurrence.
func UniqueSlice[T Comparable](s []T) []T {
	return UniqueBy(s, func(v T) T { return v })
}

// UniqueBy removes the entries whose key was already seen, keeping the
// first occurrence.
func UniqueBy[T any, K Comparable](s []T, key func(T) K) []T {
	keys := make(map[K]bool)
	list := []T{}
	for _, entry := range s {
		k := key(entry)
		if _, value := keys[k]; !value {
			keys[k] = true
			list = append(list, entry)
		}
	}
	return list
}
