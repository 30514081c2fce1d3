package chunk

import (
	"routechunks/internal/astjs"
)

func spanSet(spans []astjs.Span) map[astjs.Span]struct{} {
	set := make(map[astjs.Span]struct{}, len(spans))
	for _, s := range spans {
		set[s] = struct{}{}
	}
	return set
}

func stringSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}

// spansIntersect iterates the smaller set against the larger.
func spansIntersect(a, b map[astjs.Span]struct{}) bool {
	if len(b) < len(a) {
		a, b = b, a
	}
	for s := range a {
		if _, ok := b[s]; ok {
			return true
		}
	}
	return false
}

// stringsIntersect iterates the smaller set against the larger.
func stringsIntersect(a, b map[string]struct{}) bool {
	if len(b) < len(a) {
		a, b = b, a
	}
	for s := range a {
		if _, ok := b[s]; ok {
			return true
		}
	}
	return false
}
