// Copyright (c) 2024 Michael D Henderson. All rights reserved.

// Package matcher implements the composable token-pattern engine used
// pervasively by the parser. A Pattern is a function from a token slice
// and a starting index to the index one past a successful match; it
// reports false on failure. Patterns compose by construction rather than
// by virtual dispatch (spec §9 "tagged-union representation... removes
// virtual calls"): a Pattern here is simply a closure, and combinators are
// functions that build new closures from existing ones.
//
// Grounded on original_source/include/matcher/*.hpp, which expresses the
// same vocabulary as a small hierarchy of C++ matcher classes dispatched
// through a common virtual base. The semantics (including the depth
// bookkeeping of Balanced/BalancedUntil/BalancedValidUntil) are preserved
// exactly; the mechanism is reworked into idiomatic Go closures.
package matcher

import "github.com/flint-lang/flintfe/internal/token"

// Pattern matches against a token.Slice starting at index start (0-based,
// relative to the slice). On success it returns the index one past the
// last consumed token and true. On failure it returns (0, false).
type Pattern func(s token.Slice, start int) (int, bool)

// tokenSingletons holds one Token(k) pattern per kind so that compound
// patterns built from the same kind share a single underlying closure
// instead of allocating a fresh one every time Token(k) is called.
var tokenSingletons = map[token.Kind]Pattern{}

// Token returns the (shared) pattern that matches a single token of kind
// k, advancing by one.
func Token(k token.Kind) Pattern {
	if p, ok := tokenSingletons[k]; ok {
		return p
	}
	real := func(s token.Slice, start int) (int, bool) {
		if start < 0 || start >= s.Len() {
			return 0, false
		}
		if s.At(start).Kind != k {
			return 0, false
		}
		return start + 1, true
	}
	tokenSingletons[k] = real
	return real
}

// Any succeeds on any non-empty remaining slice, advancing by one.
func Any(s token.Slice, start int) (int, bool) {
	if start < 0 || start >= s.Len() {
		return 0, false
	}
	return start + 1, true
}

// OneOf succeeds with the first alternative that matches (first-match-wins).
func OneOf(patterns ...Pattern) Pattern {
	return func(s token.Slice, start int) (int, bool) {
		for _, p := range patterns {
			if end, ok := p(s, start); ok {
				return end, true
			}
		}
		return 0, false
	}
}

// Sequence succeeds iff every pattern matches in order, each starting
// where the previous one left off. Fails at the first sub-failure.
func Sequence(patterns ...Pattern) Pattern {
	return func(s token.Slice, start int) (int, bool) {
		cur := start
		for _, p := range patterns {
			end, ok := p(s, cur)
			if !ok {
				return 0, false
			}
			cur = end
		}
		return cur, true
	}
}

// Repeat greedily matches p as many times as possible and succeeds iff the
// resulting count lies in [min, max]. max < 0 means unbounded.
func Repeat(p Pattern, min, max int) Pattern {
	return func(s token.Slice, start int) (int, bool) {
		cur := start
		count := 0
		for max < 0 || count < max {
			end, ok := p(s, cur)
			if !ok || end == cur {
				// a zero-width match would loop forever; treat it as a
				// single successful repetition and stop.
				if ok && end == cur {
					count++
				}
				break
			}
			cur = end
			count++
		}
		if count < min {
			return 0, false
		}
		return cur, true
	}
}

// Optional is Repeat(p, 0, 1).
func Optional(p Pattern) Pattern {
	return Repeat(p, 0, 1)
}

// NotFollowedBy is a zero-width lookahead: it succeeds (without advancing)
// iff p fails to match starting at start.
func NotFollowedBy(p Pattern) Pattern {
	return func(s token.Slice, start int) (int, bool) {
		if _, ok := p(s, start); ok {
			return 0, false
		}
		return start, true
	}
}

// Not succeeds if p fails to match at start; on success it advances by
// one token (unlike NotFollowedBy, which is zero-width).
func Not(p Pattern) Pattern {
	return func(s token.Slice, start int) (int, bool) {
		if _, ok := p(s, start); ok {
			return 0, false
		}
		if start < 0 || start >= s.Len() {
			return 0, false
		}
		return start + 1, true
	}
}

// NotPrecededBy fails if the token immediately before start has kind k;
// otherwise it delegates to p. At start == 0 there is no preceding token,
// so the guard never fires and p is tried directly.
func NotPrecededBy(k token.Kind, p Pattern) Pattern {
	return func(s token.Slice, start int) (int, bool) {
		if start > 0 && start-1 < s.Len() && s.At(start-1).Kind == k {
			return 0, false
		}
		return p(s, start)
	}
}

// Until consumes tokens up to and including the first match of p,
// scanning forward from start. Fails if p never matches before the end
// of the slice.
func Until(p Pattern) Pattern {
	return func(s token.Slice, start int) (int, bool) {
		for i := start; i < s.Len(); i++ {
			if end, ok := p(s, i); ok {
				return end, true
			}
		}
		return 0, false
	}
}

// Balanced tracks a running depth starting at d0: inc increments it, dec
// decrements it, and the match succeeds at the index one past the dec
// that first brings the depth back to 0. Tokens that match neither inc
// nor dec are simply consumed without affecting depth.
func Balanced(inc, dec Pattern, d0 int) Pattern {
	return func(s token.Slice, start int) (int, bool) {
		depth := d0
		i := start
		for i < s.Len() {
			if end, ok := inc(s, i); ok {
				depth++
				i = end
				continue
			}
			if end, ok := dec(s, i); ok {
				depth--
				i = end
				if depth == 0 {
					return i, true
				}
				continue
			}
			i++
		}
		return 0, false
	}
}

// BalancedUntil is like Balanced, but the terminal match is `until` only
// when the running depth is exactly 0; occurrences of `until` seen while
// depth > 0 are skipped over like any other token.
func BalancedUntil(inc, until, dec Pattern, d0 int) Pattern {
	return func(s token.Slice, start int) (int, bool) {
		depth := d0
		i := start
		for i < s.Len() {
			if depth == 0 {
				if end, ok := until(s, i); ok {
					return end, true
				}
			}
			if end, ok := inc(s, i); ok {
				depth++
				i = end
				continue
			}
			if end, ok := dec(s, i); ok {
				depth--
				i = end
				continue
			}
			i++
		}
		return 0, false
	}
}

// BalancedValidUntil is BalancedUntil with an added constraint: every
// single token consumed outside of any inc/dec group must itself match
// valid, or the whole match aborts immediately.
func BalancedValidUntil(inc, until, valid, dec Pattern, d0 int) Pattern {
	return func(s token.Slice, start int) (int, bool) {
		depth := d0
		i := start
		for i < s.Len() {
			if depth == 0 {
				if end, ok := until(s, i); ok {
					return end, true
				}
			}
			if end, ok := inc(s, i); ok {
				depth++
				i = end
				continue
			}
			if end, ok := dec(s, i); ok {
				depth--
				i = end
				continue
			}
			if depth > 0 {
				i++
				continue
			}
			if _, ok := valid(s, i); !ok {
				return 0, false
			}
			i++
		}
		return 0, false
	}
}
