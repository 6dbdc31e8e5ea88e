// Copyright (c) 2024 Michael D Henderson. All rights reserved.

package matcher

import "github.com/flint-lang/flintfe/internal/token"

// Range is a half-open index range [Start, End) over a token.Slice,
// mirroring the C++ original's `uint2` pair type.
type Range struct {
	Start, End int
}

// TokensMatch reports whether p matches the entire slice — that is,
// p(s, 0) succeeds and consumes exactly s.Len() tokens.
func TokensMatch(s token.Slice, p Pattern) bool {
	end, ok := p(s, 0)
	return ok && end == s.Len()
}

// TokensStartWith reports whether p matches starting at index 0 (it may
// consume fewer tokens than the whole slice).
func TokensStartWith(s token.Slice, p Pattern) bool {
	_, ok := p(s, 0)
	return ok
}

// TokensEndWith reports whether some suffix of the slice, ending exactly
// at s.Len(), is matched by p.
func TokensEndWith(s token.Slice, p Pattern) bool {
	for i := 0; i < s.Len(); i++ {
		if end, ok := p(s, i); ok && end == s.Len() {
			return true
		}
	}
	return false
}

// TokenMatch reports whether a single token (wrapped as a length-1 slice)
// matches p.
func TokenMatch(tok token.Token, p Pattern) bool {
	s := token.Slice{Tokens: []token.Token{tok}, Start: 0, End: 1}
	_, ok := p(s, 0)
	return ok
}

// TokensContain reports whether p matches anywhere in the slice.
func TokensContain(s token.Slice, p Pattern) bool {
	for i := 0; i < s.Len(); i++ {
		if _, ok := p(s, i); ok {
			return true
		}
	}
	return false
}

// TokensContainInRange reports whether p matches anywhere within [r.Start, r.End).
func TokensContainInRange(s token.Slice, p Pattern, r Range) bool {
	lo, hi := r.Start, r.End
	if lo < 0 {
		lo = 0
	}
	if hi > s.Len() {
		hi = s.Len()
	}
	for i := lo; i < hi; i++ {
		if _, ok := p(s, i); ok {
			return true
		}
	}
	return false
}

// GetTokensLineRange returns the [start, end) range of tokens whose Line
// field equals line. Returns ok=false if no token is on that line.
func GetTokensLineRange(s token.Slice, line uint32) (Range, bool) {
	start, end := -1, -1
	for i := 0; i < s.Len(); i++ {
		if s.At(i).Line == line {
			if start == -1 {
				start = i
			}
			end = i + 1
		} else if start != -1 {
			break
		}
	}
	if start == -1 {
		return Range{}, false
	}
	return Range{Start: start, End: end}, true
}

// GetMatchRanges returns every disjoint [start, end) range where p
// matches. After a match at i, the scan resumes at end (non-overlapping).
func GetMatchRanges(s token.Slice, p Pattern) []Range {
	return GetMatchRangesInRange(s, p, Range{Start: 0, End: s.Len()})
}

// GetMatchRangesInRange is GetMatchRanges restricted to scanning only
// within [r.Start, r.End); a match is reported only if it stays inside
// that window.
func GetMatchRangesInRange(s token.Slice, p Pattern, r Range) []Range {
	var out []Range
	i := r.Start
	if i < 0 {
		i = 0
	}
	hi := r.End
	if hi > s.Len() {
		hi = s.Len()
	}
	for i < hi {
		end, ok := p(s, i)
		if ok && end <= hi {
			out = append(out, Range{Start: i, End: end})
			if end == i {
				i++
			} else {
				i = end
			}
			continue
		}
		i++
	}
	return out
}

// GetNextMatchRange returns the first match range of p at or after index
// 0, or ok=false if p never matches.
func GetNextMatchRange(s token.Slice, p Pattern) (Range, bool) {
	for i := 0; i < s.Len(); i++ {
		if end, ok := p(s, i); ok {
			return Range{Start: i, End: end}, true
		}
	}
	return Range{}, false
}

// BalancedRangeExtraction returns the first balanced [i, j) range defined
// by inc/dec (see Balanced), or ok=false if none exists.
func BalancedRangeExtraction(s token.Slice, inc, dec Pattern) (Range, bool) {
	b := Balanced(inc, dec, 1)
	for i := 0; i < s.Len(); i++ {
		if incEnd, ok := inc(s, i); ok {
			if end, ok := b(s, incEnd); ok {
				return Range{Start: i, End: end}, true
			}
		}
	}
	return Range{}, false
}

// BalancedRangeExtractionVec returns every non-overlapping balanced range
// in the slice, scanning forward and resuming after each consumed region.
func BalancedRangeExtractionVec(s token.Slice, inc, dec Pattern) []Range {
	var out []Range
	b := Balanced(inc, dec, 1)
	i := 0
	for i < s.Len() {
		incEnd, ok := inc(s, i)
		if !ok {
			i++
			continue
		}
		end, ok := b(s, incEnd)
		if !ok {
			i++
			continue
		}
		out = append(out, Range{Start: i, End: end})
		i = end
	}
	return out
}

// GetMatchRangesInRangeOutsideGroup returns every match of p within
// [r.Start, r.End) that does not fall inside any inc/dec balanced group.
// This is used to find, e.g., the comma-separated argument boundaries of
// a call while skipping commas nested inside parenthesized sub-expressions.
func GetMatchRangesInRangeOutsideGroup(s token.Slice, p Pattern, r Range, inc, dec Pattern) []Range {
	groups := BalancedRangeExtractionVec(s.Sub(r.Start, r.End), inc, dec)
	inGroup := func(i int) bool {
		for _, g := range groups {
			if i >= g.Start && i < g.End {
				return true
			}
		}
		return false
	}
	var out []Range
	lo, hi := 0, r.End-r.Start
	i := lo
	for i < hi {
		if inGroup(i) {
			i++
			continue
		}
		end, ok := p(s.Sub(r.Start, r.End), i)
		if ok {
			out = append(out, Range{Start: r.Start + i, End: r.Start + end})
			if end == i {
				i++
			} else {
				i = end
			}
			continue
		}
		i++
	}
	return out
}

// GetLeadingIndents counts the INDENT tokens at the start of the given
// line, returning ok=false if the line has no tokens at all.
func GetLeadingIndents(s token.Slice, line uint32) (int, bool) {
	r, ok := GetTokensLineRange(s, line)
	if !ok {
		return 0, false
	}
	count := 0
	for i := r.Start; i < r.End; i++ {
		if s.At(i).Kind != token.INDENT {
			break
		}
		count++
	}
	return count, true
}
