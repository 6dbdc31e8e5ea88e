// Copyright (c) 2024 Michael D Henderson. All rights reserved.

package matcher_test

import (
	"testing"

	"github.com/flint-lang/flintfe/internal/matcher"
	"github.com/flint-lang/flintfe/internal/token"
)

func toks(kinds ...token.Kind) token.Slice {
	ts := make([]token.Token, len(kinds))
	for i, k := range kinds {
		ts[i] = token.Token{Kind: k}
	}
	return token.NewSlice(ts)
}

func TestBalancedRangeExtraction_SinglePair(t *testing.T) {
	// IDENT := IDENT ( )
	s := toks(token.IDENT, token.COLON_EQ, token.IDENT, token.LPAREN, token.RPAREN)
	r, ok := matcher.BalancedRangeExtraction(s, matcher.Token(token.LPAREN), matcher.Token(token.RPAREN))
	if !ok {
		t.Fatal("expected a balanced range")
	}
	if r.Start != 3 || r.End != 5 {
		t.Fatalf("range = [%d,%d), want [3,5)", r.Start, r.End)
	}
}

func TestBalancedRangeExtraction_Nested(t *testing.T) {
	// IDENT := IDENT ( IDENT ( ) )
	s := toks(token.IDENT, token.COLON_EQ, token.IDENT, token.LPAREN, token.IDENT, token.LPAREN, token.RPAREN, token.RPAREN)
	r, ok := matcher.BalancedRangeExtraction(s, matcher.Token(token.LPAREN), matcher.Token(token.RPAREN))
	if !ok {
		t.Fatal("expected a balanced range")
	}
	if r.Start != 3 || r.End != 8 {
		t.Fatalf("outer range = [%d,%d), want [3,8)", r.Start, r.End)
	}
	vec := matcher.BalancedRangeExtractionVec(s, matcher.Token(token.LPAREN), matcher.Token(token.RPAREN))
	if len(vec) != 1 || vec[0].Start != 3 || vec[0].End != 8 {
		t.Fatalf("vec = %v, want [{3 8}]", vec)
	}
}

func TestFunctionDefinitionPattern(t *testing.T) {
	// DEF IDENT ( I32 IDENT ) ARROW I32 COLON
	functionDefinition := matcher.Sequence(
		matcher.Token(token.KW_FUNC),
		matcher.Token(token.IDENT),
		matcher.Token(token.LPAREN),
		matcher.Token(token.KW_I32),
		matcher.Token(token.IDENT),
		matcher.Token(token.RPAREN),
		matcher.Token(token.ARROW),
		matcher.Token(token.KW_I32),
		matcher.Token(token.COLON),
	)
	s := toks(token.KW_FUNC, token.IDENT, token.LPAREN, token.KW_I32, token.IDENT, token.RPAREN, token.ARROW, token.KW_I32, token.COLON)
	if !matcher.TokensMatch(s, functionDefinition) {
		t.Fatal("expected function_definition to match")
	}
}

func TestOneOfFirstMatchWins(t *testing.T) {
	p := matcher.OneOf(matcher.Token(token.IDENT), matcher.Token(token.INT_LIT))
	s := toks(token.IDENT)
	if !matcher.TokensMatch(s, p) {
		t.Fatal("expected OneOf to match IDENT")
	}
	s2 := toks(token.KW_FUNC)
	if matcher.TokensMatch(s2, p) {
		t.Fatal("expected OneOf to fail on KW_FUNC")
	}
}

func TestNotPrecededBy(t *testing.T) {
	// obj . ( x , y ) = ... should NOT match a bare group-assignment
	// pattern guarded against a preceding DOT.
	groupAssignment := matcher.NotPrecededBy(token.DOT, matcher.Token(token.LPAREN))
	s := toks(token.IDENT, token.DOT, token.LPAREN)
	if _, ok := groupAssignment(s, 2); ok {
		t.Fatal("expected NotPrecededBy(DOT) to block match after a DOT")
	}
	s2 := toks(token.IDENT, token.LPAREN)
	if _, ok := groupAssignment(s2, 1); !ok {
		t.Fatal("expected NotPrecededBy(DOT) to allow match without a preceding DOT")
	}
}

func TestUntil(t *testing.T) {
	s := toks(token.IDENT, token.COMMA, token.IDENT, token.SEMICOLON)
	end, ok := matcher.Until(matcher.Token(token.SEMICOLON))(s, 0)
	if !ok || end != 4 {
		t.Fatalf("Until(SEMICOLON) = (%d,%v), want (4,true)", end, ok)
	}
}

func TestGetLeadingIndents(t *testing.T) {
	ts := []token.Token{
		{Kind: token.INDENT, Line: 2}, {Kind: token.INDENT, Line: 2}, {Kind: token.IDENT, Line: 2},
	}
	s := token.NewSlice(ts)
	n, ok := matcher.GetLeadingIndents(s, 2)
	if !ok || n != 2 {
		t.Fatalf("GetLeadingIndents = (%d,%v), want (2,true)", n, ok)
	}
}
