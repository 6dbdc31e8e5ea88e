// Copyright (c) 2024 Michael D Henderson. All rights reserved.

package namespace_test

import (
	"testing"

	"github.com/flint-lang/flintfe/internal/ast"
	"github.com/flint-lang/flintfe/internal/namespace"
	"github.com/flint-lang/flintfe/internal/token"
	"github.com/flint-lang/flintfe/internal/types"
)

func toks(kinds ...token.Kind) token.Slice {
	ts := make([]token.Token, len(kinds))
	for i, k := range kinds {
		ts[i] = token.Token{Kind: k, Lexeme: []byte(k.String())}
	}
	return token.NewSlice(ts)
}

func TestGetTypeSimpleIdent(t *testing.T) {
	s := toks(token.IDENT)
	s.Tokens[0].Lexeme = []byte("i32")
	expr, next, err := namespace.GetType(s, 0)
	if err != nil {
		t.Fatalf("GetType error: %v", err)
	}
	named, ok := expr.(*ast.NamedTypeExpr)
	if !ok || named.Name != "i32" {
		t.Fatalf("expected NamedTypeExpr(i32), got %#v", expr)
	}
	if next != 1 {
		t.Fatalf("next = %d, want 1", next)
	}
}

func TestGetTypeOptionalArray(t *testing.T) {
	// i32[]?
	s := toks(token.IDENT, token.LBRACKET, token.RBRACKET, token.QUESTION)
	s.Tokens[0].Lexeme = []byte("i32")
	expr, next, err := namespace.GetType(s, 0)
	if err != nil {
		t.Fatalf("GetType error: %v", err)
	}
	opt, ok := expr.(*ast.OptionalTypeExpr)
	if !ok {
		t.Fatalf("expected OptionalTypeExpr, got %#v", expr)
	}
	arr, ok := opt.Base.(*ast.ArrayTypeExpr)
	if !ok || arr.Dims != 1 {
		t.Fatalf("expected ArrayTypeExpr(dims=1), got %#v", opt.Base)
	}
	if next != s.Len() {
		t.Fatalf("expected to consume the whole slice, got next=%d", next)
	}
}

func TestCreateTypeResolvesPrimitive(t *testing.T) {
	types.ClearTypes()
	types.InitTypes()
	ns := namespace.New("a.fl")
	got, err := ns.CreateType(&ast.NamedTypeExpr{Name: "i64"})
	if err != nil {
		t.Fatalf("CreateType error: %v", err)
	}
	if got.ToString() != "i64" {
		t.Fatalf("CreateType = %q, want %q", got.ToString(), "i64")
	}
}

func TestCreateTypeUnknownPlaceholder(t *testing.T) {
	ns := namespace.New("a.fl")
	got, err := ns.CreateType(&ast.NamedTypeExpr{Name: "Widget"})
	if err != nil {
		t.Fatalf("CreateType error: %v", err)
	}
	if got.Variation() != types.Unknown {
		t.Fatalf("expected Unknown variation, got %s", got.Variation())
	}
}

func TestGetFunctionsFromCallTypesExactMatch(t *testing.T) {
	types.ClearTypes()
	types.InitTypes()
	ns := namespace.New("a.fl")
	i32 := types.GetPrimitiveType("i32")
	def := &ast.FuncDef{}
	def.Name = "add"
	ns.AddFunc(def, []*types.Type{i32, i32}, []*types.Type{i32})

	got, err := ns.GetFunctionsFromCallTypes("add", []*types.Type{i32, i32})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected exactly one candidate, got %d", len(got))
	}
}

func TestGetFunctionsFromCallTypesNoCandidate(t *testing.T) {
	types.ClearTypes()
	types.InitTypes()
	ns := namespace.New("a.fl")
	_, err := ns.GetFunctionsFromCallTypes("missing", nil)
	if err == nil {
		t.Fatal("expected an error for an unknown function name")
	}
}

func TestFindCoreFunction(t *testing.T) {
	if !namespace.FindCoreFunction("core:print") {
		t.Fatal("expected core:print to be a recognized core function")
	}
	if namespace.FindCoreFunction("core:nonexistent") {
		t.Fatal("did not expect core:nonexistent to be recognized")
	}
}
