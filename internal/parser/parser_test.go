// Copyright (c) 2024 Michael D Henderson. All rights reserved.

package parser_test

import (
	"testing"

	"github.com/flint-lang/flintfe/internal/ast"
	"github.com/flint-lang/flintfe/internal/lexer"
	"github.com/flint-lang/flintfe/internal/parser"
	"github.com/flint-lang/flintfe/internal/token"
	"github.com/go-test/deep"
)

func mustLexTokens(t *testing.T, src string) []token.Token {
	t.Helper()
	toks, _, err := lexer.Tokenize([]byte(src), 0)
	if err != nil {
		t.Fatalf("lexer error: %v", err)
	}
	return toks
}

func tokenSliceFrom(toks []token.Token) token.Slice { return token.NewSlice(toks) }

func TestParseDefinitionsRecognizesFunc(t *testing.T) {
	src := "func add(i32 a, i32 b) -> i32:\n    return a\n"
	toks := mustLexTokens(t, src)

	file, _, bag := parser.ParseDefinitions("add.fl", toks)
	if bag.HasFatal() {
		t.Fatalf("unexpected diagnostics: %+v", bag.Items())
	}
	if len(file.Ast.Funcs) != 1 {
		t.Fatalf("expected 1 func def, got %d", len(file.Ast.Funcs))
	}
	fn := file.Ast.Funcs[0]
	if fn.Name != "add" {
		t.Fatalf("func name = %q, want %q", fn.Name, "add")
	}
	if len(fn.Params) != 2 {
		t.Fatalf("expected 2 params, got %d", len(fn.Params))
	}
	if len(file.Funcs) != 1 {
		t.Fatalf("expected 1 pending body, got %d", len(file.Funcs))
	}
}

func TestParseDefinitionsRecognizesEnum(t *testing.T) {
	src := "enum Color: Red, Green, Blue\n"
	toks := mustLexTokens(t, src)

	file, _, bag := parser.ParseDefinitions("c.fl", toks)
	if bag.HasFatal() {
		t.Fatalf("unexpected diagnostics: %+v", bag.Items())
	}
	if len(file.Ast.Enums) != 1 {
		t.Fatalf("expected 1 enum def, got %d", len(file.Ast.Enums))
	}
	if got := file.Ast.Enums[0].Variants; len(got) != 3 {
		t.Fatalf("expected 3 variants, got %d (%v)", len(got), got)
	}
}

func TestParseDefinitionsRecognizesImport(t *testing.T) {
	src := "use core_io as io\n"
	toks := mustLexTokens(t, src)

	file, _, bag := parser.ParseDefinitions("m.fl", toks)
	if bag.HasFatal() {
		t.Fatalf("unexpected diagnostics: %+v", bag.Items())
	}
	if len(file.Ast.Imports) != 1 {
		t.Fatalf("expected 1 import, got %d", len(file.Ast.Imports))
	}
	imp := file.Ast.Imports[0]
	if !imp.IsUse || imp.Alias != "io" {
		t.Fatalf("expected aliased use import, got %+v", imp)
	}
}

func TestParseBodyReturnExpression(t *testing.T) {
	src := "func f() -> i32:\n    return 1 + 2 * 3\n"
	toks := mustLexTokens(t, src)

	file, _, bag := parser.ParseDefinitions("f.fl", toks)
	if bag.HasFatal() {
		t.Fatalf("unexpected diagnostics: %+v", bag.Items())
	}
	if len(file.Funcs) != 1 {
		t.Fatalf("expected 1 pending func body, got %d", len(file.Funcs))
	}

	s := tokenSliceFrom(toks)
	stmts, err := parser.ParseBody(s, file.Funcs[0].Body)
	if err != nil {
		t.Fatalf("ParseBody error: %v", err)
	}
	if len(stmts) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(stmts))
	}
	ret, ok := stmts[0].(*ast.ReturnStmt)
	if !ok {
		t.Fatalf("expected *ast.ReturnStmt, got %T", stmts[0])
	}
	bin, ok := ret.Value.(*ast.BinaryExpr)
	if !ok {
		t.Fatalf("expected top-level BinaryExpr (lowest precedence wins outer position), got %T", ret.Value)
	}
	// Precedence: 1 + (2 * 3) — '+' is the root since '*' binds tighter.
	if bin.Op != "+" {
		t.Fatalf("root operator = %q, want %q", bin.Op, "+")
	}
	if _, ok := bin.RHS.(*ast.BinaryExpr); !ok {
		t.Fatalf("expected RHS to be the tighter-binding '*' expression, got %T", bin.RHS)
	}
}

func TestParseBodyStackedOptionalChain(t *testing.T) {
	src := "func f() -> i32:\n    return p?.x\n"
	toks := mustLexTokens(t, src)

	file, _, bag := parser.ParseDefinitions("f.fl", toks)
	if bag.HasFatal() {
		t.Fatalf("unexpected diagnostics: %+v", bag.Items())
	}
	s := tokenSliceFrom(toks)
	stmts, err := parser.ParseBody(s, file.Funcs[0].Body)
	if err != nil {
		t.Fatalf("ParseBody error: %v", err)
	}
	ret := stmts[0].(*ast.ReturnStmt)
	chain, ok := ret.Value.(*ast.OptionalChainExpr)
	if !ok {
		t.Fatalf("expected *ast.OptionalChainExpr, got %T", ret.Value)
	}
	if chain.Field != "x" {
		t.Fatalf("chain field = %q, want %q", chain.Field, "x")
	}
}

func parseSingleFuncBody(t *testing.T, src string) []ast.Stmt {
	t.Helper()
	toks := mustLexTokens(t, src)
	file, _, bag := parser.ParseDefinitions("f.fl", toks)
	if bag.HasFatal() {
		t.Fatalf("unexpected diagnostics: %+v", bag.Items())
	}
	if len(file.Funcs) != 1 {
		t.Fatalf("expected 1 pending func body, got %d", len(file.Funcs))
	}
	s := tokenSliceFrom(toks)
	stmts, err := parser.ParseBody(s, file.Funcs[0].Body)
	if err != nil {
		t.Fatalf("ParseBody error: %v", err)
	}
	return stmts
}

// TestParseBodyIfDoesNotDuplicateNestedStatements guards against the
// flat-line-list bug: every statement inside the if's block must appear
// exactly once, inside IfStmt.Then, not a second time as a sibling
// top-level statement.
func TestParseBodyIfDoesNotDuplicateNestedStatements(t *testing.T) {
	src := "func f(i32 a) -> i32:\n" +
		"    if a:\n" +
		"        return 1\n" +
		"        return 2\n" +
		"    return 3\n"
	stmts := parseSingleFuncBody(t, src)
	if len(stmts) != 2 {
		t.Fatalf("expected 2 top-level statements (if, trailing return), got %d: %+v", len(stmts), stmts)
	}
	ifStmt, ok := stmts[0].(*ast.IfStmt)
	if !ok {
		t.Fatalf("expected *ast.IfStmt, got %T", stmts[0])
	}
	if len(ifStmt.Then) != 2 {
		t.Fatalf("expected 2 statements in the if-block, got %d", len(ifStmt.Then))
	}
	if _, ok := stmts[1].(*ast.ReturnStmt); !ok {
		t.Fatalf("expected trailing return as its own top-level statement, got %T", stmts[1])
	}
}

func TestParseBodyIfElse(t *testing.T) {
	src := "func f(i32 a) -> i32:\n" +
		"    if a:\n" +
		"        return 1\n" +
		"    else:\n" +
		"        return 2\n"
	stmts := parseSingleFuncBody(t, src)
	if len(stmts) != 1 {
		t.Fatalf("expected 1 top-level statement, got %d", len(stmts))
	}
	ifStmt := stmts[0].(*ast.IfStmt)
	if len(ifStmt.Then) != 1 || len(ifStmt.Else) != 1 {
		t.Fatalf("expected 1 then-stmt and 1 else-stmt, got then=%d else=%d", len(ifStmt.Then), len(ifStmt.Else))
	}
}

func TestParseBodyElseIfChain(t *testing.T) {
	src := "func f(i32 a) -> i32:\n" +
		"    if a:\n" +
		"        return 1\n" +
		"    else if a:\n" +
		"        return 2\n" +
		"    else:\n" +
		"        return 3\n"
	stmts := parseSingleFuncBody(t, src)
	if len(stmts) != 1 {
		t.Fatalf("expected 1 top-level statement, got %d", len(stmts))
	}
	outer := stmts[0].(*ast.IfStmt)
	if len(outer.Else) != 1 {
		t.Fatalf("expected the else-if to attach as a single nested IfStmt, got %d", len(outer.Else))
	}
	inner, ok := outer.Else[0].(*ast.IfStmt)
	if !ok {
		t.Fatalf("expected nested *ast.IfStmt for else-if, got %T", outer.Else[0])
	}
	if len(inner.Else) != 1 {
		t.Fatalf("expected the chained else to attach to the inner if, got %d", len(inner.Else))
	}
}

// TestParseBodyElseBindsToShallowestEnclosingIf guards the indent-column
// check in parseIfStmt: a dedented `else` must attach to the outer if,
// not be swallowed by the inner if's own else-search.
func TestParseBodyElseBindsToShallowestEnclosingIf(t *testing.T) {
	src := "func f(i32 a, i32 b) -> i32:\n" +
		"    if a:\n" +
		"        if b:\n" +
		"            return 1\n" +
		"    else:\n" +
		"        return 2\n"
	stmts := parseSingleFuncBody(t, src)
	if len(stmts) != 1 {
		t.Fatalf("expected 1 top-level statement, got %d: %+v", len(stmts), stmts)
	}
	outer := stmts[0].(*ast.IfStmt)
	if len(outer.Else) != 1 {
		t.Fatalf("expected the outer if to carry the else, got %d", len(outer.Else))
	}
	if len(outer.Then) != 1 {
		t.Fatalf("expected exactly the inner if as the outer's then-body, got %d", len(outer.Then))
	}
	inner, ok := outer.Then[0].(*ast.IfStmt)
	if !ok {
		t.Fatalf("expected inner *ast.IfStmt, got %T", outer.Then[0])
	}
	if inner.Else != nil {
		t.Fatalf("expected the inner if to have no else of its own, got %+v", inner.Else)
	}
}

func TestParseBodyForLoopPopulatesBody(t *testing.T) {
	src := "func f() -> i32:\n" +
		"    for x in xs:\n" +
		"        return x\n" +
		"    return 0\n"
	stmts := parseSingleFuncBody(t, src)
	if len(stmts) != 2 {
		t.Fatalf("expected 2 top-level statements, got %d", len(stmts))
	}
	forStmt, ok := stmts[0].(*ast.ForStmt)
	if !ok {
		t.Fatalf("expected *ast.ForStmt, got %T", stmts[0])
	}
	if len(forStmt.Body) != 1 {
		t.Fatalf("expected 1 statement in the for-body, got %d", len(forStmt.Body))
	}
}

func TestParseBodyWhileLoopPopulatesBody(t *testing.T) {
	src := "func f(i32 a) -> i32:\n" +
		"    while a:\n" +
		"        a = a\n" +
		"    return a\n"
	stmts := parseSingleFuncBody(t, src)
	if len(stmts) != 2 {
		t.Fatalf("expected 2 top-level statements, got %d", len(stmts))
	}
	whileStmt, ok := stmts[0].(*ast.WhileStmt)
	if !ok {
		t.Fatalf("expected *ast.WhileStmt, got %T", stmts[0])
	}
	if len(whileStmt.Body) != 1 {
		t.Fatalf("expected 1 statement in the while-body, got %d", len(whileStmt.Body))
	}
}

// TestParseDefinitionsIsDeterministic guards the definition pass's
// idempotence: running it twice over identical tokens must produce
// structurally identical stub AST nodes, not just equal counts.
func TestParseDefinitionsIsDeterministic(t *testing.T) {
	src := "data Point:\n" +
		"    i32 x\n" +
		"    i32 y\n" +
		"    func len(Point self) -> i32:\n" +
		"        return self.x\n"

	file1, _, bag1 := parser.ParseDefinitions("point.fl", mustLexTokens(t, src))
	if bag1.HasFatal() {
		t.Fatalf("unexpected diagnostics: %+v", bag1.Items())
	}
	file2, _, bag2 := parser.ParseDefinitions("point.fl", mustLexTokens(t, src))
	if bag2.HasFatal() {
		t.Fatalf("unexpected diagnostics: %+v", bag2.Items())
	}

	if diff := deep.Equal(file1.Ast.Datas, file2.Ast.Datas); diff != nil {
		t.Fatalf("definition pass is not deterministic: %v", diff)
	}
}
