// Copyright (c) 2024 Michael D Henderson. All rights reserved.

package parser

import (
	"fmt"
	"strconv"

	"github.com/flint-lang/flintfe/cerrs"
	"github.com/flint-lang/flintfe/internal/ast"
	"github.com/flint-lang/flintfe/internal/diag"
	"github.com/flint-lang/flintfe/internal/matcher"
	"github.com/flint-lang/flintfe/internal/namespace"
	"github.com/flint-lang/flintfe/internal/token"
)

// ParseBody parses the statements inside a recorded BodyRange of a
// file's token slice (spec §4.3 pass 5, "body passes"). It is called
// once per pending func/test/method after the resolver has bound
// imports, so the same grammar serves every block-bodied definition
// kind.
//
// The cursor advances by whatever a statement reports it consumed
// rather than over a precomputed flat line list: control-flow
// statements (if/for/while) recurse into their own nested block via
// findBlockBody, and the outer loop must resume after that nested
// range rather than re-visiting its lines as top-level statements.
func ParseBody(s token.Slice, r BodyRange) ([]ast.Stmt, error) {
	body := s.Sub(r.Start, r.End)
	var stmts []ast.Stmt
	i := 0
	for i < body.Len() {
		for i < body.Len() && (body.At(i).Kind == token.INDENT || body.At(i).Kind == token.EOL) {
			i++
		}
		if i >= body.Len() {
			break
		}
		lineEnd := i
		for lineEnd < body.Len() && body.At(lineEnd).Kind != token.EOL {
			lineEnd++
		}
		line := body.Sub(i, lineEnd)
		stmt, next, err := parseStatement(body, i, line, lineEnd)
		if err != nil {
			return stmts, err
		}
		stmts = append(stmts, stmt)
		i = next
	}
	return stmts, nil
}

// statement-kind matcher primitives, built from shared token singletons.
var (
	pReturn   = matcher.Token(token.KW_RETURN)
	pIf       = matcher.Token(token.KW_IF)
	pFor      = matcher.Token(token.KW_FOR)
	pWhile    = matcher.Token(token.KW_WHILE)
	pBreak    = matcher.Token(token.KW_BREAK)
	pContinue = matcher.Token(token.KW_CONTINUE)

	// assignment_shorthand: `target (+=|-=|*=|/=) expr`
	assignShorthandOps = map[token.Kind]string{
		token.PLUS_EQ:  "+=",
		token.MINUS_EQ: "-=",
		token.STAR_EQ:  "*=",
		token.SLASH_EQ: "/=",
	}
)

func tryMatch(p matcher.Pattern, s token.Slice, at int) bool {
	_, ok := p(s, at)
	return ok
}

func stmtBase(r diag.Range) ast.StmtBase { return ast.StmtBase{Rng: r} }

// parseStatement recognizes one statement starting at lineStart/line and
// reports the index in s to resume scanning from. For simple statements
// that is lineEnd (the index of the line's EOL, or s.Len()); for
// control-flow statements with a nested block it is the index just past
// that block (and any attached else-clause), since the block's own
// lines were already consumed by the recursive ParseBody call.
//
// Trial order matters (spec §4.3): assignment_shorthand is tried before
// plain assignment; an `=` immediately preceded by a DOT is not taken
// as the assignment operator. A target such as `obj.(x,y)` is rejected
// by the expression parser, since a DOT must be followed by a field name.
func parseStatement(s token.Slice, lineStart int, line token.Slice, lineEnd int) (ast.Stmt, int, error) {
	head := line.At(0)
	rng := rangeOf(head)

	switch {
	case tryMatch(pReturn, line, 0):
		if line.Len() == 1 {
			return &ast.ReturnStmt{StmtBase: stmtBase(rng)}, lineEnd, nil
		}
		val, err := parseExpr(line.Sub(1, line.Len()))
		if err != nil {
			return nil, 0, err
		}
		return &ast.ReturnStmt{StmtBase: stmtBase(rng), Value: val}, lineEnd, nil

	case tryMatch(pBreak, line, 0):
		return &ast.BreakStmt{StmtBase: stmtBase(rng)}, lineEnd, nil

	case tryMatch(pContinue, line, 0):
		return &ast.ContinueStmt{StmtBase: stmtBase(rng)}, lineEnd, nil

	case tryMatch(pIf, line, 0):
		return parseIfStmt(s, lineStart, line, head.Col)

	case tryMatch(pFor, line, 0):
		return parseForStmt(s, lineStart, line)

	case tryMatch(pWhile, line, 0):
		return parseWhileStmt(s, lineStart, line)

	case isVarDecl(line):
		stmt, err := parseVarDecl(line)
		return stmt, lineEnd, err

	default:
		stmt, err := parseAssignOrExprStmt(line)
		return stmt, lineEnd, err
	}
}

func isVarDecl(line token.Slice) bool {
	i := 0
	if line.At(i).Kind == token.KW_MUT {
		i++
	}
	// `[mut] IDENT := expr`
	if i+1 < line.Len() && line.At(i).Kind == token.IDENT && line.At(i+1).Kind == token.COLON_EQ {
		return true
	}
	// `[mut] Type IDENT = expr` — a type annotation followed by a name
	// and `=` rather than `:=`.
	if _, next, err := namespace.GetType(line, i); err == nil {
		if next < line.Len() && line.At(next).Kind == token.IDENT {
			if next+1 < line.Len() && line.At(next+1).Kind == token.ASSIGN {
				return true
			}
		}
	}
	return false
}

func parseVarDecl(line token.Slice) (ast.Stmt, error) {
	rng := rangeOf(line.At(0))
	i := 0
	mutable := false
	if line.At(i).Kind == token.KW_MUT {
		mutable = true
		i++
	}
	if line.At(i).Kind == token.IDENT && i+1 < line.Len() && line.At(i+1).Kind == token.COLON_EQ {
		name := line.At(i).Text()
		val, err := parseExpr(line.Sub(i+2, line.Len()))
		if err != nil {
			return nil, err
		}
		return &ast.VarDeclStmt{StmtBase: stmtBase(rng), Name: name, Mutable: mutable, Value: val}, nil
	}
	typeExpr, next, err := namespace.GetType(line, i)
	if err != nil {
		return nil, err
	}
	if next >= line.Len() || line.At(next).Kind != token.IDENT {
		return nil, fmt.Errorf("%w: expected variable name", cerrs.ErrUnknownType)
	}
	name := line.At(next).Text()
	next++
	if next >= line.Len() || line.At(next).Kind != token.ASSIGN {
		return nil, fmt.Errorf("%w: expected '=' in declaration", cerrs.ErrUnknownType)
	}
	val, err := parseExpr(line.Sub(next+1, line.Len()))
	if err != nil {
		return nil, err
	}
	return &ast.VarDeclStmt{StmtBase: stmtBase(rng), Name: name, Type: typeExpr, Mutable: mutable, Value: val}, nil
}

// parseAssignOrExprStmt tries assignment_shorthand, then plain/group
// assignment guarded by not_preceded_by(DOT, ...), then falls back to a
// bare expression statement.
func parseAssignOrExprStmt(line token.Slice) (ast.Stmt, error) {
	rng := rangeOf(line.At(0))

	for i := 0; i < line.Len(); i++ {
		if op, ok := assignShorthandOps[line.At(i).Kind]; ok {
			target, err := parseExpr(line.Sub(0, i))
			if err != nil {
				return nil, err
			}
			value, err := parseExpr(line.Sub(i+1, line.Len()))
			if err != nil {
				return nil, err
			}
			return &ast.AssignStmt{StmtBase: stmtBase(rng), Target: target, Op: op, Value: value}, nil
		}
	}

	for i := 0; i < line.Len(); i++ {
		if line.At(i).Kind != token.ASSIGN {
			continue
		}
		if i > 0 && line.At(i-1).Kind == token.DOT {
			continue // an `=` right after a DOT is not an assignment operator
		}
		target, err := parseExpr(line.Sub(0, i))
		if err != nil {
			return nil, err
		}
		value, err := parseExpr(line.Sub(i+1, line.Len()))
		if err != nil {
			return nil, err
		}
		return &ast.AssignStmt{StmtBase: stmtBase(rng), Target: target, Op: "=", Value: value}, nil
	}

	val, err := parseExpr(line)
	if err != nil {
		return nil, err
	}
	return &ast.ExprStmt{StmtBase: stmtBase(rng), Value: val}, nil
}

// parseIfStmt parses an if-header, recurses into its then-block via
// findBlockBody+ParseBody, and — if the line immediately following the
// then-block is an `else:` or `else if ...:` header at indentCol (the
// column of this statement's own leading keyword, "if" or "else") —
// consumes and attaches it too, chaining `else if` into a nested IfStmt
// the way the grammar's cascade desugars. indentCol guards against
// grabbing an else that belongs to a shallower enclosing if. It returns
// the index in s just past the entire if/else construct.
func parseIfStmt(s token.Slice, lineStart int, line token.Slice, indentCol uint16) (ast.Stmt, int, error) {
	colonIdx := trailingColonIndex(line)
	if colonIdx < 0 {
		return nil, 0, fmt.Errorf("%w: expected ':' after if condition", cerrs.ErrUnknownType)
	}
	cond, err := parseExpr(line.Sub(1, colonIdx))
	if err != nil {
		return nil, 0, err
	}
	bodyRange := findBlockBody(s, lineStart+colonIdx)
	thenBody, err := ParseBody(s, bodyRange)
	if err != nil {
		return nil, 0, err
	}

	stmt := &ast.IfStmt{StmtBase: stmtBase(rangeOf(line.At(0))), Cond: cond, Then: thenBody}
	next := bodyRange.End

	elseLine, elseEnd, ok := peekElseLine(s, next)
	if !ok || elseLine.At(0).Col != indentCol {
		return stmt, next, nil
	}
	elseStart := elseEnd - elseLine.Len() // index of the `else` keyword in s

	if tryMatch(pIf, elseLine, 1) {
		// `else if ...:` — recurse as a nested if-statement attached as
		// this statement's Else, consuming the chained condition's own
		// block (and any further else-chain) in the same call.
		elseIf, elseNext, err := parseIfStmt(s, elseStart+1, elseLine.Sub(1, elseLine.Len()), elseLine.At(0).Col)
		if err != nil {
			return nil, 0, err
		}
		stmt.Else = []ast.Stmt{elseIf}
		return stmt, elseNext, nil
	}

	elseColon := trailingColonIndex(elseLine)
	if elseColon != 1 {
		return nil, 0, fmt.Errorf("%w: expected ':' after else", cerrs.ErrUnknownType)
	}
	elseBodyRange := findBlockBody(s, elseStart+elseColon)
	elseBody, err := ParseBody(s, elseBodyRange)
	if err != nil {
		return nil, 0, err
	}
	stmt.Else = elseBody
	return stmt, elseBodyRange.End, nil
}

// peekElseLine reports the logical line starting at from (skipping
// leading INDENT/EOL markers) if its first token is KW_ELSE, along with
// the index of that line's EOL (or s.Len()).
func peekElseLine(s token.Slice, from int) (line token.Slice, lineEnd int, ok bool) {
	i := from
	for i < s.Len() && (s.At(i).Kind == token.INDENT || s.At(i).Kind == token.EOL) {
		i++
	}
	if i >= s.Len() || s.At(i).Kind != token.KW_ELSE {
		return token.Slice{}, 0, false
	}
	end := i
	for end < s.Len() && s.At(end).Kind != token.EOL {
		end++
	}
	return s.Sub(i, end), end, true
}

func parseForStmt(s token.Slice, lineStart int, line token.Slice) (ast.Stmt, int, error) {
	if line.Len() < 4 || line.At(1).Kind != token.IDENT || line.At(2).Kind != token.KW_IN {
		return nil, 0, fmt.Errorf("%w: expected 'for NAME in ITER:'", cerrs.ErrUnknownType)
	}
	varName := line.At(1).Text()
	colonIdx := trailingColonIndex(line)
	if colonIdx < 0 {
		return nil, 0, fmt.Errorf("%w: expected ':' after for-loop header", cerrs.ErrUnknownType)
	}
	iter, err := parseExpr(line.Sub(3, colonIdx))
	if err != nil {
		return nil, 0, err
	}
	bodyRange := findBlockBody(s, lineStart+colonIdx)
	body, err := ParseBody(s, bodyRange)
	if err != nil {
		return nil, 0, err
	}
	return &ast.ForStmt{StmtBase: stmtBase(rangeOf(line.At(0))), VarName: varName, Iterable: iter, Body: body}, bodyRange.End, nil
}

func parseWhileStmt(s token.Slice, lineStart int, line token.Slice) (ast.Stmt, int, error) {
	colonIdx := trailingColonIndex(line)
	if colonIdx < 0 {
		return nil, 0, fmt.Errorf("%w: expected ':' after while condition", cerrs.ErrUnknownType)
	}
	cond, err := parseExpr(line.Sub(1, colonIdx))
	if err != nil {
		return nil, 0, err
	}
	bodyRange := findBlockBody(s, lineStart+colonIdx)
	body, err := ParseBody(s, bodyRange)
	if err != nil {
		return nil, 0, err
	}
	return &ast.WhileStmt{StmtBase: stmtBase(rangeOf(line.At(0))), Cond: cond, Body: body}, bodyRange.End, nil
}

// --- Expression parsing: precedence climbing ----------------------------

// precedence tiers, lowest to highest (spec §4.3 "operational,
// relational, boolean" partition, boolean binding loosest).
var binaryPrecedence = map[token.Kind]int{
	token.OR_OR:     1,
	token.AND_AND:   2,
	token.EQ_EQ:     3,
	token.NOT_EQ:    3,
	token.LT:        3,
	token.GT:        3,
	token.LT_EQ:     3,
	token.GT_EQ:     3,
	token.PLUS:      4,
	token.MINUS:     4,
	token.STAR:      5,
	token.SLASH:     5,
	token.PERCENT:   5,
	token.STAR_STAR: 6,
}

// parseExpr parses a full precedence-climbing expression over s.
func parseExpr(s token.Slice) (ast.Expr, error) {
	p := &exprParser{s: s}
	expr, err := p.parseBinary(0)
	if err != nil {
		return nil, err
	}
	if p.pos != s.Len() {
		return nil, fmt.Errorf("%w: unexpected trailing tokens in expression", cerrs.ErrUnknownType)
	}
	return expr, nil
}

type exprParser struct {
	s   token.Slice
	pos int
}

func exprBase(r diag.Range) ast.ExprBase { return ast.ExprBase{Rng: r} }

func (p *exprParser) here() diag.Range {
	if p.pos < p.s.Len() {
		return rangeOf(p.s.At(p.pos))
	}
	return diag.Range{}
}

func (p *exprParser) peek() (token.Token, bool) {
	if p.pos >= p.s.Len() {
		return token.Token{}, false
	}
	return p.s.At(p.pos), true
}

func (p *exprParser) parseBinary(minPrec int) (ast.Expr, error) {
	rng := p.here()
	lhs, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		tok, ok := p.peek()
		if !ok {
			break
		}
		prec, isBin := binaryPrecedence[tok.Kind]
		if !isBin || prec < minPrec {
			break
		}
		p.pos++
		rhs, err := p.parseBinary(prec + 1)
		if err != nil {
			return nil, err
		}
		lhs = &ast.BinaryExpr{ExprBase: exprBase(rng), Op: tok.Text(), LHS: lhs, RHS: rhs}
	}
	return lhs, nil
}

var unaryOps = map[token.Kind]string{
	token.PLUS_PLUS:   "++",
	token.MINUS_MINUS: "--",
	token.KW_NOT:      "not",
	token.MINUS:       "-",
	token.AMP:         "&",
}

func (p *exprParser) parseUnary() (ast.Expr, error) {
	if tok, ok := p.peek(); ok {
		if op, isUnary := unaryOps[tok.Kind]; isUnary {
			rng := p.here()
			p.pos++
			operand, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			return &ast.UnaryExpr{ExprBase: exprBase(rng), Op: op, Operand: operand}, nil
		}
	}
	return p.parsePostfixChain()
}

// parsePostfixChain parses a primary expression followed by zero or
// more stacked postfix operators (spec §4.3 "stacked expressions"):
// call, index, `.field`, `?.field`, `!.field`, `?(T)`, `!(T)`.
func (p *exprParser) parsePostfixChain() (ast.Expr, error) {
	rng := p.here()
	base, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		tok, ok := p.peek()
		if !ok {
			break
		}
		switch tok.Kind {
		case token.LPAREN:
			p.pos++
			args, err := p.parseArgList()
			if err != nil {
				return nil, err
			}
			base = &ast.CallExpr{ExprBase: exprBase(rng), Callee: base, Args: args}
		case token.LBRACKET:
			p.pos++
			idx, err := p.parseBinary(0)
			if err != nil {
				return nil, err
			}
			if t, ok := p.peek(); !ok || t.Kind != token.RBRACKET {
				return nil, fmt.Errorf("%w: unclosed index expression", cerrs.ErrUnknownType)
			}
			p.pos++
			base = &ast.IndexExpr{ExprBase: exprBase(rng), Base: base, Index: idx}
		case token.DOT:
			p.pos++
			field, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			base = &ast.MemberExpr{ExprBase: exprBase(rng), Base: base, Field: field}
		case token.DOT_QUESTION:
			p.pos++
			field, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			base = &ast.OptionalChainExpr{ExprBase: exprBase(rng), Base: base, Field: field}
		case token.BANG_DOT:
			p.pos++
			field, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			base = &ast.ForceUnwrapExpr{ExprBase: exprBase(rng), Base: base, Field: field}
		case token.QUESTION, token.BANG:
			if p.pos+1 >= p.s.Len() || p.s.At(p.pos+1).Kind != token.LPAREN {
				return base, nil
			}
			force := tok.Kind == token.BANG
			p.pos += 2
			typeExpr, next, err := namespace.GetType(p.s, p.pos)
			if err != nil {
				return nil, err
			}
			p.pos = next
			if t, ok := p.peek(); !ok || t.Kind != token.RPAREN {
				return nil, fmt.Errorf("%w: unclosed variant extraction", cerrs.ErrUnknownType)
			}
			p.pos++
			base = &ast.VariantExtractExpr{ExprBase: exprBase(rng), Base: base, Type: typeExpr, Force: force}
		default:
			return base, nil
		}
	}
	return base, nil
}

func (p *exprParser) expectIdent() (string, error) {
	tok, ok := p.peek()
	if !ok || tok.Kind != token.IDENT {
		return "", fmt.Errorf("%w: expected identifier", cerrs.ErrUnknownType)
	}
	p.pos++
	return tok.Text(), nil
}

func (p *exprParser) parseArgList() ([]ast.Expr, error) {
	var args []ast.Expr
	for {
		tok, ok := p.peek()
		if !ok {
			return nil, fmt.Errorf("%w: unclosed call argument list", cerrs.ErrUnknownType)
		}
		if tok.Kind == token.RPAREN {
			p.pos++
			return args, nil
		}
		arg, err := p.parseBinary(0)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if tok2, ok := p.peek(); ok && tok2.Kind == token.COMMA {
			p.pos++
			continue
		}
	}
}

func (p *exprParser) parsePrimary() (ast.Expr, error) {
	tok, ok := p.peek()
	if !ok {
		return nil, fmt.Errorf("%w: expected expression", cerrs.ErrUnknownType)
	}
	rng := rangeOf(tok)
	switch tok.Kind {
	case token.IDENT:
		p.pos++
		return &ast.IdentExpr{ExprBase: exprBase(rng), Name: tok.Text()}, nil
	case token.INT_LIT:
		p.pos++
		v, _ := strconv.ParseInt(tok.Text(), 10, 64)
		return &ast.IntLitExpr{ExprBase: exprBase(rng), Value: v}, nil
	case token.FLOAT_LIT:
		p.pos++
		v, _ := strconv.ParseFloat(tok.Text(), 64)
		return &ast.FloatLitExpr{ExprBase: exprBase(rng), Value: v}, nil
	case token.STR_LIT:
		p.pos++
		return &ast.StrLitExpr{ExprBase: exprBase(rng), Parts: []any{tok.Text()}}, nil
	case token.CHAR_LIT:
		p.pos++
		r := []rune(tok.Text())
		var v rune
		if len(r) > 0 {
			v = r[0]
		}
		return &ast.CharLitExpr{ExprBase: exprBase(rng), Value: v}, nil
	case token.KW_TRUE:
		p.pos++
		return &ast.BoolLitExpr{ExprBase: exprBase(rng), Value: true}, nil
	case token.KW_FALSE:
		p.pos++
		return &ast.BoolLitExpr{ExprBase: exprBase(rng), Value: false}, nil
	case token.DOLLAR:
		return p.parseInterpolatedString()
	case token.LPAREN:
		p.pos++
		var items []ast.Expr
		for {
			item, err := p.parseBinary(0)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
			if t, ok := p.peek(); ok && t.Kind == token.COMMA {
				p.pos++
				continue
			}
			break
		}
		if t, ok := p.peek(); !ok || t.Kind != token.RPAREN {
			return nil, fmt.Errorf("%w: unclosed parenthesized expression", cerrs.ErrUnknownType)
		}
		p.pos++
		if len(items) == 1 {
			return items[0], nil
		}
		return &ast.GroupExpr{ExprBase: exprBase(rng), Items: items}, nil
	default:
		return nil, fmt.Errorf("%w: unexpected token %s in expression", cerrs.ErrUnknownType, tok.Kind)
	}
}

// parseInterpolatedString consumes a `$"..."`-shaped token run: the
// lexer emits DOLLAR followed by a single STR_VALUE token holding the
// whole quoted text, braces included. That text is recorded as the
// only entry of Parts; expressions written inside the braces are not
// parsed, here or in any later pass.
func (p *exprParser) parseInterpolatedString() (ast.Expr, error) {
	rng := p.here()
	p.pos++ // consume DOLLAR
	tok, ok := p.peek()
	if !ok || tok.Kind != token.STR_VALUE {
		return nil, fmt.Errorf("%w: expected interpolated string value", cerrs.ErrUnknownType)
	}
	p.pos++
	return &ast.StrLitExpr{ExprBase: exprBase(rng), Parts: []any{tok.Text()}}, nil
}
