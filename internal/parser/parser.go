// Copyright (c) 2024 Michael D Henderson. All rights reserved.

// Package parser implements the multi-pass front-end parser: a
// definition pass that recognizes top-level signatures and records
// bracketed body ranges without descending into them, and body passes
// that parse statements/expressions inside those recorded ranges.
//
// Grounded on the teacher's (now-adapted) internal/parser/parser.go
// multi-pass idiom — one top-level dispatch loop classifying each
// record by a leading keyword/shape before descending into
// type-specific parsing — generalized from flat report line records to
// definition-signature token ranges using internal/matcher patterns in
// place of the teacher's regexps.
package parser

import (
	"fmt"

	"github.com/flint-lang/flintfe/cerrs"
	"github.com/flint-lang/flintfe/internal/ast"
	"github.com/flint-lang/flintfe/internal/diag"
	"github.com/flint-lang/flintfe/internal/matcher"
	"github.com/flint-lang/flintfe/internal/namespace"
	"github.com/flint-lang/flintfe/internal/token"
	"github.com/flint-lang/flintfe/internal/types"
)

// BodyRange is a recorded-but-unparsed bracketed body: the definition
// pass records [Start,End) in the file's token slice; a later body pass
// parses it.
type BodyRange struct {
	Start, End int
}

// PendingFunc pairs a definition-pass FuncDef stub with the body range
// the body pass must still parse.
type PendingFunc struct {
	Def  *ast.FuncDef
	Body BodyRange
}

// PendingData, PendingEntity mirror PendingFunc for definitions whose
// bodies (methods) are also deferred to a body pass.
type PendingData struct {
	Def     *ast.DataDef
	Methods []PendingFunc
}

type PendingEntity struct {
	Def     *ast.EntityDef
	Methods []PendingFunc
}

type PendingTest struct {
	Def  *ast.TestDef
	Body BodyRange
}

// File is the result of running the definition pass over one file's
// token stream: stub AST nodes plus the recorded ranges the body passes
// still need to visit.
type File struct {
	Ast      *ast.File
	Funcs    []PendingFunc
	Datas    []PendingData
	Entities []PendingEntity
	Tests    []PendingTest
}

// definition-pass matcher primitives, built once from shared token
// singletons (spec §4.2 "Shared token singletons").
var (
	pFunc       = matcher.Token(token.KW_FUNC)
	pExtern     = matcher.Token(token.KW_EXTERN)
	pData       = matcher.Token(token.KW_DATA)
	pEnum       = matcher.Token(token.KW_ENUM)
	pVariant    = matcher.Token(token.KW_VARIANT)
	pError      = matcher.Token(token.KW_ERROR)
	pEntity     = matcher.Token(token.KW_ENTITY)
	pTest       = matcher.Token(token.KW_TEST)
	pImport     = matcher.Token(token.KW_IMPORT)
	pUse        = matcher.Token(token.KW_USE)
	pTypeKw     = matcher.Token(token.KW_TYPE)
	pIdent      = matcher.Token(token.IDENT)
	pColon      = matcher.Token(token.COLON)
	pEol        = matcher.Token(token.EOL)
	pIndent     = matcher.Token(token.INDENT)
)

// ParseDefinitions runs the definition pass (spec §4.3 pass 1) over a
// single file's tokens, returning stub AST nodes and deferred body
// ranges. It never descends into a recorded body range.
func ParseDefinitions(path string, toks []token.Token) (*File, *namespace.Namespace, diag.Bag) {
	var bag diag.Bag
	s := token.NewSlice(toks)
	ns := namespace.New(path)
	out := &File{Ast: &ast.File{Path: path}}

	lineStarts := splitLines(s)
	for _, ls := range lineStarts {
		if ls.Start > 0 && s.At(ls.Start-1).Kind == token.INDENT {
			continue // indented lines belong to the body range of a definition above
		}
		line := s.Sub(ls.Start, ls.End)
		classifyAndRecord(path, s, ls.Start, line, out, ns, &bag)
	}
	return out, ns, bag
}

type lineRange struct{ Start, End int }

// splitLines partitions s into logical lines delimited by EOL, indented
// lines included, skipping leading INDENT markers so each lineRange
// begins at the first substantive token (matches the teacher's "scan once, dispatch
// by leading shape" loop style).
func splitLines(s token.Slice) []lineRange {
	var lines []lineRange
	i := 0
	for i < s.Len() {
		for i < s.Len() && s.At(i).Kind == token.INDENT {
			i++
		}
		if i >= s.Len() || s.At(i).Kind == token.EOF {
			break
		}
		start := i
		for i < s.Len() && s.At(i).Kind != token.EOL {
			i++
		}
		end := i
		if i < s.Len() {
			i++ // consume EOL
		}
		if end > start {
			lines = append(lines, lineRange{start, end})
		}
	}
	return lines
}

func rangeOf(t token.Token) diag.Range {
	return diag.Range{Line: int(t.Line), Column: int(t.Col)}
}

// classifyAndRecord dispatches a single top-level line to the
// definition kind its leading keyword implies, recording a stub AST
// node (and, for block-bodied definitions, the bracketed body range to
// be visited by a later body pass).
func classifyAndRecord(path string, s token.Slice, lineStart int, line token.Slice, out *File, ns *namespace.Namespace, bag *diag.Bag) {
	if line.Len() == 0 {
		return
	}
	head := line.At(0)

	matches := func(p matcher.Pattern) bool {
		_, ok := p(line, 0)
		return ok
	}

	isImmutableData := line.Len() > 1 && head.Kind == token.KW_IMMUTABLE && line.At(1).Kind == token.KW_DATA

	switch {
	case matches(pFunc) || matches(pExtern):
		def, bodyRange, err := parseFuncSignature(path, s, lineStart, line)
		if err != nil {
			recordParseError(bag, path, head, err)
			return
		}
		if err := registerFunc(ns, def); err != nil {
			recordParseError(bag, path, head, err)
			return
		}
		out.Ast.Funcs = append(out.Ast.Funcs, def)
		if def.Extern {
			return
		}
		out.Funcs = append(out.Funcs, PendingFunc{Def: def, Body: bodyRange})

	case matches(pData) || isImmutableData:
		def, methods, err := parseDataSignature(path, s, lineStart, line)
		if err != nil {
			recordParseError(bag, path, head, err)
			return
		}
		ns.DataDefs[def.Name] = def
		ns.AddType(def.Name, types.NewData(def))
		out.Ast.Datas = append(out.Ast.Datas, def)
		out.Datas = append(out.Datas, PendingData{Def: def, Methods: methods})

	case matches(pEnum):
		def, err := parseEnumSignature(line)
		if err != nil {
			recordParseError(bag, path, head, err)
			return
		}
		ns.EnumDefs[def.Name] = def
		ns.AddType(def.Name, types.NewEnum(def))
		out.Ast.Enums = append(out.Ast.Enums, def)

	case matches(pVariant):
		def, err := parseVariantSignature(line)
		if err != nil {
			recordParseError(bag, path, head, err)
			return
		}
		ns.VariantDefs[def.Name] = def
		ns.AddType(def.Name, types.NewVariantNamed(def))
		out.Ast.Variants = append(out.Ast.Variants, def)

	case matches(pError):
		def, err := parseErrorSetSignature(line)
		if err != nil {
			recordParseError(bag, path, head, err)
			return
		}
		ns.ErrorSetDefs[def.Name] = def
		ns.AddType(def.Name, types.NewErrorSet(def))
		out.Ast.Errors = append(out.Ast.Errors, def)

	case matches(pEntity):
		def, methods, err := parseEntitySignature(path, s, lineStart, line)
		if err != nil {
			recordParseError(bag, path, head, err)
			return
		}
		ns.EntityDefs[def.Name] = def
		ns.AddType(def.Name, types.NewData(def))
		out.Ast.Entities = append(out.Ast.Entities, def)
		out.Entities = append(out.Entities, PendingEntity{Def: def, Methods: methods})

	case matches(pTest):
		def, bodyRange, err := parseTestSignature(path, s, lineStart, line)
		if err != nil {
			recordParseError(bag, path, head, err)
			return
		}
		out.Ast.Tests = append(out.Ast.Tests, def)
		out.Tests = append(out.Tests, PendingTest{Def: def, Body: bodyRange})

	case matches(pImport) || matches(pUse):
		def, err := parseImportSignature(line)
		if err != nil {
			recordParseError(bag, path, head, err)
			return
		}
		out.Ast.Imports = append(out.Ast.Imports, def)
		alias := def.Alias
		if alias == "" {
			alias = def.Target
		}
		ns.Imports[alias] = nil // bound by the resolver's import-resolution pass

	case matches(pTypeKw):
		def, err := parseTypeAliasSignature(line)
		if err != nil {
			recordParseError(bag, path, head, err)
			return
		}
		ns.Aliases[def.Name] = def
		target, err := ns.CreateType(def.Target)
		if err != nil {
			recordParseError(bag, path, head, err)
			return
		}
		ns.AddType(def.Name, types.NewAlias(def.Name, target))
		out.Ast.Aliases = append(out.Ast.Aliases, def)

	default:
		recordParseError(bag, path, head, fmt.Errorf("%w: unrecognized definition", cerrs.ErrUnknownType))
	}
}

// registerFunc converts def's parameter and return type annotations into
// interned *types.Type handles and records the resulting overload in ns,
// so later call sites can resolve against it via
// Namespace.GetFunctionsFromCallTypes (spec §3 "function overloads").
func registerFunc(ns *namespace.Namespace, def *ast.FuncDef) error {
	paramTypes := make([]*types.Type, len(def.Params))
	for i, p := range def.Params {
		t, err := ns.CreateType(p.Type)
		if err != nil {
			return err
		}
		paramTypes[i] = t
	}
	var retTypes []*types.Type
	if def.ReturnType != nil {
		t, err := ns.CreateType(def.ReturnType)
		if err != nil {
			return err
		}
		retTypes = []*types.Type{t}
	}
	ns.AddFunc(def, paramTypes, retTypes)
	return nil
}

func recordParseError(bag *diag.Bag, path string, at token.Token, err error) {
	bag.Add(diag.Diagnostic{
		Range:    rangeOf(at),
		Severity: diag.SeverityError,
		Message:  err.Error(),
		Source:   "parser",
		Path:     path,
	})
}

// findBlockBody locates the INDENT-led block that follows a trailing
// `:` on a signature line: the body's token range runs from the INDENT
// that opens the first line after the colon's EOL through the EOL of
// the last line at that indent depth or deeper.
// The lexer emits exactly one INDENT marker per physical line, carrying
// the post-whitespace column as its Col field, so indent *depth*
// comparisons use that column rather than counting INDENT tokens (this
// grammar has no explicit DEDENT token). The caller passes the full
// file slice and the index of the signature's trailing colon.
func findBlockBody(s token.Slice, colonIdx int) BodyRange {
	i := colonIdx + 1
	for i < s.Len() && s.At(i).Kind == token.EOL {
		i++
	}
	bodyStart := i
	headIndent, _ := lineIndentWidth(s, i)
	if headIndent <= 1 {
		return BodyRange{bodyStart, bodyStart}
	}
	for i < s.Len() {
		lineIndent, lineStart := lineIndentWidth(s, i)
		if lineStart >= s.Len() {
			i = lineStart
			break
		}
		if s.At(lineStart).Kind == token.EOL {
			i = lineStart + 1
			continue
		}
		if lineIndent < headIndent {
			break
		}
		i = advancePastEOL(s, lineStart)
	}
	return BodyRange{bodyStart, i}
}

// lineIndentWidth reports the indent column of the line starting at at
// (1 if the line has no leading INDENT marker) and the index of the
// line's first substantive token.
func lineIndentWidth(s token.Slice, at int) (width, tokenStart int) {
	if at < s.Len() && s.At(at).Kind == token.INDENT {
		return int(s.At(at).Col), at + 1
	}
	return 1, at
}

func advancePastEOL(s token.Slice, at int) int {
	for at < s.Len() && s.At(at).Kind != token.EOL {
		at++
	}
	if at < s.Len() {
		at++
	}
	return at
}

// trailingColonIndex returns the index of the last COLON token in line,
// which (by grammar) introduces the block body for definitions that
// have one.
func trailingColonIndex(line token.Slice) int {
	for i := line.Len() - 1; i >= 0; i-- {
		if line.At(i).Kind == token.COLON {
			return i
		}
	}
	return -1
}
