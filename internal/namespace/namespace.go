// Copyright (c) 2024 Michael D Henderson. All rights reserved.

// Package namespace implements the per-file symbol table: separate public
// and private symbol maps, per-namespace type interning for user-defined
// types, overload resolution via a castability oracle, and the
// token-driven get_type/create_type state machine that turns a raw
// token.Slice type annotation into either a resolved internal/types.Type
// or a deferred internal/types.Unknown placeholder.
//
// This package has no teacher analogue — playbymail-ottomap parses flat
// report text and has no concept of a per-file symbol table or imports.
// It is grounded directly on original_source/include/parser/ast/namespace.hpp,
// re-expressed as Go structs plus an explicit finite-state matcher loop
// (internal/matcher) in place of namespace.hpp's recursive-descent member
// functions.
package namespace

import (
	"fmt"
	"sync"

	"github.com/flint-lang/flintfe/cerrs"
	"github.com/flint-lang/flintfe/internal/ast"
	"github.com/flint-lang/flintfe/internal/token"
	"github.com/flint-lang/flintfe/internal/types"
)

// FuncEntry binds a callable name to its definition and computed
// parameter/return types, once the resolver has assigned them.
type FuncEntry struct {
	Def        *ast.FuncDef
	ParamTypes []*types.Type
	ReturnType *types.Type
}

// Namespace is the symbol table for exactly one source file. Definitions
// introduced with an exported/public spelling land in PublicSymbols;
// everything else lands in PrivateSymbols. Both maps may hold multiple
// FuncEntry values per name (overloads); non-func definitions must be
// unique per name within a single map.
type Namespace struct {
	File string

	mu             sync.RWMutex
	PublicSymbols  map[string][]FuncEntry
	PrivateSymbols map[string][]FuncEntry
	Types          map[string]*types.Type // per-namespace interned user-defined types
	DataDefs       map[string]*ast.DataDef
	EnumDefs       map[string]*ast.EnumDef
	VariantDefs    map[string]*ast.VariantDef
	ErrorSetDefs   map[string]*ast.ErrorSetDef
	EntityDefs     map[string]*ast.EntityDef
	Aliases        map[string]*ast.TypeAliasDef

	// Imports maps the alias (or bare target name, when not aliased) to
	// the resolved *Namespace of the imported file.
	Imports map[string]*Namespace
}

// New returns an empty Namespace for the file at path.
func New(path string) *Namespace {
	return &Namespace{
		File:           path,
		PublicSymbols:  map[string][]FuncEntry{},
		PrivateSymbols: map[string][]FuncEntry{},
		Types:          map[string]*types.Type{},
		DataDefs:       map[string]*ast.DataDef{},
		EnumDefs:       map[string]*ast.EnumDef{},
		VariantDefs:    map[string]*ast.VariantDef{},
		ErrorSetDefs:   map[string]*ast.ErrorSetDef{},
		EntityDefs:     map[string]*ast.EntityDef{},
		Aliases:        map[string]*ast.TypeAliasDef{},
		Imports:        map[string]*Namespace{},
	}
}

// AddFunc registers a function definition, choosing the public or
// private table by def.Exported.
func (ns *Namespace) AddFunc(def *ast.FuncDef, params, ret []*types.Type) {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	entry := FuncEntry{Def: def, ParamTypes: params}
	if len(ret) == 1 {
		entry.ReturnType = ret[0]
	}
	table := ns.PrivateSymbols
	if def.Exported {
		table = ns.PublicSymbols
	}
	table[def.Name] = append(table[def.Name], entry)
}

// AddType interns t under name within this namespace (spec invariant 3:
// user-defined types are namespace-local, never in the global table).
// Returns the previously-interned handle if name was already present.
func (ns *Namespace) AddType(name string, t *types.Type) (*types.Type, bool) {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	if existing, ok := ns.Types[name]; ok {
		return existing, false
	}
	ns.Types[name] = t
	return t, true
}

// CanBeGlobal reports whether t's transitive closure is free of
// user-defined types and can therefore live in the process-wide table
// (internal/types.AddType) instead of this namespace's local table.
func CanBeGlobal(t *types.Type) bool { return !t.IsUserDefined() }

// GetTypeFromStr looks up name first in the global table, then in this
// namespace's local table.
func (ns *Namespace) GetTypeFromStr(name string) (*types.Type, bool) {
	if t, ok := types.GetTypeFromStr(name); ok {
		return t, ok
	}
	ns.mu.RLock()
	defer ns.mu.RUnlock()
	t, ok := ns.Types[name]
	return t, ok
}

// ResolveType follows Alias chains until it reaches a non-Alias type, or
// returns the input type unchanged if it isn't an alias. An alias that
// is reached a second time along the chain is a cycle, reported as an
// error wrapping cerrs.ErrDuplicateDefinition.
func (ns *Namespace) ResolveType(t *types.Type) (*types.Type, error) {
	seen := map[string]bool{}
	cur := t
	for cur.Variation() == types.Alias {
		key := cur.ToString()
		if seen[key] {
			return nil, fmt.Errorf("%w: alias cycle at %q", cerrs.ErrDuplicateDefinition, key)
		}
		seen[key] = true
		cur = cur.Base()
	}
	return cur, nil
}

// castRank expresses the castability oracle spec §4.3 requires for
// overload resolution: 0 means identical, 1 means a lossless widening
// cast exists, and a negative value means no cast is available.
func castRank(from, to *types.Type) int {
	if from.Equals(to) {
		return 0
	}
	if from.Variation() != types.Primitive || to.Variation() != types.Primitive {
		return -1
	}
	widenings := map[string][]string{
		"u8":  {"u16", "u32", "u64", "i16", "i32", "i64"},
		"u16": {"u32", "u64", "i32", "i64"},
		"u32": {"u64", "i64"},
		"i8":  {"i16", "i32", "i64"},
		"i16": {"i32", "i64"},
		"i32": {"i64", "f32", "f64"},
		"i64": {"f64"},
		"f32": {"f64"},
	}
	for _, candidate := range widenings[from.Name()] {
		if candidate == to.Name() {
			return 1
		}
	}
	return -1
}

// GetFunctionsFromCallTypes implements overload resolution: given a
// callee name and the types of the arguments at a call site, it keeps
// the FuncEntries whose every parameter is reachable from its argument
// (identical, or via a lossless cast) and returns those with the lowest
// sum of cast ranks, so exact matches win when any exist. Multiple
// equally-ranked survivors constitute
// an ambiguous call (spec open question, resolved in DESIGN.md: the
// caller must emit an "ambiguous-overload" diagnostic rather than guess).
func (ns *Namespace) GetFunctionsFromCallTypes(name string, argTypes []*types.Type) ([]FuncEntry, error) {
	ns.mu.RLock()
	candidates := append(append([]FuncEntry{}, ns.PublicSymbols[name]...), ns.PrivateSymbols[name]...)
	ns.mu.RUnlock()

	if len(candidates) == 0 {
		return nil, cerrs.ErrNoCandidate
	}

	bestRank := -1
	var best []FuncEntry
	for _, c := range candidates {
		if len(c.ParamTypes) != len(argTypes) {
			continue
		}
		total := 0
		ok := true
		for i, pt := range c.ParamTypes {
			r := castRank(argTypes[i], pt)
			if r < 0 {
				ok = false
				break
			}
			total += r
		}
		if !ok {
			continue
		}
		switch {
		case bestRank < 0 || total < bestRank:
			bestRank = total
			best = []FuncEntry{c}
		case total == bestRank:
			best = append(best, c)
		}
	}
	if len(best) == 0 {
		return nil, cerrs.ErrNoCandidate
	}
	return best, nil
}

// coreFunctions lists the builtin/core-module functions visible from
// every namespace without an explicit import, keyed by "module:name".
var coreFunctions = map[string]bool{
	"core:print":   true,
	"core:println": true,
	"core:len":     true,
	"core:panic":   true,
}

// FindCoreFunction reports whether qualifiedName (e.g. "core:print")
// names a builtin core-module function.
func FindCoreFunction(qualifiedName string) bool {
	return coreFunctions[qualifiedName]
}

// --- Token-driven type-annotation state machine -------------------------

// GetType consumes a type annotation starting at tokens[start] and
// returns the parsed ast.TypeExpr plus the index just past it. It
// implements spec §4.3's "State machines" requirement directly off the
// token stream rather than recursive-descent, mirroring
// original_source/include/parser/ast/namespace.hpp's get_type/create_type
// pairing: GetType recognizes syntax, CreateType (below) turns a
// completed ast.TypeExpr into an interned *types.Type.
func GetType(s token.Slice, start int) (ast.TypeExpr, int, error) {
	if start >= s.Len() {
		return nil, start, fmt.Errorf("%w: type annotation expected", cerrs.ErrUnknownType)
	}

	var base ast.TypeExpr
	tok := s.At(start)
	pos := start

	switch {
	case tok.Kind == token.LPAREN:
		pos++
		var members []ast.TypeExpr
		for {
			member, next, err := GetType(s, pos)
			if err != nil {
				return nil, pos, err
			}
			members = append(members, member)
			pos = next
			if pos < s.Len() && s.At(pos).Kind == token.COMMA {
				pos++
				continue
			}
			break
		}
		if pos >= s.Len() || s.At(pos).Kind != token.RPAREN {
			return nil, pos, fmt.Errorf("%w: unclosed group type", cerrs.ErrUnknownType)
		}
		pos++
		base = &ast.GroupTypeExpr{Members: members}

	case tok.Kind == token.IDENT || tok.Kind.IsTypeKeyword():
		base = &ast.NamedTypeExpr{Name: tok.Text()}
		pos++
		// Tuple<T1, T2> generic suffix.
		if pos < s.Len() && s.At(pos).Kind == token.LT {
			pos++
			var members []ast.TypeExpr
			for {
				member, next, err := GetType(s, pos)
				if err != nil {
					return nil, pos, err
				}
				members = append(members, member)
				pos = next
				if pos < s.Len() && s.At(pos).Kind == token.COMMA {
					pos++
					continue
				}
				break
			}
			if pos >= s.Len() || s.At(pos).Kind != token.GT {
				return nil, pos, fmt.Errorf("%w: unclosed tuple type", cerrs.ErrUnknownType)
			}
			pos++
			base = &ast.TupleTypeExpr{Name: base.(*ast.NamedTypeExpr).Name, Members: members}
		}

	default:
		return nil, pos, fmt.Errorf("%w: unexpected token %s in type annotation", cerrs.ErrUnknownType, tok.Kind)
	}

	// Postfix modifiers: T[] (array), T? (optional), T* (pointer). All
	// may stack, left to right, matching spec's "stacked expression"
	// grammar extended to the type grammar.
	for pos < s.Len() {
		switch s.At(pos).Kind {
		case token.LBRACKET:
			next := pos + 1
			dims := 1
			for next < s.Len() && s.At(next).Kind == token.COMMA {
				dims++
				next++
			}
			if next >= s.Len() || s.At(next).Kind != token.RBRACKET {
				return nil, pos, fmt.Errorf("%w: unclosed array type", cerrs.ErrUnknownType)
			}
			base = &ast.ArrayTypeExpr{Elem: base, Dims: dims}
			pos = next + 1
		case token.QUESTION:
			base = &ast.OptionalTypeExpr{Base: base}
			pos++
		case token.STAR:
			base = &ast.PointerTypeExpr{Base: base}
			pos++
		default:
			return base, pos, nil
		}
	}
	return base, pos, nil
}

// CreateType turns a completed ast.TypeExpr into an interned
// *types.Type, consulting ns's local table for user-defined names and
// the global table for primitives/Multi types, and returns a
// types.Unknown placeholder for a name neither table recognizes yet
// (spec §4.6 "Unknown-type resolution": the resolver retries these once
// every file's definition pass has run).
func (ns *Namespace) CreateType(expr ast.TypeExpr) (*types.Type, error) {
	t, err := ns.createType(expr)
	if err != nil {
		return nil, err
	}
	// Compound types built entirely from non-user-defined members carry
	// no namespace-specific identity, so share one handle process-wide
	// instead of re-allocating an equal-but-distinct *Type per call site.
	if CanBeGlobal(t) {
		shared, _ := types.AddType(t)
		return shared, nil
	}
	return t, nil
}

func (ns *Namespace) createType(expr ast.TypeExpr) (*types.Type, error) {
	switch e := expr.(type) {
	case *ast.NamedTypeExpr:
		if t, ok := ns.GetTypeFromStr(e.Name); ok {
			return t, nil
		}
		if types.IsPrimitiveName(e.Name) {
			return types.GetPrimitiveType(e.Name), nil
		}
		return types.NewUnknown(e.Name), nil
	case *ast.ArrayTypeExpr:
		elem, err := ns.CreateType(e.Elem)
		if err != nil {
			return nil, err
		}
		return types.NewArray(elem, e.Dims), nil
	case *ast.OptionalTypeExpr:
		base, err := ns.CreateType(e.Base)
		if err != nil {
			return nil, err
		}
		return types.NewOptional(base), nil
	case *ast.PointerTypeExpr:
		base, err := ns.CreateType(e.Base)
		if err != nil {
			return nil, err
		}
		return types.NewPointer(base), nil
	case *ast.GroupTypeExpr:
		members := make([]*types.Type, len(e.Members))
		for i, m := range e.Members {
			mt, err := ns.CreateType(m)
			if err != nil {
				return nil, err
			}
			members[i] = mt
		}
		return types.NewGroup(members), nil
	case *ast.TupleTypeExpr:
		members := make([]*types.Type, len(e.Members))
		for i, m := range e.Members {
			mt, err := ns.CreateType(m)
			if err != nil {
				return nil, err
			}
			members[i] = mt
		}
		return types.NewTuple(e.Name, members), nil
	default:
		return nil, fmt.Errorf("%w: unsupported type expression %T", cerrs.ErrUnknownType, expr)
	}
}
