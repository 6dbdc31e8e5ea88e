// Copyright (c) 2024 Michael D Henderson. All rights reserved.

// Package ast defines the definition, statement, and expression nodes
// produced by internal/parser. Every node carries a diag.Range so
// diagnostics can always point back at source text.
//
// Grounded on the teacher's internal/parser domain node shapes (plain
// structs per concept, walked by hand rather than through a generic
// Visitor), generalized from report-specific nodes (Turn_t, Moves_t) to
// compiler definitions, statements, and expressions; the back-pointer
// and ownership contract (a definition is owned by exactly one File, and
// every reference to it elsewhere is a non-owning pointer) follows
// original_source/include/parser/ast/namespace.hpp.
package ast

import "github.com/flint-lang/flintfe/internal/diag"

// Node is implemented by every definition, statement, and expression
// node so generic passes (printers, walkers) can at least fetch a range.
type Node interface {
	Range() diag.Range
}

// --- Definitions --------------------------------------------------------

// Def is implemented by every top-level definition kind. DefName
// satisfies internal/types.DefNode so a *Type can point back at the
// node that introduced it without internal/types importing internal/ast.
type Def interface {
	Node
	DefName() string
	isDef()
}

type DefBase struct {
	Rng      diag.Range
	Name     string
	Exported bool
}

func (b DefBase) Range() diag.Range { return b.Rng }
func (b DefBase) DefName() string   { return b.Name }
func (DefBase) isDef()              {}

// Param is a single function parameter.
type Param struct {
	Rng     diag.Range
	Name    string
	Type    TypeExpr
	Mutable bool
}

func (p Param) Range() diag.Range { return p.Rng }

// FuncDef is a `func`/`extern` definition.
type FuncDef struct {
	DefBase
	Extern     bool
	Params     []Param
	ReturnType TypeExpr // nil for void
	ErrorSet   TypeExpr // nil if the function cannot error
	Body       []Stmt   // nil for extern declarations
}

// DataField is a single field of a `data` definition.
type DataField struct {
	Rng     diag.Range
	Name    string
	Type    TypeExpr
	Shared  bool
	Aligned bool
}

func (f DataField) Range() diag.Range { return f.Rng }

// DataDef is a `data` (struct-like) definition.
type DataDef struct {
	DefBase
	Fields   []DataField
	Methods  []*FuncDef
	Immutable bool
}

// EnumDef is an `enum` definition: a closed set of bare variant names.
type EnumDef struct {
	DefBase
	Variants []string
}

// VariantCase is one case of a tagged `variant` definition.
type VariantCase struct {
	Rng  diag.Range
	Name string
	Type TypeExpr // nil for a unit case
}

func (c VariantCase) Range() diag.Range { return c.Rng }

// VariantDef is a `variant` (tagged union) definition.
type VariantDef struct {
	DefBase
	Cases []VariantCase
}

// ErrorSetDef is an `error` definition: a closed set of bare error names
// forming one link in the linear parent_error hierarchy rooted at
// `anyerror` (spec §3 "AST nodes"). Each member's implicit id equals
// ParentValueCount plus its index within Members; ParentValueCount is
// filled in by the resolver once ParentError is bound.
type ErrorSetDef struct {
	DefBase
	ParentError     string // "" means the implicit parent is anyerror
	ParentValueCount int
	Members         []string
}

// EntityDef is an `entity` definition (a Data plus attached behavior
// tables; spec treats it as a distinct nominal kind from Data).
type EntityDef struct {
	DefBase
	Fields  []DataField
	Methods []*FuncDef
}

// TestDef is a `test` definition: a named, argument-less function body
// executed by the test runner rather than from program code.
type TestDef struct {
	DefBase
	Body []Stmt
}

// ImportDef is a single `import`/`use ... as ...` clause.
type ImportDef struct {
	DefBase
	Target string // module path or core module name
	Alias  string // "" if not aliased
	IsUse  bool   // true for `use`, false for `import`
}

// TypeAliasDef is a `type X = ...` alias definition.
type TypeAliasDef struct {
	DefBase
	Target TypeExpr
}

var (
	_ Def = (*FuncDef)(nil)
	_ Def = (*DataDef)(nil)
	_ Def = (*EnumDef)(nil)
	_ Def = (*VariantDef)(nil)
	_ Def = (*ErrorSetDef)(nil)
	_ Def = (*EntityDef)(nil)
	_ Def = (*TestDef)(nil)
	_ Def = (*ImportDef)(nil)
	_ Def = (*TypeAliasDef)(nil)
)

// File is the root node for one parsed source file: every top-level
// definition it introduces, in source order.
type File struct {
	Path    string
	Imports []*ImportDef
	Funcs   []*FuncDef
	Datas   []*DataDef
	Enums   []*EnumDef
	Variants []*VariantDef
	Errors  []*ErrorSetDef
	Entities []*EntityDef
	Tests   []*TestDef
	Aliases []*TypeAliasDef
}

// --- Type expressions (pre-resolution syntax, not internal/types.Type) -

// TypeExpr is the syntactic form of a type annotation, as written by the
// programmer, before the resolver turns it into an internal/types.Type.
type TypeExpr interface {
	Node
	isTypeExpr()
}

type TypeExprBase struct{ Rng diag.Range }

func (b TypeExprBase) Range() diag.Range { return b.Rng }
func (TypeExprBase) isTypeExpr()         {}

// NamedTypeExpr is a bare identifier type reference, e.g. `i32`, `Point`.
type NamedTypeExpr struct {
	TypeExprBase
	Name string
}

// ArrayTypeExpr is `T[]`, `T[,]`, ... (Dims brackets).
type ArrayTypeExpr struct {
	TypeExprBase
	Elem TypeExpr
	Dims int
}

// OptionalTypeExpr is `T?`.
type OptionalTypeExpr struct {
	TypeExprBase
	Base TypeExpr
}

// PointerTypeExpr is `T*`.
type PointerTypeExpr struct {
	TypeExprBase
	Base TypeExpr
}

// GroupTypeExpr is `(T1, T2, ...)`.
type GroupTypeExpr struct {
	TypeExprBase
	Members []TypeExpr
}

// TupleTypeExpr is `Name<T1, T2, ...>`.
type TupleTypeExpr struct {
	TypeExprBase
	Name    string
	Members []TypeExpr
}

var (
	_ TypeExpr = (*NamedTypeExpr)(nil)
	_ TypeExpr = (*ArrayTypeExpr)(nil)
	_ TypeExpr = (*OptionalTypeExpr)(nil)
	_ TypeExpr = (*PointerTypeExpr)(nil)
	_ TypeExpr = (*GroupTypeExpr)(nil)
	_ TypeExpr = (*TupleTypeExpr)(nil)
)

// --- Statements ----------------------------------------------------------

// Stmt is implemented by every statement node.
type Stmt interface {
	Node
	isStmt()
}

type StmtBase struct{ Rng diag.Range }

func (b StmtBase) Range() diag.Range { return b.Rng }
func (StmtBase) isStmt()             {}

// VarDeclStmt is `[mut] name := expr` or `[mut] Type name = expr`.
type VarDeclStmt struct {
	StmtBase
	Name    string
	Type    TypeExpr // nil when inferred via `:=`
	Mutable bool
	Value   Expr
}

// AssignStmt is `target = value` (or a compound-assign operator).
type AssignStmt struct {
	StmtBase
	Target Expr
	Op     string // "=", "+=", "-=", "*=", "/="
	Value  Expr
}

// ReturnStmt is `return [expr]`.
type ReturnStmt struct {
	StmtBase
	Value Expr // nil for bare `return`
}

// IfStmt is `if cond: ... [else: ...]`.
type IfStmt struct {
	StmtBase
	Cond Expr
	Then []Stmt
	Else []Stmt // nil if no else clause
}

// ForStmt is `for name in iterable: ...`.
type ForStmt struct {
	StmtBase
	VarName  string
	Iterable Expr
	Body     []Stmt
}

// WhileStmt is `while cond: ...`.
type WhileStmt struct {
	StmtBase
	Cond Expr
	Body []Stmt
}

// BreakStmt is `break`.
type BreakStmt struct{ StmtBase }

// ContinueStmt is `continue`.
type ContinueStmt struct{ StmtBase }

// ExprStmt wraps a bare expression evaluated for its side effect (almost
// always a call).
type ExprStmt struct {
	StmtBase
	Value Expr
}

var (
	_ Stmt = (*VarDeclStmt)(nil)
	_ Stmt = (*AssignStmt)(nil)
	_ Stmt = (*ReturnStmt)(nil)
	_ Stmt = (*IfStmt)(nil)
	_ Stmt = (*ForStmt)(nil)
	_ Stmt = (*WhileStmt)(nil)
	_ Stmt = (*BreakStmt)(nil)
	_ Stmt = (*ContinueStmt)(nil)
	_ Stmt = (*ExprStmt)(nil)
)

// --- Expressions ----------------------------------------------------------

// Expr is implemented by every expression node.
type Expr interface {
	Node
	isExpr()
}

type ExprBase struct{ Rng diag.Range }

func (b ExprBase) Range() diag.Range { return b.Rng }
func (ExprBase) isExpr()             {}

// IdentExpr is a bare name reference.
type IdentExpr struct {
	ExprBase
	Name string
}

// IntLitExpr, FloatLitExpr, StrLitExpr, CharLitExpr, BoolLitExpr are
// literal expressions.
type IntLitExpr struct {
	ExprBase
	Value int64
}

type FloatLitExpr struct {
	ExprBase
	Value float64
}

// StrLitExpr is a (possibly interpolated) string literal. Parts
// alternates literal text fragments (string) and interpolated
// sub-expressions (Expr); a plain literal has exactly one string entry.
type StrLitExpr struct {
	ExprBase
	Parts []any // string or Expr, in source order
}

type CharLitExpr struct {
	ExprBase
	Value rune
}

type BoolLitExpr struct {
	ExprBase
	Value bool
}

// BinaryExpr is `lhs op rhs`, produced by precedence-climbing.
type BinaryExpr struct {
	ExprBase
	Op  string
	LHS Expr
	RHS Expr
}

// UnaryExpr is `op operand` (e.g. `not`, unary `-`).
type UnaryExpr struct {
	ExprBase
	Op      string
	Operand Expr
}

// CallExpr is `callee(args...)`.
type CallExpr struct {
	ExprBase
	Callee Expr
	Args   []Expr
}

// GroupExpr is a parenthesized or comma-grouped expression tuple.
type GroupExpr struct {
	ExprBase
	Items []Expr
}

// MemberExpr is `base.field`.
type MemberExpr struct {
	ExprBase
	Base  Expr
	Field string
}

// OptionalChainExpr is `base?.field` (spec stacked-expression operator).
type OptionalChainExpr struct {
	ExprBase
	Base  Expr
	Field string
}

// ForceUnwrapExpr is `base!.field` (force-unwrap stacked-expression
// operator).
type ForceUnwrapExpr struct {
	ExprBase
	Base  Expr
	Field string
}

// VariantExtractExpr is `base?(T)` (optional extraction) or `base!(T)`
// (force extraction) against a tagged Variant value.
type VariantExtractExpr struct {
	ExprBase
	Base    Expr
	Type    TypeExpr
	Force   bool // true for `!(T)`, false for `?(T)`
}

// IndexExpr is `base[index]`.
type IndexExpr struct {
	ExprBase
	Base  Expr
	Index Expr
}

var (
	_ Expr = (*IdentExpr)(nil)
	_ Expr = (*IntLitExpr)(nil)
	_ Expr = (*FloatLitExpr)(nil)
	_ Expr = (*StrLitExpr)(nil)
	_ Expr = (*CharLitExpr)(nil)
	_ Expr = (*BoolLitExpr)(nil)
	_ Expr = (*BinaryExpr)(nil)
	_ Expr = (*UnaryExpr)(nil)
	_ Expr = (*CallExpr)(nil)
	_ Expr = (*GroupExpr)(nil)
	_ Expr = (*MemberExpr)(nil)
	_ Expr = (*OptionalChainExpr)(nil)
	_ Expr = (*ForceUnwrapExpr)(nil)
	_ Expr = (*VariantExtractExpr)(nil)
	_ Expr = (*IndexExpr)(nil)
)
