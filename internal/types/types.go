// Copyright (c) 2024 Michael D Henderson. All rights reserved.

// Package types implements interned, immutable type descriptors over the
// closed variation taxonomy from spec §3. Type equality is always by
// string form (spec invariant 1): to_string(T1) == to_string(T2) iff
// T1 equals T2. Globally-shareable types (those whose transitive closure
// contains no user-defined type) are interned process-wide; user-defined
// types are interned per namespace instead (see internal/namespace).
//
// Grounded on original_source/include/parser/type/*.hpp for the variation
// contracts and the global-table/rw-lock concurrency model; the
// per-variation enum-with-String() idiom follows the teacher's
// compass.Point_e style (a closed Go enum with a String() method and a
// lookup map, rather than a type switch scattered across call sites).
package types

import (
	"fmt"
	"strings"
	"sync"
)

// Variation tags which of the closed set of type shapes a Type is.
type Variation int

const (
	Primitive Variation = iota
	Multi
	Array
	Optional
	Pointer
	Group
	Tuple
	Data
	Enum
	ErrorSet
	Variant
	Func
	Alias
	Opaque
	Unknown
)

func (v Variation) String() string {
	switch v {
	case Primitive:
		return "Primitive"
	case Multi:
		return "Multi"
	case Array:
		return "Array"
	case Optional:
		return "Optional"
	case Pointer:
		return "Pointer"
	case Group:
		return "Group"
	case Tuple:
		return "Tuple"
	case Data:
		return "Data"
	case Enum:
		return "Enum"
	case ErrorSet:
		return "ErrorSet"
	case Variant:
		return "Variant"
	case Func:
		return "Func"
	case Alias:
		return "Alias"
	case Opaque:
		return "Opaque"
	case Unknown:
		return "Unknown"
	default:
		return fmt.Sprintf("Variation(%d)", int(v))
	}
}

// DefNode is the minimal surface a Data/Enum/ErrorSet/Variant/Func type
// needs from its owning definition node: enough to render a stable
// to_string() and to compare nominal identity. Definition nodes in
// internal/ast implement this.
type DefNode interface {
	DefName() string
}

// Type is a shared, immutable value belonging to exactly one Variation.
// Two Types are `Equals` iff their ToString forms are identical (spec
// invariant 1); nominal types (Data/Enum/ErrorSet/Variant) compare by the
// identity of their definition node, which ToString renders as the
// node's unique name, so the two notions agree at that boundary too (see
// spec §9 "Cyclic type possibilities").
type Type struct {
	variation Variation

	// Primitive
	name string

	// Multi: base primitive name + lane width
	multiBase  string
	laneWidth  int

	// Array: element + dimensionality
	elem *Type
	dims int

	// Optional / Pointer / Alias: base/target
	base *Type

	// Group / Tuple: ordered list of member types
	members []*Type
	// Tuple only: user-given name
	tupleName string

	// Data / Enum / ErrorSet / Func: pointer to definition node
	def DefNode

	// Variant: either a pointer to a definition, or an ordered list of
	// possible types (anonymous variant).
	variantDef   DefNode
	variantTypes []*Type

	// Alias: name
	aliasName string

	// Opaque: optional name
	opaqueName string

	// Unknown: unresolved type name, transient
	unknownName string
}

// Variation returns which shape this Type has.
func (t *Type) Variation() Variation { return t.variation }

// ToString renders the canonical string form of t. Type equality is
// defined entirely in terms of this string (spec invariant 1).
func (t *Type) ToString() string {
	if t == nil {
		return "<nil>"
	}
	switch t.variation {
	case Primitive:
		return t.name
	case Multi:
		return fmt.Sprintf("%sx%d", t.multiBase, t.laneWidth)
	case Array:
		return t.elem.ToString() + arrayBrackets(t.dims)
	case Optional:
		return t.base.ToString() + "?"
	case Pointer:
		return t.base.ToString() + "*"
	case Group:
		return "(" + joinTypes(t.members) + ")"
	case Tuple:
		return t.tupleName + "<" + joinTypes(t.members) + ">"
	case Data:
		return t.def.DefName()
	case Enum:
		return t.def.DefName()
	case ErrorSet:
		return t.def.DefName()
	case Variant:
		if t.variantDef != nil {
			return t.variantDef.DefName()
		}
		return "variant<" + joinTypes(t.variantTypes) + ">"
	case Func:
		return "func:" + t.def.DefName()
	case Alias:
		return t.aliasName
	case Opaque:
		if t.opaqueName == "" {
			return "opaque"
		}
		return "opaque:" + t.opaqueName
	case Unknown:
		return t.unknownName
	default:
		return fmt.Sprintf("<invalid variation %d>", int(t.variation))
	}
}

func arrayBrackets(dims int) string {
	if dims <= 0 {
		dims = 1
	}
	return "[" + strings.Repeat(",", dims-1) + "]"
}

func joinTypes(ts []*Type) string {
	parts := make([]string, len(ts))
	for i, m := range ts {
		parts[i] = m.ToString()
	}
	return strings.Join(parts, ",")
}

// Equals implements spec invariant 1 and 4 (dispatch by variation, but
// semantically equivalent to ToString equality).
func (t *Type) Equals(other *Type) bool {
	if t == nil || other == nil {
		return t == other
	}
	return t.ToString() == other.ToString()
}

// --- Constructors -----------------------------------------------------

func NewPrimitive(name string) *Type { return &Type{variation: Primitive, name: name} }

func NewMulti(base string, laneWidth int) *Type {
	return &Type{variation: Multi, multiBase: base, laneWidth: laneWidth}
}

func NewArray(elem *Type, dims int) *Type {
	return &Type{variation: Array, elem: elem, dims: dims}
}

func NewOptional(base *Type) *Type { return &Type{variation: Optional, base: base} }

func NewPointer(base *Type) *Type { return &Type{variation: Pointer, base: base} }

func NewGroup(members []*Type) *Type { return &Type{variation: Group, members: members} }

func NewTuple(name string, members []*Type) *Type {
	return &Type{variation: Tuple, tupleName: name, members: members}
}

func NewData(def DefNode) *Type { return &Type{variation: Data, def: def} }

func NewEnum(def DefNode) *Type { return &Type{variation: Enum, def: def} }

func NewErrorSet(def DefNode) *Type { return &Type{variation: ErrorSet, def: def} }

func NewVariantNamed(def DefNode) *Type { return &Type{variation: Variant, variantDef: def} }

func NewVariantAnon(possible []*Type) *Type { return &Type{variation: Variant, variantTypes: possible} }

func NewFunc(def DefNode) *Type { return &Type{variation: Func, def: def} }

func NewAlias(name string, target *Type) *Type {
	return &Type{variation: Alias, aliasName: name, base: target}
}

func NewOpaque(name string) *Type { return &Type{variation: Opaque, opaqueName: name} }

func NewUnknown(name string) *Type { return &Type{variation: Unknown, unknownName: name} }

// --- Accessors (checked in spirit of the spec's `as<T>()`) -------------

// Elem returns the element type for Array; Base for Optional/Pointer;
// the target type for Alias. Panics if t is not one of those variations,
// matching spec's "checked downcast... caller must have established the
// variation" contract (this repo has no release/debug build distinction,
// so the check always runs).
func (t *Type) Elem() *Type {
	switch t.variation {
	case Array:
		return t.elem
	default:
		panic(fmt.Sprintf("Elem() called on variation %s", t.variation))
	}
}

func (t *Type) Base() *Type {
	switch t.variation {
	case Optional, Pointer, Alias:
		return t.base
	default:
		panic(fmt.Sprintf("Base() called on variation %s", t.variation))
	}
}

func (t *Type) Dims() int {
	if t.variation != Array {
		panic("Dims() called on non-Array type")
	}
	return t.dims
}

func (t *Type) Members() []*Type {
	switch t.variation {
	case Group, Tuple:
		return t.members
	default:
		panic(fmt.Sprintf("Members() called on variation %s", t.variation))
	}
}

func (t *Type) MultiBase() string {
	if t.variation != Multi {
		panic("MultiBase() called on non-Multi type")
	}
	return t.multiBase
}

func (t *Type) LaneWidth() int {
	if t.variation != Multi {
		panic("LaneWidth() called on non-Multi type")
	}
	return t.laneWidth
}

func (t *Type) Def() DefNode {
	switch t.variation {
	case Data, Enum, ErrorSet, Func:
		return t.def
	case Variant:
		return t.variantDef
	default:
		panic(fmt.Sprintf("Def() called on variation %s", t.variation))
	}
}

func (t *Type) VariantPossibleTypes() []*Type {
	if t.variation != Variant {
		panic("VariantPossibleTypes() called on non-Variant type")
	}
	return t.variantTypes
}

func (t *Type) Name() string {
	switch t.variation {
	case Primitive:
		return t.name
	case Alias:
		return t.aliasName
	case Opaque:
		return t.opaqueName
	default:
		panic(fmt.Sprintf("Name() called on variation %s", t.variation))
	}
}

func (t *Type) UnknownName() string {
	if t.variation != Unknown {
		panic("UnknownName() called on non-Unknown type")
	}
	return t.unknownName
}

// IsUserDefined reports whether t's transitive closure can contain
// Data/Enum/ErrorSet/user-Variant/Unknown — i.e. it is NOT safe to intern
// process-wide (spec invariant 3). This mirrors the namespace package's
// can_be_global predicate but lives here because it only inspects a
// Type's own shape.
func (t *Type) IsUserDefined() bool {
	switch t.variation {
	case Data, Enum, ErrorSet, Unknown:
		return true
	case Variant:
		if t.variantDef != nil {
			return true
		}
		for _, p := range t.variantTypes {
			if p.IsUserDefined() {
				return true
			}
		}
		return false
	case Array:
		return t.elem.IsUserDefined()
	case Optional, Pointer:
		return t.base.IsUserDefined()
	case Alias:
		return t.base != nil && t.base.IsUserDefined()
	case Group, Tuple:
		for _, m := range t.members {
			if m.IsUserDefined() {
				return true
			}
		}
		return false
	case Func:
		// Func types reference a definition node but the node itself
		// lives in one file; treat as user-defined to stay file-local.
		return true
	default:
		return false
	}
}

// --- Global intern table -----------------------------------------------

var (
	tableMu sync.RWMutex
	table   = map[string]*Type{}
)

// GetTypeFromStr performs a read-locked lookup in the global table.
func GetTypeFromStr(s string) (*Type, bool) {
	tableMu.RLock()
	defer tableMu.RUnlock()
	t, ok := table[s]
	return t, ok
}

// AddType inserts t into the global table keyed by its ToString form.
// Returns true iff it was newly inserted; if an entry already exists the
// existing handle is returned unchanged (the caller should prefer that
// handle over t to preserve the "same string -> same handle" invariant).
func AddType(t *Type) (*Type, bool) {
	key := t.ToString()

	tableMu.RLock()
	if existing, ok := table[key]; ok {
		tableMu.RUnlock()
		return existing, false
	}
	tableMu.RUnlock()

	tableMu.Lock()
	defer tableMu.Unlock()
	// recheck emptiness under the write lock (spec §4.4 "Concurrency")
	if existing, ok := table[key]; ok {
		return existing, false
	}
	table[key] = t
	return t, true
}

// ClearTypes empties the global table. Only safe to call when no parser
// or resolver is active (spec §9 "Global mutable state").
func ClearTypes() {
	tableMu.Lock()
	defer tableMu.Unlock()
	table = map[string]*Type{}
}

// primitiveNames lists every primitive pre-created by InitTypes.
var primitiveNames = []string{
	"void", "bool", "u8", "u16", "u32", "u64", "i8", "i16", "i32", "i64",
	"f32", "f64", "str", "anyerror",
}

// multiBases lists which primitives may be widened into Multi ("lane")
// types, and the lane widths that are legal for each.
var multiBases = map[string][]int{
	"bool": {2, 3, 4, 8},
	"u8":   {2, 3, 4, 8},
	"i32":  {2, 3, 4, 8},
	"f32":  {2, 3, 4, 8},
	"f64":  {2, 3, 4, 8},
}

var initOnce sync.Once

// InitTypes populates the global table with every primitive and every
// legal Multi variant. Idempotent per process (spec §4.4).
func InitTypes() {
	initOnce.Do(func() {
		for _, name := range primitiveNames {
			AddType(NewPrimitive(name))
		}
		for base, widths := range multiBases {
			for _, w := range widths {
				AddType(NewMulti(base, w))
			}
		}
	})
}

// GetPrimitiveType returns the interned primitive named name, creating it
// under the write lock on first call if it is not already present. The
// name is not checked: a string already in the table returns that type
// whatever its variation, and any other string is interned as a
// Primitive of that name.
func GetPrimitiveType(name string) *Type {
	if t, ok := GetTypeFromStr(name); ok {
		return t
	}
	t, _ := AddType(NewPrimitive(name))
	return t
}

// IsPrimitiveName reports whether name is one of the pre-registered
// primitive spellings.
func IsPrimitiveName(name string) bool {
	for _, n := range primitiveNames {
		if n == name {
			return true
		}
	}
	return false
}
