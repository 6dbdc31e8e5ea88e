// Copyright (c) 2024 Michael D Henderson. All rights reserved.

package parser

import (
	"fmt"

	"github.com/flint-lang/flintfe/cerrs"
	"github.com/flint-lang/flintfe/internal/ast"
	"github.com/flint-lang/flintfe/internal/namespace"
	"github.com/flint-lang/flintfe/internal/token"
)

// parseFuncSignature recognizes `func name(params) -> RetType:` or
// `extern func name(params) -> RetType` and records the block body
// range (empty for extern declarations, which have no body).
func parseFuncSignature(path string, s token.Slice, lineStart int, line token.Slice) (*ast.FuncDef, BodyRange, error) {
	def := &ast.FuncDef{}
	def.Rng = rangeOf(line.At(0))

	i := 0
	if line.At(i).Kind == token.KW_EXTERN {
		def.Extern = true
		i++
	}
	if i >= line.Len() || line.At(i).Kind != token.KW_FUNC {
		return nil, BodyRange{}, fmt.Errorf("%w: expected 'func'", cerrs.ErrUnknownType)
	}
	i++
	if i >= line.Len() || line.At(i).Kind != token.IDENT {
		return nil, BodyRange{}, fmt.Errorf("%w: expected function name", cerrs.ErrUnknownType)
	}
	def.Name = line.At(i).Text()
	def.Exported = isExportedName(def.Name)
	i++

	if i >= line.Len() || line.At(i).Kind != token.LPAREN {
		return nil, BodyRange{}, fmt.Errorf("%w: expected '(' after function name", cerrs.ErrUnknownType)
	}
	i++
	for i < line.Len() && line.At(i).Kind != token.RPAREN {
		mutable := false
		if line.At(i).Kind == token.KW_MUT {
			mutable = true
			i++
		}
		typeExpr, next, err := namespace.GetType(line, i)
		if err != nil {
			return nil, BodyRange{}, err
		}
		i = next
		if i >= line.Len() || line.At(i).Kind != token.IDENT {
			return nil, BodyRange{}, fmt.Errorf("%w: expected parameter name", cerrs.ErrUnknownType)
		}
		def.Params = append(def.Params, ast.Param{
			Rng:     rangeOf(line.At(i)),
			Name:    line.At(i).Text(),
			Type:    typeExpr,
			Mutable: mutable,
		})
		i++
		if i < line.Len() && line.At(i).Kind == token.COMMA {
			i++
		}
	}
	if i >= line.Len() || line.At(i).Kind != token.RPAREN {
		return nil, BodyRange{}, fmt.Errorf("%w: unclosed parameter list", cerrs.ErrUnknownType)
	}
	i++

	if i < line.Len() && line.At(i).Kind == token.ARROW {
		i++
		retType, next, err := namespace.GetType(line, i)
		if err != nil {
			return nil, BodyRange{}, err
		}
		def.ReturnType = retType
		i = next
	}
	if def.Extern {
		return def, BodyRange{}, nil
	}
	colonIdx := trailingColonIndex(line)
	if colonIdx < 0 {
		return nil, BodyRange{}, fmt.Errorf("%w: expected ':' to open function body", cerrs.ErrUnknownType)
	}
	body := findBlockBody(s, lineStart+colonIdx)
	return def, body, nil
}

func isExportedName(name string) bool {
	return len(name) > 0 && name[0] >= 'A' && name[0] <= 'Z'
}

// parseDataSignature recognizes `[immutable] data Name:` followed by an
// indented member block: field declarations (`[shared] [aligned] Type
// name`) interleaved with nested `func`/`extern func` methods. Method
// bodies are deferred to the body pass via the returned PendingFunc
// list, the same as a top-level function.
func parseDataSignature(path string, s token.Slice, lineStart int, line token.Slice) (*ast.DataDef, []PendingFunc, error) {
	def := &ast.DataDef{}
	def.Rng = rangeOf(line.At(0))
	i := 0
	if line.At(i).Kind == token.KW_IMMUTABLE {
		def.Immutable = true
		i++
	}
	if i >= line.Len() || line.At(i).Kind != token.KW_DATA {
		return nil, nil, fmt.Errorf("%w: expected 'data'", cerrs.ErrUnknownType)
	}
	i++
	if i >= line.Len() || line.At(i).Kind != token.IDENT {
		return nil, nil, fmt.Errorf("%w: expected data name", cerrs.ErrUnknownType)
	}
	def.Name = line.At(i).Text()
	def.Exported = isExportedName(def.Name)
	colonIdx := trailingColonIndex(line)
	if colonIdx < 0 {
		return nil, nil, fmt.Errorf("%w: expected ':' to open data body", cerrs.ErrUnknownType)
	}
	bodyRange := findBlockBody(s, lineStart+colonIdx)
	fields, methods, err := parseMemberBody(path, s, bodyRange)
	if err != nil {
		return nil, nil, err
	}
	def.Fields = fields
	for _, m := range methods {
		def.Methods = append(def.Methods, m.Def)
	}
	return def, methods, nil
}

// parseEntitySignature mirrors parseDataSignature for `entity Name:`
// bodies (entities have no `immutable` modifier).
func parseEntitySignature(path string, s token.Slice, lineStart int, line token.Slice) (*ast.EntityDef, []PendingFunc, error) {
	def := &ast.EntityDef{}
	def.Rng = rangeOf(line.At(0))
	i := 0
	if line.At(i).Kind != token.KW_ENTITY {
		return nil, nil, fmt.Errorf("%w: expected 'entity'", cerrs.ErrUnknownType)
	}
	i++
	if i >= line.Len() || line.At(i).Kind != token.IDENT {
		return nil, nil, fmt.Errorf("%w: expected entity name", cerrs.ErrUnknownType)
	}
	def.Name = line.At(i).Text()
	def.Exported = isExportedName(def.Name)
	colonIdx := trailingColonIndex(line)
	if colonIdx < 0 {
		return nil, nil, fmt.Errorf("%w: expected ':' to open entity body", cerrs.ErrUnknownType)
	}
	bodyRange := findBlockBody(s, lineStart+colonIdx)
	fields, methods, err := parseMemberBody(path, s, bodyRange)
	if err != nil {
		return nil, nil, err
	}
	def.Fields = fields
	for _, m := range methods {
		def.Methods = append(def.Methods, m.Def)
	}
	return def, methods, nil
}

// parseMemberBody walks the logical lines of a data/entity body range,
// dispatching each to a nested method signature or a field declaration.
// Method bodies are not parsed here — only their stub FuncDef and
// deferred BodyRange are recorded, identically to a top-level function.
func parseMemberBody(path string, s token.Slice, bodyRange BodyRange) ([]ast.DataField, []PendingFunc, error) {
	body := s.Sub(bodyRange.Start, bodyRange.End)
	var fields []ast.DataField
	var methods []PendingFunc
	skipUntil := 0 // end of the last method body, whose lines are not members
	for _, ls := range splitLines(body) {
		if ls.Start < skipUntil {
			continue
		}
		line := body.Sub(ls.Start, ls.End)
		if line.Len() == 0 {
			continue
		}
		if line.At(0).Kind == token.KW_FUNC || line.At(0).Kind == token.KW_EXTERN {
			fnDef, fnBody, err := parseFuncSignature(path, body, ls.Start, line)
			if err != nil {
				return nil, nil, err
			}
			skipUntil = fnBody.End
			// fnBody indexes body; shift it to index s like any other BodyRange.
			fnBody = BodyRange{fnBody.Start + bodyRange.Start, fnBody.End + bodyRange.Start}
			methods = append(methods, PendingFunc{Def: fnDef, Body: fnBody})
			continue
		}
		field, err := parseDataField(line)
		if err != nil {
			return nil, nil, err
		}
		fields = append(fields, field)
	}
	return fields, methods, nil
}

// parseDataField recognizes `[shared] [aligned] Type name`.
func parseDataField(line token.Slice) (ast.DataField, error) {
	rng := rangeOf(line.At(0))
	i := 0
	var shared, aligned bool
	for i < line.Len() {
		switch line.At(i).Kind {
		case token.KW_SHARED:
			shared = true
			i++
			continue
		case token.KW_ALIGNED:
			aligned = true
			i++
			continue
		}
		break
	}
	typeExpr, next, err := namespace.GetType(line, i)
	if err != nil {
		return ast.DataField{}, err
	}
	i = next
	if i >= line.Len() || line.At(i).Kind != token.IDENT {
		return ast.DataField{}, fmt.Errorf("%w: expected field name", cerrs.ErrUnknownType)
	}
	return ast.DataField{Rng: rng, Name: line.At(i).Text(), Type: typeExpr, Shared: shared, Aligned: aligned}, nil
}

// parseEnumSignature recognizes `enum Name: A, B, C` (a closed,
// single-line variant-name list; no nested body pass needed).
func parseEnumSignature(line token.Slice) (*ast.EnumDef, error) {
	def := &ast.EnumDef{}
	def.Rng = rangeOf(line.At(0))
	i := 1
	if i >= line.Len() || line.At(i).Kind != token.IDENT {
		return nil, fmt.Errorf("%w: expected enum name", cerrs.ErrUnknownType)
	}
	def.Name = line.At(i).Text()
	def.Exported = isExportedName(def.Name)
	i++
	if i >= line.Len() || line.At(i).Kind != token.COLON {
		return nil, fmt.Errorf("%w: expected ':' after enum name", cerrs.ErrUnknownType)
	}
	i++
	for i < line.Len() {
		if line.At(i).Kind == token.IDENT {
			def.Variants = append(def.Variants, line.At(i).Text())
			i++
		}
		if i < line.Len() && line.At(i).Kind == token.COMMA {
			i++
			continue
		}
		break
	}
	return def, nil
}

// parseVariantSignature recognizes `variant Name: CaseA, CaseB(Type), ...`.
func parseVariantSignature(line token.Slice) (*ast.VariantDef, error) {
	def := &ast.VariantDef{}
	def.Rng = rangeOf(line.At(0))
	i := 1
	if i >= line.Len() || line.At(i).Kind != token.IDENT {
		return nil, fmt.Errorf("%w: expected variant name", cerrs.ErrUnknownType)
	}
	def.Name = line.At(i).Text()
	def.Exported = isExportedName(def.Name)
	i++
	if i >= line.Len() || line.At(i).Kind != token.COLON {
		return nil, fmt.Errorf("%w: expected ':' after variant name", cerrs.ErrUnknownType)
	}
	i++
	for i < line.Len() {
		if line.At(i).Kind != token.IDENT {
			break
		}
		c := ast.VariantCase{Rng: rangeOf(line.At(i)), Name: line.At(i).Text()}
		i++
		if i < line.Len() && line.At(i).Kind == token.LPAREN {
			i++
			typeExpr, next, err := namespace.GetType(line, i)
			if err != nil {
				return nil, err
			}
			c.Type = typeExpr
			i = next
			if i >= line.Len() || line.At(i).Kind != token.RPAREN {
				return nil, fmt.Errorf("%w: unclosed variant case payload", cerrs.ErrUnknownType)
			}
			i++
		}
		def.Cases = append(def.Cases, c)
		if i < line.Len() && line.At(i).Kind == token.COMMA {
			i++
			continue
		}
		break
	}
	return def, nil
}

// parseErrorSetSignature recognizes `error Name: member_a, member_b`.
func parseErrorSetSignature(line token.Slice) (*ast.ErrorSetDef, error) {
	def := &ast.ErrorSetDef{}
	def.Rng = rangeOf(line.At(0))
	i := 1
	if i >= line.Len() || line.At(i).Kind != token.IDENT {
		return nil, fmt.Errorf("%w: expected error-set name", cerrs.ErrUnknownType)
	}
	def.Name = line.At(i).Text()
	def.Exported = isExportedName(def.Name)
	i++
	if i < line.Len() && line.At(i).Kind == token.LPAREN {
		i++
		if i >= line.Len() || line.At(i).Kind != token.IDENT {
			return nil, fmt.Errorf("%w: expected parent error-set name", cerrs.ErrUnknownType)
		}
		def.ParentError = line.At(i).Text()
		i++
		if i >= line.Len() || line.At(i).Kind != token.RPAREN {
			return nil, fmt.Errorf("%w: unclosed parent error-set reference", cerrs.ErrUnknownType)
		}
		i++
	}
	if i >= line.Len() || line.At(i).Kind != token.COLON {
		return nil, fmt.Errorf("%w: expected ':' after error-set name", cerrs.ErrUnknownType)
	}
	i++
	for i < line.Len() {
		if line.At(i).Kind == token.IDENT {
			def.Members = append(def.Members, line.At(i).Text())
			i++
		}
		if i < line.Len() && line.At(i).Kind == token.COMMA {
			i++
			continue
		}
		break
	}
	return def, nil
}

// parseTestSignature recognizes `test "description":` with a deferred
// body range, identically shaped to a func body.
func parseTestSignature(path string, s token.Slice, lineStart int, line token.Slice) (*ast.TestDef, BodyRange, error) {
	def := &ast.TestDef{}
	def.Rng = rangeOf(line.At(0))
	i := 1
	if i >= line.Len() || line.At(i).Kind != token.STR_LIT {
		return nil, BodyRange{}, fmt.Errorf("%w: expected a string description after 'test'", cerrs.ErrUnknownType)
	}
	def.Name = line.At(i).Text()
	colonIdx := trailingColonIndex(line)
	if colonIdx < 0 {
		return nil, BodyRange{}, fmt.Errorf("%w: expected ':' to open test body", cerrs.ErrUnknownType)
	}
	body := findBlockBody(s, lineStart+colonIdx)
	return def, body, nil
}

// parseImportSignature recognizes `import target` and `use target as
// Alias`.
func parseImportSignature(line token.Slice) (*ast.ImportDef, error) {
	def := &ast.ImportDef{}
	def.Rng = rangeOf(line.At(0))
	i := 0
	def.IsUse = line.At(i).Kind == token.KW_USE
	i++
	if i >= line.Len() {
		return nil, fmt.Errorf("%w: expected import target", cerrs.ErrUnknownType)
	}
	def.Target = line.At(i).Text()
	i++
	if i < line.Len() && line.At(i).Kind == token.KW_AS {
		i++
		if i >= line.Len() || line.At(i).Kind != token.IDENT {
			return nil, fmt.Errorf("%w: expected alias name after 'as'", cerrs.ErrUnknownType)
		}
		def.Alias = line.At(i).Text()
	}
	return def, nil
}

// parseTypeAliasSignature recognizes `type Name = TypeExpr`.
func parseTypeAliasSignature(line token.Slice) (*ast.TypeAliasDef, error) {
	def := &ast.TypeAliasDef{}
	def.Rng = rangeOf(line.At(0))
	i := 1
	if i >= line.Len() || line.At(i).Kind != token.IDENT {
		return nil, fmt.Errorf("%w: expected type-alias name", cerrs.ErrUnknownType)
	}
	def.Name = line.At(i).Text()
	def.Exported = isExportedName(def.Name)
	i++
	if i >= line.Len() || line.At(i).Kind != token.ASSIGN {
		return nil, fmt.Errorf("%w: expected '=' in type alias", cerrs.ErrUnknownType)
	}
	i++
	target, _, err := namespace.GetType(line, i)
	if err != nil {
		return nil, err
	}
	def.Target = target
	return def, nil
}
