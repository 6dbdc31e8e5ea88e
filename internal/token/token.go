// Copyright (c) 2024 Michael D Henderson. All rights reserved.

// Package token defines the closed token vocabulary produced by the lexer
// and consumed by the pattern matcher and parser. Tokens carry only a
// kind, a borrowed lexeme slice, and location metadata; they never own
// the source buffer they were cut from.
package token

import "fmt"

// Kind is a tag from the closed token enumeration. The lexer emits only
// these kinds; the parser and matcher never see a kind outside this set.
type Kind uint16

const (
	ILLEGAL Kind = iota
	EOF
	EOL
	INDENT

	IDENT
	INT_LIT
	FLOAT_LIT
	STR_LIT
	CHAR_LIT
	DOLLAR    // interpolation prefix, e.g. $"..."
	STR_VALUE // the literal text segment of an interpolated string

	// keywords
	KW_FUNC
	KW_EXTERN
	KW_DATA
	KW_ENUM
	KW_VARIANT
	KW_ERROR
	KW_ENTITY
	KW_TEST
	KW_IMPORT
	KW_USE
	KW_AS
	KW_TYPE
	KW_RETURN
	KW_IF
	KW_ELSE
	KW_FOR
	KW_IN
	KW_WHILE
	KW_BREAK
	KW_CONTINUE
	KW_TRUE
	KW_FALSE
	KW_MUT
	KW_SHARED
	KW_IMMUTABLE
	KW_ALIGNED
	KW_NOT

	// type-name keywords
	KW_VOID
	KW_BOOL
	KW_U8
	KW_U16
	KW_U32
	KW_U64
	KW_I8
	KW_I16
	KW_I32
	KW_I64
	KW_F32
	KW_F64
	KW_STR
	KW_ANYERROR
	KW_BOOL2
	KW_BOOL3
	KW_BOOL4
	KW_BOOL8
	KW_U8X2
	KW_U8X3
	KW_U8X4
	KW_U8X8
	KW_I32X2
	KW_I32X3
	KW_I32X4
	KW_I32X8
	KW_F32X2
	KW_F32X3
	KW_F32X4
	KW_F32X8
	KW_F64X2
	KW_F64X3
	KW_F64X4
	KW_F64X8

	// punctuation
	LPAREN
	RPAREN
	LBRACKET
	RBRACKET
	LBRACE
	RBRACE
	COMMA
	DOT
	COLON
	SEMICOLON
	QUESTION
	BANG
	AMP
	STAR
	PLUS
	MINUS
	SLASH
	PERCENT
	CARET

	// multi-character operators
	ARROW        // ->
	COLON_EQ     // :=
	EQ_EQ        // ==
	NOT_EQ       // !=
	LT_EQ        // <=
	GT_EQ        // >=
	LT           // <
	GT           // >
	AND_AND      // &&
	OR_OR        // ||
	PLUS_PLUS    // ++
	MINUS_MINUS  // --
	STAR_STAR    // **
	SHL          // <<
	SHR          // >>
	RANGE        // ..
	DOT_QUESTION // ?.
	BANG_DOT     // !.
	ASSIGN       // =
	PLUS_EQ
	MINUS_EQ
	STAR_EQ
	SLASH_EQ

	kindSentinel // not a real kind; marks the end of the enumeration
)

var kindNames = map[Kind]string{
	ILLEGAL: "ILLEGAL", EOF: "EOF", EOL: "EOL", INDENT: "INDENT",
	IDENT: "IDENT", INT_LIT: "INT_LIT", FLOAT_LIT: "FLOAT_LIT",
	STR_LIT: "STR_LIT", CHAR_LIT: "CHAR_LIT", DOLLAR: "DOLLAR", STR_VALUE: "STR_VALUE",
	KW_FUNC: "func", KW_EXTERN: "extern", KW_DATA: "data", KW_ENUM: "enum",
	KW_VARIANT: "variant", KW_ERROR: "error", KW_ENTITY: "entity", KW_TEST: "test",
	KW_IMPORT: "import", KW_USE: "use", KW_AS: "as", KW_TYPE: "type",
	KW_RETURN: "return", KW_IF: "if", KW_ELSE: "else", KW_FOR: "for", KW_IN: "in",
	KW_WHILE: "while", KW_BREAK: "break", KW_CONTINUE: "continue",
	KW_TRUE: "true", KW_FALSE: "false", KW_MUT: "mut", KW_SHARED: "shared",
	KW_IMMUTABLE: "immutable", KW_ALIGNED: "aligned", KW_NOT: "not",
	KW_VOID: "void", KW_BOOL: "bool", KW_U8: "u8", KW_U16: "u16", KW_U32: "u32",
	KW_U64: "u64", KW_I8: "i8", KW_I16: "i16", KW_I32: "i32", KW_I64: "i64",
	KW_F32: "f32", KW_F64: "f64", KW_STR: "str", KW_ANYERROR: "anyerror",
	KW_BOOL2: "bool2", KW_BOOL3: "bool3", KW_BOOL4: "bool4", KW_BOOL8: "bool8",
	KW_U8X2: "u8x2", KW_U8X3: "u8x3", KW_U8X4: "u8x4", KW_U8X8: "u8x8",
	KW_I32X2: "i32x2", KW_I32X3: "i32x3", KW_I32X4: "i32x4", KW_I32X8: "i32x8",
	KW_F32X2: "f32x2", KW_F32X3: "f32x3", KW_F32X4: "f32x4", KW_F32X8: "f32x8",
	KW_F64X2: "f64x2", KW_F64X3: "f64x3", KW_F64X4: "f64x4", KW_F64X8: "f64x8",
	LPAREN: "(", RPAREN: ")", LBRACKET: "[", RBRACKET: "]", LBRACE: "{", RBRACE: "}",
	COMMA: ",", DOT: ".", COLON: ":", SEMICOLON: ";", QUESTION: "?", BANG: "!",
	AMP: "&", STAR: "*", PLUS: "+", MINUS: "-", SLASH: "/", PERCENT: "%", CARET: "^",
	ARROW: "->", COLON_EQ: ":=", EQ_EQ: "==", NOT_EQ: "!=", LT_EQ: "<=", GT_EQ: ">=",
	LT: "<", GT: ">", AND_AND: "&&", OR_OR: "||", PLUS_PLUS: "++", MINUS_MINUS: "--",
	STAR_STAR: "**", SHL: "<<", SHR: ">>", RANGE: "..", DOT_QUESTION: "?.",
	BANG_DOT: "!.", ASSIGN: "=", PLUS_EQ: "+=", MINUS_EQ: "-=", STAR_EQ: "*=", SLASH_EQ: "/=",
}

// Keywords maps the textual spelling of a keyword or type-name keyword to
// its Kind. The lexer consults this after scanning a run of alpha_num
// characters to decide whether it produced an IDENT or a keyword.
var Keywords = func() map[string]Kind {
	m := make(map[string]Kind, len(kindNames))
	for k, name := range kindNames {
		if k >= KW_FUNC && k <= KW_F64X8 {
			m[name] = k
		}
	}
	return m
}()

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// IsTypeKeyword reports whether k is one of the built-in type-name keywords
// (i32, bool8, f64x4, ...).
func (k Kind) IsTypeKeyword() bool {
	return k >= KW_VOID && k <= KW_F64X8
}

// IsKeyword reports whether k is any keyword, including type-name keywords.
func (k Kind) IsKeyword() bool {
	return k >= KW_FUNC && k <= KW_F64X8
}

// Token is a tagged value (kind, lexeme, file_id, line, column). Lexeme is
// a borrowed slice into the source buffer; its lifetime equals the source
// buffer's lifetime and it must never outlive the lexer's input.
type Token struct {
	Kind   Kind
	Lexeme []byte
	FileID uint16
	Line   uint32
	Col    uint16
}

// Text returns the lexeme as a string. This allocates; callers on a hot
// path should prefer comparing Lexeme directly with bytes.Equal.
func (t Token) Text() string { return string(t.Lexeme) }

func (t Token) String() string {
	return fmt.Sprintf("%s(%q)@%d:%d", t.Kind, t.Lexeme, t.Line, t.Col)
}

// Slice is a half-open index range [Start, End) over a token sequence.
// It never copies the underlying tokens; it is a view.
type Slice struct {
	Tokens []Token
	Start  int
	End    int
}

// NewSlice returns the full slice over tokens.
func NewSlice(tokens []Token) Slice {
	return Slice{Tokens: tokens, Start: 0, End: len(tokens)}
}

// Len returns the number of tokens covered by the slice.
func (s Slice) Len() int { return s.End - s.Start }

// At returns the token at logical index i within the slice (0-based,
// relative to Start). Panics if i is out of range, matching normal Go
// slice semantics.
func (s Slice) At(i int) Token { return s.Tokens[s.Start+i] }

// Sub returns the sub-slice [from, to) relative to this slice's own
// indexing (0-based).
func (s Slice) Sub(from, to int) Slice {
	return Slice{Tokens: s.Tokens, Start: s.Start + from, End: s.Start + to}
}

// Empty reports whether the slice has no tokens.
func (s Slice) Empty() bool { return s.Len() <= 0 }
