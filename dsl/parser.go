package dsl

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var (
	dslLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Whitespace", Pattern: `[ \t\r]+`},
		{Name: "Newline", Pattern: `\n+`},
		{Name: "BlockComment", Pattern: `/\*[^*]*\*+(?:[^/*][^*]*\*+)*/`},
		{Name: "LineComment", Pattern: `//[^\n]*`},
		{Name: "Color", Pattern: `#(?:[0-9A-Fa-f]{8}|[0-9A-Fa-f]{6}|[0-9A-Fa-f]{3})`},
		{Name: "HashComment", Pattern: `#[^\n]*`},
		{Name: "Number", Pattern: `(?:\d+\.\d+|\d+)(?:pt|mm|cm|in|px|%|x)?`},
		{Name: "String", Pattern: `"(?:\\.|[^"])*"`},
		{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_-]*`},
		{Name: "Symbol", Pattern: `[][(),.=+\-*/%<>!?;:]`},
		{Name: "LBrace", Pattern: `{`},
		{Name: "RBrace", Pattern: `}`},
	})

	tokenNames       = map[lexer.TokenType]string{}
	newlineTokenType = tokenType("Newline")
	lbraceTokenType  = tokenType("LBrace")
	rbraceTokenType  = tokenType("RBrace")
	symbolTokenType  = tokenType("Symbol")
	stringTokenType  = tokenType("String")

	jobParser = participle.MustBuild[Job](
		participle.Lexer(dslLexer),
		participle.Elide("Whitespace", "LineComment", "BlockComment", "HashComment"),
	)
)

// Job is the root AST node of a print-job file.
type Job struct {
	Pos      lexer.Position `parser:"" json:"-"`
	Name     string         `parser:"Newline* 'job' @Ident"`
	Version  string         `parser:"@Ident"`
	Sections []*Section     `parser:"'{' Newline* ( @@ Newline* )* '}' Newline*"`
}

// Section represents a top-level section (meta/resources/document/export).
type Section struct {
	Meta      *MetaSection      `parser:"  @@"`
	Resources *ResourcesSection `parser:"| @@"`
	Document  *DocumentSection  `parser:"| @@"`
	Export    *ExportSection    `parser:"| @@"`
}

// Kind returns the human-readable section type.
func (s *Section) Kind() string {
	switch {
	case s == nil:
		return "unknown"
	case s.Meta != nil:
		return "meta"
	case s.Resources != nil:
		return "resources"
	case s.Document != nil:
		return "document"
	case s.Export != nil:
		return "export"
	default:
		return "unknown"
	}
}

// MetaSection captures metadata assignments.
type MetaSection struct {
	Block *Block `parser:"'meta' @@"`
}

// ResourcesSection groups resource declarations.
type ResourcesSection struct {
	Block *Block `parser:"'resources' @@"`
}

// DocumentSection describes the printed document: paper, bleed, marks and the page
// sources (frames and stories) in capture order.
type DocumentSection struct {
	Spec  DocumentSpec `parser:"'document' @@"`
	Block *Block       `parser:"@@"`
}

// DocumentSpec stores header tokens (eg: size, orientation, bleed 3mm).
type DocumentSpec struct {
	Size   string    `parser:"@Ident"`
	Params []*Lexeme `parser:"@@*"`
}

// ExportSection lists the imposed exports to write next to the main document.
type ExportSection struct {
	Block *Block `parser:"'export' @@"`
}

// Block is a delimited list of statements.
type Block struct {
	Statements []*Statement `parser:"'{' Newline* ( @@ ( ';' | Newline )* )* '}'"`
}

// Statement inside a block (assignment/command/text literal).
type Statement struct {
	Assignment *Assignment  `parser:"  @@"`
	Command    *Command     `parser:"| @@"`
	Text       *TextLiteral `parser:"| @@"`
}

// Assignment uses colon syntax (key: value).
type Assignment struct {
	Key   string `parser:"@Ident"`
	Value *Value `parser:"':' Newline* @@"`
}

// Command describes layout/drawing instructions.
type Command struct {
	Pos   lexer.Position `parser:"" json:"-"`
	Name  string         `parser:"@Ident"`
	Args  []*Lexeme      `parser:"@@*"`
	Block *Block         `parser:"( Newline* @@ )?"`
}

// TextLiteral encapsulates raw string statements within blocks.
type TextLiteral struct {
	Value StringLiteral `parser:"@String"`
}

// Value is the right-hand side of an assignment.
type Value struct {
	String *StringLiteral `parser:"  @String"`
	Number *string        `parser:"| @Number"`
	Color  *string        `parser:"| @Color"`
	Array  *ArrayValue    `parser:"| @@"`
	Expr   *Expression    `parser:"| @@"`
}

// ArrayValue captures `[ ... ]` lists separated by commas, semicolons or newlines.
type ArrayValue struct {
	Values []*Value `parser:"'[' Newline* ( @@ ( (',' | ';' | Newline+) Newline* @@ )* )? Newline* ']'"`
}

// Expression keeps the raw tokens of any other value (bare words, dotted paths, calls).
type Expression struct {
	Parts []*Lexeme
}

// Text joins the raw token values without separators.
func (e *Expression) Text() string {
	if e == nil {
		return ""
	}
	var b strings.Builder
	for _, p := range e.Parts {
		b.WriteString(p.Value)
	}
	return b.String()
}

// Parse implements participle.Parseable. Tokens are consumed up to the end of the
// statement; brackets and parentheses may span separators.
func (e *Expression) Parse(lex *lexer.PeekingLexer) error {
	depth := 0
	for !atBoundary(lex.Peek(), depth) {
		l, err := consumeLexeme(lex)
		if err != nil {
			return err
		}
		switch l.Raw {
		case "(", "[":
			depth++
		case ")", "]":
			if depth > 0 {
				depth--
			}
		}
		e.Parts = append(e.Parts, l)
	}
	if len(e.Parts) == 0 {
		return participle.NextMatch
	}
	return nil
}

// Lexeme is one bare token of a command or document header, eg `bleed`, `3mm`, `"a.png"`.
type Lexeme struct {
	Type  string         `json:"type"`
	Value string         `json:"value"` // 字符串已去引号
	Raw   string         `json:"raw"`
	Pos   lexer.Position `json:"-"`
}

// Parse implements participle.Parseable so Lexeme can act as a grammar atom.
func (l *Lexeme) Parse(lex *lexer.PeekingLexer) error {
	if atBoundary(lex.Peek(), 0) {
		return participle.NextMatch
	}
	next, err := consumeLexeme(lex)
	if err != nil {
		return err
	}
	*l = *next
	return nil
}

// IsString reports whether the lexeme was a quoted string.
func (l *Lexeme) IsString() bool { return l != nil && l.Type == "String" }

// StringLiteral unquotes Go-style strings on capture.
type StringLiteral string

// Capture implements participle.Capture.
func (s *StringLiteral) Capture(values []string) error {
	if len(values) == 0 {
		return fmt.Errorf("string literal capture requires value")
	}
	val, err := strconv.Unquote(values[0])
	if err != nil {
		return err
	}
	*s = StringLiteral(val)
	return nil
}

// Parse parses a job file from an io.Reader.
func Parse(r io.Reader) (*Job, error) {
	return jobParser.Parse("", r)
}

// ParseString parses a job file from a string.
func ParseString(input string) (*Job, error) {
	return jobParser.ParseString("", input)
}

// consumeLexeme 读取下一个 token；字符串 token 的 Value 为去引号后的内容。
func consumeLexeme(lex *lexer.PeekingLexer) (*Lexeme, error) {
	tok := lex.Next()
	if tok.EOF() {
		return nil, participle.NextMatch
	}
	l := &Lexeme{Type: tokenNames[tok.Type], Value: tok.Value, Raw: tok.Value, Pos: tok.Pos}
	if tok.Type == stringTokenType {
		v, err := strconv.Unquote(tok.Value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", tok.Pos, err)
		}
		l.Value = v
	}
	return l, nil
}

// atBoundary 报告 tok 是否结束当前参数或表达式；depth 为尚未闭合的括号层数。
func atBoundary(tok *lexer.Token, depth int) bool {
	if tok == nil || tok.EOF() {
		return true
	}
	if depth > 0 {
		return false
	}
	switch tok.Type {
	case newlineTokenType, lbraceTokenType, rbraceTokenType:
		return true
	case symbolTokenType:
		return tok.Value == ";" || tok.Value == "," || tok.Value == "]"
	}
	return false
}

// tokenType 查找词法规则对应的 token 类型，并登记其名称。
func tokenType(name string) lexer.TokenType {
	symbols := dslLexer.Symbols()
	for n, tt := range symbols {
		tokenNames[tt] = n
	}
	tt, ok := symbols[name]
	if !ok {
		panic(fmt.Sprintf("dsl: token %s not defined", name))
	}
	return tt
}
