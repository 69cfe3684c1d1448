// Package parser is a supplementary front end: a hand-written scanner
// and recursive-descent parser that turns source text into the AST
// shapes the compiler operates on. It is not part of the compiler's
// contract — the compiler accepts an already-built AST — but lets this
// repository be exercised end-to-end from source.
package parser

import (
	"fmt"

	"github.com/suyanlong/alephium/internal/ast"
	"github.com/suyanlong/alephium/internal/types"
)

// Parser consumes a token stream produced by Scanner and builds a
// MultiContract.
type Parser struct {
	tokens  []Token
	current int
}

func NewParser(tokens []Token) *Parser {
	return &Parser{tokens: filterTrivia(tokens)}
}

// Parse scans and parses a full source file into a MultiContract.
func Parse(source string) (*ast.MultiContract, error) {
	scanner := NewScanner(source)
	tokens := scanner.ScanTokens()
	if len(scanner.errors) > 0 {
		return nil, fmt.Errorf("scan error: %s", scanner.errors[0].Message)
	}
	p := NewParser(tokens)
	return p.parseMultiContract()
}

func filterTrivia(tokens []Token) []Token {
	out := make([]Token, 0, len(tokens))
	for _, t := range tokens {
		switch t.Type {
		case COMMENT, DOC_COMMENT, BLOCK_COMMENT:
			continue
		}
		out = append(out, t)
	}
	return out
}

func (p *Parser) peek() Token  { return p.tokens[p.current] }
func (p *Parser) peekAt(n int) Token {
	if p.current+n >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.current+n]
}
func (p *Parser) atEnd() bool { return p.peek().Type == EOF }

func (p *Parser) advance() Token {
	t := p.peek()
	if !p.atEnd() {
		p.current++
	}
	return t
}

func (p *Parser) check(t TokenType) bool { return !p.atEnd() && p.peek().Type == t }

func (p *Parser) match(types ...TokenType) bool {
	for _, t := range types {
		if p.check(t) {
			p.advance()
			return true
		}
	}
	return false
}

func (p *Parser) expect(t TokenType, what string) (Token, error) {
	if p.check(t) {
		return p.advance(), nil
	}
	got := p.peek()
	return Token{}, fmt.Errorf("parse error at %d:%d: expected %s, got %q", got.Position.Line, got.Position.Column, what, got.Lexeme)
}

func pos(t Token) ast.Position {
	return ast.Position{Line: t.Position.Line, Column: t.Position.Column, Offset: t.Position.Offset}
}

func (p *Parser) parseMultiContract() (*ast.MultiContract, error) {
	mc := &ast.MultiContract{}
	for !p.atEnd() {
		unit, err := p.parseUnit()
		if err != nil {
			return nil, err
		}
		mc.Units = append(mc.Units, unit)
	}
	return mc, nil
}

func (p *Parser) parseUnit() (ast.Unit, error) {
	switch {
	case p.check(ASSET_SCRIPT):
		return p.parseAssetScript()
	case p.check(TX_SCRIPT):
		return p.parseTxScript()
	case p.check(INTERFACE):
		return p.parseInterface()
	case p.check(ABSTRACT), p.check(CONTRACT):
		return p.parseContract()
	default:
		got := p.peek()
		return nil, fmt.Errorf("parse error at %d:%d: expected a unit declaration (contract/interface/AssetScript/TxScript), got %q", got.Position.Line, got.Position.Column, got.Lexeme)
	}
}

func (p *Parser) parseTemplateVars() ([]ast.Argument, error) {
	var args []ast.Argument
	if !p.match(LEFT_PAREN) {
		return nil, nil
	}
	for !p.check(RIGHT_PAREN) {
		arg, err := p.parseArgument()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if !p.match(COMMA) {
			break
		}
	}
	if _, err := p.expect(RIGHT_PAREN, "')'"); err != nil {
		return nil, err
	}
	return args, nil
}

func (p *Parser) parseArgument() (ast.Argument, error) {
	mut := p.match(MUT)
	name, err := p.expect(IDENTIFIER, "argument name")
	if err != nil {
		return ast.Argument{}, err
	}
	if _, err := p.expect(COLON, "':'"); err != nil {
		return ast.Argument{}, err
	}
	ty, err := p.parseType()
	if err != nil {
		return ast.Argument{}, err
	}
	return ast.Argument{Name: ast.Ident(name.Lexeme), Type: ty, Mutable: mut}, nil
}

func (p *Parser) parseType() (types.Type, error) {
	if p.match(LEFT_BRACKET) {
		elem, err := p.parseType()
		if err != nil {
			return types.Type{}, err
		}
		if _, err := p.expect(SEMICOLON, "';'"); err != nil {
			return types.Type{}, err
		}
		n, err := p.expect(NUMBER, "array length")
		if err != nil {
			return types.Type{}, err
		}
		if _, err := p.expect(RIGHT_BRACKET, "']'"); err != nil {
			return types.Type{}, err
		}
		length, err := parseUintLiteral(n.Lexeme)
		if err != nil {
			return types.Type{}, err
		}
		return types.Array(elem, int(length)), nil
	}
	name, err := p.expect(IDENTIFIER, "type name")
	if err != nil {
		return types.Type{}, err
	}
	switch name.Lexeme {
	case "Bool":
		return types.Primitive(types.Bool), nil
	case "I256":
		return types.Primitive(types.I256), nil
	case "U256":
		return types.Primitive(types.U256), nil
	case "ByteVec":
		return types.Primitive(types.ByteVec), nil
	case "Address":
		return types.Primitive(types.Address), nil
	default:
		// A contract/interface type name; it is recorded as
		// KindContract whatever the named unit is, and type equality
		// compares only the TypeId.
		return types.ContractType(name.Lexeme, types.KindContract), nil
	}
}
