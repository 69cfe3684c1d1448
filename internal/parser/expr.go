package parser

import (
	"fmt"
	"unicode"

	"github.com/suyanlong/alephium/internal/ast"
	"github.com/suyanlong/alephium/internal/types"
)

// parseExpr is the entry point of the precedence-climbing expression
// parser: each precedence tier is its own method, falling through to
// the next tighter tier until primary/postfix.
func (p *Parser) parseExpr() (ast.Expr, error) { return p.parseOr() }

func (p *Parser) parseOr() (ast.Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.check(OR) {
		tok := p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Position: pos(tok), Op: ast.Or, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseAnd() (ast.Expr, error) {
	left, err := p.parseEquality()
	if err != nil {
		return nil, err
	}
	for p.check(AND) {
		tok := p.advance()
		right, err := p.parseEquality()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Position: pos(tok), Op: ast.And, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseEquality() (ast.Expr, error) {
	left, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	for p.check(EQUAL_EQUAL) || p.check(BANG_EQUAL) {
		tok := p.advance()
		op := ast.Eq
		if tok.Type == BANG_EQUAL {
			op = ast.Neq
		}
		right, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Position: pos(tok), Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseComparison() (ast.Expr, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for p.check(LESS) || p.check(LESS_EQUAL) || p.check(GREATER) || p.check(GREATER_EQUAL) {
		tok := p.advance()
		var op ast.BinaryOp
		switch tok.Type {
		case LESS:
			op = ast.Lt
		case LESS_EQUAL:
			op = ast.Le
		case GREATER:
			op = ast.Gt
		case GREATER_EQUAL:
			op = ast.Ge
		}
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Position: pos(tok), Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseAdditive() (ast.Expr, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.check(PLUS) || p.check(MINUS) {
		tok := p.advance()
		op := ast.Add
		if tok.Type == MINUS {
			op = ast.Sub
		}
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Position: pos(tok), Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseMultiplicative() (ast.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.check(STAR) || p.check(SLASH) || p.check(PERCENT) {
		tok := p.advance()
		op := ast.Mul
		if tok.Type == SLASH {
			op = ast.Div
		} else if tok.Type == PERCENT {
			op = ast.Mod
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Position: pos(tok), Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseUnary() (ast.Expr, error) {
	if p.check(MINUS) || p.check(BANG) {
		tok := p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		op := ast.Neg
		if tok.Type == BANG {
			op = ast.Not
		}
		return &ast.UnaryExpr{Position: pos(tok), Op: op, Operand: operand}, nil
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() (ast.Expr, error) {
	e, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.check(LEFT_BRACKET):
			tok := p.advance()
			var idxs []ast.Expr
			idx, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			idxs = append(idxs, idx)
			if _, err := p.expect(RIGHT_BRACKET, "']'"); err != nil {
				return nil, err
			}
			for p.check(LEFT_BRACKET) {
				p.advance()
				idx, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				idxs = append(idxs, idx)
				if _, err := p.expect(RIGHT_BRACKET, "']'"); err != nil {
					return nil, err
				}
			}
			e = &ast.ArrayIndexExpr{Position: pos(tok), Base: e, Indexes: idxs}
		case p.check(DOT):
			p.advance()
			field, err := p.expect(IDENTIFIER, "field or method name")
			if err != nil {
				return nil, err
			}
			if p.check(LEFT_PAREN) {
				args, err := p.parseArgList()
				if err != nil {
					return nil, err
				}
				e = &ast.ExternalCallExpr{Position: pos(field), Contract: e, Func: ast.UserFunc(ast.Ident(field.Lexeme)), Args: args}
				continue
			}
			if ve, ok := e.(*ast.VarExpr); ok && startsUpper(string(ve.Name)) {
				e = &ast.EnumFieldExpr{Position: pos(field), Enum: ast.TypeId(ve.Name), Field: ast.Ident(field.Lexeme)}
				continue
			}
			return nil, fmt.Errorf("parse error at %d:%d: field access on a non-enum base is not supported by the supplementary parser", field.Position.Line, field.Position.Column)
		default:
			return e, nil
		}
	}
}

func (p *Parser) parseArgList() ([]ast.Expr, error) {
	if _, err := p.expect(LEFT_PAREN, "'('"); err != nil {
		return nil, err
	}
	var args []ast.Expr
	for !p.check(RIGHT_PAREN) {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, e)
		if !p.match(COMMA) {
			break
		}
	}
	if _, err := p.expect(RIGHT_PAREN, "')'"); err != nil {
		return nil, err
	}
	return args, nil
}

func startsUpper(s string) bool {
	if s == "" {
		return false
	}
	return unicode.IsUpper([]rune(s)[0])
}

func (p *Parser) parsePrimary() (ast.Expr, error) {
	tok := p.peek()
	switch tok.Type {
	case NUMBER, HEX_NUMBER:
		p.advance()
		v, err := parseBigIntLiteral(tok.Lexeme)
		if err != nil {
			return nil, err
		}
		u, err := types.U256FromBigInt(v)
		if err != nil {
			return nil, err
		}
		return &ast.ConstExpr{Position: pos(tok), Val: types.U256Val(u)}, nil
	case TRUE:
		p.advance()
		return &ast.ConstExpr{Position: pos(tok), Val: types.BoolVal(true)}, nil
	case FALSE:
		p.advance()
		return &ast.ConstExpr{Position: pos(tok), Val: types.BoolVal(false)}, nil
	case POUND:
		p.advance()
		h, err := p.expect(HEX_NUMBER, "hex bytes")
		if err != nil {
			return nil, err
		}
		b, err := hexToBytes(h.Lexeme)
		if err != nil {
			return nil, err
		}
		return &ast.ConstExpr{Position: pos(tok), Val: types.ByteVecVal(b)}, nil
	case AT:
		p.advance()
		h, err := p.expect(HEX_NUMBER, "hex address")
		if err != nil {
			return nil, err
		}
		b, err := hexToBytes(h.Lexeme)
		if err != nil {
			return nil, err
		}
		return &ast.ConstExpr{Position: pos(tok), Val: types.AddressVal(b)}, nil
	case QUESTION:
		p.advance()
		return &ast.PlaceholderExpr{Position: pos(tok)}, nil
	case LEFT_PAREN:
		p.advance()
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(RIGHT_PAREN, "')'"); err != nil {
			return nil, err
		}
		return &ast.ParenExpr{Position: pos(tok), Inner: inner}, nil
	case LEFT_BRACKET:
		return p.parseArrayExpr()
	case IF:
		return p.parseIfElseExpr()
	case IDENTIFIER:
		p.advance()
		if p.check(LEFT_PAREN) {
			args, err := p.parseArgList()
			if err != nil {
				return nil, err
			}
			if startsUpper(tok.Lexeme) && len(args) == 1 {
				return &ast.ContractConvExpr{Position: pos(tok), TypeId: ast.TypeId(tok.Lexeme), Operand: args[0]}, nil
			}
			return &ast.InternalCallExpr{Position: pos(tok), Func: ast.UserFunc(ast.Ident(tok.Lexeme)), Args: args}, nil
		}
		return &ast.VarExpr{Position: pos(tok), Name: ast.Ident(tok.Lexeme)}, nil
	default:
		return nil, fmt.Errorf("parse error at %d:%d: unexpected token %q in expression", tok.Position.Line, tok.Position.Column, tok.Lexeme)
	}
}

func (p *Parser) parseArrayExpr() (ast.Expr, error) {
	tok, err := p.expect(LEFT_BRACKET, "'['")
	if err != nil {
		return nil, err
	}
	if p.check(RIGHT_BRACKET) {
		p.advance()
		return &ast.ArrayLiteralExpr{Position: pos(tok)}, nil
	}
	first, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.match(SEMICOLON) {
		n, err := p.expect(NUMBER, "array repeat count")
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(RIGHT_BRACKET, "']'"); err != nil {
			return nil, err
		}
		count, err := parseUintLiteral(n.Lexeme)
		if err != nil {
			return nil, err
		}
		return &ast.ArrayRepeatExpr{Position: pos(tok), Elem: first, Count: int(count)}, nil
	}
	elems := []ast.Expr{first}
	for p.match(COMMA) {
		if p.check(RIGHT_BRACKET) {
			break
		}
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		elems = append(elems, e)
	}
	if _, err := p.expect(RIGHT_BRACKET, "']'"); err != nil {
		return nil, err
	}
	return &ast.ArrayLiteralExpr{Position: pos(tok), Elems: elems}, nil
}

// parseIfElseExpr supports only the restricted expression form the
// supplementary parser needs: `if cond { expr } else { expr }`, with no
// statements inside the branches.
func (p *Parser) parseIfElseExpr() (ast.Expr, error) {
	tok, err := p.expect(IF, "'if'")
	if err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(LEFT_BRACE, "'{'"); err != nil {
		return nil, err
	}
	then, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RIGHT_BRACE, "'}'"); err != nil {
		return nil, err
	}
	if _, err := p.expect(ELSE, "'else'"); err != nil {
		return nil, err
	}
	if _, err := p.expect(LEFT_BRACE, "'{'"); err != nil {
		return nil, err
	}
	elseExpr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RIGHT_BRACE, "'}'"); err != nil {
		return nil, err
	}
	return &ast.IfElseExpr{Position: pos(tok), Cond: cond, Then: then, Else: elseExpr}, nil
}
