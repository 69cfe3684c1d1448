package parser

import (
	"fmt"

	"github.com/suyanlong/alephium/internal/ast"
	"github.com/suyanlong/alephium/internal/types"
)

func (p *Parser) parseAssetScript() (*ast.AssetScript, error) {
	p.advance() // AssetScript
	name, err := p.expect(IDENTIFIER, "script name")
	if err != nil {
		return nil, err
	}
	tpl, err := p.parseTemplateVars()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(LEFT_BRACE, "'{'"); err != nil {
		return nil, err
	}
	var funcs []*ast.FuncDef
	for !p.check(RIGHT_BRACE) {
		f, err := p.parseFuncDef()
		if err != nil {
			return nil, err
		}
		funcs = append(funcs, f)
	}
	if _, err := p.expect(RIGHT_BRACE, "'}'"); err != nil {
		return nil, err
	}
	return &ast.AssetScript{Name: ast.TypeId(name.Lexeme), TemplateVars: tpl, Funcs: funcs}, nil
}

func (p *Parser) parseTxScript() (*ast.TxScript, error) {
	p.advance() // TxScript
	name, err := p.expect(IDENTIFIER, "script name")
	if err != nil {
		return nil, err
	}
	tpl, err := p.parseTemplateVars()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(LEFT_BRACE, "'{'"); err != nil {
		return nil, err
	}
	var funcs []*ast.FuncDef
	for !p.check(RIGHT_BRACE) {
		f, err := p.parseFuncDef()
		if err != nil {
			return nil, err
		}
		funcs = append(funcs, f)
	}
	if _, err := p.expect(RIGHT_BRACE, "'}'"); err != nil {
		return nil, err
	}
	return &ast.TxScript{Name: ast.TypeId(name.Lexeme), TemplateVars: tpl, Funcs: funcs}, nil
}

func (p *Parser) parseInterface() (*ast.ContractInterface, error) {
	p.advance() // interface
	name, err := p.expect(IDENTIFIER, "interface name")
	if err != nil {
		return nil, err
	}
	var inherits []ast.InterfaceInheritance
	if p.match(EXTENDS) {
		for {
			parent, err := p.expect(IDENTIFIER, "parent interface name")
			if err != nil {
				return nil, err
			}
			inherits = append(inherits, ast.InterfaceInheritance{Parent: ast.TypeId(parent.Lexeme)})
			if !p.match(COMMA) {
				break
			}
		}
	}
	if _, err := p.expect(LEFT_BRACE, "'{'"); err != nil {
		return nil, err
	}
	iface := &ast.ContractInterface{Name: ast.TypeId(name.Lexeme), Inherits: inherits}
	for !p.check(RIGHT_BRACE) {
		if p.check(EVENT) {
			ev, err := p.parseEventDef()
			if err != nil {
				return nil, err
			}
			iface.Events = append(iface.Events, ev)
			continue
		}
		f, err := p.parseFuncDef()
		if err != nil {
			return nil, err
		}
		iface.Funcs = append(iface.Funcs, f)
	}
	if _, err := p.expect(RIGHT_BRACE, "'}'"); err != nil {
		return nil, err
	}
	return iface, nil
}

func (p *Parser) parseContract() (*ast.Contract, error) {
	abstract := p.match(ABSTRACT)
	if _, err := p.expect(CONTRACT, "'contract'"); err != nil {
		return nil, err
	}
	name, err := p.expect(IDENTIFIER, "contract name")
	if err != nil {
		return nil, err
	}
	tpl, err := p.parseTemplateVars()
	if err != nil {
		return nil, err
	}
	var inherits []ast.ContractInheritance
	if p.match(EXTENDS) {
		for {
			inh, err := p.parseContractInheritance()
			if err != nil {
				return nil, err
			}
			inherits = append(inherits, inh)
			if !p.match(COMMA) {
				break
			}
		}
	}
	if _, err := p.expect(LEFT_BRACE, "'{'"); err != nil {
		return nil, err
	}
	c := &ast.Contract{Name: ast.TypeId(name.Lexeme), Abstract: abstract, TemplateVars: tpl, Inherits: inherits}
	for !p.check(RIGHT_BRACE) {
		switch {
		case p.check(EVENT):
			ev, err := p.parseEventDef()
			if err != nil {
				return nil, err
			}
			c.Events = append(c.Events, ev)
		case p.check(CONST):
			cdef, err := p.parseConstantDef()
			if err != nil {
				return nil, err
			}
			c.Constants = append(c.Constants, cdef)
		case p.check(ENUM):
			edef, err := p.parseEnumDef()
			if err != nil {
				return nil, err
			}
			c.Enums = append(c.Enums, edef)
		case p.check(PUB), p.check(FN), p.check(POUND):
			f, err := p.parseFuncDef()
			if err != nil {
				return nil, err
			}
			c.Funcs = append(c.Funcs, f)
		default:
			field, err := p.parseArgument()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(SEMICOLON, "';'"); err != nil {
				return nil, err
			}
			c.Fields = append(c.Fields, field)
		}
	}
	if _, err := p.expect(RIGHT_BRACE, "'}'"); err != nil {
		return nil, err
	}
	return c, nil
}

func (p *Parser) parseContractInheritance() (ast.ContractInheritance, error) {
	parent, err := p.expect(IDENTIFIER, "parent contract name")
	if err != nil {
		return ast.ContractInheritance{}, err
	}
	inh := ast.ContractInheritance{Parent: ast.TypeId(parent.Lexeme)}
	if p.match(LEFT_PAREN) {
		for !p.check(RIGHT_PAREN) {
			f, err := p.expect(IDENTIFIER, "forwarded field name")
			if err != nil {
				return ast.ContractInheritance{}, err
			}
			inh.Fields = append(inh.Fields, ast.Ident(f.Lexeme))
			if !p.match(COMMA) {
				break
			}
		}
		if _, err := p.expect(RIGHT_PAREN, "')'"); err != nil {
			return ast.ContractInheritance{}, err
		}
	}
	return inh, nil
}

func (p *Parser) parseEventDef() (*ast.EventDef, error) {
	p.advance() // event
	name, err := p.expect(IDENTIFIER, "event name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(LEFT_PAREN, "'('"); err != nil {
		return nil, err
	}
	var fields []ast.EventField
	for !p.check(RIGHT_PAREN) {
		fname, err := p.expect(IDENTIFIER, "event field name")
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(COLON, "':'"); err != nil {
			return nil, err
		}
		ty, err := p.parseType()
		if err != nil {
			return nil, err
		}
		fields = append(fields, ast.EventField{Name: ast.Ident(fname.Lexeme), Type: ty})
		if !p.match(COMMA) {
			break
		}
	}
	if _, err := p.expect(RIGHT_PAREN, "')'"); err != nil {
		return nil, err
	}
	if _, err := p.expect(SEMICOLON, "';'"); err != nil {
		return nil, err
	}
	return &ast.EventDef{Name: ast.TypeId(name.Lexeme), Fields: fields}, nil
}

func (p *Parser) parseConstantDef() (*ast.ConstantVarDef, error) {
	p.advance() // const
	name, err := p.expect(IDENTIFIER, "constant name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(EQUAL, "'='"); err != nil {
		return nil, err
	}
	val, err := p.parseLiteralValue()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(SEMICOLON, "';'"); err != nil {
		return nil, err
	}
	return &ast.ConstantVarDef{Name: ast.Ident(name.Lexeme), Value: val}, nil
}

func (p *Parser) parseEnumDef() (*ast.EnumDef, error) {
	p.advance() // enum
	name, err := p.expect(IDENTIFIER, "enum name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(LEFT_BRACE, "'{'"); err != nil {
		return nil, err
	}
	e := &ast.EnumDef{Name: ast.TypeId(name.Lexeme)}
	for !p.check(RIGHT_BRACE) {
		fname, err := p.expect(IDENTIFIER, "enum field name")
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(EQUAL, "'='"); err != nil {
			return nil, err
		}
		val, err := p.parseLiteralValue()
		if err != nil {
			return nil, err
		}
		e.Fields = append(e.Fields, ast.EnumField{Name: ast.Ident(fname.Lexeme), Value: val})
		if !p.match(COMMA) {
			break
		}
	}
	if _, err := p.expect(RIGHT_BRACE, "'}'"); err != nil {
		return nil, err
	}
	return e, nil
}

// parseLiteralValue parses the handful of constant forms legal on the
// right of `const X = ...` and enum fields: integers, bools, bytevecs.
func (p *Parser) parseLiteralValue() (types.Val, error) {
	switch {
	case p.check(TRUE):
		p.advance()
		return types.BoolVal(true), nil
	case p.check(FALSE):
		p.advance()
		return types.BoolVal(false), nil
	case p.check(NUMBER), p.check(HEX_NUMBER):
		tok := p.advance()
		v, err := parseBigIntLiteral(tok.Lexeme)
		if err != nil {
			return types.Val{}, err
		}
		u, err := types.U256FromBigInt(v)
		if err != nil {
			return types.Val{}, err
		}
		return types.U256Val(u), nil
	case p.check(POUND):
		p.advance()
		tok, err := p.expect(HEX_NUMBER, "hex bytes")
		if err != nil {
			return types.Val{}, err
		}
		b, err := hexToBytes(tok.Lexeme)
		if err != nil {
			return types.Val{}, err
		}
		return types.ByteVecVal(b), nil
	default:
		got := p.peek()
		return types.Val{}, fmt.Errorf("parse error at %d:%d: expected a constant literal, got %q", got.Position.Line, got.Position.Column, got.Lexeme)
	}
}

func (p *Parser) parseAnnotation() (ast.Annotation, error) {
	if _, err := p.expect(POUND, "'#'"); err != nil {
		return ast.Annotation{}, err
	}
	if _, err := p.expect(LEFT_BRACKET, "'['"); err != nil {
		return ast.Annotation{}, err
	}
	id, err := p.expect(IDENTIFIER, "annotation name")
	if err != nil {
		return ast.Annotation{}, err
	}
	ann := ast.Annotation{Id: ast.Ident(id.Lexeme)}
	if p.match(LEFT_PAREN) {
		for !p.check(RIGHT_PAREN) {
			fname, err := p.expect(IDENTIFIER, "annotation field name")
			if err != nil {
				return ast.Annotation{}, err
			}
			if _, err := p.expect(EQUAL, "'='"); err != nil {
				return ast.Annotation{}, err
			}
			val, err := p.parseLiteralValue()
			if err != nil {
				return ast.Annotation{}, err
			}
			ann.Fields = append(ann.Fields, ast.AnnotationField{Name: ast.Ident(fname.Lexeme), Value: val})
			if !p.match(COMMA) {
				break
			}
		}
		if _, err := p.expect(RIGHT_PAREN, "')'"); err != nil {
			return ast.Annotation{}, err
		}
	}
	if _, err := p.expect(RIGHT_BRACKET, "']'"); err != nil {
		return ast.Annotation{}, err
	}
	return ann, nil
}

func annotationFlag(anns []ast.Annotation, name, field string, def bool) bool {
	for _, a := range anns {
		if string(a.Id) != name {
			continue
		}
		for _, f := range a.Fields {
			if string(f.Name) == field {
				return f.Value.Kind == types.ValBool && f.Value.Bool
			}
		}
	}
	return def
}

func (p *Parser) parseFuncDef() (*ast.FuncDef, error) {
	var anns []ast.Annotation
	for p.check(POUND) {
		a, err := p.parseAnnotation()
		if err != nil {
			return nil, err
		}
		anns = append(anns, a)
	}
	public := p.match(PUB)
	if _, err := p.expect(FN, "'fn'"); err != nil {
		return nil, err
	}
	name, err := p.expect(IDENTIFIER, "function name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(LEFT_PAREN, "'('"); err != nil {
		return nil, err
	}
	var args []ast.Argument
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
	var returns []types.Type
	if p.match(ARROW) {
		if p.match(LEFT_PAREN) {
			for !p.check(RIGHT_PAREN) {
				ty, err := p.parseType()
				if err != nil {
					return nil, err
				}
				returns = append(returns, ty)
				if !p.match(COMMA) {
					break
				}
			}
			if _, err := p.expect(RIGHT_PAREN, "')'"); err != nil {
				return nil, err
			}
		} else {
			ty, err := p.parseType()
			if err != nil {
				return nil, err
			}
			returns = append(returns, ty)
		}
	}
	f := &ast.FuncDef{
		Annotations:          anns,
		Name:                 ast.UserFunc(ast.Ident(name.Lexeme)),
		Public:               public,
		Returns:              returns,
		Args:                 args,
		UsePreapprovedAssets: annotationFlag(anns, "using", "preapprovedAssets", false),
		UseAssetsInContract:  annotationFlag(anns, "using", "assetsInContract", false),
		UsePermissionCheck:   annotationFlag(anns, "using", "checkExternalCaller", true),
	}
	if p.match(SEMICOLON) {
		return f, nil // abstract
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	f.Body = body
	return f, nil
}
