package parser

import (
	"fmt"

	"github.com/suyanlong/alephium/internal/ast"
)

func (p *Parser) parseBlock() ([]ast.Stmt, error) {
	if _, err := p.expect(LEFT_BRACE, "'{'"); err != nil {
		return nil, err
	}
	var stmts []ast.Stmt
	for !p.check(RIGHT_BRACE) {
		s, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
	}
	if _, err := p.expect(RIGHT_BRACE, "'}'"); err != nil {
		return nil, err
	}
	return stmts, nil
}

func (p *Parser) parseStmt() (ast.Stmt, error) {
	switch {
	case p.check(LET):
		return p.parseVarDef()
	case p.check(IF):
		return p.parseIfElseStmt()
	case p.check(WHILE):
		return p.parseWhileStmt()
	case p.check(FOR):
		return p.parseForStmt()
	case p.check(LOOP):
		return p.parseLoopStmt()
	case p.check(RETURN):
		return p.parseReturnStmt()
	case p.check(EMIT):
		return p.parseEmitStmt()
	default:
		return p.parseExprOrAssignStmt()
	}
}

func (p *Parser) parseVarDef() (ast.Stmt, error) {
	tok := p.advance() // let
	var targets []ast.VarTarget
	for {
		t, err := p.parseVarTarget()
		if err != nil {
			return nil, err
		}
		targets = append(targets, t)
		if !p.match(COMMA) {
			break
		}
	}
	if _, err := p.expect(EQUAL, "'='"); err != nil {
		return nil, err
	}
	rhs, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(SEMICOLON, "';'"); err != nil {
		return nil, err
	}
	return &ast.VarDefStmt{Position: pos(tok), Targets: targets, Rhs: rhs}, nil
}

func (p *Parser) parseVarTarget() (ast.VarTarget, error) {
	if p.check(IDENTIFIER) && p.peek().Lexeme == "_" {
		p.advance()
		return ast.VarTarget{Discard: true}, nil
	}
	mut := p.match(MUT)
	name, err := p.expect(IDENTIFIER, "binding name")
	if err != nil {
		return ast.VarTarget{}, err
	}
	return ast.VarTarget{Name: ast.Ident(name.Lexeme), Mutable: mut}, nil
}

func (p *Parser) parseIfElseStmt() (ast.Stmt, error) {
	tok := p.advance() // if
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	then, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	stmt := &ast.IfElseStmt{Position: pos(tok), Cond: cond, Then: then}
	for p.check(ELSE) && p.peekAt(1).Type == IF {
		p.advance() // else
		p.advance() // if
		elifCond, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		elifBody, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		stmt.ElseIfs = append(stmt.ElseIfs, ast.ElseIf{Cond: elifCond, Body: elifBody})
	}
	if p.match(ELSE) {
		elseBody, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		stmt.Else = elseBody
	}
	return stmt, nil
}

func (p *Parser) parseWhileStmt() (ast.Stmt, error) {
	tok := p.advance() // while
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.WhileStmt{Position: pos(tok), Cond: cond, Body: body}, nil
}

func (p *Parser) parseForStmt() (ast.Stmt, error) {
	tok := p.advance() // for
	if _, err := p.expect(LEFT_PAREN, "'('"); err != nil {
		return nil, err
	}
	var init ast.Stmt
	if !p.check(SEMICOLON) {
		var err error
		init, err = p.parseVarDefOrAssignNoSemi()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(SEMICOLON, "';'"); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(SEMICOLON, "';'"); err != nil {
		return nil, err
	}
	var update ast.Stmt
	if !p.check(RIGHT_PAREN) {
		update, err = p.parseVarDefOrAssignNoSemi()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(RIGHT_PAREN, "')'"); err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.ForStmt{Position: pos(tok), Init: init, Cond: cond, Update: update, Body: body}, nil
}

// parseVarDefOrAssignNoSemi parses the init/update clauses of a for
// statement, which share syntax with `let`/assignment statements but
// are not themselves semicolon-terminated (the caller consumes the
// separators).
func (p *Parser) parseVarDefOrAssignNoSemi() (ast.Stmt, error) {
	if p.check(LET) {
		tok := p.advance()
		var targets []ast.VarTarget
		for {
			t, err := p.parseVarTarget()
			if err != nil {
				return nil, err
			}
			targets = append(targets, t)
			if !p.match(COMMA) {
				break
			}
		}
		if _, err := p.expect(EQUAL, "'='"); err != nil {
			return nil, err
		}
		rhs, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return &ast.VarDefStmt{Position: pos(tok), Targets: targets, Rhs: rhs}, nil
	}
	return p.parseAssignNoSemi()
}

func (p *Parser) parseAssignNoSemi() (ast.Stmt, error) {
	startTok := p.peek()
	target, err := p.parseAssignTarget()
	if err != nil {
		return nil, err
	}
	targets := []ast.AssignTarget{target}
	for p.match(COMMA) {
		t, err := p.parseAssignTarget()
		if err != nil {
			return nil, err
		}
		targets = append(targets, t)
	}
	if _, err := p.expect(EQUAL, "'='"); err != nil {
		return nil, err
	}
	rhs, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &ast.AssignStmt{Position: pos(startTok), Targets: targets, Rhs: rhs}, nil
}

func (p *Parser) parseAssignTarget() (ast.AssignTarget, error) {
	name, err := p.expect(IDENTIFIER, "assignment target")
	if err != nil {
		return ast.AssignTarget{}, err
	}
	t := ast.AssignTarget{Name: ast.Ident(name.Lexeme)}
	for p.check(LEFT_BRACKET) {
		p.advance()
		idx, err := p.parseExpr()
		if err != nil {
			return ast.AssignTarget{}, err
		}
		if _, err := p.expect(RIGHT_BRACKET, "']'"); err != nil {
			return ast.AssignTarget{}, err
		}
		t.Indexes = append(t.Indexes, idx)
	}
	return t, nil
}

func (p *Parser) parseLoopStmt() (ast.Stmt, error) {
	tok := p.advance() // loop
	if _, err := p.expect(LEFT_PAREN, "'('"); err != nil {
		return nil, err
	}
	from, err := p.expect(NUMBER, "loop 'from' bound")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(COMMA, "','"); err != nil {
		return nil, err
	}
	to, err := p.expect(NUMBER, "loop 'to' bound")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(COMMA, "','"); err != nil {
		return nil, err
	}
	step, err := p.expect(NUMBER, "loop 'step'")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(COMMA, "','"); err != nil {
		return nil, err
	}
	fromV, err := parseUintLiteral(from.Lexeme)
	if err != nil {
		return nil, err
	}
	toV, err := parseUintLiteral(to.Lexeme)
	if err != nil {
		return nil, err
	}
	stepV, err := parseUintLiteral(step.Lexeme)
	if err != nil {
		return nil, err
	}
	body, err := p.parseStmt()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RIGHT_PAREN, "')'"); err != nil {
		return nil, err
	}
	if _, err := p.expect(SEMICOLON, "';'"); err != nil {
		return nil, err
	}
	return &ast.LoopStmt{Position: pos(tok), From: int64(fromV), To: int64(toV), Step: int64(stepV), Body: body}, nil
}

func (p *Parser) parseReturnStmt() (ast.Stmt, error) {
	tok := p.advance() // return
	var values []ast.Expr
	if !p.check(SEMICOLON) {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		values = append(values, e)
		for p.match(COMMA) {
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			values = append(values, e)
		}
	}
	if _, err := p.expect(SEMICOLON, "';'"); err != nil {
		return nil, err
	}
	return &ast.ReturnStmt{Position: pos(tok), Values: values}, nil
}

func (p *Parser) parseEmitStmt() (ast.Stmt, error) {
	tok := p.advance() // emit
	name, err := p.expect(IDENTIFIER, "event name")
	if err != nil {
		return nil, err
	}
	args, err := p.parseArgList()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(SEMICOLON, "';'"); err != nil {
		return nil, err
	}
	return &ast.EmitStmt{Position: pos(tok), Event: ast.TypeId(name.Lexeme), Args: args}, nil
}

// parseExprOrAssignStmt disambiguates a leading-identifier statement
// between a call-as-statement and an assignment by trying an
// assignment parse first and falling back to a bare expression.
func (p *Parser) parseExprOrAssignStmt() (ast.Stmt, error) {
	startTok := p.peek()
	if p.check(IDENTIFIER) && isAssignStart(p) {
		s, err := p.parseAssignNoSemi()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(SEMICOLON, "';'"); err != nil {
			return nil, err
		}
		return s, nil
	}
	e, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(SEMICOLON, "';'"); err != nil {
		return nil, err
	}
	switch call := e.(type) {
	case *ast.InternalCallExpr:
		return &ast.InternalCallStmt{Position: pos(startTok), Call: call}, nil
	case *ast.ExternalCallExpr:
		return &ast.ExternalCallStmt{Position: pos(startTok), Call: call}, nil
	default:
		return nil, fmt.Errorf("parse error at %d:%d: expected a call or assignment statement", startTok.Position.Line, startTok.Position.Column)
	}
}

// isAssignStart looks ahead past a comma-separated list of identifiers,
// each optionally indexed, and reports whether '=' follows — the shape
// of an assignment's left-hand side, as opposed to a call expression.
func isAssignStart(p *Parser) bool {
	save := p.current
	defer func() { p.current = save }()
	for p.check(IDENTIFIER) {
		p.advance()
		for p.check(LEFT_BRACKET) {
			depth := 1
			p.advance()
			for depth > 0 && !p.atEnd() {
				switch p.peek().Type {
				case LEFT_BRACKET:
					depth++
				case RIGHT_BRACKET:
					depth--
				}
				p.advance()
			}
		}
		if p.check(COMMA) {
			p.advance()
			continue
		}
		break
	}
	return p.check(EQUAL)
}
