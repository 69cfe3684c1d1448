package compiler

import (
	"github.com/suyanlong/alephium/internal/ast"
	cerrors "github.com/suyanlong/alephium/internal/errors"
	"github.com/suyanlong/alephium/internal/types"
)

// InferType computes and memoises an expression's type vector. Every
// node is visited exactly once for this purpose: a second call returns
// the cached value without re-walking the subtree.
func (s *State) InferType(e ast.Expr) []types.Type {
	if cached, ok := e.CachedType(); ok {
		return cached
	}
	t := s.inferTypeUncached(e)
	e.SetCachedType(t)
	return t
}

func (s *State) inferTypeUncached(e ast.Expr) []types.Type {
	switch n := e.(type) {
	case *ast.ConstExpr:
		return []types.Type{n.Val.Type()}

	case *ast.ArrayLiteralExpr:
		if len(n.Elems) == 0 {
			return []types.Type{}
		}
		elemTs := s.InferType(n.Elems[0])
		if len(elemTs) != 1 {
			s.addError(cerrors.ArrayElementTypeMismatch(n.Position))
			return []types.Type{}
		}
		for _, el := range n.Elems[1:] {
			t := s.InferType(el)
			if len(t) != 1 || !t[0].Equal(elemTs[0]) {
				s.addError(cerrors.ArrayElementTypeMismatch(n.Position))
				break
			}
		}
		return []types.Type{types.Array(elemTs[0], len(n.Elems))}

	case *ast.ArrayRepeatExpr:
		elemTs := s.InferType(n.Elem)
		if len(elemTs) != 1 {
			s.addError(cerrors.ArrayElementTypeMismatch(n.Position))
			return []types.Type{}
		}
		return []types.Type{types.Array(elemTs[0], n.Count)}

	case *ast.ArrayIndexExpr:
		baseTs := s.InferType(n.Base)
		if len(baseTs) != 1 {
			s.addError(cerrors.InvalidArrayIndex("v", n.Position))
			return []types.Type{}
		}
		et, err := types.ElementType(baseTs[0], len(n.Indexes))
		if err != nil {
			s.addError(cerrors.InvalidArrayIndex("v", n.Position))
			return []types.Type{}
		}
		for _, idx := range n.Indexes {
			s.InferType(idx)
		}
		return []types.Type{et}

	case *ast.VarExpr:
		v, ok := s.GetVariable(n.Name)
		if !ok {
			s.addError(cerrors.UndefinedName("variable", string(n.Name), n.Position, s.knownNames()))
			return []types.Type{}
		}
		return []types.Type{v.Type}

	case *ast.EnumFieldExpr:
		name := ast.Ident(string(n.Enum) + "." + string(n.Field))
		v, ok := s.GetVariable(name)
		if !ok {
			s.addError(cerrors.UndefinedName("enum field", string(name), n.Position, nil))
			return []types.Type{}
		}
		return []types.Type{v.Type}

	case *ast.UnaryExpr:
		ts := s.InferType(n.Operand)
		if len(ts) != 1 {
			return []types.Type{}
		}
		return ts

	case *ast.BinaryExpr:
		lt := s.InferType(n.Left)
		rt := s.InferType(n.Right)
		if len(lt) != 1 || len(rt) != 1 {
			return []types.Type{}
		}
		if !lt[0].Equal(rt[0]) {
			s.addError(cerrors.InvalidOperatorForType(n.Op.String(), lt[0].String(), n.Position))
			return []types.Type{}
		}
		if !binaryOpDefinedFor(n.Op, lt[0].Kind) {
			s.addError(cerrors.InvalidOperatorForType(n.Op.String(), lt[0].String(), n.Position))
			return []types.Type{}
		}
		switch n.Op {
		case ast.Eq, ast.Neq, ast.Lt, ast.Le, ast.Gt, ast.Ge, ast.And, ast.Or:
			return []types.Type{types.Primitive(types.Bool)}
		default:
			return []types.Type{lt[0]}
		}

	case *ast.ContractConvExpr:
		s.InferType(n.Operand)
		info, ok := s.Contracts[n.TypeId]
		kind := types.KindContract
		if ok {
			kind = info.Kind
		}
		return []types.Type{types.ContractType(string(n.TypeId), kind)}

	case *ast.InternalCallExpr:
		for _, a := range n.Args {
			s.InferType(a)
		}
		funcs := s.currentFuncs()
		f, ok := s.GetFunc(funcs, n.Func.Name)
		if !ok {
			s.addError(cerrors.UndefinedName("function", string(n.Func.Name), n.Position, nil))
			return []types.Type{}
		}
		return f.Returns

	case *ast.ExternalCallExpr:
		ct := s.InferType(n.Contract)
		for _, a := range n.Args {
			s.InferType(a)
		}
		if len(ct) != 1 || ct[0].Kind != types.Contract {
			s.addError(cerrors.ExpectContractFor(string(n.Func.Name), "", n.Position))
			return []types.Type{}
		}
		info, ok := s.Contracts[ast.TypeId(ct[0].TypeId)]
		if !ok {
			s.addError(cerrors.ContractDoesNotExist(ct[0].TypeId, n.Position))
			return []types.Type{}
		}
		f, ok := info.Funcs[n.Func.Name]
		if !ok {
			s.addError(cerrors.UndefinedName("function", string(n.Func.Name), n.Position, nil))
			return []types.Type{}
		}
		return f.Returns

	case *ast.ParenExpr:
		return s.InferType(n.Inner)

	case *ast.IfElseExpr:
		s.InferType(n.Cond)
		thenT := s.InferType(n.Then)
		s.InferType(n.Else)
		return thenT

	case *ast.PlaceholderExpr:
		return []types.Type{types.Primitive(types.U256)}

	default:
		return []types.Type{}
	}
}

// binaryOpDefinedFor reports whether a binary operator has an overload
// for the given operand kind. The overload set is fixed per type:
// arithmetic is U256/I256 only (plus ByteVec concatenation via '+'),
// ordering is U256/I256 only, equality spans every non-array, non-
// contract kind, and '&&'/'||' are Bool only.
func binaryOpDefinedFor(op ast.BinaryOp, kind types.Kind) bool {
	switch op {
	case ast.Add:
		return kind == types.U256 || kind == types.I256 || kind == types.ByteVec
	case ast.Sub, ast.Mul, ast.Div, ast.Mod:
		return kind == types.U256 || kind == types.I256
	case ast.Eq, ast.Neq:
		switch kind {
		case types.I256, types.U256, types.ByteVec, types.Address, types.Bool:
			return true
		default:
			return false
		}
	case ast.Lt, ast.Le, ast.Gt, ast.Ge:
		return kind == types.U256 || kind == types.I256
	case ast.And, ast.Or:
		return kind == types.Bool
	case ast.Concat:
		return kind == types.ByteVec
	default:
		return false
	}
}

// knownNames lists every name visible in scope, used to build "did you
// mean" suggestions for undefined-name errors.
func (s *State) knownNames() []string {
	var names []string
	for _, scope := range s.scopes {
		for n := range scope {
			names = append(names, string(n))
		}
	}
	return names
}

// currentFuncs returns the merged function table of the unit currently
// under compilation (populated by the inheritance resolver before
// semantic analysis runs for non-script contracts).
func (s *State) currentFuncs() map[ast.Ident]*ast.FuncDef {
	if info, ok := s.Contracts[s.UnitName]; ok {
		return info.Funcs
	}
	return nil
}

// CheckConditionType verifies an if/while condition is Bool.
func (s *State) CheckConditionType(e ast.Expr) {
	ts := s.InferType(e)
	if len(ts) != 1 || ts[0].Kind != types.Bool {
		s.addError(cerrors.InvalidCondition(e.Pos()))
	}
}

// CheckFunctionTerminates verifies a function with a non-empty return
// type ends every control path in a return statement or a call to the
// built-in panic.
func (s *State) CheckFunctionTerminates(f *ast.FuncDef) {
	if len(f.Returns) == 0 {
		return
	}
	if !blockTerminates(f.Body) {
		s.addError(cerrors.MissingReturn(string(f.Name.Name), ast.Position{}))
	}
}

// blockTerminates reports whether a statement block's last statement
// always transfers control out of the function. An if/else is terminal
// only when every one of its branches, including a trailing else, is
// itself terminal; an else-less if always has a fall-through path.
func blockTerminates(stmts []ast.Stmt) bool {
	if len(stmts) == 0 {
		return false
	}
	return stmtTerminates(stmts[len(stmts)-1])
}

func stmtTerminates(stmt ast.Stmt) bool {
	switch n := stmt.(type) {
	case *ast.ReturnStmt:
		return true
	case *ast.InternalCallStmt:
		return n.Call != nil && n.Call.Func == ast.BuiltinFunc(ast.BuiltinPanic)
	case *ast.IfElseStmt:
		if n.Else == nil {
			return false
		}
		if !blockTerminates(n.Then) {
			return false
		}
		for _, ei := range n.ElseIfs {
			if !blockTerminates(ei.Body) {
				return false
			}
		}
		return blockTerminates(n.Else)
	default:
		return false
	}
}
