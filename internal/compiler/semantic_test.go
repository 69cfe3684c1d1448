package compiler

import (
	"math/big"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suyanlong/alephium/internal/ast"
	"github.com/suyanlong/alephium/internal/types"
)

func constU256(n uint64) *ast.ConstExpr {
	return &ast.ConstExpr{Val: types.U256Val(uint256.NewInt(n))}
}

func TestInferTypeIsMemoizedAfterFirstCall(t *testing.T) {
	s := newTestState()
	e := constU256(1)

	t1 := s.InferType(e)
	t2 := s.InferType(e)
	require.Equal(t, t1, t2)

	cached, ok := e.CachedType()
	require.True(t, ok)
	assert.Equal(t, []types.Type{types.Primitive(types.U256)}, cached)
}

func TestInferTypeArrayLiteralHomogeneous(t *testing.T) {
	s := newTestState()
	lit := &ast.ArrayLiteralExpr{Elems: []ast.Expr{constU256(1), constU256(2), constU256(3)}}

	ts := s.InferType(lit)
	require.Len(t, ts, 1)
	assert.Equal(t, types.Array(types.Primitive(types.U256), 3), ts[0])
	assert.Empty(t, s.Errors)
}

func TestInferTypeArrayLiteralMixedTypesErrors(t *testing.T) {
	s := newTestState()
	boolLit := &ast.ConstExpr{Val: types.BoolVal(true)}
	lit := &ast.ArrayLiteralExpr{Elems: []ast.Expr{constU256(1), boolLit}}

	s.InferType(lit)
	require.Len(t, s.Errors, 1)
	assert.Contains(t, s.Errors[0].Message, "Array elements should have same type")
}

func TestInferTypeArrayIndexPeelsOneDimension(t *testing.T) {
	s := newTestState()
	s.PushScope()
	arrT := types.Array(types.Primitive(types.U256), 5)
	_, err := s.AddLocalVariable("arr", arrT, false, false, ast.Position{})
	require.NoError(t, err)

	idx := &ast.ArrayIndexExpr{Base: &ast.VarExpr{Name: "arr"}, Indexes: []ast.Expr{constU256(0)}}
	ts := s.InferType(idx)
	require.Len(t, ts, 1)
	assert.Equal(t, types.Primitive(types.U256), ts[0])
}

func TestInferTypeUndefinedVariableErrors(t *testing.T) {
	s := newTestState()
	s.PushScope()

	s.InferType(&ast.VarExpr{Name: "missing"})
	require.Len(t, s.Errors, 1)
	assert.Contains(t, s.Errors[0].Message, "missing does not exist")
}

func TestInferTypeComparisonIsAlwaysBool(t *testing.T) {
	s := newTestState()
	bin := &ast.BinaryExpr{Op: ast.Lt, Left: constU256(1), Right: constU256(2)}

	ts := s.InferType(bin)
	require.Len(t, ts, 1)
	assert.Equal(t, types.Bool, ts[0].Kind)
}

func TestCheckConditionTypeRejectsNonBool(t *testing.T) {
	s := newTestState()
	s.CheckConditionType(constU256(1))
	require.Len(t, s.Errors, 1)
	assert.Contains(t, s.Errors[0].Message, "Invalid type of condition expr")
}

func TestCheckConditionTypeAcceptsBool(t *testing.T) {
	s := newTestState()
	s.CheckConditionType(&ast.ConstExpr{Val: types.BoolVal(true)})
	assert.Empty(t, s.Errors)
}

func TestInferTypeI256LiteralType(t *testing.T) {
	s := newTestState()
	e := &ast.ConstExpr{Val: types.I256Val(big.NewInt(-5))}
	ts := s.InferType(e)
	require.Len(t, ts, 1)
	assert.Equal(t, types.I256, ts[0].Kind)
}

func TestInferTypeRejectsArithmeticOnBool(t *testing.T) {
	s := newTestState()
	boolLit := &ast.ConstExpr{Val: types.BoolVal(true)}
	bin := &ast.BinaryExpr{Op: ast.Add, Left: boolLit, Right: boolLit}

	s.InferType(bin)
	require.Len(t, s.Errors, 1)
	assert.Contains(t, s.Errors[0].Message, "Operator + is not defined for type Bool")
}

func TestInferTypeRejectsOrderingOnBool(t *testing.T) {
	s := newTestState()
	boolLit := &ast.ConstExpr{Val: types.BoolVal(true)}
	bin := &ast.BinaryExpr{Op: ast.Lt, Left: boolLit, Right: boolLit}

	s.InferType(bin)
	require.Len(t, s.Errors, 1)
	assert.Contains(t, s.Errors[0].Message, "Operator < is not defined for type Bool")
}

func TestInferTypeAcceptsArithmeticOnU256(t *testing.T) {
	s := newTestState()
	bin := &ast.BinaryExpr{Op: ast.Add, Left: constU256(1), Right: constU256(2)}

	ts := s.InferType(bin)
	require.Empty(t, s.Errors)
	require.Len(t, ts, 1)
	assert.Equal(t, types.U256, ts[0].Kind)
}

func TestInferTypeAcceptsBoolAndOr(t *testing.T) {
	s := newTestState()
	boolLit := &ast.ConstExpr{Val: types.BoolVal(true)}
	bin := &ast.BinaryExpr{Op: ast.And, Left: boolLit, Right: boolLit}

	ts := s.InferType(bin)
	require.Empty(t, s.Errors)
	require.Len(t, ts, 1)
	assert.Equal(t, types.Bool, ts[0].Kind)
}

func TestCheckFunctionTerminatesAcceptsTrailingReturn(t *testing.T) {
	s := newTestState()
	f := &ast.FuncDef{
		Name:    ast.UserFunc("f"),
		Returns: []types.Type{types.Primitive(types.U256)},
		Body:    []ast.Stmt{&ast.ReturnStmt{Values: []ast.Expr{constU256(1)}}},
	}
	s.CheckFunctionTerminates(f)
	assert.Empty(t, s.Errors)
}

func TestCheckFunctionTerminatesRejectsIfWithoutElse(t *testing.T) {
	s := newTestState()
	f := &ast.FuncDef{
		Name:    ast.UserFunc("bar"),
		Returns: []types.Type{types.Primitive(types.U256)},
		Body: []ast.Stmt{
			&ast.IfElseStmt{
				Cond: &ast.ConstExpr{Val: types.BoolVal(true)},
				Then: []ast.Stmt{&ast.ReturnStmt{Values: []ast.Expr{constU256(1)}}},
			},
		},
	}
	s.CheckFunctionTerminates(f)
	require.Len(t, s.Errors, 1)
	assert.Contains(t, s.Errors[0].Message, "Missing return for function: bar")
}

func TestCheckFunctionTerminatesAcceptsIfElseWhereEveryBranchTerminates(t *testing.T) {
	s := newTestState()
	f := &ast.FuncDef{
		Name:    ast.UserFunc("bar"),
		Returns: []types.Type{types.Primitive(types.U256)},
		Body: []ast.Stmt{
			&ast.IfElseStmt{
				Cond: &ast.ConstExpr{Val: types.BoolVal(true)},
				Then: []ast.Stmt{&ast.ReturnStmt{Values: []ast.Expr{constU256(1)}}},
				Else: []ast.Stmt{&ast.ReturnStmt{Values: []ast.Expr{constU256(2)}}},
			},
		},
	}
	s.CheckFunctionTerminates(f)
	assert.Empty(t, s.Errors)
}

func TestCheckFunctionTerminatesAcceptsPanicAsLastStatement(t *testing.T) {
	s := newTestState()
	f := &ast.FuncDef{
		Name:    ast.UserFunc("bar"),
		Returns: []types.Type{types.Primitive(types.U256)},
		Body: []ast.Stmt{
			&ast.InternalCallStmt{Call: &ast.InternalCallExpr{Func: ast.BuiltinFunc(ast.BuiltinPanic)}},
		},
	}
	s.CheckFunctionTerminates(f)
	assert.Empty(t, s.Errors)
}

func TestCheckFunctionTerminatesSkipsVoidFunctions(t *testing.T) {
	s := newTestState()
	f := &ast.FuncDef{Name: ast.UserFunc("f"), Body: []ast.Stmt{}}
	s.CheckFunctionTerminates(f)
	assert.Empty(t, s.Errors)
}
