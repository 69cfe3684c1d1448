package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suyanlong/alephium/internal/ast"
	"github.com/suyanlong/alephium/internal/instr"
	"github.com/suyanlong/alephium/internal/types"
)

func TestCompileAssetScriptArithmetic(t *testing.T) {
	fn := &ast.FuncDef{
		Name:    ast.UserFunc("main"),
		Public:  true,
		Returns: []types.Type{types.Primitive(types.U256)},
		Body: []ast.Stmt{
			&ast.ReturnStmt{Values: []ast.Expr{
				&ast.BinaryExpr{Op: ast.Add, Left: constU256(1), Right: constU256(2)},
			}},
		},
	}
	script := &ast.AssetScript{Name: "Script", Funcs: []*ast.FuncDef{fn}}
	mc := &ast.MultiContract{Units: []ast.Unit{script}}

	result, errs := Compile(mc, DefaultConfig(), 0)
	require.Empty(t, errs)
	require.NotNil(t, result.Output.Stateless)
	require.Len(t, result.Output.Stateless.Methods, 1)

	m := result.Output.Stateless.Methods[0]
	assert.True(t, m.IsPublic)
	assert.Equal(t, 0, m.ArgsLength)
	assert.Equal(t, 1, m.ReturnLength)
	require.Len(t, m.Instrs, 4)
	assert.Equal(t, instr.NewU256Const(1), m.Instrs[0])
	assert.Equal(t, instr.NewU256Const(2), m.Instrs[1])
	assert.Equal(t, instr.Simple(instr.U256Add), m.Instrs[2])
	assert.Equal(t, instr.Simple(instr.Return), m.Instrs[3])
}

func TestCompileRejectsOutOfRangeTargetIndex(t *testing.T) {
	mc := &ast.MultiContract{Units: []ast.Unit{&ast.AssetScript{Name: "S"}}}
	_, errs := Compile(mc, DefaultConfig(), 5)
	require.Len(t, errs, 1)
	assert.Equal(t, "Invalid contract index", errs[0].Message)
}

func TestCompileStatefulContractComputesFieldLength(t *testing.T) {
	fn := &ast.FuncDef{
		Name:   ast.UserFunc("get"),
		Public: true,
		Returns: []types.Type{types.Primitive(types.U256)},
		Body: []ast.Stmt{
			&ast.ReturnStmt{Values: []ast.Expr{&ast.VarExpr{Name: "balance"}}},
		},
	}
	c := &ast.Contract{
		Name:   "Account",
		Fields: []ast.Argument{{Name: "balance", Type: types.Primitive(types.U256)}},
		Funcs:  []*ast.FuncDef{fn},
	}
	mc := &ast.MultiContract{Units: []ast.Unit{c}}

	result, errs := Compile(mc, DefaultConfig(), 0)
	require.Empty(t, errs)
	require.NotNil(t, result.Output.Contract)
	assert.Equal(t, 1, result.Output.Contract.FieldLength)
	require.Len(t, result.Output.Contract.Methods, 1)
}

func TestCompileTxScriptRejectsNonLeadingPublicMethod(t *testing.T) {
	pub1 := &ast.FuncDef{Name: ast.UserFunc("a"), Public: false, Body: []ast.Stmt{}}
	pub2 := &ast.FuncDef{Name: ast.UserFunc("b"), Public: true, Body: []ast.Stmt{}}
	script := &ast.TxScript{Name: "TX", Funcs: []*ast.FuncDef{pub1, pub2}}
	mc := &ast.MultiContract{Units: []ast.Unit{script}}

	_, errs := Compile(mc, DefaultConfig(), 0)
	require.NotEmpty(t, errs)
}

func TestCompileRejectsFunctionMissingReturnOnSomePath(t *testing.T) {
	fn := &ast.FuncDef{
		Name:    ast.UserFunc("bar"),
		Public:  true,
		Args:    []ast.Argument{{Name: "a", Type: types.Primitive(types.U256)}},
		Returns: []types.Type{types.Primitive(types.U256)},
		Body: []ast.Stmt{
			&ast.IfElseStmt{
				Cond: &ast.BinaryExpr{Op: ast.Gt, Left: &ast.VarExpr{Name: "a"}, Right: constU256(0)},
				Then: []ast.Stmt{&ast.ReturnStmt{Values: []ast.Expr{&ast.VarExpr{Name: "a"}}}},
			},
		},
	}
	script := &ast.AssetScript{Name: "Script", Funcs: []*ast.FuncDef{fn}}
	mc := &ast.MultiContract{Units: []ast.Unit{script}}

	_, errs := Compile(mc, DefaultConfig(), 0)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, "Missing return for function: bar")
}

func TestCompileReportsCyclicInheritanceBeforeCodegen(t *testing.T) {
	a := &ast.Contract{Name: "A", Abstract: true, Inherits: []ast.ContractInheritance{{Parent: "B"}}}
	b := &ast.Contract{Name: "B", Abstract: true, Inherits: []ast.ContractInheritance{{Parent: "A"}}}
	mc := &ast.MultiContract{Units: []ast.Unit{a, b}}

	_, errs := Compile(mc, DefaultConfig(), 0)
	require.NotEmpty(t, errs)
}
