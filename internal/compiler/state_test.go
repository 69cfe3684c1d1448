package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suyanlong/alephium/internal/ast"
	"github.com/suyanlong/alephium/internal/instr"
	"github.com/suyanlong/alephium/internal/types"
)

func newTestState() *State {
	unit := &ast.Contract{Name: "C"}
	contracts := map[ast.TypeId]*ContractInfo{"C": {Kind: types.KindContract, Funcs: map[ast.Ident]*ast.FuncDef{}}}
	return NewState(unit, contracts, DefaultConfig())
}

func TestAddLocalVariableAllocatesSlotsByFlattenedWidth(t *testing.T) {
	s := newTestState()
	s.PushScope()

	v1, err := s.AddLocalVariable("a", types.Primitive(types.U256), false, false, ast.Position{})
	require.NoError(t, err)
	assert.Equal(t, 0, v1.Index)

	arrT := types.Array(types.Primitive(types.U256), 3)
	v2, err := s.AddLocalVariable("b", arrT, true, false, ast.Position{})
	require.NoError(t, err)
	assert.Equal(t, 1, v2.Index)

	v3, err := s.AddLocalVariable("c", types.Primitive(types.Bool), false, false, ast.Position{})
	require.NoError(t, err)
	assert.Equal(t, 4, v3.Index)

	ref, ok := s.GetArrayRef("b")
	require.True(t, ok)
	assert.Equal(t, 3, ref.Len)
}

func TestAddVariableDuplicateNameErrors(t *testing.T) {
	s := newTestState()
	s.PushScope()
	_, err := s.AddLocalVariable("x", types.Primitive(types.Bool), false, false, ast.Position{})
	require.NoError(t, err)
	_, err = s.AddLocalVariable("x", types.Primitive(types.Bool), false, false, ast.Position{})
	require.Error(t, err)
}

func TestGenStoreCodeRejectsImmutableVariable(t *testing.T) {
	s := newTestState()
	s.PushScope()
	_, err := s.AddTemplateVariable("x", types.Primitive(types.U256), ast.Position{})
	require.NoError(t, err)

	_, err = s.GenStoreCode("x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Assign to immutable variable: x")
}

func TestGenStoreCodeReverseOrderForMultiCellVariable(t *testing.T) {
	s := newTestState()
	s.PushScope()
	arrT := types.Array(types.Primitive(types.U256), 2)
	_, err := s.AddLocalVariable("arr", arrT, true, false, ast.Position{})
	require.NoError(t, err)

	code, err := s.GenStoreCode("arr")
	require.NoError(t, err)
	require.Len(t, code, 2)
	assert.Equal(t, instr.NewStoreLocal(1), code[0])
	assert.Equal(t, instr.NewStoreLocal(0), code[1])
}

func TestGenLoadCodeEmitsOneCellPerFlattenedWidth(t *testing.T) {
	s := newTestState()
	s.PushScope()
	arrT := types.Array(types.Primitive(types.Bool), 3)
	_, err := s.AddLocalVariable("flags", arrT, false, false, ast.Position{})
	require.NoError(t, err)

	code, err := s.GenLoadCode("flags")
	require.NoError(t, err)
	require.Len(t, code, 3)
	assert.Equal(t, instr.NewLoadLocal(0), code[0])
	assert.Equal(t, instr.NewLoadLocal(1), code[1])
	assert.Equal(t, instr.NewLoadLocal(2), code[2])
}

func TestCheckUnusedLocalVarsWarnsOnceForUnreferencedBinding(t *testing.T) {
	s := newTestState()
	s.PushScope()
	_, err := s.AddLocalVariable("y", types.Primitive(types.U256), false, false, ast.Position{})
	require.NoError(t, err)

	s.CheckUnusedLocalVars()
	require.Len(t, s.Warnings(), 1)
	assert.Contains(t, s.Warnings()[0], "unused variable 'y'")

	// A second pass over the same scope must not duplicate the warning.
	s.CheckUnusedLocalVars()
	assert.Len(t, s.Warnings(), 1)
}

func TestCheckUnusedLocalVarsSkipsUsedAndMarkedUnused(t *testing.T) {
	s := newTestState()
	s.PushScope()
	_, err := s.AddLocalVariable("used", types.Primitive(types.U256), false, false, ast.Position{})
	require.NoError(t, err)
	_, err = s.AddLocalVariable("ignored", types.Primitive(types.U256), false, true, ast.Position{})
	require.NoError(t, err)

	_, ok := s.GetVariable("used")
	require.True(t, ok)

	s.CheckUnusedLocalVars()
	assert.Empty(t, s.Warnings())
}

func TestGenLoadIndexedCodeConstantOffset(t *testing.T) {
	s := newTestState()
	s.PushScope()
	arrT := types.Array(types.Primitive(types.U256), 4)
	_, err := s.AddLocalVariable("arr", arrT, false, false, ast.Position{})
	require.NoError(t, err)

	off := 2
	code, elemT, err := s.GenLoadIndexedCode("arr", []ast.Expr{&ast.ConstExpr{}}, &off, nil)
	require.NoError(t, err)
	assert.Equal(t, types.Primitive(types.U256), elemT)
	require.Len(t, code, 1)
	assert.Equal(t, instr.NewLoadLocal(2), code[0])
}
