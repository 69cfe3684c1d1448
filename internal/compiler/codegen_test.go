package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suyanlong/alephium/internal/ast"
	"github.com/suyanlong/alephium/internal/instr"
	"github.com/suyanlong/alephium/internal/types"
)

func TestGenExprConstExprEmitsSingleConst(t *testing.T) {
	s := newTestState()
	code, err := s.genExpr(constU256(7))
	require.NoError(t, err)
	require.Len(t, code, 1)
	assert.Equal(t, instr.NewU256Const(7), code[0])
}

func TestGenExprBinaryAddEmitsOperandsThenOp(t *testing.T) {
	s := newTestState()
	bin := &ast.BinaryExpr{Op: ast.Add, Left: constU256(1), Right: constU256(2)}
	code, err := s.genExpr(bin)
	require.NoError(t, err)
	require.Len(t, code, 3)
	assert.Equal(t, instr.NewU256Const(1), code[0])
	assert.Equal(t, instr.NewU256Const(2), code[1])
	assert.Equal(t, instr.Simple(instr.U256Add), code[2])
}

func TestGenExprArrayLiteralFlattensEveryElement(t *testing.T) {
	s := newTestState()
	lit := &ast.ArrayLiteralExpr{Elems: []ast.Expr{constU256(1), constU256(2), constU256(3)}}
	code, err := s.genExpr(lit)
	require.NoError(t, err)
	require.Len(t, code, 3)
}

func TestGenExprArrayRepeatEmitsElementPerRepetition(t *testing.T) {
	s := newTestState()
	rep := &ast.ArrayRepeatExpr{Elem: constU256(9), Count: 4}
	code, err := s.genExpr(rep)
	require.NoError(t, err)
	require.Len(t, code, 4)
	for _, c := range code {
		assert.Equal(t, instr.NewU256Const(9), c)
	}
}

func TestGenIfElseExprBackToFrontOffsets(t *testing.T) {
	s := newTestState()
	ifExpr := &ast.IfElseExpr{
		Cond: &ast.ConstExpr{Val: types.BoolVal(true)},
		Then: constU256(1),
		Else: constU256(2),
	}
	code, err := s.genExpr(ifExpr)
	require.NoError(t, err)

	// cond, IfFalse(skip-to-else), then..., Jump(skip-else), else...
	require.Len(t, code, 5)
	assert.Equal(t, instr.NewBoolConst(true), code[0])
	assert.Equal(t, instr.NewIfFalse(2), code[1])
	assert.Equal(t, instr.NewU256Const(1), code[2])
	assert.Equal(t, instr.NewJump(1), code[3])
	assert.Equal(t, instr.NewU256Const(2), code[4])
}

func TestGenConditionAppliesNotPeephole(t *testing.T) {
	s := newTestState()
	notExpr := &ast.UnaryExpr{Op: ast.Not, Operand: &ast.ConstExpr{Val: types.BoolVal(true)}}
	ifExpr := &ast.IfElseExpr{Cond: notExpr, Then: constU256(1), Else: constU256(2)}

	code, err := s.genExpr(ifExpr)
	require.NoError(t, err)
	// The inner operand's code is emitted directly, paired with IfTrue
	// instead of negating and using IfFalse.
	assert.Equal(t, instr.NewBoolConst(true), code[0])
	assert.Equal(t, instr.NewIfTrue(2), code[1])
}

func TestGenWhileStmtJumpBackOffset(t *testing.T) {
	s := newTestState()
	f := &ast.FuncDef{}
	whileStmt := &ast.WhileStmt{
		Cond: &ast.ConstExpr{Val: types.BoolVal(true)},
		Body: []ast.Stmt{&ast.EmitStmt{Event: "E"}},
	}
	code, err := s.genWhileStmt(whileStmt, f)
	require.NoError(t, err)

	last := code[len(code)-1]
	require.Equal(t, instr.Jump, last.Op)
	// condCode(1) + skip(1) + body(2: U256Const idx + Log0) + jumpback(1)
	assert.Equal(t, -int16(len(code)), last.Offset)
}

func TestIterationCountCoversForwardAndBackwardRanges(t *testing.T) {
	assert.Equal(t, 3, iterationCount(0, 3, 1))
	assert.Equal(t, 0, iterationCount(3, 3, 1))
	assert.Equal(t, 2, iterationCount(0, 3, 2))
	assert.Equal(t, 3, iterationCount(3, 0, -1))
}

func TestGenLoopStmtRejectsOversizedRange(t *testing.T) {
	s := newTestState()
	s.Config.LoopUnrollingLimit = 2
	f := &ast.FuncDef{}
	loop := &ast.LoopStmt{
		From: 0, To: 5, Step: 1,
		Body: &ast.EmitStmt{Event: "E"},
	}
	_, err := s.genLoopStmt(loop, f)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loop range too large")
}

func TestGenLoopStmtSubstitutesPlaceholderPerIteration(t *testing.T) {
	s := newTestState()
	f := &ast.FuncDef{}
	loop := &ast.LoopStmt{
		From: 0, To: 3, Step: 1,
		Body: &ast.EmitStmt{Event: "E", Args: []ast.Expr{&ast.PlaceholderExpr{}}},
	}
	code, err := s.genLoopStmt(loop, f)
	require.NoError(t, err)

	var consts []instr.Instruction
	for _, c := range code {
		if c.Op == instr.U256Const1 || c.Op == instr.U256Const2 || c.Op == instr.U256Const0 {
			consts = append(consts, c)
		}
	}
	// 3 iterations, each emitting the event index const (0) and the
	// substituted placeholder const (0, 1, 2).
	require.Len(t, consts, 6)
}

func TestGenAssignRejectsImmutableTarget(t *testing.T) {
	s := newTestState()
	s.PushScope()
	_, err := s.AddLocalVariable("x", types.Primitive(types.U256), false, false, ast.Position{})
	require.NoError(t, err)

	assign := &ast.AssignStmt{Targets: []ast.AssignTarget{{Name: "x"}}, Rhs: constU256(5)}
	_, err = s.genAssign(assign)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Assign to immutable variable: x")
}

func TestGenAssignAcceptsMutableTarget(t *testing.T) {
	s := newTestState()
	s.PushScope()
	_, err := s.AddLocalVariable("x", types.Primitive(types.U256), true, false, ast.Position{})
	require.NoError(t, err)

	assign := &ast.AssignStmt{Targets: []ast.AssignTarget{{Name: "x"}}, Rhs: constU256(5)}
	code, err := s.genAssign(assign)
	require.NoError(t, err)
	require.Len(t, code, 2)
	assert.Equal(t, instr.NewU256Const(5), code[0])
	assert.Equal(t, instr.NewStoreLocal(0), code[1])
}

func TestGenReturnRejectsTypeMismatch(t *testing.T) {
	s := newTestState()
	f := &ast.FuncDef{Returns: []types.Type{types.Primitive(types.Bool)}}
	ret := &ast.ReturnStmt{Values: []ast.Expr{constU256(1)}}
	_, err := s.genReturn(ret, f)
	require.Error(t, err)
}

func TestGenEmitRejectsArrayArgument(t *testing.T) {
	s := newTestState()
	arrLit := &ast.ArrayLiteralExpr{Elems: []ast.Expr{constU256(1), constU256(2)}}
	emit := &ast.EmitStmt{Event: "E", Args: []ast.Expr{arrLit}}
	_, err := s.genEmit(emit)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Array type not supported for event E")
}

func TestAssembleIfElseRejectsOversizedBranch(t *testing.T) {
	s := newTestState()
	oversized := make([]instr.Instruction, maxBranchInstrs+1)
	for i := range oversized {
		oversized[i] = instr.Simple(instr.Dup)
	}
	_, err := s.assembleIfElse(&ast.ConstExpr{Val: types.BoolVal(true)}, oversized, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Too many instrs for if-else branches")
}
