package compiler

import (
	"github.com/holiman/uint256"

	"github.com/suyanlong/alephium/internal/ast"
	cerrors "github.com/suyanlong/alephium/internal/errors"
	"github.com/suyanlong/alephium/internal/instr"
	"github.com/suyanlong/alephium/internal/types"
)

const maxBranchInstrs = 255

// GenFunc emits the instruction stream for one function body, bottom
// up: every sub-expression leaves its flattened-length cells on the
// stack in declaration order.
func (s *State) GenFunc(f *ast.FuncDef) ([]instr.Instruction, error) {
	s.EnterFunc(f.Name)
	defer s.ExitFunc()

	for _, a := range f.Args {
		if _, err := s.AddLocalVariable(a.Name, a.Type, a.Mutable, a.Unused, ast.Position{}); err != nil {
			return nil, err
		}
	}

	var out []instr.Instruction
	for _, stmt := range f.Body {
		code, err := s.genStmt(stmt, f)
		if err != nil {
			return nil, err
		}
		out = append(out, code...)
	}
	s.CheckUnusedLocalVars()
	return out, nil
}

func (s *State) genBlock(stmts []ast.Stmt, f *ast.FuncDef) ([]instr.Instruction, error) {
	var out []instr.Instruction
	for _, stmt := range stmts {
		code, err := s.genStmt(stmt, f)
		if err != nil {
			return nil, err
		}
		out = append(out, code...)
	}
	return out, nil
}

// genExpr emits the code for an expression and returns its instructions.
func (s *State) genExpr(e ast.Expr) ([]instr.Instruction, error) {
	ts := s.InferType(e)

	switch n := e.(type) {
	case *ast.ConstExpr:
		return []instr.Instruction{n.Val.ToConstInstr()}, nil

	case *ast.ArrayLiteralExpr:
		var out []instr.Instruction
		for _, el := range n.Elems {
			code, err := s.genExpr(el)
			if err != nil {
				return nil, err
			}
			out = append(out, code...)
		}
		return out, nil

	case *ast.ArrayRepeatExpr:
		// The element's code is emitted once per repetition, so the
		// element expression is evaluated Count times at run time and
		// any side effect it has repeats Count times.
		elemCode, err := s.genExpr(n.Elem)
		if err != nil {
			return nil, err
		}
		var out []instr.Instruction
		for i := 0; i < n.Count; i++ {
			out = append(out, elemCode...)
		}
		return out, nil

	case *ast.ArrayIndexExpr:
		return s.genArrayIndex(n)

	case *ast.VarExpr:
		return s.GenLoadCode(n.Name)

	case *ast.EnumFieldExpr:
		name := ast.Ident(string(n.Enum) + "." + string(n.Field))
		return s.GenLoadCode(name)

	case *ast.UnaryExpr:
		return s.genUnary(n)

	case *ast.BinaryExpr:
		return s.genBinary(n, ts)

	case *ast.ContractConvExpr:
		code, err := s.genExpr(n.Operand)
		if err != nil {
			return nil, err
		}
		return append(code, instr.Simple(instr.ContractConv)), nil

	case *ast.InternalCallExpr:
		return s.genInternalCall(n)

	case *ast.ExternalCallExpr:
		return s.genExternalCall(n, ts)

	case *ast.ParenExpr:
		return s.genExpr(n.Inner)

	case *ast.IfElseExpr:
		return s.genIfElseExpr(n)

	case *ast.PlaceholderExpr:
		return nil, cerrors.LoopRangeTooLarge(n.Position).AsError()

	default:
		return nil, cerrors.InvalidContractIndex(e.Pos()).AsError()
	}
}

func (s *State) genArrayIndex(n *ast.ArrayIndexExpr) ([]instr.Instruction, error) {
	base, ok := n.Base.(*ast.VarExpr)
	if !ok {
		return nil, cerrors.InvalidArrayIndex("v", n.Position).AsError()
	}
	constIdx, allConst := evalConstIndexes(n.Indexes)
	if allConst {
		ref, err := s.GetOrCreateArrayRef(base.Name)
		if err != nil {
			return nil, err
		}
		off, err := flatOffset(ref.Base.Type, constIdx)
		if err != nil {
			return nil, err
		}
		code, _, err := s.GenLoadIndexedCode(base.Name, n.Indexes, &off, nil)
		return code, err
	}
	dyn, err := s.genDynOffset(n)
	if err != nil {
		return nil, err
	}
	code, _, err := s.GenLoadIndexedCode(base.Name, n.Indexes, nil, dyn)
	return code, err
}

// genDynOffset emits code computing the flat cell offset of an index
// sequence at runtime: each index contributes idx_k * (cells per
// element at dimension k), summed left to right.
func (s *State) genDynOffset(n *ast.ArrayIndexExpr) ([]instr.Instruction, error) {
	base := n.Base.(*ast.VarExpr)
	v, ok := s.GetVariable(base.Name)
	if !ok {
		return nil, cerrors.InvalidArrayIndex("v", n.Position).AsError()
	}
	var out []instr.Instruction
	cur := v.Type
	for i, idxExpr := range n.Indexes {
		if cur.Kind != types.FixedSizeArray {
			return nil, cerrors.InvalidArrayIndex("v", n.Position).AsError()
		}
		cellWidth := types.FlattenTypeLength([]types.Type{*cur.Elem})
		idxCode, err := s.genExpr(idxExpr)
		if err != nil {
			return nil, err
		}
		out = append(out, idxCode...)
		out = append(out, instr.NewU256Const(uint64(cellWidth)))
		out = append(out, instr.Simple(instr.U256Mul))
		if i > 0 {
			out = append(out, instr.Simple(instr.U256Add))
		}
		cur = *cur.Elem
	}
	return out, nil
}

func evalConstIndexes(indexes []ast.Expr) ([]int, bool) {
	out := make([]int, len(indexes))
	for i, e := range indexes {
		ce, ok := unwrapParen(e).(*ast.ConstExpr)
		if !ok || ce.Val.Kind != types.ValU256 {
			return nil, false
		}
		n, err := ce.Val.AsInt64()
		if err != nil {
			return nil, false
		}
		out[i] = int(n)
	}
	return out, true
}

func unwrapParen(e ast.Expr) ast.Expr {
	for {
		p, ok := e.(*ast.ParenExpr)
		if !ok {
			return e
		}
		e = p.Inner
	}
}

func flatOffset(arrT types.Type, indexes []int) (int, error) {
	off := 0
	cur := arrT
	for _, idx := range indexes {
		if cur.Kind != types.FixedSizeArray {
			return 0, cerrors.InvalidArrayIndex("v", ast.Position{}).AsError()
		}
		cellWidth := types.FlattenTypeLength([]types.Type{*cur.Elem})
		off += idx * cellWidth
		cur = *cur.Elem
	}
	return off, nil
}

func (s *State) genUnary(n *ast.UnaryExpr) ([]instr.Instruction, error) {
	code, err := s.genExpr(n.Operand)
	if err != nil {
		return nil, err
	}
	ts := s.InferType(n.Operand)
	if len(ts) != 1 {
		return nil, cerrors.InvalidCondition(n.Position).AsError()
	}
	switch n.Op {
	case ast.Neg:
		switch ts[0].Kind {
		case types.I256:
			return append(code, instr.Simple(instr.I256Neg)), nil
		default:
			return append(code, instr.NewU256Const(0), instr.Simple(instr.U256Sub)), nil
		}
	case ast.Not:
		return append(code, instr.Simple(instr.BoolNot)), nil
	}
	return code, nil
}

func (s *State) genBinary(n *ast.BinaryExpr, result []types.Type) ([]instr.Instruction, error) {
	lt := s.InferType(n.Left)
	left, err := s.genExpr(n.Left)
	if err != nil {
		return nil, err
	}
	right, err := s.genExpr(n.Right)
	if err != nil {
		return nil, err
	}
	out := append(append([]instr.Instruction{}, left...), right...)

	var opT types.Kind
	if len(lt) == 1 {
		opT = lt[0].Kind
	}
	op, err := binaryOpcode(n.Op, opT)
	if err != nil {
		return nil, err
	}
	return append(out, instr.Simple(op)), nil
}

func binaryOpcode(op ast.BinaryOp, kind types.Kind) (instr.Op, error) {
	isI256 := kind == types.I256
	switch op {
	case ast.Add:
		if isI256 {
			return instr.I256Add, nil
		}
		if kind == types.ByteVec {
			return instr.ByteVecConcat, nil
		}
		return instr.U256Add, nil
	case ast.Sub:
		if isI256 {
			return instr.I256Sub, nil
		}
		return instr.U256Sub, nil
	case ast.Mul:
		if isI256 {
			return instr.I256Mul, nil
		}
		return instr.U256Mul, nil
	case ast.Div:
		if isI256 {
			return instr.I256Div, nil
		}
		return instr.U256Div, nil
	case ast.Mod:
		if isI256 {
			return instr.I256Mod, nil
		}
		return instr.U256Mod, nil
	case ast.Eq:
		switch kind {
		case types.I256:
			return instr.I256Eq, nil
		case types.U256:
			return instr.U256Eq, nil
		case types.ByteVec:
			return instr.ByteVecEq, nil
		case types.Address:
			return instr.AddressEq, nil
		case types.Bool:
			return instr.BoolEq, nil
		}
	case ast.Neq:
		switch kind {
		case types.I256:
			return instr.I256Neq, nil
		case types.U256:
			return instr.U256Neq, nil
		case types.ByteVec:
			return instr.ByteVecNeq, nil
		case types.Address:
			return instr.AddressNeq, nil
		case types.Bool:
			return instr.BoolNeq, nil
		}
	case ast.Lt:
		if isI256 {
			return instr.I256Lt, nil
		}
		return instr.U256Lt, nil
	case ast.Le:
		if isI256 {
			return instr.I256Le, nil
		}
		return instr.U256Le, nil
	case ast.Gt:
		if isI256 {
			return instr.I256Gt, nil
		}
		return instr.U256Gt, nil
	case ast.Ge:
		if isI256 {
			return instr.I256Ge, nil
		}
		return instr.U256Ge, nil
	case ast.And:
		return instr.BoolAnd, nil
	case ast.Or:
		return instr.BoolOr, nil
	case ast.Concat:
		return instr.ByteVecConcat, nil
	}
	return 0, cerrors.InvalidCondition(ast.Position{}).AsError()
}

func (s *State) genApproveList(list *ast.ApproveList) ([]instr.Instruction, error) {
	if list == nil {
		return nil, nil
	}
	var out []instr.Instruction
	for _, ap := range list.Approvals {
		addrCode, err := s.genExpr(ap.Address)
		if err != nil {
			return nil, err
		}
		amountCode, err := s.genExpr(ap.Amount)
		if err != nil {
			return nil, err
		}
		out = append(out, addrCode...)
		if ap.TokenId != nil {
			tokCode, err := s.genExpr(ap.TokenId)
			if err != nil {
				return nil, err
			}
			out = append(out, tokCode...)
			out = append(out, amountCode...)
			out = append(out, instr.Simple(instr.ApproveToken))
		} else {
			out = append(out, amountCode...)
			out = append(out, instr.Simple(instr.ApproveAlph))
		}
	}
	return out, nil
}

func (s *State) genInternalCall(n *ast.InternalCallExpr) ([]instr.Instruction, error) {
	s.AddInternalCall(s.curFunc, n.Func)

	approveCode, err := s.genApproveList(n.Approve)
	if err != nil {
		return nil, err
	}
	var out []instr.Instruction
	out = append(out, approveCode...)
	for _, a := range n.Args {
		code, err := s.genExpr(a)
		if err != nil {
			return nil, err
		}
		out = append(out, code...)
	}

	if n.Func == ast.BuiltinFunc(ast.BuiltinCheckPermission) {
		return append(out, instr.Simple(instr.CheckPermission)), nil
	}
	if n.Func == ast.BuiltinFunc(ast.BuiltinPanic) {
		return append(out, instr.Simple(instr.Panic)), nil
	}

	info := s.Contracts[s.UnitName]
	idx, ok := info.FuncIndex(n.Func.Name)
	if !ok {
		return nil, cerrors.UndefinedName("function", string(n.Func.Name), n.Position, nil).AsError()
	}
	return append(out, instr.NewCallLocal(idx)), nil
}

func (s *State) genExternalCall(n *ast.ExternalCallExpr, result []types.Type) ([]instr.Instruction, error) {
	ct := s.InferType(n.Contract)
	if len(ct) != 1 || ct[0].Kind != types.Contract {
		return nil, cerrors.ExpectContractFor(string(n.Func.Name), "", n.Position).AsError()
	}
	calleeType := ast.TypeId(ct[0].TypeId)
	s.AddExternalCall(s.curFunc, calleeType, n.Func)

	info, ok := s.Contracts[calleeType]
	if !ok {
		return nil, cerrors.ContractDoesNotExist(string(calleeType), n.Position).AsError()
	}
	f, ok := info.Funcs[n.Func.Name]
	if !ok {
		return nil, cerrors.UndefinedName("function", string(n.Func.Name), n.Position, nil).AsError()
	}
	idx, ok := info.FuncIndex(n.Func.Name)
	if !ok {
		return nil, cerrors.UndefinedName("function", string(n.Func.Name), n.Position, nil).AsError()
	}

	approveCode, err := s.genApproveList(n.Approve)
	if err != nil {
		return nil, err
	}
	var out []instr.Instruction
	out = append(out, approveCode...)

	argTypes := make([]types.Type, len(f.Args))
	for i, a := range f.Args {
		argTypes[i] = a.Type
	}
	for _, a := range n.Args {
		code, err := s.genExpr(a)
		if err != nil {
			return nil, err
		}
		out = append(out, code...)
	}
	out = append(out, instr.NewU256Const(uint64(types.FlattenTypeLength(argTypes))))
	out = append(out, instr.NewU256Const(uint64(types.FlattenTypeLength(f.Returns))))

	contractCode, err := s.genExpr(n.Contract)
	if err != nil {
		return nil, err
	}
	out = append(out, contractCode...)
	out = append(out, instr.NewCallExternal(idx))
	return out, nil
}

// genIfElseExpr lowers a single-branch if/else expression: cond,
// IfFalse skip, then-value, Jump past else, else-value.
func (s *State) genIfElseExpr(n *ast.IfElseExpr) ([]instr.Instruction, error) {
	thenCode, err := s.genExpr(n.Then)
	if err != nil {
		return nil, err
	}
	elseCode, err := s.genExpr(n.Else)
	if err != nil {
		return nil, err
	}
	return s.assembleIfElse(n.Cond, thenCode, elseCode)
}

// assembleIfElse wires together a condition and two already-generated
// branch bodies, laying out the else branch first so the if branch's
// Jump/IfFalse offsets can be computed from its length.
func (s *State) assembleIfElse(cond ast.Expr, thenCode, elseCode []instr.Instruction) ([]instr.Instruction, error) {
	if len(thenCode) > maxBranchInstrs || len(elseCode) > maxBranchInstrs {
		return nil, cerrors.TooManyBranchInstructions(cond.Pos()).AsError()
	}

	condCode, skipOp, err := s.genCondition(cond)
	if err != nil {
		return nil, err
	}

	full := append(append([]instr.Instruction{}, thenCode...), instr.NewJump(int16(len(elseCode))))
	if len(full) > maxBranchInstrs+1 {
		return nil, cerrors.TooManyBranchInstructions(cond.Pos()).AsError()
	}

	var out []instr.Instruction
	out = append(out, condCode...)
	out = append(out, skipOp(int16(len(full))))
	out = append(out, full...)
	out = append(out, elseCode...)
	return out, nil
}

// genCondition emits a condition's code, applying the Not-unary
// peephole inversion: `if !x {..} else {..}` emits x's code with the
// skip-opcode flipped to IfTrue instead of negating and using IfFalse.
func (s *State) genCondition(cond ast.Expr) ([]instr.Instruction, func(int16) instr.Instruction, error) {
	if u, ok := unwrapParen(cond).(*ast.UnaryExpr); ok && u.Op == ast.Not {
		code, err := s.genExpr(u.Operand)
		if err != nil {
			return nil, nil, err
		}
		return code, instr.NewIfTrue, nil
	}
	code, err := s.genExpr(cond)
	if err != nil {
		return nil, nil, err
	}
	return code, instr.NewIfFalse, nil
}

func (s *State) genIfElseStmt(n *ast.IfElseStmt, f *ast.FuncDef) ([]instr.Instruction, error) {
	elseCode, err := s.genBlock(n.Else, f)
	if err != nil {
		return nil, err
	}
	for i := len(n.ElseIfs) - 1; i >= 0; i-- {
		body, err := s.genBlock(n.ElseIfs[i].Body, f)
		if err != nil {
			return nil, err
		}
		elseCode, err = s.assembleIfElse(n.ElseIfs[i].Cond, body, elseCode)
		if err != nil {
			return nil, err
		}
	}
	thenCode, err := s.genBlock(n.Then, f)
	if err != nil {
		return nil, err
	}
	return s.assembleIfElse(n.Cond, thenCode, elseCode)
}

func (s *State) genWhileStmt(n *ast.WhileStmt, f *ast.FuncDef) ([]instr.Instruction, error) {
	body, err := s.genBlock(n.Body, f)
	if err != nil {
		return nil, err
	}
	if len(body) > maxBranchInstrs {
		return nil, cerrors.TooManyBranchInstructions(n.Position).AsError()
	}
	condCode, skipOp, err := s.genCondition(n.Cond)
	if err != nil {
		return nil, err
	}
	jumpBack := instr.NewJump(-int16(len(condCode) + len(body) + 2))
	var out []instr.Instruction
	out = append(out, condCode...)
	out = append(out, skipOp(int16(len(body)+1)))
	out = append(out, body...)
	out = append(out, jumpBack)
	return out, nil
}

func (s *State) genForStmt(n *ast.ForStmt, f *ast.FuncDef) ([]instr.Instruction, error) {
	s.PushScope()
	defer s.PopScope()

	var out []instr.Instruction
	if n.Init != nil {
		initCode, err := s.genStmt(n.Init, f)
		if err != nil {
			return nil, err
		}
		out = append(out, initCode...)
	}
	body, err := s.genBlock(n.Body, f)
	if err != nil {
		return nil, err
	}
	if n.Update != nil {
		updCode, err := s.genStmt(n.Update, f)
		if err != nil {
			return nil, err
		}
		body = append(body, updCode...)
	}
	if len(body) > maxBranchInstrs {
		return nil, cerrors.TooManyBranchInstructions(n.Position).AsError()
	}
	condCode, skipOp, err := s.genCondition(n.Cond)
	if err != nil {
		return nil, err
	}
	jumpBack := instr.NewJump(-int16(len(condCode) + len(body) + 2))
	out = append(out, condCode...)
	out = append(out, skipOp(int16(len(body)+1)))
	out = append(out, body...)
	out = append(out, jumpBack)
	return out, nil
}

// genLoopStmt unrolls `loop(from, to, step, body)` into n copies of the
// body with every `?` replaced by the iteration's constant.
func (s *State) genLoopStmt(n *ast.LoopStmt, f *ast.FuncDef) ([]instr.Instruction, error) {
	if n.Step == 0 {
		return nil, cerrors.LoopRangeTooLarge(n.Position).AsError()
	}
	count := iterationCount(n.From, n.To, n.Step)
	if count < 0 || count > s.Config.LoopUnrollingLimit {
		return nil, cerrors.LoopRangeTooLarge(n.Position).AsError()
	}

	var out []instr.Instruction
	for i := 0; i < count; i++ {
		val := n.From + int64(i)*n.Step
		body := substitutePlaceholder(n.Body, uint64(val))
		code, err := s.genStmt(body, f)
		if err != nil {
			return nil, err
		}
		out = append(out, code...)
	}
	return out, nil
}

func iterationCount(from, to, step int64) int {
	if step > 0 {
		if to <= from {
			return 0
		}
		return int((to - from + step - 1) / step)
	}
	if to >= from {
		return 0
	}
	return int((from - to + (-step) - 1) / (-step))
}

func (s *State) genStmt(stmt ast.Stmt, f *ast.FuncDef) ([]instr.Instruction, error) {
	switch n := stmt.(type) {
	case *ast.VarDefStmt:
		return s.genVarDef(n)
	case *ast.AssignStmt:
		return s.genAssign(n)
	case *ast.InternalCallStmt:
		code, err := s.genInternalCall(n.Call)
		if err != nil {
			return nil, err
		}
		retLen := types.FlattenTypeLength(s.InferType(n.Call))
		for i := 0; i < retLen; i++ {
			code = append(code, instr.Simple(instr.Pop))
		}
		return code, nil
	case *ast.ExternalCallStmt:
		ts := s.InferType(n.Call)
		code, err := s.genExternalCall(n.Call, ts)
		if err != nil {
			return nil, err
		}
		for i := 0; i < types.FlattenTypeLength(ts); i++ {
			code = append(code, instr.Simple(instr.Pop))
		}
		return code, nil
	case *ast.IfElseStmt:
		return s.genIfElseStmt(n, f)
	case *ast.WhileStmt:
		return s.genWhileStmt(n, f)
	case *ast.ForStmt:
		return s.genForStmt(n, f)
	case *ast.LoopStmt:
		return s.genLoopStmt(n, f)
	case *ast.ReturnStmt:
		return s.genReturn(n, f)
	case *ast.EmitStmt:
		return s.genEmit(n)
	default:
		return nil, cerrors.InvalidContractIndex(stmt.Pos()).AsError()
	}
}

// genVarDef evaluates the RHS then stores each target in reverse order,
// so the stack top (the last target's value) is stored first.
func (s *State) genVarDef(n *ast.VarDefStmt) ([]instr.Instruction, error) {
	rhsTypes := s.InferType(n.Rhs)
	rhsCode, err := s.genExpr(n.Rhs)
	if err != nil {
		return nil, err
	}
	if len(rhsTypes) != len(n.Targets) {
		return nil, cerrors.TypeMismatch("rhs", "targets", n.Position).AsError()
	}

	out := append([]instr.Instruction{}, rhsCode...)
	for i := len(n.Targets) - 1; i >= 0; i-- {
		t := n.Targets[i]
		ty := rhsTypes[i]
		if t.Discard {
			for c := 0; c < types.FlattenTypeLength([]types.Type{ty}); c++ {
				out = append(out, instr.Simple(instr.Pop))
			}
			continue
		}
		if _, err := s.AddLocalVariable(t.Name, ty, t.Mutable, false, n.Position); err != nil {
			return nil, err
		}
		storeCode, err := s.GenStoreCode(t.Name)
		if err != nil {
			return nil, err
		}
		out = append(out, storeCode...)
	}
	return out, nil
}

// genAssign evaluates the RHS then stores each target in reverse order,
// rejecting any target that is not a mutable variable.
func (s *State) genAssign(n *ast.AssignStmt) ([]instr.Instruction, error) {
	rhsTypes := s.InferType(n.Rhs)
	rhsCode, err := s.genExpr(n.Rhs)
	if err != nil {
		return nil, err
	}
	if len(rhsTypes) != len(n.Targets) {
		return nil, cerrors.TypeMismatch("rhs", "targets", n.Position).AsError()
	}

	out := append([]instr.Instruction{}, rhsCode...)
	for i := len(n.Targets) - 1; i >= 0; i-- {
		t := n.Targets[i]
		v, ok := s.GetVariable(t.Name)
		if !ok {
			return nil, cerrors.UndefinedName("variable", string(t.Name), n.Position, nil).AsError()
		}
		if !v.Mutable {
			return nil, cerrors.AssignToImmutable(string(t.Name), n.Position).AsError()
		}
		if len(t.Indexes) == 0 {
			storeCode, err := s.GenStoreCode(t.Name)
			if err != nil {
				return nil, err
			}
			out = append(out, storeCode...)
			continue
		}
		storeCode, err := s.genIndexedStore(t)
		if err != nil {
			return nil, err
		}
		out = append(out, storeCode...)
	}
	return out, nil
}

func (s *State) genIndexedStore(t ast.AssignTarget) ([]instr.Instruction, error) {
	ref, err := s.GetOrCreateArrayRef(t.Name)
	if err != nil {
		return nil, err
	}
	v, _ := s.GetVariable(t.Name)
	constIdx, allConst := evalConstIndexes(t.Indexes)
	if allConst {
		off, err := flatOffset(ref.Base.Type, constIdx)
		if err != nil {
			return nil, err
		}
		elemT, err := types.ElementType(ref.Base.Type, len(constIdx))
		if err != nil {
			return nil, err
		}
		n := types.FlattenTypeLength([]types.Type{elemT})
		var out []instr.Instruction
		for i := n - 1; i >= 0; i-- {
			if v.Class == StorageField {
				out = append(out, instr.NewStoreField(v.Index+off+i))
			} else {
				out = append(out, instr.NewStoreLocal(v.Index+off+i))
			}
		}
		return out, nil
	}
	indexExprs := make([]ast.Expr, len(t.Indexes))
	copy(indexExprs, t.Indexes)
	dyn, err := s.genDynOffset(&ast.ArrayIndexExpr{Base: &ast.VarExpr{Name: t.Name}, Indexes: indexExprs})
	if err != nil {
		return nil, err
	}
	baseOp := instr.StoreLocalBase
	if v.Class == StorageField {
		baseOp = instr.StoreFieldBase
	}
	var out []instr.Instruction
	out = append(out, dyn...)
	out = append(out, instr.Instruction{Op: baseOp, Index: v.Index})
	out = append(out, instr.Simple(instr.ArrayDynOffset))
	return out, nil
}

func (s *State) genReturn(n *ast.ReturnStmt, f *ast.FuncDef) ([]instr.Instruction, error) {
	var out []instr.Instruction
	var gotTypes []types.Type
	for _, v := range n.Values {
		code, err := s.genExpr(v)
		if err != nil {
			return nil, err
		}
		out = append(out, code...)
		gotTypes = append(gotTypes, s.InferType(v)...)
	}
	if !s.CheckReturn(f.Returns, gotTypes) {
		return nil, cerrors.TypeMismatch("return value", "declared return type", n.Position).AsError()
	}
	return append(out, instr.Simple(instr.Return)), nil
}

func (s *State) genEmit(n *ast.EmitStmt) ([]instr.Instruction, error) {
	idx := s.RegisterEvent(n.Event)
	var out []instr.Instruction
	out = append(out, instr.NewU256Const(uint64(idx)))
	argCount := 0
	for _, a := range n.Args {
		ts := s.InferType(a)
		for _, t := range ts {
			if t.Kind == types.FixedSizeArray {
				return nil, cerrors.ArrayTypeNotSupportedForEvent(string(n.Event), n.Position).AsError()
			}
		}
		code, err := s.genExpr(a)
		if err != nil {
			return nil, err
		}
		out = append(out, code...)
		argCount += types.FlattenTypeLength(ts)
	}
	logOp, err := instr.NewLog(argCount)
	if err != nil {
		return nil, cerrors.TooManyBranchInstructions(n.Position).AsError()
	}
	return append(out, logOp), nil
}

// substitutePlaceholder returns a deep copy of stmt with every `?`
// (PlaceholderExpr) replaced by a constant U256 literal holding val.
// Copying is required because every unrolled iteration gets its own
// AST nodes: the memoised-type slot is write-once, and iterations may
// legitimately infer different types if the placeholder feeds a
// context-dependent position (it never does today, but cloning keeps
// the invariant honest regardless).
func substitutePlaceholder(stmt ast.Stmt, val uint64) ast.Stmt {
	u256 := uint256.NewInt(val)
	repl := func(e ast.Expr) ast.Expr { return cloneExprSub(e, u256) }
	return cloneStmtSub(stmt, repl)
}

func cloneExprSub(e ast.Expr, val *uint256.Int) ast.Expr {
	if e == nil {
		return nil
	}
	switch n := e.(type) {
	case *ast.PlaceholderExpr:
		return &ast.ConstExpr{Position: n.Position, Val: types.U256Val(val)}
	case *ast.ConstExpr:
		return &ast.ConstExpr{Position: n.Position, Val: n.Val}
	case *ast.ArrayLiteralExpr:
		elems := make([]ast.Expr, len(n.Elems))
		for i, el := range n.Elems {
			elems[i] = cloneExprSub(el, val)
		}
		return &ast.ArrayLiteralExpr{Position: n.Position, Elems: elems}
	case *ast.ArrayRepeatExpr:
		return &ast.ArrayRepeatExpr{Position: n.Position, Elem: cloneExprSub(n.Elem, val), Count: n.Count}
	case *ast.ArrayIndexExpr:
		idx := make([]ast.Expr, len(n.Indexes))
		for i, ix := range n.Indexes {
			idx[i] = cloneExprSub(ix, val)
		}
		return &ast.ArrayIndexExpr{Position: n.Position, Base: cloneExprSub(n.Base, val), Indexes: idx}
	case *ast.VarExpr:
		return &ast.VarExpr{Position: n.Position, Name: n.Name}
	case *ast.EnumFieldExpr:
		return &ast.EnumFieldExpr{Position: n.Position, Enum: n.Enum, Field: n.Field}
	case *ast.UnaryExpr:
		return &ast.UnaryExpr{Position: n.Position, Op: n.Op, Operand: cloneExprSub(n.Operand, val)}
	case *ast.BinaryExpr:
		return &ast.BinaryExpr{Position: n.Position, Op: n.Op, Left: cloneExprSub(n.Left, val), Right: cloneExprSub(n.Right, val)}
	case *ast.ContractConvExpr:
		return &ast.ContractConvExpr{Position: n.Position, TypeId: n.TypeId, Operand: cloneExprSub(n.Operand, val)}
	case *ast.InternalCallExpr:
		args := make([]ast.Expr, len(n.Args))
		for i, a := range n.Args {
			args[i] = cloneExprSub(a, val)
		}
		return &ast.InternalCallExpr{Position: n.Position, Func: n.Func, Args: args, Approve: n.Approve}
	case *ast.ExternalCallExpr:
		args := make([]ast.Expr, len(n.Args))
		for i, a := range n.Args {
			args[i] = cloneExprSub(a, val)
		}
		return &ast.ExternalCallExpr{Position: n.Position, Contract: cloneExprSub(n.Contract, val), Func: n.Func, Args: args, Approve: n.Approve}
	case *ast.ParenExpr:
		return &ast.ParenExpr{Position: n.Position, Inner: cloneExprSub(n.Inner, val)}
	case *ast.IfElseExpr:
		return &ast.IfElseExpr{Position: n.Position, Cond: cloneExprSub(n.Cond, val), Then: cloneExprSub(n.Then, val), Else: cloneExprSub(n.Else, val)}
	default:
		return e
	}
}

func cloneStmtSub(stmt ast.Stmt, repl func(ast.Expr) ast.Expr) ast.Stmt {
	if stmt == nil {
		return nil
	}
	switch n := stmt.(type) {
	case *ast.AssignStmt:
		targets := make([]ast.AssignTarget, len(n.Targets))
		for i, t := range n.Targets {
			idx := make([]ast.Expr, len(t.Indexes))
			for j, ix := range t.Indexes {
				idx[j] = repl(ix)
			}
			targets[i] = ast.AssignTarget{Name: t.Name, Indexes: idx}
		}
		return &ast.AssignStmt{Position: n.Position, Targets: targets, Rhs: repl(n.Rhs)}
	case *ast.InternalCallStmt:
		return &ast.InternalCallStmt{Position: n.Position, Call: repl(n.Call).(*ast.InternalCallExpr)}
	case *ast.ExternalCallStmt:
		return &ast.ExternalCallStmt{Position: n.Position, Call: repl(n.Call).(*ast.ExternalCallExpr)}
	case *ast.IfElseStmt:
		then := make([]ast.Stmt, len(n.Then))
		for i, st := range n.Then {
			then[i] = cloneStmtSub(st, repl)
		}
		elseIfs := make([]ast.ElseIf, len(n.ElseIfs))
		for i, ei := range n.ElseIfs {
			body := make([]ast.Stmt, len(ei.Body))
			for j, st := range ei.Body {
				body[j] = cloneStmtSub(st, repl)
			}
			elseIfs[i] = ast.ElseIf{Cond: repl(ei.Cond), Body: body}
		}
		var elseBody []ast.Stmt
		if n.Else != nil {
			elseBody = make([]ast.Stmt, len(n.Else))
			for i, st := range n.Else {
				elseBody[i] = cloneStmtSub(st, repl)
			}
		}
		return &ast.IfElseStmt{Position: n.Position, Cond: repl(n.Cond), Then: then, ElseIfs: elseIfs, Else: elseBody}
	case *ast.WhileStmt:
		body := make([]ast.Stmt, len(n.Body))
		for i, st := range n.Body {
			body[i] = cloneStmtSub(st, repl)
		}
		return &ast.WhileStmt{Position: n.Position, Cond: repl(n.Cond), Body: body}
	case *ast.ForStmt:
		body := make([]ast.Stmt, len(n.Body))
		for i, st := range n.Body {
			body[i] = cloneStmtSub(st, repl)
		}
		return &ast.ForStmt{Position: n.Position, Init: cloneStmtSub(n.Init, repl), Cond: repl(n.Cond), Update: cloneStmtSub(n.Update, repl), Body: body}
	case *ast.EmitStmt:
		args := make([]ast.Expr, len(n.Args))
		for i, a := range n.Args {
			args[i] = repl(a)
		}
		return &ast.EmitStmt{Position: n.Position, Event: n.Event, Args: args}
	case *ast.LoopStmt:
		return &ast.LoopStmt{Position: n.Position, From: n.From, To: n.To, Step: n.Step, Body: cloneStmtSub(n.Body, repl)}
	default:
		return n
	}
}
