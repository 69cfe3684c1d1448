// Package instr defines the flat instruction set the compiler emits
// and the VM is assumed to execute. The compiler is a pure producer of
// this stream; nothing in this package executes it.
package instr

import (
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
)

// Op enumerates the opcodes the VM accepts, per the instruction-set
// contract. Grouped the way the VM groups them: constants, arithmetic,
// boolean, locals/fields, stack shuffling, control flow, calls, asset
// ops, and logging.
type Op int

const (
	// Constants.
	U256Const0 Op = iota
	U256Const1
	U256Const2
	U256Const3
	U256Const4
	U256Const5
	U256Const // operand: U256Val
	I256Const // operand: I256Val
	BoolConst // operand: BoolVal
	BytesConst
	AddressConst

	// Arithmetic (I256/U256).
	I256Add
	I256Sub
	I256Mul
	I256Div
	I256Mod
	I256Eq
	I256Neq
	I256Lt
	I256Le
	I256Gt
	I256Ge
	I256Neg
	U256Add
	U256Sub
	U256Mul
	U256Div
	U256Mod
	U256Eq
	U256Neq
	U256Lt
	U256Le
	U256Gt
	U256Ge

	// ByteVec / Address equality and conversion.
	ByteVecEq
	ByteVecNeq
	ByteVecConcat
	AddressEq
	AddressNeq
	ByteVecToAddress

	// Boolean.
	BoolAnd
	BoolOr
	BoolNot
	BoolEq
	BoolNeq

	// Stack & storage.
	Dup
	Pop
	LoadLocal    // operand: Index
	StoreLocal   // operand: Index
	LoadField    // operand: Index
	StoreField   // operand: Index
	LoadImmField // operand: Index

	// Array addressing: the base ops push/consume the flat base slot of
	// an ArrayRef, ArrayDynOffset folds a run-time index sequence into
	// a flat offset that a following Load/StoreLocal-at-offset can use.
	LoadLocalBase
	LoadFieldBase
	StoreLocalBase
	StoreFieldBase
	ArrayDynOffset

	// Control flow. Offset is a signed branch distance, fits in one
	// byte, interpreted by the VM as (currentIndex + Offset + 1).
	Jump
	IfTrue
	IfFalse
	Return

	// Calls.
	CallLocal    // operand: Index (method table index)
	CallExternal // operand: Index (method table index)

	// Assets / contract lifecycle.
	ApproveAlph
	ApproveToken
	TransferAlphFromSelf
	TransferTokenFromSelf
	TransferAlphToSelf
	TransferTokenToSelf
	DestroySelf
	SelfAddress
	ContractConv // byte-vec -> contract handle

	// checkPermission is a VM-level assertion; represented here as an
	// opcode so it round-trips through the instruction stream like any
	// other builtin call.
	CheckPermission
	Panic

	// Logging, indexed by event index + argument count.
	Log0
	Log1
	Log2
	Log3
	Log4
	Log5
	Log6
	Log7
	Log8
)

var opNames = map[Op]string{
	U256Const0: "U256Const0", U256Const1: "U256Const1", U256Const2: "U256Const2",
	U256Const3: "U256Const3", U256Const4: "U256Const4", U256Const5: "U256Const5",
	U256Const: "U256Const", I256Const: "I256Const", BoolConst: "BoolConst",
	BytesConst: "BytesConst", AddressConst: "AddressConst",
	I256Add: "I256Add", I256Sub: "I256Sub", I256Mul: "I256Mul", I256Div: "I256Div",
	I256Mod: "I256Mod", I256Eq: "I256Eq", I256Neq: "I256Neq", I256Lt: "I256Lt",
	I256Le: "I256Le", I256Gt: "I256Gt", I256Ge: "I256Ge", I256Neg: "I256Neg",
	U256Add: "U256Add", U256Sub: "U256Sub", U256Mul: "U256Mul", U256Div: "U256Div",
	U256Mod: "U256Mod", U256Eq: "U256Eq", U256Neq: "U256Neq", U256Lt: "U256Lt",
	U256Le: "U256Le", U256Gt: "U256Gt", U256Ge: "U256Ge",
	ByteVecEq: "ByteVecEq", ByteVecNeq: "ByteVecNeq", ByteVecConcat: "ByteVecConcat",
	AddressEq: "AddressEq", AddressNeq: "AddressNeq", ByteVecToAddress: "ByteVecToAddress",
	BoolAnd: "BoolAnd", BoolOr: "BoolOr", BoolNot: "BoolNot", BoolEq: "BoolEq", BoolNeq: "BoolNeq",
	Dup: "Dup", Pop: "Pop",
	LoadLocal: "LoadLocal", StoreLocal: "StoreLocal", LoadField: "LoadField",
	StoreField: "StoreField", LoadImmField: "LoadImmField",
	LoadLocalBase: "LoadLocalBase", LoadFieldBase: "LoadFieldBase",
	StoreLocalBase: "StoreLocalBase", StoreFieldBase: "StoreFieldBase",
	ArrayDynOffset: "ArrayDynOffset",
	Jump:           "Jump", IfTrue: "IfTrue", IfFalse: "IfFalse", Return: "Return",
	CallLocal: "CallLocal", CallExternal: "CallExternal",
	ApproveAlph: "ApproveAlph", ApproveToken: "ApproveToken",
	TransferAlphFromSelf: "TransferAlphFromSelf", TransferTokenFromSelf: "TransferTokenFromSelf",
	TransferAlphToSelf: "TransferAlphToSelf", TransferTokenToSelf: "TransferTokenToSelf",
	DestroySelf: "DestroySelf", SelfAddress: "SelfAddress", ContractConv: "ContractConv",
	CheckPermission: "CheckPermission", Panic: "Panic",
	Log0: "Log0", Log1: "Log1", Log2: "Log2", Log3: "Log3", Log4: "Log4",
	Log5: "Log5", Log6: "Log6", Log7: "Log7", Log8: "Log8",
}

func (op Op) String() string {
	if n, ok := opNames[op]; ok {
		return n
	}
	return fmt.Sprintf("Op(%d)", int(op))
}

// Instruction is one cell of the flat bytecode stream. Only the fields
// relevant to Op are populated; the rest are zero.
type Instruction struct {
	Op Op

	// LoadLocal/StoreLocal/LoadField/StoreField/LoadImmField/CallLocal/
	// CallExternal/array-base ops.
	Index int

	// Jump/IfTrue/IfFalse: signed branch distance.
	Offset int16

	U256Val *uint256.Int
	I256Val *big.Int
	BoolVal bool
	Bytes   []byte
}

// Simple builds an operand-less instruction.
func Simple(op Op) Instruction { return Instruction{Op: op} }

func NewU256Const(n uint64) Instruction {
	switch n {
	case 0:
		return Simple(U256Const0)
	case 1:
		return Simple(U256Const1)
	case 2:
		return Simple(U256Const2)
	case 3:
		return Simple(U256Const3)
	case 4:
		return Simple(U256Const4)
	case 5:
		return Simple(U256Const5)
	}
	return Instruction{Op: U256Const, U256Val: uint256.NewInt(n)}
}

func NewU256ConstBig(v *uint256.Int) Instruction {
	if v.IsUint64() {
		if small := v.Uint64(); small <= 5 {
			return NewU256Const(small)
		}
	}
	return Instruction{Op: U256Const, U256Val: v}
}

func NewI256Const(v *big.Int) Instruction { return Instruction{Op: I256Const, I256Val: v} }
func NewBoolConst(v bool) Instruction      { return Instruction{Op: BoolConst, BoolVal: v} }
func NewBytesConst(v []byte) Instruction   { return Instruction{Op: BytesConst, Bytes: v} }
func NewAddressConst(v []byte) Instruction { return Instruction{Op: AddressConst, Bytes: v} }

func NewLoadLocal(idx int) Instruction    { return Instruction{Op: LoadLocal, Index: idx} }
func NewStoreLocal(idx int) Instruction   { return Instruction{Op: StoreLocal, Index: idx} }
func NewLoadField(idx int) Instruction    { return Instruction{Op: LoadField, Index: idx} }
func NewStoreField(idx int) Instruction   { return Instruction{Op: StoreField, Index: idx} }
func NewLoadImmField(idx int) Instruction { return Instruction{Op: LoadImmField, Index: idx} }

func NewJump(offset int16) Instruction    { return Instruction{Op: Jump, Offset: offset} }
func NewIfTrue(offset int16) Instruction  { return Instruction{Op: IfTrue, Offset: offset} }
func NewIfFalse(offset int16) Instruction { return Instruction{Op: IfFalse, Offset: offset} }

func NewCallLocal(idx int) Instruction    { return Instruction{Op: CallLocal, Index: idx} }
func NewCallExternal(idx int) Instruction { return Instruction{Op: CallExternal, Index: idx} }

// NewLog returns the Log{n} opcode for n arguments (0..8).
func NewLog(n int) (Instruction, error) {
	if n < 0 || n > 8 {
		return Instruction{}, fmt.Errorf("too many log arguments: %d", n)
	}
	return Simple(Log0 + Op(n)), nil
}

func (i Instruction) String() string {
	switch i.Op {
	case LoadLocal, StoreLocal, LoadField, StoreField, LoadImmField, CallLocal, CallExternal:
		return fmt.Sprintf("%s(%d)", i.Op, i.Index)
	case Jump, IfTrue, IfFalse:
		return fmt.Sprintf("%s(%d)", i.Op, i.Offset)
	case U256Const:
		return fmt.Sprintf("U256Const(%s)", i.U256Val.String())
	case I256Const:
		return fmt.Sprintf("I256Const(%s)", i.I256Val.String())
	case BoolConst:
		return fmt.Sprintf("BoolConst(%v)", i.BoolVal)
	default:
		return i.Op.String()
	}
}

// StackDelta returns the net stack effect of a single instruction,
// excluding any variable-length effects that depend on emitted operand
// counts (those are folded in by the caller, e.g. calls and logs).
func StackDelta(i Instruction) int {
	switch i.Op {
	case U256Const0, U256Const1, U256Const2, U256Const3, U256Const4, U256Const5,
		U256Const, I256Const, BoolConst, BytesConst, AddressConst,
		LoadLocal, LoadField, LoadImmField, Dup, SelfAddress:
		return 1
	case Pop, StoreLocal, StoreField, IfTrue, IfFalse, Return:
		return -1
	case I256Neg, BoolNot, ByteVecToAddress, ContractConv:
		return 0
	case Jump, CheckPermission, Panic, DestroySelf:
		return 0
	case ApproveAlph, ApproveToken, TransferAlphFromSelf, TransferTokenFromSelf,
		TransferAlphToSelf, TransferTokenToSelf:
		return -2
	default:
		// Binary arithmetic/comparison/boolean ops consume 2, produce 1.
		return -1
	}
}
