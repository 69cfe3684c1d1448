package types

import (
	"fmt"
	"math/big"

	"github.com/holiman/uint256"

	"github.com/suyanlong/alephium/internal/instr"
)

// ValKind distinguishes the cases of Val.
type ValKind int

const (
	ValBool ValKind = iota
	ValI256
	ValU256
	ValByteVec
	ValAddress
)

// Val is the tagged union of literal values the AST and constant folder
// work with. Exactly one field is meaningful, selected by Kind.
type Val struct {
	Kind  ValKind
	Bool  bool
	I256  *big.Int
	U256  *uint256.Int
	Bytes []byte // ValByteVec or ValAddress
}

// U256FromBigInt converts a non-negative big.Int into a *uint256.Int,
// erroring if it overflows 256 bits.
func U256FromBigInt(v *big.Int) (*uint256.Int, error) {
	if v.Sign() < 0 {
		return nil, fmt.Errorf("negative literal %s is not a valid U256", v.String())
	}
	u, overflow := uint256.FromBig(v)
	if overflow {
		return nil, fmt.Errorf("literal %s overflows U256", v.String())
	}
	return u, nil
}

func BoolVal(b bool) Val { return Val{Kind: ValBool, Bool: b} }
func I256Val(v *big.Int) Val { return Val{Kind: ValI256, I256: v} }
func U256Val(v *uint256.Int) Val { return Val{Kind: ValU256, U256: v} }
func ByteVecVal(b []byte) Val { return Val{Kind: ValByteVec, Bytes: b} }
func AddressVal(b []byte) Val { return Val{Kind: ValAddress, Bytes: b} }

// Type returns the primitive type of the value.
func (v Val) Type() Type {
	switch v.Kind {
	case ValBool:
		return Primitive(Bool)
	case ValI256:
		return Primitive(I256)
	case ValU256:
		return Primitive(U256)
	case ValByteVec:
		return Primitive(ByteVec)
	case ValAddress:
		return Primitive(Address)
	default:
		return Type{}
	}
}

// ToConstInstr returns the instruction that pushes this value, choosing
// the small-constant U256 opcodes where applicable.
func (v Val) ToConstInstr() instr.Instruction {
	switch v.Kind {
	case ValBool:
		return instr.NewBoolConst(v.Bool)
	case ValI256:
		return instr.NewI256Const(v.I256)
	case ValU256:
		return instr.NewU256ConstBig(v.U256)
	case ValByteVec:
		return instr.NewBytesConst(v.Bytes)
	case ValAddress:
		return instr.NewAddressConst(v.Bytes)
	default:
		panic("Val.ToConstInstr: unknown kind")
	}
}

// AsInt64 returns the value as an int64, for constructs (loop bounds,
// array lengths) that require a compile-time integer. Only I256/U256
// values qualify.
func (v Val) AsInt64() (int64, error) {
	switch v.Kind {
	case ValI256:
		if !v.I256.IsInt64() {
			return 0, fmt.Errorf("constant out of range: %s", v.I256.String())
		}
		return v.I256.Int64(), nil
	case ValU256:
		if !v.U256.IsUint64() {
			return 0, fmt.Errorf("constant out of range: %s", v.U256.String())
		}
		u := v.U256.Uint64()
		if u > 1<<62 {
			return 0, fmt.Errorf("constant out of range: %d", u)
		}
		return int64(u), nil
	default:
		return 0, fmt.Errorf("not an integer constant: %v", v)
	}
}

func (v Val) String() string {
	switch v.Kind {
	case ValBool:
		return fmt.Sprintf("%v", v.Bool)
	case ValI256:
		return v.I256.String()
	case ValU256:
		return v.U256.String()
	case ValByteVec:
		return fmt.Sprintf("%x", v.Bytes)
	case ValAddress:
		return fmt.Sprintf("@%x", v.Bytes)
	default:
		return "<invalid val>"
	}
}
