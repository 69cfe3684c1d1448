// Package types holds the value and type model the compiler operates
// over: primitive values, the type language, and the rules for
// flattening arrays into stack cells.
package types

import "fmt"

// Kind distinguishes the primitive shapes a Type can take.
type Kind int

const (
	Bool Kind = iota
	I256
	U256
	ByteVec
	Address
	FixedSizeArray
	Contract
)

// ContractKind records what sort of contract-shaped declaration a
// Contract type refers to, and the two capability flags that gate
// inheritance and instantiation.
type ContractKind int

const (
	KindContract ContractKind = iota
	KindAbstractContract
	KindInterface
	KindTxScript
	KindAssetScript
)

// Instantiable reports whether values of this contract kind can be
// deployed/instantiated directly.
func (k ContractKind) Instantiable() bool {
	return k == KindContract
}

// Inheritable reports whether other declarations may extend/implement
// a declaration of this kind.
func (k ContractKind) Inheritable() bool {
	return k == KindAbstractContract || k == KindInterface || k == KindContract
}

// Type is the structural type language: primitives, fixed-size arrays,
// and contract handles. Equality is structural (see Equal).
type Type struct {
	Kind Kind

	// Valid when Kind == FixedSizeArray.
	Elem   *Type
	Length int

	// Valid when Kind == Contract.
	TypeId       string
	ContractKind ContractKind
}

func Primitive(k Kind) Type { return Type{Kind: k} }

func Array(elem Type, length int) Type {
	return Type{Kind: FixedSizeArray, Elem: &elem, Length: length}
}

func ContractType(typeId string, kind ContractKind) Type {
	return Type{Kind: Contract, TypeId: typeId, ContractKind: kind}
}

// Equal is structural equality.
func (t Type) Equal(o Type) bool {
	if t.Kind != o.Kind {
		return false
	}
	switch t.Kind {
	case FixedSizeArray:
		return t.Length == o.Length && t.Elem.Equal(*o.Elem)
	case Contract:
		return t.TypeId == o.TypeId
	default:
		return true
	}
}

func (t Type) String() string {
	switch t.Kind {
	case Bool:
		return "Bool"
	case I256:
		return "I256"
	case U256:
		return "U256"
	case ByteVec:
		return "ByteVec"
	case Address:
		return "Address"
	case FixedSizeArray:
		return fmt.Sprintf("[%s;%d]", t.Elem.String(), t.Length)
	case Contract:
		return t.TypeId
	default:
		return "<unknown type>"
	}
}

func (t Type) IsNumeric() bool { return t.Kind == I256 || t.Kind == U256 }

// FlattenTypeLength returns, for a sequence of types, the total number
// of scalar stack cells after array lowering: primitives and contract
// handles count as 1 cell; a fixed-size array of length n and element
// type t counts as n * FlattenTypeLength([t]).
func FlattenTypeLength(ts []Type) int {
	total := 0
	for _, t := range ts {
		total += flattenOne(t)
	}
	return total
}

func flattenOne(t Type) int {
	if t.Kind == FixedSizeArray {
		return t.Length * flattenOne(*t.Elem)
	}
	return 1
}

// SequenceEqual compares two type sequences element-wise; used to
// compare an expression's type vector against a declared signature (a
// function's return type is always a sequence).
func SequenceEqual(a, b []Type) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

// ElementType peels `indexes` FixedSizeArray layers off `t`, returning
// the type that results from applying that many index operations. It
// errors if t is not an array, or has fewer dimensions than indexes.
func ElementType(t Type, indexes int) (Type, error) {
	cur := t
	for i := 0; i < indexes; i++ {
		if cur.Kind != FixedSizeArray {
			return Type{}, fmt.Errorf("Invalid array index v")
		}
		cur = *cur.Elem
	}
	return cur, nil
}
