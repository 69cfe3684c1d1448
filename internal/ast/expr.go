package ast

import "github.com/suyanlong/alephium/internal/types"

// Expr is the sum type of expressions. Every case embeds TypeSlot so
// the compiler can memoise its computed type vector on first query.
type Expr interface {
	Pos() Position
	CachedType() ([]types.Type, bool)
	SetCachedType([]types.Type)
}

// UnaryOp and BinaryOp enumerate the fixed operator overload set.
type UnaryOp int

const (
	Neg UnaryOp = iota // integer negation
	Not                // boolean not
)

type BinaryOp int

const (
	Add BinaryOp = iota
	Sub
	Mul
	Div
	Mod
	Eq
	Neq
	Lt
	Le
	Gt
	Ge
	And
	Or
	Concat // ByteVec concatenation
)

func (op BinaryOp) String() string {
	switch op {
	case Add:
		return "+"
	case Sub:
		return "-"
	case Mul:
		return "*"
	case Div:
		return "/"
	case Mod:
		return "%"
	case Eq:
		return "=="
	case Neq:
		return "!="
	case Lt:
		return "<"
	case Le:
		return "<="
	case Gt:
		return ">"
	case Ge:
		return ">="
	case And:
		return "&&"
	case Or:
		return "||"
	case Concat:
		return "++"
	default:
		return "<unknown op>"
	}
}

// ConstExpr is a literal value.
type ConstExpr struct {
	TypeSlot
	Position Position
	Val      types.Val
}

func (e *ConstExpr) Pos() Position { return e.Position }

// ArrayLiteralExpr is `[e1, ..., en]`; every element must have the same
// single type.
type ArrayLiteralExpr struct {
	TypeSlot
	Position Position
	Elems    []Expr
}

func (e *ArrayLiteralExpr) Pos() Position { return e.Position }

// ArrayRepeatExpr is `[e; n]`: n constant cells, each the evaluation of e.
type ArrayRepeatExpr struct {
	TypeSlot
	Position Position
	Elem     Expr
	Count    int
}

func (e *ArrayRepeatExpr) Pos() Position { return e.Position }

// ArrayIndexExpr is `a[i1]...[ik]`.
type ArrayIndexExpr struct {
	TypeSlot
	Position Position
	Base     Expr
	Indexes  []Expr
}

func (e *ArrayIndexExpr) Pos() Position { return e.Position }

// VarExpr references a local, field, template, or constant variable.
type VarExpr struct {
	TypeSlot
	Position Position
	Name     Ident
}

func (e *VarExpr) Pos() Position { return e.Position }

// EnumFieldExpr is `EnumName.FieldName`.
type EnumFieldExpr struct {
	TypeSlot
	Position Position
	Enum     TypeId
	Field    Ident
}

func (e *EnumFieldExpr) Pos() Position { return e.Position }

// UnaryExpr applies a unary operator.
type UnaryExpr struct {
	TypeSlot
	Position Position
	Op       UnaryOp
	Operand  Expr
}

func (e *UnaryExpr) Pos() Position { return e.Position }

// BinaryExpr applies a binary operator.
type BinaryExpr struct {
	TypeSlot
	Position Position
	Op       BinaryOp
	Left     Expr
	Right    Expr
}

func (e *BinaryExpr) Pos() Position { return e.Position }

// ContractConvExpr converts a ByteVec (an address) into a contract
// handle of the given static type.
type ContractConvExpr struct {
	TypeSlot
	Position Position
	TypeId   TypeId
	Operand  Expr
}

func (e *ContractConvExpr) Pos() Position { return e.Position }

// Approval is one entry of an approve-asset list attached to a call.
type Approval struct {
	Address Expr
	TokenId Expr // nil means the native asset
	Amount  Expr
}

// ApproveList is optional metadata on a call node for the
// `approveAlph!`/`approveToken!` source syntax layered onto calls.
type ApproveList struct {
	Approvals []Approval
}

// InternalCallExpr calls a function of the same contract/script.
type InternalCallExpr struct {
	TypeSlot
	Position Position
	Func     FuncId
	Args     []Expr
	Approve  *ApproveList
}

func (e *InternalCallExpr) Pos() Position { return e.Position }

// ExternalCallExpr calls a function on another contract's handle.
type ExternalCallExpr struct {
	TypeSlot
	Position Position
	Contract Expr
	Func     FuncId
	Args     []Expr
	Approve  *ApproveList
}

func (e *ExternalCallExpr) Pos() Position { return e.Position }

// ParenExpr is a parenthesised expression, kept distinct so
// pretty-printing can round-trip source parens; it has no effect on
// codegen other than delegating to Inner.
type ParenExpr struct {
	TypeSlot
	Position Position
	Inner    Expr
}

func (e *ParenExpr) Pos() Position { return e.Position }

// IfElseExpr is the if-else-as-expression form; Else is mandatory here
// (unlike the statement form) since every branch must produce a value.
type IfElseExpr struct {
	TypeSlot
	Position Position
	Cond     Expr
	Then     Expr
	Else     Expr
}

func (e *IfElseExpr) Pos() Position { return e.Position }

// PlaceholderExpr is the `?` token inside an unrolled loop body,
// substituted with a constant U256 literal per iteration.
type PlaceholderExpr struct {
	TypeSlot
	Position Position
}

func (e *PlaceholderExpr) Pos() Position { return e.Position }
