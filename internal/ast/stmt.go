package ast

// Stmt is the sum type of statements.
type Stmt interface {
	Pos() Position
}

// VarTarget is one binding in a (possibly destructuring) variable
// definition: a named binding with a mutability flag, or an anonymous
// discard ('_').
type VarTarget struct {
	Name    Ident
	Mutable bool
	Discard bool
}

// VarDefStmt is `let [mut] a, [mut] b, _ = rhs;`.
type VarDefStmt struct {
	Position Position
	Targets  []VarTarget
	Rhs      Expr
}

func (s *VarDefStmt) Pos() Position { return s.Position }

// AssignTarget is one target of an assignment: a simple variable name,
// or an array element addressed by an index sequence.
type AssignTarget struct {
	Name    Ident
	Indexes []Expr // empty for a simple (non-array) target
}

// AssignStmt is `t1, t2 = rhs;`.
type AssignStmt struct {
	Position Position
	Targets  []AssignTarget
	Rhs      Expr
}

func (s *AssignStmt) Pos() Position { return s.Position }

// InternalCallStmt and ExternalCallStmt are calls used as statements
// (their results, if any, are discarded).
type InternalCallStmt struct {
	Position Position
	Call     *InternalCallExpr
}

func (s *InternalCallStmt) Pos() Position { return s.Position }

type ExternalCallStmt struct {
	Position Position
	Call     *ExternalCallExpr
}

func (s *ExternalCallStmt) Pos() Position { return s.Position }

// ElseIf is one `else if cond { ... }` arm.
type ElseIf struct {
	Cond Expr
	Body []Stmt
}

// IfElseStmt is the statement form of if/else-if/else; Else may be nil.
type IfElseStmt struct {
	Position Position
	Cond     Expr
	Then     []Stmt
	ElseIfs  []ElseIf
	Else     []Stmt
}

func (s *IfElseStmt) Pos() Position { return s.Position }

// WhileStmt is `while cond { body }`.
type WhileStmt struct {
	Position Position
	Cond     Expr
	Body     []Stmt
}

func (s *WhileStmt) Pos() Position { return s.Position }

// ForStmt is `for (init; cond; update) { body }`. Init may be nil;
// a variable it declares is scoped to the for-statement.
type ForStmt struct {
	Position Position
	Init     Stmt
	Cond     Expr
	Update   Stmt
	Body     []Stmt
}

func (s *ForStmt) Pos() Position { return s.Position }

// ReturnStmt is `return e1, ..., en;`.
type ReturnStmt struct {
	Position Position
	Values   []Expr
}

func (s *ReturnStmt) Pos() Position { return s.Position }

// EmitStmt is `emit Event(args...)`.
type EmitStmt struct {
	Position Position
	Event    TypeId
	Args     []Expr
}

func (s *EmitStmt) Pos() Position { return s.Position }

// LoopStmt is the unrolled-loop primitive `loop(from, to, step, body)`.
// Body must be exactly one statement, may not declare new variables,
// and may not contain return; every `?` inside it is replaced with the
// current iteration's constant on unrolling.
type LoopStmt struct {
	Position Position
	From     int64
	To       int64
	Step     int64
	Body     Stmt
}

func (s *LoopStmt) Pos() Position { return s.Position }
