// Package ast holds the tree the compiler consumes: expressions,
// statements, declarations, and compilation units, exactly as handed
// in by an external parser. Nodes are immutable once built except for
// the memoised type slot every expression carries.
package ast

import "github.com/suyanlong/alephium/internal/types"

// Position is a source location, for diagnostics only; the compiler
// never interprets it.
type Position struct {
	Line   int
	Column int
	Offset int
}

// Ident is a value-level name: locals, fields, template vars, function
// arguments, constants, enum fields.
type Ident string

// TypeId is a type-level name: contracts, interfaces, scripts, events,
// enums.
type TypeId string

// FuncId is a function name, tagged with whether it names a built-in
// (checkPermission, panic, ...) rather than a user-defined function.
type FuncId struct {
	Name      Ident
	BuiltIn   bool
}

func UserFunc(name Ident) FuncId { return FuncId{Name: name} }
func BuiltinFunc(name Ident) FuncId { return FuncId{Name: name, BuiltIn: true} }

const (
	BuiltinCheckPermission Ident = "checkPermission"
	BuiltinPanic           Ident = "panic"
)

// TypeSlot is the memoised-type cache embedded in every Expr. It is
// written at most once per node, by the first get_type query.
type TypeSlot struct {
	ty    []types.Type
	valid bool
}

// CachedType returns the memoised type vector and whether it has been
// set yet.
func (s *TypeSlot) CachedType() ([]types.Type, bool) {
	return s.ty, s.valid
}

// SetCachedType fills the slot. Calling it twice with different values
// indicates a compiler bug: the cache is meant to be write-once.
func (s *TypeSlot) SetCachedType(t []types.Type) {
	s.ty = t
	s.valid = true
}
