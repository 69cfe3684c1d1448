package ast

import "github.com/suyanlong/alephium/internal/types"

// Argument describes a function parameter, a contract field, or a
// template variable — the three declaration shapes share this shape.
type Argument struct {
	Name    Ident
	Type    types.Type
	Mutable bool
	Unused  bool
}

// EventField describes one field of an event declaration.
type EventField struct {
	Name Ident
	Type types.Type
}

// AnnotationField is one (ident, value) pair inside an annotation.
type AnnotationField struct {
	Name  Ident
	Value types.Val
}

// Annotation is a `@id(field = value, ...)` decoration on a FuncDef.
type Annotation struct {
	Id     Ident
	Fields []AnnotationField
}

// FuncDef is a function declaration. Body == nil means abstract (no
// implementation) — legal only inside an interface or an abstract
// contract.
type FuncDef struct {
	Annotations          []Annotation
	Name                 FuncId
	Public               bool
	UsePreapprovedAssets bool
	UseAssetsInContract  bool
	UsePermissionCheck   bool
	Args                 []Argument
	Returns              []types.Type
	Body                 []Stmt
}

func (f *FuncDef) IsAbstract() bool { return f.Body == nil }

// Signature is the part of a FuncDef that must match between an
// abstract declaration and its implementation: everything but the body
// and the annotations.
type Signature struct {
	Public               bool
	UsePreapprovedAssets bool
	UseAssetsInContract  bool
	UsePermissionCheck   bool
	Args                 []types.Type
	Returns              []types.Type
}

func (f *FuncDef) Signature() Signature {
	argTypes := make([]types.Type, len(f.Args))
	for i, a := range f.Args {
		argTypes[i] = a.Type
	}
	return Signature{
		Public:               f.Public,
		UsePreapprovedAssets: f.UsePreapprovedAssets,
		UseAssetsInContract:  f.UseAssetsInContract,
		UsePermissionCheck:   f.UsePermissionCheck,
		Args:                 argTypes,
		Returns:              f.Returns,
	}
}

func (a Signature) Equal(b Signature) bool {
	return a.Public == b.Public &&
		a.UsePreapprovedAssets == b.UsePreapprovedAssets &&
		a.UseAssetsInContract == b.UseAssetsInContract &&
		a.UsePermissionCheck == b.UsePermissionCheck &&
		types.SequenceEqual(a.Args, b.Args) &&
		types.SequenceEqual(a.Returns, b.Returns)
}

// EventDef is an event declaration.
type EventDef struct {
	Name   TypeId
	Fields []EventField
}

// ConstantVarDef is a named compile-time constant.
type ConstantVarDef struct {
	Name  Ident
	Value types.Val
}

// EnumField is one `EnumName.FieldName = value` entry.
type EnumField struct {
	Name  Ident
	Value types.Val
}

// EnumDef is an enum declaration; fields live in a flat namespace keyed
// by "EnumName.FieldName" in the compiler state's constant table.
type EnumDef struct {
	Name   TypeId
	Fields []EnumField
}

// ContractInheritance is `extends Parent(field1, field2, ...)`: the
// listed idents must name fields of the child whose types, mutability,
// and order exactly match the parent's own field list.
type ContractInheritance struct {
	Parent TypeId
	Fields []Ident
}

// InterfaceInheritance is an interface's `extends Parent`: no
// field-forwarding list, since interfaces have no fields.
type InterfaceInheritance struct {
	Parent TypeId
}
