package ast

import "github.com/suyanlong/alephium/internal/types"

// Unit is the common shape of the four compilation-unit kinds a
// MultiContract holds.
type Unit interface {
	UnitName() TypeId
	UnitKind() types.ContractKind
}

// AssetScript is stateless: only template vars and funcs.
type AssetScript struct {
	Name         TypeId
	TemplateVars []Argument
	Funcs        []*FuncDef
}

func (u *AssetScript) UnitName() TypeId            { return u.Name }
func (u *AssetScript) UnitKind() types.ContractKind { return types.KindAssetScript }

// TxScript is stateful: template vars and funcs, no fields, constants,
// enums, events, or inheritance.
type TxScript struct {
	Name         TypeId
	TemplateVars []Argument
	Funcs        []*FuncDef
}

func (u *TxScript) UnitName() TypeId            { return u.Name }
func (u *TxScript) UnitKind() types.ContractKind { return types.KindTxScript }

// Contract may be abstract; it carries template vars, fields, funcs,
// events, constants, enums, and an inheritance list.
type Contract struct {
	Name         TypeId
	Abstract     bool
	TemplateVars []Argument
	Fields       []Argument
	Funcs        []*FuncDef
	Events       []*EventDef
	Constants    []*ConstantVarDef
	Enums        []*EnumDef
	Inherits     []ContractInheritance
}

func (u *Contract) UnitName() TypeId { return u.Name }
func (u *Contract) UnitKind() types.ContractKind {
	if u.Abstract {
		return types.KindAbstractContract
	}
	return types.KindContract
}

// ContractInterface declares only abstract funcs, events, and an
// interface-inheritance list.
type ContractInterface struct {
	Name     TypeId
	Funcs    []*FuncDef
	Events   []*EventDef
	Inherits []InterfaceInheritance
}

func (u *ContractInterface) UnitName() TypeId            { return u.Name }
func (u *ContractInterface) UnitKind() types.ContractKind { return types.KindInterface }

// MultiContract is an ordered collection of compilation units sharing a
// namespace, compiled one target index at a time.
type MultiContract struct {
	Units []Unit
}

func (m *MultiContract) Find(name TypeId) (Unit, bool) {
	for _, u := range m.Units {
		if u.UnitName() == name {
			return u, true
		}
	}
	return nil, false
}
