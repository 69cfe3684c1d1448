package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suyanlong/alephium/internal/ast"
	"github.com/suyanlong/alephium/internal/types"
)

func abstractFunc(name ast.Ident) *ast.FuncDef {
	return &ast.FuncDef{Name: ast.UserFunc(name), Public: true}
}

func implFunc(name ast.Ident) *ast.FuncDef {
	return &ast.FuncDef{Name: ast.UserFunc(name), Public: true, Body: []ast.Stmt{}}
}

func TestResolverDetectsDirectCycle(t *testing.T) {
	a := &ast.Contract{Name: "A", Abstract: true, Inherits: []ast.ContractInheritance{{Parent: "B"}}}
	b := &ast.Contract{Name: "B", Abstract: true, Inherits: []ast.ContractInheritance{{Parent: "A"}}}
	mc := &ast.MultiContract{Units: []ast.Unit{a, b}}

	_, errs := NewResolver(mc).Resolve()
	require.NotEmpty(t, errs)
	found := false
	for _, e := range errs {
		if e.Code == "E0201" {
			found = true
		}
	}
	assert.True(t, found, "expected a cyclic inheritance error")
}

func TestResolverMergesParentFuncsBeforeOwn(t *testing.T) {
	parent := &ast.Contract{Name: "Parent", Abstract: true, Funcs: []*ast.FuncDef{implFunc("greet")}}
	child := &ast.Contract{
		Name:     "Child",
		Inherits: []ast.ContractInheritance{{Parent: "Parent"}},
		Funcs:    []*ast.FuncDef{implFunc("extra")},
	}
	mc := &ast.MultiContract{Units: []ast.Unit{parent, child}}

	reg, errs := NewResolver(mc).Resolve()
	require.Empty(t, errs)

	info := reg["Child"]
	require.Equal(t, []ast.Ident{"greet", "extra"}, info.FuncOrder)
}

func TestResolverUnimplementedAbstractMethodErrors(t *testing.T) {
	parent := &ast.Contract{Name: "Parent", Abstract: true, Funcs: []*ast.FuncDef{abstractFunc("must")}}
	child := &ast.Contract{Name: "Child", Inherits: []ast.ContractInheritance{{Parent: "Parent"}}}
	mc := &ast.MultiContract{Units: []ast.Unit{parent, child}}

	_, errs := NewResolver(mc).Resolve()
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, "Contract Child has unimplemented methods: must")
}

func TestResolverAbstractOverrideIsNotAnError(t *testing.T) {
	parent := &ast.Contract{Name: "Parent", Abstract: true, Funcs: []*ast.FuncDef{abstractFunc("must")}}
	child := &ast.Contract{
		Name:     "Child",
		Inherits: []ast.ContractInheritance{{Parent: "Parent"}},
		Funcs:    []*ast.FuncDef{implFunc("must")},
	}
	mc := &ast.MultiContract{Units: []ast.Unit{parent, child}}

	reg, errs := NewResolver(mc).Resolve()
	require.Empty(t, errs)
	assert.True(t, reg["Child"].Funcs["must"].IsAbstract() == false)
}

func TestResolverFieldForwardingValidatesTypeAndMutability(t *testing.T) {
	parent := &ast.Contract{
		Name:   "Parent",
		Fields: []ast.Argument{{Name: "x", Type: types.Primitive(types.U256), Mutable: true}},
	}
	badChild := &ast.Contract{
		Name:     "BadChild",
		Fields:   []ast.Argument{{Name: "y", Type: types.Primitive(types.Bool), Mutable: true}},
		Inherits: []ast.ContractInheritance{{Parent: "Parent", Fields: []ast.Ident{"y"}}},
	}
	mc := &ast.MultiContract{Units: []ast.Unit{parent, badChild}}

	_, errs := NewResolver(mc).Resolve()
	require.NotEmpty(t, errs)
	found := false
	for _, e := range errs {
		if e.Code == "E0202" {
			found = true
		}
	}
	assert.True(t, found, "expected an invalid-inheritance-fields error")
}

func TestResolverFieldForwardingAcceptsMatchingField(t *testing.T) {
	parent := &ast.Contract{
		Name:   "Parent",
		Fields: []ast.Argument{{Name: "x", Type: types.Primitive(types.U256), Mutable: true}},
	}
	child := &ast.Contract{
		Name:     "Child",
		Fields:   []ast.Argument{{Name: "x", Type: types.Primitive(types.U256), Mutable: true}},
		Inherits: []ast.ContractInheritance{{Parent: "Parent", Fields: []ast.Ident{"x"}}},
	}
	mc := &ast.MultiContract{Units: []ast.Unit{parent, child}}

	_, errs := NewResolver(mc).Resolve()
	assert.Empty(t, errs)
}

func TestResolverInterfaceWithImplementedMethodErrors(t *testing.T) {
	iface := &ast.ContractInterface{Name: "I", Funcs: []*ast.FuncDef{implFunc("bad")}}
	mc := &ast.MultiContract{Units: []ast.Unit{iface}}

	_, errs := NewResolver(mc).Resolve()
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, "Interface I has implemented methods: bad")
}

func TestResolverStableOrdersInterfaceAncestorsByDepth(t *testing.T) {
	grandIface := &ast.ContractInterface{Name: "Grand", Funcs: []*ast.FuncDef{abstractFunc("deep")}}
	iface := &ast.ContractInterface{
		Name:     "Shallow",
		Funcs:    []*ast.FuncDef{abstractFunc("shallow")},
		Inherits: []ast.InterfaceInheritance{{Parent: "Grand"}},
	}
	c := &ast.Contract{
		Name:     "Impl",
		Inherits: []ast.ContractInheritance{{Parent: "Shallow"}},
		Funcs:    []*ast.FuncDef{implFunc("shallow"), implFunc("deep")},
	}
	mc := &ast.MultiContract{Units: []ast.Unit{grandIface, iface, c}}

	reg, errs := NewResolver(mc).Resolve()
	require.Empty(t, errs)
	// Impl's interface ancestors are Shallow (1 ancestor) and Grand (0
	// ancestors); Grand has fewer ancestors, so it merges first and its
	// "deep" precedes Shallow's "shallow".
	info := reg["Impl"]
	require.Contains(t, info.FuncOrder, ast.Ident("shallow"))
	require.Contains(t, info.FuncOrder, ast.Ident("deep"))
	require.Equal(t, []ast.Ident{"deep", "shallow"}, info.FuncOrder)
}
