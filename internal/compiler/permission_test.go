package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suyanlong/alephium/internal/ast"
)

func checkPermissionCallStmt() ast.Stmt {
	return &ast.InternalCallStmt{Call: &ast.InternalCallExpr{Func: ast.BuiltinFunc(ast.BuiltinCheckPermission)}}
}

func TestBuildPermissionTableDirectCheck(t *testing.T) {
	f := &ast.FuncDef{Name: ast.UserFunc("f"), UsePermissionCheck: true, Body: []ast.Stmt{checkPermissionCallStmt()}}
	info := &ContractInfo{Funcs: map[ast.Ident]*ast.FuncDef{"f": f}, FuncOrder: []ast.Ident{"f"}}

	table := BuildPermissionTable(info, nil)
	assert.True(t, table["f"])
}

func TestBuildPermissionTablePropagatesThroughPrivateCallees(t *testing.T) {
	helper := &ast.FuncDef{Name: ast.UserFunc("helper"), Public: false, UsePermissionCheck: true, Body: []ast.Stmt{checkPermissionCallStmt()}}
	caller := &ast.FuncDef{Name: ast.UserFunc("caller"), Public: false, UsePermissionCheck: true, Body: []ast.Stmt{}}
	info := &ContractInfo{
		Funcs:     map[ast.Ident]*ast.FuncDef{"helper": helper, "caller": caller},
		FuncOrder: []ast.Ident{"caller", "helper"},
	}
	internalCalls := map[ast.FuncId]map[ast.FuncId]bool{
		ast.UserFunc("caller"): {ast.UserFunc("helper"): true},
	}

	table := BuildPermissionTable(info, internalCalls)
	assert.True(t, table["helper"])
	assert.True(t, table["caller"])
}

func TestBuildPermissionTableStopsAtPublicCaller(t *testing.T) {
	helper := &ast.FuncDef{Name: ast.UserFunc("helper"), Public: false, UsePermissionCheck: true, Body: []ast.Stmt{checkPermissionCallStmt()}}
	// A public caller of a checked private helper is marked, but its mark
	// is not passed on: the private function calling the public one stays
	// unmarked.
	pub := &ast.FuncDef{Name: ast.UserFunc("pub"), Public: true, UsePermissionCheck: true, Body: []ast.Stmt{}}
	outer := &ast.FuncDef{Name: ast.UserFunc("outer"), Public: false, UsePermissionCheck: true, Body: []ast.Stmt{}}
	info := &ContractInfo{
		Funcs:     map[ast.Ident]*ast.FuncDef{"helper": helper, "pub": pub, "outer": outer},
		FuncOrder: []ast.Ident{"outer", "pub", "helper"},
	}
	internalCalls := map[ast.FuncId]map[ast.FuncId]bool{
		ast.UserFunc("pub"):   {ast.UserFunc("helper"): true},
		ast.UserFunc("outer"): {ast.UserFunc("pub"): true},
	}

	table := BuildPermissionTable(info, internalCalls)
	assert.True(t, table["helper"])
	assert.True(t, table["pub"])
	assert.False(t, table["outer"])
}

func TestBuildPermissionTableExemptWhenUsePermissionCheckFalse(t *testing.T) {
	f := &ast.FuncDef{Name: ast.UserFunc("f"), UsePermissionCheck: false, Body: []ast.Stmt{}}
	info := &ContractInfo{Funcs: map[ast.Ident]*ast.FuncDef{"f": f}, FuncOrder: []ast.Ident{"f"}}

	table := BuildPermissionTable(info, nil)
	assert.True(t, table["f"])
}

func TestAnalyzePermissionsFlagsUncheckedInterfaceImplementation(t *testing.T) {
	iface := &ast.ContractInterface{
		Name:  "I",
		Funcs: []*ast.FuncDef{{Name: ast.UserFunc("must"), Public: true, UsePermissionCheck: true}},
	}
	impl := &ast.FuncDef{Name: ast.UserFunc("must"), Public: true, UsePermissionCheck: true, Body: []ast.Stmt{}}
	target := &ast.Contract{
		Name:     "T",
		Inherits: []ast.ContractInheritance{{Parent: "I"}},
		Funcs:    []*ast.FuncDef{impl},
	}
	mc := &ast.MultiContract{Units: []ast.Unit{iface, target}}

	// Run through the real inheritance resolver, so the implementation
	// overwrites the abstract declaration exactly as it would for any
	// compiled contract: the rule must still fire after that merge.
	contracts, errs := NewResolver(mc).Resolve()
	require.Empty(t, errs)

	st := NewState(target, contracts, DefaultConfig())
	AnalyzePermissions(st, contracts["T"], mc, map[ast.TypeId]*State{"T": st}, contracts)

	require.Len(t, st.Errors, 1)
	assert.Contains(t, st.Errors[0].Message, "No permission check for function: T.must")
}
