package compiler

import (
	"fmt"

	"github.com/suyanlong/alephium/internal/ast"
	cerrors "github.com/suyanlong/alephium/internal/errors"
	"github.com/suyanlong/alephium/internal/types"
)

// PermissionTable maps every function of a contract to whether it has
// been shown (directly or transitively through private callees) to
// reach a checkPermission call.
type PermissionTable map[ast.Ident]bool

// BuildPermissionTable runs a fixed-point backward propagation over one
// contract's function set and internal call graph: a function starts
// out marked if it directly calls checkPermission, and the mark of a
// private function then propagates to its callers. A public caller is
// marked too, but propagation stops there: a public function's mark is
// not passed on to its own callers.
func BuildPermissionTable(info *ContractInfo, internalCalls map[ast.FuncId]map[ast.FuncId]bool) PermissionTable {
	table := make(PermissionTable)
	isPublic := make(map[ast.Ident]bool)
	for name, f := range info.Funcs {
		table[name] = false
		isPublic[name] = f.Public
	}

	reversed := make(map[ast.Ident][]ast.Ident)
	for callerID, callees := range internalCalls {
		for calleeID := range callees {
			if calleeID.BuiltIn {
				continue
			}
			reversed[calleeID.Name] = append(reversed[calleeID.Name], callerID.Name)
		}
	}

	var mark func(name ast.Ident)
	mark = func(name ast.Ident) {
		if table[name] {
			return
		}
		table[name] = true
		if isPublic[name] {
			return
		}
		for _, caller := range reversed[name] {
			mark(caller)
		}
	}

	for name, f := range info.Funcs {
		if hasDirectPermissionCheck(f) {
			mark(name)
		}
	}
	return table
}

// hasDirectPermissionCheck reports whether a function is exempt from
// the check (UsePermissionCheck == false) or its body directly calls
// the built-in checkPermission.
func hasDirectPermissionCheck(f *ast.FuncDef) bool {
	if !f.UsePermissionCheck {
		return true
	}
	for _, stmt := range f.Body {
		if stmtCallsCheckPermission(stmt) {
			return true
		}
	}
	return false
}

func stmtCallsCheckPermission(stmt ast.Stmt) bool {
	switch n := stmt.(type) {
	case *ast.InternalCallStmt:
		return n.Call.Func == ast.BuiltinFunc(ast.BuiltinCheckPermission)
	case *ast.IfElseStmt:
		for _, s := range n.Then {
			if stmtCallsCheckPermission(s) {
				return true
			}
		}
		for _, ei := range n.ElseIfs {
			for _, s := range ei.Body {
				if stmtCallsCheckPermission(s) {
					return true
				}
			}
		}
		for _, s := range n.Else {
			if stmtCallsCheckPermission(s) {
				return true
			}
		}
	case *ast.WhileStmt:
		for _, s := range n.Body {
			if stmtCallsCheckPermission(s) {
				return true
			}
		}
	case *ast.ForStmt:
		for _, s := range n.Body {
			if stmtCallsCheckPermission(s) {
				return true
			}
		}
	}
	return false
}

// AnalyzePermissions runs the permission-check analyser for the target
// contract: the interface-implementing rule is reported as an error
// into the target state, the external-call rule as a warning.
func AnalyzePermissions(target *State, targetInfo *ContractInfo, mc *ast.MultiContract, states map[ast.TypeId]*State, contracts map[ast.TypeId]*ContractInfo) {
	table := BuildPermissionTable(targetInfo, target.InternalCalls)

	for _, name := range targetInfo.FuncOrder {
		if !targetInfo.FromInterface[name] {
			continue
		}
		f := targetInfo.Funcs[name]
		if f.UsePermissionCheck && !table[name] {
			qualified := fmt.Sprintf("%s.%s", target.UnitName, name)
			target.addError(cerrors.NoPermissionCheck(qualified, ast.Position{}))
		}
	}

	for _, callees := range target.ExternalCalls {
		for callee := range callees {
			calleeInfo, ok := contracts[callee.Type]
			if !ok {
				continue
			}
			if calleeInfo.Kind == types.KindInterface {
				continue // interface callees are always-checked
			}
			calleeTable := BuildPermissionTable(calleeInfo, calleeInternalCalls(states, callee.Type))
			if !calleeTable[callee.Func.Name] {
				qualified := fmt.Sprintf("%s.%s", callee.Type, callee.Func.Name)
				target.AddWarning(cerrors.NoPermissionCheckWarning(qualified, ast.Position{}).Message)
			}
		}
	}
}

func calleeInternalCalls(states map[ast.TypeId]*State, name ast.TypeId) map[ast.FuncId]map[ast.FuncId]bool {
	if st, ok := states[name]; ok {
		return st.InternalCalls
	}
	return nil
}
