package compiler

import (
	"github.com/suyanlong/alephium/internal/ast"
	cerrors "github.com/suyanlong/alephium/internal/errors"
	"github.com/suyanlong/alephium/internal/instr"
	"github.com/suyanlong/alephium/internal/types"
)

// Method is one compiled function, in flattened cell counts.
type Method struct {
	IsPublic             bool
	UsePreapprovedAssets bool
	UseAssetsInContract  bool
	ArgsLength           int
	LocalsLength         int
	ReturnLength         int
	Instrs               []instr.Instruction
}

// StatelessScript is the output shape for an AssetScript.
type StatelessScript struct {
	Methods []Method
}

// StatefulScript is the output shape for a TxScript: its first method
// must be public, the rest private.
type StatefulScript struct {
	Methods []Method
}

// StatefulContract is the output shape for a Contract.
type StatefulContract struct {
	FieldLength int
	Methods     []Method
}

// Output is the tagged result of Compile: exactly one of the three
// fields is set, matching the target unit's kind.
type Output struct {
	Stateless *StatelessScript
	Stateful  *StatefulScript
	Contract  *StatefulContract
}

// Result bundles a successful Compile call's code and warnings.
type Result struct {
	Output   Output
	Warnings []string
}

// Compile is the top-level compiler entrypoint: given a fully resolved
// AST, a configuration, and the index of the unit to compile inside the
// MultiContract, it runs semantic analysis, code generation, and
// permission analysis, returning one of the three output shapes.
func Compile(mc *ast.MultiContract, cfg Config, targetIndex int) (*Result, []cerrors.CompilerError) {
	if targetIndex < 0 || targetIndex >= len(mc.Units) {
		return nil, []cerrors.CompilerError{cerrors.InvalidContractIndex(ast.Position{})}
	}

	resolver := NewResolver(mc)
	contracts, errs := resolver.Resolve()
	if len(errs) > 0 {
		return nil, errs
	}

	states := make(map[ast.TypeId]*State)
	for _, u := range mc.Units {
		states[u.UnitName()] = NewState(u, contracts, cfg)
	}

	target := mc.Units[targetIndex]
	targetState := states[target.UnitName()]

	var allErrors []cerrors.CompilerError
	methods, err := genUnitMethods(target, targetState, contracts[target.UnitName()])
	allErrors = append(allErrors, targetState.Errors...)
	if err != nil {
		allErrors = append(allErrors, toCompilerError(err, ast.Position{}))
	}

	for _, u := range mc.Units {
		if u.UnitName() == target.UnitName() {
			continue
		}
		c, ok := u.(*ast.Contract)
		if !ok || c.Abstract {
			continue
		}
		st := states[u.UnitName()]
		_, _ = genUnitMethods(u, st, contracts[u.UnitName()])
	}

	if len(allErrors) > 0 {
		return nil, allErrors
	}

	AnalyzePermissions(targetState, contracts[target.UnitName()], mc, states, contracts)
	if len(targetState.Errors) > 0 {
		return nil, targetState.Errors
	}

	out := Output{}
	switch u := target.(type) {
	case *ast.AssetScript:
		out.Stateless = &StatelessScript{Methods: methods}
	case *ast.TxScript:
		if len(methods) > 0 {
			if !methods[0].IsPublic {
				return nil, []cerrors.CompilerError{cerrors.InvalidContractIndex(ast.Position{})}
			}
			for _, m := range methods[1:] {
				if m.IsPublic {
					return nil, []cerrors.CompilerError{cerrors.InvalidContractIndex(ast.Position{})}
				}
			}
		}
		out.Stateful = &StatefulScript{Methods: methods}
	case *ast.Contract:
		fieldLen := 0
		for _, f := range u.Fields {
			fieldLen += types.FlattenTypeLength([]types.Type{f.Type})
		}
		out.Contract = &StatefulContract{FieldLength: fieldLen, Methods: methods}
	}

	return &Result{Output: out, Warnings: targetState.Warnings()}, nil
}

func toCompilerError(err error, pos ast.Position) cerrors.CompilerError {
	if ce, ok := err.(cerrors.CompilerError); ok {
		return ce
	}
	return cerrors.NewSemanticError(cerrors.ErrorInvalidOperation, err.Error(), pos).Build()
}

func genUnitMethods(u ast.Unit, st *State, info *ContractInfo) ([]Method, error) {
	for _, tv := range unitTemplateVars(u) {
		if _, err := st.AddTemplateVariable(tv.Name, tv.Type, ast.Position{}); err != nil {
			return nil, err
		}
	}
	if c, ok := u.(*ast.Contract); ok {
		for _, fl := range c.Fields {
			if _, err := st.AddFieldVariable(fl.Name, fl.Type, fl.Mutable, fl.Unused, ast.Position{}); err != nil {
				return nil, err
			}
		}
		for _, cv := range info.Constants {
			if _, err := st.AddConstantVariable(cv.Name, cv.Value, ast.Position{}); err != nil {
				return nil, err
			}
		}
		for _, ed := range info.Enums {
			for _, fl := range ed.Fields {
				name := ast.Ident(string(ed.Name) + "." + string(fl.Name))
				if _, err := st.AddConstantVariable(name, fl.Value, ast.Position{}); err != nil {
					return nil, err
				}
			}
		}
		for _, ev := range c.Events {
			st.RegisterEvent(ev.Name)
		}
	}

	methods := make([]Method, 0, len(info.FuncOrder))
	for _, name := range info.FuncOrder {
		f := info.Funcs[name]
		if f.IsAbstract() {
			continue
		}
		st.CheckFunctionTerminates(f)
		instrs, err := st.GenFunc(f)
		if err != nil {
			return nil, err
		}
		locals := localsLength(instrs)
		methods = append(methods, Method{
			IsPublic:             f.Public,
			UsePreapprovedAssets: f.UsePreapprovedAssets,
			UseAssetsInContract:  f.UseAssetsInContract,
			ArgsLength:           types.FlattenTypeLength(argTypes(f)),
			LocalsLength:         locals,
			ReturnLength:         types.FlattenTypeLength(f.Returns),
			Instrs:               instrs,
		})
	}
	if _, ok := u.(*ast.Contract); ok {
		st.CheckUnusedFields()
	}
	return methods, nil
}

func unitTemplateVars(u ast.Unit) []ast.Argument {
	switch n := u.(type) {
	case *ast.AssetScript:
		return n.TemplateVars
	case *ast.TxScript:
		return n.TemplateVars
	case *ast.Contract:
		return n.TemplateVars
	default:
		return nil
	}
}

func argTypes(f *ast.FuncDef) []types.Type {
	ts := make([]types.Type, len(f.Args))
	for i, a := range f.Args {
		ts[i] = a.Type
	}
	return ts
}

// localsLength is the highest local slot index referenced, plus one,
// computed by scanning the emitted instruction stream for
// Load/StoreLocal/base operands.
func localsLength(instrs []instr.Instruction) int {
	max := -1
	for _, in := range instrs {
		switch in.Op {
		case instr.LoadLocal, instr.StoreLocal, instr.LoadLocalBase, instr.StoreLocalBase:
			if in.Index > max {
				max = in.Index
			}
		}
	}
	return max + 1
}
