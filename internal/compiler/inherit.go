package compiler

import (
	"sort"

	"github.com/suyanlong/alephium/internal/ast"
	cerrors "github.com/suyanlong/alephium/internal/errors"
	"github.com/suyanlong/alephium/internal/types"
)

// ancestorInfo is one step of a resolved inheritance chain: the parent
// unit's name plus how many ancestors it itself has (used to order
// inherited interfaces by depth, fewest ancestors first, per spec).
type ancestorInfo struct {
	Name      ast.TypeId
	Kind      types.ContractKind
	Ancestors int
}

// Resolver walks the MultiContract's inheritance graph once, memoising
// each unit's ancestor chain, then expands every non-script unit's
// funcs, constants and enums by merging along that chain. Events are
// not merged: a unit's
// ContractInfo carries no events, inherited or its own.
type Resolver struct {
	mc       *ast.MultiContract
	cache    map[ast.TypeId][]ancestorInfo
	visiting map[ast.TypeId]bool
	errors   []cerrors.CompilerError
}

func NewResolver(mc *ast.MultiContract) *Resolver {
	return &Resolver{
		mc:       mc,
		cache:    make(map[ast.TypeId][]ancestorInfo),
		visiting: make(map[ast.TypeId]bool),
	}
}

// Resolve builds the full ContractInfo registry: field layout, kind,
// and merged function table for every unit in the MultiContract.
func (r *Resolver) Resolve() (map[ast.TypeId]*ContractInfo, []cerrors.CompilerError) {
	reg := make(map[ast.TypeId]*ContractInfo)
	for _, u := range r.mc.Units {
		reg[u.UnitName()] = &ContractInfo{Kind: u.UnitKind(), Funcs: make(map[ast.Ident]*ast.FuncDef)}
		if c, ok := u.(*ast.Contract); ok {
			reg[u.UnitName()].Fields = c.Fields
		}
	}

	for _, u := range r.mc.Units {
		switch u.(type) {
		case *ast.Contract, *ast.ContractInterface:
			r.ancestorsOf(u.UnitName())
		}
	}
	if len(r.errors) > 0 {
		return reg, r.errors
	}

	for _, u := range r.mc.Units {
		switch n := u.(type) {
		case *ast.Contract:
			r.expandContract(n, reg)
		case *ast.ContractInterface:
			r.expandInterface(n, reg)
		case *ast.AssetScript:
			for _, f := range n.Funcs {
				reg[n.Name].Funcs[f.Name.Name] = f
				reg[n.Name].FuncOrder = append(reg[n.Name].FuncOrder, f.Name.Name)
			}
		case *ast.TxScript:
			for _, f := range n.Funcs {
				reg[n.Name].Funcs[f.Name.Name] = f
				reg[n.Name].FuncOrder = append(reg[n.Name].FuncOrder, f.Name.Name)
			}
		}
	}
	return reg, r.errors
}

func (r *Resolver) parentsOf(name ast.TypeId) []ast.TypeId {
	u, ok := r.mc.Find(name)
	if !ok {
		return nil
	}
	switch n := u.(type) {
	case *ast.Contract:
		ps := make([]ast.TypeId, len(n.Inherits))
		for i, inh := range n.Inherits {
			ps[i] = inh.Parent
		}
		return ps
	case *ast.ContractInterface:
		ps := make([]ast.TypeId, len(n.Inherits))
		for i, inh := range n.Inherits {
			ps[i] = inh.Parent
		}
		return ps
	default:
		return nil
	}
}

// ancestorsOf returns, and memoises, the ordered list of C's transitive
// ancestors (parents-of-parents, depth-first), detecting cycles with a
// visited set.
func (r *Resolver) ancestorsOf(name ast.TypeId) []ancestorInfo {
	if cached, ok := r.cache[name]; ok {
		return cached
	}
	if r.visiting[name] {
		r.errors = append(r.errors, cerrors.CyclicInheritance(string(name), ast.Position{}))
		return nil
	}
	r.visiting[name] = true
	defer delete(r.visiting, name)

	var out []ancestorInfo
	seen := map[ast.TypeId]bool{}
	for _, p := range r.parentsOf(name) {
		if seen[p] {
			continue
		}
		seen[p] = true
		u, ok := r.mc.Find(p)
		if !ok {
			continue
		}
		grand := r.ancestorsOf(p)
		out = append(out, ancestorInfo{Name: p, Kind: u.UnitKind(), Ancestors: len(grand)})
		out = append(out, grand...)
	}
	r.cache[name] = out
	return out
}

// expandContract merges parent-interface funcs (depth-sorted, fewest
// ancestors first, stable), then parent-contract funcs, then own funcs,
// then validates the abstract/implementation merge and field forwarding.
func (r *Resolver) expandContract(c *ast.Contract, reg map[ast.TypeId]*ContractInfo) {
	info := reg[c.Name]
	ancestors := r.cache[c.Name]

	var interfaceAncestors, contractAncestors []ancestorInfo
	for _, a := range ancestors {
		if a.Kind == types.KindInterface {
			interfaceAncestors = append(interfaceAncestors, a)
		} else {
			contractAncestors = append(contractAncestors, a)
		}
	}
	sort.SliceStable(interfaceAncestors, func(i, j int) bool {
		return interfaceAncestors[i].Ancestors < interfaceAncestors[j].Ancestors
	})

	merged := make(map[ast.Ident]*ast.FuncDef)
	fromInterface := make(map[ast.Ident]bool)
	var order []ast.Ident
	merge := func(f *ast.FuncDef, fromIface bool) {
		existing, ok := merged[f.Name.Name]
		if !ok {
			merged[f.Name.Name] = f
			order = append(order, f.Name.Name)
			if fromIface {
				fromInterface[f.Name.Name] = true
			}
			return
		}
		switch {
		case existing.IsAbstract() && !f.IsAbstract():
			if !existing.Signature().Equal(f.Signature()) {
				r.errors = append(r.errors, cerrors.WrongSignature(string(f.Name.Name), ast.Position{}))
			}
			merged[f.Name.Name] = f
		case !existing.IsAbstract() && f.IsAbstract():
			if !existing.Signature().Equal(f.Signature()) {
				r.errors = append(r.errors, cerrors.WrongSignature(string(f.Name.Name), ast.Position{}))
			}
		case existing.IsAbstract() && f.IsAbstract():
			r.errors = append(r.errors, cerrors.DuplicateDefinition("functions", string(f.Name.Name), ast.Position{}))
		default:
			r.errors = append(r.errors, cerrors.DuplicateDefinition("functions", string(f.Name.Name), ast.Position{}))
		}
	}

	for _, a := range interfaceAncestors {
		if iface, ok := r.mc.Find(a.Name); ok {
			for _, f := range iface.(*ast.ContractInterface).Funcs {
				merge(f, true)
			}
		}
	}
	for _, a := range contractAncestors {
		if parent, ok := r.mc.Find(a.Name); ok {
			if pc, ok := parent.(*ast.Contract); ok {
				for _, f := range pc.Funcs {
					merge(f, false)
				}
			}
		}
	}
	for _, f := range c.Funcs {
		merge(f, false)
	}

	for _, n := range order {
		info.Funcs[n] = merged[n]
	}
	info.FuncOrder = order
	info.FromInterface = fromInterface

	if !c.Abstract {
		var unimplemented []string
		for _, n := range order {
			if merged[n].IsAbstract() {
				unimplemented = append(unimplemented, string(n))
			}
		}
		if len(unimplemented) > 0 {
			r.errors = append(r.errors, cerrors.UnimplementedMethods(string(c.Name), unimplemented, ast.Position{}))
		}
	}

	for _, inh := range c.Inherits {
		r.checkFieldForwarding(c, inh)
	}

	info.Constants = nil
	info.Enums = nil
	for _, a := range contractAncestors {
		if parent, ok := r.mc.Find(a.Name); ok {
			if pc, ok := parent.(*ast.Contract); ok {
				info.Constants = append(info.Constants, pc.Constants...)
				info.Enums = append(info.Enums, pc.Enums...)
			}
		}
	}
	info.Constants = append(info.Constants, c.Constants...)
	info.Enums = append(info.Enums, c.Enums...)
}

func (r *Resolver) checkFieldForwarding(c *ast.Contract, inh ast.ContractInheritance) {
	parentUnit, ok := r.mc.Find(inh.Parent)
	if !ok {
		r.errors = append(r.errors, cerrors.ContractDoesNotExist(string(inh.Parent), ast.Position{}))
		return
	}
	pc, ok := parentUnit.(*ast.Contract)
	if !ok {
		if len(inh.Fields) != 0 {
			r.errors = append(r.errors, cerrors.InvalidInheritanceFields(string(c.Name), string(inh.Parent), ast.Position{}))
		}
		return
	}
	if len(inh.Fields) != len(pc.Fields) {
		r.errors = append(r.errors, cerrors.InvalidInheritanceFields(string(c.Name), string(inh.Parent), ast.Position{}))
		return
	}
	byName := make(map[ast.Ident]ast.Argument)
	for _, f := range c.Fields {
		byName[f.Name] = f
	}
	for i, parentField := range pc.Fields {
		childName := inh.Fields[i]
		childField, ok := byName[childName]
		if !ok || !childField.Type.Equal(parentField.Type) || childField.Mutable != parentField.Mutable {
			r.errors = append(r.errors, cerrors.InvalidInheritanceFields(string(c.Name), string(inh.Parent), ast.Position{}))
			return
		}
	}
}

func (r *Resolver) expandInterface(n *ast.ContractInterface, reg map[ast.TypeId]*ContractInfo) {
	info := reg[n.Name]
	for _, f := range n.Funcs {
		if !f.IsAbstract() {
			r.errors = append(r.errors, cerrors.InterfaceHasImplementedMethods(string(n.Name), []string{string(f.Name.Name)}, ast.Position{}))
		}
		info.Funcs[f.Name.Name] = f
		info.FuncOrder = append(info.FuncOrder, f.Name.Name)
	}
	for _, a := range r.cache[n.Name] {
		if parent, ok := r.mc.Find(a.Name); ok {
			if pi, ok := parent.(*ast.ContractInterface); ok {
				for _, f := range pi.Funcs {
					if _, exists := info.Funcs[f.Name.Name]; !exists {
						info.Funcs[f.Name.Name] = f
						info.FuncOrder = append(info.FuncOrder, f.Name.Name)
					}
				}
			}
		}
	}
}
