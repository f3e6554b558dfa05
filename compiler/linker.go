package compiler

import (
	"path"

	"github.com/Troppydash/plang-interpreter-sub000/vm"
)

// ModuleLinker resolves imports against module dicts bound in the native
// table with vm.NativeTable.DefineModule, and collects exports into the
// hidden vm.ExportsBinding dict.
type ModuleLinker struct {
	exporting bool
}

// Import binds each imported name locally from the module dict. An import
// without names binds the whole module under its last path element.
func (l *ModuleLinker) Import(imp *Import) ([]Stmt, error) {
	sp := imp.SpanVal
	module := &Variable{SpanVal: sp, Name: vm.ModuleBinding(imp.Path)}

	if len(imp.Names) == 0 {
		return []Stmt{&ExprStmt{SpanVal: sp, X: &Assign{
			SpanVal: sp,
			Target:  &Variable{SpanVal: sp, Name: path.Base(imp.Path)},
			Value:   module,
			Scope:   ScopeLocal,
		}}}, nil
	}

	stmts := make([]Stmt, 0, len(imp.Names))
	for _, name := range imp.Names {
		stmts = append(stmts, &ExprStmt{SpanVal: sp, X: &Assign{
			SpanVal: sp,
			Target:  &Variable{SpanVal: sp, Name: name},
			Value:   &Member{SpanVal: sp, Object: module, Name: name},
			Scope:   ScopeLocal,
		}})
	}
	return stmts, nil
}

// Export stores each name in the exports dict, creating the dict on the
// first export.
func (l *ModuleLinker) Export(exp *Export) ([]Stmt, error) {
	sp := exp.SpanVal
	var stmts []Stmt
	if !l.exporting {
		l.exporting = true
		stmts = append(stmts, &ExprStmt{SpanVal: sp, X: &Assign{
			SpanVal: sp,
			Target:  &Variable{SpanVal: sp, Name: vm.ExportsBinding},
			Value:   &DictLit{SpanVal: sp},
			Scope:   ScopeLocal,
		}})
	}
	for _, name := range exp.Names {
		stmts = append(stmts, &ExprStmt{SpanVal: sp, X: &Assign{
			SpanVal: sp,
			Target:  &Member{SpanVal: sp, Object: &Variable{SpanVal: sp, Name: vm.ExportsBinding}, Name: name},
			Value:   &Variable{SpanVal: sp, Name: name},
		}})
	}
	return stmts, nil
}
