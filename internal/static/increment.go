// Package static provides go/ssa-based static analysis for the
// unguarded-increment pattern: goroutines that write to shared variables
// (globals or captured locals) with no mutex and no atomic in sight.
package static

import (
	"fmt"
	"go/token"
	"sort"
	"strings"

	"golang.org/x/tools/go/packages"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"
)

// Finding is a static analysis finding (compile-time, no goroutine ID).
type Finding struct {
	Function string // fully qualified function name
	Location string // file:line
	Message  string
}

// AnalyzeUnguarded loads the given Go package patterns and reports writes to
// shared variables inside goroutine-launched functions that use neither a
// mutex nor sync/atomic.
//
// A shared variable is a package-level var or a local captured by the
// goroutine's closure. A store preceded by a load of the same address is
// reported as a read-modify-write (the lost-update pattern); any other store
// is reported as a plain unsynchronized write. Functions that take any
// sync.Mutex/RWMutex lock or call into sync/atomic are skipped: this
// analysis flags the obviously unguarded case, not lock-discipline bugs.
func AnalyzeUnguarded(pkgPatterns []string) ([]Finding, error) {
	cfg := &packages.Config{
		Mode: packages.NeedName |
			packages.NeedFiles |
			packages.NeedCompiledGoFiles |
			packages.NeedImports |
			packages.NeedDeps |
			packages.NeedSyntax |
			packages.NeedTypes |
			packages.NeedTypesInfo,
		Tests: true,
	}

	loaded, err := packages.Load(cfg, pkgPatterns...)
	if err != nil {
		return nil, fmt.Errorf("load packages: %w", err)
	}

	var loadErrs []string
	for _, pkg := range loaded {
		for _, e := range pkg.Errors {
			loadErrs = append(loadErrs, e.Msg)
		}
	}
	if len(loadErrs) > 0 {
		return nil, fmt.Errorf("package load errors: %s", strings.Join(loadErrs, "; "))
	}

	prog, pkgs := ssautil.AllPackages(loaded, ssa.SanityCheckFunctions)
	prog.Build()

	// Phase 1: collect every function launched by a go statement, anywhere
	// in the loaded packages (including closures nested in closures).
	spawned := make(map[*ssa.Function]bool)
	for _, pkg := range pkgs {
		if pkg == nil {
			continue
		}
		for _, mem := range pkg.Members {
			fn, ok := mem.(*ssa.Function)
			if !ok {
				continue
			}
			forEachFunc(fn, func(f *ssa.Function) {
				collectSpawned(f, spawned)
			})
		}
	}

	// Phase 2: analyze each spawned function for unguarded shared writes.
	// Functions are visited in name order so findings come out deterministic;
	// within a function they follow block order.
	fns := make([]*ssa.Function, 0, len(spawned))
	for fn := range spawned {
		fns = append(fns, fn)
	}
	sort.Slice(fns, func(i, j int) bool {
		return fns[i].RelString(nil) < fns[j].RelString(nil)
	})

	var findings []Finding
	for _, fn := range fns {
		findings = append(findings, analyzeFn(fn)...)
	}

	return findings, nil
}

// forEachFunc visits fn and all its anonymous functions, recursively.
func forEachFunc(fn *ssa.Function, visit func(*ssa.Function)) {
	visit(fn)
	for _, anon := range fn.AnonFuncs {
		forEachFunc(anon, visit)
	}
}

// collectSpawned records the static targets of every go statement in fn.
func collectSpawned(fn *ssa.Function, spawned map[*ssa.Function]bool) {
	for _, b := range fn.Blocks {
		for _, instr := range b.Instrs {
			g, ok := instr.(*ssa.Go)
			if !ok {
				continue
			}
			if callee := calleeFunc(g.Call); callee != nil {
				spawned[callee] = true
			}
		}
	}
}

// analyzeFn reports unguarded writes to shared variables in a single
// goroutine-launched function.
func analyzeFn(fn *ssa.Function) []Finding {
	if len(fn.Blocks) == 0 {
		return nil
	}

	// A lock acquisition or an atomic call anywhere in the function means
	// the author reached for synchronization; skip.
	loaded := make(map[ssa.Value]bool)
	for _, b := range fn.Blocks {
		for _, instr := range b.Instrs {
			switch v := instr.(type) {
			case *ssa.Call:
				callee := calleeFunc(v.Call)
				if isLockCall(callee) || isAtomicCall(callee) {
					return nil
				}
			case *ssa.Defer:
				if callee := calleeFunc(v.Call); isLockCall(callee) || isAtomicCall(callee) {
					return nil
				}
			case *ssa.UnOp:
				if v.Op == token.MUL && sharedVarName(v.X) != "" {
					loaded[v.X] = true
				}
			}
		}
	}

	var findings []Finding
	fset := fn.Prog.Fset
	for _, b := range fn.Blocks {
		for _, instr := range b.Instrs {
			store, ok := instr.(*ssa.Store)
			if !ok {
				continue
			}
			name := sharedVarName(store.Addr)
			if name == "" {
				continue
			}
			msg := fmt.Sprintf("unsynchronized write to shared variable %q in goroutine", name)
			if loaded[store.Addr] {
				msg = fmt.Sprintf("unsynchronized read-modify-write of shared variable %q in goroutine (lost-update pattern)", name)
			}
			pos := fset.Position(store.Pos())
			findings = append(findings, Finding{
				Function: fn.RelString(nil),
				Location: fmt.Sprintf("%s:%d", pos.Filename, pos.Line),
				Message:  msg,
			})
		}
	}

	return findings
}

// sharedVarName returns the name of the shared variable addr points at, or
// "" when addr is not shared. Package-level vars and closure-captured locals
// are shared; everything else (locals, parameters, heap temporaries) is not.
func sharedVarName(addr ssa.Value) string {
	switch v := addr.(type) {
	case *ssa.Global:
		return v.Name()
	case *ssa.FreeVar:
		return v.Name()
	}
	return ""
}

// isLockCall returns true if fn is sync.Mutex.Lock, sync.RWMutex.Lock, or
// sync.RWMutex.RLock.
func isLockCall(fn *ssa.Function) bool {
	if fn == nil {
		return false
	}
	s := fn.String()
	return s == "(*sync.Mutex).Lock" ||
		s == "(*sync.RWMutex).Lock" ||
		s == "(*sync.RWMutex).RLock"
}

// isAtomicCall returns true if fn belongs to sync/atomic (function or
// method on one of the typed atomics).
func isAtomicCall(fn *ssa.Function) bool {
	if fn == nil {
		return false
	}
	return strings.HasPrefix(fn.String(), "sync/atomic.") ||
		strings.HasPrefix(fn.String(), "(*sync/atomic.")
}

// calleeFunc extracts the static callee from a CallCommon, or returns nil
// for interface/dynamic calls. Closures launched by go statements appear as
// MakeClosure values.
func calleeFunc(c ssa.CallCommon) *ssa.Function {
	if c.IsInvoke() {
		return nil // interface call
	}
	switch v := c.Value.(type) {
	case *ssa.Function:
		return v
	case *ssa.MakeClosure:
		fn, _ := v.Fn.(*ssa.Function)
		return fn
	}
	return nil
}
