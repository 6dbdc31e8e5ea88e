// Copyright (c) 2024 Michael D Henderson. All rights reserved.

package resolver_test

import (
	"fmt"
	"testing"

	"github.com/flint-lang/flintfe/internal/resolver"
	"github.com/flint-lang/flintfe/internal/types"
	"github.com/go-test/deep"
)

type memReader map[string]string

func (m memReader) ReadFile(path string) ([]byte, error) {
	src, ok := m[path]
	if !ok {
		return nil, fmt.Errorf("no such file: %s", path)
	}
	return []byte(src), nil
}

func TestCreateDependencyGraphFollowsImports(t *testing.T) {
	files := memReader{
		"/proj/main.fl": "use helper as h\nfunc run() -> i32:\n    return 1\n",
		"/proj/helper.fl": "func add(i32 a, i32 b) -> i32:\n    return a\n",
	}
	r := resolver.New(files, "/proj")

	root, err := r.CreateDependencyGraph("/proj/main.fl")
	if err != nil {
		t.Fatalf("CreateDependencyGraph error: %v", err)
	}
	if root.Path != "/proj/main.fl" {
		t.Fatalf("root path = %q", root.Path)
	}
	nodes := r.Nodes()
	if len(nodes) != 2 {
		t.Fatalf("expected 2 discovered nodes, got %d", len(nodes))
	}
}

func TestCreateDependencyGraphToleratesCycles(t *testing.T) {
	files := memReader{
		"/proj/a.fl": "use b as b\nfunc fa() -> i32:\n    return 1\n",
		"/proj/b.fl": "use a as a\nfunc fb() -> i32:\n    return 2\n",
	}
	r := resolver.New(files, "/proj")

	if _, err := r.CreateDependencyGraph("/proj/a.fl"); err != nil {
		t.Fatalf("CreateDependencyGraph error: %v", err)
	}
	if len(r.Nodes()) != 2 {
		t.Fatalf("expected exactly 2 nodes despite the cycle, got %d", len(r.Nodes()))
	}
}

func TestResolveAllImportsBindsAlias(t *testing.T) {
	files := memReader{
		"/proj/main.fl":   "use helper as h\nfunc run() -> i32:\n    return 1\n",
		"/proj/helper.fl": "func Add(i32 a, i32 b) -> i32:\n    return a\n",
	}
	r := resolver.New(files, "/proj")
	root, err := r.CreateDependencyGraph("/proj/main.fl")
	if err != nil {
		t.Fatalf("CreateDependencyGraph error: %v", err)
	}
	if err := r.ResolveAllImports(); err != nil {
		t.Fatalf("ResolveAllImports error: %v", err)
	}
	if root.NS.Imports["h"] == nil {
		t.Fatalf("expected alias 'h' to be bound to helper's namespace")
	}
}

func TestResolveAllUnknownTypesReportsUnresolved(t *testing.T) {
	files := memReader{
		"/proj/main.fl": "func run(Widget w) -> i32:\n    return 1\n",
	}
	r := resolver.New(files, "/proj")
	if _, err := r.CreateDependencyGraph("/proj/main.fl"); err != nil {
		t.Fatalf("CreateDependencyGraph error: %v", err)
	}
	if err := r.ResolveAllUnknownTypes(); err == nil {
		t.Fatalf("expected an unresolved-type error for 'Widget'")
	}
}

func TestResolveAllUnknownTypesResolvesLocalDataDefinition(t *testing.T) {
	files := memReader{
		"/proj/main.fl": "data MyData:\n    i32 value\n" +
			"func run(MyData d) -> MyData[]:\n    return d\n",
	}
	r := resolver.New(files, "/proj")
	root, err := r.CreateDependencyGraph("/proj/main.fl")
	if err != nil {
		t.Fatalf("CreateDependencyGraph error: %v", err)
	}
	if err := r.ResolveAllUnknownTypes(); err != nil {
		t.Fatalf("expected MyData to resolve within its own file, got: %v", err)
	}

	fn := root.Defs.Ast.Funcs[0]
	paramType, err := root.NS.CreateType(fn.Params[0].Type)
	if err != nil {
		t.Fatalf("CreateType error: %v", err)
	}
	if paramType.Variation() != types.Data {
		t.Fatalf("expected param type to be a resolved Data handle, got %s", paramType.Variation())
	}
}

func TestResolveErrorHierarchyAssignsParentValueCount(t *testing.T) {
	files := memReader{
		"/proj/main.fl": "error IOError: not_found, permission_denied\n" +
			"error NetworkError(IOError): timeout, refused, reset\n",
	}
	r := resolver.New(files, "/proj")
	root, err := r.CreateDependencyGraph("/proj/main.fl")
	if err != nil {
		t.Fatalf("CreateDependencyGraph error: %v", err)
	}
	if err := r.ResolveAllImports(); err != nil {
		t.Fatalf("ResolveAllImports error: %v", err)
	}
	if err := r.ResolveErrorHierarchy(); err != nil {
		t.Fatalf("ResolveErrorHierarchy error: %v", err)
	}

	ioErr := root.NS.ErrorSetDefs["IOError"]
	if ioErr.ParentValueCount != 0 {
		t.Fatalf("IOError (implicit anyerror parent) ParentValueCount = %d, want 0", ioErr.ParentValueCount)
	}
	netErr := root.NS.ErrorSetDefs["NetworkError"]
	if netErr.ParentValueCount != len(ioErr.Members) {
		t.Fatalf("NetworkError.ParentValueCount = %d, want %d (len(IOError.Members))", netErr.ParentValueCount, len(ioErr.Members))
	}
}

func TestResolveErrorHierarchyRejectsUnknownParent(t *testing.T) {
	files := memReader{
		"/proj/main.fl": "error NetworkError(GhostError): timeout\n",
	}
	r := resolver.New(files, "/proj")
	if _, err := r.CreateDependencyGraph("/proj/main.fl"); err != nil {
		t.Fatalf("CreateDependencyGraph error: %v", err)
	}
	if err := r.ResolveErrorHierarchy(); err == nil {
		t.Fatalf("expected an error for an unresolvable parent_error reference")
	}
}

func TestParseAllOpenBodiesSerialAndParallelAgree(t *testing.T) {
	files := memReader{
		"/proj/main.fl": "func run() -> i32:\n    return 1 + 2\n",
	}

	serial := resolver.New(files, "/proj")
	if _, err := serial.CreateDependencyGraph("/proj/main.fl"); err != nil {
		t.Fatalf("CreateDependencyGraph error: %v", err)
	}
	if ok := serial.ParseAllOpenBodies(false, false); !ok {
		t.Fatalf("serial body pass reported failure: %+v", serial.Diagnostics.Items())
	}

	parallel := resolver.New(files, "/proj")
	if _, err := parallel.CreateDependencyGraph("/proj/main.fl"); err != nil {
		t.Fatalf("CreateDependencyGraph error: %v", err)
	}
	if ok := parallel.ParseAllOpenBodies(true, false); !ok {
		t.Fatalf("parallel body pass reported failure: %+v", parallel.Diagnostics.Items())
	}

	serialBody := serial.Nodes()[0].Defs.Funcs[0].Def.Body
	parallelBody := parallel.Nodes()[0].Defs.Funcs[0].Def.Body
	if diff := deep.Equal(serialBody, parallelBody); diff != nil {
		t.Fatalf("serial and parallel body passes diverged: %v", diff)
	}
}

func TestRunEndToEnd(t *testing.T) {
	files := memReader{
		"/proj/main.fl": "use helper as h\nfunc run() -> i32:\n    return 1\n",
		"/proj/helper.fl": "func Add(i32 a, i32 b) -> i32:\n    return a\n",
	}
	r := resolver.New(files, "/proj")
	root, err := r.Run("/proj/main.fl", resolver.RunConfig{Parallel: true})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if len(root.Defs.Funcs[0].Def.Body) == 0 {
		t.Fatalf("expected run()'s body to be parsed after Run")
	}
}
