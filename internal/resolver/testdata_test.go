// Copyright (c) 2024 Michael D Henderson. All rights reserved.

package resolver_test

import (
	"fmt"
	"testing"

	"github.com/flint-lang/flintfe/internal/resolver"
	"github.com/google/uuid"
)

// scratchPath returns a unique synthetic source path under /scratch so
// fixtures built by concurrently-run (t.Parallel) test functions never
// collide on a Resolver's node-dedup table, the way a shared on-disk
// scratch directory would.
func scratchPath(name string) string {
	return fmt.Sprintf("/scratch/%s/%s", uuid.NewString(), name)
}

func TestCreateDependencyGraphDistinctScratchRootsDoNotCollide(t *testing.T) {
	t.Parallel()

	rootA := scratchPath("main.fl")
	rootB := scratchPath("main.fl")
	if rootA == rootB {
		t.Fatalf("expected distinct scratch roots, got the same path twice: %s", rootA)
	}

	filesA := memReader{rootA: "func run() -> i32:\n    return 1\n"}
	filesB := memReader{rootB: "func run() -> i32:\n    return 2\n"}

	rA := resolver.New(filesA, "/scratch")
	rB := resolver.New(filesB, "/scratch")

	if _, err := rA.CreateDependencyGraph(rootA); err != nil {
		t.Fatalf("CreateDependencyGraph(rootA) error: %v", err)
	}
	if _, err := rB.CreateDependencyGraph(rootB); err != nil {
		t.Fatalf("CreateDependencyGraph(rootB) error: %v", err)
	}

	if len(rA.Nodes()) != 1 || len(rB.Nodes()) != 1 {
		t.Fatalf("expected each scratch root to resolve to its own single-node graph")
	}
	if rA.Nodes()[0].Path == rB.Nodes()[0].Path {
		t.Fatalf("scratch roots leaked into each other's graph")
	}
}
