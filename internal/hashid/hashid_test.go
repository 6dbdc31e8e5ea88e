// Copyright (c) 2024 Michael D Henderson. All rights reserved.

package hashid_test

import (
	"testing"

	"github.com/flint-lang/flintfe/internal/hashid"
)

func TestFromString_Stable(t *testing.T) {
	a := hashid.FromString("core:io")
	b := hashid.FromString("core:io")
	if a != b {
		t.Fatalf("hash not stable: %q vs %q", a, b)
	}
	if len(a) != hashid.Length {
		t.Fatalf("hash length = %d, want %d", len(a), hashid.Length)
	}
	if a[0] < 'A' || (a[0] > 'Z' && a[0] < 'a') || a[0] > 'z' {
		t.Fatalf("first char %q is not a letter", a[0])
	}
}

func TestFromString_EmptySentinel(t *testing.T) {
	if hashid.FromString("") != hashid.Empty {
		t.Fatalf("empty input should hash to sentinel %q", hashid.Empty)
	}
	if !hashid.IsEmpty(hashid.Empty) {
		t.Fatal("IsEmpty(Empty) should be true")
	}
}

func TestNormalize_BackslashToSlash(t *testing.T) {
	got := hashid.Normalize(`sub\dir\file.fl`, "")
	want := "sub/dir/file.fl"
	if got != want {
		t.Fatalf("Normalize = %q, want %q", got, want)
	}
}

func TestFromPath_DifferentPathsDifferentHash(t *testing.T) {
	a := hashid.FromPath("/proj/a.fl", "/proj")
	b := hashid.FromPath("/proj/b.fl", "/proj")
	if a == b {
		t.Fatal("expected distinct hashes for distinct paths")
	}
}
