// Copyright (c) 2024 Michael D Henderson. All rights reserved.

// Package hashid derives an 8-character, cross-file-stable identifier
// from a normalized file path. It is distinct from a cryptographic hash:
// the 62-symbol alphabet over 8 positions yields roughly 2^48 possible
// values, which is acceptable for disambiguating files and core modules
// but is not collision-resistant in the cryptographic sense.
//
// Grounded on the teacher's internal/stdlib file-hashing helpers (SHA1
// over file contents, rendered as a fixed-width digest), re-expressed
// here as a base-62 digest of a normalized path string per spec §6.
package hashid

import (
	"crypto/sha1"
	"path/filepath"
	"strings"
)

const (
	// Length is the fixed width of every hash value.
	Length = 8
	// Empty is the sentinel meaning "no file".
	Empty = "00000000"

	alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

// FromPath normalizes filePath (absolute -> relative to cwd -> lexically
// normal -> '/'-separated) and returns its 8-character hash. cwd is the
// working directory to relativize against; passing "" skips that step,
// so a relative filePath is only cleaned and '/'-separated.
func FromPath(filePath, cwd string) string {
	norm := Normalize(filePath, cwd)
	return FromString(norm)
}

// Normalize applies the path normalization rules from spec §6
// "File-path hashing" steps 1-4.
func Normalize(filePath, cwd string) string {
	if filePath == "" {
		return ""
	}
	abs := filePath
	if !filepath.IsAbs(abs) {
		if cwd != "" {
			abs = filepath.Join(cwd, abs)
		}
	}
	rel := abs
	if cwd != "" {
		if r, err := filepath.Rel(cwd, abs); err == nil {
			rel = r
		}
	}
	rel = filepath.Clean(rel)
	return strings.ReplaceAll(rel, "\\", "/")
}

// FromString hashes an already-normalized string directly. Used for
// core-module names, which are hashed without any path normalization.
func FromString(s string) string {
	if s == "" {
		return Empty
	}
	sum := sha1.Sum([]byte(s))

	// fold the 20-byte digest down into Length base-62 characters:
	// character i mixes digest byte i, digest byte (i*3+7) mod 20 and
	// the position i, reduced modulo len(alphabet).
	out := make([]byte, Length)
	for i := 0; i < Length; i++ {
		b := sum[i%len(sum)]
		shift := sum[(i*3+7)%len(sum)]
		idx := (int(b) + int(shift)*31 + i*131) % len(alphabet)
		out[i] = alphabet[idx]
	}
	// keep the first character out of the digit range so a real hash can
	// never collide with the "00000000" sentinel.
	if out[0] >= '0' && out[0] <= '9' {
		out[0] = alphabet[int(out[0]-'0')]
	}
	return string(out)
}

// IsEmpty reports whether h is the "no file" sentinel.
func IsEmpty(h string) bool { return h == Empty || h == "" }
