// Copyright (c) 2024 Michael D Henderson. All rights reserved.

// Package cerrs defines constant error types using a custom Error string type.
// It centralizes common sentinel errors for front-end failures such as
// cyclic imports, unknown types, and ambiguous overloads. The Error type
// supports comparison via errors.Is().
package cerrs
