// Package vm implements the plang execution engine.
//
// This package contains:
//   - The runtime value model with copy, clone and equality rules
//   - Frames for lexical blocks and function boundaries
//   - The instruction set, programs and their debug tables
//   - The stack interpreter with re-entrant native calls
//   - The standard natives and the host I/O adapter
//   - Problems and traces for runtime diagnostics
package vm
