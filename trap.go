// Copyright 2024 The motoko-rts-go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gc

import "github.com/pkg/errors"

// Debug gates the sanity checks and tag-corruption assertions described in
// spec.md §7. It is false by default (matching mgc.go's _DebugGC = 0
// convention) and flipped on by cmd/gcbench's --debug flag; the tests run
// with it off.
var Debug = false

// TrapError is the type carried by every fatal collector panic: allocation
// exhaustion, tag corruption, phase-precondition violations, and sanity
// check failures (spec.md §7, categories a–d). There are no recoverable
// errors in the core — the mutator sees only successful allocations or
// termination — so TrapError is always delivered via panic, never as a
// return value.
type TrapError struct {
	msg string
}

func (t *TrapError) Error() string { return t.msg }

// Trap terminates the current GC operation with a UTF-8 message, mirroring
// the host's rts_trap(ptr, len) entry point. It is unrecoverable from the
// core's point of view; only an outermost harness (cmd/gcbench) may choose
// to recover it for reporting.
func Trap(msg string) {
	panic(&TrapError{msg: msg})
}

// Trapf wraps an underlying error with collector context before trapping,
// used at the Memory boundary where host allocation failures are the one
// place spec.md treats as carrying a cause worth preserving.
func Trapf(cause error, msg string) {
	panic(&TrapError{msg: errors.Wrap(cause, msg).Error()})
}

// BigintTrap terminates with an arithmetic-fault message. The collector
// itself never raises one; it exists so callers outside bignum (out of
// scope per spec.md §1) can route through the same unrecoverable path.
func BigintTrap(msg string) {
	panic(&TrapError{msg: "bigint: " + msg})
}

// assert panics with a TrapError if cond is false and Debug is enabled. It
// is a no-op in release builds, matching mgc.go's _DebugGC-gated checks.
func assert(cond bool, msg string) {
	if Debug && !cond {
		Trap("assertion failed: " + msg)
	}
}
