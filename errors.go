// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pgas

import (
	"fmt"

	"code.hybscloud.com/iox"
)

// ErrWouldBlock indicates an operation cannot proceed immediately.
// [Future.Wait] returns it for a zero-value Future, which has nothing to
// wait on; for any other future Wait loops internally instead.
//
// This is a control-flow signal, not a failure.
//
// This is an alias for [iox.ErrWouldBlock] for ecosystem consistency with
// the rest of the hybscloud.com stack.
var ErrWouldBlock = iox.ErrWouldBlock

// IsWouldBlock reports whether err indicates the operation would block.
func IsWouldBlock(err error) bool { return iox.IsWouldBlock(err) }

// IsSemantic reports whether err is a control-flow signal, not a failure.
func IsSemantic(err error) bool { return iox.IsSemantic(err) }

// IsNonFailure reports whether err represents a non-failure condition.
func IsNonFailure(err error) bool { return iox.IsNonFailure(err) }

// AllocError reports shared-heap exhaustion from [NewNoThrow] or
// [NewArrayNoThrow]. It is a genuine error value (unlike a precondition
// violation, which is fatal) because callers of the nothrow-style
// constructors are expected to catch and report it.
type AllocError struct {
	Rank  Rank
	Where string
	NBytes uint64
	Reason string
}

func (e *AllocError) Error() string {
	msg := fmt.Sprintf("pgas: shared heap is out of memory on rank %d", e.Rank)
	if e.Where != "" {
		msg += fmt.Sprintf("\n inside pgas.%s", e.Where)
	}
	if e.NBytes != 0 {
		msg += fmt.Sprintf(" while trying to allocate %d more bytes", e.NBytes)
	}
	if e.Reason != "" {
		msg += "\n " + e.Reason
	}
	msg += "\n you may need to request a larger shared heap with PGAS_SHARED_HEAP_SIZE"
	return msg
}
