// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pgas

import (
	"fmt"
	"os"
	"runtime"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// noiseEnabled gates conditional logging the way coatyio's clog package
// gates its Printf: a global switch flipped once at Init, checked on every
// call. Kept as a plain atomic.Bool (not atomix) since this is a coarse,
// rarely-toggled flag outside the hot LPC/HCB paths that atomix backs.
var noiseEnabled atomic.Bool

// EnableNoise turns on verbose diagnostic logging for the remainder of
// the process. Init calls this automatically when PGAS_VERBOSE is set.
func EnableNoise() { noiseEnabled.Store(true) }

// diagLogger is the process-wide structured logger, built on zerolog
// instead of a bare *log.Logger. fatal attaches structured rank, host
// and location fields; noisef lines carry only the timestamp and the
// message.
var diagLogger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05.000"}).
	With().Timestamp().Logger()

// noisef logs a conditional diagnostic line (suppressed unless noise is
// enabled), in the manner of clog.Printf.
func noisef(format string, args ...any) {
	if !noiseEnabled.Load() {
		return
	}
	diagLogger.Debug().Msg(fmt.Sprintf(format, args...))
}

// fatal prints a banner naming the rank, host, call site, and cause, then
// terminates the process via os.Exit: the core never silently swallows a
// precondition violation or transport failure. Unlike AllocError this is
// not an error value: nothing recovers from it, matching upc++'s
// fatal_error, which never returns.
func fatal(rank Rank, cause string) {
	_, file, line, _ := runtime.Caller(2)
	host, _ := os.Hostname()
	diagLogger.Error().
		Int("rank", int(rank)).
		Str("host", host).
		Str("location", fmt.Sprintf("%s:%d", file, line)).
		Msg(cause)
	os.Exit(1)
}

// assertf is the diagnostic-assertion mechanism for precondition
// violations: a null pointer to a non-null op, calling a collective off
// master, touching a finalized team. All are fatal, never recoverable.
func assertf(rank Rank, cond bool, format string, args ...any) {
	if cond {
		return
	}
	fatal(rank, fmt.Sprintf(format, args...))
}
