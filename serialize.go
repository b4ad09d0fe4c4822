// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pgas

import (
	"bytes"
	"encoding/gob"
)

// marshal encodes v into a self-describing byte slice for transport over
// an active-message payload. gob backs this rather than a schema-first
// codec like protobuf: the engine must serialize *arbitrary*
// caller-supplied fn/args pairs known only at the two call sites
// (initiator and receiver), and gob's self-describing stream is the
// standard-library answer to "two ends agree on the Go type, not a
// pre-generated schema" (see DESIGN.md).
func marshal(v any) []byte {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		fatal(0, "pgas: serialization of command body failed: "+err.Error())
	}
	return buf.Bytes()
}

// unmarshal decodes a payload produced by marshal into *v.
func unmarshal(payload []byte, v any) {
	if err := gob.NewDecoder(bytes.NewReader(payload)).Decode(v); err != nil {
		fatal(0, "pgas: deserialization of command body failed: "+err.Error())
	}
}

// subsetTag marks a value as a *partial* serialization — only some
// fields, or a computed projection, were sent — so receiver code can
// assert it is never treated as a full-state object. Embed it by value
// in any payload struct that is deliberately not a full snapshot.
type subsetTag struct{ Subset bool }

// IsSubset reports whether v (a struct embedding subsetTag) was
// deserialized from a partial wire representation.
func IsSubset(v interface{ isSubset() bool }) bool { return v.isSubset() }

func (t subsetTag) isSubset() bool { return t.Subset }

// executorID canonicalises a registered executor function as a wire-
// stable identifier. A native implementation can compute a relative
// offset from a program-wide anchor so the same function has the same
// address on every rank of an SPMD job; Go gives no portable way to
// compare function-pointer offsets across processes (ASLR, differing
// binaries under test), so this module substitutes a registration-order
// id that is identical across ranks only because every rank makes the
// same sequence of registerExecutor calls (at package init and at the
// RPC/AsRPC/reduce call sites that register lazily) in the same order — the
// SPMD program's existing "every rank runs the same code" invariant
// does the job the anchor-offset trick otherwise would.
type executorID uint32

var (
	executorsByID   []func(from Rank, body []byte)
	executorsByName = make(map[string]executorID)
)

// registerExecutor assigns name the next wire id, idempotently: calling
// it twice with the same name returns the same id, so package-level
// `var _ = registerExecutor(...)` initializers across every rank's
// identical binary produce identical tables.
func registerExecutor(name string, fn func(from Rank, body []byte)) executorID {
	if id, ok := executorsByName[name]; ok {
		return id
	}
	id := executorID(len(executorsByID))
	executorsByID = append(executorsByID, fn)
	executorsByName[name] = id
	return id
}

func dispatchExecutor(id executorID, from Rank, body []byte) {
	assertf(from, int(id) < len(executorsByID), "pgas: unknown executor id %d from rank %d (binary skew?)", id, from)
	executorsByID[id](from, body)
}

// encodeCommand builds the wire command body: [executorID][marshal(args)],
// where args is whatever struct fn's executor expects to decode.
func encodeCommand(id executorID, args any) []byte {
	body := marshal(args)
	out := make([]byte, 4+len(body))
	putUint32(out, uint32(id))
	copy(out[4:], body)
	return out
}

func decodeCommandHeader(payload []byte) (executorID, []byte) {
	assertf(0, len(payload) >= 4, "pgas: truncated command header")
	return executorID(getUint32(payload)), payload[4:]
}

func putUint32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

func getUint32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func putUint64(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
}

func getUint64(b []byte) uint64 {
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(b[i]) << (8 * i)
	}
	return v
}
