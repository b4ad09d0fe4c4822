// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pgas

// Digest is a 128-bit content hash used as a stable, deterministic
// cross-rank identity key: team ids, dist-object ids, and collective
// sub-ids are all digests derived by "eating" a parent digest together
// with a discriminator (a colour, a counter, ...).
//
// Two ranks that eat the same sequence of values from the same starting
// digest always arrive at the same Digest — this is the identity scheme
// collectives and dist objects rely on to rendezvous without a
// name-exchange handshake.
type Digest struct {
	W0, W1 uint64
}

// ZeroDigest is the root of every Eat chain — every derived id
// ultimately traces back to eating values starting from ZeroDigest (or
// a parent team's id, itself derived from ZeroDigest).
var ZeroDigest = Digest{0, 0}

// movedDigest is the reserved sentinel for a moved-from team or
// dist-object. Any program that legitimately generated this digest
// would conflict with the sentinel, so it is simply treated as reserved.
var movedDigest = Digest{^uint64(0), ^uint64(0)}

// IsMoved reports whether d is the reserved moved-from sentinel.
func (d Digest) IsMoved() bool { return d == movedDigest }

// Eat mixes x0 and x1 into d, returning a new digest. The mix is the
// public-domain SpookyHash short round (Bob Jenkins), with the exact
// rotate amounts fixed so that two independent rank processes computing
// the same eat chain land on bit-identical digests — any other mixing
// function would silently break cross-rank identity agreement.
func (d Digest) Eat(x0, x1 uint64) Digest {
	w0, w1 := d.W0, d.W1
	w2, w3 := x0, x1

	w3 ^= w2
	w2 = bitRotL(w2, 15)
	w3 += w2
	w0 ^= w3
	w3 = bitRotL(w3, 52)
	w0 += w3
	w1 ^= w0
	w0 = bitRotL(w0, 26)
	w1 += w0
	w2 ^= w1
	w1 = bitRotL(w1, 51)
	w2 += w1
	w3 ^= w2
	w2 = bitRotL(w2, 28)
	w3 += w2
	w0 ^= w3
	w3 = bitRotL(w3, 9)
	w0 += w3
	w1 ^= w0
	w0 = bitRotL(w0, 47)
	w1 += w0
	w2 ^= w1
	w1 = bitRotL(w1, 54)
	w2 += w1
	w3 ^= w2
	w2 = bitRotL(w2, 32)
	w3 += w2
	w0 ^= w3
	w3 = bitRotL(w3, 25)
	w0 += w3
	w1 ^= w0
	w0 = bitRotL(w0, 63)
	w1 += w0

	return Digest{w0, w1}
}

// EatDigest is Eat(other.W0, other.W1) — mixing in a whole digest rather
// than two raw words, used to derive a child id from two parent-scoped
// digests (e.g. a dist-object id eating a team id).
func (d Digest) EatDigest(other Digest) Digest {
	return d.Eat(other.W0, other.W1)
}

func bitRotL(x uint64, sh uint) uint64 {
	return (x << sh) | (x >> (64 - sh))
}

// Less gives the lexicographic ordering on (W0,W1), for any ordered
// container of digests.
func (d Digest) Less(other Digest) bool {
	if d.W0 != other.W0 {
		return d.W0 < other.W0
	}
	return d.W1 < other.W1
}

func (d Digest) String() string {
	return digestHex(d.W0) + digestHex(d.W1)
}

func digestHex(w uint64) string {
	const hexDigits = "0123456789abcdef"
	buf := make([]byte, 16)
	for i := 15; i >= 0; i-- {
		buf[i] = hexDigits[w&0xf]
		w >>= 4
	}
	return string(buf)
}
