// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package simtransport

import (
	"math"

	"code.hybscloud.com/pgas"
)

// reduceBytes combines every rank's contribution (each the same width,
// 4 or 8 bytes, matching dt) into one result of that width, using op's
// associative combine rule.
func reduceBytes(contribs [][]byte, dt pgas.DataType, op pgas.ReduceOp) []byte {
	if len(contribs) == 0 {
		return nil
	}
	width := len(contribs[0])
	if width == 4 {
		return reduce32(contribs, dt, op)
	}
	return reduce64(contribs, dt, op)
}

func reduce32(contribs [][]byte, dt pgas.DataType, op pgas.ReduceOp) []byte {
	isFloat := dt == pgas.DataFloat32
	acc := decode32(contribs[0], isFloat)
	for _, c := range contribs[1:] {
		acc = combine(acc, decode32(c, isFloat), op)
	}
	out := make([]byte, 4)
	encode32(out, acc, isFloat)
	return out
}

func reduce64(contribs [][]byte, dt pgas.DataType, op pgas.ReduceOp) []byte {
	isFloat := dt == pgas.DataFloat64
	acc := decode64(contribs[0], isFloat)
	for _, c := range contribs[1:] {
		acc = combine(acc, decode64(c, isFloat), op)
	}
	out := make([]byte, 8)
	encode64(out, acc, isFloat)
	return out
}

func combine(a, b float64, op pgas.ReduceOp) float64 {
	switch op {
	case pgas.ReduceAdd:
		return a + b
	case pgas.ReduceMul:
		return a * b
	case pgas.ReduceMin:
		if b < a {
			return b
		}
		return a
	case pgas.ReduceMax:
		if b > a {
			return b
		}
		return a
	case pgas.ReduceAnd:
		return float64(int64(a) & int64(b))
	case pgas.ReduceOr:
		return float64(int64(a) | int64(b))
	case pgas.ReduceXor:
		return float64(int64(a) ^ int64(b))
	default:
		return b
	}
}

func decode32(b []byte, isFloat bool) float64 {
	u := uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
	if isFloat {
		return float64(math.Float32frombits(u))
	}
	return float64(int32(u))
}

func encode32(out []byte, v float64, isFloat bool) {
	var u uint32
	if isFloat {
		u = math.Float32bits(float32(v))
	} else {
		u = uint32(int32(v))
	}
	out[0], out[1], out[2], out[3] = byte(u), byte(u>>8), byte(u>>16), byte(u>>24)
}

func decode64(b []byte, isFloat bool) float64 {
	u := getUint64(b)
	if isFloat {
		return math.Float64frombits(u)
	}
	return float64(int64(u))
}

func encode64(out []byte, v float64, isFloat bool) {
	var u uint64
	if isFloat {
		u = math.Float64bits(v)
	} else {
		u = uint64(int64(v))
	}
	putUint64(out, u)
}
