// Package embproto defines the embedded protocol's envelope types and an
// opaque Codec boundary between them and the wire. Code generation for the
// wire schema is explicitly out of scope (spec §1) — this package hand-
// encodes/decodes using the real protobuf wire primitives
// (google.golang.org/protobuf/encoding/protowire) rather than a bespoke
// format, the same way aistore's transport package hand-packs its own
// binary headers (transport/pdu.go) instead of reaching for a framing
// library.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package embproto

import (
	"math"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/sass-contrib/embedded-host-go/internal/errs"
)

// rawField holds one decoded (tag, value) pair before a message-specific
// unmarshal step interprets it against its known field numbers.
type rawField struct {
	typ    protowire.Type
	varint uint64
	bytes  []byte
}

// parseFields walks a length-delimited message body into a multimap of
// field number to raw values, preserving repetition (repeated fields,
// oneofs) for the caller to interpret.
func parseFields(b []byte) (map[int][]rawField, error) {
	fields := make(map[int][]rawField, 8)
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, decodeErr(n)
		}
		b = b[n:]
		switch typ {
		case protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, decodeErr(n)
			}
			b = b[n:]
			fields[int(num)] = append(fields[int(num)], rawField{typ: typ, varint: v})
		case protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, decodeErr(n)
			}
			b = b[n:]
			cp := append([]byte(nil), v...)
			fields[int(num)] = append(fields[int(num)], rawField{typ: typ, bytes: cp})
		case protowire.Fixed64Type:
			v, n := protowire.ConsumeFixed64(b)
			if n < 0 {
				return nil, decodeErr(n)
			}
			b = b[n:]
			fields[int(num)] = append(fields[int(num)], rawField{typ: typ, varint: v})
		case protowire.Fixed32Type:
			v, n := protowire.ConsumeFixed32(b)
			if n < 0 {
				return nil, decodeErr(n)
			}
			b = b[n:]
			fields[int(num)] = append(fields[int(num)], rawField{typ: typ, varint: uint64(v)})
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, decodeErr(n)
			}
			b = b[n:]
		}
	}
	return fields, nil
}

func decodeErr(n int) error {
	return errs.WrapProtocolError(protowire.ParseError(n), "embproto: malformed message")
}

// builder appends fields, in the order its methods are called, onto an
// accumulating byte slice; zero-value fields (empty string, 0, false) are omitted, matching
// proto3 implicit-presence semantics.
type builder struct{ b []byte }

func (w *builder) varint(num int, v uint64) {
	if v == 0 {
		return
	}
	w.b = protowire.AppendTag(w.b, protowire.Number(num), protowire.VarintType)
	w.b = protowire.AppendVarint(w.b, v)
}

func (w *builder) forceVarint(num int, v uint64) {
	w.b = protowire.AppendTag(w.b, protowire.Number(num), protowire.VarintType)
	w.b = protowire.AppendVarint(w.b, v)
}

func (w *builder) boolean(num int, v bool) {
	if !v {
		return
	}
	w.forceVarint(num, 1)
}

func (w *builder) str(num int, s string) {
	if s == "" {
		return
	}
	w.b = protowire.AppendTag(w.b, protowire.Number(num), protowire.BytesType)
	w.b = protowire.AppendString(w.b, s)
}

func (w *builder) bytesField(num int, v []byte) {
	if len(v) == 0 {
		return
	}
	w.b = protowire.AppendTag(w.b, protowire.Number(num), protowire.BytesType)
	w.b = protowire.AppendBytes(w.b, v)
}

// msg appends v, already the nested message's own encoded bytes, as a
// length-delimited field.
func (w *builder) msg(num int, v []byte) { w.bytesField(num, v) }

func (w *builder) double(num int, v float64) {
	if v == 0 {
		return
	}
	w.b = protowire.AppendTag(w.b, protowire.Number(num), protowire.Fixed64Type)
	w.b = protowire.AppendFixed64(w.b, math.Float64bits(v))
}

func (w *builder) bytesOut() []byte { return w.b }

//
// getters
//

func getString(f map[int][]rawField, num int) string {
	vs := f[num]
	if len(vs) == 0 {
		return ""
	}
	return string(vs[len(vs)-1].bytes)
}

func getUint64(f map[int][]rawField, num int) uint64 {
	vs := f[num]
	if len(vs) == 0 {
		return 0
	}
	return vs[len(vs)-1].varint
}

func getUint32(f map[int][]rawField, num int) uint32 { return uint32(getUint64(f, num)) }

func getBool(f map[int][]rawField, num int) bool { return getUint64(f, num) != 0 }

func getBytes(f map[int][]rawField, num int) []byte {
	vs := f[num]
	if len(vs) == 0 {
		return nil
	}
	return vs[len(vs)-1].bytes
}

func getDouble(f map[int][]rawField, num int) float64 {
	vs := f[num]
	if len(vs) == 0 {
		return 0
	}
	return math.Float64frombits(vs[len(vs)-1].varint)
}

func getRepeatedBytes(f map[int][]rawField, num int) [][]byte {
	vs := f[num]
	if len(vs) == 0 {
		return nil
	}
	out := make([][]byte, len(vs))
	for i, v := range vs {
		out[i] = v.bytes
	}
	return out
}

func hasField(f map[int][]rawField, num int) bool { return len(f[num]) > 0 }
