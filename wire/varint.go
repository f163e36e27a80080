// Package wire implements the length-prefixed framing the embedded
// protocol runs over: a base-128 little-endian unsigned varint followed by
// exactly that many bytes of payload.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package wire

import (
	"io"

	"github.com/pkg/errors"

	"github.com/sass-contrib/embedded-host-go/internal/errs"
)

const maxVarintBytes = 10 // ceil(64/7)

// ReadUvarint reads a base-128 LEB unsigned varint one byte at a time from
// r. It returns errs.ErrTransportClosed if the stream ends mid-varint, and
// ErrOverflow if more than maxVarintBytes bytes are consumed without a
// terminating (high-bit-clear) byte.
func ReadUvarint(r io.Reader) (uint64, error) {
	var (
		buf [1]byte
		x   uint64
		s   uint
	)
	for i := 0; i < maxVarintBytes; i++ {
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return 0, errs.ErrTransportClosed
			}
			return 0, errors.Wrap(err, "wire: read varint")
		}
		b := buf[0]
		if b < 0x80 {
			if i == maxVarintBytes-1 && b > 1 {
				return 0, ErrOverflow
			}
			return x | uint64(b)<<s, nil
		}
		x |= uint64(b&0x7f) << s
		s += 7
	}
	return 0, ErrOverflow
}

// WriteUvarint writes n as a base-128 LEB unsigned varint, emitting the
// high bit set on every byte but the last.
func WriteUvarint(w io.Writer, n uint64) error {
	var buf [maxVarintBytes]byte
	i := 0
	for n >= 0x80 {
		buf[i] = byte(n) | 0x80
		n >>= 7
		i++
	}
	buf[i] = byte(n)
	i++
	_, err := w.Write(buf[:i])
	if err != nil {
		return errors.Wrap(err, "wire: write varint")
	}
	return nil
}

// ErrOverflow is returned when a varint exceeds maxVarintBytes bytes
// without terminating.
var ErrOverflow = errors.New("wire: varint overflow")
