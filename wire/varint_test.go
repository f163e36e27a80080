package wire_test

import (
	"bytes"
	"testing"

	"github.com/sass-contrib/embedded-host-go/wire"
)

func TestUvarintRoundTrip(t *testing.T) {
	cases := []uint64{0, 1, 127, 128, 300, 1 << 20, 1<<32 - 1, 1<<64 - 1}
	for _, n := range cases {
		var buf bytes.Buffer
		if err := wire.WriteUvarint(&buf, n); err != nil {
			t.Fatalf("write %d: %v", n, err)
		}
		got, err := wire.ReadUvarint(&buf)
		if err != nil {
			t.Fatalf("read %d: %v", n, err)
		}
		if got != n {
			t.Fatalf("round trip %d: got %d", n, got)
		}
	}
}

func TestUvarintByteCount(t *testing.T) {
	cases := map[uint64]int{
		0:         1,
		127:       1,
		128:       2,
		1<<14 - 1: 2,
		1 << 14:   3,
		1<<64 - 1: 10,
	}
	for n, want := range cases {
		var buf bytes.Buffer
		if err := wire.WriteUvarint(&buf, n); err != nil {
			t.Fatalf("write %d: %v", n, err)
		}
		if buf.Len() != want {
			t.Fatalf("n=%d: got %d bytes, want %d", n, buf.Len(), want)
		}
		b := buf.Bytes()
		for i := 0; i < len(b)-1; i++ {
			if b[i]&0x80 == 0 {
				t.Fatalf("n=%d: byte %d should have high bit set", n, i)
			}
		}
		if b[len(b)-1]&0x80 != 0 {
			t.Fatalf("n=%d: final byte should not have high bit set", n)
		}
	}
}

func TestReadUvarintTruncated(t *testing.T) {
	// high bit set, then nothing: mid-varint EOF
	buf := bytes.NewReader([]byte{0x80})
	_, err := wire.ReadUvarint(buf)
	if err == nil {
		t.Fatal("expected error on truncated varint")
	}
}

func TestReadUvarintOverflow(t *testing.T) {
	b := bytes.Repeat([]byte{0x80}, 10)
	b = append(b, 0x02) // 11th byte, still high bit territory for a >64bit value
	_, err := wire.ReadUvarint(bytes.NewReader(b))
	if err != wire.ErrOverflow {
		t.Fatalf("expected ErrOverflow, got %v", err)
	}
}

func TestFrameRoundTrip(t *testing.T) {
	payloads := [][]byte{
		{},
		[]byte("hello"),
		bytes.Repeat([]byte{0x42}, 4096),
	}
	var buf bytes.Buffer
	for _, p := range payloads {
		if err := wire.WriteFrame(&buf, p); err != nil {
			t.Fatalf("write frame: %v", err)
		}
	}
	for _, want := range payloads {
		got, err := wire.ReadFrame(&buf)
		if err != nil {
			t.Fatalf("read frame: %v", err)
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("frame mismatch: got %d bytes, want %d", len(got), len(want))
		}
	}
	if _, err := wire.ReadFrame(&buf); err == nil {
		t.Fatal("expected error after all frames consumed")
	}
}

func TestReadFrameRejectsOversizedLength(t *testing.T) {
	var buf bytes.Buffer
	if err := wire.WriteUvarint(&buf, 1<<33); err != nil {
		t.Fatal(err)
	}
	if _, err := wire.ReadFrame(&buf); err == nil {
		t.Fatal("expected error for a frame length beyond the max")
	}
}
