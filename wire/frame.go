package wire

import (
	"io"

	"github.com/pkg/errors"

	"github.com/sass-contrib/embedded-host-go/internal/errs"
)

// maxFrameLen bounds a single frame's declared payload length. The compiler
// subprocess never legitimately sends anything close to this; without a
// bound, a corrupt or hostile length prefix forces an arbitrarily large
// allocation before the short read underneath even gets a chance to fail.
const maxFrameLen = 256 << 20 // 256MiB

// ReadFrame blocks until a full length-prefixed frame (varint length,
// then exactly that many payload bytes) has arrived on r.
func ReadFrame(r io.Reader) ([]byte, error) {
	n, err := ReadUvarint(r)
	if err != nil {
		return nil, err
	}
	if n > maxFrameLen {
		return nil, errs.NewProtocolError("wire: frame length %d exceeds max %d", n, maxFrameLen)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, errs.ErrTransportClosed
		}
		return nil, errors.Wrap(err, "wire: read frame payload")
	}
	return buf, nil
}

// WriteFrame writes payload length-prefixed to w. Callers are responsible
// for serializing concurrent writers (the subprocess channel's write
// mutex) so that frames are never interleaved on the wire.
func WriteFrame(w io.Writer, payload []byte) error {
	if err := WriteUvarint(w, uint64(len(payload))); err != nil {
		return err
	}
	if _, err := w.Write(payload); err != nil {
		return errors.Wrap(err, "wire: write frame payload")
	}
	return nil
}
