// Package shortvec implements the compact-array length prefix used by the
// Solana wire format: a little-endian base-128 varint capped at three bytes.
package shortvec

import (
	"fmt"
	"io"
	"math"
)

// EncodeLen encodes the specified len into the writer.
//
// If len > math.MaxUint16, an error is returned.
func EncodeLen(w io.Writer, len int) (n int, err error) {
	if len > math.MaxUint16 {
		return 0, fmt.Errorf("len exceeds %d", math.MaxUint16)
	}

	written := 0
	buf := make([]byte, 1)

	for {
		buf[0] = byte(len & 0x7f)
		len >>= 7
		if len == 0 {
			n, err := w.Write(buf)
			written += n

			return written, err
		}

		buf[0] |= 0x80
		n, err := w.Write(buf)
		written += n
		if err != nil {
			return written, err
		}
	}
}

// DecodeLen decodes a shortvec encoded len from the reader.
func DecodeLen(r io.Reader) (val int, err error) {
	var offset int
	buf := make([]byte, 1)

	for {
		if _, err := io.ReadFull(r, buf); err != nil {
			return 0, err
		}

		val |= int(buf[0]&0x7f) << (offset * 7)
		offset++

		if buf[0]&0x80 == 0 {
			break
		}
	}

	if offset > 3 {
		return 0, fmt.Errorf("invalid size: %d (max 3)", offset)
	}

	return val, nil
}
