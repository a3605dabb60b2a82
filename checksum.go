// Copyright 2024 The Goflate Authors. All rights reserved.
// Use of this source code is governed by an Apache-2.0
// license that can be found in the LICENSE file.

package goflate

import (
	"hash/crc32"
	"io"
)

// OutWithChecksum wraps a byte sink, accumulating a CRC-32/IEEE checksum
// and a wraparound byte count of everything written through it. A gzip
// member's DEFLATE payload is always decoded into one of these so its
// trailer can be verified once decoding completes.
type OutWithChecksum struct {
	out  io.Writer
	size uint32
	crc  uint32
}

// NewOutWithChecksum returns an OutWithChecksum wrapping out.
func NewOutWithChecksum(out io.Writer) *OutWithChecksum {
	return &OutWithChecksum{out: out}
}

// Write implements io.Writer, forwarding to the wrapped sink and folding
// every byte actually written into the running checksum and size.
func (o *OutWithChecksum) Write(p []byte) (int, error) {
	n, err := o.out.Write(p)
	if n > 0 {
		o.crc = crc32.Update(o.crc, crc32.IEEETable, p[:n])
		o.size += uint32(n) // wraps at 2^32, matching gzip's ISIZE field
	}
	return n, err
}

// CRC32 returns the running CRC-32/IEEE of everything written so far.
func (o *OutWithChecksum) CRC32() uint32 { return o.crc }

// Size returns the running byte count, wrapped modulo 2^32.
func (o *OutWithChecksum) Size() uint32 { return o.size }

// Flush forwards to the wrapped sink if it implements Flush, otherwise it
// is a no-op.
func (o *OutWithChecksum) Flush() error {
	if f, ok := o.out.(flusher); ok {
		return f.Flush()
	}
	return nil
}
