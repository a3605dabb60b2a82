// Copyright 2024 The Goflate Authors. All rights reserved.
// Use of this source code is governed by an Apache-2.0
// license that can be found in the LICENSE file.

package goflate

import (
	"errors"
	"io"
	"syscall"
)

// maxBytesPerBlock is the largest payload a single stored block can carry:
// LEN is a 16-bit field (RFC 1951 §3.2.4).
const maxBytesPerBlock = 65535

type encodeStage int

const (
	encodeStageNewBlock encodeStage = iota
	encodeStageComplete
)

// DeflateEncoder packages raw bytes into a valid DEFLATE (RFC 1951)
// bitstream using only stored (uncompressed) blocks. This trades
// compression ratio for triviality and bit-exactness: every byte written
// passes through unchanged, framed into 65,535-byte blocks.
type DeflateEncoder struct {
	stage encodeStage
}

// NewDeflateEncoder returns a DeflateEncoder ready to encode one stream.
func NewDeflateEncoder() *DeflateEncoder {
	return &DeflateEncoder{}
}

// Encode reads all of in and writes it to out as a sequence of stored
// DEFLATE blocks, the last marked final.
func (e *DeflateEncoder) Encode(in io.Reader, out *BitWriter) error {
	for e.stage != encodeStageComplete {
		if err := e.advanceStage(in, out); err != nil {
			return err
		}
	}
	return nil
}

func (e *DeflateEncoder) advanceStage(in io.Reader, out *BitWriter) error {
	switch e.stage {
	case encodeStageNewBlock:
		buf := make([]byte, maxBytesPerBlock)
		length := 0
		isFinal := false

		for length < maxBytesPerBlock {
			n, err := in.Read(buf[length:])
			length += n
			if err == nil {
				continue
			}
			if err == io.EOF {
				isFinal = true
				break
			}
			if errors.Is(err, syscall.EINTR) {
				continue
			}
			return ioErr("reading encoder input", err)
		}

		if err := out.WriteBool(isFinal); err != nil {
			return err
		}
		if err := out.WriteBits(2, uint32(encStored)); err != nil {
			return err
		}
		if err := out.WriteBits(5, 0); err != nil { // pad to a byte boundary
			return err
		}

		lenField := uint16(length)
		if err := writeU16LE(out, lenField); err != nil {
			return err
		}
		if err := writeU16LE(out, ^lenField); err != nil {
			return err
		}
		for _, b := range buf[:length] {
			if err := out.WriteU8(b); err != nil {
				return err
			}
		}

		if isFinal {
			if err := out.FlushEvenIfPartial(); err != nil {
				return err
			}
			e.stage = encodeStageComplete
		}
		return nil

	default:
		return nil
	}
}

func writeU16LE(w *BitWriter, v uint16) error {
	if err := w.WriteU8(byte(v)); err != nil {
		return err
	}
	return w.WriteU8(byte(v >> 8))
}
