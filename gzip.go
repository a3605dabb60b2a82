// Copyright 2024 The Goflate Authors. All rights reserved.
// Use of this source code is governed by an Apache-2.0
// license that can be found in the LICENSE file.

package goflate

import (
	"encoding/binary"
	"hash"
	"hash/crc32"
	"io"
)

const (
	gzipID1       = 0x1f
	gzipID2       = 0x8b
	gzipCMDeflate = 0x08

	flgFHCRC    = 1 << 1
	flgFEXTRA   = 1 << 2
	flgFNAME    = 1 << 3
	flgFCOMMENT = 1 << 4
)

type gzipStage int

const (
	gzipStageNewMember gzipStage = iota
	gzipStageDecodeDeflate
	gzipStageComplete
)

// GzipDecoder decodes one or more concatenated gzip (RFC 1952) members
// from a bitstream, driving a fresh DeflateDecoder per member and
// verifying each member's CRC-32 and ISIZE trailer against what was
// actually decoded.
type GzipDecoder struct {
	stage gzipStage
}

// NewGzipDecoder returns a GzipDecoder ready to decode a gzip stream.
func NewGzipDecoder() *GzipDecoder {
	return &GzipDecoder{}
}

// Decode drives the decoder's state machine to completion, reading from br
// and writing the concatenation of every member's decompressed payload to
// out.
func (g *GzipDecoder) Decode(br *BitReader, out io.Writer) error {
	for g.stage != gzipStageComplete {
		if err := g.advanceStage(br, out); err != nil {
			return err
		}
	}
	return nil
}

func (g *GzipDecoder) advanceStage(br *BitReader, out io.Writer) error {
	switch g.stage {
	case gzipStageNewMember:
		eof, err := br.IsEOF()
		if err != nil {
			return err
		}
		if eof {
			g.stage = gzipStageComplete
			return nil
		}
		if err := g.readHeader(br); err != nil {
			return err
		}
		g.stage = gzipStageDecodeDeflate
		return nil

	case gzipStageDecodeDeflate:
		sink := NewOutWithChecksum(out)
		if err := NewDeflateDecoder().Decode(br, sink); err != nil {
			return err
		}

		wantCRC, err := br.ReadU32()
		if err != nil {
			return err
		}
		wantSize, err := br.ReadU32()
		if err != nil {
			return err
		}
		if sink.CRC32() != wantCRC {
			return invalidDataf("gzip CRC-32 mismatch: decoded %#08x, trailer says %#08x", sink.CRC32(), wantCRC)
		}
		if sink.Size() != wantSize {
			return invalidDataf("gzip ISIZE mismatch: decoded %d bytes, trailer says %d", sink.Size(), wantSize)
		}
		g.stage = gzipStageNewMember
		return nil

	default:
		return nil
	}
}

// readHeader parses one gzip member header (RFC 1952 §2.3), verifying the
// magic bytes and compression method and, when FHCRC is set, the header
// CRC-16. The CRC-16 is computed over every header byte exactly as it
// appeared on the wire, including the encoded FLG byte itself, not a value
// re-derived from the individual flag booleans.
func (g *GzipDecoder) readHeader(br *BitReader) error {
	id1, err := br.ReadU8()
	if err != nil {
		return err
	}
	if id1 != gzipID1 {
		return invalidDataf("expected gzip ID1 %#02x, got %#02x", gzipID1, id1)
	}
	id2, err := br.ReadU8()
	if err != nil {
		return err
	}
	if id2 != gzipID2 {
		return invalidDataf("expected gzip ID2 %#02x, got %#02x", gzipID2, id2)
	}
	cm, err := br.ReadU8()
	if err != nil {
		return err
	}
	if cm != gzipCMDeflate {
		return invalidDataf("expected gzip CM %#02x (deflate), got %#02x", gzipCMDeflate, cm)
	}
	flg, err := br.ReadU8()
	if err != nil {
		return err
	}

	mtime, err := br.ReadU32()
	if err != nil {
		return err
	}
	xfl, err := br.ReadU8()
	if err != nil {
		return err
	}
	os, err := br.ReadU8()
	if err != nil {
		return err
	}

	headerCRC := crc32.NewIEEE()
	hashing := flg&flgFHCRC != 0
	if hashing {
		headerCRC.Write([]byte{id1, id2, cm, flg})
		var tmp [4]byte
		binary.LittleEndian.PutUint32(tmp[:], mtime)
		headerCRC.Write(tmp[:])
		headerCRC.Write([]byte{xfl, os})
	}

	if flg&flgFEXTRA != 0 {
		xlen, err := br.ReadU16()
		if err != nil {
			return err
		}
		if hashing {
			var tmp [2]byte
			binary.LittleEndian.PutUint16(tmp[:], xlen)
			headerCRC.Write(tmp[:])
		}
		for i := 0; i < int(xlen); i++ {
			b, err := br.ReadU8()
			if err != nil {
				return err
			}
			if hashing {
				headerCRC.Write([]byte{b})
			}
		}
	}

	if flg&flgFNAME != 0 {
		if err := readCString(br, headerCRC, hashing); err != nil {
			return err
		}
	}
	if flg&flgFCOMMENT != 0 {
		if err := readCString(br, headerCRC, hashing); err != nil {
			return err
		}
	}

	if hashing {
		crc16, err := br.ReadU16()
		if err != nil {
			return err
		}
		want := uint16(headerCRC.Sum32() & 0xffff)
		if crc16 != want {
			return invalidDataf("gzip header CRC-16 mismatch: got %#04x, want %#04x", crc16, want)
		}
	}
	return nil
}

// readCString reads a NUL-terminated field (FNAME or FCOMMENT), discarding
// its bytes; the original filename or comment text is not preserved.
func readCString(br *BitReader, headerCRC hash.Hash32, hashing bool) error {
	for {
		b, err := br.ReadU8()
		if err != nil {
			return err
		}
		if hashing {
			headerCRC.Write([]byte{b})
		}
		if b == 0 {
			return nil
		}
	}
}
