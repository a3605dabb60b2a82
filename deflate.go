// Copyright 2024 The Goflate Authors. All rights reserved.
// Use of this source code is governed by an Apache-2.0
// license that can be found in the LICENSE file.

package goflate

import "io"

// deflateEncoding identifies one of the three DEFLATE block types (RFC
// 1951 §3.2.3's BTYPE field).
type deflateEncoding uint8

const (
	encStored deflateEncoding = iota
	encFixedHuffman
	encDynamicHuffman
)

func deflateEncodingFromBits(bits uint8) (deflateEncoding, error) {
	switch bits {
	case 0b00:
		return encStored, nil
	case 0b01:
		return encFixedHuffman, nil
	case 0b10:
		return encDynamicHuffman, nil
	default:
		return 0, invalidDataf("BTYPE 0b11 is reserved and invalid")
	}
}

type decodeStage int

const (
	stageNewBlock decodeStage = iota
	stageParsedMode
	stageComplete
)

// DeflateDecoder decodes a DEFLATE (RFC 1951) bitstream into raw bytes,
// one block at a time. It carries the 32 KiB sliding window across all
// blocks of a single stream and must not be reused across independent
// streams.
type DeflateDecoder struct {
	window   outBuffer
	stage    decodeStage
	isFinal  bool
	encoding deflateEncoding
}

// NewDeflateDecoder returns a DeflateDecoder ready to decode one DEFLATE
// stream.
func NewDeflateDecoder() *DeflateDecoder {
	return &DeflateDecoder{}
}

// Decode drives the decoder's state machine to completion, reading from br
// and writing decompressed bytes to out.
func (d *DeflateDecoder) Decode(br *BitReader, out io.Writer) error {
	for d.stage != stageComplete {
		if err := d.advanceStage(br, out); err != nil {
			return err
		}
	}
	return nil
}

func (d *DeflateDecoder) advanceStage(br *BitReader, out io.Writer) error {
	switch d.stage {
	case stageNewBlock:
		isFinal, err := br.ReadBool()
		if err != nil {
			return err
		}
		bits, err := br.ReadU8FromBits(2)
		if err != nil {
			return err
		}
		encoding, err := deflateEncodingFromBits(bits)
		if err != nil {
			return err
		}
		d.isFinal = isFinal
		d.encoding = encoding
		d.stage = stageParsedMode
		return nil

	case stageParsedMode:
		var err error
		switch d.encoding {
		case encStored:
			err = d.decodeStoredBlock(br, out)
		case encFixedHuffman:
			err = d.decodeHuffmanBlock(br, out, fixedLiteralTree(), fixedDistanceTree())
		case encDynamicHuffman:
			var lit, dist *HuffmanTree
			lit, dist, err = readDynamicTrees(br)
			if err == nil {
				err = d.decodeHuffmanBlock(br, out, lit, dist)
			}
		}
		if err != nil {
			return err
		}

		if d.isFinal {
			br.SkipToByteEnd()
			if f, ok := out.(flusher); ok {
				if err := f.Flush(); err != nil {
					return ioErr("flushing final block", err)
				}
			}
			d.stage = stageComplete
		} else {
			d.stage = stageNewBlock
		}
		return nil

	default:
		return nil
	}
}

func (d *DeflateDecoder) decodeStoredBlock(br *BitReader, out io.Writer) error {
	br.SkipToByteEnd()
	length, err := br.ReadU16()
	if err != nil {
		return err
	}
	nlen, err := br.ReadU16()
	if err != nil {
		return err
	}
	if nlen != ^length {
		return invalidDataf("stored block LEN %d does not match one's complement of NLEN %d", length, nlen)
	}
	for i := 0; i < int(length); i++ {
		b, err := br.ReadU8()
		if err != nil {
			return err
		}
		if _, err := out.Write([]byte{b}); err != nil {
			return ioErr("writing stored block byte", err)
		}
		d.window.push(b)
	}
	return nil
}

func (d *DeflateDecoder) decodeHuffmanBlock(br *BitReader, out io.Writer, literalTree, distanceTree *HuffmanTree) error {
	for {
		sym, err := ParseSymbol(literalTree, distanceTree, br)
		if err != nil {
			return err
		}
		switch sym.Kind {
		case SymbolLiteral:
			if _, err := out.Write([]byte{sym.Literal}); err != nil {
				return ioErr("writing literal", err)
			}
			d.window.push(sym.Literal)

		case SymbolEndOfBlock:
			return nil

		case SymbolBackReference:
			length := int(sym.LengthMinusThree) + 3
			for i := 0; i < length; i++ {
				// Read one byte at a time, even when distance < length:
				// bytes already copied earlier in this loop must be
				// visible to later copies within the same back-reference.
				b, ok := d.window.get(int(sym.DistanceMinusOne))
				if !ok {
					return invalidDataf("back-reference distance %d exceeds available history", int(sym.DistanceMinusOne)+1)
				}
				if _, err := out.Write([]byte{b}); err != nil {
					return ioErr("writing back-reference byte", err)
				}
				d.window.push(b)
			}
		}
	}
}

func readDynamicTrees(br *BitReader) (literalTree, distanceTree *HuffmanTree, err error) {
	hlit, err := br.ReadU16FromBits(5)
	if err != nil {
		return nil, nil, err
	}
	hdist, err := br.ReadU8FromBits(5)
	if err != nil {
		return nil, nil, err
	}
	hclen, err := br.ReadU8FromBits(4)
	if err != nil {
		return nil, nil, err
	}

	litCount := int(hlit) + 257
	distCount := int(hdist) + 1
	clCount := int(hclen) + 4

	clTree, err := buildCodeLengthTree(br, clCount)
	if err != nil {
		return nil, nil, err
	}

	litLengths, distLengths, err := decodeCodeLengths(clTree, br, litCount, distCount)
	if err != nil {
		return nil, nil, err
	}

	literalTree = newHuffmanTree(litLengths)
	if anyNonZero(distLengths) {
		distanceTree = newHuffmanTree(distLengths)
	}
	return literalTree, distanceTree, nil
}
