// Copyright 2024 The Goflate Authors. All rights reserved.
// Use of this source code is governed by an Apache-2.0
// license that can be found in the LICENSE file.

package goflate

// lengthBaseByCode and lengthExtraBitsByCode are RFC 1951 §3.2.5's length
// code table, indexed by (code - 257).
var lengthBaseByCode = [29]uint16{
	3, 4, 5, 6, 7, 8, 9, 10, 11, 13, 15, 17, 19, 23, 27, 31,
	35, 43, 51, 59, 67, 83, 99, 115, 131, 163, 195, 227, 258,
}

var lengthExtraBitsByCode = [29]uint8{
	0, 0, 0, 0, 0, 0, 0, 0, 1, 1, 1, 1, 2, 2, 2, 2,
	3, 3, 3, 3, 4, 4, 4, 4, 5, 5, 5, 5, 0,
}

// distanceBaseByCode and distanceExtraBitsByCode are RFC 1951 §3.2.5's
// distance code table, indexed by code.
var distanceBaseByCode = [30]uint16{
	1, 2, 3, 4, 5, 7, 9, 13, 17, 25, 33, 49, 65, 97, 129, 193,
	257, 385, 513, 769, 1025, 1537, 2049, 3073, 4097, 6145, 8193, 12289, 16385, 24577,
}

var distanceExtraBitsByCode = [30]uint8{
	0, 0, 0, 0, 1, 1, 2, 2, 3, 3, 4, 4, 5, 5, 6, 6,
	7, 7, 8, 8, 9, 9, 10, 10, 11, 11, 12, 12, 13, 13,
}

// SymbolKind identifies which field of a Symbol is meaningful.
type SymbolKind int

const (
	SymbolLiteral SymbolKind = iota
	SymbolEndOfBlock
	SymbolBackReference
)

// Symbol is one decoded LZSS symbol within a Huffman-coded DEFLATE block:
// a literal byte, the end-of-block marker, or a back-reference into the
// sliding window. Length and distance are stored as length-minus-three
// and distance-minus-one, matching their on-wire encoding (minimum length
// 3, minimum distance 1).
type Symbol struct {
	Kind             SymbolKind
	Literal          byte
	LengthMinusThree uint8
	DistanceMinusOne uint16
}

// LengthCodeOf returns the length code (257..285) for a back-reference of
// the given length-minus-three.
func LengthCodeOf(lengthMinusThree uint8) uint16 {
	length := uint16(lengthMinusThree) + 3
	code := 0
	for i := len(lengthBaseByCode) - 1; i >= 0; i-- {
		if length >= lengthBaseByCode[i] {
			code = i
			break
		}
	}
	return uint16(257 + code)
}

// LengthExtraBits returns the number of extra bits following the length
// code for a back-reference of the given length-minus-three.
func LengthExtraBits(lengthMinusThree uint8) uint8 {
	return lengthExtraBitsByCode[LengthCodeOf(lengthMinusThree)-257]
}

// DistanceCodeOf returns the distance code (0..29) for a back-reference of
// the given distance-minus-one.
func DistanceCodeOf(distanceMinusOne uint16) uint8 {
	distance := distanceMinusOne + 1
	code := 0
	for i := len(distanceBaseByCode) - 1; i >= 0; i-- {
		if distance >= distanceBaseByCode[i] {
			code = i
			break
		}
	}
	return uint8(code)
}

// DistanceExtraBits returns the number of extra bits following the
// distance code for a back-reference of the given distance-minus-one.
func DistanceExtraBits(distanceMinusOne uint16) uint8 {
	return distanceExtraBitsByCode[DistanceCodeOf(distanceMinusOne)]
}

// ParseSymbol decodes one LZSS symbol from br. literalTree decodes the
// combined literal/length alphabet (0..285); distanceTree decodes the
// distance alphabet (0..29) and may be nil only if the block declared no
// back-references are possible, in which case encountering one is an
// error.
func ParseSymbol(literalTree, distanceTree *HuffmanTree, br *BitReader) (Symbol, error) {
	lengthCode, err := literalTree.Decode(br)
	if err != nil {
		return Symbol{}, err
	}

	switch {
	case lengthCode <= 255:
		return Symbol{Kind: SymbolLiteral, Literal: byte(lengthCode)}, nil

	case lengthCode == 256:
		return Symbol{Kind: SymbolEndOfBlock}, nil

	case lengthCode <= 285:
		code := lengthCode - 257
		extra, err := br.ReadU16FromBits(int(lengthExtraBitsByCode[code]))
		if err != nil {
			return Symbol{}, err
		}
		length := lengthBaseByCode[code] + extra
		lengthMinusThree := uint8(length - 3)

		if distanceTree == nil {
			return Symbol{}, invalidDataf("back-reference in a block with no distance codes")
		}
		distanceCode, err := distanceTree.Decode(br)
		if err != nil {
			return Symbol{}, err
		}
		if distanceCode > 29 {
			return Symbol{}, invalidDataf("distance code %d must be <= 29", distanceCode)
		}
		dExtra, err := br.ReadU32FromBits(int(distanceExtraBitsByCode[distanceCode]))
		if err != nil {
			return Symbol{}, err
		}
		distance := uint32(distanceBaseByCode[distanceCode]) + dExtra
		distanceMinusOne := uint16(distance - 1)

		return Symbol{
			Kind:             SymbolBackReference,
			LengthMinusThree: lengthMinusThree,
			DistanceMinusOne: distanceMinusOne,
		}, nil

	default:
		return Symbol{}, invalidDataf("length code %d must be <= 285", lengthCode)
	}
}
