// Copyright 2024 The Goflate Authors. All rights reserved.
// Use of this source code is governed by an Apache-2.0
// license that can be found in the LICENSE file.

package goflate

// emptyNode marks a tree slot that is neither a leaf nor yet an internal
// node reached by any assigned code.
const emptyNode = -1

// HuffmanTree is a canonical Huffman code, stored as an array-backed
// implicit heap: node 1 is the root, and the two children of node p are
// 2p and 2p+1. Decoding walks from the root, doubling the index and
// adding the next bit read, until it lands on a populated leaf.
type HuffmanTree struct {
	nodes []int32
}

// newHuffmanTree builds the canonical Huffman tree for the given
// per-symbol code lengths (0 meaning "not present"), following RFC 1951
// §3.2.2: codes of the same length are assigned consecutively in symbol
// order, and the first code of each length is derived from the count of
// codes of each shorter length.
func newHuffmanTree(codeLengths []uint8) *HuffmanTree {
	var maxLen uint8
	counts := make(map[uint8]int)
	for _, l := range codeLengths {
		if l > 0 {
			counts[l]++
			if l > maxLen {
				maxLen = l
			}
		}
	}
	if maxLen == 0 {
		return &HuffmanTree{nodes: []int32{emptyNode, emptyNode}}
	}

	nextCode := make([]int, maxLen+1)
	code := 0
	for l := uint8(1); l <= maxLen; l++ {
		code = (code + counts[l-1]) << 1
		nextCode[l] = code
	}

	nodes := make([]int32, 1<<(maxLen+1))
	for i := range nodes {
		nodes[i] = emptyNode
	}
	for symbol, l := range codeLengths {
		if l == 0 {
			continue
		}
		c := nextCode[l]
		nextCode[l]++
		idx := 1
		for b := int(l) - 1; b >= 0; b-- {
			bit := (c >> uint(b)) & 1
			idx = 2*idx + bit
		}
		nodes[idx] = int32(symbol)
	}
	return &HuffmanTree{nodes: nodes}
}

// Decode reads bits from br, walking the tree from its root until it
// lands on a populated leaf, and returns that leaf's symbol.
func (t *HuffmanTree) Decode(br *BitReader) (uint16, error) {
	idx := 1
	for {
		bit, err := br.ReadBool()
		if err != nil {
			return 0, err
		}
		b := 0
		if bit {
			b = 1
		}
		idx = 2*idx + b
		if idx >= len(t.nodes) {
			return 0, invalidDataf("huffman code does not correspond to any symbol")
		}
		if t.nodes[idx] != emptyNode {
			return uint16(t.nodes[idx]), nil
		}
	}
}

// fixedLiteralTree builds RFC 1951 §3.2.6's fixed literal/length tree.
func fixedLiteralTree() *HuffmanTree {
	lengths := make([]uint8, 288)
	for i := 0; i < 144; i++ {
		lengths[i] = 8
	}
	for i := 144; i < 256; i++ {
		lengths[i] = 9
	}
	for i := 256; i < 280; i++ {
		lengths[i] = 7
	}
	for i := 280; i < 288; i++ {
		lengths[i] = 8
	}
	return newHuffmanTree(lengths)
}

// fixedDistanceTree builds RFC 1951 §3.2.6's fixed distance tree: all 30
// distance symbols use a uniform 5-bit code.
func fixedDistanceTree() *HuffmanTree {
	lengths := make([]uint8, 30)
	for i := range lengths {
		lengths[i] = 5
	}
	return newHuffmanTree(lengths)
}

// codeLengthAlphabetOrder is RFC 1951 §3.2.7's permutation for reading the
// code-length alphabet's own code lengths off the wire.
var codeLengthAlphabetOrder = [19]int{
	16, 17, 18, 0, 8, 7, 9, 6, 10, 5, 11, 4, 12, 3, 13, 2, 14, 1, 15,
}

// buildCodeLengthTree reads count 3-bit code lengths for the 19-symbol
// code-length alphabet, in the wire order given by codeLengthAlphabetOrder,
// and builds the Huffman tree used to decode the literal/distance code
// lengths themselves.
func buildCodeLengthTree(br *BitReader, count int) (*HuffmanTree, error) {
	lengths := make([]uint8, 19)
	for i := 0; i < count; i++ {
		v, err := br.ReadU8FromBits(3)
		if err != nil {
			return nil, err
		}
		lengths[codeLengthAlphabetOrder[i]] = v
	}
	return newHuffmanTree(lengths), nil
}

// decodeCodeLengths decodes exactly litCount+distCount code lengths from
// a single run-length-encoded stream (symbols 0..15 are literal lengths,
// 16 repeats the previous length, 17 and 18 repeat a zero length), then
// splits the result into the literal and distance slices.
//
// The literal and distance code lengths share one RLE state: a code 16
// immediately after the last literal length can repeat it into the first
// distance length. Decoding them as two independent passes, as if the
// boundary reset the "previous length" state, does not match RFC 1951 and
// rejects valid streams that rely on the carry-over.
func decodeCodeLengths(tree *HuffmanTree, br *BitReader, litCount, distCount int) ([]uint8, []uint8, error) {
	total := litCount + distCount
	lengths := make([]uint8, 0, total)
	var previous uint8
	havePrevious := false

	for len(lengths) < total {
		sym, err := tree.Decode(br)
		if err != nil {
			return nil, nil, err
		}
		switch {
		case sym <= 15:
			lengths = append(lengths, uint8(sym))
			previous = uint8(sym)
			havePrevious = true

		case sym == 16:
			if !havePrevious {
				return nil, nil, invalidDataf("code length repeat with no previous code length")
			}
			extra, err := br.ReadU8FromBits(2)
			if err != nil {
				return nil, nil, err
			}
			repeat := int(extra) + 3
			if len(lengths)+repeat > total {
				return nil, nil, invalidDataf("code length repeat overruns the expected count")
			}
			for i := 0; i < repeat; i++ {
				lengths = append(lengths, previous)
			}

		case sym == 17:
			extra, err := br.ReadU8FromBits(3)
			if err != nil {
				return nil, nil, err
			}
			repeat := int(extra) + 3
			if len(lengths)+repeat > total {
				return nil, nil, invalidDataf("code length repeat overruns the expected count")
			}
			for i := 0; i < repeat; i++ {
				lengths = append(lengths, 0)
			}
			previous = 0
			havePrevious = true

		case sym == 18:
			extra, err := br.ReadU8FromBits(7)
			if err != nil {
				return nil, nil, err
			}
			repeat := int(extra) + 11
			if len(lengths)+repeat > total {
				return nil, nil, invalidDataf("code length repeat overruns the expected count")
			}
			for i := 0; i < repeat; i++ {
				lengths = append(lengths, 0)
			}
			previous = 0
			havePrevious = true

		default:
			return nil, nil, invalidDataf("invalid code-length symbol %d", sym)
		}
	}
	return lengths[:litCount], lengths[litCount:], nil
}

func anyNonZero(lengths []uint8) bool {
	for _, l := range lengths {
		if l != 0 {
			return true
		}
	}
	return false
}
