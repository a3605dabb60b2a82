// Copyright 2024 The Goflate Authors. All rights reserved.
// Use of this source code is governed by an Apache-2.0
// license that can be found in the LICENSE file.

package goflate_test

import (
	"bytes"
	"testing"

	"github.com/mbarrett/goflate"
)

func TestDeflateEncodeEmptyInput(t *testing.T) {
	var buf bytes.Buffer
	w := goflate.NewBitWriter(&buf)
	if err := goflate.NewDeflateEncoder().Encode(bytes.NewReader(nil), w); err != nil {
		t.Fatal(err)
	}
	want := []byte{0x01, 0x00, 0x00, 0xFF, 0xFF}
	if got := buf.Bytes(); !bytes.Equal(got, want) {
		t.Errorf("got %#v, want %#v", got, want)
	}
}

// TestDeflateEncodeExactBlockMultipleAddsTrailingEmptyBlock covers the
// resolved Open Question: when the input length is an exact multiple of
// the 65,535-byte stored-block limit, a trailing empty final block
// follows, since the encoder only marks a block final once a read returns
// io.EOF, and a block that fills exactly stops reading before that; the
// EOF is only seen by the next block's read.
func TestDeflateEncodeExactBlockMultipleAddsTrailingEmptyBlock(t *testing.T) {
	data := bytes.Repeat([]byte{0x2a}, 65535)
	var buf bytes.Buffer
	w := goflate.NewBitWriter(&buf)
	if err := goflate.NewDeflateEncoder().Encode(bytes.NewReader(data), w); err != nil {
		t.Fatal(err)
	}
	got := buf.Bytes()

	// First block: header byte with final=0, then LEN=65535, NLEN=0x0000,
	// then the 65535 payload bytes.
	if got[0] != 0x00 {
		t.Fatalf("first block header = %#02x, want non-final stored (0x00)", got[0])
	}
	if got[1] != 0xFF || got[2] != 0xFF {
		t.Fatalf("first block LEN = %02x%02x, want FFFF", got[2], got[1])
	}
	rest := got[5+65535:]
	if len(rest) != 5 {
		t.Fatalf("trailing block is %d bytes, want 5 (an empty final stored block)", len(rest))
	}
	want := []byte{0x01, 0x00, 0x00, 0xFF, 0xFF}
	if !bytes.Equal(rest, want) {
		t.Errorf("trailing block = %#v, want %#v", rest, want)
	}

	roundTripped := decodeDeflate(t, got)
	if !bytes.Equal(roundTripped, data) {
		t.Errorf("round trip mismatch: got %d bytes, want %d bytes", len(roundTripped), len(data))
	}
}

func TestDeflateEncodeSplitsLargeInputAcrossBlocks(t *testing.T) {
	data := bytes.Repeat([]byte{0x11}, 65535*2+10)
	var buf bytes.Buffer
	w := goflate.NewBitWriter(&buf)
	if err := goflate.NewDeflateEncoder().Encode(bytes.NewReader(data), w); err != nil {
		t.Fatal(err)
	}
	got := decodeDeflate(t, buf.Bytes())
	if !bytes.Equal(got, data) {
		t.Errorf("round trip mismatch: got %d bytes, want %d bytes", len(got), len(data))
	}
}
