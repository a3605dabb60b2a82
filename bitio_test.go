// Copyright 2024 The Goflate Authors. All rights reserved.
// Use of this source code is governed by an Apache-2.0
// license that can be found in the LICENSE file.

package goflate

import (
	"bytes"
	"testing"
)

func TestBitReaderReadBoolLSBFirst(t *testing.T) {
	// 0b10110100 read LSB-first yields bits 0,0,1,0,1,1,0,1.
	r := NewBitReader(bytes.NewReader([]byte{0b10110100}))
	want := []bool{false, false, true, false, true, true, false, true}
	for i, w := range want {
		got, err := r.ReadBool()
		if err != nil {
			t.Fatalf("bit %d: %v", i, err)
		}
		if got != w {
			t.Errorf("bit %d: got %v, want %v", i, got, w)
		}
	}
}

func TestBitReaderReadUFromBits(t *testing.T) {
	for _, tc := range []struct {
		name string
		data []byte
		n    int
		want uint32
	}{
		{"three bits", []byte{0b00000101}, 3, 5},
		{"whole byte", []byte{0xa5}, 8, 0xa5},
		{"sixteen bits", []byte{0x34, 0x12}, 16, 0x1234},
	} {
		t.Run(tc.name, func(t *testing.T) {
			r := NewBitReader(bytes.NewReader(tc.data))
			got, err := r.ReadU32FromBits(tc.n)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("got %#x, want %#x", got, tc.want)
			}
		})
	}
}

func TestBitReaderSkipToByteEnd(t *testing.T) {
	r := NewBitReader(bytes.NewReader([]byte{0xff, 0x05}))
	if _, err := r.ReadU8FromBits(3); err != nil {
		t.Fatal(err)
	}
	r.SkipToByteEnd()
	got, err := r.ReadU8()
	if err != nil {
		t.Fatal(err)
	}
	if got != 0x05 {
		t.Errorf("got %#x, want %#x", got, 0x05)
	}
}

func TestBitReaderUnexpectedEOF(t *testing.T) {
	r := NewBitReader(bytes.NewReader(nil))
	if _, err := r.ReadU8(); !IsUnexpectedEOF(err) {
		t.Errorf("got %v, want UnexpectedEOF", err)
	}
}

func TestBitReaderIsEOF(t *testing.T) {
	r := NewBitReader(bytes.NewReader([]byte{0x01}))
	eof, err := r.IsEOF()
	if err != nil || eof {
		t.Fatalf("got (%v, %v), want (false, nil)", eof, err)
	}
	if _, err := r.ReadU8(); err != nil {
		t.Fatal(err)
	}
	eof, err = r.IsEOF()
	if err != nil || !eof {
		t.Fatalf("got (%v, %v), want (true, nil)", eof, err)
	}
}

func TestBitWriterRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewBitWriter(&buf)
	if err := w.WriteBool(true); err != nil {
		t.Fatal(err)
	}
	if err := w.WriteBits(2, 0b10); err != nil {
		t.Fatal(err)
	}
	if err := w.WriteBits(5, 0); err != nil {
		t.Fatal(err)
	}
	if err := w.WriteU8(0x42); err != nil {
		t.Fatal(err)
	}

	r := NewBitReader(bytes.NewReader(buf.Bytes()))
	if got, err := r.ReadBool(); err != nil || got != true {
		t.Fatalf("got (%v, %v), want (true, nil)", got, err)
	}
	if got, err := r.ReadU8FromBits(2); err != nil || got != 0b10 {
		t.Fatalf("got (%#b, %v), want (0b10, nil)", got, err)
	}
	if got, err := r.ReadU8FromBits(5); err != nil || got != 0 {
		t.Fatalf("got (%#b, %v), want (0, nil)", got, err)
	}
	if got, err := r.ReadU8(); err != nil || got != 0x42 {
		t.Fatalf("got (%#x, %v), want (0x42, nil)", got, err)
	}
}

func TestBitWriterFlushEvenIfPartialPads(t *testing.T) {
	var buf bytes.Buffer
	w := NewBitWriter(&buf)
	if err := w.WriteBool(true); err != nil {
		t.Fatal(err)
	}
	if err := w.FlushEvenIfPartial(); err != nil {
		t.Fatal(err)
	}
	if got, want := buf.Bytes(), []byte{0x01}; !bytes.Equal(got, want) {
		t.Errorf("got %#v, want %#v", got, want)
	}
	// A second flush with nothing partially written is a no-op.
	if err := w.FlushEvenIfPartial(); err != nil {
		t.Fatal(err)
	}
	if got, want := buf.Bytes(), []byte{0x01}; !bytes.Equal(got, want) {
		t.Errorf("got %#v, want %#v", got, want)
	}
}
