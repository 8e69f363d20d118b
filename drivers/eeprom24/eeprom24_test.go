package eeprom24

import (
	"bytes"
	"testing"
)

// fakeBus is a register-file slave that records each write burst.
type fakeBus struct {
	mem    [256]byte
	bursts [][]byte
}

func (f *fakeBus) Tx(addr uint16, w, r []byte) error {
	if len(w) > 0 {
		off := w[0]
		copy(f.mem[off:], w[1:])
		if len(w) > 1 {
			f.bursts = append(f.bursts, append([]byte(nil), w...))
		}
		if len(r) > 0 {
			copy(r, f.mem[off:])
		}
	}
	return nil
}

func TestReadAt(t *testing.T) {
	f := &fakeBus{}
	copy(f.mem[0x10:], []byte{0xDE, 0xAD, 0xBE, 0xEF})

	d := New(f, 0x50, 0)
	p := make([]byte, 4)
	if err := d.ReadAt(0x10, p); err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	if !bytes.Equal(p, []byte{0xDE, 0xAD, 0xBE, 0xEF}) {
		t.Fatalf("read %x", p)
	}
}

func TestWriteAtSplitsOnPages(t *testing.T) {
	f := &fakeBus{}
	d := New(f, 0x50, 8)

	data := make([]byte, 13)
	for i := range data {
		data[i] = byte(i + 1)
	}
	// offset 5 in an 8-byte-page part: bursts of 3, 8, 2
	if err := d.WriteAt(5, data); err != nil {
		t.Fatalf("WriteAt: %v", err)
	}
	if !bytes.Equal(f.mem[5:18], data) {
		t.Fatalf("memory = %x, want %x", f.mem[5:18], data)
	}
	if len(f.bursts) != 3 {
		t.Fatalf("bursts = %d, want 3", len(f.bursts))
	}
	for i, wantLen := range []int{3, 8, 2} {
		if got := len(f.bursts[i]) - 1; got != wantLen {
			t.Errorf("burst %d carries %d bytes, want %d", i, got, wantLen)
		}
	}
	// no burst may cross a page boundary
	for _, b := range f.bursts {
		start, n := int(b[0]), len(b)-1
		if start/8 != (start+n-1)/8 {
			t.Errorf("burst at %d length %d crosses a page", start, n)
		}
	}
}

func TestBoundsChecked(t *testing.T) {
	d := New(&fakeBus{}, 0x50, 0)
	if err := d.ReadAt(250, make([]byte, 10)); err == nil {
		t.Error("read past the address space accepted")
	}
	if err := d.WriteAt(250, make([]byte, 10)); err == nil {
		t.Error("write past the address space accepted")
	}
	if err := d.ReadAt(0, nil); err != nil {
		t.Errorf("empty read: %v", err)
	}
}
