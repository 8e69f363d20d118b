package ahc1ec0_test

import (
	"bytes"
	"testing"

	"ecio-go/drivers/ahc1ec0"
	"ecio-go/drivers/ahc1ec0/ecsim"
)

func TestSMBusChannelRange(t *testing.T) {
	dev := newDevice(t, ecsim.New())
	for ch := byte(0); ch <= 4; ch++ {
		if _, err := dev.SMBus(ch); err != nil {
			t.Errorf("SMBus(%d): %v", ch, err)
		}
	}
	if _, err := dev.SMBus(5); err == nil {
		t.Error("SMBus(5) accepted, want range error")
	}
}

func TestSMBusByteRoundTrip(t *testing.T) {
	sim := ecsim.New()
	slave := sim.AddSMBusSlave(0x48)
	slave.Regs[0x10] = 0x5A

	dev := newDevice(t, sim)
	bus, err := dev.SMBus(0)
	if err != nil {
		t.Fatal(err)
	}

	v, err := bus.ReadByte(0x48, 0x10)
	if err != nil {
		t.Fatalf("ReadByte: %v", err)
	}
	if v != 0x5A {
		t.Fatalf("ReadByte = %#x, want 0x5A", v)
	}

	if err := bus.WriteByte(0x48, 0x11, 0xC3); err != nil {
		t.Fatalf("WriteByte: %v", err)
	}
	if slave.Regs[0x11] != 0xC3 {
		t.Fatalf("slave register = %#x after WriteByte, want 0xC3", slave.Regs[0x11])
	}
}

func TestSMBusWordRoundTrip(t *testing.T) {
	sim := ecsim.New()
	slave := sim.AddSMBusSlave(0x48)

	dev := newDevice(t, sim)
	bus, err := dev.SMBus(1)
	if err != nil {
		t.Fatal(err)
	}

	if err := bus.WriteWord(0x48, 0x20, 0xBEEF); err != nil {
		t.Fatalf("WriteWord: %v", err)
	}
	// low byte first on the wire
	if slave.Regs[0x20] != 0xEF || slave.Regs[0x21] != 0xBE {
		t.Fatalf("slave registers = %#x %#x, want EF BE", slave.Regs[0x20], slave.Regs[0x21])
	}
	v, err := bus.ReadWord(0x48, 0x20)
	if err != nil {
		t.Fatalf("ReadWord: %v", err)
	}
	if v != 0xBEEF {
		t.Fatalf("ReadWord = %#x, want 0xBEEF", v)
	}
}

func TestSMBusMissingSlave(t *testing.T) {
	dev := newDevice(t, ecsim.New())
	bus, err := dev.SMBus(0)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := bus.ReadByte(0x48, 0x00); err != ahc1ec0.ErrSMBus {
		t.Fatalf("ReadByte against absent slave: got %v, want ErrSMBus", err)
	}
}

// TestSMBusTx exercises the pass-through contract peripheral drivers use:
// a register-pointer write followed by a burst read.
func TestSMBusTx(t *testing.T) {
	sim := ecsim.New()
	slave := sim.AddSMBusSlave(0x50)
	slave.Regs[0x20] = 0xAA
	slave.Regs[0x21] = 0xBB
	slave.Regs[0x22] = 0xCC

	dev := newDevice(t, sim)
	bus, err := dev.SMBus(0)
	if err != nil {
		t.Fatal(err)
	}

	r := make([]byte, 3)
	if err := bus.Tx(0x50, []byte{0x20}, r); err != nil {
		t.Fatalf("Tx: %v", err)
	}
	if !bytes.Equal(r, []byte{0xAA, 0xBB, 0xCC}) {
		t.Fatalf("Tx read %x, want aabbcc", r)
	}

	// write phase past the pointer byte lands in the register file
	if err := bus.Tx(0x50, []byte{0x30, 0x01, 0x02}, nil); err != nil {
		t.Fatalf("Tx write: %v", err)
	}
	if slave.Regs[0x30] != 0x01 || slave.Regs[0x31] != 0x02 {
		t.Fatalf("slave registers = %#x %#x, want 01 02", slave.Regs[0x30], slave.Regs[0x31])
	}

	if err := bus.Tx(0x50, make([]byte, 40), nil); err == nil {
		t.Error("oversized write accepted, want window error")
	}
	if err := bus.Tx(0x50, nil, make([]byte, 40)); err == nil {
		t.Error("oversized read accepted, want window error")
	}
}
