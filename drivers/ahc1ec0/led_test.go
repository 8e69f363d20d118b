package ahc1ec0_test

import (
	"testing"

	"ecio-go/drivers/ahc1ec0"
	"ecio-go/drivers/ahc1ec0/ecsim"
)

func ledSim() *ecsim.Controller {
	sim := ecsim.New()
	sim.AddTableEntry(ahc1ec0.DIDLEDRun, 9)
	sim.AddTableEntry(ahc1ec0.DIDLEDErr, 10)
	return sim
}

func TestLEDBinding(t *testing.T) {
	dev := newDevice(t, ledSim())

	led, err := dev.LED(0, ahc1ec0.DIDLEDRun)
	if err != nil {
		t.Fatalf("LED: %v", err)
	}
	if led.Pin() != 9 {
		t.Fatalf("Pin = %d, want 9", led.Pin())
	}

	if _, err := dev.LED(0, ahc1ec0.DIDLEDD105G); err != ahc1ec0.ErrNotConfigured {
		t.Fatalf("unrouted identifier: got %v, want ErrNotConfigured", err)
	}
	if _, err := dev.LED(4, ahc1ec0.DIDLEDRun); err == nil {
		t.Fatal("lane 4 accepted, want range error")
	}
}

func TestLEDSetPattern(t *testing.T) {
	sim := ledSim()
	dev := newDevice(t, sim)

	led, err := dev.LED(1, ahc1ec0.DIDLEDErr)
	if err != nil {
		t.Fatal(err)
	}
	if err := led.SetPattern(ahc1ec0.LEDNormal); err != nil {
		t.Fatalf("SetPattern: %v", err)
	}

	// lane 1 occupies HW RAM 0xA4-0xA7: pin, ctrl hi, ctrl lo, device id
	if got := sim.RAM(0xA4); got != 10 {
		t.Errorf("lane pin = %d, want 10", got)
	}
	ctrl := uint16(sim.RAM(0xA5))<<8 | uint16(sim.RAM(0xA6))
	if want := uint16(ahc1ec0.LEDNormal)<<6 | 0x10 | 0x20; ctrl != want {
		t.Errorf("control word = %#x, want %#x", ctrl, want)
	}
	if got := sim.RAM(0xA7); got != ahc1ec0.DIDLEDErr {
		t.Errorf("lane device id = %#x, want %#x", got, ahc1ec0.DIDLEDErr)
	}

	p, err := led.Pattern()
	if err != nil {
		t.Fatalf("Pattern: %v", err)
	}
	if p != ahc1ec0.LEDNormal {
		t.Fatalf("Pattern = %#x, want LEDNormal", p)
	}
}

func TestLEDOffClearsControl(t *testing.T) {
	sim := ledSim()
	dev := newDevice(t, sim)

	led, err := dev.LED(0, ahc1ec0.DIDLEDRun)
	if err != nil {
		t.Fatal(err)
	}
	if err := led.SetPattern(ahc1ec0.LEDOn); err != nil {
		t.Fatal(err)
	}
	if err := led.SetPattern(ahc1ec0.LEDOff); err != nil {
		t.Fatal(err)
	}
	if hi, lo := sim.RAM(0xA1), sim.RAM(0xA2); hi != 0 || lo != 0 {
		t.Fatalf("control word = %#x %#x after LEDOff, want zero", hi, lo)
	}
	p, err := led.Pattern()
	if err != nil {
		t.Fatal(err)
	}
	if p != ahc1ec0.LEDOff {
		t.Fatalf("Pattern = %#x, want LEDOff", p)
	}
}
