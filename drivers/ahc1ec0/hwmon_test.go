package ahc1ec0_test

import (
	"testing"

	"ecio-go/drivers/ahc1ec0"
	"ecio-go/drivers/ahc1ec0/ecsim"
)

// templateSim builds a controller for the template profile: VBat, 5VSB,
// VCore and current rails routed, no dedicated 12V divider, onboard DC
// present for the fallback.
func templateSim() *ecsim.Controller {
	sim := ecsim.New()
	sim.AddTableEntry(0x50, 0) // CMOS battery, x1
	sim.AddTableEntry(0x5B, 1) // 5V standby, x10 divider
	sim.AddTableEntry(0x65, 2) // VCore A
	sim.AddTableEntry(0x6B, 3) // onboard DC
	sim.AddTableEntry(0x74, 4) // current sense
	sim.SetAD(0, 100)
	sim.SetAD(1, 200)
	sim.SetAD(2, 300)
	sim.SetAD(3, 400)
	sim.SetAD(4, 50)
	return sim
}

func newSensors(t *testing.T, sim *ecsim.Controller, kind ahc1ec0.ProfileKind) *ahc1ec0.Sensors {
	t.Helper()
	dev := newDevice(t, sim)
	p, err := ahc1ec0.ProfileByIndex(int(kind))
	if err != nil {
		t.Fatalf("ProfileByIndex: %v", err)
	}
	return ahc1ec0.NewSensors(dev, p)
}

// shipped converts an AD sample to the reported value with the constants
// every shipped profile uses (resolution 2929, reported in tenths).
func shipped(rawCode, mult int64) int64 {
	return rawCode * mult * 100 * 2929 / 1000 / 1000 * 10
}

func TestSensorsReadIn(t *testing.T) {
	s := newSensors(t, templateSim(), ahc1ec0.ProfileTemplate)

	if s.InCount() != 5 {
		t.Fatalf("InCount = %d, want 5", s.InCount())
	}
	cases := []struct {
		channel int
		label   string
		want    int64
	}{
		{0, "VBAT", shipped(100, 1)},
		{1, "5VSB", shipped(200, 10)},
		{3, "VCORE", shipped(300, 1)},
		{4, "Current", shipped(50, 1)},
	}
	for _, tc := range cases {
		label, err := s.InLabel(tc.channel)
		if err != nil {
			t.Fatalf("InLabel(%d): %v", tc.channel, err)
		}
		if label != tc.label {
			t.Errorf("InLabel(%d) = %q, want %q", tc.channel, label, tc.label)
		}
		v, err := s.ReadIn(tc.channel)
		if err != nil {
			t.Fatalf("ReadIn(%d): %v", tc.channel, err)
		}
		if v != tc.want {
			t.Errorf("ReadIn(%d) = %d, want %d", tc.channel, v, tc.want)
		}
	}

	if _, err := s.ReadIn(5); err == nil {
		t.Error("ReadIn(5) accepted, want range error")
	}
	if _, err := s.InLabel(-1); err == nil {
		t.Error("InLabel(-1) accepted, want range error")
	}
}

func TestSensors12VFallsBackToDC(t *testing.T) {
	s := newSensors(t, templateSim(), ahc1ec0.ProfileTemplate)

	// channel 2 is the 12V input; no 12V divider is routed, so the value
	// must come from the onboard-DC pin
	v, err := s.ReadIn(2)
	if err != nil {
		t.Fatalf("ReadIn(2): %v", err)
	}
	if want := shipped(400, 1); v != want {
		t.Fatalf("ReadIn(2) = %d, want %d via the DC rail", v, want)
	}
	label, err := s.InLabel(2)
	if err != nil {
		t.Fatal(err)
	}
	if label != "Vin" {
		t.Fatalf("InLabel(2) = %q, want %q", label, "Vin")
	}
}

func TestSensors12VDirectWhenRouted(t *testing.T) {
	sim := ecsim.New()
	sim.AddTableEntry(0x50, 0)
	sim.AddTableEntry(0x64, 5) // dedicated 12V, x10 divider
	sim.SetAD(0, 100)
	sim.SetAD(5, 111)

	s := newSensors(t, sim, ahc1ec0.ProfileTemplate)
	v, err := s.ReadIn(2)
	if err != nil {
		t.Fatalf("ReadIn(2): %v", err)
	}
	if want := shipped(111, 10); v != want {
		t.Fatalf("ReadIn(2) = %d, want %d from the dedicated divider", v, want)
	}
}

func TestSensorsUnboundRailNotConfigured(t *testing.T) {
	sim := ecsim.New()
	sim.AddTableEntry(0x50, 0)
	sim.SetAD(0, 100)

	s := newSensors(t, sim, ahc1ec0.ProfileTemplate)
	// neither 12V nor DC is routed on this board
	if _, err := s.ReadIn(2); err != ahc1ec0.ErrNotConfigured {
		t.Fatalf("ReadIn(2) = %v, want ErrNotConfigured", err)
	}
	// current sense absent as well
	if _, err := s.ReadIn(4); err != ahc1ec0.ErrNotConfigured {
		t.Fatalf("ReadIn(4) = %v, want ErrNotConfigured", err)
	}
}

func TestSensorsReadTemp(t *testing.T) {
	sim := ecsim.New()
	sim.SetACPI(0x61, 66) // CPU, remote thermal register
	sim.SetACPI(0x60, 44) // system, local thermal register

	s := newSensors(t, sim, ahc1ec0.ProfilePRVR4)
	if s.TempCount() != 2 {
		t.Fatalf("TempCount = %d, want 2", s.TempCount())
	}

	v, err := s.ReadTemp(0)
	if err != nil {
		t.Fatalf("ReadTemp(0): %v", err)
	}
	if v != 66000 {
		t.Fatalf("ReadTemp(0) = %d, want 66000", v)
	}
	v, err = s.ReadTemp(1)
	if err != nil {
		t.Fatalf("ReadTemp(1): %v", err)
	}
	if v != 44000 {
		t.Fatalf("ReadTemp(1) = %d, want 44000", v)
	}

	for i, want := range []string{"CPU Temp", "System Temp"} {
		label, err := s.TempLabel(i)
		if err != nil {
			t.Fatal(err)
		}
		if label != want {
			t.Errorf("TempLabel(%d) = %q, want %q", i, label, want)
		}
		crit, err := s.TempCrit(i)
		if err != nil {
			t.Fatal(err)
		}
		if crit != ahc1ec0.TempCritDefault {
			t.Errorf("TempCrit(%d) = %d, want %d", i, crit, ahc1ec0.TempCritDefault)
		}
	}

	if _, err := s.ReadTemp(2); err == nil {
		t.Error("ReadTemp(2) accepted, want range error")
	}
}
