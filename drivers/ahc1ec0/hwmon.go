package ahc1ec0

import "fmt"

// TempCritDefault is reported as the critical threshold for every
// temperature channel, regardless of profile (milli-degrees C).
const TempCritDefault = 100000

// Sensors converts raw controller samples into physical units for the
// channels the selected profile exposes. Every read is a fresh hardware
// transaction; nothing is cached.
type Sensors struct {
	dev     *Device
	profile *Profile
	table   PinTable
}

// NewSensors binds the profile to the device's discovered pin table.
func NewSensors(dev *Device, profile *Profile) *Sensors {
	return &Sensors{dev: dev, profile: profile, table: dev.PinTable()}
}

// Profile returns the selected profile.
func (s *Sensors) Profile() *Profile { return s.profile }

// InCount reports how many voltage/current channels the profile exposes.
func (s *Sensors) InCount() int { return len(s.profile.Ins) }

// TempCount reports how many temperature channels the profile exposes.
func (s *Sensors) TempCount() int { return len(s.profile.Temps) }

// InLabel returns the fixed label of an exposed voltage/current channel.
func (s *Sensors) InLabel(channel int) (string, error) {
	if channel < 0 || channel >= len(s.profile.Ins) {
		return "", fmt.Errorf("ahc1ec0: no in channel %d", channel)
	}
	return s.profile.Ins[channel].Label(), nil
}

// TempLabel returns the fixed label of an exposed temperature channel.
func (s *Sensors) TempLabel(channel int) (string, error) {
	if channel < 0 || channel >= len(s.profile.Temps) {
		return "", fmt.Errorf("ahc1ec0: no temp channel %d", channel)
	}
	return s.profile.Temps[channel].Label(), nil
}

// TempCrit returns the critical threshold of an exposed temperature channel.
func (s *Sensors) TempCrit(channel int) (int64, error) {
	if channel < 0 || channel >= len(s.profile.Temps) {
		return 0, fmt.Errorf("ahc1ec0: no temp channel %d", channel)
	}
	return TempCritDefault, nil
}

// ReadIn samples an exposed voltage/current channel and reports it in the
// decimal milli-unit scale all in channels share.
func (s *Sensors) ReadIn(channel int) (int64, error) {
	if channel < 0 || channel >= len(s.profile.Ins) {
		return 0, fmt.Errorf("ahc1ec0: no in channel %d", channel)
	}
	switch s.profile.Ins[channel] {
	case InVBat:
		return s.readRail(s.table.VBat)
	case In5VSB:
		return s.readRail(s.table.V5)
	case In12V:
		// Boards without a dedicated 12V divider report it on the
		// onboard-DC pin instead.
		v, err := s.readRail(s.table.V12)
		if err == ErrNotConfigured {
			return s.readRail(s.table.VDC)
		}
		return v, err
	case InVCore:
		return s.readRail(s.table.VCore)
	case InCurrent:
		return s.readRail(s.table.Current)
	default:
		return 0, fmt.Errorf("ahc1ec0: no in channel %d", channel)
	}
}

// ReadTemp samples an exposed temperature channel in milli-degrees C.
func (s *Sensors) ReadTemp(channel int) (int64, error) {
	if channel < 0 || channel >= len(s.profile.Temps) {
		return 0, fmt.Errorf("ahc1ec0: no temp channel %d", channel)
	}
	var addr byte
	switch s.profile.Temps[channel] {
	case TempCPU:
		addr = acpiThermalRemote
	case TempSystem:
		addr = acpiThermalLocal
	default:
		return 0, fmt.Errorf("ahc1ec0: no temp channel %d", channel)
	}
	v, err := s.dev.ReadACPI(addr)
	if err != nil {
		return 0, err
	}
	return int64(v) * 1000, nil
}

func (s *Sensors) readRail(b Binding) (int64, error) {
	raw, err := s.dev.ReadAD(b.Pin, b.Multiplier)
	if err != nil {
		return 0, err
	}
	return s.profile.scale(raw), nil
}

// scale applies the profile pipeline to a raw sample. The resolution branch
// deliberately overwrites the divider-ratio branch instead of combining with
// it; every shipped profile sets a resolution, which makes the divider path
// dead there. The firmware-facing logic works this way and the output scale
// is calibrated against it, so the order and the overwrite must not change.
func (p *Profile) scale(raw int64) int64 {
	var v int64
	if p.R2 != 0 {
		v = raw * (p.R1 + p.R2) / p.R2
	}
	if p.Resolution != 0 {
		v = raw * p.Resolution / 1000 / 1000
	}
	if p.Offset != 0 {
		v += p.Offset * 100
	}
	return v * 10
}
