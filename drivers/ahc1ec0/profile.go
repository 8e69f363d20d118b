package ahc1ec0

import "fmt"

// ProfileKind names a platform family. Profiles are selected once at
// initialization and never swapped at runtime.
type ProfileKind uint8

const (
	// ProfileTemplate covers the TPC-8100TR/TPC-x51T/UNO-x483G family.
	ProfileTemplate ProfileKind = iota
	// ProfileTPC5xxx covers TPC-B500/TPC-5xxx/TPC-B200/TPC-2xxx.
	ProfileTPC5xxx
	// ProfilePRVR4 covers the PR/VR4 family.
	ProfilePRVR4
	// ProfileUNO2271G covers UNO-2271G and UNO-420.
	ProfileUNO2271G

	profileKinds // count; keep last
)

func (k ProfileKind) String() string {
	switch k {
	case ProfileTemplate:
		return "template"
	case ProfileTPC5xxx:
		return "tpc5xxx"
	case ProfilePRVR4:
		return "prvr4"
	case ProfileUNO2271G:
		return "uno2271g"
	default:
		return fmt.Sprintf("profile(%d)", uint8(k))
	}
}

// InChannel identifies one voltage/current input kind. A profile lists the
// kinds it exposes, in order; kinds not listed are absent from the surface.
type InChannel uint8

const (
	InVBat InChannel = iota
	In5VSB
	In12V
	InVCore
	InCurrent
)

// Label returns the fixed front-end label for the channel kind.
func (c InChannel) Label() string {
	switch c {
	case InVBat:
		return "VBAT"
	case In5VSB:
		return "5VSB"
	case In12V:
		return "Vin"
	case InVCore:
		return "VCORE"
	case InCurrent:
		return "Current"
	default:
		return "unknown"
	}
}

// TempChannel identifies one temperature input kind.
type TempChannel uint8

const (
	TempCPU TempChannel = iota
	TempSystem
)

// Label returns the fixed front-end label for the channel kind.
func (c TempChannel) Label() string {
	switch c {
	case TempCPU:
		return "CPU Temp"
	case TempSystem:
		return "System Temp"
	default:
		return "unknown"
	}
}

// Profile carries the platform-selected constants that turn raw samples into
// physical units, plus the ordered channel lists the platform exposes.
// Values are immutable for the process lifetime.
type Profile struct {
	Kind ProfileKind

	Offset     int64
	Resolution int64 // scale per sample group; micro-units per raw count
	R1, R2     int64 // divider resistances, alternate scaling path

	Ins   []InChannel
	Temps []TempChannel
}

var profiles = []Profile{
	{
		Kind:       ProfileTemplate,
		Resolution: 2929,
		R1:         1912,
		R2:         1000,
		Ins:        []InChannel{InVBat, In5VSB, In12V, InVCore, InCurrent},
		Temps:      []TempChannel{TempCPU},
	},
	{
		Kind:       ProfileTPC5xxx,
		Resolution: 2929,
		R1:         1912,
		R2:         1000,
		Ins:        []InChannel{InVBat, In5VSB, In12V, InVCore},
		Temps:      []TempChannel{TempCPU},
	},
	{
		Kind:       ProfilePRVR4,
		Resolution: 2929,
		R1:         1912,
		R2:         1000,
		Ins:        []InChannel{InVBat, In5VSB, In12V, InVCore},
		Temps:      []TempChannel{TempCPU, TempSystem},
	},
	{
		Kind:       ProfileUNO2271G,
		Resolution: 2929,
		R1:         1912,
		R2:         1000,
		Ins:        []InChannel{InVBat, In5VSB, In12V, InVCore},
		Temps:      []TempChannel{TempCPU},
	},
}

// ProfileByIndex resolves an externally supplied profile selector. An
// out-of-range index is a fatal configuration error for the caller's
// initialization path.
func ProfileByIndex(index int) (*Profile, error) {
	if index < 0 || index >= len(profiles) {
		return nil, fmt.Errorf("ahc1ec0: unknown hwmon profile %d", index)
	}
	p := profiles[index]
	return &p, nil
}

// ProfileCount reports how many platform profiles are defined.
func ProfileCount() int { return len(profiles) }
