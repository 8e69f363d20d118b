// Package platform loads the board descriptor that selects the sensor
// profile and the subsystem set a product exposes. The descriptor is read
// once at startup; everything downstream treats it as immutable.
package platform

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"ecio-go/drivers/ahc1ec0"
	"ecio-go/errcode"
)

// Subsystem bits of the platform mask.
type Subsystem uint8

const (
	Brightness Subsystem = 1 << iota
	EEPROM
	GPIO
	Hwmon
	LED
	Watchdog
)

var subsystemNames = map[string]Subsystem{
	"brightness": Brightness,
	"eeprom":     EEPROM,
	"gpio":       GPIO,
	"hwmon":      Hwmon,
	"led":        LED,
	"watchdog":   Watchdog,
}

// Mask is the set of subsystems a platform exposes.
type Mask uint8

// Has reports whether the subsystem is enabled.
func (m Mask) Has(s Subsystem) bool { return uint8(m)&uint8(s) != 0 }

// Names lists the enabled subsystems in a stable order.
func (m Mask) Names() []string {
	ordered := []string{"brightness", "eeprom", "gpio", "hwmon", "led", "watchdog"}
	var out []string
	for _, name := range ordered {
		if m.Has(subsystemNames[name]) {
			out = append(out, name)
		}
	}
	return out
}

// Descriptor is the on-disk platform description.
type Descriptor struct {
	Board      string   `yaml:"board"`
	Profile    int      `yaml:"profile"`
	Subsystems []string `yaml:"subsystems"`
}

// Mask folds the subsystem list into a bitmask. Unknown names are a
// configuration error, not something to skip silently.
func (d *Descriptor) Mask() (Mask, error) {
	var m Mask
	for _, name := range d.Subsystems {
		s, ok := subsystemNames[strings.ToLower(name)]
		if !ok {
			return 0, &errcode.E{C: errcode.UnknownSubsys, Op: "platform.Mask", Msg: name}
		}
		m |= Mask(s)
	}
	return m, nil
}

// SensorProfile resolves the descriptor's profile selector.
func (d *Descriptor) SensorProfile() (*ahc1ec0.Profile, error) {
	p, err := ahc1ec0.ProfileByIndex(d.Profile)
	if err != nil {
		return nil, &errcode.E{C: errcode.UnknownProfile, Op: "platform.SensorProfile", Err: err}
	}
	return p, nil
}

// Parse decodes and validates a YAML descriptor.
func Parse(raw []byte) (*Descriptor, error) {
	var d Descriptor
	if err := yaml.Unmarshal(raw, &d); err != nil {
		return nil, errors.Wrap(err, "platform: decode descriptor")
	}
	if _, err := d.Mask(); err != nil {
		return nil, err
	}
	if _, err := d.SensorProfile(); err != nil {
		return nil, err
	}
	return &d, nil
}

// Load reads a descriptor file.
func Load(path string) (*Descriptor, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "platform: read descriptor")
	}
	return Parse(raw)
}

// Default is the permissive descriptor used when no file is given:
// template profile, every subsystem enabled.
func Default() *Descriptor {
	return &Descriptor{
		Board:      "generic",
		Profile:    int(ahc1ec0.ProfileTemplate),
		Subsystems: []string{"brightness", "eeprom", "gpio", "hwmon", "led", "watchdog"},
	}
}
