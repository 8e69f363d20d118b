package ahc1ec0

// GPIO directions as the controller encodes them.
const (
	GPIODirOutput byte = 0x00
	GPIODirInput  byte = 0x01
)

// GPIOPin is a thin handle over one controller pin. It carries no state of
// its own; every call is a fresh transaction on the shared device.
type GPIOPin struct {
	dev *Device
	pin byte
}

// GPIO returns a handle for a controller pin number. User-defined GPIO
// device identifiers live at 0x10-0x17 in the pin table; resolve them with
// PinTable().Lookup before calling this.
func (d *Device) GPIO(pin byte) GPIOPin {
	return GPIOPin{dev: d, pin: pin}
}

// Number returns the controller pin number.
func (p GPIOPin) Number() byte { return p.pin }

// Level reads the pin status as a boolean level.
func (p GPIOPin) Level() (bool, error) {
	v, err := p.dev.ReadGPIOStatus(p.pin)
	if err != nil {
		return false, err
	}
	return v != 0, nil
}

// SetLevel drives the pin status.
func (p GPIOPin) SetLevel(level bool) error {
	var v byte
	if level {
		v = 1
	}
	return p.dev.WriteGPIOStatus(p.pin, v)
}

// Direction reads the pin's direction register.
func (p GPIOPin) Direction() (byte, error) {
	return p.dev.ReadGPIODirection(p.pin)
}

// SetDirection writes the pin's direction register.
func (p GPIOPin) SetDirection(dir byte) error {
	return p.dev.WriteGPIODirection(p.pin, dir)
}
