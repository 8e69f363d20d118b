package ahc1ec0

import "fmt"

// LEDPattern is the 10-slot blink pattern the controller cycles through.
type LEDPattern uint16

const (
	LEDOff    LEDPattern = 0x0000
	LEDOn     LEDPattern = 0x03FF
	LEDFast   LEDPattern = 0x02AA
	LEDNormal LEDPattern = 0x0333
	LEDSlow   LEDPattern = 0x03E0
)

// LED control word layout in HW RAM.
const (
	ledCtrlEnable   = 1 << 4
	ledCtrlInternal = 1 << 5 // firmware drives the pattern
	ledPatternShift = 6
	ledPolarityMask = 0x0F

	ledLanes = 4
)

// LED is one of the four HW RAM LED control lanes, bound to a logical LED
// device identifier resolved through the pin table.
type LED struct {
	dev      *Device
	lane     int
	deviceID byte
	pin      byte
}

// LED binds a control lane to an LED device identifier. Boards that do not
// route the identifier report ErrNotConfigured.
func (d *Device) LED(lane int, deviceID byte) (*LED, error) {
	if lane < 0 || lane >= ledLanes {
		return nil, fmt.Errorf("ahc1ec0: led lane %d out of range [0, %d]", lane, ledLanes-1)
	}
	pin, ok := d.table.Lookup(deviceID)
	if !ok {
		return nil, ErrNotConfigured
	}
	return &LED{dev: d, lane: lane, deviceID: deviceID, pin: pin}, nil
}

// Pin returns the resolved controller pin.
func (l *LED) Pin() byte { return l.pin }

// SetPattern programs the lane: pin, control word, device id. A zero pattern
// disables the lane entirely.
func (l *LED) SetPattern(p LEDPattern) error {
	var ctrl uint16
	if p != LEDOff {
		ctrl = uint16(p)<<ledPatternShift | ledCtrlEnable | ledCtrlInternal
	}
	if err := l.dev.WriteRAM(ramLEDPin(l.lane), l.pin); err != nil {
		return err
	}
	if err := l.dev.WriteRAM(ramLEDCtrlHi(l.lane), byte(ctrl>>8)); err != nil {
		return err
	}
	if err := l.dev.WriteRAM(ramLEDCtrlLo(l.lane), byte(ctrl)); err != nil {
		return err
	}
	return l.dev.WriteRAM(ramLEDDeviceID(l.lane), l.deviceID)
}

// Pattern reads the lane's control word back and extracts the pattern bits.
func (l *LED) Pattern() (LEDPattern, error) {
	hi, err := l.dev.ReadRAM(ramLEDCtrlHi(l.lane))
	if err != nil {
		return 0, err
	}
	lo, err := l.dev.ReadRAM(ramLEDCtrlLo(l.lane))
	if err != nil {
		return 0, err
	}
	ctrl := uint16(hi)<<8 | uint16(lo)
	if ctrl&ledCtrlEnable == 0 {
		return LEDOff, nil
	}
	return LEDPattern(ctrl >> ledPatternShift), nil
}
