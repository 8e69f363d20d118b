package ahc1ec0

import (
	"errors"
	"sync"
)

var (
	// ErrTimeout reports that a handshake wait exhausted its retry budget.
	// The in-progress transaction is abandoned; nothing is retried here.
	ErrTimeout = errors.New("ahc1ec0: controller handshake timeout")

	// ErrNotConfigured reports the pin-select sentinel: the controller has
	// no assignment for the requested pin. Callers treat this as "feature
	// absent", never as a fault or as a zero sample.
	ErrNotConfigured = errors.New("ahc1ec0: pin not configured")
)

// Device is the transaction layer over the shared two-port channel. One
// mutex serializes whole transactions; a transaction's command, address and
// data phases are never split across lock acquisitions. All subsystems
// (sensors, watchdog, GPIO, LED, SMBus) share one Device instance.
type Device struct {
	mu   sync.Mutex
	port PortIO
	cfg  Config

	table PinTable // frozen after New
}

// New opens the transaction layer and runs the one-shot pin table discovery
// before the device is handed to concurrent callers. A discovery transport
// error leaves the remaining slots unassigned rather than failing the whole
// controller; rails that did not resolve read back as not configured.
func New(port PortIO, cfg Config) (*Device, error) {
	if port == nil {
		return nil, errors.New("ahc1ec0: nil port")
	}
	d := &Device{port: port, cfg: cfg.withDefaults()}
	d.discoverPinTable()
	return d, nil
}

// Config returns the effective configuration.
func (d *Device) Config() Config { return d.cfg }

// Close releases the underlying port.
func (d *Device) Close() error { return d.port.Close() }

// -----------------------------------------------------------------------------
// Handshake waits (callers hold d.mu)
// -----------------------------------------------------------------------------

// waitWritable polls until the controller input buffer is empty (IBF clear).
func (d *Device) waitWritable() error {
	for i := 0; i < d.cfg.RetryCount; i++ {
		s, err := d.port.In(d.cfg.CommandPort)
		if err != nil {
			return err
		}
		if s&StatusIBF == 0 {
			return nil
		}
		d.cfg.Delay(d.cfg.RetryDelay)
	}
	return ErrTimeout
}

// waitReadable polls until a response byte is pending (OBF set).
func (d *Device) waitReadable() error {
	for i := 0; i < d.cfg.RetryCount; i++ {
		s, err := d.port.In(d.cfg.CommandPort)
		if err != nil {
			return err
		}
		if s&StatusOBF != 0 {
			return nil
		}
		d.cfg.Delay(d.cfg.RetryDelay)
	}
	return ErrTimeout
}

// -----------------------------------------------------------------------------
// Byte-level steps (callers hold d.mu)
// -----------------------------------------------------------------------------

func (d *Device) sendCommand(op byte) error {
	if err := d.waitWritable(); err != nil {
		return err
	}
	return d.port.Out(d.cfg.CommandPort, op)
}

func (d *Device) sendData(v byte) error {
	if err := d.waitWritable(); err != nil {
		return err
	}
	return d.port.Out(d.cfg.DataPort, v)
}

func (d *Device) recvData() (byte, error) {
	if err := d.waitReadable(); err != nil {
		return 0, err
	}
	return d.port.In(d.cfg.DataPort)
}

// selectPin issues a select opcode followed by the pin number and checks the
// select result. The sentinel check happens here, uniformly, before any data
// bytes are exchanged, so "not configured" can never be misread as a sample.
func (d *Device) selectPin(op, pin byte) error {
	if err := d.sendCommand(op); err != nil {
		return err
	}
	if err := d.sendData(pin); err != nil {
		return err
	}
	v, err := d.recvData()
	if err != nil {
		return err
	}
	if v == sentinelUnassigned {
		return ErrNotConfigured
	}
	return nil
}

// -----------------------------------------------------------------------------
// Transactions
// -----------------------------------------------------------------------------

// Command issues a single opcode with no data phase (watchdog start/stop/
// reset and similar one-shot commands).
func (d *Device) Command(op byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sendCommand(op)
}

// ReadRAM reads one byte from controller HW RAM.
func (d *Device) ReadRAM(addr byte) (byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.sendCommand(opRAMRead); err != nil {
		return 0, err
	}
	if err := d.sendData(addr); err != nil {
		return 0, err
	}
	return d.recvData()
}

// WriteRAM writes one byte to controller HW RAM.
func (d *Device) WriteRAM(addr, v byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.sendCommand(opRAMWrite); err != nil {
		return err
	}
	if err := d.sendData(addr); err != nil {
		return err
	}
	return d.sendData(v)
}

// ReadACPI reads one byte from the controller's ACPI RAM window.
func (d *Device) ReadACPI(addr byte) (byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.readACPILocked(addr)
}

// WriteACPI writes one byte to the controller's ACPI RAM window.
func (d *Device) WriteACPI(addr, v byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writeACPILocked(addr, v)
}

func (d *Device) readACPILocked(addr byte) (byte, error) {
	if err := d.sendCommand(opACPIRead); err != nil {
		return 0, err
	}
	if err := d.sendData(addr); err != nil {
		return 0, err
	}
	return d.recvData()
}

func (d *Device) writeACPILocked(addr, v byte) error {
	if err := d.sendCommand(opACPIWrite); err != nil {
		return err
	}
	if err := d.sendData(addr); err != nil {
		return err
	}
	return d.sendData(v)
}

// ReadGPIOStatus reads the level of a controller GPIO pin.
func (d *Device) ReadGPIOStatus(pin byte) (byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.selectPin(opGPIOSelect, pin); err != nil {
		return 0, err
	}
	if err := d.sendCommand(opGPIOStatusRead); err != nil {
		return 0, err
	}
	return d.recvData()
}

// WriteGPIOStatus sets the level of a controller GPIO pin.
func (d *Device) WriteGPIOStatus(pin, v byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.selectPin(opGPIOSelect, pin); err != nil {
		return err
	}
	if err := d.sendCommand(opGPIOStatusWrite); err != nil {
		return err
	}
	return d.sendData(v)
}

// ReadGPIODirection reads the direction register of a controller GPIO pin.
func (d *Device) ReadGPIODirection(pin byte) (byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.selectPin(opGPIOSelect, pin); err != nil {
		return 0, err
	}
	if err := d.sendCommand(opGPIODirRead); err != nil {
		return 0, err
	}
	return d.recvData()
}

// WriteGPIODirection sets the direction register of a controller GPIO pin.
func (d *Device) WriteGPIODirection(pin, v byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.selectPin(opGPIOSelect, pin); err != nil {
		return err
	}
	if err := d.sendCommand(opGPIODirWrite); err != nil {
		return err
	}
	return d.sendData(v)
}

// ReadAD samples the analog-to-digital converter on the given pin. The raw
// 10-bit magnitude is assembled from two byte reads, masked to 0x3FF, and
// scaled by the rail multiplier and the fixed x100 decimal factor.
func (d *Device) ReadAD(pin byte, multiplier uint8) (int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.selectPin(opADSelect, pin); err != nil {
		return 0, err
	}
	if err := d.sendCommand(opADReadLSB); err != nil {
		return 0, err
	}
	lsb, err := d.recvData()
	if err != nil {
		return 0, err
	}
	if err := d.sendCommand(opADReadMSB); err != nil {
		return 0, err
	}
	msb, err := d.recvData()
	if err != nil {
		return 0, err
	}
	raw := (uint16(msb)<<8 | uint16(lsb)) & 0x03FF
	return int64(raw) * int64(multiplier) * 100, nil
}
