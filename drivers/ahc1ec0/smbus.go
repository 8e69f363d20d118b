package ahc1ec0

import (
	"errors"
	"fmt"
	"sync"

	"tinygo.org/x/drivers"
)

// SMBus exposes one of the controller's SMBus channels as a byte/word/block
// master. Opcodes are passed through to the firmware engine uninterpreted;
// this is a bridge, not an SMBus stack. It also satisfies the
// tinygo.org/x/drivers I2C Tx shape so existing peripheral drivers can sit
// on top of it.
type SMBus struct {
	mu      sync.Mutex
	dev     *Device
	channel byte
}

// ErrSMBus reports a firmware-side transfer failure (status error bits set).
var ErrSMBus = errors.New("ahc1ec0: smbus transfer failed")

var _ drivers.I2C = (*SMBus)(nil)

// SMBus opens a channel selector in [0, 4]. Each call returns an
// independent handle; all of them funnel through the shared Device.
func (d *Device) SMBus(channel byte) (*SMBus, error) {
	if channel > 4 {
		return nil, fmt.Errorf("ahc1ec0: smbus channel %d out of range [0, 4]", channel)
	}
	return &SMBus{dev: d, channel: channel}, nil
}

// execute kicks off the staged transaction and polls the status register
// until the firmware reports completion. The poll budget reuses the
// handshake retry configuration.
func (b *SMBus) execute(protocol byte) error {
	if err := b.dev.WriteACPI(acpiSMBusProtocol, protocol); err != nil {
		return err
	}
	for i := 0; i < b.dev.cfg.RetryCount; i++ {
		st, err := b.dev.ReadACPI(acpiSMBusStatus)
		if err != nil {
			return err
		}
		if st&smbusStatusDone != 0 {
			if st&smbusStatusErr != 0 {
				return ErrSMBus
			}
			return nil
		}
		b.dev.cfg.Delay(b.dev.cfg.RetryDelay)
	}
	return ErrTimeout
}

// stage writes the common transaction header: channel, slave, command code.
func (b *SMBus) stage(addr, cmd byte) error {
	if err := b.dev.WriteACPI(acpiSMBusChannel, b.channel); err != nil {
		return err
	}
	if err := b.dev.WriteACPI(acpiSMBusSlave, addr<<1); err != nil {
		return err
	}
	return b.dev.WriteACPI(acpiSMBusCmd, cmd)
}

// ReadByte performs an SMBus Read Byte against a command register.
func (b *SMBus) ReadByte(addr, cmd byte) (byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.stage(addr, cmd); err != nil {
		return 0, err
	}
	if err := b.execute(smbusByteRead); err != nil {
		return 0, err
	}
	return b.dev.ReadACPI(acpiSMBusData)
}

// WriteByte performs an SMBus Write Byte against a command register.
func (b *SMBus) WriteByte(addr, cmd, v byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.stage(addr, cmd); err != nil {
		return err
	}
	if err := b.dev.WriteACPI(acpiSMBusData, v); err != nil {
		return err
	}
	return b.execute(smbusByteWrite)
}

// ReadWord performs an SMBus Read Word (low byte first).
func (b *SMBus) ReadWord(addr, cmd byte) (uint16, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.stage(addr, cmd); err != nil {
		return 0, err
	}
	if err := b.execute(smbusWordRead); err != nil {
		return 0, err
	}
	lo, err := b.dev.ReadACPI(acpiSMBusData)
	if err != nil {
		return 0, err
	}
	hi, err := b.dev.ReadACPI(acpiSMBusData + 1)
	if err != nil {
		return 0, err
	}
	return uint16(hi)<<8 | uint16(lo), nil
}

// WriteWord performs an SMBus Write Word (low byte first).
func (b *SMBus) WriteWord(addr, cmd byte, v uint16) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.stage(addr, cmd); err != nil {
		return err
	}
	if err := b.dev.WriteACPI(acpiSMBusData, byte(v)); err != nil {
		return err
	}
	if err := b.dev.WriteACPI(acpiSMBusData+1, byte(v>>8)); err != nil {
		return err
	}
	return b.execute(smbusWordWrite)
}

// Tx implements the drivers.I2C contract: an optional write phase followed
// by an optional read phase, without interpreting the payload. The write is
// staged through the data window (count first), the requested read length
// goes into the command slot, and the firmware runs the combined transfer.
func (b *SMBus) Tx(addr uint16, w, r []byte) error {
	if len(w) > smbusDataWindow-1 || len(r) > smbusDataWindow {
		return fmt.Errorf("ahc1ec0: smbus transfer exceeds %d-byte window", smbusDataWindow)
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.stage(byte(addr), byte(len(r))); err != nil {
		return err
	}
	if err := b.dev.WriteACPI(acpiSMBusData, byte(len(w))); err != nil {
		return err
	}
	for i, v := range w {
		if err := b.dev.WriteACPI(acpiSMBusData+1+byte(i), v); err != nil {
			return err
		}
	}
	if err := b.execute(smbusI2CWriteRead); err != nil {
		return err
	}
	for i := range r {
		v, err := b.dev.ReadACPI(acpiSMBusData + byte(i))
		if err != nil {
			return err
		}
		r[i] = v
	}
	return nil
}
