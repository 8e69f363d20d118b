// Package eeprom24 drives 24Cxx-style serial EEPROMs sitting behind the
// controller's SMBus bridge. Addressing is the classic one-byte register
// pointer, which limits it to parts up to 2 kbit; that covers the
// board-identification EEPROMs this targets.
package eeprom24

import (
	"fmt"

	"tinygo.org/x/drivers"
)

const defaultPageSize = 8

type Device struct {
	bus      drivers.I2C
	addr     uint16
	pageSize int
}

// New binds an EEPROM at a 7-bit address behind any Tx-shaped bus;
// *ahc1ec0.SMBus qualifies. pageSize <= 0 selects the 8-byte page common
// to 24C01/24C02 parts.
func New(bus drivers.I2C, addr uint16, pageSize int) *Device {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return &Device{bus: bus, addr: addr, pageSize: pageSize}
}

// ReadAt fills p starting at the given byte offset.
func (d *Device) ReadAt(off byte, p []byte) error {
	if len(p) == 0 {
		return nil
	}
	if int(off)+len(p) > 256 {
		return fmt.Errorf("eeprom24: read beyond one-byte address space")
	}
	return d.bus.Tx(d.addr, []byte{off}, p)
}

// WriteAt writes p starting at the given byte offset, splitting on page
// boundaries the way the part requires.
func (d *Device) WriteAt(off byte, p []byte) error {
	if int(off)+len(p) > 256 {
		return fmt.Errorf("eeprom24: write beyond one-byte address space")
	}
	for len(p) > 0 {
		n := d.pageSize - int(off)%d.pageSize
		if n > len(p) {
			n = len(p)
		}
		w := make([]byte, 1+n)
		w[0] = off
		copy(w[1:], p[:n])
		if err := d.bus.Tx(d.addr, w, nil); err != nil {
			return err
		}
		off += byte(n)
		p = p[n:]
	}
	return nil
}
