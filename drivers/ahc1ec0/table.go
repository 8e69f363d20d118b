package ahc1ec0

// TableEntry is one slot of the dynamic pin table: an abstract device
// identifier and the physical controller pin it is wired to. 0xFF in either
// field means unassigned.
type TableEntry struct {
	DeviceID byte
	Pin      byte
}

// Unassigned reports whether the slot carries no assignment.
func (e TableEntry) Unassigned() bool {
	return e.DeviceID == sentinelUnassigned || e.Pin == sentinelUnassigned
}

// Binding ties a logical rail to a physical pin and the divider multiplier
// its device-identifier variant implies. An unbound rail carries the
// unassigned sentinel as its pin, so reads against it reach the controller
// and come back as not configured.
type Binding struct {
	Pin        byte
	Multiplier uint8
}

// Bound reports whether the rail resolved during discovery.
func (b Binding) Bound() bool { return b.Multiplier != 0 }

// PinTable is the result of the one-shot boot-time discovery walk. It is
// built before the Device is shared and read-only afterwards.
type PinTable struct {
	VBat    Binding
	V5      Binding
	V12     Binding
	VCore   Binding
	VDC     Binding
	Current Binding

	// SMBus channel 0 pin; sentinelUnassigned when absent.
	SMBus0Pin byte

	entries [tableSlots]TableEntry
}

// Entries returns a copy of the raw table slots.
func (t *PinTable) Entries() [tableSlots]TableEntry { return t.entries }

// Lookup returns the pin bound to a device identifier, scanning the filled
// portion of the table.
func (t *PinTable) Lookup(deviceID byte) (pin byte, ok bool) {
	for _, e := range t.entries {
		if e.Unassigned() {
			return 0, false
		}
		if e.DeviceID == deviceID {
			return e.Pin, true
		}
	}
	return 0, false
}

// PinTable returns the discovered table.
func (d *Device) PinTable() PinTable { return d.table }

// discoverPinTable walks the 32 fixed slots once, before the device is
// exposed to concurrent callers. The firmware populates the table
// contiguously, so the first unassigned slot terminates the scan; a
// transport error does the same, leaving the remaining slots unassigned.
func (d *Device) discoverPinTable() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i := range d.table.entries {
		d.table.entries[i] = TableEntry{DeviceID: sentinelUnassigned, Pin: sentinelUnassigned}
	}
	unbound := Binding{Pin: sentinelUnassigned}
	d.table.VBat = unbound
	d.table.V5 = unbound
	d.table.V12 = unbound
	d.table.VCore = unbound
	d.table.VDC = unbound
	d.table.Current = unbound
	d.table.SMBus0Pin = sentinelUnassigned

	for i := 0; i < tableSlots; i++ {
		if err := d.sendCommand(opTableSelectItem); err != nil {
			break
		}
		if err := d.sendData(byte(i)); err != nil {
			break
		}
		v, err := d.recvData()
		if err != nil || v == sentinelUnassigned {
			break
		}

		if err := d.sendCommand(opTableGetPin); err != nil {
			break
		}
		pin, err := d.recvData()
		if err != nil || pin == sentinelUnassigned {
			break
		}

		if err := d.sendCommand(opTableGetDevID); err != nil {
			break
		}
		devID, err := d.recvData()
		if err != nil {
			break
		}

		d.table.entries[i] = TableEntry{DeviceID: devID, Pin: pin}
	}

	d.table.resolveRails()
}

// resolveRails binds each logical rail by scanning the filled table for the
// device-identifier family it accepts (base and its x2/x10 variants).
func (t *PinTable) resolveRails() {
	for _, e := range t.entries {
		if e.Unassigned() {
			break
		}
		switch e.DeviceID {
		case didCMOSBat:
			t.VBat = Binding{Pin: e.Pin, Multiplier: 1}
		case didCMOSBatX2:
			t.VBat = Binding{Pin: e.Pin, Multiplier: 2}
		case didCMOSBatX10:
			t.VBat = Binding{Pin: e.Pin, Multiplier: 10}

		case did5VS0, did5VS5:
			t.V5 = Binding{Pin: e.Pin, Multiplier: 1}
		case did5VS0X2, did5VS5X2:
			t.V5 = Binding{Pin: e.Pin, Multiplier: 2}
		case did5VS0X10, did5VS5X10:
			t.V5 = Binding{Pin: e.Pin, Multiplier: 10}

		case did12VS0:
			t.V12 = Binding{Pin: e.Pin, Multiplier: 1}
		case did12VS0X2:
			t.V12 = Binding{Pin: e.Pin, Multiplier: 2}
		case did12VS0X10:
			t.V12 = Binding{Pin: e.Pin, Multiplier: 10}

		case didVCoreA, didVCoreB:
			t.VCore = Binding{Pin: e.Pin, Multiplier: 1}
		case didVCoreAX2, didVCoreBX2:
			t.VCore = Binding{Pin: e.Pin, Multiplier: 2}
		case didVCoreAX10, didVCoreBX10:
			t.VCore = Binding{Pin: e.Pin, Multiplier: 10}

		case didDC:
			t.VDC = Binding{Pin: e.Pin, Multiplier: 1}
		case didDCX2:
			t.VDC = Binding{Pin: e.Pin, Multiplier: 2}
		case didDCX10:
			t.VDC = Binding{Pin: e.Pin, Multiplier: 10}

		case didCurrent:
			t.Current = Binding{Pin: e.Pin, Multiplier: 1}

		case didSMBusOEM0:
			t.SMBus0Pin = e.Pin
		}
	}
}
