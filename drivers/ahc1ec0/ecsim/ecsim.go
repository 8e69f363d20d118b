// Package ecsim is a behavioural model of the AHC1EC0 firmware front-end:
// the two-port handshake, the command state machine, the dynamic pin table,
// AD/GPIO pins, watchdog commands and the SMBus engine. It backs the driver
// tests and the demo mode of cmd/ecmon, and it asserts the protocol
// invariant the hardware depends on: a select→transfer sequence must never
// be interleaved with another transaction's bytes.
package ecsim

import (
	"sync"

	"ecio-go/drivers/ahc1ec0"
)

const unassigned = 0xFF

// gpioState is one simulated controller pin.
type gpioState struct {
	status byte
	dir    byte
}

// SMBusSlave is a register-file style peripheral on a simulated channel.
// For pass-through transfers the first written byte acts as a register
// pointer, as the common SMBus peripherals do.
type SMBusSlave struct {
	Regs [256]byte
}

// Controller implements ahc1ec0.PortIO.
type Controller struct {
	mu sync.Mutex

	cmdPort  uint16
	dataPort uint16

	ram  [256]byte
	acpi [256]byte

	table    []ahc1ec0.TableEntry
	ad       map[byte]uint16
	gpio     map[byte]*gpioState
	slaves   map[byte]*SMBusSlave
	selSlot  int // selected pin-table slot, -1 when none
	selGPIO  byte
	selAD    byte
	pending  string // "", "gpio", "ad": a select awaiting its transfer
	curOp    byte
	expect   int // data bytes still owed for curOp
	args     []byte
	outQ     []byte
	wedged   bool
	violates int

	wdtRunning bool
	wdtDelay   uint16 // captured (tenths-1) at start
	starts     int
	stops      int
	pings      int
}

var _ ahc1ec0.PortIO = (*Controller)(nil)

// New returns a controller wired at the default port pair with an empty
// pin table.
func New() *Controller {
	return &Controller{
		cmdPort:  ahc1ec0.CommandPortDefault,
		dataPort: ahc1ec0.DataPortDefault,
		ad:       map[byte]uint16{},
		gpio:     map[byte]*gpioState{},
		slaves:   map[byte]*SMBusSlave{},
		selSlot:  -1,
	}
}

// -----------------------------------------------------------------------------
// Test rigging
// -----------------------------------------------------------------------------

// AddTableEntry appends a slot to the dynamic pin table.
func (c *Controller) AddTableEntry(deviceID, pin byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.table = append(c.table, ahc1ec0.TableEntry{DeviceID: deviceID, Pin: pin})
}

// SetAD makes a pin sample as an AD input with the given raw code.
func (c *Controller) SetAD(pin byte, raw uint16) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ad[pin] = raw
}

// AddGPIO makes a pin selectable as GPIO with initial status and direction.
func (c *Controller) AddGPIO(pin, status, dir byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gpio[pin] = &gpioState{status: status, dir: dir}
}

// AddSMBusSlave attaches a register-file peripheral at a 7-bit address.
func (c *Controller) AddSMBusSlave(addr byte) *SMBusSlave {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := &SMBusSlave{}
	c.slaves[addr] = s
	return s
}

// SetACPI seeds a byte in the ACPI RAM window (e.g. a thermal register).
func (c *Controller) SetACPI(addr, v byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.acpi[addr] = v
}

// RAM returns a byte of HW RAM.
func (c *Controller) RAM(addr byte) byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ram[addr]
}

// WedgeBusy makes the controller permanently busy: IBF stays set and no
// response byte ever appears, so every wait exhausts its budget.
func (c *Controller) WedgeBusy() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.wedged = true
}

// Violations reports how many protocol-sequencing violations the model has
// observed. Serialized whole transactions never produce any.
func (c *Controller) Violations() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.violates
}

// WatchdogRunning reports the simulated countdown state.
func (c *Controller) WatchdogRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.wdtRunning
}

// WatchdogDelay returns the delay value captured at the last start
// (the programmed tenths minus one).
func (c *Controller) WatchdogDelay() uint16 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.wdtDelay
}

// Counters returns how many start/stop/ping commands were issued.
func (c *Controller) Counters() (starts, stops, pings int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.starts, c.stops, c.pings
}

// -----------------------------------------------------------------------------
// PortIO
// -----------------------------------------------------------------------------

func (c *Controller) In(port uint16) (byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch port {
	case c.cmdPort:
		var s byte
		if c.wedged {
			return ahc1ec0.StatusIBF, nil
		}
		if len(c.outQ) > 0 {
			s |= ahc1ec0.StatusOBF
		}
		return s, nil
	case c.dataPort:
		if len(c.outQ) == 0 {
			c.violates++
			return 0, nil
		}
		v := c.outQ[0]
		c.outQ = c.outQ[1:]
		return v, nil
	default:
		c.violates++
		return 0, nil
	}
}

func (c *Controller) Out(port uint16, v byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch port {
	case c.cmdPort:
		if c.expect > 0 {
			// command issued while a data phase was still owed
			c.violates++
		}
		c.beginCommand(v)
	case c.dataPort:
		if c.expect == 0 {
			c.violates++
			return nil
		}
		c.args = append(c.args, v)
		c.expect--
		if c.expect == 0 {
			c.finishCommand()
		}
	default:
		c.violates++
	}
	return nil
}

func (c *Controller) Close() error { return nil }

// -----------------------------------------------------------------------------
// Command state machine
// -----------------------------------------------------------------------------

func (c *Controller) beginCommand(op byte) {
	c.curOp = op
	c.args = c.args[:0]
	switch op {
	case 0x88, 0x20, 0x15, 0x10, 0x80: // one data byte follows
		c.expect = 1
	case 0x89, 0x81: // addr + value follow
		c.expect = 2
	case 0x12, 0x1E: // gpio writes: value follows
		if c.pending != "gpio" {
			c.violates++
		}
		c.expect = 1
	case 0x11: // gpio status read
		c.transferGPIO(op)
	case 0x1D: // gpio dir read
		c.transferGPIO(op)
	case 0x16, 0x1F: // AD LSB/MSB
		if c.pending != "ad" {
			c.violates++
			c.outQ = append(c.outQ, 0)
			return
		}
		raw := c.ad[c.selAD]
		if op == 0x16 {
			c.outQ = append(c.outQ, byte(raw))
		} else {
			c.outQ = append(c.outQ, byte(raw>>8))
			c.pending = ""
		}
	case 0x21: // table get pin
		if c.selSlot >= 0 && c.selSlot < len(c.table) {
			c.outQ = append(c.outQ, c.table[c.selSlot].Pin)
		} else {
			c.outQ = append(c.outQ, unassigned)
		}
	case 0x22: // table get device id
		if c.selSlot >= 0 && c.selSlot < len(c.table) {
			c.outQ = append(c.outQ, c.table[c.selSlot].DeviceID)
		} else {
			c.outQ = append(c.outQ, unassigned)
		}
	case 0x28: // watchdog start
		c.wdtRunning = true
		c.wdtDelay = uint16(c.ram[0x5E])<<8 | uint16(c.ram[0x5F])
		c.starts++
	case 0x29: // watchdog stop
		c.wdtRunning = false
		c.stops++
	case 0x2A: // watchdog keepalive
		c.pings++
	default:
		// unknown one-shot command: accept silently, like the firmware
	}
}

func (c *Controller) finishCommand() {
	switch c.curOp {
	case 0x88: // RAM read
		c.outQ = append(c.outQ, c.ram[c.args[0]])
	case 0x89: // RAM write
		c.ram[c.args[0]] = c.args[1]
	case 0x80: // ACPI read
		c.outQ = append(c.outQ, c.acpi[c.args[0]])
	case 0x81: // ACPI write
		c.acpi[c.args[0]] = c.args[1]
		if c.args[0] == 0x00 { // protocol register kicks the SMBus engine
			c.runSMBus(c.args[1])
		}
	case 0x20: // table select item
		idx := int(c.args[0])
		if idx < len(c.table) && !c.table[idx].Unassigned() {
			c.selSlot = idx
			c.outQ = append(c.outQ, byte(idx))
		} else {
			c.selSlot = -1
			c.outQ = append(c.outQ, unassigned)
		}
	case 0x15: // AD select
		if c.pending != "" {
			c.violates++ // select interleaved into another sequence
		}
		pin := c.args[0]
		if _, ok := c.ad[pin]; ok {
			c.selAD = pin
			c.pending = "ad"
			c.outQ = append(c.outQ, 0x00)
		} else {
			c.pending = ""
			c.outQ = append(c.outQ, unassigned)
		}
	case 0x10: // GPIO select
		if c.pending != "" {
			c.violates++
		}
		pin := c.args[0]
		if _, ok := c.gpio[pin]; ok {
			c.selGPIO = pin
			c.pending = "gpio"
			c.outQ = append(c.outQ, pin)
		} else {
			c.pending = ""
			c.outQ = append(c.outQ, unassigned)
		}
	case 0x12: // GPIO status write
		if g, ok := c.gpio[c.selGPIO]; ok {
			g.status = c.args[0]
		}
		c.pending = ""
	case 0x1E: // GPIO dir write
		if g, ok := c.gpio[c.selGPIO]; ok {
			g.dir = c.args[0]
		}
		c.pending = ""
	}
}

func (c *Controller) transferGPIO(op byte) {
	if c.pending != "gpio" {
		c.violates++
		c.outQ = append(c.outQ, 0)
		return
	}
	g := c.gpio[c.selGPIO]
	if op == 0x11 {
		c.outQ = append(c.outQ, g.status)
	} else {
		c.outQ = append(c.outQ, g.dir)
	}
	c.pending = ""
}

// -----------------------------------------------------------------------------
// SMBus engine
// -----------------------------------------------------------------------------

func (c *Controller) runSMBus(protocol byte) {
	const (
		regStatus = 0x01
		regSlave  = 0x02
		regCmd    = 0x03
		regData   = 0x04
		done      = 0x80
		failed    = 0x84
	)
	addr := c.acpi[regSlave] >> 1
	cmd := c.acpi[regCmd]
	s, ok := c.slaves[addr]
	if !ok {
		c.acpi[regStatus] = failed
		return
	}
	switch protocol {
	case 0x06: // write byte
		s.Regs[cmd] = c.acpi[regData]
	case 0x07: // read byte
		c.acpi[regData] = s.Regs[cmd]
	case 0x08: // write word
		s.Regs[cmd] = c.acpi[regData]
		s.Regs[cmd+1] = c.acpi[regData+1]
	case 0x09: // read word
		c.acpi[regData] = s.Regs[cmd]
		c.acpi[regData+1] = s.Regs[cmd+1]
	case 0x0F: // pass-through write then read; cmd slot holds read length
		wlen := int(c.acpi[regData])
		var reg byte
		if wlen > 0 {
			reg = c.acpi[regData+1]
			for i := 1; i < wlen; i++ {
				s.Regs[reg+byte(i-1)] = c.acpi[regData+1+byte(i)]
			}
		}
		for i := 0; i < int(cmd); i++ {
			c.acpi[regData+byte(i)] = s.Regs[reg+byte(i)]
		}
	default:
		c.acpi[regStatus] = failed
		return
	}
	c.acpi[regStatus] = done
}
