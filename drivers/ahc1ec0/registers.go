// Package ahc1ec0 drives the AHC1EC0 embedded system-management controller
// over its two 8-bit I/O ports using the half-duplex, busy-polled
// command/response handshake the firmware implements.
package ahc1ec0

const (
	// Default I/O port assignment.
	CommandPortDefault = 0x29A // command/status port
	DataPortDefault    = 0x299 // data port

	// Handshake status bits, read from the command port.
	StatusOBF = 0x01 // bit 0: output buffer full, response byte ready
	StatusIBF = 0x02 // bit 1: input buffer full, controller busy

	// --- Command opcodes ---

	// HW RAM
	opRAMRead  = 0x88
	opRAMWrite = 0x89

	// ACPI RAM
	opACPIRead  = 0x80
	opACPIWrite = 0x81

	// Dynamic pin table
	opTableSelectItem = 0x20
	opTableGetPin     = 0x21
	opTableGetDevID   = 0x22

	// Analog-to-digital converter
	opADSelect  = 0x15
	opADReadLSB = 0x16
	opADReadMSB = 0x1F

	// GPIO
	opGPIOSelect      = 0x10
	opGPIOStatusRead  = 0x11
	opGPIOStatusWrite = 0x12
	opGPIODirRead     = 0x1D
	opGPIODirWrite    = 0x1E

	// Watchdog
	opWDTStart = 0x28
	opWDTStop  = 0x29
	opWDTReset = 0x2A

	// SMBus channel select
	opSMBusChannelSet = 0x8A

	// sentinel reported at pin-select time for unconfigured pins,
	// and marking unassigned pin-table slots
	sentinelUnassigned = 0xFF

	tableSlots = 32 // fixed capacity of the dynamic pin table
)

// Device identifiers resolved through the dynamic pin table.
// The ×2/×10 variants report the same rail through an on-board divider.
const (
	didSMBusOEM0 = 0x28 // SMBus channel 0

	didCMOSBat    = 0x50
	didCMOSBatX2  = 0x51
	didCMOSBatX10 = 0x52

	did5VS0    = 0x56
	did5VS0X2  = 0x57
	did5VS0X10 = 0x58
	did5VS5    = 0x59
	did5VS5X2  = 0x5A
	did5VS5X10 = 0x5B

	did12VS0    = 0x62
	did12VS0X2  = 0x63
	did12VS0X10 = 0x64

	didVCoreA    = 0x65
	didVCoreAX2  = 0x66
	didVCoreAX10 = 0x67
	didVCoreB    = 0x68
	didVCoreBX2  = 0x69
	didVCoreBX10 = 0x6A

	didDC    = 0x6B
	didDCX2  = 0x6C
	didDCX10 = 0x6D

	didCurrent = 0x74
)

// LED device identifiers.
const (
	DIDLEDRun         = 0xE1
	DIDLEDErr         = 0xE2
	DIDLEDSysRecovery = 0xE3
	DIDLEDD105G       = 0xE4
	DIDLEDD106G       = 0xE5
	DIDLEDD107G       = 0xE6
)

// HW RAM addresses.
const (
	ramResetDelayHi = 0x5E // watchdog delay, high byte
	ramResetDelayLo = 0x5F // watchdog delay, low byte

	ramLEDBase = 0xA0 // 4 lanes x 4 bytes: pin, ctrl hi, ctrl lo, device id
)

func ramLEDPin(lane int) byte      { return byte(ramLEDBase + 4*lane) }
func ramLEDCtrlHi(lane int) byte   { return byte(ramLEDBase + 4*lane + 1) }
func ramLEDCtrlLo(lane int) byte   { return byte(ramLEDBase + 4*lane + 2) }
func ramLEDDeviceID(lane int) byte { return byte(ramLEDBase + 4*lane + 3) }

// ACPI RAM addresses.
const (
	acpiThermalLocal  = 0x60 // system temperature, degrees C
	acpiThermalRemote = 0x61 // CPU temperature, degrees C

	acpiBrightness = 0x50

	// SMBus transaction window
	acpiSMBusProtocol = 0x00
	acpiSMBusStatus   = 0x01
	acpiSMBusSlave    = 0x02 // slave address, bit 0 must be 0
	acpiSMBusCmd      = 0x03
	acpiSMBusData     = 0x04 // 0x04-0x24 data window
	acpiSMBusChannel  = 0x2B // channel selector (0-4)
)

// SMBus transmit protocol codes written to acpiSMBusProtocol.
const (
	smbusQuickWrite   = 0x02
	smbusQuickRead    = 0x03
	smbusByteSend     = 0x04
	smbusByteReceive  = 0x05
	smbusByteWrite    = 0x06
	smbusByteRead     = 0x07
	smbusWordWrite    = 0x08
	smbusWordRead     = 0x09
	smbusBlockWrite   = 0x0A
	smbusBlockRead    = 0x0B
	smbusI2CReadWrite = 0x0E
	smbusI2CWriteRead = 0x0F
)

// SMBus status register values.
const (
	smbusStatusDone = 0x80 // transaction completed
	smbusStatusErr  = 0x07 // low bits carry a firmware error code
)

const smbusDataWindow = 32 // bytes at acpiSMBusData
