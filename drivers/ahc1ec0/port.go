package ahc1ec0

import "time"

// PortIO is the raw two-port channel to the controller. Implementations are
// expected to be safe for the single-threaded access pattern the Device
// enforces; they need no locking of their own.
type PortIO interface {
	// In reads one byte from an I/O port.
	In(port uint16) (byte, error)
	// Out writes one byte to an I/O port.
	Out(port uint16, v byte) error
	Close() error
}

// Config centralises port assignment and handshake timing. The retry budget
// and delay function are injectable so tests never sleep for real.
type Config struct {
	CommandPort uint16
	DataPort    uint16

	RetryCount int           // handshake poll attempts per wait
	RetryDelay time.Duration // pause between poll attempts

	// Delay is called between poll attempts; nil means time.Sleep.
	Delay func(time.Duration)
}

// DefaultConfig matches the controller's documented timing: 5000 polls
// 200µs apart, roughly one second worst case per wait.
func DefaultConfig() Config {
	return Config{
		CommandPort: CommandPortDefault,
		DataPort:    DataPortDefault,
		RetryCount:  5000,
		RetryDelay:  200 * time.Microsecond,
	}
}

func (c Config) withDefaults() Config {
	if c.CommandPort == 0 {
		c.CommandPort = CommandPortDefault
	}
	if c.DataPort == 0 {
		c.DataPort = DataPortDefault
	}
	if c.RetryCount <= 0 {
		c.RetryCount = 5000
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = 200 * time.Microsecond
	}
	if c.Delay == nil {
		c.Delay = time.Sleep
	}
	return c
}
