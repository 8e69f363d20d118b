package ahc1ec0

import (
	"fmt"
	"sync"
)

// Watchdog timeout bounds, in seconds, at the controller layer. Front-ends
// typically narrow the upper bound further.
const (
	WatchdogMinSeconds = 1
	WatchdogMaxSeconds = 6553
)

// Watchdog programs the controller's reset-delay registers and issues the
// start/stop/keepalive commands. It tracks armed state so a shutdown
// notification can disarm unconditionally.
type Watchdog struct {
	mu  sync.Mutex
	dev *Device

	armed         bool
	timeoutTenths uint16
}

// NewWatchdog returns a disarmed watchdog over the shared device.
func NewWatchdog(dev *Device) *Watchdog {
	return &Watchdog{dev: dev}
}

// Armed reports whether the controller is currently counting down.
func (w *Watchdog) Armed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.armed
}

// Timeout returns the realized timeout in seconds (0 if never armed).
func (w *Watchdog) Timeout() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return int(w.timeoutTenths) / 10
}

func checkSeconds(seconds int) (tenths uint16, err error) {
	if seconds < WatchdogMinSeconds || seconds > WatchdogMaxSeconds {
		return 0, fmt.Errorf("ahc1ec0: watchdog timeout %ds out of range [%d, %d]",
			seconds, WatchdogMinSeconds, WatchdogMaxSeconds)
	}
	return uint16(seconds * 10), nil
}

// Start programs the delay register pair and (re)arms the controller. The
// stop-then-start sequence makes re-arming while already armed safe.
func (w *Watchdog) Start(seconds int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.startLocked(seconds)
}

func (w *Watchdog) startLocked(seconds int) error {
	tenths, err := checkSeconds(seconds)
	if err != nil {
		return err
	}
	delay := tenths - 1
	if err := w.dev.WriteRAM(ramResetDelayLo, byte(delay)); err != nil {
		return err
	}
	if err := w.dev.WriteRAM(ramResetDelayHi, byte(delay>>8)); err != nil {
		return err
	}
	if err := w.dev.Command(opWDTStop); err != nil {
		return err
	}
	if err := w.dev.Command(opWDTStart); err != nil {
		return err
	}
	w.armed = true
	w.timeoutTenths = tenths
	return nil
}

// Stop disarms the controller. Stopping an already disarmed watchdog is a
// no-op at the firmware level and reports success.
func (w *Watchdog) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.dev.Command(opWDTStop); err != nil {
		return err
	}
	w.armed = false
	return nil
}

// Ping issues the keepalive command. Armed state is unchanged.
func (w *Watchdog) Ping() error {
	return w.dev.Command(opWDTReset)
}

// SetTimeout validates and records a new timeout. While armed it reprograms
// the delay registers and re-arms; while disarmed it only takes effect on
// the next Start.
func (w *Watchdog) SetTimeout(seconds int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	tenths, err := checkSeconds(seconds)
	if err != nil {
		return err
	}
	if w.armed {
		return w.startLocked(seconds)
	}
	w.timeoutTenths = tenths
	return nil
}

// Shutdown force-stops the countdown regardless of tracked state, so a
// system going down is not reset mid-shutdown.
func (w *Watchdog) Shutdown() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.dev.Command(opWDTStop); err != nil {
		return err
	}
	w.armed = false
	return nil
}
