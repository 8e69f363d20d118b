// Package portio implements raw x86 I/O port access through /dev/port,
// where the port number is the file offset. It needs CAP_SYS_RAWIO (or
// root); on anything but a real board, use the simulator instead.
package portio

import (
	"os"

	"github.com/pkg/errors"

	"ecio-go/drivers/ahc1ec0"
)

const defaultPath = "/dev/port"

// DevPort is an ahc1ec0.PortIO backed by the kernel port-I/O device.
type DevPort struct {
	f *os.File
}

var _ ahc1ec0.PortIO = (*DevPort)(nil)

// Open opens /dev/port.
func Open() (*DevPort, error) {
	return OpenPath(defaultPath)
}

// OpenPath opens an alternative port device node.
func OpenPath(path string) (*DevPort, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, errors.Wrap(err, "portio: open port device")
	}
	return &DevPort{f: f}, nil
}

// In reads one byte from an I/O port.
func (p *DevPort) In(port uint16) (byte, error) {
	var b [1]byte
	if _, err := p.f.ReadAt(b[:], int64(port)); err != nil {
		return 0, errors.Wrapf(err, "portio: in %#x", port)
	}
	return b[0], nil
}

// Out writes one byte to an I/O port.
func (p *DevPort) Out(port uint16, v byte) error {
	if _, err := p.f.WriteAt([]byte{v}, int64(port)); err != nil {
		return errors.Wrapf(err, "portio: out %#x", port)
	}
	return nil
}

// Close releases the device node.
func (p *DevPort) Close() error {
	return p.f.Close()
}
