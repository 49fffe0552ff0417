package transport

import (
	"errors"
	"fmt"
	"io"
	"time"

	"go.bug.st/serial"

	"github.com/1ureka/rtno/internal/util"
)

// serialLink adapts a serial port. Its Read already returns (0, nil) on
// timeout; a port closed underneath reads as io.EOF.
type serialLink struct {
	serial.Port
}

func (l serialLink) Read(p []byte) (int, error) {
	n, err := l.Port.Read(p)
	if portClosed(err) {
		return n, io.EOF
	}
	return n, err
}

func (l serialLink) SetReadTimeout(d time.Duration) error {
	err := l.Port.SetReadTimeout(d)
	if portClosed(err) {
		return io.EOF
	}
	return err
}

func portClosed(err error) bool {
	var pe *serial.PortError
	if errors.As(err, &pe) {
		return pe.Code() == serial.PortClosed
	}
	var v serial.PortError
	return errors.As(err, &v) && v.Code() == serial.PortClosed
}

// OpenSerial opens a serial device at baud 8N1 and frames packets over it.
func OpenSerial(device string, baud int, opts StreamOptions) (*Stream, error) {
	port, err := serial.Open(device, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", device, err)
	}
	util.LogInfo("[serial] opened %s at %d baud", device, baud)
	return newStream(serialLink{port}, "Serial", opts), nil
}

// SerialPorts lists the serial devices present on the machine.
func SerialPorts() ([]string, error) {
	return serial.GetPortsList()
}
