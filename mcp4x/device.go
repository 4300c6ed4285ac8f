package mcp4x

import (
	"errors"
	"fmt"
)

var (
	// ErrWrongChannel reports a channel that is not available on the device.
	// It is detected before anything is written to the transport.
	ErrWrongChannel = errors.New("mcp4x: channel not available on this device")

	// ErrDestroyed reports an operation on a handle whose transport has been
	// reclaimed with Destroy.
	ErrDestroyed = errors.New("mcp4x: device handle destroyed")
)

// CommError wraps a transport failure. The driver does not interpret the
// underlying cause and never retries; unwrap it to get the transport's error.
type CommError struct {
	Err error
}

func (e *CommError) Error() string {
	return fmt.Sprintf("mcp4x: transfer: %v", e.Err)
}

func (e *CommError) Unwrap() error {
	return e.Err
}

// device is the chip-independent core shared by the handle types. The check
// predicate is fixed by the constructor of the concrete handle, so a handle
// can never validate against another family's channel set.
type device struct {
	t     Transport
	check func(Channel) error
	buf   [PayloadSize]byte
}

// run validates the channel, encodes cmd and writes the frame. The check runs
// strictly before encoding and transfer: an illegal request never touches the
// bus.
func (d *device) run(cmd command) error {
	if d.t == nil || d.check == nil {
		return ErrDestroyed
	}
	if err := d.check(cmd.channel); err != nil {
		return err
	}

	d.buf[0] = cmd.commandByte()
	d.buf[1] = cmd.dataByte()
	if err := d.t.Transfer(d.buf[:]); err != nil {
		return &CommError{Err: err}
	}

	return nil
}

func (d *device) setPosition(ch Channel, position uint8) error {
	return d.run(setPosition(ch, position))
}

func (d *device) shutdown(ch Channel) error {
	return d.run(shutdown(ch))
}

// destroy hands the transport back and leaves the handle inert: every later
// operation fails with ErrDestroyed.
func (d *device) destroy() Transport {
	t := d.t
	d.t = nil
	return t
}
