// Package serialbridge drives MCP4x digital potentiometers through a
// USB-serial SPI bridge instead of a native spidev port.
//
// The companion firmware exposes a single ASCII command: a request line
// ">XXXX\r\n" carrying the two command bytes as hex digits. The bridge
// asserts chip select, clocks the frame out and answers "<OK\r\n", or
// "<ER:xx\r\n" with a status code when it cannot. Anything the firmware
// prints before the response marker is debug output and is forwarded to
// the logger when one is set.
package serialbridge

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/mdouchement/logger"
	"go.bug.st/serial"
)

var (
	ErrFrameSize  = errors.New("frame must be exactly 2 bytes")
	ErrNoResponse = errors.New("no response from bridge")
	ErrRejected   = errors.New("frame rejected by bridge")
)

// port is the serial surface the bridge relies on.
// go.bug.st/serial.Port satisfies it.
type port interface {
	io.ReadWriteCloser
	SetReadTimeout(t time.Duration) error
	ResetInputBuffer() error
	ResetOutputBuffer() error
}

type Bridge struct {
	sync  sync.Mutex
	pname string
	port  port
	log   logger.Logger
	wbuf  []byte
	rbuf  []byte
}

func Open(pname string) (*Bridge, error) {
	b := &Bridge{
		pname: pname,
		wbuf:  make([]byte, CommTxBufferLen),
		rbuf:  make([]byte, CommRxBufferLen),
	}

	p, err := serial.Open(pname, &serial.Mode{
		BaudRate: 115200,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, err
	}
	b.port = p

	b.port.SetReadTimeout(200 * time.Millisecond)

	if err = b.port.ResetInputBuffer(); err != nil {
		return nil, err
	}

	if err = b.port.ResetOutputBuffer(); err != nil {
		return nil, err
	}

	return b, nil
}

func (b *Bridge) SetLogger(l logger.Logger) {
	b.log = l
}

func (b *Bridge) Close() error {
	if err := b.port.ResetInputBuffer(); err != nil {
		return err
	}

	if err := b.port.ResetOutputBuffer(); err != nil {
		return err
	}

	return b.port.Close()
}

func (b *Bridge) Port() string {
	return b.pname
}

// Transfer clocks p out through the bridge with chip select asserted around
// the whole frame. MCP4x commands are always two bytes.
func (b *Bridge) Transfer(p []byte) error {
	if len(p) != 2 {
		return ErrFrameSize
	}

	b.sync.Lock()
	defer b.sync.Unlock()

	l := 0
	b.wbuf[l] = CommRequestCharacter
	l++
	for _, v := range p {
		b.wbuf[l], b.wbuf[l+1] = f2x(v)
		l += 2
	}
	b.wbuf[l] = CommAltEndCharacter
	b.wbuf[l+1] = CommEndCharacter
	l += 2

	//

	n, err := b.port.Write(b.wbuf[:l])
	if err != nil {
		return fmt.Errorf("write: %w", err)
	}
	if n != l && b.log != nil {
		b.log.Warnf("Invalid write: %d of %d", n, l)
	}

	//

	response, err := b.read()
	if err != nil {
		return err
	}

	return b.ack(response)
}

// read accumulates serial input until a complete response line is present.
func (b *Bridge) read() ([]byte, error) {
	l := 0
	for {
		n, err := b.port.Read(b.rbuf[l:])
		if err != nil {
			return nil, fmt.Errorf("read: %w", err)
		}
		if n == 0 {
			// Read timeout expired before the response marker showed up.
			return nil, ErrNoResponse
		}

		l += n
		i := bytes.IndexByte(b.rbuf[:l], CommResponseCharacter)
		if i >= 0 && bytes.IndexByte(b.rbuf[i:l], CommEndCharacter) >= 0 {
			return b.rbuf[:l], nil
		}

		if l == len(b.rbuf) {
			return nil, ErrNoResponse
		}
	}
}

func (b *Bridge) ack(response []byte) error {
	i := bytes.IndexByte(response, CommResponseCharacter)
	logs := response[:i]
	status := bytes.TrimSpace(response[i+1:])

	//

	if b.log != nil {
		for p := range bytes.SplitSeq(logs, []byte{'\r', '\n'}) {
			if len(p) == 0 {
				continue
			}
			b.log.Debug(string(p))
		}

		b.log.Debugf("Bridge status: %s", status)
	}

	//

	switch {
	case bytes.Equal(status, []byte("OK")):
		return nil
	case bytes.HasPrefix(status, []byte("ER:")):
		code, err := strconv.ParseUint(string(status[3:]), 16, 8)
		if err != nil {
			return fmt.Errorf("%w: %q", ErrRejected, status)
		}
		return fmt.Errorf("%w: status 0x%02X", ErrRejected, code)
	default:
		return fmt.Errorf("invalid response format: %q", status)
	}
}

func f2x[T ~uint8](v T) (byte, byte) {
	s := fmt.Sprintf("%02X", v)
	return s[0], s[1]
}
