package mcp4x

import (
	"periph.io/x/conn/v3/spi"
)

// Transport carries command frames to the chip. Implementations own all
// framing concerns: a Transfer call must reach the device as one bus
// transaction, with the chip-select (or equivalent enable line) held active
// for the whole frame.
//
// The driver never inspects a transport failure; it is wrapped in a
// [CommError] and surfaced as-is.
type Transport interface {
	Transfer(p []byte) error
}

// SPI adapts a periph.io SPI connection to the [Transport] interface. The
// connection should be established with [Mode] and at most [MaxFrequency];
// chip-select handling is the port's business (on Linux the spidev driver
// frames each Tx as a single transaction).
type SPI struct {
	conn spi.Conn
}

// NewSPI returns a Transport writing frames to conn.
func NewSPI(conn spi.Conn) *SPI {
	return &SPI{conn: conn}
}

// Transfer writes p to the bus. Nothing is read back; the devices have no
// usable output on this interface.
func (s *SPI) Transfer(p []byte) error {
	return s.conn.Tx(p, nil)
}
