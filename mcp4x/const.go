package mcp4x

import (
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

// Command byte layout: the high nibble selects the operation, the low two bits
// select the potentiometer. Bits 2 and 3 of the low nibble are always zero.
const (
	opcodeSetPosition byte = 0b0001
	opcodeShutdown    byte = 0b0010
)

// PayloadSize is the size of every frame written to the transport: one command
// byte followed by one data byte.
const PayloadSize = 2

// Mode is the SPI mode the devices are clocked in.
const Mode = spi.Mode0

// MaxFrequency is the highest SCK frequency the devices support.
const MaxFrequency = 10 * physic.MegaHertz
