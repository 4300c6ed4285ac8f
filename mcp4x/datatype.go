package mcp4x

// Channel selects which potentiometer of a device a command addresses.
type Channel uint8

const (
	// Channel0 is the first (or only) potentiometer.
	Channel0 Channel = iota
	// Channel1 is the second potentiometer of dual-channel devices.
	Channel1
	// AllChannels addresses every potentiometer the device has at once.
	AllChannels
)

// bits returns the 2-bit channel code of the command byte.
func (c Channel) bits() byte {
	switch c {
	case Channel0:
		return 0b01
	case Channel1:
		return 0b10
	case AllChannels:
		return 0b11
	}
	return 0
}

func (c Channel) String() string {
	switch c {
	case Channel0:
		return "channel 0"
	case Channel1:
		return "channel 1"
	case AllChannels:
		return "all channels"
	}
	return "unknown channel"
}

// command is one operation to perform on the device, already reduced to the
// pieces the wire format needs.
type command struct {
	opcode   byte
	channel  Channel
	position uint8
}

func setPosition(ch Channel, position uint8) command {
	return command{opcode: opcodeSetPosition, channel: ch, position: position}
}

func shutdown(ch Channel) command {
	return command{opcode: opcodeShutdown, channel: ch}
}

func (c command) commandByte() byte {
	return c.opcode<<4 | c.channel.bits()
}

// dataByte returns the second frame byte. Shutdown frames carry a fixed zero:
// the hardware ignores the byte but it still has to be clocked out.
func (c command) dataByte() byte {
	if c.opcode == opcodeShutdown {
		return 0
	}
	return c.position
}
