package mcp4x

// MCP42x drives the dual-channel MCP42XXX devices (MCP42010, MCP42050,
// MCP42100). Every channel selector is valid; [AllChannels] writes both
// wipers in one frame.
type MCP42x struct {
	device
}

// NewMCP42x returns a handle for an MCP42XXX attached to t. The handle takes
// exclusive ownership of the transport until Destroy is called.
func NewMCP42x(t Transport) *MCP42x {
	return &MCP42x{device: device{t: t, check: dualChannel}}
}

// SetPosition moves the wiper of ch to position. The full 0-255 range is
// valid; 0x80 is the power-up mid-scale value.
func (d *MCP42x) SetPosition(ch Channel, position uint8) error {
	return d.setPosition(ch, position)
}

// Shutdown opens terminal A of ch and ties its wiper to terminal B. The wiper
// register keeps its value and a later SetPosition leaves shutdown mode.
func (d *MCP42x) Shutdown(ch Channel) error {
	return d.shutdown(ch)
}

// Destroy releases the handle and returns the transport it owned. The handle
// is unusable afterwards; every further operation fails with [ErrDestroyed].
func (d *MCP42x) Destroy() Transport {
	return d.destroy()
}

// dualChannel is the capability predicate of the MCP42XXX family: no
// restriction, every selector maps to hardware.
func dualChannel(ch Channel) error {
	switch ch {
	case Channel0, Channel1, AllChannels:
		return nil
	}
	return ErrWrongChannel
}
