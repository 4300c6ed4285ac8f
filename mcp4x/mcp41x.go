package mcp4x

// MCP41x drives the single-channel MCP41XXX devices (MCP41010, MCP41050,
// MCP41100).
//
// Only [Channel0] and [AllChannels] are accepted: the chip decodes the
// broadcast channel code as "every wiper present", which for this family is
// the one wiper. [Channel1] fails with [ErrWrongChannel].
type MCP41x struct {
	device
}

// NewMCP41x returns a handle for an MCP41XXX attached to t. The handle takes
// exclusive ownership of the transport until Destroy is called.
func NewMCP41x(t Transport) *MCP41x {
	return &MCP41x{device: device{t: t, check: singleChannel}}
}

// SetPosition moves the wiper of ch to position. The full 0-255 range is
// valid; 0x80 is the power-up mid-scale value.
func (d *MCP41x) SetPosition(ch Channel, position uint8) error {
	return d.setPosition(ch, position)
}

// Shutdown opens terminal A of ch and ties its wiper to terminal B. The wiper
// register keeps its value and a later SetPosition leaves shutdown mode.
func (d *MCP41x) Shutdown(ch Channel) error {
	return d.shutdown(ch)
}

// Destroy releases the handle and returns the transport it owned. The handle
// is unusable afterwards; every further operation fails with [ErrDestroyed].
func (d *MCP41x) Destroy() Transport {
	return d.destroy()
}

// singleChannel is the capability predicate of the MCP41XXX family.
func singleChannel(ch Channel) error {
	if ch == Channel0 || ch == AllChannels {
		return nil
	}
	return ErrWrongChannel
}
