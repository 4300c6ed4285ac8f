// Package mcp4x drives the Microchip MCP41XXX and MCP42XXX SPI digital
// potentiometers.
//
// The MCP41XXX and MCP42XXX are 256-position digital potentiometers available
// in 10 kΩ, 50 kΩ and 100 kΩ versions. The MCP41XXX has a single channel, the
// MCP42XXX has two independent channels. The wiper position varies linearly
// and is set over an industry-standard SPI interface; the bus is write-only,
// so the last written position is the only record of the wiper state. A
// software shutdown command disconnects terminal A from the resistor stack and
// ties the wiper to terminal B. The wiper resets to mid-scale (0x80) on
// power-up.
//
// Datasheet: https://ww1.microchip.com/downloads/en/DeviceDoc/11195c.pdf
//
// Each supported chip family has its own handle type, [MCP41x] or [MCP42x],
// created from a [Transport] that carries 2-byte command frames to the chip.
// The handle validates the requested channel against the chip family before
// anything is written to the bus, encodes the command and hands the frame to
// the transport. Destroy returns the transport when the device is no longer
// needed, typically so the caller can release the underlying bus.
//
// Channel semantics differ between the families: the MCP42XXX addresses
// [Channel0], [Channel1] or both at once with [AllChannels]; the MCP41XXX has
// a single wiper, so only [Channel0] and [AllChannels] (which degenerates to
// that wiper) are accepted, and [Channel1] fails with [ErrWrongChannel].
package mcp4x
