package trimpotd

import (
	"sync"

	"github.com/mdouchement/logger"
	"github.com/trimpotd/trimpotd/mcp4x"
)

// A DummyDigipot should only be used for dev & tests.
type DummyDigipot struct {
	sync      sync.Mutex
	positions map[mcp4x.Channel]uint8
	shut      map[mcp4x.Channel]bool
	log       logger.Logger
}

func NewDummyDigipot() *DummyDigipot {
	// Wipers power up at mid-scale, like the real chip.
	return &DummyDigipot{
		positions: map[mcp4x.Channel]uint8{
			mcp4x.Channel0: 0x80,
			mcp4x.Channel1: 0x80,
		},
		shut: make(map[mcp4x.Channel]bool),
	}
}

func (d *DummyDigipot) SetLogger(l logger.Logger) {
	d.log = l
}

func (d *DummyDigipot) SetPosition(c mcp4x.Channel, position uint8) error {
	d.sync.Lock()
	defer d.sync.Unlock()

	for _, ch := range expand(c) {
		d.positions[ch] = position
		d.shut[ch] = false
	}

	if d.log != nil {
		d.log.Debugf("dummy: set %s to %d", c, position)
	}
	return nil
}

func (d *DummyDigipot) Shutdown(c mcp4x.Channel) error {
	d.sync.Lock()
	defer d.sync.Unlock()

	for _, ch := range expand(c) {
		d.shut[ch] = true
	}

	if d.log != nil {
		d.log.Debugf("dummy: shutdown %s", c)
	}
	return nil
}

// Position reports the last written wiper position.
func (d *DummyDigipot) Position(c mcp4x.Channel) uint8 {
	d.sync.Lock()
	defer d.sync.Unlock()

	return d.positions[c]
}

// IsShutdown reports whether the channel is in high-impedance mode.
func (d *DummyDigipot) IsShutdown(c mcp4x.Channel) bool {
	d.sync.Lock()
	defer d.sync.Unlock()

	return d.shut[c]
}

func expand(c mcp4x.Channel) []mcp4x.Channel {
	if c == mcp4x.AllChannels {
		return []mcp4x.Channel{mcp4x.Channel0, mcp4x.Channel1}
	}

	return []mcp4x.Channel{c}
}
