// Package sensor reads temperature probes from the Linux hwmon sysfs tree.
package sensor

import (
	"errors"
	"slices"
)

// A Collector holds the temperature probes discovered at scan time.
type Collector struct {
	temps map[string]Temperature
}

type TemperatureID uint16 // 65535 possible sensors should be plenty

type Temperature struct {
	ID          TemperatureID `json:"-" cbor:"-"`
	Key         string        `json:"key" cbor:"1,keyasint,omitempty,omitzero"`
	Name        string        `json:"name" cbor:"2,keyasint,omitempty,omitzero"`
	Device      string        `json:"device" cbor:"3,keyasint,omitempty,omitzero"`
	Temperature float64       `json:"temperature" cbor:"4,keyasint,omitempty,omitzero"`
	High        float64       `json:"high" cbor:"5,keyasint,omitempty,omitzero"`
	Critical    float64       `json:"critical" cbor:"6,keyasint,omitempty,omitzero"`
	refresh     func() (float64, error)
}

func New() (*Collector, error) {
	temps, err := scan()
	return &Collector{temps: temps}, err
}

// Drop removes probes by Name. The daemon drops every probe its trim curves
// do not reference so that Temperatures only touches the needed sysfs files.
func (c *Collector) Drop(names ...string) {
	var keys []string
	for k, v := range c.temps {
		if slices.Contains(names, v.Name) {
			keys = append(keys, k)
		}
	}

	for _, k := range keys {
		delete(c.temps, k)
	}
}

// Temperatures re-reads every probe. Probes that fail to read are skipped and
// their errors joined.
func (c *Collector) Temperatures() ([]Temperature, error) {
	temps := make([]Temperature, 0, len(c.temps))
	errs := make([]error, 0)
	for _, t := range c.temps {
		v, err := t.refresh()
		if err != nil {
			errs = append(errs, err)
			continue
		}

		t.Temperature = v
		temps = append(temps, t)
	}

	return temps, errors.Join(errs...)
}
