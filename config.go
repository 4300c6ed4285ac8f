package trimpotd

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/trimpotd/trimpotd/mcp4x"
	"go.yaml.in/yaml/v4"
)

const (
	TransportSPIDev = "spidev"
	TransportBridge = "bridge"
)

const (
	VariantMCP41x = "mcp41x"
	VariantMCP42x = "mcp42x"
)

type Config struct {
	Debug       bool            `yaml:"debug"`
	Socket      string          `yaml:"socket"`
	Polling     Duration        `yaml:"polling"`
	Device      Device          `yaml:"device"`
	PotSettings map[string]*Pot `yaml:"pot_settings"`
}

type Device struct {
	Transport  string   `yaml:"transport"`
	Port       string   `yaml:"port"`
	Variant    string   `yaml:"variant"`
	Reassert   Duration `yaml:"reassert"`
	ParkOnExit bool     `yaml:"park_on_exit"`
}

type Pot struct {
	Channel         mcp4x.Channel               `yaml:"-"`
	Label           string                      `yaml:"label"`
	SlewUp          Duration                    `yaml:"slew_up"`
	SlewDown        Duration                    `yaml:"slew_down"`
	CurvePointsYAML []map[string]map[string]int `yaml:"curve_points"`
	CurvePoints     []map[int]map[string]int    `yaml:"-"`
}

func Load(path string) (Config, error) {
	var c Config

	f, err := os.Open(path)
	if err != nil {
		return c, err
	}
	defer f.Close()

	codec := yaml.NewDecoder(f)
	err = codec.Decode(&c)
	if err != nil {
		return c, err
	}

	//

	if c.Polling.Duration == 0 {
		c.Polling.Duration = 2 * time.Second
	}

	if c.Device.Transport == "" {
		c.Device.Transport = TransportSPIDev
	}
	if c.Device.Transport != TransportSPIDev && c.Device.Transport != TransportBridge {
		return c, fmt.Errorf("device: unsupported transport %s", c.Device.Transport)
	}

	if c.Device.Variant != VariantMCP41x && c.Device.Variant != VariantMCP42x {
		return c, fmt.Errorf("device: unsupported variant %s", c.Device.Variant)
	}

	//

	reName := regexp.MustCompile(`^pot(\d)$`)
	rePosition := regexp.MustCompile(`^\d+$`)
	for pname, pot := range c.PotSettings {
		match := reName.FindStringSubmatch(pname)
		if len(match) != 2 {
			return c, fmt.Errorf("%s: invalid name", pname)
		}
		id, err := strconv.ParseUint(match[1], 10, 8)
		if err != nil {
			return c, fmt.Errorf("%s: invalid number", pname) // Should not happen because of the regex check
		}
		if id > 1 {
			return c, fmt.Errorf("%s: invalid number range", pname)
		}
		if id == 1 && c.Device.Variant == VariantMCP41x {
			return c, fmt.Errorf("%s: not available on %s", pname, c.Device.Variant)
		}

		pot.Channel = mcp4x.Channel(id) // pot0 => Channel0, pot1 => Channel1

		if len(pot.CurvePointsYAML) == 0 {
			return c, fmt.Errorf("%s: no curve_points provided", pname)
		}

		pot.CurvePoints = make([]map[int]map[string]int, len(pot.CurvePointsYAML))

		var prevPosition int
		for i, p := range pot.CurvePointsYAML {
			pot.CurvePoints[i] = make(map[int]map[string]int)

			for position, thresholds := range p {
				if !rePosition.MatchString(position) {
					return c, fmt.Errorf("%s: invalid position format %s", pname, position)
				}

				pos, err := strconv.Atoi(position)
				if err != nil {
					return c, fmt.Errorf("%s: %s: %w", pname, position, err)
				}
				if pos < 0 || pos > 255 {
					return c, fmt.Errorf("%s: %s: position must be in range [0,255]", pname, position)
				}
				if pos < prevPosition {
					return c, fmt.Errorf("%s: %s: position lower than previous one", pname, position)
				}
				prevPosition = pos

				if len(thresholds) == 0 {
					return c, fmt.Errorf("%s: %s: no temperature thresholds specified", pname, position)
				}

				pot.CurvePoints[i][pos] = thresholds
			}
		}
	}

	return c, nil
}
