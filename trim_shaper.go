package trimpotd

import (
	"errors"
	"fmt"
	"time"

	"github.com/trimpotd/trimpotd/hwmon/sensor"
	"github.com/trimpotd/trimpotd/mcp4x"
)

var ErrNotFoundTemp = errors.New("temperature not found")

// TrimShaper converts temperature readings into wiper positions using the
// piecewise-linear curves of the config. Outside the configured thresholds
// the curve extends flat: a trim pot must hold its last calibrated position,
// never slam to full scale.
type TrimShaper struct {
	labels map[mcp4x.Channel]string
	index  map[sensor.TemperatureID]map[mcp4x.Channel]func(t float64) int
}

func NewTrimShaper(cfg Config, temps []sensor.Temperature) (*TrimShaper, error) {
	s := &TrimShaper{
		labels: make(map[mcp4x.Channel]string),
		index:  make(map[sensor.TemperatureID]map[mcp4x.Channel]func(t float64) int),
	}

	findID := func(name string) (sensor.TemperatureID, error) {
		for _, t := range temps {
			if t.Name == name {
				return t.ID, nil
			}
		}

		return 0, ErrNotFoundTemp
	}

	//

	for _, pot := range cfg.PotSettings {
		s.labels[pot.Channel] = pot.Label
		indexp := map[sensor.TemperatureID][]point{}

		for _, p := range pot.CurvePoints {
			for position, thresholds := range p {
				for tname, t := range thresholds {
					tid, err := findID(tname)
					if err != nil {
						return nil, fmt.Errorf("%s: %w", tname, err)
					}

					indexp[tid] = append(indexp[tid], point{temperature: float64(t), position: position})
				}
			}
		}

		for tid, points := range indexp {
			// Duplicate the last point so the curve holds its final position
			// above the last threshold.
			p := points[len(points)-1]
			indexp[tid] = append(indexp[tid], point{temperature: p.temperature, position: p.position})
		}

		for tid, points := range indexp {
			var segments []segment
			for i, p := range points[1:] { // i is previous index and p current point
				lowT := points[i].temperature
				segments = append(segments, segment{
					temperature: lowT,
					eval:        positionFromTempSegment(lowT, float64(points[i].position), p.temperature, float64(p.position)),
				})
			}

			first := points[0].position
			if s.index[tid] == nil {
				s.index[tid] = make(map[mcp4x.Channel]func(t float64) int)
			}

			s.index[tid][pot.Channel] = func(t float64) int {
				for i := len(segments) - 1; i >= 0; i-- {
					seg := segments[i]
					if t >= seg.temperature {
						return int(seg.eval(t))
					}
				}

				// Below the first threshold the first configured position holds.
				return first
			}
		}
	}

	return s, nil
}

func (s TrimShaper) Eval(temps []sensor.Temperature) map[mcp4x.Channel]Evaluation {
	evals := map[mcp4x.Channel]Evaluation{}
	for _, t := range temps {
		for pot, eval := range s.index[t.ID] {
			// Keep the largest correction when several sensors drive the same pot.
			evals[pot] = maxPosition(evals[pot], Evaluation{
				Pot:             pot,
				EvaluatedAt:     time.Now(),
				Label:           s.labels[pot],
				Position:        uint8(eval(t.Temperature)),
				TemperatureID:   t.ID,
				TemperatureName: t.Name,
				Temperature:     t.Temperature,
			})
		}
	}

	return evals
}

func maxPosition(a, b Evaluation) Evaluation {
	if a.Position > b.Position {
		return a
	}
	return b
}

func positionFromTempSegment(temp1, pos1, temp2, pos2 float64) func(temp float64) float64 {
	if temp1 == temp2 {
		// Simplify things in order to make a clean vertical slope
		temp2 = 2
		temp1 = 1
	}

	a := (pos2 - pos1) / (temp2 - temp1) // slope
	b := pos1 - a*temp1                  // y-intercept

	return func(temp float64) float64 {
		return min(a*temp+b, 255)
	}
}
