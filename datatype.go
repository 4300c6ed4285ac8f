package trimpotd

import (
	"time"

	"github.com/trimpotd/trimpotd/hwmon/sensor"
	"github.com/trimpotd/trimpotd/mcp4x"
)

// Digipot is the hardware surface the daemon drives. Satisfied by
// *mcp4x.MCP41x, *mcp4x.MCP42x and DummyDigipot.
type Digipot interface {
	SetPosition(c mcp4x.Channel, position uint8) error
	Shutdown(c mcp4x.Channel) error
}

type Sensor interface {
	Temperatures() ([]sensor.Temperature, error)
}

type Shaper interface {
	Eval(temps []sensor.Temperature) map[mcp4x.Channel]Evaluation
}

type Evaluation struct {
	Pot             mcp4x.Channel        `json:"pot"`
	EvaluatedAt     time.Time            `json:"-"`
	Label           string               `json:"label"`
	Position        uint8                `json:"position"`
	Shutdown        bool                 `json:"shutdown"`
	Manual          bool                 `json:"manual"`
	TemperatureID   sensor.TemperatureID `json:"-"`
	TemperatureName string               `json:"temperature_name"`
	Temperature     float64              `json:"temperature"`
}

func ToPtr[T any](v T) *T {
	return &v
}

type point struct {
	temperature float64
	position    int
}

type segment struct {
	temperature float64
	eval        func(float64) float64
}

const (
	eventUpdateEval = "update-eval"
	eventWatch      = "watch"
	eventUnwatch    = "unwatch"
)

type event struct {
	name      string
	eval      Evaluation
	monitorID int64
	monitor   chan<- []byte
}

const (
	opPin      = "pin"
	opRelease  = "release"
	opShutdown = "shutdown"
)

// manualOp is a pin/release/shutdown request coming from the control socket.
// The reply channel carries the hardware outcome back to the HTTP handler.
type manualOp struct {
	kind     string
	pot      mcp4x.Channel
	position uint8
	reply    chan error
}

func genID() int64 {
	time.Sleep(time.Nanosecond)
	return time.Now().UnixNano()
}
