package trimpotd

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trimpotd/trimpotd/mcp4x"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trimpotd.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const validConfig = `
debug: true
socket: /run/trimpotd/trimpotd.sock
polling: 1s

device:
  transport: spidev
  port: SPI0.0
  variant: mcp42x
  reassert: 30s
  park_on_exit: true

pot_settings:
  pot0:
    label: LO bias
    slew_up: 10s
    slew_down: 1s
    curve_points:
      - "32": {"coretemp: Package id 0": 40}
      - "64": {"coretemp: Package id 0": 55}
      - "128": {"coretemp: Package id 0": 70}
  pot1:
    label: RF attenuator
    curve_points:
      - "100": {"drivetemp": 35}
`

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, validConfig))
	require.NoError(t, err)

	assert.True(t, cfg.Debug)
	assert.Equal(t, "/run/trimpotd/trimpotd.sock", cfg.Socket)
	assert.Equal(t, time.Second, cfg.Polling.Duration)
	assert.Equal(t, TransportSPIDev, cfg.Device.Transport)
	assert.Equal(t, "SPI0.0", cfg.Device.Port)
	assert.Equal(t, VariantMCP42x, cfg.Device.Variant)
	assert.Equal(t, 30*time.Second, cfg.Device.Reassert.Duration)
	assert.True(t, cfg.Device.ParkOnExit)

	require.Contains(t, cfg.PotSettings, "pot0")
	pot0 := cfg.PotSettings["pot0"]
	assert.Equal(t, mcp4x.Channel0, pot0.Channel)
	assert.Equal(t, "LO bias", pot0.Label)
	assert.Equal(t, 10*time.Second, pot0.SlewUp.Duration)
	assert.Equal(t, time.Second, pot0.SlewDown.Duration)
	require.Len(t, pot0.CurvePoints, 3)
	assert.Equal(t, map[string]int{"coretemp: Package id 0": 40}, pot0.CurvePoints[0][32])
	assert.Equal(t, map[string]int{"coretemp: Package id 0": 70}, pot0.CurvePoints[2][128])

	require.Contains(t, cfg.PotSettings, "pot1")
	assert.Equal(t, mcp4x.Channel1, cfg.PotSettings["pot1"].Channel)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
socket: /tmp/trimpotd.sock
device:
  port: SPI0.0
  variant: mcp41x
pot_settings:
  pot0:
    curve_points:
      - "16": {"acpitz": 30}
`))
	require.NoError(t, err)

	assert.Equal(t, 2*time.Second, cfg.Polling.Duration)
	assert.Equal(t, TransportSPIDev, cfg.Device.Transport)
	assert.Zero(t, cfg.Device.Reassert.Duration)
	assert.False(t, cfg.Device.ParkOnExit)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "unsupported transport",
			yaml: `
device: {transport: i2c, variant: mcp42x}
`,
			want: "unsupported transport",
		},
		{
			name: "unsupported variant",
			yaml: `
device: {variant: mcp4231}
`,
			want: "unsupported variant",
		},
		{
			name: "missing variant",
			yaml: `
device: {port: SPI0.0}
`,
			want: "unsupported variant",
		},
		{
			name: "invalid pot name",
			yaml: `
device: {variant: mcp42x}
pot_settings:
  wiper1:
    curve_points:
      - "16": {"acpitz": 30}
`,
			want: "invalid name",
		},
		{
			name: "pot number out of range",
			yaml: `
device: {variant: mcp42x}
pot_settings:
  pot3:
    curve_points:
      - "16": {"acpitz": 30}
`,
			want: "invalid number range",
		},
		{
			name: "pot1 on a single-channel device",
			yaml: `
device: {variant: mcp41x}
pot_settings:
  pot1:
    curve_points:
      - "16": {"acpitz": 30}
`,
			want: "not available on mcp41x",
		},
		{
			name: "no curve points",
			yaml: `
device: {variant: mcp42x}
pot_settings:
  pot0:
    label: LO bias
`,
			want: "no curve_points provided",
		},
		{
			name: "invalid position format",
			yaml: `
device: {variant: mcp42x}
pot_settings:
  pot0:
    curve_points:
      - "12%": {"acpitz": 30}
`,
			want: "invalid position format",
		},
		{
			name: "position out of range",
			yaml: `
device: {variant: mcp42x}
pot_settings:
  pot0:
    curve_points:
      - "300": {"acpitz": 30}
`,
			want: "position must be in range",
		},
		{
			name: "position not monotonic",
			yaml: `
device: {variant: mcp42x}
pot_settings:
  pot0:
    curve_points:
      - "64": {"acpitz": 30}
      - "32": {"acpitz": 40}
`,
			want: "position lower than previous one",
		},
		{
			name: "no thresholds",
			yaml: `
device: {variant: mcp42x}
pot_settings:
  pot0:
    curve_points:
      - "32": {}
`,
			want: "no temperature thresholds specified",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
