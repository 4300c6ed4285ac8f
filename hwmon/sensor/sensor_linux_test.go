package sensor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trimpotd/trimpotd/hwmon/environment"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func fixtureTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	hw0 := filepath.Join(root, "class", "hwmon", "hwmon0")
	writeFile(t, filepath.Join(hw0, "name"), "coretemp\n")
	writeFile(t, filepath.Join(hw0, "temp1_input"), "45000\n")
	writeFile(t, filepath.Join(hw0, "temp1_label"), "Core 0\n")
	writeFile(t, filepath.Join(hw0, "temp1_max"), "80000\n")
	writeFile(t, filepath.Join(hw0, "temp1_crit"), "100000\n")
	writeFile(t, filepath.Join(hw0, "temp2_input"), "47000\n")
	writeFile(t, filepath.Join(hw0, "temp2_label"), "Core 1\n")

	hw1 := filepath.Join(root, "class", "hwmon", "hwmon1")
	writeFile(t, filepath.Join(hw1, "name"), "drivetemp\n")
	writeFile(t, filepath.Join(hw1, "temp1_input"), "38000\n")

	return root
}

func byName(t *testing.T, temps []Temperature) map[string]Temperature {
	t.Helper()
	m := make(map[string]Temperature, len(temps))
	for _, temp := range temps {
		m[temp.Name] = temp
	}
	return m
}

func TestCollectorScan(t *testing.T) {
	t.Setenv(environment.KeyHostSys, fixtureTree(t))

	c, err := New()
	require.NoError(t, err)

	temps, err := c.Temperatures()
	require.NoError(t, err)
	require.Len(t, temps, 3)

	ids := map[TemperatureID]bool{}
	for _, temp := range temps {
		ids[temp.ID] = true
	}
	assert.Len(t, ids, 3, "probe IDs must be distinct")

	m := byName(t, temps)

	core0 := m["coretemp: Core 0"]
	assert.Equal(t, "coretemp_core_0", core0.Key)
	assert.Equal(t, "coretemp", core0.Device)
	assert.Equal(t, 45.0, core0.Temperature)
	assert.Equal(t, 80.0, core0.High)
	assert.Equal(t, 100.0, core0.Critical)

	drive := m["drivetemp"]
	assert.Equal(t, "drivetemp", drive.Key, "no label keeps the bare device name")
	assert.Equal(t, 38.0, drive.Temperature)
	assert.Zero(t, drive.High)
	assert.Zero(t, drive.Critical)
}

func TestCollectorScanCentOSLayout(t *testing.T) {
	root := t.TempDir()
	hw := filepath.Join(root, "class", "hwmon", "hwmon0", "device")
	writeFile(t, filepath.Join(hw, "name"), "acpitz\n")
	writeFile(t, filepath.Join(hw, "temp1_input"), "27800\n")
	t.Setenv(environment.KeyHostSys, root)

	c, err := New()
	require.NoError(t, err)

	temps, err := c.Temperatures()
	require.NoError(t, err)
	require.Len(t, temps, 1)
	assert.Equal(t, "acpitz", temps[0].Name)
	assert.Equal(t, 27.8, temps[0].Temperature)
}

func TestCollectorRefresh(t *testing.T) {
	root := fixtureTree(t)
	t.Setenv(environment.KeyHostSys, root)

	c, err := New()
	require.NoError(t, err)

	writeFile(t, filepath.Join(root, "class", "hwmon", "hwmon1", "temp1_input"), "52500\n")

	temps, err := c.Temperatures()
	require.NoError(t, err)
	assert.Equal(t, 52.5, byName(t, temps)["drivetemp"].Temperature)
}

func TestCollectorDrop(t *testing.T) {
	t.Setenv(environment.KeyHostSys, fixtureTree(t))

	c, err := New()
	require.NoError(t, err)

	c.Drop("drivetemp", "unknown")

	temps, err := c.Temperatures()
	require.NoError(t, err)
	require.Len(t, temps, 2)
	assert.NotContains(t, byName(t, temps), "drivetemp")
}

func TestCollectorRefreshError(t *testing.T) {
	root := fixtureTree(t)
	t.Setenv(environment.KeyHostSys, root)

	c, err := New()
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(root, "class", "hwmon", "hwmon1", "temp1_input")))

	temps, err := c.Temperatures()
	assert.Error(t, err)
	assert.Len(t, temps, 2, "failing probes are skipped, not fatal")
}
