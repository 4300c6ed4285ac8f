package trimpotd

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v4"
)

func TestDurationYAML(t *testing.T) {
	var v struct {
		Reassert Duration `yaml:"reassert"`
		SlewUp   Duration `yaml:"slew_up"`
	}

	require.NoError(t, yaml.Unmarshal([]byte("reassert: 1m30s\nslew_up: \"\"\n"), &v))
	assert.Equal(t, 90*time.Second, v.Reassert.Duration)
	assert.Zero(t, v.SlewUp.Duration)

	out, err := yaml.Marshal(v)
	require.NoError(t, err)
	assert.Contains(t, string(out), "1m30s")

	assert.Error(t, yaml.Unmarshal([]byte("reassert: fast\n"), &v))
}
