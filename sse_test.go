package trimpotd

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadSSE(t *testing.T) {
	r := strings.NewReader("[{\"pot\":0}]\n\n[{\"pot\":1}]\n\n")

	payload, err := ReadSSE(r)
	require.NoError(t, err)
	assert.Equal(t, `[{"pot":0}]`, string(payload))

	payload, err = ReadSSE(r)
	require.NoError(t, err)
	assert.Equal(t, `[{"pot":1}]`, string(payload))
}

func TestReadSSETruncatedStream(t *testing.T) {
	payload, err := ReadSSE(strings.NewReader("[{\"pot\":0}]"))
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, `[{"pot":0}]`, string(payload))
}
