package hclload

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/amlhostgo/internal/hostcfg"
	"github.com/zclconf/go-cty/cty"
)

func TestFile(t *testing.T) {
	src := `
settings {
  interpreter_slack   = true
  max_loop_iterations = 1000
  trace_method_name   = "_SB.TST_"
}
`
	path := filepath.Join(t.TempDir(), "host.hcl")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))

	overrides, err := File(path)
	require.NoError(t, err)

	assert.Equal(t, cty.True, overrides["interpreter_slack"])
	assert.Equal(t, "_SB.TST_", overrides["trace_method_name"].AsString())

	// The map feeds straight into the registry.
	r := hostcfg.New()
	require.NoError(t, r.Init(overrides))
	assert.True(t, r.Bool(hostcfg.InterpreterSlack))
	assert.Equal(t, uint32(1000), r.Uint32(hostcfg.MaxLoopIterations))
}

func TestBytesWithoutSettingsBlock(t *testing.T) {
	overrides, err := Bytes([]byte(""), "empty.hcl")
	require.NoError(t, err)
	assert.Empty(t, overrides)
}

func TestInvalidSyntaxIsRejected(t *testing.T) {
	_, err := Bytes([]byte("settings {"), "broken.hcl")
	assert.Error(t, err)
}

func TestUnknownTopLevelBlockIsRejected(t *testing.T) {
	_, err := Bytes([]byte("grid {\n}\n"), "wrong.hcl")
	assert.Error(t, err)
}
