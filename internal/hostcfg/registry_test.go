package hostcfg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func TestDefaults(t *testing.T) {
	r := New()
	require.NoError(t, r.Init(nil))

	assert.False(t, r.Bool(InterpreterSlack))
	assert.True(t, r.Bool(AutoSerializeMethods))
	assert.True(t, r.Bool(CreateOsiMethod))
	assert.True(t, r.Bool(UseDefaultRegisterWidths))
	assert.True(t, r.Bool(EnableTableValidation))
	assert.False(t, r.Bool(EnableAmlDebugObject))
	assert.False(t, r.Bool(DoNotUseXsdt))
	assert.False(t, r.Bool(Use32BitFadtAddresses))
	assert.True(t, r.Bool(Use32BitFacsAddresses))
	assert.Equal(t, DefaultMaxLoopIterations, r.Uint32(MaxLoopIterations))
	assert.Equal(t, "", r.String(TraceMethodName))
}

func TestInitAppliesOverrides(t *testing.T) {
	r := New()
	err := r.Init(map[string]cty.Value{
		InterpreterSlack:  cty.True,
		MaxLoopIterations: cty.NumberUIntVal(1000),
	})
	require.NoError(t, err)

	assert.True(t, r.Bool(InterpreterSlack))
	assert.Equal(t, uint32(1000), r.Uint32(MaxLoopIterations))
}

func TestInitIsSingleShot(t *testing.T) {
	r := New()
	require.NoError(t, r.Init(nil))
	assert.ErrorIs(t, r.Init(nil), ErrAlreadyInitialized)
}

func TestInitOnlySwitchSealedAfterInit(t *testing.T) {
	r := New()

	// Before Init, init-only switches accept writes.
	require.NoError(t, r.Set(AutoSerializeMethods, cty.False))
	require.NoError(t, r.Init(nil))

	err := r.Set(AutoSerializeMethods, cty.True)
	assert.ErrorIs(t, err, ErrRejected)

	// The rejected write must not be observable.
	assert.False(t, r.Bool(AutoSerializeMethods))
}

func TestRuntimeMutableSwitchAfterInit(t *testing.T) {
	r := New()
	require.NoError(t, r.Init(nil))

	require.NoError(t, r.Set(EnableAmlDebugObject, cty.True))
	assert.True(t, r.Bool(EnableAmlDebugObject))

	require.NoError(t, r.Set(TraceMethodName, cty.StringVal("_SB.PCI0.TST_")))
	assert.Equal(t, "_SB.PCI0.TST_", r.String(TraceMethodName))
}

func TestSetTypeChecksValue(t *testing.T) {
	r := New()
	require.NoError(t, r.Init(nil))

	err := r.Set(EnableAmlDebugObject, cty.StringVal("not-a-bool"))
	assert.Error(t, err)
	assert.False(t, r.Bool(EnableAmlDebugObject))

	// cty conversion accepts convertible values, e.g. "true" -> bool.
	require.NoError(t, r.Set(EnableAmlDebugObject, cty.StringVal("true")))
	assert.True(t, r.Bool(EnableAmlDebugObject))
}

func TestUnknownSwitch(t *testing.T) {
	r := New()
	require.NoError(t, r.Init(nil))

	assert.ErrorIs(t, r.Set("no_such_switch", cty.True), ErrUnknownSwitch)
	_, err := r.Value("no_such_switch")
	assert.ErrorIs(t, err, ErrUnknownSwitch)
}

func TestBuildExcludedSwitchIsSilentNoOp(t *testing.T) {
	r := New() // no FeatureDebugger
	require.NoError(t, r.Init(nil))

	// Writes succeed but do nothing; reads fail as the switch is absent.
	require.NoError(t, r.Set(MethodExecuting, cty.True))
	_, err := r.Value(MethodExecuting)
	assert.ErrorIs(t, err, ErrUnknownSwitch)
}

func TestFeatureEnablesSwitch(t *testing.T) {
	r := New(FeatureDebugger)
	require.NoError(t, r.Init(nil))

	assert.False(t, r.Bool(MethodExecuting))
	require.NoError(t, r.Set(MethodExecuting, cty.True))
	assert.True(t, r.Bool(MethodExecuting))
}

func TestDebugOutputFeatureSelectsVerboseDefault(t *testing.T) {
	normal := New()
	require.NoError(t, normal.Init(nil))
	debug := New(FeatureDebugOutput)
	require.NoError(t, debug.Init(nil))

	assert.Less(t, normal.Uint32(DbgLevel), debug.Uint32(DbgLevel))
}

func TestSnapshot(t *testing.T) {
	r := New()
	require.NoError(t, r.Init(map[string]cty.Value{CopyDsdtLocally: cty.True}))

	snap := r.Snapshot()
	assert.Equal(t, cty.True, snap[CopyDsdtLocally])
	assert.Equal(t, cty.False, snap[InterpreterSlack])
	assert.NotContains(t, snap, MethodExecuting)

	// Snapshot is a copy, not a live view.
	snap[InterpreterSlack] = cty.True
	assert.False(t, r.Bool(InterpreterSlack))
}

func TestOverrideOfUnknownSwitchFailsInit(t *testing.T) {
	r := New()
	err := r.Init(map[string]cty.Value{"typo_switch": cty.True})
	assert.ErrorIs(t, err, ErrUnknownSwitch)
}
