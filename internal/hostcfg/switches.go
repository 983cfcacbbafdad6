package hostcfg

import (
	"github.com/zclconf/go-cty/cty"
)

// Switch names. These are the keys used by Get/Set, by HCL override files
// and by the diagnostics endpoint.
const (
	// InterpreterSlack relaxes strict error handling: implicit
	// returns, out-of-bounds region access, auto-init of uninitialized
	// locals, loose Store() typing and unresolved package references are
	// tolerated (with warnings) instead of failing hard.
	InterpreterSlack = "interpreter_slack"

	// AutoSerializeMethods scans every non-serialized control method once
	// at load time; methods that create named objects are permanently
	// marked serialized so concurrent invocations are mutually exclusive.
	AutoSerializeMethods = "auto_serialize_methods"

	// CreateOsiMethod installs the predefined _OSI compatibility query
	// method in the namespace.
	CreateOsiMethod = "create_osi_method"

	// UseDefaultRegisterWidths substitutes known-good widths when the
	// firmware-declared register widths are invalid.
	UseDefaultRegisterWidths = "use_default_register_widths"

	// EnableTableValidation fully maps and checksums a table before
	// installing it.
	EnableTableValidation = "enable_table_validation"

	// EnableAmlDebugObject forwards interpreter Debug-object writes to the
	// host diagnostic output.
	EnableAmlDebugObject = "enable_aml_debug_object"

	// CopyDsdtLocally copies the DSDT into local memory instead of
	// aliasing the firmware image, for firmware that mutates or relocates
	// the original.
	CopyDsdtLocally = "copy_dsdt_locally"

	// DoNotUseXsdt prefers the legacy 32-bit root table over the extended
	// table even when an XSDT is present.
	DoNotUseXsdt = "do_not_use_xsdt"

	// Use32BitFadtAddresses favors the 32-bit FADT address on a 32/64-bit
	// address conflict.
	Use32BitFadtAddresses = "use_32bit_fadt_addresses"

	// Use32BitFacsAddresses favors the 32-bit FACS address on a 32/64-bit
	// address conflict.
	Use32BitFacsAddresses = "use_32bit_facs_addresses"

	// TruncateIoAddresses clamps I/O port addresses to 16 bits. Flipped to
	// true at runtime if the firmware requests any Windows OSI string.
	TruncateIoAddresses = "truncate_io_addresses"

	// DisableAutoRepair disables runtime repair of malformed method
	// return values.
	DisableAutoRepair = "disable_auto_repair"

	// DisableSsdtTableInstall skips secondary description tables during
	// table installation.
	DisableSsdtTableInstall = "disable_ssdt_table_install"

	// RuntimeNamespaceOverride allows runtime redefinition of namespace
	// objects.
	RuntimeNamespaceOverride = "runtime_namespace_override"

	// MaxLoopIterations bounds the iteration count of the innermost
	// active loop of a control-method invocation; exceeding it aborts the
	// invocation.
	MaxLoopIterations = "max_loop_iterations"

	// IgnorePackageResolutionErrors replaces unresolved package element
	// references with null elements instead of failing the load.
	IgnorePackageResolutionErrors = "ignore_package_resolution_errors"

	// OsiData tracks the latest Windows compatibility level requested by
	// the firmware through _OSI.
	OsiData = "osi_data"

	// ReducedHardware mirrors the FADT reduced-hardware flag.
	ReducedHardware = "reduced_hardware"

	// Single-method execution tracing.
	TraceFlags      = "trace_flags"
	TraceMethodName = "trace_method_name"
	TraceDbgLevel   = "trace_dbg_level"
	TraceDbgLayer   = "trace_dbg_layer"

	// Diagnostic verbosity and component bitmasks.
	DbgLevel = "dbg_level"
	DbgLayer = "dbg_layer"

	// DisplayDebugTimer prefixes Debug-object output with a timestamp.
	DisplayDebugTimer = "display_debug_timer"

	// MethodExecuting is the debugger command-handshake flag. It is only
	// present when the debugger feature is compiled in; Set is a silent
	// no-op otherwise.
	MethodExecuting = "method_executing"
)

// DefaultMaxLoopIterations is the build-time watchdog bound applied when no
// override is supplied.
const DefaultMaxLoopIterations uint32 = 0x000FFFFF

// Diagnostic mask defaults. The effective DbgLevel default depends on
// whether the registry is constructed with FeatureDebugOutput.
const (
	dbgLevelNormalDefault uint32 = 0x0000000B // init + debug-object + repair
	dbgLevelDebugDefault  uint32 = 0x0000001F // normal + info + exec
	dbgLayerAllComponents uint32 = 0xFFFFFFFF
)

// Mutability controls whether a switch accepts writes after Init seals the
// registry.
type Mutability int

const (
	// InitOnly switches reject Set once Init has completed.
	InitOnly Mutability = iota

	// RuntimeMutable switches accept Set for the life of the process.
	RuntimeMutable
)

// Feature names an optional build feature. A switch tagged with a feature
// is excluded from registries built without it; writes to excluded switches
// are silent no-ops so shared host code need not care which features the
// build carries.
type Feature string

const (
	// FeatureDebugger enables the debugger handshake switches.
	FeatureDebugger Feature = "debugger"

	// FeatureDebugOutput selects the verbose diagnostic level default.
	FeatureDebugOutput Feature = "debug_output"
)

// Switch describes one entry of the registry table: its name, value type,
// built-in default, write policy and (optionally) the build feature it
// belongs to.
type Switch struct {
	Name       string
	Type       cty.Type
	Default    cty.Value
	Mutability Mutability
	Feature    Feature
}

func boolSwitch(name string, def bool, mut Mutability) Switch {
	return Switch{Name: name, Type: cty.Bool, Default: cty.BoolVal(def), Mutability: mut}
}

func uint32Switch(name string, def uint32, mut Mutability) Switch {
	return Switch{Name: name, Type: cty.Number, Default: cty.NumberUIntVal(uint64(def)), Mutability: mut}
}

func stringSwitch(name string, def string, mut Mutability) Switch {
	return Switch{Name: name, Type: cty.String, Default: cty.StringVal(def), Mutability: mut}
}

// switchTable is the single authoritative list of switches. Defaults match
// the subsystem's documented contract; every registry instance starts from
// this table.
func switchTable() []Switch {
	return []Switch{
		boolSwitch(InterpreterSlack, false, RuntimeMutable),
		boolSwitch(AutoSerializeMethods, true, InitOnly),
		boolSwitch(CreateOsiMethod, true, InitOnly),
		boolSwitch(UseDefaultRegisterWidths, true, InitOnly),
		boolSwitch(EnableTableValidation, true, InitOnly),
		boolSwitch(EnableAmlDebugObject, false, RuntimeMutable),
		boolSwitch(CopyDsdtLocally, false, InitOnly),
		boolSwitch(DoNotUseXsdt, false, InitOnly),
		boolSwitch(Use32BitFadtAddresses, false, InitOnly),
		boolSwitch(Use32BitFacsAddresses, true, InitOnly),
		boolSwitch(TruncateIoAddresses, false, RuntimeMutable),
		boolSwitch(DisableAutoRepair, false, RuntimeMutable),
		boolSwitch(DisableSsdtTableInstall, false, InitOnly),
		boolSwitch(RuntimeNamespaceOverride, true, RuntimeMutable),
		uint32Switch(MaxLoopIterations, DefaultMaxLoopIterations, RuntimeMutable),
		boolSwitch(IgnorePackageResolutionErrors, false, RuntimeMutable),
		uint32Switch(OsiData, 0, RuntimeMutable),
		boolSwitch(ReducedHardware, false, InitOnly),
		uint32Switch(TraceFlags, 0, RuntimeMutable),
		stringSwitch(TraceMethodName, "", RuntimeMutable),
		uint32Switch(TraceDbgLevel, dbgLevelDebugDefault, RuntimeMutable),
		uint32Switch(TraceDbgLayer, dbgLayerAllComponents, RuntimeMutable),
		uint32Switch(DbgLevel, dbgLevelNormalDefault, RuntimeMutable),
		uint32Switch(DbgLayer, dbgLayerAllComponents, RuntimeMutable),
		boolSwitch(DisplayDebugTimer, false, RuntimeMutable),
		{
			Name:       MethodExecuting,
			Type:       cty.Bool,
			Default:    cty.False,
			Mutability: RuntimeMutable,
			Feature:    FeatureDebugger,
		},
	}
}
