package table

import (
	"github.com/vk/amlhostgo/internal/diag"
	"github.com/vk/amlhostgo/internal/hostcfg"
)

// RootSource names which root listing an install consumed.
type RootSource string

const (
	SourceXSDT RootSource = "XSDT"
	SourceRSDT RootSource = "RSDT"
)

// Firmware is an in-memory firmware image: the tables reachable from the
// legacy 32-bit root listing and from the extended one. Either listing
// may be empty.
type Firmware struct {
	RSDTTables []RawTable
	XSDTTables []RawTable
}

// InstalledSet is the outcome of an install pass.
type InstalledSet struct {
	Source RootSource
	DSDT   RawTable
	SSDTs  []RawTable
	Others []RawTable

	// Skipped counts tables rejected by validation or policy.
	Skipped int
}

// Installer applies the registry's table policy switches to a firmware
// image.
type Installer struct {
	cfg  *hostcfg.Registry
	sink *diag.Sink
}

// NewInstaller binds an installer to a sealed registry and a sink.
func NewInstaller(cfg *hostcfg.Registry, sink *diag.Sink) *Installer {
	return &Installer{cfg: cfg, sink: sink}
}

// Install walks the preferred root listing and installs its tables.
//
// Policy, per switch: the extended listing is preferred unless
// do_not_use_xsdt reverts to the legacy one; every table is fully
// checksummed before install while enable_table_validation holds, and a
// failing table is skipped, not fatal; secondary description tables are
// skipped wholesale under disable_ssdt_table_install; and the DSDT is
// copied out of the firmware image under copy_dsdt_locally, defending
// against firmware that mutates the original in place.
func (in *Installer) Install(fw *Firmware) *InstalledSet {
	source := SourceXSDT
	roots := fw.XSDTTables
	if in.cfg.Bool(hostcfg.DoNotUseXsdt) || len(fw.XSDTTables) == 0 {
		source = SourceRSDT
		roots = fw.RSDTTables
	}

	set := &InstalledSet{Source: source}
	validate := in.cfg.Bool(hostcfg.EnableTableValidation)
	skipSSDT := in.cfg.Bool(hostcfg.DisableSsdtTableInstall)
	copyDSDT := in.cfg.Bool(hostcfg.CopyDsdtLocally)

	for _, t := range roots {
		sig := t.Signature()
		if validate {
			if err := t.Validate(); err != nil {
				in.sink.Warnf(diag.LayerTables, "skipping table %s: %v", sig, err)
				set.Skipped++
				continue
			}
		}

		switch sig {
		case "DSDT":
			if copyDSDT {
				local := make(RawTable, len(t))
				copy(local, t)
				t = local
				in.sink.Printf(diag.LevelLoad, diag.LayerTables, "copied DSDT to local memory")
			}
			set.DSDT = t
		case "SSDT":
			if skipSSDT {
				in.sink.Printf(diag.LevelLoad, diag.LayerTables, "SSDT install disabled, skipping")
				set.Skipped++
				continue
			}
			set.SSDTs = append(set.SSDTs, t)
		default:
			set.Others = append(set.Others, t)
		}
		in.sink.Printf(diag.LevelLoad, diag.LayerTables, "installed table %s from %s", sig, source)
	}
	return set
}

// ResolveRegisterWidth applies the use_default_register_widths policy: a
// zero or out-of-range declared width is replaced with the known-good
// default when the switch allows it, and returned as-is otherwise.
func (in *Installer) ResolveRegisterWidth(declared, knownGood uint8) uint8 {
	if declared == 0 || declared > 64 {
		if in.cfg.Bool(hostcfg.UseDefaultRegisterWidths) {
			in.sink.Warnf(diag.LayerTables,
				"invalid register width %d, substituting default %d", declared, knownGood)
			return knownGood
		}
	}
	return declared
}

// ResolveAddress picks between the 32-bit and 64-bit forms of a firmware
// address. The 64-bit form wins when the two conflict, unless the
// use-32-bit policy for the owning table says otherwise; a zero entry on
// either side simply defers to the other.
func (in *Installer) ResolveAddress(addr32 uint32, addr64 uint64, use32OnConflict string) uint64 {
	switch {
	case addr64 == 0:
		return uint64(addr32)
	case addr32 == 0 || uint64(addr32) == addr64:
		return addr64
	}

	if in.cfg.Bool(use32OnConflict) {
		in.sink.Warnf(diag.LayerTables,
			"32/64-bit address mismatch (0x%x vs 0x%x), favoring 32-bit", addr32, addr64)
		return uint64(addr32)
	}
	in.sink.Warnf(diag.LayerTables,
		"32/64-bit address mismatch (0x%x vs 0x%x), favoring 64-bit", addr32, addr64)
	return addr64
}

// TruncatePort clamps an I/O port address to 16 bits when the
// truncate_io_addresses switch is set. The switch is runtime-mutable
// because answering a Windows _OSI query turns it on mid-flight.
func (in *Installer) TruncatePort(port uint32) uint32 {
	if in.cfg.Bool(hostcfg.TruncateIoAddresses) {
		return port & 0xFFFF
	}
	return port
}
