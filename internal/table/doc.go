// Package table implements the host-side table installation policy: the
// checksum validation, root-table selection and address-width decisions
// that the table-facing configuration switches gate. It operates on
// in-memory firmware images; physical discovery and mapping belong to the
// platform layer above.
package table
