// Package build compiles and installs manifest entries from pinned sources.
//
// Entries are processed one at a time in dependency order. Each entry is
// fetched, patched, and handed to the handler for its build type; toolchain
// provisioning for cargo-pgrx is memoized per (tool, version, server major)
// in a ToolchainCache owned by the run.
package build
