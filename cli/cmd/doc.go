// Package cmd implements the ytsub subcommands.
//
// Each command is a kong command struct with a Run method taking the command
// context and the writer for its result. Diagnostics go to the package-level
// logger; only results are written to the writer.
package cmd

var (
	// CacheIdentifier is the kong variable identifier containing the path to
	// the runtime cache directory.
	CacheIdentifier = "cache"

	// ConfigIdentifier is the kong variable identifier containing the path to
	// the configuration file written by [Init].
	ConfigIdentifier = "config"

	// SourcesIdentifier is the kong variable identifier containing the
	// comma-separated names of the known sources.
	SourcesIdentifier = "sources"

	// PresetPathIdentifier is the kong variable identifier containing the
	// default preset search path.
	PresetPathIdentifier = "presetPath"
)
