package rpmte

import (
	_ "embed"
	"strings"
)

// Short messages (one-liners)
const (
	// Command descriptions
	MsgRootShort    = "Build and run package transaction elements"
	MsgInspectShort = "Show the transaction elements of package files"
	MsgRunShort     = "Install and erase packages in one transaction"
	MsgVersionShort = "Print version information"

	// Flag descriptions
	MsgFlagVerbose       = "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)"
	MsgFlagConfig        = "Configuration file (default: $XDG_CONFIG_HOME/rpmte/config.toml)"
	MsgFlagRoot          = "Install packages under this directory"
	MsgFlagDB            = "Package database file"
	MsgFlagFormat        = "Output format: auto, term, text, json or xml"
	MsgFlagRelocate      = "Relocate files from OLD to NEW (OLD=NEW), repeatable"
	MsgFlagExcludePath   = "Do not install files under PATH, repeatable"
	MsgFlagErase         = "Erase the installed packages named NAME, repeatable"
	MsgFlagUpgrade       = "Erase other installed versions of the packages being installed"
	MsgFlagTest          = "Do not change anything, only go through the motions"
	MsgFlagJustDB        = "Update the database only, do not touch files"
	MsgFlagNoScripts     = "Do not run scriptlets"
	MsgFlagNoCollections = "Do not call collection handlers"
	MsgFlagNoDeps        = "Run even when the dependency check reports problems"

	// Errors
	MsgErrNoCommand     = "no command specified"
	MsgErrNoPackages    = "no packages given"
	MsgErrBadRelocation = "invalid relocation %q, expected OLD=NEW"
	MsgErrCheckFailed   = "transaction check found %d problem(s)"
	MsgErrRunFailed     = "%d element(s) failed"
	MsgErrNotInstalled  = "package %s is not installed"
	MsgErrNotAPackage   = "%s is not a package (%s)"

	// Version output
	MsgVersionFormat = "rpmte %s (commit %s, built %s)\n"
)

// Long messages
var (
	//go:embed msgs/root-long.txt
	msgRootLongRaw string
	MsgRootLong    = strings.TrimSpace(msgRootLongRaw)

	//go:embed msgs/inspect-long.txt
	msgInspectLongRaw string
	MsgInspectLong    = strings.TrimSpace(msgInspectLongRaw)

	//go:embed msgs/inspect-example.txt
	msgInspectExampleRaw string
	MsgInspectExample    = strings.TrimRight(msgInspectExampleRaw, "\n")

	//go:embed msgs/run-long.txt
	msgRunLongRaw string
	MsgRunLong    = strings.TrimSpace(msgRunLongRaw)

	//go:embed msgs/run-example.txt
	msgRunExampleRaw string
	MsgRunExample    = strings.TrimRight(msgRunExampleRaw, "\n")

	//go:embed msgs/usage-template.txt
	msgUsageTemplateRaw string
	MsgUsageTemplate    = strings.TrimSpace(msgUsageTemplateRaw)
)
