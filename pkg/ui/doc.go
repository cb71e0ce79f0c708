// Package ui renders command results for the rpmte CLI.
//
// Output comes in four shapes: styled terminal output (lipgloss styles
// loaded from the embedded styles.yaml, pterm colored progress lines),
// plain text, JSON and, for package inspection, the <rpmHeader> XML dump.
// FormatAuto picks terminal or text output depending on whether the
// writer is a color capable terminal.
package ui
