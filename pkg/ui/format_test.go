package ui_test

import (
	"bytes"
	"testing"

	"github.com/mkulik-rh/rpm/pkg/ui"
	"github.com/stretchr/testify/assert"
)

func TestFormatString(t *testing.T) {
	tests := []struct {
		format   ui.Format
		expected string
	}{
		{ui.FormatAuto, "auto"},
		{ui.FormatTerminal, "term"},
		{ui.FormatText, "text"},
		{ui.FormatJSON, "json"},
		{ui.FormatXML, "xml"},
		{ui.Format(999), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.format.String())
		})
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected ui.Format
		wantErr  bool
	}{
		{name: "empty string is auto", input: "", expected: ui.FormatAuto},
		{name: "terminal", input: "terminal", expected: ui.FormatTerminal},
		{name: "plain", input: "plain", expected: ui.FormatText},
		{name: "mixed case json", input: "Json", expected: ui.FormatJSON},
		{name: "xml", input: "XML", expected: ui.FormatXML},
		{name: "invalid", input: "yaml", expected: ui.FormatAuto, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			format, err := ui.ParseFormat(tt.input)
			if tt.wantErr {
				assert.ErrorContains(t, err, "unknown format")
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.expected, format)
		})
	}
}

func TestDetectFormat(t *testing.T) {
	t.Run("non file writer is text", func(t *testing.T) {
		assert.Equal(t, ui.FormatText, ui.DetectFormat(&bytes.Buffer{}))
	})

	t.Run("NO_COLOR forces text", func(t *testing.T) {
		t.Setenv("NO_COLOR", "1")
		assert.Equal(t, ui.FormatText, ui.DetectFormat(&bytes.Buffer{}))
	})
}
