package ui

import (
	"github.com/mkulik-rh/rpm/pkg/header"
	"github.com/mkulik-rh/rpm/pkg/types"
)

// Package describes one transaction element for `inspect`
type Package struct {
	Key         string       `json:"key"`
	NEVRA       string       `json:"nevra"`
	Type        string       `json:"type"`
	Color       types.Color  `json:"color"`
	Source      bool         `json:"source,omitempty"`
	Files       int          `json:"files"`
	Relocations []Relocation `json:"relocations,omitempty"`
	Collections []string     `json:"collections,omitempty"`
	Problems    []string     `json:"problems,omitempty"`

	// Header is dumped by FormatXML
	Header *header.Header `json:"-"`
}

// Relocation is one entry of an element's relocation table. An empty New
// marks an exclusion.
type Relocation struct {
	Old string `json:"old"`
	New string `json:"new,omitempty"`
}

// ElementResult is the outcome of one element of a transaction run
type ElementResult struct {
	NEVRA  string `json:"nevra"`
	Type   string `json:"type"`
	Failed bool   `json:"failed,omitempty"`
}

// RunReport summarises a transaction run
type RunReport struct {
	Flags    string          `json:"flags"`
	Elements []ElementResult `json:"elements"`
	Problems []string        `json:"problems,omitempty"`
	Failed   int             `json:"failed"`
}

// Event is a transaction notification shown while a run progresses
type Event struct {
	NEVRA  string
	What   types.CallbackType
	Amount uint64
	Total  uint64
}
