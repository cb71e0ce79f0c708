package config

import (
	"github.com/mkulik-rh/rpm/pkg/macro"
	"github.com/mkulik-rh/rpm/pkg/types"
)

// Config is the decoded configuration
type Config struct {
	// Root is the filesystem root packages are installed under
	Root        string            `koanf:"root"`
	Transaction Transaction       `koanf:"transaction"`
	Database    Database          `koanf:"database"`
	Keyring     Keyring           `koanf:"keyring"`
	Macros      map[string]string `koanf:"macros"`
}

// Transaction holds the global transaction switches
type Transaction struct {
	Test          bool `koanf:"test"`
	JustDB        bool `koanf:"justdb"`
	NoScripts     bool `koanf:"noscripts"`
	NoCollections bool `koanf:"nocollections"`
}

type Database struct {
	Path string `koanf:"path"`
}

type Keyring struct {
	Trusted []string `koanf:"trusted"`
}

// Flags converts the transaction switches to transaction flags
func (c *Config) Flags() types.TransFlags {
	flags := types.TransNone
	if c.Transaction.Test {
		flags |= types.TransTest
	}
	if c.Transaction.JustDB {
		flags |= types.TransJustDB
	}
	if c.Transaction.NoScripts {
		flags |= types.TransNoScripts
	}
	if c.Transaction.NoCollections {
		flags |= types.TransNoCollections
	}
	return flags
}

// MacroContext returns a macro context holding the configured macros
func (c *Config) MacroContext() *macro.Context {
	ctx := macro.NewContext()
	for name, body := range c.Macros {
		ctx.Define(name, body)
	}
	return ctx
}
