// Package config loads the layered rpmte configuration: embedded defaults,
// then the user config file, then RPMTE_ environment variables.
package config
