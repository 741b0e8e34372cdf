// Package config exposes the httpcopy configuration for embedding.
package config

import internalconfig "github.com/SmitUplenchwar2687/httpcopy/internal/config"

// Config is the top-level configuration for an httpcopy instance.
type Config = internalconfig.Config

// ReplayConfig holds shadow replay settings.
type ReplayConfig = internalconfig.ReplayConfig

// StatsConfig selects the counter backend.
type StatsConfig = internalconfig.StatsConfig

// Layout is the directory layout under the data directory.
type Layout = internalconfig.Layout

// Default returns a Config with the stock defaults. Listen and Forward
// must still be set.
func Default() Config {
	return internalconfig.Default()
}

// LoadFile reads a JSON config file and merges it over Default.
func LoadFile(path string) (Config, error) {
	return internalconfig.LoadFile(path, internalconfig.Default())
}

// WriteExample writes an example config file to the given path.
func WriteExample(path string) error {
	return internalconfig.WriteExample(path)
}
