// Package config defines the shape of bfc's configuration as bound by
// internal/cli through viper: flags, env, and an optional config file
// all merge into a Config.
package config

// Config mirrors what viper unmarshals from flags, BFC_-prefixed env
// vars, and an optional bfc.config.{json,yaml,toml} file.
type Config struct {
	Root    string      `mapstructure:"root" json:"root" yaml:"root"`
	Out     string      `mapstructure:"out" json:"out" yaml:"out"`
	Adapter string      `mapstructure:"adapter" json:"adapter" yaml:"adapter"`
	AliasTS bool        `mapstructure:"aliasTs" json:"aliasTs" yaml:"aliasTs"`
	Entries []EntrySpec `mapstructure:"entries" json:"entries" yaml:"entries"`
}

// EntrySpec is a discriminated union the CLI layer maps into real
// internal/entry providers. Type selects which of the fields below
// apply: "explicit" uses Name/Path directly; "rootsTs" parses a
// webpack-style roots.ts via File/NameFrom.
type EntrySpec struct {
	Type string `mapstructure:"type" json:"type" yaml:"type"`

	// rootsTs fields
	File     string `mapstructure:"file" json:"file" yaml:"file"`
	NameFrom string `mapstructure:"nameFrom" json:"nameFrom" yaml:"nameFrom"`

	// explicit fields
	Name string `mapstructure:"name" json:"name" yaml:"name"`
	Path string `mapstructure:"path" json:"path" yaml:"path"`

	// Component optionally names the non-principal component within
	// Path's resolved entry file (spec.md §4.1's named-target rule).
	// Empty means "that file's principal component". Only "explicit"
	// entries use it; "rootsTs" entries ignore it.
	Component string `mapstructure:"component" json:"component" yaml:"component"`
}
