// Package config loads tailsrv's configuration: CLI flags layered over
// an optional YAML file of defaults, matching spec.md §6.2.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Options holds every tailsrv setting, whatever its source.
type Options struct {
	Path                    string `yaml:"path"`
	Port                    int    `yaml:"port"`
	LingerAfterFileIsGone   bool   `yaml:"lingerAfterFileIsGone"`
	Journald                bool   `yaml:"journald"`
	AdminAddr               string `yaml:"adminAddr"`
	AdminAuthSecret         string `yaml:"adminAuthSecret"`
}

// File is the subset of Options that may come from a YAML config file.
// Zero values mean "not set" and are left for flags (or built-in
// defaults) to supply.
type File struct {
	Port                  *int    `yaml:"port"`
	LingerAfterFileIsGone *bool   `yaml:"lingerAfterFileIsGone"`
	Journald              *bool   `yaml:"journald"`
	AdminAddr             *string `yaml:"adminAddr"`
	AdminAuthSecret       *string `yaml:"adminAuthSecret"`
}

// LoadFile parses a YAML config file. An empty path is not an error —
// it simply yields an empty File.
func LoadFile(path string) (File, error) {
	if path == "" {
		return File{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("read config %s: %w", path, err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return File{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return f, nil
}

// ApplyDefaults copies each value present in f into opts unless the
// matching flag was set explicitly, as reported by flagChanged (see
// cmd/tailsrv, which passes pflag's Changed). Flags set explicitly by
// the user always win.
func ApplyDefaults(opts *Options, f File, flagChanged func(name string) bool) {
	if !flagChanged("port") && f.Port != nil {
		opts.Port = *f.Port
	}
	if !flagChanged("linger-after-file-is-gone") && f.LingerAfterFileIsGone != nil {
		opts.LingerAfterFileIsGone = *f.LingerAfterFileIsGone
	}
	if !flagChanged("journald") && f.Journald != nil {
		opts.Journald = *f.Journald
	}
	if !flagChanged("admin-addr") && f.AdminAddr != nil {
		opts.AdminAddr = *f.AdminAddr
	}
	if !flagChanged("admin-auth-secret") && f.AdminAuthSecret != nil {
		opts.AdminAuthSecret = *f.AdminAuthSecret
	}
}
