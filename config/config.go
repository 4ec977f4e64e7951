// Package config provides programmatic and file-based configuration for
// the ortc compiler: DDL comment emission and the migration validator's
// destructive-mode default, in the teacher's functional-options idiom
// (DefaultCompareOptions/WithIgnoredExtensions shape, adapted to ortc's own
// option set).
package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/viper"
)

// CompilerOptions controls the compiler-wide defaults spec.md §4.5/§4.7
// name: whether DDL comments are emitted and whether the migration
// validator treats deletions as destructive by default.
type CompilerOptions struct {
	// Comments enables doc-comment and epoch-note emission in DDL output.
	Comments bool
	// Destruct is the migration validator's default destructive-mode
	// setting, overridable per invocation by the compile CLI's flags.
	Destruct bool
}

// DefaultCompilerOptions returns ortc's out-of-the-box defaults: comments
// on, destructive migrations off (spec.md §4.7 treats destruct as an
// explicit opt-in).
func DefaultCompilerOptions() *CompilerOptions {
	return &CompilerOptions{
		Comments: true,
		Destruct: false,
	}
}

// WithComments returns a new CompilerOptions with Comments set as given,
// leaving Destruct at its default.
func WithComments(enabled bool) *CompilerOptions {
	o := DefaultCompilerOptions()
	o.Comments = enabled
	return o
}

// WithDestruct returns a new CompilerOptions with Destruct set as given,
// leaving Comments at its default.
func WithDestruct(enabled bool) *CompilerOptions {
	o := DefaultCompilerOptions()
	o.Destruct = enabled
	return o
}

// LoadProjectConfig reads an optional `.ortc` config file (YAML, TOML, or
// JSON, auto-detected by viper) from the given path, overlaying its values
// onto DefaultCompilerOptions. A missing file is not an error: the
// defaults are returned unchanged, matching the teacher's tolerance for an
// absent project-level config.
func LoadProjectConfig(path string) (*CompilerOptions, error) {
	o := DefaultCompilerOptions()
	if path == "" {
		return o, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetDefault("comments", o.Comments)
	v.SetDefault("destruct", o.Destruct)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return o, nil
		}
		if errors.Is(err, fs.ErrNotExist) {
			return o, nil
		}
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	o.Comments = v.GetBool("comments")
	o.Destruct = v.GetBool("destruct")
	return o, nil
}
