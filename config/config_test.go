package config_test

import (
	"os"
	"path/filepath"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/ortlang/ortc/config"
)

func TestDefaultCompilerOptions(t *testing.T) {
	c := qt.New(t)

	opts := config.DefaultCompilerOptions()

	c.Assert(opts, qt.IsNotNil)
	c.Assert(opts.Comments, qt.IsTrue)
	c.Assert(opts.Destruct, qt.IsFalse)
}

func TestWithComments(t *testing.T) {
	c := qt.New(t)

	opts := config.WithComments(false)
	c.Assert(opts.Comments, qt.IsFalse)
	c.Assert(opts.Destruct, qt.IsFalse)
}

func TestWithDestruct(t *testing.T) {
	c := qt.New(t)

	opts := config.WithDestruct(true)
	c.Assert(opts.Destruct, qt.IsTrue)
	c.Assert(opts.Comments, qt.IsTrue)
}

func TestLoadProjectConfig_MissingFile(t *testing.T) {
	c := qt.New(t)

	opts, err := config.LoadProjectConfig(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	c.Assert(err, qt.IsNil)
	c.Assert(opts, qt.DeepEquals, config.DefaultCompilerOptions())
}

func TestLoadProjectConfig_EmptyPath(t *testing.T) {
	c := qt.New(t)

	opts, err := config.LoadProjectConfig("")
	c.Assert(err, qt.IsNil)
	c.Assert(opts, qt.DeepEquals, config.DefaultCompilerOptions())
}

func TestLoadProjectConfig_Overrides(t *testing.T) {
	c := qt.New(t)

	dir := t.TempDir()
	path := filepath.Join(dir, ".ortc.yaml")
	c.Assert(os.WriteFile(path, []byte("comments: false\ndestruct: true\n"), 0o644), qt.IsNil)

	opts, err := config.LoadProjectConfig(path)
	c.Assert(err, qt.IsNil)
	c.Assert(opts.Comments, qt.IsFalse)
	c.Assert(opts.Destruct, qt.IsTrue)
}
