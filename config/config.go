// Package config handles plang.toml engine configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/Troppydash/plang-interpreter-sub000/vm"
)

// FileName is the configuration file looked up by Load and FindAndLoad.
const FileName = "plang.toml"

// Config represents a plang.toml configuration.
type Config struct {
	Engine Engine  `toml:"engine"`
	Log    Logging `toml:"log"`
	Host   Host    `toml:"host"`

	// Dir is the directory containing the plang.toml file (set at load time).
	Dir string `toml:"-"`
}

// Engine configures the interpreter.
type Engine struct {
	Trace        bool   `toml:"trace"`
	DumpProgram  bool   `toml:"dump-program"`
	RootName     string `toml:"root-name"`
	MaxCallDepth int    `toml:"max-call-depth"`
}

// Logging configures commonlog.
type Logging struct {
	Verbosity int    `toml:"verbosity"`
	File      string `toml:"file"`
}

// Host configures the standard host adapter.
type Host struct {
	BaseDir string `toml:"base-dir"`
}

// Default returns the configuration used when no plang.toml exists.
func Default() *Config {
	return &Config{
		Engine: Engine{RootName: "<main>", MaxCallDepth: vm.DefaultMaxCallDepth},
		Host:   Host{BaseDir: "."},
		Dir:    ".",
	}
}

// Load parses a plang.toml file from the given directory.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	c := Default()
	if err := toml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	c.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	// Defaults
	if c.Host.BaseDir == "" {
		c.Host.BaseDir = "."
	}
	if c.Engine.RootName == "" {
		c.Engine.RootName = "<main>"
	}
	if c.Engine.MaxCallDepth < 0 {
		return nil, fmt.Errorf("%s: max call depth must not be negative", path)
	}
	if c.Log.Verbosity < 0 {
		return nil, fmt.Errorf("%s: log verbosity must not be negative", path)
	}

	return c, nil
}

// FindAndLoad walks up from startDir to find a plang.toml file, then
// loads it. Returns the default configuration if none is found.
func FindAndLoad(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return Default(), nil
		}
		dir = parent
	}
}

// EngineOptions returns the interpreter options.
func (c *Config) EngineOptions() vm.Options {
	return vm.Options{
		Trace:        c.Engine.Trace,
		DumpProgram:  c.Engine.DumpProgram,
		RootName:     c.Engine.RootName,
		MaxCallDepth: c.Engine.MaxCallDepth,
	}
}

// BaseDirPath returns the absolute host base directory. Relative paths are
// resolved against the directory holding the configuration.
func (c *Config) BaseDirPath() string {
	if filepath.IsAbs(c.Host.BaseDir) {
		return c.Host.BaseDir
	}
	return filepath.Join(c.Dir, c.Host.BaseDir)
}

// NewHost creates a standard host on the process streams rooted at the
// configured base directory.
func (c *Config) NewHost() *vm.StdHost {
	h := vm.DefaultHost()
	h.BaseDir = c.BaseDirPath()
	return h
}

// NewInterpreter creates an interpreter with the standard natives, the
// configured host and engine options.
func (c *Config) NewInterpreter() *vm.Interpreter {
	return vm.NewInterpreter(vm.StandardNatives(), c.NewHost(), c.EngineOptions())
}

// ConfigureLogging sets up commonlog with the configured verbosity and
// log file. An empty file logs to stderr.
func (c *Config) ConfigureLogging() {
	if c.Log.File == "" {
		commonlog.Configure(c.Log.Verbosity, nil)
		return
	}
	path := c.Log.File
	if !filepath.IsAbs(path) {
		path = filepath.Join(c.Dir, path)
	}
	commonlog.Configure(c.Log.Verbosity, &path)
}
