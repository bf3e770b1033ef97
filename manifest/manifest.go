// Package manifest handles grue.toml session configuration.
package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Manifest represents a grue.toml session configuration.
type Manifest struct {
	Story  Story  `toml:"story"`
	Random Random `toml:"random"`
	Trace  Trace  `toml:"trace"`
	Screen Screen `toml:"screen"`

	// Dir is the directory containing the grue.toml file (set at load time).
	Dir string `toml:"-"`
}

// Story locates the story file to run.
type Story struct {
	Path string `toml:"path"`
}

// Random configures the deterministic generator. Seed 0 seeds from entropy
// at startup.
type Random struct {
	Seed int64 `toml:"seed"`
}

// Trace configures the step trace store.
type Trace struct {
	Enabled bool   `toml:"enabled"`
	DB      string `toml:"db"`
}

// Screen configures the terminal screen dimensions.
type Screen struct {
	Width  int `toml:"width"`
	Height int `toml:"height"`
}

// Load parses a grue.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, "grue.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	// Defaults
	if m.Screen.Width == 0 {
		m.Screen.Width = 80
	}
	if m.Screen.Height == 0 {
		m.Screen.Height = 24
	}
	if m.Trace.DB == "" {
		m.Trace.DB = "trace.db"
	}

	return &m, nil
}

// FindAndLoad walks up from startDir to find a grue.toml file, then loads
// and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, "grue.toml")
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// Validate checks fields that must be usable before a session starts.
func (m *Manifest) Validate() error {
	if m.Story.Path == "" {
		return errors.New("story.path is required")
	}
	return nil
}

// StoryPath returns the absolute path of the configured story file.
func (m *Manifest) StoryPath() string {
	if filepath.IsAbs(m.Story.Path) {
		return m.Story.Path
	}
	return filepath.Join(m.Dir, m.Story.Path)
}

// TraceDBPath returns the absolute path of the trace database.
func (m *Manifest) TraceDBPath() string {
	if filepath.IsAbs(m.Trace.DB) {
		return m.Trace.DB
	}
	return filepath.Join(m.Dir, m.Trace.DB)
}
