package config

import (
	"os"
	"path/filepath"
)

const defaultBaseDir = ".voyago"

// Paths holds resolved filesystem paths for voyago data.
type Paths struct {
	Base   string // ~/.voyago
	Config string // ~/.voyago/config.yaml
	DB     string // ~/.voyago/data/voyago.db
	Logs   string // ~/.voyago/logs
}

// ResolvePaths computes all standard paths from the home directory.
// If VOYAGO_HOME is set, it overrides the default base directory.
func ResolvePaths() (Paths, error) {
	base := os.Getenv("VOYAGO_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Paths{}, err
		}
		base = filepath.Join(home, defaultBaseDir)
	}

	return Paths{
		Base:   base,
		Config: filepath.Join(base, "config.yaml"),
		DB:     filepath.Join(base, "data", "voyago.db"),
		Logs:   filepath.Join(base, "logs"),
	}, nil
}

// EnsureDirs creates all standard directories if they don't exist.
func (p Paths) EnsureDirs() error {
	dirs := []string{p.Base, filepath.Dir(p.DB), p.Logs}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o700); err != nil {
			return err
		}
	}
	return nil
}
