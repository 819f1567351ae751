package config

import (
	"os"
	"path/filepath"
)

const defaultBaseDir = ".concierge"

// Paths holds resolved filesystem paths for Concierge data.
type Paths struct {
	Base     string // ~/.concierge
	Config   string // ~/.concierge/config.yaml
	Data     string // ~/.concierge/data
	Database string // ~/.concierge/data/concierge.db
	Logs     string // ~/.concierge/logs
}

// ResolvePaths computes all standard paths from the home directory.
// If CONCIERGE_HOME is set, it overrides the default base directory.
func ResolvePaths() (Paths, error) {
	base := os.Getenv("CONCIERGE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Paths{}, err
		}
		base = filepath.Join(home, defaultBaseDir)
	}

	return Paths{
		Base:     base,
		Config:   filepath.Join(base, "config.yaml"),
		Data:     filepath.Join(base, "data"),
		Database: filepath.Join(base, "data", "concierge.db"),
		Logs:     filepath.Join(base, "logs"),
	}, nil
}

// EnsureDirs creates all standard directories if they don't exist.
func (p Paths) EnsureDirs() error {
	dirs := []string{p.Base, p.Data, p.Logs}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o700); err != nil {
			return err
		}
	}
	return nil
}
