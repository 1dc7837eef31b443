package backend

import (
	"os"
	"sync"

	"github.com/pelletier/go-toml/v2"
)

type BridgeConfig struct {
	// Path to the spotify CLI. Empty to resolve from $PROJECT_DIR
	// or the bridge's install location.
	CLIPath string
	// Interpreter used to run the CLI. Empty to resolve php from
	// $PHP_BIN or PATH.
	Interpreter string
	// Run CLIPath directly instead of through the interpreter.
	RunCLIDirectly bool
	// Name shown by the OS media surfaces.
	PlayerName string
	Verbose    bool
	// Log a notice at startup if a newer release is available.
	CheckForUpdates bool
}

type SurfacesConfig struct {
	EnableMPRIS   bool
	EnableMPMedia bool
	EnableSMTC    bool
}

type ArtworkConfig struct {
	Enabled                bool
	MaxCachedFiles         int
	DownloadTimeoutSeconds int
	RetryMax               int
}

type IPCConfig struct {
	Enabled bool
}

type Config struct {
	Bridge   BridgeConfig
	Surfaces SurfacesConfig
	Artwork  ArtworkConfig
	IPC      IPCConfig
}

func DefaultConfig(playerName string) *Config {
	return &Config{
		Bridge: BridgeConfig{
			PlayerName: playerName,
		},
		Surfaces: SurfacesConfig{
			EnableMPRIS:   true,
			EnableMPMedia: true,
			EnableSMTC:    true,
		},
		Artwork: ArtworkConfig{
			Enabled:                true,
			MaxCachedFiles:         20,
			DownloadTimeoutSeconds: 10,
			RetryMax:               2,
		},
		IPC: IPCConfig{
			Enabled: true,
		},
	}
}

func ReadConfigFile(filepath, playerName string) (*Config, error) {
	f, err := os.Open(filepath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	c := DefaultConfig(playerName)
	if err := toml.NewDecoder(f).Decode(c); err != nil {
		return nil, err
	}

	if c.Bridge.PlayerName == "" {
		c.Bridge.PlayerName = playerName
	}
	c.Artwork.MaxCachedFiles = clamp(c.Artwork.MaxCachedFiles, 1, 500)
	c.Artwork.DownloadTimeoutSeconds = clamp(c.Artwork.DownloadTimeoutSeconds, 1, 120)
	c.Artwork.RetryMax = clamp(c.Artwork.RetryMax, 0, 10)

	return c, nil
}

var writeLock sync.Mutex

func (c *Config) WriteConfigFile(filepath string) error {
	if !writeLock.TryLock() {
		return nil // another write in progress
	}
	defer writeLock.Unlock()

	b, err := toml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath, b, 0644)
}

func clamp(i, min, max int) int {
	if i < min {
		i = min
	} else if i > max {
		i = max
	}
	return i
}
