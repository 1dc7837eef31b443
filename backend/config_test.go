package backend

import (
	"os"
	"path/filepath"
	"testing"
)

func TestReadConfigFileDefaults(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(p, []byte("[Bridge]\nVerbose = true\n"), 0644); err != nil {
		t.Fatal(err)
	}
	c, err := ReadConfigFile(p, "Bridge")
	if err != nil {
		t.Fatalf("ReadConfigFile: %v", err)
	}
	if !c.Bridge.Verbose {
		t.Error("Verbose not read")
	}
	if c.Bridge.PlayerName != "Bridge" {
		t.Errorf("PlayerName = %q, want default", c.Bridge.PlayerName)
	}
	def := DefaultConfig("Bridge")
	if c.Artwork != def.Artwork || c.Surfaces != def.Surfaces || c.IPC != def.IPC {
		t.Errorf("unset sections did not keep defaults: %+v", c)
	}
}

func TestReadConfigFileClamps(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.toml")
	data := `[Artwork]
Enabled = false
MaxCachedFiles = 0
DownloadTimeoutSeconds = 1000
RetryMax = -1
`
	if err := os.WriteFile(p, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	c, err := ReadConfigFile(p, "Bridge")
	if err != nil {
		t.Fatalf("ReadConfigFile: %v", err)
	}
	want := ArtworkConfig{Enabled: false, MaxCachedFiles: 1, DownloadTimeoutSeconds: 120, RetryMax: 0}
	if c.Artwork != want {
		t.Errorf("Artwork = %+v, want %+v", c.Artwork, want)
	}
}

func TestReadConfigFileErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := ReadConfigFile(filepath.Join(dir, "missing.toml"), "Bridge"); err == nil {
		t.Error("expected error for missing file")
	}
	bad := filepath.Join(dir, "bad.toml")
	os.WriteFile(bad, []byte("[Bridge\nthis is not toml"), 0644)
	if _, err := ReadConfigFile(bad, "Bridge"); err == nil {
		t.Error("expected error for malformed file")
	}
}

func TestWriteConfigFileRoundTrip(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.toml")
	c := DefaultConfig("Bridge")
	c.Bridge.CLIPath = "/opt/spotify"
	c.Bridge.RunCLIDirectly = true
	c.Surfaces.EnableMPRIS = false
	if err := c.WriteConfigFile(p); err != nil {
		t.Fatalf("WriteConfigFile: %v", err)
	}
	got, err := ReadConfigFile(p, "Other")
	if err != nil {
		t.Fatalf("ReadConfigFile: %v", err)
	}
	if *got != *c {
		t.Errorf("read back %+v, want %+v", got, c)
	}
}
