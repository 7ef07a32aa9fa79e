package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	DialTimeout     string `toml:"dial_timeout"`
	WatchDir        string `toml:"watch_dir"`
	Debounce        string `toml:"debounce"`
	RetryMax        int    `toml:"retry_max"`
	SaveDir         string `toml:"save_dir"`
	PollTimeout     string `toml:"poll_timeout"`
	ConsumeInterval string `toml:"consume_interval"`
	Exec            string `toml:"exec"`
	ChunkSize       int    `toml:"chunk_size"`
	Debug           *bool  `toml:"debug"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns ~/.dropship/config.toml, or "" when the home
// directory is unknown.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".dropship", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("host", fc.Host, &cfg.Host)
	s.setString("watch", fc.WatchDir, &cfg.WatchDir)
	s.setString("save-dir", fc.SaveDir, &cfg.SaveDir)
	s.setString("exec", fc.Exec, &cfg.Exec)

	if err := s.setDuration("dial-timeout", fc.DialTimeout, &cfg.DialTimeout); err != nil {
		return err
	}
	if err := s.setDuration("debounce", fc.Debounce, &cfg.Debounce); err != nil {
		return err
	}
	if err := s.setDuration("poll-timeout", fc.PollTimeout, &cfg.PollTimeout); err != nil {
		return err
	}
	if err := s.setDuration("consume-interval", fc.ConsumeInterval, &cfg.ConsumeInterval); err != nil {
		return err
	}

	s.setInt("port", fc.Port, &cfg.Port)
	s.setInt("retry-max", fc.RetryMax, &cfg.RetryMax)
	s.setInt("chunk-size", fc.ChunkSize, &cfg.ChunkSize)

	s.setBool("debug", fc.Debug, &cfg.Debug)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
