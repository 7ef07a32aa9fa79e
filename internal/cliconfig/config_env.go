package cliconfig

import "os"

// ApplyEnvConfig applies configuration from environment variables (DROPSHIP_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("host", os.Getenv("DROPSHIP_HOST"), &cfg.Host)
	s.setString("watch", os.Getenv("DROPSHIP_WATCH_DIR"), &cfg.WatchDir)
	s.setString("save-dir", os.Getenv("DROPSHIP_SAVE_DIR"), &cfg.SaveDir)
	s.setString("exec", os.Getenv("DROPSHIP_EXEC"), &cfg.Exec)

	if err := s.setDuration("dial-timeout", os.Getenv("DROPSHIP_DIAL_TIMEOUT"), &cfg.DialTimeout); err != nil {
		return err
	}
	if err := s.setDuration("debounce", os.Getenv("DROPSHIP_DEBOUNCE"), &cfg.Debounce); err != nil {
		return err
	}
	if err := s.setDuration("poll-timeout", os.Getenv("DROPSHIP_POLL_TIMEOUT"), &cfg.PollTimeout); err != nil {
		return err
	}
	if err := s.setDuration("consume-interval", os.Getenv("DROPSHIP_CONSUME_INTERVAL"), &cfg.ConsumeInterval); err != nil {
		return err
	}

	if err := s.setIntFromString("port", os.Getenv("DROPSHIP_PORT"), &cfg.Port); err != nil {
		return err
	}
	if err := s.setIntFromString("retry-max", os.Getenv("DROPSHIP_RETRY_MAX"), &cfg.RetryMax); err != nil {
		return err
	}
	if err := s.setIntFromString("chunk-size", os.Getenv("DROPSHIP_CHUNK_SIZE"), &cfg.ChunkSize); err != nil {
		return err
	}

	s.setBoolFromString("debug", os.Getenv("DROPSHIP_DEBUG"), &cfg.Debug)

	return nil
}
