package config

import (
	"errors"
	"fmt"
	"time"
)

type Config struct {
	Bind        string
	Port        int
	WordFile    string
	NumColors   int
	MaxRounds   int
	TurnTimeout time.Duration
	ExportFile  string
	Verbose     bool
}

func Default() Config {
	return Config{
		Bind:      "0.0.0.0",
		Port:      8080,
		WordFile:  "words.txt",
		NumColors: 6,
		MaxRounds: 2,
	}
}

func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.Port)
	}
	if c.NumColors < 1 {
		return fmt.Errorf("invalid color count (must be at least 1): %d", c.NumColors)
	}
	if c.MaxRounds < 1 {
		return fmt.Errorf("invalid round count (must be at least 1): %d", c.MaxRounds)
	}
	if c.WordFile == "" {
		return errors.New("a word file is required")
	}
	if c.TurnTimeout < 0 {
		return fmt.Errorf("invalid turn timeout: %s", c.TurnTimeout)
	}
	return nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Bind, c.Port)
}
