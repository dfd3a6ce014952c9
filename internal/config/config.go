// Package config loads and saves the host application's JSON configuration
// file. It knows nothing about emulation itself; it only describes how the
// host window, audio output and key bindings should be set up.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config holds the host application's persisted settings.
type Config struct {
	Window    WindowConfig    `json:"window"`
	Video     VideoConfig     `json:"video"`
	Audio     AudioConfig     `json:"audio"`
	Input     InputConfig     `json:"input"`
	Emulation EmulationConfig `json:"emulation"`
	Paths     PathsConfig     `json:"paths"`

	path string
}

// WindowConfig describes the host window.
type WindowConfig struct {
	Scale      int  `json:"scale"` // NES resolution multiplier
	Fullscreen bool `json:"fullscreen"`
}

// VideoConfig describes rendering options.
type VideoConfig struct {
	VSync  bool   `json:"vsync"`
	Filter string `json:"filter"` // "nearest" or "linear"
}

// AudioConfig describes the host audio player.
type AudioConfig struct {
	Enabled    bool    `json:"enabled"`
	SampleRate int     `json:"sample_rate"`
	Volume     float32 `json:"volume"`
}

// InputConfig holds keyboard bindings for both controller ports.
type InputConfig struct {
	Player1 KeyMapping `json:"player1_keys"`
	Player2 KeyMapping `json:"player2_keys"`
}

// KeyMapping names an ebiten key for every NES controller button.
type KeyMapping struct {
	Up     string `json:"up"`
	Down   string `json:"down"`
	Left   string `json:"left"`
	Right  string `json:"right"`
	A      string `json:"a"`
	B      string `json:"b"`
	Start  string `json:"start"`
	Select string `json:"select"`
}

// EmulationConfig holds emulation defaults that aren't per-ROM.
type EmulationConfig struct {
	Region string `json:"region"` // "NTSC" or "PAL"
}

// PathsConfig holds directories the host reads and writes.
type PathsConfig struct {
	SaveData   string `json:"save_data"`
	SaveStates string `json:"save_states"`
}

// Default returns the configuration used when no file exists yet.
func Default() *Config {
	return &Config{
		Window: WindowConfig{Scale: 2, Fullscreen: false},
		Video:  VideoConfig{VSync: true, Filter: "nearest"},
		Audio:  AudioConfig{Enabled: true, SampleRate: 44100, Volume: 0.8},
		Input: InputConfig{
			Player1: KeyMapping{Up: "W", Down: "S", Left: "A", Right: "D", A: "J", B: "K", Start: "Enter", Select: "Space"},
			Player2: KeyMapping{Up: "Up", Down: "Down", Left: "Left", Right: "Right", A: "N", B: "M", Start: "RightShift", Select: "RightControl"},
		},
		Emulation: EmulationConfig{Region: "NTSC"},
		Paths:     PathsConfig{SaveData: "./saves", SaveStates: "./states"},
	}
}

// Load reads a config file, creating one from defaults if it doesn't exist.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		c := Default()
		c.path = path
		if err := c.Save(); err != nil {
			return nil, err
		}
		return c, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	c := Default()
	if err := json.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	c.path = path
	c.applyDefaults()
	return c, nil
}

// Save writes the configuration back to the path it was loaded from.
func (c *Config) Save() error {
	if c.path == "" {
		return fmt.Errorf("config: no path set")
	}
	if dir := filepath.Dir(c.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("config: create %s: %w", dir, err)
		}
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.WriteFile(c.path, data, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", c.path, err)
	}
	return nil
}

// applyDefaults fills in zero-valued fields a partial or older config file
// left unset, so a hand-edited config only needs to name what it overrides.
func (c *Config) applyDefaults() {
	if c.Window.Scale <= 0 {
		c.Window.Scale = 2
	}
	if c.Video.Filter == "" {
		c.Video.Filter = "nearest"
	}
	if c.Audio.SampleRate <= 0 {
		c.Audio.SampleRate = 44100
	}
	if c.Audio.Volume <= 0 {
		c.Audio.Volume = 0.8
	}
	if c.Emulation.Region == "" {
		c.Emulation.Region = "NTSC"
	}
	if c.Paths.SaveData == "" {
		c.Paths.SaveData = "./saves"
	}
	if c.Paths.SaveStates == "" {
		c.Paths.SaveStates = "./states"
	}
}

// WindowResolution returns the host window size for the NES's native
// 256x240 frame at the configured scale.
func (c *Config) WindowResolution() (int, int) {
	return 256 * c.Window.Scale, 240 * c.Window.Scale
}
