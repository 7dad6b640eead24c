// Package config loads the daemon's intervention tuning from a YAML
// file in the state directory. Missing file means defaults; a present
// but malformed file is an error so typos do not silently revert
// thresholds.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Intervention tunes one distraction watcher.
type Intervention struct {
	Enabled          *bool `yaml:"enabled"`
	ThresholdMinutes int   `yaml:"threshold_minutes"`
}

// Dimmer extends Intervention with the nightly activation time.
type Dimmer struct {
	Intervention  `yaml:",inline"`
	TriggerHour   int `yaml:"trigger_hour"`
	TriggerMinute int `yaml:"trigger_minute"`
}

// Config is the full interventions.yaml document.
type Config struct {
	CheckIntervalSeconds int          `yaml:"check_interval_seconds"`
	Dimmer               Dimmer       `yaml:"dimmer"`
	Marquee              Intervention `yaml:"marquee"`
	Reminder             Intervention `yaml:"reminder"`
}

// Default returns the built-in tuning: a 5 second check cadence, the
// dimmer armed from 23:00 after 15 minutes of distraction, the marquee
// at 15 minutes, and the break reminder at 20.
func Default() Config {
	on := true
	return Config{
		CheckIntervalSeconds: 5,
		Dimmer: Dimmer{
			Intervention: Intervention{Enabled: &on, ThresholdMinutes: 15},
			TriggerHour:  23,
		},
		Marquee:  Intervention{Enabled: &on, ThresholdMinutes: 15},
		Reminder: Intervention{Enabled: &on, ThresholdMinutes: 20},
	}
}

// Load reads interventions.yaml from the state directory. A missing
// file returns defaults.
func Load(statePath string) (Config, error) {
	path := filepath.Join(statePath, "interventions.yaml")

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.fillDefaults()
	return cfg, nil
}

// fillDefaults backfills fields the file set to zero or omitted.
// Explicit enabled: false survives; the pointer distinguishes
// "omitted" from "off".
func (c *Config) fillDefaults() {
	def := Default()
	if c.CheckIntervalSeconds <= 0 {
		c.CheckIntervalSeconds = def.CheckIntervalSeconds
	}
	if c.Dimmer.Enabled == nil {
		c.Dimmer.Enabled = def.Dimmer.Enabled
	}
	if c.Dimmer.ThresholdMinutes <= 0 {
		c.Dimmer.ThresholdMinutes = def.Dimmer.ThresholdMinutes
	}
	if c.Dimmer.TriggerHour == 0 && c.Dimmer.TriggerMinute == 0 {
		c.Dimmer.TriggerHour = def.Dimmer.TriggerHour
	}
	if c.Marquee.Enabled == nil {
		c.Marquee.Enabled = def.Marquee.Enabled
	}
	if c.Marquee.ThresholdMinutes <= 0 {
		c.Marquee.ThresholdMinutes = def.Marquee.ThresholdMinutes
	}
	if c.Reminder.Enabled == nil {
		c.Reminder.Enabled = def.Reminder.Enabled
	}
	if c.Reminder.ThresholdMinutes <= 0 {
		c.Reminder.ThresholdMinutes = def.Reminder.ThresholdMinutes
	}
}

// CheckInterval returns the watch cadence as a duration.
func (c Config) CheckInterval() time.Duration {
	return time.Duration(c.CheckIntervalSeconds) * time.Second
}

// On reports whether an intervention is enabled.
func (i Intervention) On() bool {
	return i.Enabled != nil && *i.Enabled
}

// Threshold returns the intervention's streak threshold as a duration.
func (i Intervention) Threshold() time.Duration {
	return time.Duration(i.ThresholdMinutes) * time.Minute
}
