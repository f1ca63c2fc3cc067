// Package config loads the TOML file naming boot images, save-type
// overrides, and accuracy toggles (SPEC_FULL.md AMBIENT STACK
// "Configuration"). Grounded on the teacher's go.mod, which already
// carries github.com/BurntSushi/toml as an indirect dependency; promoted
// here to a direct one.
package config

import (
	"fmt"

	"github.com/BurntSushi/toml"

	"nitro-core-dx/internal/cart"
)

// Config is the decoded shape of a console's TOML configuration file.
type Config struct {
	BIOS9Path    string `toml:"bios9_path"`
	BIOS7Path    string `toml:"bios7_path"`
	FirmwarePath string `toml:"firmware_path"`
	ROMPath      string `toml:"rom_path"`
	SavePath     string `toml:"save_path"`

	// SaveType overrides automatic detection when non-empty; must name
	// one of the SaveType constants (e.g. "flash_8mib"). Empty means
	// "let cart.DetectSaveType decide".
	SaveType string `toml:"save_type"`

	Accuracy AccuracyConfig `toml:"accuracy"`

	Audio AudioConfig `toml:"audio"`
}

// AccuracyConfig holds the [accuracy] table's toggles for the
// application-CPU's pipeline, interlock and MPU modeling (spec.md §4.3).
// They are decoded and stored only: nothing reads them, and cpu9 always
// models the pipeline, the interlocks and the MPU whatever their values.
type AccuracyConfig struct {
	Pipeline  bool `toml:"pipeline"`
	Interlock bool `toml:"interlock"`
	MPU       bool `toml:"mpu"`
}

// AudioConfig configures the host audio backend cmd/console drives.
type AudioConfig struct {
	SampleRate int `toml:"sample_rate"`
}

// Default returns a Config with every accuracy toggle enabled and a
// 32768 Hz sample rate, matching the real console's audio hardware rate.
func Default() Config {
	return Config{
		Accuracy: AccuracyConfig{Pipeline: true, Interlock: true, MPU: true},
		Audio:    AudioConfig{SampleRate: 32768},
	}
}

// Load decodes a TOML file at path, starting from Default() so any
// field the file omits keeps its default.
func Load(path string) (Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// saveTypeNames maps a config file's save_type string onto cart.SaveType,
// matching the variant list spec.md §6 names.
var saveTypeNames = map[string]cart.SaveType{
	"none":               cart.SaveNone,
	"eeprom_4kib":        cart.SaveEEPROM4Kib,
	"eeprom_fram_64kib":  cart.SaveEEPROMFRAM64Kib,
	"eeprom_fram_512kib": cart.SaveEEPROMFRAM512Kib,
	"eeprom_fram_1mib":   cart.SaveEEPROMFRAM1Mib,
	"flash_2mib":         cart.SaveFlash2Mib,
	"flash_4mib":         cart.SaveFlash4Mib,
	"flash_8mib":         cart.SaveFlash8Mib,
	"flash_8mib_ir":      cart.SaveFlash8MibInfrared,
	"nand":               cart.SaveNAND,
}

// ResolveSaveType looks up c.SaveType by name, returning ok == false when
// it's empty or unrecognized so the caller can fall back to
// cart.DetectSaveType.
func (c Config) ResolveSaveType() (cart.SaveType, bool) {
	st, ok := saveTypeNames[c.SaveType]
	return st, ok
}
