/*
 * SEIS - Simulator configuration.
 *
 * Copyright 2024, Richard Cornwell
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

// Package config parses and validates the simulator's TOML
// configuration: penalties, pipelining/writethrough policy, and
// per-kind cache geometry.
package config

import (
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/rcornwell/seis/cache"
)

// CacheKind is one cache's TOML stanza: `{mode="disabled"}` or
// `{mode="associative", set_bits, offset_bits, ways}`.
type CacheKind struct {
	Mode       string `toml:"mode"`
	SetBits    int    `toml:"set_bits"`
	OffsetBits int    `toml:"offset_bits"`
	Ways       int    `toml:"ways"`
}

// ToCacheConfig converts the TOML stanza into a cache.Config.
func (k CacheKind) ToCacheConfig() (cache.Config, error) {
	switch k.Mode {
	case "", "disabled":
		return cache.Config{Mode: cache.ModeDisabled}, nil
	case "associative":
		cfg := cache.Config{
			Mode: cache.ModeAssociative, SetBits: k.SetBits,
			OffsetBits: k.OffsetBits, Ways: k.Ways,
		}
		return cfg, cfg.Validate()
	default:
		return cache.Config{}, &Error{Field: "cache.mode", Why: fmt.Sprintf("unknown mode %q", k.Mode)}
	}
}

// Caches is the `cache.data` / `cache.instruction` stanza pair.
type Caches struct {
	Data        CacheKind `toml:"data"`
	Instruction CacheKind `toml:"instruction"`
}

// Config is the fully parsed, not-yet-validated simulator configuration.
type Config struct {
	MissPenalty     uint32 `toml:"miss_penalty"`
	VolatilePenalty uint32 `toml:"volatile_penalty"`
	Pipelining      bool   `toml:"pipelining"`
	Writethrough    bool   `toml:"writethrough"`
	Cache           Caches `toml:"cache"`
}

// Error is SEIS's ConfigError: an invalid cache geometry or a
// non-positive penalty, refused before the simulator starts.
type Error struct {
	Field string
	Why   string
}

func (e *Error) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Why)
}

// Default returns the configuration used when none is supplied: both
// caches disabled, pipelining and writethrough both on, modest penalties.
func Default() Config {
	return Config{
		MissPenalty: 10, VolatilePenalty: 20,
		Pipelining: true, Writethrough: true,
	}
}

// Load reads and validates a TOML configuration file.
func Load(path string) (Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("reading configuration %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// LoadString parses an inline TOML configuration, used by the `-i` CLI flag.
func LoadString(text string) (Config, error) {
	cfg := Default()
	if _, err := toml.Decode(text, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing inline configuration: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate checks the penalties and both cache geometries.
func (c Config) Validate() error {
	if c.MissPenalty == 0 {
		return &Error{Field: "miss_penalty", Why: "must be > 0"}
	}
	if c.VolatilePenalty == 0 {
		return &Error{Field: "volatile_penalty", Why: "must be > 0"}
	}
	if _, err := c.Cache.Data.ToCacheConfig(); err != nil {
		return err
	}
	if _, err := c.Cache.Instruction.ToCacheConfig(); err != nil {
		return err
	}
	return nil
}
