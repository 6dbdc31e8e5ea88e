// Copyright (c) 2024 Michael D Henderson. All rights reserved.

// Package config loads the JSON configuration file that controls the
// compiler's debug toggles and parallelism switches (SPEC_FULL.md
// §2.3). A missing or malformed config file is never fatal: Load falls
// back to Default and reports the reason through the debug logger
// only, the same tolerance the teacher's config loader shows toward a
// missing player config.
package config

import (
	"encoding/json"
	"log"
	"os"
	"reflect"

	"github.com/flint-lang/flintfe/cerrs"
)

// Config is the root configuration object loaded from disk.
type Config struct {
	Parser     Parser_t     `json:"Parser"`
	DebugFlags DebugFlags_t `json:"DebugFlags"`
}

// Parser_t controls resolver/parser scheduling, matching spec §5's
// concurrency knobs.
type Parser_t struct {
	Parallel    bool `json:"Parallel,omitempty"`
	HardCrash   bool `json:"HardCrash,omitempty"`
	MinimalTree bool `json:"MinimalTree,omitempty"`
}

// DebugFlags_t enables verbose per-stage logging, mirroring the
// teacher's DebugFlags_t block of independent bool toggles.
type DebugFlags_t struct {
	Lexer    bool `json:"Lexer,omitempty"`
	Matcher  bool `json:"Matcher,omitempty"`
	Parser   bool `json:"Parser,omitempty"`
	Resolver bool `json:"Resolver,omitempty"`
	Types    bool `json:"Types,omitempty"`
}

// Default returns a Config with the compiler's built-in defaults:
// parallel body passes on, hard_crash off, full tree (no LSP subset).
func Default() *Config {
	return &Config{
		Parser: Parser_t{
			Parallel:    true,
			HardCrash:   false,
			MinimalTree: false,
		},
	}
}

// Load reads name as a JSON Config, overlaying only the fields it sets
// onto Default(). A missing or unreadable file, or malformed JSON, is
// logged (when debug is set) and yields the defaults with a nil error.
// A directory yields the defaults with cerrs.ErrNotDirectory, and any
// other non-regular file the defaults with cerrs.ErrNotAFile.
func Load(name string, debug bool) (*Config, error) {
	if debug {
		log.Printf("[config] %q: loading configuration...", name)
	}
	cfg := Default()

	sb, err := os.Stat(name)
	if err != nil {
		if debug {
			log.Printf("[config] %q: %v", name, err)
		}
		return cfg, nil
	}
	if sb.IsDir() {
		return cfg, cerrs.ErrNotDirectory
	} else if !sb.Mode().IsRegular() {
		return cfg, cerrs.ErrNotAFile
	}

	data, err := os.ReadFile(name)
	if err != nil {
		if debug {
			log.Printf("[config] %q: %v", name, err)
		}
		return cfg, nil
	}
	var tmp Config
	if err := json.Unmarshal(data, &tmp); err != nil {
		if debug {
			log.Printf("[config] %q: %v", name, err)
		}
		return cfg, nil
	}
	if debug {
		if nice, err := json.MarshalIndent(tmp, "", "  "); err == nil {
			log.Printf("[config] %s", nice)
		}
	}

	copyNonZeroFields(&tmp, cfg)
	if cfg.Parser.MinimalTree {
		cfg.Parser.Parallel = false // minimal-tree mode always forces the serial body pass
	}
	return cfg, nil
}

// copyNonZeroFields recursively copies non-zero fields from src onto
// dst, the teacher's reflection-based overlay idiom for letting a
// partial JSON document override only the fields it mentions.
func copyNonZeroFields(src, dst interface{}) {
	srcVal := reflect.ValueOf(src)
	dstVal := reflect.ValueOf(dst)
	if srcVal.Kind() == reflect.Ptr {
		srcVal = srcVal.Elem()
	}
	if dstVal.Kind() == reflect.Ptr {
		dstVal = dstVal.Elem()
	}
	if srcVal.Kind() != reflect.Struct || dstVal.Kind() != reflect.Struct {
		return
	}
	for i := 0; i < srcVal.NumField(); i++ {
		srcField := srcVal.Field(i)
		dstField := dstVal.Field(i)
		if !srcField.CanInterface() || !dstField.CanSet() {
			continue
		}
		if srcField.IsZero() {
			continue
		}
		switch srcField.Kind() {
		case reflect.Struct:
			copyNonZeroFields(srcField.Interface(), dstField.Addr().Interface())
		default:
			dstField.Set(srcField)
		}
	}
}
