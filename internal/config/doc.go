// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for gpthelper.
//
// Configuration lives in a single TOML file with sensible defaults and
// validation. On first run Load writes a template file so the operator can
// fill in the tokens and restart.
//
// # Configuration Location
//
//   - ~/.gpthelper/config.toml
//
// # Usage
//
// Load configuration:
//
//	cfg, created, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if created {
//	    // template written; fill in tokens and restart
//	}
package config
