// Fitline - Virtual Try-On Recommendation Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitline

// Package config loads Fitline configuration using koanf.
//
// Sources are layered, later sources overriding earlier ones:
//
//  1. Built-in defaults (defaultConfig)
//  2. YAML file from CONFIG_PATH, ./config.yaml or /etc/fitline/config.yaml
//  3. Environment variables listed in envMappings
//
// Example config.yaml:
//
//	server:
//	  port: 8080
//	recommend:
//	  similarity_threshold: 0.3
//	  weights:
//	    content: 0.25
//	visual:
//	  enabled: true
//	  index_dir: /data/visual_index
//
// Load validates the merged result and returns the first problem found.
package config
