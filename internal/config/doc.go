// Package config loads and merges csreview configuration from multiple sources.
//
// Precedence (highest to lowest):
//  1. CLI flags
//  2. Environment variables (CSREVIEW_FORMAT, CSREVIEW_FAIL_ON, CSREVIEW_JOBS, etc.)
//  3. Config file (.csreview.{yaml,yml,toml,json} found walking up from the
//     scan root, or $XDG_CONFIG_HOME/csreview/config.*)
//  4. Built-in defaults
//
// Use [Load] to obtain a merged [Config], [Save] to write a config file, and
// [SetField] to update a single key.
package config
