// Package config provides configuration management for the bridge.
//
// It loads configuration from defaults, a YAML file, and environment
// variable overrides, validates the result, and can watch the file for
// changes so seed lists reload without a restart.
package config
