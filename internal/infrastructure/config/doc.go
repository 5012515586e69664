// Package config loads and validates controller configuration.
//
// Configuration comes from three layers, each overriding the last:
//
//  1. Hardcoded defaults (defaultConfig)
//  2. A YAML file (configs/config.yaml by default)
//  3. Environment variables (WEMOCTL_* plus GOVEE_API_KEY)
//
// The config file is optional; a fresh checkout runs on defaults plus
// a GOVEE_API_KEY environment variable. Validation happens once at
// load time so the rest of the program can trust the values it reads.
package config
