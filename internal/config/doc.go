// Package config resolves server settings from defaults, an optional config
// file, the environment, and command-line flags.
package config
