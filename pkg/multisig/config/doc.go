// Package config loads coordinator settings from MULTISIG_* environment
// variables.
package config
