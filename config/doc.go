// Package config declares the networks, compiler settings and credential
// sourcing used by the deploy and flatten tools.
//
// Values come from the process environment (optionally seeded from a .env
// file) with literal fallbacks. Nothing is validated here beyond presence of
// the deployer key; malformed values surface where they are used.
package config
