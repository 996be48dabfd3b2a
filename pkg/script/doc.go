// Package script loads and replays store sessions described in JSON, YAML
// or TOML files, using a set of generic built-in mutations.
package script
