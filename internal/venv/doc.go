// Package venv owns virtual environment discovery and activation.
//
// Ownership boundary:
// - venv layout detection (bin vs Scripts)
// - activation artifact location
// - the environment mutation set that sourcing the artifact would apply
//
// Activation here is the environment-variable effect only; no shell is
// involved. The launcher owns when the mutations hit the real process.
package venv
