// Package model defines the domain types shared across the pybuild CLI:
// exit codes, the CLIError type that carries them, and the small value
// types describing interpreters, build invocations, and preflight checks.
package model
