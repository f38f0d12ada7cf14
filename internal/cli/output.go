// Package cli — output.go holds small formatting helpers shared by the
// subcommand result printers.
package cli

import "time"

// timeRounding is the precision used when printing durations. Millisecond
// noise in "Build succeeded in 12.345678901s" helps nobody.
const timeRounding = 10 * time.Millisecond
