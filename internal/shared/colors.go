package shared

import (
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Package-level color variables
var (
	ColorInfo    = color.New(color.FgCyan)
	ColorSuccess = color.New(color.FgGreen)
	ColorWarning = color.New(color.FgYellow)
	ColorError   = color.New(color.FgRed)
	ColorPrompt  = color.New(color.FgBlue, color.Bold)
)

// InitializeColors disables color output when stdout is not a terminal.
func InitializeColors() {
	color.NoColor = !isatty.IsTerminal(os.Stdout.Fd())
}
