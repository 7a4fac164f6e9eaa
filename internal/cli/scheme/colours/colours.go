package colours

import "github.com/fatih/color"

// Color scheme for the CLI
var (
	Title   = color.New(color.FgCyan, color.Bold)
	Culture = color.New(color.FgMagenta)
	Prompt  = color.New(color.FgGreen, color.Bold)
	Moral   = color.New(color.FgYellow, color.Bold)
	Muted   = color.New(color.FgHiBlack)
	Error   = color.New(color.FgRed, color.Bold)
	Success = color.New(color.FgGreen)
	Info    = color.New(color.FgBlue)
	Warning = color.New(color.FgYellow)
)

// SetEnabled turns colour output on or off for every palette entry.
func SetEnabled(enabled bool) {
	color.NoColor = !enabled
}
