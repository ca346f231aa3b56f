package display

import (
	"fmt"
	"os"

	"github.com/geomantic/tilepress/internal/term"
)

// PrintBanner prints the ASCII art banner; magenta if colors are enabled.
func PrintBanner() {
	if term.Enabled() {
		fmt.Fprint(os.Stdout, term.Magenta)
	}
	fmt.Fprint(os.Stdout, ` _____ _ _
|_   _(_) | ___ _ __  _ __ ___  ___ ___
  | | | | |/ _ \ '_ \| '__/ _ \/ __/ __|
  | | | | |  __/ |_) | | |  __/\__ \__ \
  |_| |_|_|\___| .__/|_|  \___||___/___/
               |_|
`)
	if term.Enabled() {
		fmt.Fprintln(os.Stdout, term.NC)
	}
}
