package check

import (
	"os"

	"golang.org/x/term"
)

// IsTTY checks if the given file descriptor is a terminal.
func IsTTY(fd uintptr) bool {
	return term.IsTerminal(int(fd))
}

// IsOutputTerminal checks if stdout is a TTY. Annotation output is only
// useful in CI, so the CLI defaults to human-readable output when a
// user is watching.
func IsOutputTerminal() bool {
	return IsTTY(os.Stdout.Fd())
}
