package library

import (
	"fmt"
	"os"
	"os/exec"
)

// launchEditor opens path in the user's preferred editor. Uses $EDITOR,
// falling back to nano and then vi. The editor inherits the terminal so
// interactive editors work as usual.
func launchEditor(path string) error {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		for _, fallback := range []string{"nano", "vi"} {
			if _, err := exec.LookPath(fallback); err == nil {
				editor = fallback
				break
			}
		}
	}
	if editor == "" {
		return fmt.Errorf("no editor available: set the EDITOR environment variable")
	}

	cmd := exec.Command(editor, path)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
