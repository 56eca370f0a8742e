package picker

import "fmt"

func defaultCommand(title string) (string, []string) {
	// osascript exits with status 1 when the dialog is cancelled
	script := fmt.Sprintf(`POSIX path of (choose folder with prompt %q)`, title)
	return "osascript", []string{"-e", script}
}
