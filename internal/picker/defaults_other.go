//go:build !darwin && !windows

package picker

func defaultCommand(title string) (string, []string) {
	// zenity exits with status 1 when the dialog is cancelled
	return "zenity", []string{"--file-selection", "--directory", "--title", title}
}
