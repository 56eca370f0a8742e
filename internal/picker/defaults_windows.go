package picker

import (
	"fmt"
	"strings"
)

const folderBrowserScript = `Add-Type -AssemblyName System.Windows.Forms
$d = New-Object System.Windows.Forms.FolderBrowserDialog
$d.Description = '%s'
if ($d.ShowDialog() -eq 'OK') { Write-Output $d.SelectedPath } else { exit 1 }`

func defaultCommand(title string) (string, []string) {
	script := fmt.Sprintf(folderBrowserScript, strings.ReplaceAll(title, "'", "''"))
	return "powershell", []string{"-NoProfile", "-STA", "-Command", script}
}
