package worker

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// Locate resolves the worker executable for the current platform.
//
// Names containing a path separator are used as given. Bare names are
// tried as "<name>-<GOOS>-<GOARCH>" first and "<name>" second (each with
// ".exe" on Windows), in dirs, then next to the host executable, then
// on PATH.
func Locate(name string, dirs []string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("%w: no command configured", ErrExecutableNotFound)
	}

	if strings.ContainsRune(name, '/') || strings.ContainsRune(name, filepath.Separator) {
		path, err := filepath.Abs(name)
		if err != nil {
			return "", fmt.Errorf("%w: %s: %v", ErrExecutableNotFound, name, err)
		}
		if !isExecutable(path) {
			return "", fmt.Errorf("%w: %s", ErrExecutableNotFound, name)
		}
		return path, nil
	}

	candidates := PlatformNames(name)

	searchDirs := append([]string{}, dirs...)
	if self, err := os.Executable(); err == nil {
		searchDirs = append(searchDirs, filepath.Dir(self))
	}

	for _, dir := range searchDirs {
		for _, candidate := range candidates {
			path := filepath.Join(dir, candidate)
			if isExecutable(path) {
				return path, nil
			}
		}
	}

	for _, candidate := range candidates {
		if path, err := exec.LookPath(candidate); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("%w: %s", ErrExecutableNotFound, name)
}

// PlatformNames returns the file names under which the executable
// for name is looked up, most specific first.
func PlatformNames(name string) []string {
	base, ext := name, ""
	if runtime.GOOS == "windows" {
		ext = ".exe"
		if strings.EqualFold(filepath.Ext(name), ext) {
			base = name[:len(name)-len(ext)]
		}
	}

	return []string{
		fmt.Sprintf("%s-%s-%s%s", base, runtime.GOOS, runtime.GOARCH, ext),
		base + ext,
	}
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}

	if runtime.GOOS == "windows" {
		return true
	}

	return info.Mode().Perm()&0o111 != 0
}
