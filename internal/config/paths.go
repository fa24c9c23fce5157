package config

import (
	"os"
	"path/filepath"
	"strings"
)

// EnvHome relocates relative runtime paths (logs, static objects) away from the binary.
const EnvHome = "LOGOFORGE_HOME"

// RuntimeRoot is the directory relative runtime paths hang off:
// $LOGOFORGE_HOME, else the executable's directory, else the working directory.
func RuntimeRoot() string {
	if home := strings.TrimSpace(os.Getenv(EnvHome)); home != "" {
		return filepath.Clean(home)
	}
	if exe, err := os.Executable(); err == nil {
		if resolved, err := filepath.EvalSymlinks(exe); err == nil {
			exe = resolved
		}
		return filepath.Dir(exe)
	}
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return "."
}

// ResolveRuntimePath returns raw, or fallback when raw is blank, anchored at RuntimeRoot.
func ResolveRuntimePath(raw, fallback string) string {
	target := strings.TrimSpace(raw)
	if target == "" {
		target = strings.TrimSpace(fallback)
	}
	if filepath.IsAbs(target) {
		return filepath.Clean(target)
	}
	return filepath.Join(RuntimeRoot(), target)
}
