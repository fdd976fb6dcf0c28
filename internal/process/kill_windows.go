//go:build windows

// Package process terminates browser process trees left behind by the renderer.
package process

import (
	"os/exec"
	"strconv"
)

// KillProcessGroup kills pid and its children with taskkill (/T tree kill).
func KillProcessGroup(pid int) {
	// Best effort; launcher.Kill() runs afterwards as a fallback.
	_ = exec.Command("taskkill", "/F", "/T", "/PID", strconv.Itoa(pid)).Run()
}
